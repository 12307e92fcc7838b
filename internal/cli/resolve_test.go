package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moonbit-tools/moonbridge/internal/filesystem"
)

func runResolve(t *testing.T, fs filesystem.FileSystem, args ...string) (string, error) {
	t.Helper()

	cmd := NewResolveCommand(fs)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/project/moon.mod.json", []byte(`{"name": "user/hello"}`))
	fs.AddFile("/project/target/js/debug/build/lib/lib.js", []byte("x"))
	fs.SetCurrentDir("/project")

	out, err := runResolve(t, fs, "moon:user/hello/lib")
	require.NoError(t, err)

	wantPath := filepath.Join("/project", "target", "js", "debug", "build", "lib", "lib.js")
	require.Contains(t, out, wantPath)
	require.Contains(t, out, "exists")
}

func TestResolveCommand_MissingArtifact(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/project/moon.mod.json", []byte(`{"name": "user/hello"}`))
	fs.SetCurrentDir("/project")

	out, err := runResolve(t, fs, "moon:user/hello", "--target", "wasm", "--release")
	require.NoError(t, err)
	require.Contains(t, out, filepath.Join("wasm", "release", "build", "hello.wasm"))
	require.Contains(t, out, "missing")
}

func TestResolveCommand_OutsideNamespace(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/project/moon.mod.json", []byte(`{"name": "user/hello"}`))
	fs.SetCurrentDir("/project")

	_, err := runResolve(t, fs, "lodash")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "does not resolve"))
}

func TestResolveCommand_NoManifest(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/project")
	fs.SetCurrentDir("/project")

	_, err := runResolve(t, fs, "moon:user/hello")
	require.Error(t, err)
}

func TestResolveCommand_UnknownTarget(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/project/moon.mod.json", []byte(`{"name": "user/hello"}`))
	fs.SetCurrentDir("/project")

	_, err := runResolve(t, fs, "moon:user/hello", "--target", "native")
	require.Error(t, err)
}
