package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moonbit-tools/moonbridge/internal/filesystem"
	"github.com/moonbit-tools/moonbridge/internal/reload"
	"github.com/moonbit-tools/moonbridge/internal/resolver"
)

func newTestSession(t *testing.T, target resolver.Target, opts ...Option) (*Session, *filesystem.MockFileSystem, *reload.MemoryGraph, *reload.RecordingBroadcaster) {
	t.Helper()

	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/project/moon.mod.json", []byte(`{"name": "u/pkg"}`))

	graph := reload.NewMemoryGraph()
	broadcaster := reload.NewRecordingBroadcaster()

	opts = append([]Option{WithFileSystem(fs)}, opts...)
	s := New("/project", target, graph, broadcaster, opts...)
	return s, fs, graph, broadcaster
}

func TestResolveID(t *testing.T) {
	s, _, _, _ := newTestSession(t, resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease})

	id, ok := s.ResolveID("moon:u/pkg/sub")
	require.True(t, ok)
	require.Equal(t, resolver.VirtualPrefix+"u/pkg/sub", id)

	_, ok = s.ResolveID("react")
	require.False(t, ok)

	_, ok = s.ResolveID("moon:u")
	require.False(t, ok)
}

func TestResolveID_MissingManifestDegrades(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	s := New("/project", resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease},
		reload.NewMemoryGraph(), reload.NewRecordingBroadcaster(), WithFileSystem(fs))

	if _, ok := s.ResolveID("moon:u/pkg"); ok {
		t.Fatal("expected miss while manifest is missing")
	}

	// The manifest appears later; the build-start hook re-fetches it.
	fs.AddFile("/project/moon.mod.json", []byte(`{"name": "u/pkg"}`))
	s.BuildStart()

	if _, ok := s.ResolveID("moon:u/pkg"); !ok {
		t.Fatal("expected hit after lazy manifest load")
	}
}

func TestLoad_ScriptBackend(t *testing.T) {
	s, fs, _, _ := newTestSession(t, resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease})
	fs.AddFile("/project/target/js/release/build/sub/sub.js", []byte("export const x = 1;"))

	source, err := s.Load(resolver.VirtualPrefix + "u/pkg/sub")
	require.NoError(t, err)
	require.Equal(t, "export const x = 1;", source)
}

func TestLoad_ArtifactMissing(t *testing.T) {
	s, _, _, _ := newTestSession(t, resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease})

	_, err := s.Load(resolver.VirtualPrefix + "u/pkg/sub")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrArtifactMissing))
}

func TestLoad_NotVirtual(t *testing.T) {
	s, _, _, _ := newTestSession(t, resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease})

	_, err := s.Load("moon:u/pkg/sub")
	require.True(t, errors.Is(err, ErrNotVirtual))
}

func TestLoad_BinaryBackendServesLoader(t *testing.T) {
	s, fs, _, _ := newTestSession(t, resolver.Target{Backend: resolver.BackendWasmGC, Mode: resolver.ModeDebug})
	fs.AddFile("/project/target/wasm-gc/debug/build/pkg.wasm", []byte{0x00, 0x61, 0x73, 0x6d})

	source, err := s.Load(resolver.VirtualPrefix + "u/pkg")
	require.NoError(t, err)
	require.Contains(t, source, "?init")
	require.Contains(t, source, "export default")
	require.NotContains(t, source, "\x00")
}

func TestPrebundleExclusions(t *testing.T) {
	s, _, _, _ := newTestSession(t, resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease})

	exclusions := s.PrebundleExclusions()
	require.Equal(t, []string{"moon:u/pkg", "moon:u/pkg/*"}, exclusions)

	for _, pattern := range exclusions {
		require.True(t, strings.HasPrefix(pattern, resolver.Prefix))
	}
}

func TestPrebundleExclusions_MissingManifest(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	s := New("/project", resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease},
		reload.NewMemoryGraph(), reload.NewRecordingBroadcaster(), WithFileSystem(fs))

	require.Empty(t, s.PrebundleExclusions())
}

func TestTeardown_Idempotent(t *testing.T) {
	s, _, _, _ := newTestSession(t, resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease})

	// Never started: teardown twice must not panic.
	s.Teardown()
	s.Teardown()
}

func TestOnArtifact_ClearsErrorsAndReloads(t *testing.T) {
	s, _, graph, broadcaster := newTestSession(t, resolver.Target{Backend: resolver.BackendJS, Mode: resolver.ModeRelease})
	graph.Register(resolver.VirtualPrefix + "u/pkg")

	s.buf.Classify("error: stale", false, "info")
	require.NotEmpty(t, s.Errors())

	s.onArtifact()

	require.Empty(t, s.Errors())
	require.Len(t, broadcaster.Sent(), 1)
	require.Equal(t, []string{resolver.VirtualPrefix + "u/pkg"}, graph.Invalidated())
}
