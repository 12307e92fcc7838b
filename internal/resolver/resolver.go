// Package resolver translates moon: import specifiers into build
// artifact paths following the moon build tree convention, and maps
// specifiers in and out of the host's private module namespace.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/moonbit-tools/moonbridge/internal/manifest"
)

const (
	// Prefix is the namespace prefix importing files use,
	// e.g. "moon:user/hello/lib".
	Prefix = "moon:"

	// VirtualPrefix marks resolved ids as host-private so the host's
	// dependency pre-bundling leaves them alone.
	VirtualPrefix = "\x00moon:"
)

// Backend selects the compiled-artifact flavor.
type Backend string

const (
	BackendJS     Backend = "js"
	BackendWasm   Backend = "wasm"
	BackendWasmGC Backend = "wasm-gc"
)

// Binary reports whether the backend produces a binary artifact that
// needs a generated loader instead of source text.
func (b Backend) Binary() bool {
	return b == BackendWasm || b == BackendWasmGC
}

// Ext returns the artifact file extension including the dot.
func (b Backend) Ext() string {
	if b.Binary() {
		return ".wasm"
	}
	return ".js"
}

// Mode selects the optimized or unoptimized build variant.
type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

// Target is a backend and mode pair. It determines the build output
// directory and artifact extension.
type Target struct {
	Backend Backend
	Mode    Mode
}

// ParseBackend validates a backend name from user input.
func ParseBackend(s string) (Backend, bool) {
	switch Backend(s) {
	case BackendJS, BackendWasm, BackendWasmGC:
		return Backend(s), true
	}
	return "", false
}

// BuildDir returns the build output directory for the target under the
// given project root: <root>/target/<backend>/<mode>/build.
func (t Target) BuildDir(root string) string {
	return filepath.Join(root, "target", string(t.Backend), string(t.Mode), "build")
}

// Resolve maps a specifier to the artifact path it denotes under the
// given project root. Returns false for any specifier outside the
// namespace, for a malformed specifier, or when identity is nil — the
// caller falls through to other resolvers. The returned path is not
// existence-checked; that stays with the caller so Resolve remains pure.
func Resolve(specifier string, id *manifest.Identity, root string, target Target) (string, bool) {
	if id == nil || !strings.HasPrefix(specifier, Prefix) {
		return "", false
	}

	segments := splitSegments(strings.TrimPrefix(specifier, Prefix))
	if len(segments) < 2 {
		return "", false
	}

	// Strip the leading segments that match the module name. A specifier
	// naming some other module is a miss, not an error.
	if len(segments) < len(id.ModuleName) {
		return "", false
	}
	for i, seg := range id.ModuleName {
		if segments[i] != seg {
			return "", false
		}
	}
	tail := segments[len(id.ModuleName):]

	buildDir := target.BuildDir(root)
	ext := target.Backend.Ext()

	// The root package artifact is named after the module's final
	// segment; a nested package's artifact lives in its own directory
	// and is named after that directory's final segment.
	if len(tail) == 0 {
		last := id.ModuleName[len(id.ModuleName)-1]
		return filepath.Join(buildDir, last+ext), true
	}

	last := tail[len(tail)-1]
	parts := append([]string{buildDir}, tail...)
	parts = append(parts, last+ext)
	return filepath.Join(parts...), true
}

// Virtualize maps a specifier into the host's private namespace.
// Returns false if the specifier is outside the moon: namespace.
func Virtualize(specifier string) (string, bool) {
	if !strings.HasPrefix(specifier, Prefix) {
		return "", false
	}
	return VirtualPrefix + strings.TrimPrefix(specifier, Prefix), true
}

// Devirtualize reverses Virtualize. For every valid specifier s,
// Devirtualize(Virtualize(s)) == s.
func Devirtualize(id string) (string, bool) {
	if !strings.HasPrefix(id, VirtualPrefix) {
		return "", false
	}
	return Prefix + strings.TrimPrefix(id, VirtualPrefix), true
}

// IsVirtual reports whether a module id belongs to the moon virtual
// namespace.
func IsVirtual(id string) bool {
	return strings.HasPrefix(id, VirtualPrefix)
}

func splitSegments(rest string) []string {
	var segments []string
	for _, seg := range strings.Split(rest, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
