package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/moonbit-tools/moonbridge/internal/filesystem"
)

// FileName is the project manifest file expected at the project root.
const FileName = "moon.mod.json"

// DefaultSourceDir is used when the manifest omits the source field.
const DefaultSourceDir = "src"

// ErrMissing indicates the manifest could not be read or parsed. The
// session treats this as "resolver cannot resolve anything" rather than
// a startup failure.
var ErrMissing = errors.New("project manifest missing")

// Identity is the project identity loaded from the manifest. Immutable
// after load; the session re-fetches it lazily if the manifest was
// absent at startup.
type Identity struct {
	// ModuleName is the slash-delimited module name split into segments,
	// e.g. "user/hello" -> ["user", "hello"].
	ModuleName []string

	// SourceDir is the source directory relative to the project root.
	SourceDir string

	// Version is the declared package version, if any.
	Version string
}

// Name returns the module name joined back into its declared form.
func (id *Identity) Name() string {
	return strings.Join(id.ModuleName, "/")
}

// moonModJSON is the minimal subset of moon.mod.json this tool reads.
type moonModJSON struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Version string `json:"version"`
}

// Load reads and parses the manifest at <root>/moon.mod.json.
func Load(fs filesystem.FileSystem, root string) (*Identity, error) {
	path := filepath.Join(root, FileName)

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, path)
	}

	var raw moonModJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrMissing, path, err)
	}

	name := strings.Trim(strings.TrimSpace(raw.Name), "/")
	if name == "" {
		return nil, fmt.Errorf("%w: %s has no name field", ErrMissing, path)
	}

	source := strings.TrimSpace(raw.Source)
	if source == "" {
		source = DefaultSourceDir
	}

	return &Identity{
		ModuleName: strings.Split(name, "/"),
		SourceDir:  source,
		Version:    raw.Version,
	}, nil
}
