package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonbit-tools/moonbridge/internal/filesystem"
	"github.com/moonbit-tools/moonbridge/internal/manifest"
	"github.com/moonbit-tools/moonbridge/internal/resolver"
)

// ResolveCommand handles the resolve command
type ResolveCommand struct {
	fs      filesystem.FileSystem
	dir     string
	target  string
	release bool
}

// NewResolveCommand creates a new resolve command
func NewResolveCommand(fs filesystem.FileSystem) *cobra.Command {
	cmd := &ResolveCommand{fs: fs}

	cobraCmd := &cobra.Command{
		Use:   "resolve <specifier>",
		Short: "Print the artifact path a moon: specifier resolves to",
		Args:  cobra.ExactArgs(1),
		Example: `  # Where does the root package artifact live?
  moonbridge resolve moon:user/hello

  # A nested package, wasm-gc backend
  moonbridge resolve moon:user/hello/lib --target wasm-gc`,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVar(&cmd.dir, "dir", "", "project root (default: working directory)")
	cobraCmd.Flags().StringVar(&cmd.target, "target", "js", "backend target: js, wasm, or wasm-gc")
	cobraCmd.Flags().BoolVar(&cmd.release, "release", false, "resolve against optimized artifacts")

	return cobraCmd
}

// Run executes the resolve command
func (c *ResolveCommand) Run(cmd *cobra.Command, args []string) error {
	backend, ok := resolver.ParseBackend(c.target)
	if !ok {
		return fmt.Errorf("unknown target %q (expected js, wasm, or wasm-gc)", c.target)
	}

	mode := resolver.ModeDebug
	if c.release {
		mode = resolver.ModeRelease
	}

	root := c.dir
	if root == "" {
		var err error
		if root, err = c.fs.Getwd(); err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	id, err := manifest.Load(c.fs, root)
	if err != nil {
		return fmt.Errorf("failed to load project manifest: %w", err)
	}

	specifier := args[0]
	path, ok := resolver.Resolve(specifier, id, root, resolver.Target{Backend: backend, Mode: mode})
	if !ok {
		return fmt.Errorf("%q does not resolve for module %s", specifier, id.Name())
	}

	status := "missing (run a build first)"
	if c.fs.Exists(path) {
		status = "exists"
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, status)
	return nil
}
