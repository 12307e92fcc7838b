package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonbit-tools/moonbridge/internal/filesystem"
)

// NewRootCommand creates the root command
func NewRootCommand(fs filesystem.FileSystem) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moonbridge",
		Short: "Bridge moon build output into a dev-server pipeline",
		Long: `moonbridge supervises the moon compiler's incremental watch build and
exposes its artifacts to a dev server through the moon: import namespace.

While a session runs, successful rebuilds invalidate loaded moon modules
and trigger a full page reload in connected clients.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(NewServeCommand(fs))
	rootCmd.AddCommand(NewResolveCommand(fs))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	fs := filesystem.NewOSFileSystem()

	rootCmd := NewRootCommand(fs)

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
