package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moonbit-tools/moonbridge/internal/buildlog"
	"github.com/moonbit-tools/moonbridge/internal/filesystem"
	"github.com/moonbit-tools/moonbridge/internal/reload"
	"github.com/moonbit-tools/moonbridge/internal/resolver"
	"github.com/moonbit-tools/moonbridge/internal/session"
	"github.com/moonbit-tools/moonbridge/internal/supervisor"
	"github.com/moonbit-tools/moonbridge/internal/tui"
)

// ServeCommand handles the serve command
type ServeCommand struct {
	fs      filesystem.FileSystem
	dir     string
	target  string
	release bool
	useTUI  bool
	command string
}

// NewServeCommand creates a new serve command
func NewServeCommand(fs filesystem.FileSystem) *cobra.Command {
	cmd := &ServeCommand{fs: fs}

	cobraCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the watch session against an in-process host",
		Long: `Start the moon watch build for the project and keep artifacts fresh,
printing classified build output as it arrives. The in-process host
stands in for a real dev server's module graph and client transport.`,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVar(&cmd.dir, "dir", "", "project root (default: working directory)")
	cobraCmd.Flags().StringVar(&cmd.target, "target", "js", "backend target: js, wasm, or wasm-gc")
	cobraCmd.Flags().BoolVar(&cmd.release, "release", false, "build optimized artifacts")
	cobraCmd.Flags().BoolVar(&cmd.useTUI, "tui", false, "render an interactive dashboard")
	cobraCmd.Flags().StringVar(&cmd.command, "moon", supervisor.DefaultCommand, "path to the moon binary")

	return cobraCmd
}

// Run executes the serve command
func (c *ServeCommand) Run(cmd *cobra.Command, args []string) error {
	target, err := c.resolveTarget()
	if err != nil {
		return err
	}

	root := c.dir
	if root == "" {
		if root, err = c.fs.Getwd(); err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	log := zap.NewNop()
	if !c.useTUI {
		if log, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer func() { _ = log.Sync() }()
	}

	graph := reload.NewMemoryGraph()
	broadcaster := reload.NewLogBroadcaster(log)

	s := session.New(root, target, graph, broadcaster,
		session.WithLogger(log),
		session.WithFileSystem(c.fs),
		session.WithCommand(c.command))
	defer s.Teardown()

	if err := s.ServerStart(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if c.useTUI {
		program := tea.NewProgram(tui.NewModel(s), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run dashboard: %w", err)
		}
		return nil
	}

	return c.printLoop(cmd, s)
}

// printLoop drains and prints classified build output until
// interrupted.
func (c *ServeCommand) printLoop(cmd *cobra.Command, s *session.Session) error {
	printer := buildlog.NewPrinter(cmd.OutOrStdout())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			printer.Print(s.Flush())
		case <-stop:
			printer.Print(s.Flush())
			return nil
		case <-cmd.Context().Done():
			return nil
		}
	}
}

func (c *ServeCommand) resolveTarget() (resolver.Target, error) {
	backend, ok := resolver.ParseBackend(c.target)
	if !ok {
		return resolver.Target{}, fmt.Errorf("unknown target %q (expected js, wasm, or wasm-gc)", c.target)
	}

	mode := resolver.ModeDebug
	if c.release {
		mode = resolver.ModeRelease
	}

	return resolver.Target{Backend: backend, Mode: mode}, nil
}
