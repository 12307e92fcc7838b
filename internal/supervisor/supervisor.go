// Package supervisor owns the external watch subprocess and drives the
// build-outcome state machine from its output.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/moonbit-tools/moonbridge/internal/buildlog"
	"github.com/moonbit-tools/moonbridge/internal/resolver"
)

// DefaultCommand is the external build tool invoked in watch mode.
const DefaultCommand = "moon"

// ErrAlreadyStarted is returned when Start is called while a watch
// process is already owned.
var ErrAlreadyStarted = errors.New("watch process already started")

// Supervisor spawns `moon build --watch` for a target and feeds its
// output through the Transition state machine. It owns the subprocess
// handle exclusively; no other component may touch it.
type Supervisor struct {
	log      *zap.Logger
	buf      *buildlog.Buffer
	target   resolver.Target
	root     string
	onReload func()
	command  string

	mu    sync.Mutex
	state BuildState
	cmd   *exec.Cmd
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Supervisor) {
		s.log = log
	}
}

// WithCommand overrides the watch tool binary, e.g. a moon binary
// outside PATH.
func WithCommand(command string) Option {
	return func(s *Supervisor) {
		s.command = command
	}
}

// New creates a Supervisor. onReload is invoked on each observed build
// completion; it may be nil.
func New(buf *buildlog.Buffer, target resolver.Target, root string, onReload func(), opts ...Option) *Supervisor {
	s := &Supervisor{
		log:      zap.NewNop(),
		buf:      buf,
		target:   target,
		root:     root,
		onReload: onReload,
		command:  DefaultCommand,
		state:    StateIdle,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns the current build state.
func (s *Supervisor) State() BuildState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start spawns the watch process and begins consuming its output. On
// spawn failure the state moves to Failed, one error record is
// buffered, and the error is returned; the session continues without
// auto-rebuild. There is no automatic retry.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cmd != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	s.checkToolVersion(ctx)

	args := []string{"build", "--target", string(s.target.Backend), "--watch"}
	if s.target.Mode == resolver.ModeDebug {
		args = append(args, "--debug")
	}

	cmd := exec.Command(s.command, args...)
	cmd.Dir = s.root
	cmd.Env = append(os.Environ(), "FORCE_COLOR=1")
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.spawnFailed(fmt.Errorf("failed to open stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return s.spawnFailed(fmt.Errorf("failed to open stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return s.spawnFailed(fmt.Errorf("failed to spawn %s: %w", s.command, err))
	}

	s.mu.Lock()
	s.cmd = cmd
	s.state = StateStarting
	s.mu.Unlock()

	s.log.Info("watch process started",
		zap.String("command", s.command),
		zap.Strings("args", args),
		zap.String("root", s.root))

	events := make(chan Event, 64)

	var scanners sync.WaitGroup
	scanners.Add(2)
	go s.scanLines(&scanners, stdout, EventStdoutLine, events)
	go s.scanLines(&scanners, stderr, EventStderrLine, events)

	go func() {
		scanners.Wait()
		code := 0
		if err := cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				code = -1
			}
		}
		events <- Event{Kind: EventExit, ExitCode: code}
		close(events)
	}()

	go func() {
		for ev := range events {
			s.apply(ev)
		}
	}()

	return nil
}

func (s *Supervisor) spawnFailed(err error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.mu.Unlock()

	s.buf.Append(buildlog.Record{Text: err.Error(), Kind: buildlog.KindError})
	s.log.Error("watch process spawn failed", zap.Error(err))
	return err
}

// scanLines splits one stream into line events. Order within a stream
// is preserved; ordering across the two streams is not.
func (s *Supervisor) scanLines(wg *sync.WaitGroup, r io.Reader, kind EventKind, events chan<- Event) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		events <- Event{Kind: kind, Line: line}
	}
}

// apply records one event and runs the resulting transition. All state
// mutation funnels through here, on the single event-loop goroutine.
func (s *Supervisor) apply(ev Event) {
	switch ev.Kind {
	case EventStdoutLine:
		s.buf.Classify(ev.Line, false, buildlog.KindInfo)
	case EventStderrLine:
		s.buf.Classify(ev.Line, true, buildlog.KindInfo)
	}

	s.mu.Lock()
	prev := s.state
	next, effects := Transition(s.state, ev)
	s.state = next
	s.mu.Unlock()

	if next != prev {
		s.log.Debug("build state transition",
			zap.Stringer("from", prev),
			zap.Stringer("to", next))
	}

	for _, effect := range effects {
		switch effect {
		case EffectClearErrors:
			s.buf.ClearErrors()
		case EffectReload:
			if s.onReload != nil {
				s.onReload()
			}
		case EffectLogExit:
			s.log.Info("watch process exited", zap.Int("code", ev.ExitCode))
		}
	}
}

// Stop sends a termination signal to the watch process and clears the
// owned handle without waiting for the exit event, so shutdown never
// blocks. Calling Stop when nothing is running is a no-op.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return
	}

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
	}
	s.cmd = nil
	s.state = StateStopped

	s.log.Info("watch process stopped")
}
