// Package session wires the resolver, supervisor, watcher, and reload
// coordinator into one object bound to a plugin activation. The session
// exclusively owns the subprocess and watcher handles and is torn down
// with a single call.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/moonbit-tools/moonbridge/internal/buildlog"
	"github.com/moonbit-tools/moonbridge/internal/filesystem"
	"github.com/moonbit-tools/moonbridge/internal/manifest"
	"github.com/moonbit-tools/moonbridge/internal/reload"
	"github.com/moonbit-tools/moonbridge/internal/resolver"
	"github.com/moonbit-tools/moonbridge/internal/supervisor"
	"github.com/moonbit-tools/moonbridge/internal/watcher"
)

// ErrArtifactMissing is returned by Load when the resolved artifact
// does not exist on disk. There is no fallback artifact, so the host
// surfaces this as a build error for that import.
var ErrArtifactMissing = errors.New("build artifact missing")

// ErrNotVirtual is returned by Load for an id outside the moon virtual
// namespace.
var ErrNotVirtual = errors.New("not a moon virtual module")

// Session is the per-activation state described in the design notes:
// identity, buffers, supervisor, and watcher under one owner, no
// singletons.
type Session struct {
	log         *zap.Logger
	fs          filesystem.FileSystem
	root        string
	target      resolver.Target
	command     string
	wasmBuiltin string

	buf   *buildlog.Buffer
	coord *reload.Coordinator

	mu       sync.Mutex
	identity *manifest.Identity
	sup      *supervisor.Supervisor
	watch    *watcher.Watcher
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithFileSystem overrides the filesystem, mainly for tests.
func WithFileSystem(fs filesystem.FileSystem) Option {
	return func(s *Session) { s.fs = fs }
}

// WithCommand overrides the watch tool binary.
func WithCommand(command string) Option {
	return func(s *Session) { s.command = command }
}

// WithWasmBuiltins names an import-configuration module merged into
// the import object of generated wasm loaders.
func WithWasmBuiltins(module string) Option {
	return func(s *Session) { s.wasmBuiltin = module }
}

// New creates a Session rooted at the project directory. The manifest
// is loaded eagerly when present and re-fetched lazily otherwise.
func New(root string, target resolver.Target, graph reload.ModuleGraph, broadcaster reload.Broadcaster, opts ...Option) *Session {
	s := &Session{
		log:     zap.NewNop(),
		fs:      filesystem.NewOSFileSystem(),
		root:    root,
		target:  target,
		command: supervisor.DefaultCommand,
		buf:     buildlog.NewBuffer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.coord = reload.NewCoordinator(s.log, graph, broadcaster)

	if id, err := manifest.Load(s.fs, root); err == nil {
		s.identity = id
	} else {
		s.log.Warn("project manifest not loaded, moon imports will not resolve yet",
			zap.String("root", root), zap.Error(err))
	}

	return s
}

// Identity returns the project identity, attempting a lazy manifest
// load if it was absent at construction. Returns nil while the
// manifest stays missing.
func (s *Session) Identity() *manifest.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureIdentityLocked()
}

func (s *Session) ensureIdentityLocked() *manifest.Identity {
	if s.identity != nil {
		return s.identity
	}
	id, err := manifest.Load(s.fs, s.root)
	if err != nil {
		return nil
	}
	s.identity = id
	s.log.Info("project manifest loaded", zap.String("module", id.Name()))
	return id
}

// PrebundleExclusions is the configuration-merge hook: specifiers the
// host's dependency pre-bundler must leave alone. Empty while the
// manifest is missing.
func (s *Session) PrebundleExclusions() []string {
	id := s.Identity()
	if id == nil {
		return nil
	}
	name := resolver.Prefix + id.Name()
	return []string{name, name + "/*"}
}

// ResolveID is the resolve hook: specifier in, virtual id out. A miss
// (false) lets the host fall through to other resolvers; a missing
// manifest degrades to all-miss.
func (s *Session) ResolveID(specifier string) (string, bool) {
	id := s.Identity()
	if _, ok := resolver.Resolve(specifier, id, s.root, s.target); !ok {
		return "", false
	}
	return resolver.Virtualize(specifier)
}

// Load is the load hook: virtual id in, module source out. Script
// backends serve the artifact text directly; binary backends serve a
// generated loader snippet referencing the artifact's asset URL.
func (s *Session) Load(id string) (string, error) {
	specifier, ok := resolver.Devirtualize(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotVirtual, id)
	}

	path, ok := resolver.Resolve(specifier, s.Identity(), s.root, s.target)
	if !ok {
		return "", fmt.Errorf("failed to resolve %s", specifier)
	}

	// The artifact may not have existed at resolve time; check fresh on
	// every load.
	if !s.fs.Exists(path) {
		return "", fmt.Errorf("%w: %s (imported as %s)", ErrArtifactMissing, path, specifier)
	}

	if s.target.Backend.Binary() {
		return loaderSnippet(path, s.wasmBuiltin)
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return string(data), nil
}

// ServerStart is the dev-server-attach hook: spawn the watch process
// and the artifact watcher. A spawn failure is logged and buffered but
// does not fail server startup; the session just runs without
// auto-rebuild.
func (s *Session) ServerStart(ctx context.Context) error {
	s.mu.Lock()
	if s.sup == nil {
		s.sup = supervisor.New(s.buf, s.target, s.root, s.reloadNow,
			supervisor.WithLogger(s.log),
			supervisor.WithCommand(s.command))
	}
	sup := s.sup
	s.mu.Unlock()

	if err := sup.Start(ctx); err != nil && !errors.Is(err, supervisor.ErrAlreadyStarted) {
		s.log.Warn("continuing without auto-rebuild", zap.Error(err))
	}

	buildDir := s.target.BuildDir(s.root)
	w, err := watcher.New(s.log, buildDir, s.target.Backend.Ext(), s.onArtifact)
	if err != nil {
		return fmt.Errorf("failed to watch build output: %w", err)
	}

	s.mu.Lock()
	s.watch = w
	s.mu.Unlock()

	return nil
}

// onArtifact runs on each artifact write observed by the filesystem
// watcher: a finished build, whether or not its textual marker was
// parsed.
func (s *Session) onArtifact() {
	s.buf.ClearErrors()
	s.reloadNow()
}

func (s *Session) reloadNow() {
	if err := s.coord.Reload(); err != nil {
		s.log.Warn("reload broadcast failed", zap.Error(err))
	}
}

// BuildStart is the build-start hook: retry the manifest load in case
// the file appeared after session construction.
func (s *Session) BuildStart() {
	s.Identity()
}

// BuildEnd is the build-end hook: tear down the supervisor.
func (s *Session) BuildEnd() {
	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()

	if sup != nil {
		sup.Stop()
	}
}

// Teardown stops the watch process and the artifact watcher.
// Idempotent; safe to call on a session that never started.
func (s *Session) Teardown() {
	s.mu.Lock()
	sup := s.sup
	w := s.watch
	s.watch = nil
	s.mu.Unlock()

	if sup != nil {
		sup.Stop()
	}
	w.Stop()
}

// State returns the current build state.
func (s *Session) State() supervisor.BuildState {
	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()

	if sup == nil {
		return supervisor.StateIdle
	}
	return sup.State()
}

// Flush drains the buffered log records for display.
func (s *Session) Flush() []buildlog.Record {
	return s.buf.Flush()
}

// Errors returns the current error partition without clearing it.
func (s *Session) Errors() []buildlog.Record {
	return s.buf.Errors()
}

// Target returns the session's backend target.
func (s *Session) Target() resolver.Target {
	return s.target
}
