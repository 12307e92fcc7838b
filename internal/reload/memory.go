package reload

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// MemoryGraph is an in-process ModuleGraph. The serve command uses it
// as a stand-in host; tests use it to observe invalidations.
type MemoryGraph struct {
	mu          sync.Mutex
	modules     map[string]struct{}
	invalidated []string
}

// NewMemoryGraph creates an empty MemoryGraph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{modules: make(map[string]struct{})}
}

// Register marks a module id as loaded.
func (g *MemoryGraph) Register(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modules[id] = struct{}{}
}

func (g *MemoryGraph) ModulesByPrefix(prefix string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var ids []string
	for id := range g.modules {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (g *MemoryGraph) Invalidate(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invalidated = append(g.invalidated, id)
}

// Invalidated returns the ids invalidated so far, in order.
func (g *MemoryGraph) Invalidated() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.invalidated))
	copy(out, g.invalidated)
	return out
}

// RecordingBroadcaster captures broadcasts for tests and for the serve
// command's plain-console mode.
type RecordingBroadcaster struct {
	mu     sync.Mutex
	sent   []Broadcast
	log    *zap.Logger
	logger bool
}

// NewRecordingBroadcaster creates a broadcaster that only records.
func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{}
}

// NewLogBroadcaster creates a broadcaster that records and logs each
// signal, standing in for a client transport.
func NewLogBroadcaster(log *zap.Logger) *RecordingBroadcaster {
	return &RecordingBroadcaster{log: log, logger: true}
}

func (b *RecordingBroadcaster) Send(broadcast Broadcast) error {
	b.mu.Lock()
	b.sent = append(b.sent, broadcast)
	b.mu.Unlock()

	if b.logger && b.log != nil {
		b.log.Info("page reload", zap.String("event", broadcast.ID))
	}
	return nil
}

// Sent returns all broadcasts delivered so far.
func (b *RecordingBroadcaster) Sent() []Broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Broadcast, len(b.sent))
	copy(out, b.sent)
	return out
}
