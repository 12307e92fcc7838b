// Package reload invalidates loaded moon modules in the host module
// graph and broadcasts full-reload signals to connected clients.
package reload

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/moonbit-tools/moonbridge/internal/resolver"
)

// FullReload is the only broadcast type. Per-module hot swap of
// compiled artifacts is unsafe in general because an artifact may
// re-export under a different shape across builds, so the coordinator
// always asks clients for a full reload.
const FullReload = "full-reload"

// Broadcast is one reload signal sent to all connected clients. The ID
// exists for client-side logging and diagnostics; clients must treat
// the signal itself as idempotent.
type Broadcast struct {
	ID   string
	Type string
}

// ModuleGraph is the host's view of currently loaded modules. Only the
// two operations the coordinator needs are exposed.
type ModuleGraph interface {
	// ModulesByPrefix returns the ids of loaded modules whose id starts
	// with the given prefix.
	ModulesByPrefix(prefix string) []string

	// Invalidate drops the module's cached transform result.
	Invalidate(id string)
}

// Broadcaster delivers reload signals over the host's client
// transport.
type Broadcaster interface {
	Send(b Broadcast) error
}

// Coordinator drives invalidation and reload. Reload is safe to call
// redundantly: the textual completion marker and the artifact watcher
// can both fire for the same build, and deduplicating here would trade
// a harmless double refresh for a missed one.
type Coordinator struct {
	log         *zap.Logger
	graph       ModuleGraph
	broadcaster Broadcaster
}

// NewCoordinator creates a Coordinator. log may be nil.
func NewCoordinator(log *zap.Logger, graph ModuleGraph, broadcaster Broadcaster) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		log:         log,
		graph:       graph,
		broadcaster: broadcaster,
	}
}

// Reload invalidates every loaded module in the moon virtual namespace
// and broadcasts a single full-reload signal.
func (c *Coordinator) Reload() error {
	ids := c.graph.ModulesByPrefix(resolver.VirtualPrefix)
	for _, id := range ids {
		c.graph.Invalidate(id)
	}

	eventID, err := gonanoid.Generate("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz", 8)
	if err != nil {
		return fmt.Errorf("failed to generate reload id: %w", err)
	}

	if err := c.broadcaster.Send(Broadcast{ID: eventID, Type: FullReload}); err != nil {
		return fmt.Errorf("failed to broadcast reload: %w", err)
	}

	c.log.Info("reload broadcast",
		zap.String("event", eventID),
		zap.Int("invalidated", len(ids)))

	return nil
}
