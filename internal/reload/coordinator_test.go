package reload

import (
	"testing"

	"github.com/moonbit-tools/moonbridge/internal/resolver"
)

func TestReload_InvalidatesOnlyVirtualModules(t *testing.T) {
	graph := NewMemoryGraph()
	graph.Register(resolver.VirtualPrefix + "u/pkg")
	graph.Register(resolver.VirtualPrefix + "u/pkg/sub")
	graph.Register("/src/main.ts")
	graph.Register("react")

	broadcaster := NewRecordingBroadcaster()
	c := NewCoordinator(nil, graph, broadcaster)

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	invalidated := graph.Invalidated()
	if len(invalidated) != 2 {
		t.Fatalf("expected 2 invalidations, got %v", invalidated)
	}
	for _, id := range invalidated {
		if !resolver.IsVirtual(id) {
			t.Fatalf("non-virtual module invalidated: %q", id)
		}
	}
}

func TestReload_BroadcastsOnce(t *testing.T) {
	graph := NewMemoryGraph()
	graph.Register(resolver.VirtualPrefix + "u/pkg")

	broadcaster := NewRecordingBroadcaster()
	c := NewCoordinator(nil, graph, broadcaster)

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	sent := broadcaster.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(sent))
	}
	if sent[0].Type != FullReload {
		t.Fatalf("unexpected broadcast type: %s", sent[0].Type)
	}
	if sent[0].ID == "" {
		t.Fatal("broadcast missing event id")
	}
}

func TestReload_DoubleFireIsNotDeduplicated(t *testing.T) {
	// The marker path and the artifact watcher may both observe the
	// same build; the coordinator forwards both signals and leaves
	// idempotency to the clients.
	graph := NewMemoryGraph()
	broadcaster := NewRecordingBroadcaster()
	c := NewCoordinator(nil, graph, broadcaster)

	if err := c.Reload(); err != nil {
		t.Fatalf("first Reload() error = %v", err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("second Reload() error = %v", err)
	}

	sent := broadcaster.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(sent))
	}
	if sent[0].ID == sent[1].ID {
		t.Fatal("distinct broadcasts share an event id")
	}
}

func TestReload_EmptyGraph(t *testing.T) {
	c := NewCoordinator(nil, NewMemoryGraph(), NewRecordingBroadcaster())
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() on empty graph error = %v", err)
	}
}
