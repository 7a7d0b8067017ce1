package graph

import (
	"errors"
	"testing"
)

func TestTopologicalSortLinear(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Kind: KindData})
	g.AddNode(Node{ID: "b", Kind: KindOperation})
	g.AddNode(Node{ID: "c", Kind: KindData})
	g.AddEdge(Edge{From: "a", To: "b"})
	g.AddEdge(Edge{From: "b", To: "c"})

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort returned error: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !equal(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestTopologicalSortDeterministicTieBreak(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "z"})
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "m"})

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort returned error: %v", err)
	}
	want := []string{"a", "m", "z"}
	if !equal(order, want) {
		t.Fatalf("order = %v, want %v (lexical tie-break)", order, want)
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	g.AddEdge(Edge{From: "a", To: "b"})
	g.AddEdge(Edge{From: "b", To: "a"})

	_, err := g.TopologicalSort()
	if !errors.Is(err, ErrNotDAG) {
		t.Fatalf("TopologicalSort error = %v, want ErrNotDAG", err)
	}
}

func TestDataCycleFreeIgnoresSideffectEdges(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	g.AddEdge(Edge{From: "a", To: "b", Sideffect: false})
	g.AddEdge(Edge{From: "b", To: "a", Sideffect: true})

	ok, stuck := g.DataCycleFree()
	if !ok {
		t.Fatalf("DataCycleFree() = false, stuck=%q; a sideffect-only back edge must not count as a data cycle", stuck)
	}
}

func TestDataCycleFreeDetectsRealCycle(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	g.AddEdge(Edge{From: "a", To: "b"})
	g.AddEdge(Edge{From: "b", To: "a"})

	ok, stuck := g.DataCycleFree()
	if ok {
		t.Fatal("DataCycleFree() = true, want false for a genuine data cycle")
	}
	if stuck != "a" && stuck != "b" {
		t.Fatalf("stuck node = %q, want a or b", stuck)
	}
}

func TestHasNodeAndNodes(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	if !g.HasNode("a") {
		t.Fatal("HasNode(a) = false after AddNode")
	}
	if g.HasNode("missing") {
		t.Fatal("HasNode(missing) = true")
	}
	if len(g.Nodes()) != 1 {
		t.Fatalf("Nodes() length = %d, want 1", len(g.Nodes()))
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
