package graph

import "sort"

// Kind distinguishes the two node species of the bipartite graph.
type Kind int

const (
	KindOperation Kind = iota
	KindData
)

// Node is either an OPERATION or a DATA node, keyed by a caller-chosen
// unique ID (callers namespace operation and data IDs so they never
// collide, e.g. "op:"+name and "data:"+base).
type Node struct {
	ID   string
	Kind Kind
}

// Edge connects a DATA node to an OPERATION node (a need) or an
// OPERATION node to a DATA node (a provide). Sideffect marks an edge
// that carries ordering only — it is excluded from cycle detection,
// which runs over the data-edge subgraph alone (§4.3).
type Edge struct {
	From      string
	To        string
	Sideffect bool
}

// Graph is the directed bipartite graph composing a Network.
type Graph struct {
	nodes map[string]Node
	edges []Edge
	adj   map[string][]string // From -> []To, built lazily
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]Node)}
}

func (g *Graph) AddNode(n Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.nodes[n.ID] = n
		g.adj = nil
	}
}

func (g *Graph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
	g.adj = nil
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

func (g *Graph) Edges() []Edge { return g.edges }

func (g *Graph) adjacency() map[string][]string {
	if g.adj != nil {
		return g.adj
	}
	adj := make(map[string][]string, len(g.nodes))
	for _, e := range g.edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	g.adj = adj
	return adj
}

// TopologicalSort runs Kahn's algorithm over every node and edge
// (sideffect edges included, since they still constrain scheduling
// order) and returns a deterministic order: ties among nodes that
// become ready simultaneously are broken by ID so results are
// reproducible across runs of the same graph.
//
// Returns ErrNotDAG if a cycle prevents a full ordering.
func (g *Graph) TopologicalSort() ([]string, error) {
	return g.topologicalSort(g.edges)
}

// DataCycleFree runs the same algorithm restricted to non-sideffect
// edges and reports the first data name still blocked if a cycle
// remains, so the caller can build a CyclicDependencyError (§4.3: the
// acyclicity invariant is enforced on the data-edge subgraph only).
func (g *Graph) DataCycleFree() (ok bool, offendingNode string) {
	dataEdges := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if !e.Sideffect {
			dataEdges = append(dataEdges, e)
		}
	}
	_, err := g.topologicalSort(dataEdges)
	if err == nil {
		return true, ""
	}
	return false, g.firstStuckNode(dataEdges)
}

func (g *Graph) topologicalSort(edges []Edge) ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	adj := make(map[string][]string, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
		inDegree[e.To]++
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		var freed []string
		for _, next := range adj[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				freed = append(freed, next)
			}
		}
		sort.Strings(freed)
		ready = mergeSorted(ready, freed)
	}

	if len(order) != len(g.nodes) {
		return nil, ErrNotDAG
	}
	return order, nil
}

// firstStuckNode returns, deterministically, the lowest-ID node whose
// in-degree never reached zero under edges — i.e. a node on (or
// downstream of) a cycle.
func (g *Graph) firstStuckNode(edges []Edge) string {
	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
	}
	for _, e := range edges {
		inDegree[e.To]++
	}
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Simulate Kahn's algorithm, then report the first remaining ID.
	adj := make(map[string][]string, len(g.nodes))
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	var ready []string
	remaining := make(map[string]bool, len(g.nodes))
	for id, deg := range inDegree {
		remaining[id] = true
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		delete(remaining, current)
		var freed []string
		for _, next := range adj[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				freed = append(freed, next)
			}
		}
		sort.Strings(freed)
		ready = mergeSorted(ready, freed)
	}
	for _, id := range ids {
		if remaining[id] {
			return id
		}
	}
	return ""
}

// mergeSorted merges two already-sorted slices.
func mergeSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
