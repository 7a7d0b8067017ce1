// Package network builds the Network described in §3 and §4.3: the
// union of composed operations, represented as a directed bipartite
// graph of OPERATION and DATA nodes. A Network only grows (Lifecycles,
// §3); operations are frozen the instant they are composed in.
package network

import (
	"fmt"

	"github.com/pygraphkit/graphtik/pkg/graph"
	"github.com/pygraphkit/graphtik/pkg/operation"
	"github.com/pygraphkit/graphtik/pkg/types"
)

const (
	opPrefix   = "op:"
	dataPrefix = "data:"
)

// Network is the immutable-growth union of operations composed so
// far, together with their derived dependency graph.
type Network struct {
	ops   map[string]*operation.Operation
	order []string // composition order, for scheduling tie-breaks
	g     *graph.Graph
}

// New returns an empty network.
func New() *Network {
	return &Network{
		ops: make(map[string]*operation.Operation),
		g:   graph.New(),
	}
}

// Compose adds operations to the network. In Appended mode a name
// clash raises *types.DuplicateOperationError; in Merged mode a later
// operation silently replaces an earlier one with the same name (its
// position in the composition order moves to the point of the
// override, matching "later operations override earlier ones").
func (n *Network) Compose(mode CompositionMode, ops ...*operation.Operation) error {
	for _, op := range ops {
		if op == nil {
			continue
		}
		name := op.Name()
		if _, exists := n.ops[name]; exists {
			if mode == Appended {
				return &types.DuplicateOperationError{Name: name}
			}
			n.removeFromOrder(name)
		}
		n.ops[name] = op
		n.order = append(n.order, name)
	}
	n.rebuildGraph()
	return nil
}

func (n *Network) removeFromOrder(name string) {
	for i, existing := range n.order {
		if existing == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			return
		}
	}
}

// Operation looks up a composed operation by name.
func (n *Network) Operation(name string) (*operation.Operation, bool) {
	op, ok := n.ops[name]
	return op, ok
}

// Operations returns every composed operation in composition order.
func (n *Network) Operations() []*operation.Operation {
	out := make([]*operation.Operation, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.ops[name])
	}
	return out
}

// CompositionIndex returns the position at which name was composed,
// used by the planner to break scheduling ties (§4.4.2: "operations
// composed earlier come first"). Returns -1 if name is unknown.
func (n *Network) CompositionIndex(name string) int {
	for i, existing := range n.order {
		if existing == name {
			return i
		}
	}
	return -1
}

// Graph returns the derived bipartite dependency graph.
func (n *Network) Graph() *graph.Graph { return n.g }

// Validate checks the acyclicity invariant (§3, §4.3): the graph must
// be acyclic over non-sideffect data; sideffect tokens may create
// apparent cycles broken by ordering rules only.
func (n *Network) Validate() error {
	ok, stuck := n.g.DataCycleFree()
	if !ok {
		name := stuck
		if len(name) > len(dataPrefix) && name[:len(dataPrefix)] == dataPrefix {
			name = name[len(dataPrefix):]
		}
		return &types.CyclicDependencyError{Name: name}
	}
	return nil
}

func (n *Network) rebuildGraph() {
	g := graph.New()
	for _, name := range n.order {
		op := n.ops[name]
		opID := opPrefix + name
		g.AddNode(graph.Node{ID: opID, Kind: graph.KindOperation})

		for _, need := range op.Needs() {
			dataID := dataPrefix + need.Base
			g.AddNode(graph.Node{ID: dataID, Kind: graph.KindData})
			g.AddEdge(graph.Edge{From: dataID, To: opID, Sideffect: need.IsSideffect()})
		}
		for _, provide := range op.Provides() {
			dataID := dataPrefix + provide.Base
			g.AddNode(graph.Node{ID: dataID, Kind: graph.KindData})
			g.AddEdge(graph.Edge{From: opID, To: dataID, Sideffect: provide.IsSideffect()})
			if provide.IsAliased() {
				aliasID := dataPrefix + provide.Alias
				g.AddNode(graph.Node{ID: aliasID, Kind: graph.KindData})
				g.AddEdge(graph.Edge{From: opID, To: aliasID, Sideffect: false})
			}
		}
	}
	n.g = g
}

// DataNodeID and OperationNodeID expose the graph package's node
// namespacing so the planner can translate between operation/data
// names and graph node IDs without duplicating the convention.
func DataNodeID(name string) string      { return dataPrefix + name }
func OperationNodeID(name string) string { return opPrefix + name }

// OperationName strips the operation-node prefix, or returns ok=false
// if id does not name an operation node.
func OperationName(id string) (string, bool) {
	if len(id) > len(opPrefix) && id[:len(opPrefix)] == opPrefix {
		return id[len(opPrefix):], true
	}
	return "", false
}

// DataName strips the data-node prefix, or returns ok=false if id does
// not name a data node.
func DataName(id string) (string, bool) {
	if len(id) > len(dataPrefix) && id[:len(dataPrefix)] == dataPrefix {
		return id[len(dataPrefix):], true
	}
	return "", false
}

func (n *Network) String() string {
	return fmt.Sprintf("Network(%d operations)", len(n.ops))
}
