// Package graph provides the low-level bipartite graph underlying a
// Network (§3): OPERATION and DATA nodes connected by need edges
// (DATA->OPERATION) and provide edges (OPERATION->DATA), plus
// Kahn's-algorithm topological sorting and cycle detection restricted
// to the data-edge subgraph, since sideffect tokens are allowed to
// form apparent cycles that are broken by ordering rules instead of
// data flow (§4.3).
package graph
