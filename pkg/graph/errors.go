package graph

import "errors"

// Sentinel errors for graph-level structural problems.
var (
	ErrEmptyGraph   = errors.New("graph is empty")
	ErrNodeNotFound = errors.New("node not found in graph")
	ErrNotDAG       = errors.New("graph is not a DAG")
)
