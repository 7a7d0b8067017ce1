// Package executor runs a compiled Plan against input values and
// produces a Solution (§4.5). It supports both single-threaded
// cooperative execution and layered parallel execution over an injected
// worker pool, and implements the bounded reschedule mechanic for
// operations that may deliver a proper subset of their advertised
// provides.
package executor
