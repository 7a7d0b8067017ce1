// Package plan defines the immutable, cacheable Plan produced by the
// planner: a pruned DAG plus an ordered step sequence for one
// (network, inputs, outputs, predicate) compilation (§3, §4.4.3).
package plan

import (
	"fmt"
	"strings"
)

// StepKind distinguishes the two instruction kinds a Plan's step
// sequence is built from.
type StepKind int

const (
	Compute StepKind = iota
	Evict
)

// Step is one scheduled instruction: COMPUTE(op) or EVICT(data).
type Step struct {
	Kind StepKind
	// Op is the operation name for a Compute step.
	Op string
	// Data is the data name for an Evict step.
	Data string
	// Layer groups steps with no inter-dependencies for parallel
	// dispatch (§4.4.2); steps sharing a Layer index may run
	// concurrently. Evict steps always run on the layer after their
	// last consumer.
	Layer int
}

func (s Step) String() string {
	if s.Kind == Evict {
		return fmt.Sprintf("EVICT(%s)@L%d", s.Data, s.Layer)
	}
	return fmt.Sprintf("COMPUTE(%s)@L%d", s.Op, s.Layer)
}

// Comment records why one operation was kept or pruned, for
// diagnostics (§3 Plan.comments).
type Comment struct {
	Op     string
	Kept   bool
	Reason string
}

// Plan is the immutable result of compilation (§3, §4.4). Key is the
// canonical cache key it was compiled under (§4.4.3, §6).
type Plan struct {
	Key       string
	AskedOuts []string
	Steps     []Step
	Comments  []Comment

	// OperationNeeds/OperationProvides mirror the surviving operations'
	// declared dependencies, keyed by operation name. The executor does
	// not read them; it resolves operations through the Network.
	OperationNeeds    map[string][]NeedRef
	OperationProvides map[string][]ProvideRef
}

// NeedRef is a minimal projection of types.Name sufficient for
// execution: which base name, and whether it is optional/sideffect/
// keyword-renamed.
type NeedRef struct {
	Base       string
	Optional   bool
	Sideffect  bool
	BodyKey    string
}

// ProvideRef is a minimal projection of a provide, including alias
// target if any.
type ProvideRef struct {
	Base      string
	Optional  bool
	Sideffect bool
	Alias     string
	IsAlias   bool
}

// ComputeSteps returns the Compute steps in schedule order.
func (p *Plan) ComputeSteps() []Step {
	out := make([]Step, 0, len(p.Steps))
	for _, s := range p.Steps {
		if s.Kind == Compute {
			out = append(out, s)
		}
	}
	return out
}

// Layers groups Steps by their Layer index, in layer order. Within a
// layer, steps retain schedule order (§4.4.2).
func (p *Plan) Layers() [][]Step {
	if len(p.Steps) == 0 {
		return nil
	}
	maxLayer := 0
	for _, s := range p.Steps {
		if s.Layer > maxLayer {
			maxLayer = s.Layer
		}
	}
	layers := make([][]Step, maxLayer+1)
	for _, s := range p.Steps {
		layers[s.Layer] = append(layers[s.Layer], s)
	}
	return layers
}

func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan(key=%s asked=%v steps=%d)", p.Key, p.AskedOuts, len(p.Steps))
	return b.String()
}
