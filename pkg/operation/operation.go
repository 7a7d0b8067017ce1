// Package operation defines the immutable Operation node and the
// contract for its user-supplied body: a thin forwarder that applies
// keyword renames, strips sideffect tokens from the mapping passed to
// the body, and tolerates partial results for rescheduled operations.
//
// Invoking the body itself is out of this module's scope (§1): Body is
// a plain Go function value supplied by the caller. Everything here is
// about what happens around that call, not inside it.
package operation

import (
	"fmt"

	"github.com/pygraphkit/graphtik/pkg/types"
)

// Inputs is the named-mapping argument passed to an operation body.
type Inputs map[string]interface{}

// Outputs is the named-mapping an operation body returns.
type Outputs map[string]interface{}

// Body is the user-supplied callable contract (§6): one named-mapping
// argument, one named-mapping result, any error.
type Body func(Inputs) (Outputs, error)

// Flags hold the per-operation behavior switches (§3).
type Flags struct {
	// Endured: a body error is recorded, not fatal; execution continues.
	Endured bool
	// Rescheduled: the body may return a proper subset of Provides;
	// missing non-optional provides trigger a replan (§4.5.2).
	Rescheduled bool
	// Parallel: eligible to run on a worker-pool layer (§4.5.3).
	Parallel bool
	// Marshalled: arguments/results must be serialized for cross-process
	// execution. The core only threads this flag through; actual
	// marshalling is an external collaborator's concern.
	Marshalled bool
}

// Operation is an immutable graph node: a name, its declared
// dependencies, a body, and execution flags. Operations are frozen the
// moment they are composed into a Network (§3 Lifecycles); construct
// with New and do not mutate the returned value's slices in place.
type Operation struct {
	name     string
	needs    types.Names
	provides types.Names
	body     Body
	flags    Flags
}

// New builds an Operation. needs/provides are copied so later mutation
// of the caller's slices cannot affect the frozen operation.
func New(name string, needs, provides types.Names, body Body, flags Flags) *Operation {
	n := make(types.Names, len(needs))
	copy(n, needs)
	p := make(types.Names, len(provides))
	copy(p, provides)
	return &Operation{name: name, needs: n, provides: p, body: body, flags: flags}
}

func (o *Operation) Name() string         { return o.name }
func (o *Operation) Needs() types.Names    { return o.needs }
func (o *Operation) Provides() types.Names { return o.provides }
func (o *Operation) Flags() Flags          { return o.flags }

// NeedsBases/ProvidesBases expose base-name strings for planner graph
// construction, where modifier semantics have already been resolved.
func (o *Operation) NeedsBases() []string    { return o.needs.Bases() }
func (o *Operation) ProvidesBases() []string { return o.provides.Bases() }

// Compute is the thin forwarder described in §4.2: it builds the
// named-inputs mapping from solved values according to each need's
// modifier, invokes the body, and validates the result against the
// declared provides (unless Rescheduled).
//
//   - optional needs absent from values are simply omitted, never set
//     to a sentinel.
//   - sideffect and implicit needs are never passed to the body.
//   - keyword-renamed needs appear under their renamed key.
//
// On a body error, returns a *types.UserFnError wrapping cause. On a
// non-rescheduled operation under-delivering a required provide,
// returns a *types.MissingOutputsError listing what's missing.
func (o *Operation) Compute(values map[string]interface{}) (Outputs, error) {
	in := make(Inputs, len(o.needs))
	var presentKeys []string
	for _, need := range o.needs {
		if need.IsSideffect() || need.IsImplicit() {
			continue
		}
		v, ok := values[need.Base]
		if !ok {
			if need.IsOptional() {
				continue
			}
			// A non-optional, non-sideffect need missing here means the
			// planner failed to guarantee availability; the need is left
			// out of the body's mapping and nothing is recorded for it.
			continue
		}
		in[need.BodyKey()] = v
		presentKeys = append(presentKeys, need.BodyKey())
	}

	out, err := o.body(in)
	if err != nil {
		return nil, &types.UserFnError{Op: o.name, Inputs: presentKeys, Cause: err}
	}

	if o.flags.Rescheduled {
		return out, nil
	}

	var missing []string
	for _, provide := range o.provides {
		if provide.IsSideffect() || provide.IsOptional() {
			continue
		}
		if _, ok := out[provide.Base]; !ok {
			missing = append(missing, provide.Base)
		}
	}
	if len(missing) > 0 {
		return out, &types.MissingOutputsError{Op: o.name, Missing: missing}
	}
	return out, nil
}

// MissingProvides returns the required (non-optional, non-sideffect)
// provides absent from a rescheduled operation's result. Used by the
// executor to decide what to replan around (§4.5.2 step 1).
func (o *Operation) MissingProvides(out Outputs) []string {
	var missing []string
	for _, provide := range o.provides {
		if provide.IsSideffect() || provide.IsOptional() {
			continue
		}
		if _, ok := out[provide.Base]; !ok {
			missing = append(missing, provide.Base)
		}
	}
	return missing
}

// Aliases returns the (src, dst) pairs to copy into the solution after
// a successful compute (§3 aliased modifier).
func (o *Operation) Aliases() [][2]string {
	var out [][2]string
	for _, p := range o.provides {
		if p.IsAliased() {
			out = append(out, [2]string{p.Base, p.Alias})
		}
	}
	return out
}

func (o *Operation) String() string {
	return fmt.Sprintf("Operation(%s needs=%v provides=%v)", o.name, o.needs, o.provides)
}
