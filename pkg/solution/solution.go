// Package solution holds the Solution type returned by an execution
// (§4.6): the merged value mapping plus introspection of what ran, what
// was canceled, what failed, and what got overwritten. A Solution is
// mutable while an execution is in flight and immutable once finalized.
package solution

import (
	"sync"

	"github.com/pygraphkit/graphtik/pkg/plan"
	"github.com/pygraphkit/graphtik/pkg/types"
)

// Overwrite records a value mapping's key already being present when an
// operation's output tried to set it; last-writer-wins, but the prior
// value is kept here for diagnostics (§9 open question: overwrite
// ordering under parallel execution is timing-dependent but must be
// recorded, never silently dropped).
type Overwrite struct {
	Name     string
	Previous interface{}
	New      interface{}
	By       string
}

// Failure records an endured operation's body error (§4.5.1 step 4).
type Failure struct {
	Op  string
	Err error
}

// Solution is the mutable result store threaded through one execution.
// All methods are safe for concurrent use; mutators return
// *types.SolutionFinalizedError once Finalize has been called.
type Solution struct {
	mu sync.RWMutex

	values     map[string]interface{}
	executed   []string
	canceled   []string
	failures   []Failure
	overwrites []Overwrite
	plan       *plan.Plan
	finalized  bool
}

// New returns a Solution seeded with initial known-input values and the
// plan it is executing.
func New(p *plan.Plan, initial map[string]interface{}) *Solution {
	values := make(map[string]interface{}, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Solution{values: values, plan: p}
}

func (s *Solution) guardMutation(attempted string) error {
	if s.finalized {
		return &types.SolutionFinalizedError{Attempted: attempted}
	}
	return nil
}

// Get looks up a value by name.
func (s *Solution) Get(name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Values returns a snapshot copy of the current value mapping, safe for
// the caller to range over without holding any lock.
func (s *Solution) Values() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// MergeOutputs merges an operation's successful result into values,
// recording an Overwrite for any key that was already present (§4.5.1
// step 3). aliases are (src, dst) pairs copied alongside the merge.
func (s *Solution) MergeOutputs(by string, out map[string]interface{}, aliases [][2]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutation("merge outputs"); err != nil {
		return err
	}
	for name, value := range out {
		if prev, exists := s.values[name]; exists {
			s.overwrites = append(s.overwrites, Overwrite{Name: name, Previous: prev, New: value, By: by})
		}
		s.values[name] = value
	}
	for _, pair := range aliases {
		src, dst := pair[0], pair[1]
		if v, ok := s.values[src]; ok {
			if prev, exists := s.values[dst]; exists {
				s.overwrites = append(s.overwrites, Overwrite{Name: dst, Previous: prev, New: v, By: by})
			}
			s.values[dst] = v
		}
	}
	return nil
}

// Delete removes a name from values, used by EVICT steps.
func (s *Solution) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutation("evict " + name); err != nil {
		return err
	}
	delete(s.values, name)
	return nil
}

// MarkExecuted appends op to the executed list (§8: "op appears in
// solution.executed iff its COMPUTE step ran to a non-CANCELED terminal
// state").
func (s *Solution) MarkExecuted(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutation("mark executed"); err != nil {
		return err
	}
	s.executed = append(s.executed, op)
	return nil
}

// MarkCanceled appends op to the canceled list; reschedule monotonicity
// (§8) requires this set only grow across an execution, which callers
// honor simply by never removing from it.
func (s *Solution) MarkCanceled(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutation("mark canceled"); err != nil {
		return err
	}
	s.canceled = append(s.canceled, op)
	return nil
}

// RecordFailure appends an endured operation's error to failures.
func (s *Solution) RecordFailure(op string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutation("record failure"); err != nil {
		return err
	}
	s.failures = append(s.failures, Failure{Op: op, Err: cause})
	return nil
}

// SetPlan replaces the plan under execution, used after a reschedule
// splices in a recompiled plan (§4.5.2 step 3).
func (s *Solution) SetPlan(p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardMutation("replace plan"); err != nil {
		return err
	}
	s.plan = p
	return nil
}

// Plan returns the plan currently governing this execution (post
// reschedule, if any).
func (s *Solution) Plan() *plan.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// Executed returns the operations that ran to a non-canceled terminal
// state, in the order they completed.
func (s *Solution) Executed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.executed...)
}

// Canceled returns the operations canceled by a fatal failure or by
// reschedule pruning.
func (s *Solution) Canceled() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.canceled...)
}

// Failures returns the endured operations' recorded errors.
func (s *Solution) Failures() []Failure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Failure(nil), s.failures...)
}

// Overwrites returns every recorded last-writer-wins collision.
func (s *Solution) Overwrites() []Overwrite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Overwrite(nil), s.overwrites...)
}

// Finalize freezes the solution: every subsequent mutator call returns
// *types.SolutionFinalizedError.
func (s *Solution) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = true
}

// Finalized reports whether Finalize has been called.
func (s *Solution) Finalized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalized
}
