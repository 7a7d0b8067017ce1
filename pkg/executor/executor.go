package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pygraphkit/graphtik/pkg/config"
	"github.com/pygraphkit/graphtik/pkg/network"
	"github.com/pygraphkit/graphtik/pkg/observer"
	"github.com/pygraphkit/graphtik/pkg/operation"
	"github.com/pygraphkit/graphtik/pkg/plan"
	"github.com/pygraphkit/graphtik/pkg/solution"
	"github.com/pygraphkit/graphtik/pkg/types"
	"github.com/pygraphkit/graphtik/pkg/workerpool"
)

// Recompiler recompiles a plan for the network, predicate, and asked
// outputs a call to Execute was given, against an updated set of known
// inputs. It is supplied by whatever layer owns the planner (the
// executor package does not import planner, to keep the dependency
// direction one-way: planner produces what executor consumes).
type Recompiler func(knownInputs map[string]bool) (*plan.Plan, error)

// Executor runs a Plan against input values. The zero value is not
// usable; construct with New.
type Executor struct {
	cfg       config.Config
	pool      workerpool.Pool
	observers *observer.Manager
	networkID string

	executionID string // set fresh at the start of each Execute call
}

// New returns an Executor. pool may be nil, in which case Execute
// always runs single-threaded cooperatively regardless of any
// operation's parallel flag (§5). observers may be nil, in which case
// no lifecycle events are emitted.
func New(cfg config.Config, pool workerpool.Pool, observers *observer.Manager, networkID string) *Executor {
	return &Executor{cfg: cfg, pool: pool, observers: observers, networkID: networkID}
}

// Execute runs p against net starting from inputValues and returns the
// resulting Solution. recompile is invoked at most once per operation
// that reschedules (§4.5.2); it may be nil if p contains no rescheduled
// operations. Each call is assigned a fresh execution identifier, used
// to correlate every lifecycle event this execution emits.
func (e *Executor) Execute(net *network.Network, p *plan.Plan, inputValues map[string]interface{}, recompile Recompiler) (*solution.Solution, error) {
	e.executionID = uuid.NewString()
	sol := solution.New(p, inputValues)

	ctx := context.Background()
	e.notify(ctx, observer.EventExecutionStart, "", observer.StatusStarted, nil, nil)
	start := time.Now()

	var err error
	if e.pool != nil {
		err = e.executeLayered(net, sol, recompile)
	} else {
		err = e.executeSequential(net, sol, recompile)
	}
	if err != nil {
		e.notify(ctx, observer.EventExecutionEnd, "", observer.StatusFailure, err, map[string]interface{}{
			"elapsed": time.Since(start),
		})
		return sol, err
	}
	sol.Finalize()
	e.notify(ctx, observer.EventExecutionEnd, "", observer.StatusCompleted, nil, map[string]interface{}{
		"elapsed": time.Since(start),
	})
	return sol, nil
}

// runOne invokes op's body against the solution's current values and
// classifies the result into a terminal state (§4.5.1, §4.5.4).
func (e *Executor) runOne(op *operation.Operation, sol *solution.Solution) outcome {
	ctx := context.Background()
	e.notify(ctx, observer.EventOperationStart, op.Name(), observer.StatusStarted, nil, nil)
	start := time.Now()

	values := sol.Values()
	out, err := op.Compute(values)

	if err != nil {
		if e.cfg.EffectiveEndured(op.Flags().Endured) {
			e.notifyOpEnd(ctx, op, FailedEndured, err, start)
			return outcome{out: out, err: err, state: FailedEndured}
		}
		e.notifyOpEnd(ctx, op, FailedFatal, err, start)
		return outcome{out: out, err: err, state: FailedFatal}
	}
	if op.Flags().Rescheduled && len(op.MissingProvides(out)) > 0 {
		e.notifyOpEnd(ctx, op, Partial, nil, start)
		return outcome{out: out, state: Partial}
	}
	e.notifyOpEnd(ctx, op, Completed, nil, start)
	return outcome{out: out, state: Completed}
}

// notifyOpEnd emits the success/failure event followed by the
// operation-end event for a just-finished Compute step, attaching
// endured/rescheduled flags telemetry consumers key metrics on.
func (e *Executor) notifyOpEnd(ctx context.Context, op *operation.Operation, state State, err error, start time.Time) {
	meta := map[string]interface{}{
		"elapsed":     time.Since(start),
		"endured":     op.Flags().Endured,
		"rescheduled": op.Flags().Rescheduled,
	}
	if err != nil {
		e.notify(ctx, observer.EventOperationFailure, op.Name(), observer.StatusFailure, err, meta)
	} else {
		e.notify(ctx, observer.EventOperationSuccess, op.Name(), observer.StatusSuccess, nil, meta)
	}
	e.notify(ctx, observer.EventOperationEnd, op.Name(), observer.StatusCompleted, err, meta)
}

func (e *Executor) notify(ctx context.Context, typ observer.EventType, opName string, status observer.ExecutionStatus, err error, meta map[string]interface{}) {
	if e.observers == nil || !e.observers.HasObservers() {
		return
	}
	e.observers.Notify(ctx, observer.Event{
		Type:          typ,
		Status:        status,
		Timestamp:     time.Now(),
		ExecutionID:   e.executionID,
		NetworkID:     e.networkID,
		OperationName: opName,
		OpState:       string(status),
		Error:         err,
		Metadata:      meta,
	})
}

// missingRequiredNeeds reports which of op's non-optional, non-sideffect
// needs are absent from sol, i.e. were never delivered by an upstream
// operation (because it failed, was canceled, or was pruned away by a
// reschedule). An op with any such gap must not run at all.
func missingRequiredNeeds(op *operation.Operation, sol *solution.Solution) []string {
	var missing []string
	for _, need := range op.Needs() {
		if need.IsOptional() || need.IsSideffect() {
			continue
		}
		if _, ok := sol.Get(need.Base); !ok {
			missing = append(missing, need.Base)
		}
	}
	return missing
}

// cancelDownstream walks remaining, marking CANCELED every Compute step
// whose operation needs a name in lost (directly or transitively
// through another canceled op's own provides), mutating canceled and
// sol together. Used when a fatal failure must eagerly propagate
// cancellation through steps the executor will never reach on its own
// (§4.5.1 step 4).
func cancelDownstream(net *network.Network, sol *solution.Solution, canceled map[string]bool, remaining []plan.Step, lostNames types.Names) {
	lost := make(map[string]bool, len(lostNames))
	for _, n := range lostNames {
		lost[n.Base] = true
		if n.IsAliased() {
			lost[n.Alias] = true
		}
	}

	changed := true
	for changed {
		changed = false
		for _, step := range remaining {
			if step.Kind != plan.Compute || canceled[step.Op] {
				continue
			}
			op, ok := net.Operation(step.Op)
			if !ok {
				continue
			}
			blocked := false
			for _, need := range op.Needs() {
				if need.IsOptional() || need.IsSideffect() {
					continue
				}
				if lost[need.Base] {
					blocked = true
					break
				}
			}
			if !blocked {
				continue
			}
			canceled[step.Op] = true
			sol.MarkCanceled(step.Op)
			changed = true
			for _, p := range op.Provides() {
				lost[p.Base] = true
				if p.IsAliased() {
					lost[p.Alias] = true
				}
			}
		}
	}
}

// handleReschedule recompiles the plan after op delivered a proper
// subset of its provides (§4.5.2). oldRemaining is the tail of steps
// that would have run under the superseded plan; operations it names
// that do not survive into the new plan are marked CANCELED. Returns
// the portion of the new plan's steps still left to run (already-
// executed operations are filtered out, since the recompiled plan was
// built with every current solution value as a known input and would
// otherwise happily redo them).
func (e *Executor) handleReschedule(net *network.Network, sol *solution.Solution, recompile Recompiler, rescheduledOnce, canceled map[string]bool, op *operation.Operation, missing []string, oldRemaining []plan.Step) ([]plan.Step, error) {
	if recompile == nil || !e.cfg.RescheduleEnabled || rescheduledOnce[op.Name()] {
		return nil, &types.PartialOutputFailure{Op: op.Name(), Missing: missing}
	}
	rescheduledOnce[op.Name()] = true

	known := make(map[string]bool)
	for k := range sol.Values() {
		known[k] = true
	}
	newPlan, err := recompile(known)
	if err != nil {
		return nil, err
	}
	if err := sol.SetPlan(newPlan); err != nil {
		return nil, err
	}

	newOps := make(map[string]bool, len(newPlan.Steps))
	for _, s := range newPlan.Steps {
		if s.Kind == plan.Compute {
			newOps[s.Op] = true
		}
	}
	for _, s := range oldRemaining {
		if s.Kind != plan.Compute || canceled[s.Op] {
			continue
		}
		if !newOps[s.Op] {
			canceled[s.Op] = true
			sol.MarkCanceled(s.Op)
		}
	}

	executed := make(map[string]bool)
	for _, name := range sol.Executed() {
		executed[name] = true
	}
	remainder := make([]plan.Step, 0, len(newPlan.Steps))
	for _, s := range newPlan.Steps {
		if s.Kind == plan.Compute && executed[s.Op] {
			continue
		}
		remainder = append(remainder, s)
	}
	return remainder, nil
}
