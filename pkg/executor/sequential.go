package executor

import (
	"github.com/pygraphkit/graphtik/pkg/network"
	"github.com/pygraphkit/graphtik/pkg/plan"
	"github.com/pygraphkit/graphtik/pkg/solution"
	"github.com/pygraphkit/graphtik/pkg/types"
)

// executeSequential runs steps one at a time on the caller's goroutine,
// in the plan's exact order (§4.5.1). A reschedule splices the
// recompiled plan's remaining steps directly into the in-flight step
// list at the current position.
func (e *Executor) executeSequential(net *network.Network, sol *solution.Solution, recompile Recompiler) error {
	rescheduledOnce := make(map[string]bool)
	canceled := make(map[string]bool)
	steps := append([]plan.Step(nil), sol.Plan().Steps...)

	for i := 0; i < len(steps); i++ {
		step := steps[i]

		if step.Kind == plan.Evict {
			if e.cfg.Evict && !e.cfg.SkipEvictions {
				sol.Delete(step.Data)
			}
			continue
		}

		if canceled[step.Op] {
			continue
		}
		op, ok := net.Operation(step.Op)
		if !ok {
			continue
		}
		if missing := missingRequiredNeeds(op, sol); len(missing) > 0 {
			canceled[step.Op] = true
			sol.MarkCanceled(step.Op)
			continue
		}

		res := e.runOne(op, sol)
		switch res.state {
		case Completed, Partial:
			sol.MergeOutputs(step.Op, res.out, op.Aliases())
			sol.MarkExecuted(step.Op)

			if res.state == Partial {
				missing := op.MissingProvides(res.out)
				remainder, err := e.handleReschedule(net, sol, recompile, rescheduledOnce, canceled, op, missing, steps[i+1:])
				if err != nil {
					return err
				}
				steps = append(steps[:i+1], remainder...)
			}

		case FailedEndured:
			sol.RecordFailure(step.Op, res.err)
			sol.MarkExecuted(step.Op)

		case FailedFatal:
			sol.RecordFailure(step.Op, res.err)
			sol.MarkExecuted(step.Op)
			cancelDownstream(net, sol, canceled, steps[i+1:], op.Provides())
			return &types.PipelineExecutionError{Op: step.Op, Cause: res.err}
		}
	}

	return nil
}
