package executor

import (
	"github.com/pygraphkit/graphtik/pkg/network"
	"github.com/pygraphkit/graphtik/pkg/operation"
	"github.com/pygraphkit/graphtik/pkg/plan"
	"github.com/pygraphkit/graphtik/pkg/solution"
	"github.com/pygraphkit/graphtik/pkg/types"
	"github.com/pygraphkit/graphtik/pkg/workerpool"
)

type layerResult struct {
	step plan.Step
	op   *operation.Operation
	res  outcome
}

// executeLayered runs a plan's dependency layers one barrier at a time
// (§4.5.3). Within a layer, operations eligible for parallel dispatch
// are submitted to the worker pool together and awaited as a group;
// ops not eligible run serially after that group drains. Reschedule, if
// any op in the layer delivered a partial result, happens only between
// layers, never mid-layer.
func (e *Executor) executeLayered(net *network.Network, sol *solution.Solution, recompile Recompiler) error {
	rescheduledOnce := make(map[string]bool)
	canceled := make(map[string]bool)
	layers := sol.Plan().Layers()
	layerIdx := 0

	for layerIdx < len(layers) {
		executed := sliceToSet(sol.Executed())
		layer := layers[layerIdx]

		var parallelSteps, serialSteps, evictSteps []plan.Step
		for _, step := range layer {
			if step.Kind == plan.Evict {
				evictSteps = append(evictSteps, step)
				continue
			}
			if executed[step.Op] || canceled[step.Op] {
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
			if e.cfg.EffectiveParallel(op.Flags().Parallel) {
				parallelSteps = append(parallelSteps, step)
			} else {
				serialSteps = append(serialSteps, step)
			}
		}

		results := e.runParallel(net, sol, parallelSteps)
		for _, step := range serialSteps {
			op, _ := net.Operation(step.Op)
			results = append(results, layerResult{step: step, op: op, res: e.runOne(op, sol)})
		}

		var fatal *layerResult
		var partials []layerResult
		for _, r := range results {
			switch r.res.state {
			case Completed, Partial:
				sol.MergeOutputs(r.step.Op, r.res.out, r.op.Aliases())
				sol.MarkExecuted(r.step.Op)
				if r.res.state == Partial {
					partials = append(partials, r)
				}
			case FailedEndured:
				sol.RecordFailure(r.step.Op, r.res.err)
				sol.MarkExecuted(r.step.Op)
			case FailedFatal:
				sol.RecordFailure(r.step.Op, r.res.err)
				sol.MarkExecuted(r.step.Op)
				if fatal == nil {
					cp := r
					fatal = &cp
				}
			}
		}

		if fatal != nil {
			var rest []plan.Step
			for _, l := range layers[layerIdx+1:] {
				rest = append(rest, l...)
			}
			cancelDownstream(net, sol, canceled, rest, fatal.op.Provides())
			return &types.PipelineExecutionError{Op: fatal.step.Op, Cause: fatal.res.err}
		}

		for _, step := range evictSteps {
			if e.cfg.Evict && !e.cfg.SkipEvictions {
				sol.Delete(step.Data)
			}
		}

		if len(partials) == 0 {
			layerIdx++
			continue
		}

		var rest []plan.Step
		for _, l := range layers[layerIdx+1:] {
			rest = append(rest, l...)
		}
		for _, r := range partials {
			missing := r.op.MissingProvides(r.res.out)
			if _, err := e.handleReschedule(net, sol, recompile, rescheduledOnce, canceled, r.op, missing, rest); err != nil {
				return err
			}
		}
		layers = sol.Plan().Layers()
		layerIdx = 0
	}

	return nil
}

// runParallel submits steps to the pool and blocks until every one has
// resolved, returning their outcomes in submission order. Merging into
// the solution happens afterward, on the caller's goroutine, so the
// only concurrent access to sol while tasks are in flight is read-only
// (§5: "writes must be serialized").
func (e *Executor) runParallel(net *network.Network, sol *solution.Solution, steps []plan.Step) []layerResult {
	if len(steps) == 0 {
		return nil
	}
	outs := make([]outcome, len(steps))
	futures := make([]workerpool.Future, len(steps))
	for idx, step := range steps {
		op, _ := net.Operation(step.Op)
		idx, op := idx, op
		futures[idx] = e.pool.Submit(func() (map[string]interface{}, error) {
			outs[idx] = e.runOne(op, sol)
			return outs[idx].out, outs[idx].err
		})
	}
	e.pool.WaitAll(futures)

	results := make([]layerResult, len(steps))
	for idx, step := range steps {
		op, _ := net.Operation(step.Op)
		results[idx] = layerResult{step: step, op: op, res: outs[idx]}
	}
	return results
}

func sliceToSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
