// Package planner compiles a Network into a pruned, scheduled Plan
// (§4.4): predicate filtering, a two-pass dependency closure, and
// topological scheduling with eviction-step insertion. Compile and Key
// are the exported entry points; everything else here is a private
// helper stage.
package planner

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/pygraphkit/graphtik/pkg/config"
	"github.com/pygraphkit/graphtik/pkg/graph"
	"github.com/pygraphkit/graphtik/pkg/network"
	"github.com/pygraphkit/graphtik/pkg/operation"
	"github.com/pygraphkit/graphtik/pkg/plan"
	"github.com/pygraphkit/graphtik/pkg/types"
)

// Predicate filters which operations may participate in a compilation.
// A nil predicate admits every operation.
type Predicate func(*operation.Operation) bool

// Compile runs the pruning algorithm (§4.4.1) and the scheduler
// (§4.4.2) against net, producing a Plan that delivers askedOutputs
// given knownInputs already available at execute time. An empty
// askedOutputs set means "produce everything reachable".
func Compile(net *network.Network, knownInputs map[string]bool, askedOutputs []string, predicate Predicate, cfg config.Config) (*plan.Plan, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}

	survivors := make(map[string]*operation.Operation)
	for _, op := range net.Operations() {
		if predicate == nil || predicate(op) {
			survivors[op.Name()] = op
		}
	}

	removed := pruneUnsatisfiedNeeds(survivors, knownInputs)
	if len(askedOutputs) > 0 {
		removed = append(removed, pruneUnwantedOutputs(survivors, askedOutputs)...)
	}

	if err := checkAskedOutputsReachable(survivors, knownInputs, askedOutputs, removed); err != nil {
		return nil, err
	}

	steps, err := schedule(net, survivors, askedOutputs, cfg)
	if err != nil {
		return nil, err
	}

	p := &plan.Plan{
		Key:               Key(net, knownInputs, askedOutputs, predicate),
		AskedOuts:         append([]string(nil), askedOutputs...),
		Steps:             steps,
		Comments:          buildComments(net, survivors),
		OperationNeeds:    make(map[string][]plan.NeedRef, len(survivors)),
		OperationProvides: make(map[string][]plan.ProvideRef, len(survivors)),
	}
	for name, op := range survivors {
		p.OperationNeeds[name] = needRefs(op)
		p.OperationProvides[name] = provideRefs(op)
	}
	return p, nil
}

// pruneUnsatisfiedNeeds repeatedly removes, to fixpoint, any operation
// whose non-optional, non-sideffect needs are neither in knownInputs
// nor produced by a surviving operation (§4.4.1 step 2). It mutates
// survivors in place and returns the names removed.
func pruneUnsatisfiedNeeds(survivors map[string]*operation.Operation, knownInputs map[string]bool) []string {
	var removed []string
	for {
		provided := collectProvides(survivors)
		changed := false
		for name, op := range survivors {
			satisfied := true
			for _, need := range op.Needs() {
				if need.IsOptional() || need.IsSideffect() {
					continue
				}
				if knownInputs[need.Base] || provided[need.Base] {
					continue
				}
				satisfied = false
				break
			}
			if satisfied {
				continue
			}
			delete(survivors, name)
			removed = append(removed, name)
			changed = true
		}
		if !changed {
			break
		}
	}
	sort.Strings(removed)
	return removed
}

// pruneUnwantedOutputs keeps only operations on a path to some asked
// output: the data names reachable backward from askedOutputs through
// surviving operations (§4.4.1 step 3). It mutates survivors in place
// and returns the names removed.
func pruneUnwantedOutputs(survivors map[string]*operation.Operation, askedOutputs []string) []string {
	reachable := make(map[string]bool, len(askedOutputs))
	for _, out := range askedOutputs {
		reachable[out] = true
	}

	keep := make(map[string]bool, len(survivors))
	for {
		changed := false
		for name, op := range survivors {
			if keep[name] {
				continue
			}
			wanted := false
			for _, p := range op.Provides() {
				if reachable[p.Base] || (p.IsAliased() && reachable[p.Alias]) {
					wanted = true
					break
				}
			}
			if !wanted {
				continue
			}
			keep[name] = true
			changed = true
			for _, n := range op.Needs() {
				reachable[n.Base] = true
			}
		}
		if !changed {
			break
		}
	}

	var removed []string
	for name := range survivors {
		if !keep[name] {
			removed = append(removed, name)
		}
	}
	for _, name := range removed {
		delete(survivors, name)
	}
	sort.Strings(removed)
	return removed
}

func collectProvides(ops map[string]*operation.Operation) map[string]bool {
	out := make(map[string]bool)
	for _, op := range ops {
		for _, p := range op.Provides() {
			out[p.Base] = true
			if p.IsAliased() {
				out[p.Alias] = true
			}
		}
	}
	return out
}

// checkAskedOutputsReachable raises *types.UnsolvableGraphError when an
// asked output is neither a known input nor provided by a surviving
// operation (§4.4.1 edge case).
func checkAskedOutputsReachable(survivors map[string]*operation.Operation, knownInputs map[string]bool, askedOutputs []string, removed []string) error {
	provided := collectProvides(survivors)
	for _, out := range askedOutputs {
		if knownInputs[out] || provided[out] {
			continue
		}
		return &types.UnsolvableGraphError{Output: out, Pruned: removed}
	}
	return nil
}

// schedule produces the topologically ordered, layer-assigned COMPUTE
// steps and, when eviction is enabled, splices in EVICT steps (§4.4.2).
func schedule(net *network.Network, survivors map[string]*operation.Operation, askedOutputs []string, cfg config.Config) ([]plan.Step, error) {
	opGraph, names := buildOpGraph(survivors)

	order, err := topoOrder(opGraph, names, net)
	if err != nil {
		return nil, err
	}

	layers := assignLayers(opGraph, order)

	steps := make([]plan.Step, 0, len(order))
	for i, name := range order {
		steps = append(steps, plan.Step{Kind: plan.Compute, Op: name, Layer: layers[i]})
	}

	if cfg.Evict && !cfg.SkipEvictions {
		steps = insertEvictions(steps, survivors, askedOutputs)
	}
	return steps, nil
}

// buildOpGraph collapses the bipartite operation/data graph down to an
// operation-only dependency graph over the surviving set: an edge
// producer->consumer exists whenever producer provides a name consumer
// needs.
func buildOpGraph(survivors map[string]*operation.Operation) (*graph.Graph, []string) {
	g := graph.New()
	names := make([]string, 0, len(survivors))
	for name := range survivors {
		names = append(names, name)
		g.AddNode(graph.Node{ID: name, Kind: graph.KindOperation})
	}
	sort.Strings(names)

	producers := make(map[string][]string, len(survivors))
	for name, op := range survivors {
		for _, p := range op.Provides() {
			producers[p.Base] = append(producers[p.Base], name)
			if p.IsAliased() {
				producers[p.Alias] = append(producers[p.Alias], name)
			}
		}
	}

	for name, op := range survivors {
		for _, need := range op.Needs() {
			for _, producer := range producers[need.Base] {
				if producer == name {
					continue
				}
				g.AddEdge(graph.Edge{From: producer, To: name, Sideffect: need.IsSideffect()})
			}
		}
	}
	return g, names
}

// topoOrder runs Kahn's algorithm over the operation-only graph, with
// ties among simultaneously-ready operations broken by composition
// order (§4.4.2: "operations composed earlier come first").
func topoOrder(g *graph.Graph, names []string, net *network.Network) ([]string, error) {
	indegree := make(map[string]int, len(names))
	for _, n := range names {
		indegree[n] = 0
	}
	adj := make(map[string][]string, len(names))
	for _, e := range g.Edges() {
		adj[e.From] = append(adj[e.From], e.To)
		indegree[e.To]++
	}

	var ready []string
	for _, n := range names {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sortByComposition(ready, net)

	order := make([]string, 0, len(names))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		for _, next := range adj[current] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
		sortByComposition(ready, net)
	}

	if len(order) != len(names) {
		return nil, &types.CyclicDependencyError{Name: "<operation cycle among survivors>"}
	}
	return order, nil
}

func sortByComposition(names []string, net *network.Network) {
	sort.Slice(names, func(i, j int) bool {
		return net.CompositionIndex(names[i]) < net.CompositionIndex(names[j])
	})
}

// assignLayers computes, for each operation in topological order, one
// more than the deepest layer of any of its predecessors in the
// operation graph (0 if it has none) — grouping operations with no
// inter-dependencies so a parallel executor may dispatch a layer at a
// time (§4.4.2).
func assignLayers(g *graph.Graph, order []string) []int {
	predecessors := make(map[string][]string, len(order))
	for _, e := range g.Edges() {
		predecessors[e.To] = append(predecessors[e.To], e.From)
	}

	layerOf := make(map[string]int, len(order))
	layers := make([]int, len(order))
	for i, name := range order {
		maxPred := -1
		for _, p := range predecessors[name] {
			if l := layerOf[p]; l > maxPred {
				maxPred = l
			}
		}
		layerOf[name] = maxPred + 1
		layers[i] = maxPred + 1
	}
	return layers
}

// insertEvictions splices an EVICT(data) step immediately after the
// last COMPUTE step that consumes data, skipping sideffect tokens and
// anything in askedOutputs (§4.4.2). The evicted layer is one past its
// last consumer's, so a parallel executor never evicts a value another
// op in the same layer might still be reading.
func insertEvictions(steps []plan.Step, survivors map[string]*operation.Operation, askedOutputs []string) []plan.Step {
	asked := make(map[string]bool, len(askedOutputs))
	for _, o := range askedOutputs {
		asked[o] = true
	}

	lastConsumerStep := make(map[string]int)
	for i, s := range steps {
		op := survivors[s.Op]
		for _, need := range op.Needs() {
			if need.IsSideffect() {
				continue
			}
			lastConsumerStep[need.Base] = i
		}
	}

	type eviction struct {
		afterIndex int
		data       string
		layer      int
	}
	var evictions []eviction
	for data, idx := range lastConsumerStep {
		if asked[data] {
			continue
		}
		evictions = append(evictions, eviction{afterIndex: idx, data: data, layer: steps[idx].Layer + 1})
	}
	sort.Slice(evictions, func(i, j int) bool {
		if evictions[i].afterIndex != evictions[j].afterIndex {
			return evictions[i].afterIndex < evictions[j].afterIndex
		}
		return evictions[i].data < evictions[j].data
	})

	out := make([]plan.Step, 0, len(steps)+len(evictions))
	ei := 0
	for i, s := range steps {
		out = append(out, s)
		for ei < len(evictions) && evictions[ei].afterIndex == i {
			out = append(out, plan.Step{Kind: plan.Evict, Data: evictions[ei].data, Layer: evictions[ei].layer})
			ei++
		}
	}
	return out
}

func needRefs(op *operation.Operation) []plan.NeedRef {
	needs := op.Needs()
	refs := make([]plan.NeedRef, 0, len(needs))
	for _, n := range needs {
		refs = append(refs, plan.NeedRef{
			Base:      n.Base,
			Optional:  n.IsOptional(),
			Sideffect: n.IsSideffect(),
			BodyKey:   n.BodyKey(),
		})
	}
	return refs
}

func provideRefs(op *operation.Operation) []plan.ProvideRef {
	provides := op.Provides()
	refs := make([]plan.ProvideRef, 0, len(provides))
	for _, p := range provides {
		refs = append(refs, plan.ProvideRef{
			Base:      p.Base,
			Optional:  p.IsOptional(),
			Sideffect: p.IsSideffect(),
			Alias:     p.Alias,
			IsAlias:   p.IsAliased(),
		})
	}
	return refs
}

func buildComments(net *network.Network, survivors map[string]*operation.Operation) []plan.Comment {
	comments := make([]plan.Comment, 0, len(net.Operations()))
	for _, op := range net.Operations() {
		name := op.Name()
		if _, ok := survivors[name]; ok {
			comments = append(comments, plan.Comment{Op: name, Kept: true, Reason: "reachable from asked outputs"})
			continue
		}
		comments = append(comments, plan.Comment{Op: name, Kept: false, Reason: "pruned: unsatisfied needs or not on a path to asked outputs"})
	}
	return comments
}

// Key renders the canonical, bytes-stable cache key for one compilation
// request (§4.4.3, §6): sorted known-input names, sorted asked-output
// names, and the predicate's identity. Two equivalent but distinct
// predicate values deliberately defeat caching, since Go gives no way
// to compare function values for behavioral equality.
func Key(net *network.Network, knownInputs map[string]bool, askedOutputs []string, predicate Predicate) string {
	inputs := make([]string, 0, len(knownInputs))
	for name := range knownInputs {
		inputs = append(inputs, name)
	}
	sort.Strings(inputs)

	outputs := append([]string(nil), askedOutputs...)
	sort.Strings(outputs)

	predID := "nil"
	if predicate != nil {
		predID = fmt.Sprintf("%x", reflect.ValueOf(predicate).Pointer())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "net:%p|in:%s|out:%s|pred:%s", net, strings.Join(inputs, ","), strings.Join(outputs, ","), predID)
	return b.String()
}
