// Package predicate compiles the planner's optional predicate(op)->bool
// node filter (§4.4, §6) from a small boolean expression language via
// expr-lang/expr, rather than requiring callers to hand-write Go
// closures for every filter. Compiled programs are cached by source
// text so repeated Compile calls for the same expression never re-pay
// compilation cost.
package predicate

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/pygraphkit/graphtik/pkg/operation"
)

// env is the evaluation environment exposed to a predicate expression:
// an operation's introspectable metadata (§6).
type env struct {
	Name       string
	Needs      []string
	Provides   []string
	Endured    bool
	Parallel   bool
	Rescheduled bool
	Marshalled bool
}

// Engine compiles and caches predicate expressions.
type Engine struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewEngine returns an empty predicate engine.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string]*vm.Program)}
}

// Compile parses and type-checks expression once, returning a
// predicate.Func that evaluates it against an operation's metadata
// (e.g. `Endured == false` or `"cache" in Name`). Equivalent calls with
// the same expression text reuse the compiled program.
func (e *Engine) Compile(expression string) (Func, error) {
	e.mu.Lock()
	program, ok := e.cache[expression]
	e.mu.Unlock()

	if !ok {
		var err error
		program, err = expr.Compile(expression, expr.Env(env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("predicate: compiling %q: %w", expression, err)
		}
		e.mu.Lock()
		e.cache[expression] = program
		e.mu.Unlock()
	}

	return func(op *operation.Operation) bool {
		flags := op.Flags()
		out, err := expr.Run(program, env{
			Name:        op.Name(),
			Needs:       op.NeedsBases(),
			Provides:    op.ProvidesBases(),
			Endured:     flags.Endured,
			Parallel:    flags.Parallel,
			Rescheduled: flags.Rescheduled,
			Marshalled:  flags.Marshalled,
		})
		if err != nil {
			return false
		}
		result, _ := out.(bool)
		return result
	}, nil
}

// Func is the planner.Predicate shape: a compiled, evaluable filter
// over one operation's metadata. It is defined here (rather than
// imported from planner) so this package does not need to depend on
// planner just to name its callback type; planner.Predicate and Func
// are structurally identical and freely interchangeable.
type Func func(*operation.Operation) bool
