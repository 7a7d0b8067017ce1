// Command graphtik wires the pipeline engine's library packages into a
// runnable example: it composes a small network, compiles a plan for a
// set of requested outputs, executes it, and prints the resulting
// solution. It is the one place network, planner, plancache, executor,
// workerpool, observer, predicate, and telemetry are all assembled together;
// every package it imports stays usable as a library on its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/pygraphkit/graphtik/pkg/config"
	"github.com/pygraphkit/graphtik/pkg/executor"
	"github.com/pygraphkit/graphtik/pkg/logging"
	"github.com/pygraphkit/graphtik/pkg/network"
	"github.com/pygraphkit/graphtik/pkg/observer"
	"github.com/pygraphkit/graphtik/pkg/operation"
	"github.com/pygraphkit/graphtik/pkg/plan"
	"github.com/pygraphkit/graphtik/pkg/plancache"
	"github.com/pygraphkit/graphtik/pkg/planner"
	"github.com/pygraphkit/graphtik/pkg/predicate"
	"github.com/pygraphkit/graphtik/pkg/telemetry"
	"github.com/pygraphkit/graphtik/pkg/types"
	"github.com/pygraphkit/graphtik/pkg/workerpool"
)

func main() {
	var (
		parallel      = flag.Bool("parallel", false, "run eligible layers on a worker pool")
		poolSize      = flag.Int("pool-size", 4, "worker pool concurrency, when -parallel is set")
		predicateExpr = flag.String("predicate", "", "expr-lang boolean expression filtering operations by metadata")
		enableMetrics = flag.Bool("metrics", false, "enable the OpenTelemetry/Prometheus observer")
		logLevel      = flag.String("log-level", "info", "debug, info, warn, or error")
	)
	flag.Parse()

	logger := logging.New(logging.Config{Level: *logLevel, Pretty: true})

	net := exampleNetwork()
	networkID := uuid.NewString()

	cfg := config.Default()
	if *parallel {
		cfg.ParallelTasks = config.BoolPtr(true)
	}

	var pred planner.Predicate
	if *predicateExpr != "" {
		engine := predicate.NewEngine()
		fn, err := engine.Compile(*predicateExpr)
		if err != nil {
			logger.WithError(err).Error("failed to compile predicate")
			os.Exit(1)
		}
		pred = planner.Predicate(fn)
	}

	knownInputs := map[string]bool{"x": true}
	askedOutputs := []string{"z"}

	cache := plancache.New(32)
	key := planner.Key(net, knownInputs, askedOutputs, pred)
	p, err := cache.Get(key, func() (*plan.Plan, error) {
		return planner.Compile(net, knownInputs, askedOutputs, pred, cfg)
	})
	if err != nil {
		logger.WithError(err).Error("compilation failed")
		os.Exit(1)
	}

	manager := observer.NewManager()
	manager.Register(observer.NewConsoleObserver())

	var provider *telemetry.Provider
	if *enableMetrics {
		provider, err = telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
		if err != nil {
			logger.WithError(err).Error("failed to start telemetry provider")
			os.Exit(1)
		}
		defer provider.Shutdown(context.Background())
		manager.Register(telemetry.NewTelemetryObserver(provider))
	}

	var pool workerpool.Pool
	if *parallel {
		pool = workerpool.NewBounded(*poolSize)
	}

	recompile := func(known map[string]bool) (*plan.Plan, error) {
		return planner.Compile(net, known, askedOutputs, pred, cfg)
	}

	exec := executor.New(cfg, pool, manager, networkID)
	sol, err := exec.Execute(net, p, map[string]interface{}{"x": 1}, recompile)
	if err != nil {
		logger.WithError(err).Error("execution failed")
	}

	fmt.Println("executed:", sol.Executed())
	fmt.Println("canceled:", sol.Canceled())
	fmt.Println("failures:", sol.Failures())
	for _, name := range askedOutputs {
		if v, ok := sol.Get(name); ok {
			fmt.Printf("%s = %v\n", name, v)
		}
	}
}

// exampleNetwork composes the spec's linear-chain scenario: A(x)->y,
// B(y)->z. It exists to give the CLI something to run without a
// declarative pipeline format, which is out of this engine's scope.
func exampleNetwork() *network.Network {
	net := network.New()
	a := operation.New("A",
		types.Names{types.Plain("x")},
		types.Names{types.Plain("y")},
		func(in operation.Inputs) (operation.Outputs, error) {
			x := in["x"].(int)
			return operation.Outputs{"y": x + 1}, nil
		},
		operation.Flags{},
	)
	b := operation.New("B",
		types.Names{types.Plain("y")},
		types.Names{types.Plain("z")},
		func(in operation.Inputs) (operation.Outputs, error) {
			y := in["y"].(int)
			return operation.Outputs{"z": y * 2}, nil
		},
		operation.Flags{},
	)
	if err := net.Compose(network.Appended, a, b); err != nil {
		panic(err)
	}
	return net
}
