package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vcforge/houdini/internal/callgraph"
	"github.com/vcforge/houdini/internal/config"
	"github.com/vcforge/houdini/internal/houdini"
	"github.com/vcforge/houdini/internal/observe"
)

var inferDialectName string

var inferCmd = &cobra.Command{
	Use:   "infer <program.json>",
	Short: "Run Houdini candidate-invariant inference to a fixed point",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfer,
}

func init() {
	inferCmd.Flags().StringVar(&inferDialectName, "solver", "z3", "solver dialect name (see dialects.yaml)")
}

func runInfer(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}

	reg, err := config.Default(flagDialectFile)
	if err != nil {
		return fmt.Errorf("load dialects: %w", err)
	}
	dialect, ok := reg.Get(inferDialectName)
	if !ok {
		return fmt.Errorf("unknown solver dialect %q", inferDialectName)
	}
	if flagSolverPath != "" {
		dialect.Command = flagSolverPath
	}

	logger := newLogger("houdini-infer")
	defer logger.Close()

	graph := callgraph.New()
	implementations := make([]string, 0, len(prog.Implementations))
	for name := range prog.Implementations {
		graph.AddNode(name)
		implementations = append(implementations, name)
	}
	for _, edge := range prog.CallEdges {
		graph.AddEdge(edge.Caller, edge.Callee)
	}

	candidates := make(houdini.StringSet, len(prog.Candidates))
	for _, c := range prog.Candidates {
		candidates[c] = true
	}

	crossDeps := make(houdini.CrossDependencies)
	for candidate, impls := range prog.CrossDeps {
		for _, impl := range impls {
			crossDeps.Add(candidate, impl)
		}
	}

	observers := observe.NewPublisher()
	observers.Register(observe.ObserverFunc(func(p observe.Payload) {
		logger.Debug("houdini event", "event", p.Event.String(), "implementation", p.Implementation,
			"candidate", p.Candidate, "outcome", p.Outcome)
	}))

	metrics, shutdownMetrics, err := setupMetrics(flagMetrics)
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}
	shutdownTracing, err := setupTracing(flagTraces)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flagTimeout)*time.Second)
	defer cancel()
	defer shutdownMetrics(ctx)
	defer shutdownTracing(ctx)

	prom := newPromExporter()
	if err := prom.serve(flagMetricsAddr); err != nil {
		return fmt.Errorf("serve prometheus metrics: %w", err)
	}
	defer prom.Close(ctx)

	watcher, err := watchPreamble(ctx, flagPreambleDir, logger.Slog())
	if err != nil {
		return fmt.Errorf("preamble manifest: %w", err)
	}
	if watcher != nil {
		defer watcher.Close()
	}

	engine := houdini.New(houdini.Config{
		Graph:                 graph,
		Verifier:              &fileVerifier{program: prog, dialect: dialect, metrics: metrics, prom: prom},
		Resolver:              identResolver{},
		Candidates:            candidates,
		AssertGuardCandidates: prog.AssertGuardCandidates,
		CrossDeps:             crossDeps,
		CrossDepsEnabled:      prog.CrossDepsEnabled,
		UnsatCoreEnabled:      prog.UnsatCoreEnabled,
		Observers:             observers,
		Metrics:               metrics,
		ReverseQueueOrder:     prog.ReverseQueueOrder,
	})
	engine.Initialize(implementations, nil, nil)

	outcome := engine.Run(ctx)
	return printInferOutcome(cmd, outcome)
}

func printInferOutcome(cmd *cobra.Command, outcome houdini.RunOutcome) error {
	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "final assignment:")
	for name, value := range outcome.Assignment {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s = %t\n", name, value)
	}
	if len(outcome.Refutations) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "refutations:")
		for _, r := range outcome.Refutations {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s refuted by %s (%s)\n", r.Constant, r.Site, r.Kind.String())
		}
	}
	for impl, errs := range outcome.ImplErrors {
		for _, err := range errs {
			fmt.Fprintf(cmd.OutOrStdout(), "error in %s: %v\n", impl, err)
		}
	}
	return nil
}
