package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vcforge/houdini/internal/cex"
	"github.com/vcforge/houdini/internal/config"
	"github.com/vcforge/houdini/internal/houdini"
	"github.com/vcforge/houdini/internal/observe"
	"github.com/vcforge/houdini/internal/prover"
	"github.com/vcforge/houdini/internal/solver"
)

// callEdge is one caller-calls-callee edge in a program description.
type callEdge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// implSpec describes one implementation's VC in terms an external VC
// generator would hand the batch driver: a preamble, a single VC
// expression with `CANDIDATE_<name>` placeholders substituted per the
// effective assignment, and the error tag the VC's guarded assert
// reports on failure. References lists every candidate the VC mentions,
// standing in for a real unsat core: the batch driver explicitly does
// not support querying one (spec.md §2 non-goals), so propagation here
// is approximated from the VC's static candidate references.
type implSpec struct {
	Preamble            []string `json:"preamble"`
	VCTemplate          string   `json:"vc_template"`
	ControlFlowConstant int      `json:"control_flow_constant"`
	ErrorData           string   `json:"error_data"`
	References          []string `json:"references"`
}

// program is the on-disk description consumed by `houdini infer`.
type program struct {
	Candidates            []string            `json:"candidates"`
	AssertGuardCandidates map[string][]string `json:"assert_guard_candidates"`
	CrossDeps             map[string][]string `json:"cross_deps"`
	CrossDepsEnabled      bool                `json:"cross_deps_enabled"`
	UnsatCoreEnabled      bool                `json:"unsat_core_enabled"`
	ReverseQueueOrder     bool                `json:"reverse_queue_order"`
	CallEdges             []callEdge          `json:"call_edges"`
	Implementations       map[string]implSpec `json:"implementations"`
}

func loadProgram(path string) (*program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	var p program
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	return &p, nil
}

// identResolver treats an AssertCounterexample's ErrorData directly as
// the candidate identifier guarding the failed assert: the program
// description's vc_template always wraps a guarded assert as
// `(=> CANDIDATE_<name> body)`, so ErrorData is set to <name> at
// construction time in fileVerifier.Verify.
type identResolver struct{}

func (identResolver) FailingExpr(c cex.Cex) *houdini.Implication {
	switch v := c.(type) {
	case *cex.AssertCounterexample:
		return &houdini.Implication{AntecedentIdent: v.ErrorData}
	case *cex.CallCounterexample:
		return &houdini.Implication{AntecedentIdent: v.FailingRequires}
	case *cex.ReturnCounterexample:
		return &houdini.Implication{AntecedentIdent: v.FailingEnsures}
	default:
		return nil
	}
}

// fileVerifier runs one batch check per Verify call against a fresh
// solver process, substituting candidate placeholders textually before
// sending the VC (spec.md §2: VC generation is an external collaborator;
// this is the simplest faithful stand-in).
type fileVerifier struct {
	program *program
	dialect config.Dialect
	metrics *observe.Metrics
	prom    *promExporter
}

func (v *fileVerifier) Verify(ctx context.Context, impl string, effective houdini.Assignment) (prover.Outcome, []cex.Cex, error) {
	ctx, span := tracer().Start(ctx, "fileVerifier.Verify", trace.WithAttributes(attribute.String("implementation", impl)))
	defer span.End()

	spec, ok := v.program.Implementations[impl]
	if !ok {
		return prover.SolverException, nil, fmt.Errorf("houdini: no implementation named %q", impl)
	}

	vc := spec.VCTemplate
	for name, value := range effective {
		vc = strings.ReplaceAll(vc, "CANDIDATE_"+name, boolLiteral(value))
	}

	session := solver.New(solver.Config{Command: v.dialect.Command, Args: v.dialect.Args})
	if err := session.Start(ctx); err != nil {
		return prover.SolverException, nil, fmt.Errorf("start solver for %s: %w", impl, err)
	}
	defer func() {
		session.Close()
		if v.metrics != nil && session.ExitError() != nil {
			v.metrics.SolverSessionExits.Add(ctx, 1, metric.WithAttributes(attribute.String("implementation", impl)))
		}
	}()

	gen := &staticVCGenerator{preamble: spec.Preamble, vc: vc}
	driver := prover.New(session, gen, v.dialect.ProverDialect())
	if err := driver.BeginCheck(); err != nil {
		return prover.SolverException, nil, fmt.Errorf("begin check for %s: %w", impl, err)
	}

	start := time.Now()
	result, err := driver.Check(ctx, vc, spec.ControlFlowConstant, nil)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return prover.SolverException, nil, fmt.Errorf("check %s: %w", impl, err)
	}
	if err := driver.EndCheck(); err != nil {
		return prover.SolverException, nil, fmt.Errorf("end check for %s: %w", impl, err)
	}

	if v.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("outcome", result.Outcome.String()))
		v.metrics.SolverChecksTotal.Add(ctx, 1, attrs)
		v.metrics.SolverCheckDuration.Record(ctx, elapsed, attrs)
	}
	if v.prom != nil {
		cpuMillis, _ := session.UserCPUMillis()
		v.prom.recordCheck(impl, result.Outcome.String(), cpuMillis)
	}

	if result.Outcome != prover.Invalid {
		return result.Outcome, nil, nil
	}

	model := cex.NewModel(result.Model)
	c := cex.NewAssert(0, 0, nil, model, spec.ErrorData)
	return result.Outcome, []cex.Cex{c}, nil
}

// UnsatCore returns the candidates impl's VC statically references, as a
// substitute for a real unsat core (see implSpec.References).
func (v *fileVerifier) UnsatCore(impl string) ([]string, bool) {
	spec, ok := v.program.Implementations[impl]
	if !ok {
		return nil, false
	}
	return spec.References, true
}

func boolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
