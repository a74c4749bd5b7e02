package houdini

import (
	"context"

	"github.com/vcforge/houdini/internal/callgraph"
	"github.com/vcforge/houdini/internal/cex"
	"github.com/vcforge/houdini/internal/observe"
	"github.com/vcforge/houdini/internal/prover"
)

// Verifier is the per-implementation verifier collaborator (SPEC_FULL
// §4.F step 2): runs one inner-verify call for impl under effective and
// returns the resulting outcome plus any counterexamples.
type Verifier interface {
	Verify(ctx context.Context, impl string, effective Assignment) (prover.Outcome, []cex.Cex, error)
	// UnsatCore returns the named assertions in impl's session's last
	// unsat core. ok is false if no core has been recorded yet.
	UnsatCore(impl string) (core []string, ok bool)
}

// ExprResolver maps a counterexample to the guarded expression whose
// failure it witnesses, for candidate matching.
type ExprResolver interface {
	FailingExpr(c cex.Cex) *Implication
}

// Config configures an Engine. Graph, Verifier, Resolver, and Candidates
// are required; the rest have meaningful zero values.
type Config struct {
	Graph                 *callgraph.Graph
	Verifier              Verifier
	Resolver              ExprResolver
	Candidates            StringSet
	AssertGuardCandidates map[string][]string // impl -> candidates guarding its asserts
	CrossDeps             CrossDependencies
	CrossDepsEnabled      bool
	UnsatCoreEnabled      bool
	Observers             *observe.Publisher
	Metrics               *observe.Metrics
	ReverseQueueOrder     bool
}

// Engine drives the Houdini fixed-point loop over one program's
// candidate set (SPEC_FULL §4.F). Not safe for concurrent use: the
// engine is cooperatively single-threaded (SPEC_FULL §5).
type Engine struct {
	cfg Config

	assignment    Assignment
	queue         *WorkQueue
	denyList      map[string]bool
	vcgenFailures map[string]error

	stageActive     map[string]int
	stageComplete   map[string]int
	currentStage    int
	completedStages map[int]bool

	iterations int
}

// New constructs an Engine from cfg. Call Initialize before Run.
func New(cfg Config) *Engine {
	if cfg.Observers == nil {
		cfg.Observers = observe.NewPublisher()
	}
	return &Engine{
		cfg:             cfg,
		denyList:        make(map[string]bool),
		vcgenFailures:   make(map[string]error),
		stageActive:     make(map[string]int),
		stageComplete:   make(map[string]int),
		completedStages: make(map[int]bool),
	}
}

// SetStageActive and SetStageComplete configure a candidate to be forced by the current stage
// index (stage_active) or by completed-stage membership (stage_complete).
// These overrides apply per verify call and never mutate the stored
// assignment (SPEC_FULL §4.F "Staging").
func (e *Engine) SetStageActive(candidate string, stage int)   { e.stageActive[candidate] = stage }
func (e *Engine) SetStageComplete(candidate string, stage int) { e.stageComplete[candidate] = stage }
func (e *Engine) SetCurrentStage(stage int)                    { e.currentStage = stage }
func (e *Engine) MarkStageCompleted(stage int)                 { e.completedStages[stage] = true }

// Initialize builds the initial work queue in reverse-topological SCC
// order over the call graph (leaves first, optionally reversed), applies
// vcgenFailures to the deny-list, and seeds the assignment: every
// candidate defaults to true, overridden by initial where present
// (SPEC_FULL §4.F steps 5-7).
func (e *Engine) Initialize(implementations []string, vcgenFailures map[string]error, initial Assignment) {
	for impl, err := range vcgenFailures {
		e.denyList[impl] = true
		e.vcgenFailures[impl] = err
	}

	present := make(map[string]bool, len(implementations))
	for _, impl := range implementations {
		present[impl] = true
	}

	var order []string
	for _, scc := range e.cfg.Graph.SCCs() {
		for _, name := range scc {
			if present[name] && !e.denyList[name] {
				order = append(order, name)
			}
		}
	}
	if e.cfg.ReverseQueueOrder {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	e.queue = NewWorkQueue(order)

	e.assignment = make(Assignment, len(e.cfg.Candidates))
	for name := range e.cfg.Candidates {
		e.assignment[name] = true
	}
	for name, v := range initial {
		e.assignment[name] = v
	}
}

// effectiveAssignment applies staging overrides on top of the stored
// assignment without mutating it.
func (e *Engine) effectiveAssignment() Assignment {
	eff := e.assignment.Clone()
	for candidate, stage := range e.stageActive {
		eff[candidate] = stage == e.currentStage
	}
	for candidate, stage := range e.stageComplete {
		eff[candidate] = e.completedStages[stage]
	}
	return eff
}

func (e *Engine) publish(p observe.Payload) {
	e.cfg.Observers.Publish(p)
}

// Run executes the main loop until the work queue is empty, returning the
// accumulated RunOutcome. Termination is guaranteed by assignment
// monotonicity (SPEC_FULL invariant 5).
func (e *Engine) Run(ctx context.Context) RunOutcome {
	e.publish(observe.Payload{Event: observe.EventStart})

	out := RunOutcome{
		ImplErrors:    make(map[string][]error),
		ImplOutcomes:  make(map[string]prover.Outcome),
		VCGenFailures: e.vcgenFailures,
	}

	for {
		impl, ok := e.queue.Peek()
		if !ok {
			break
		}
		e.publish(observe.Payload{Event: observe.EventImplementation, Implementation: impl})

		retry := true
		for retry {
			retry = false
			e.iterations++
			e.publish(observe.Payload{Event: observe.EventIteration, Implementation: impl, Iteration: e.iterations})
			if e.cfg.Metrics != nil {
				e.cfg.Metrics.HoudiniIterations.Add(ctx, 1)
			}

			outcome, cexes, err := e.cfg.Verifier.Verify(ctx, impl, e.effectiveAssignment())
			if err != nil {
				out.ImplErrors[impl] = append(out.ImplErrors[impl], err)
				e.queue.Dequeue()
				e.publish(observe.Payload{Event: observe.EventException, Implementation: impl, Err: err})
				break
			}
			out.ImplOutcomes[impl] = outcome
			e.publish(observe.Payload{Event: observe.EventOutcome, Implementation: impl, Outcome: outcome.String()})

			if isResourceOutcome(outcome) {
				e.flipAssertGuards(impl)
				e.denyList[impl] = true
				e.queue.Dequeue()
				break
			}

			refs, genuineErr := e.extractRefutations(impl, cexes)
			if genuineErr != nil {
				out.ImplErrors[impl] = append(out.ImplErrors[impl], genuineErr)
				e.queue.Dequeue()
				e.publish(observe.Payload{Event: observe.EventFlushStart, Implementation: impl})
				e.queue.Drain()
				e.publish(observe.Payload{Event: observe.EventFlushFinish, Implementation: impl})
				break
			}

			if len(refs) == 0 {
				if outcome == prover.Valid && e.cfg.UnsatCoreEnabled {
					e.cfg.Verifier.UnsatCore(impl)
				}
				e.queue.Dequeue()
				e.publish(observe.Payload{Event: observe.EventDequeue, Implementation: impl})
				break
			}

			for _, r := range refs {
				e.assignment[r.Constant] = false
				out.Refutations = append(out.Refutations, r)
				e.publish(observe.Payload{Event: observe.EventConstant, Candidate: r.Constant, Value: false})
				if e.cfg.Metrics != nil {
					e.cfg.Metrics.HoudiniCandidatesRef.Add(ctx, 1)
				}
				for _, rel := range e.propagate(impl, r) {
					if !e.queue.Contains(rel) {
						e.publish(observe.Payload{Event: observe.EventEnqueue, Implementation: rel})
					}
					e.queue.Enqueue(rel)
				}
			}
			retry = true
		}
	}

	out.Assignment = e.assignment.Clone()
	e.publish(observe.Payload{Event: observe.EventEnd})
	return out
}

func isResourceOutcome(o prover.Outcome) bool {
	return o == prover.TimedOut || o == prover.OutOfResource || o == prover.OutOfMemory
}

// flipAssertGuards sets every assert-guarding candidate of impl to false,
// per SPEC_FULL §4.F step 2.f (resource exhaustion handling).
func (e *Engine) flipAssertGuards(impl string) {
	for _, candidate := range e.cfg.AssertGuardCandidates[impl] {
		e.assignment[candidate] = false
	}
}

// extractRefutations classifies each counterexample and matches it
// against the candidate set. A counterexample with no matching candidate
// is a genuine error: the caller must flush the worklist.
func (e *Engine) extractRefutations(impl string, cexes []cex.Cex) ([]RefutedAnnotation, error) {
	var refs []RefutedAnnotation
	for _, c := range cexes {
		kind, site, callee := classifyCex(c)
		expr := e.cfg.Resolver.FailingExpr(c)
		name, matched := MatchCandidate(expr, e.cfg.Candidates)
		if !matched {
			return nil, &GenuineError{Implementation: impl, Cex: c}
		}
		refs = append(refs, RefutedAnnotation{Constant: name, Kind: kind, Site: site, Callee: callee})
	}
	return refs, nil
}

func classifyCex(c cex.Cex) (kind AnnotationKind, site, callee string) {
	switch v := c.(type) {
	case *cex.AssertCounterexample:
		return AnnotationAssert, v.ErrorData, ""
	case *cex.CallCounterexample:
		return AnnotationRequires, v.FailingRequires, v.Callee
	case *cex.ReturnCounterexample:
		return AnnotationEnsures, v.FailingEnsures, ""
	default:
		return AnnotationAssert, "", ""
	}
}

// propagate implements the table in SPEC_FULL §4.F step 2.d: the
// implementations to re-enqueue after refuting r's candidate within
// current, filtered against the deny-list.
func (e *Engine) propagate(current string, r RefutedAnnotation) []string {
	var related []string
	switch r.Kind {
	case AnnotationRequires:
		for _, callee := range e.cfg.Graph.Callees(current) {
			if callee == r.Callee && e.inUnsatCore(callee, r.Constant) {
				related = append(related, callee)
			}
		}
	case AnnotationEnsures:
		for _, caller := range e.cfg.Graph.Callers(current) {
			if e.inUnsatCore(caller, r.Constant) {
				related = append(related, caller)
			}
		}
	case AnnotationAssert:
		if e.cfg.CrossDepsEnabled {
			for _, impl := range e.cfg.CrossDeps.Implementations(r.Constant) {
				if e.inUnsatCore(impl, r.Constant) {
					related = append(related, impl)
				}
			}
		}
	}

	out := related[:0]
	for _, x := range related {
		if !e.denyList[x] {
			out = append(out, x)
		}
	}
	return out
}

// inUnsatCore gates cross-implementation propagation on unsat-core
// membership when the feature is on. With UnsatCoreEnabled false there
// is no core to consult, so every candidate propagates unconditionally
// rather than being silently dropped (spec.md §8 invariant 6).
func (e *Engine) inUnsatCore(impl, candidate string) bool {
	if !e.cfg.UnsatCoreEnabled {
		return true
	}
	core, ok := e.cfg.Verifier.UnsatCore(impl)
	if !ok {
		return false
	}
	for _, name := range core {
		if name == candidate {
			return true
		}
	}
	return false
}

// GenuineError wraps a counterexample that matched no candidate: a real
// verification failure rather than a refutable annotation.
type GenuineError struct {
	Implementation string
	Cex            cex.Cex
}

func (e *GenuineError) Error() string {
	return "houdini: genuine verification failure in " + e.Implementation
}
