package prover

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vcforge/houdini/internal/sexpr"
	"github.com/vcforge/houdini/internal/solver"
)

// VCGenerator is the external collaborator that lowers a procedure body to
// a VC expression (SPEC_FULL §6, "VC-generator collaborator interface").
// The driver never interprets VC text itself; it only asks for preamble
// emission and a rendered assertion string.
type VCGenerator interface {
	SetupAxiomBuilder()
	PrepareCommon()
	FlushAxioms() []string
	VCExprToString(indent int) string
	CalculatePath(controlFlowConstant int, model sexpr.SExpr) ([]string, error)
}

// Dialect names the solver-specific option the driver must probe for
// resource consumption, and whether the rlimit query applies at all
// (SPEC_FULL §4.D: "if the solver is Z3"). Populated from component J
// (internal/config).
type Dialect struct {
	IsZ3          bool
	RLimitInfoKey string
}

// Result is everything produced by a single Check call: the outcome, the
// raw model (when present), and the extracted control-flow path.
type Result struct {
	Outcome   Outcome
	Model     sexpr.SExpr
	HasModel  bool
	Path      []string
	RLimit    int64
	HasRLimit bool
}

// maxPathLength caps the length of the control-flow path returned by the
// generator's CalculatePath; a longer path is truncated to this many
// entries (SPEC_FULL §9 open question).
const maxPathLength = 10000

// ErrUnsupported is returned for the batch driver's explicit non-features.
var ErrUnsupported = errors.New("prover: unsupported in batch mode")

// Driver arranges the fixed command sequence of SPEC_FULL §4.D for one VC
// check against a live solver session.
type Driver struct {
	session *solver.Session
	gen     VCGenerator
	dialect Dialect
}

// New constructs a Driver bound to session and gen.
func New(session *solver.Session, gen VCGenerator, dialect Dialect) *Driver {
	return &Driver{session: session, gen: gen, dialect: dialect}
}

// BeginCheck performs steps 1-2 of the check sequence: full reset and
// common-preamble emission. It must be called exactly once before Check.
func (d *Driver) BeginCheck() error {
	if err := d.session.NewProblem("vc"); err != nil {
		return err
	}
	d.gen.SetupAxiomBuilder()
	d.gen.PrepareCommon()
	for _, axiom := range d.gen.FlushAxioms() {
		if err := d.session.Send(axiom); err != nil {
			return err
		}
	}
	return nil
}

// Check asserts the negated VC, runs the solver, and harvests the reply
// tuple, converting it to a Result. controlFlowConstant identifies the
// current procedure for control-flow path extraction. optimizations are
// additional SMT-LIB commands sent inside the pushed scope (e.g. a
// `(minimize ...)` objective), in order, before check-sat.
func (d *Driver) Check(ctx context.Context, vc string, controlFlowConstant int, optimizations []string) (Result, error) {
	if err := d.session.Send(fmt.Sprintf("(assert (not %s))", vc)); err != nil {
		return Result{}, err
	}
	if err := d.session.Send("(push 1)"); err != nil {
		return Result{}, err
	}
	if err := d.session.Send(vc); err != nil {
		return Result{}, err
	}
	for _, opt := range optimizations {
		if err := d.session.Send(opt); err != nil {
			return Result{}, err
		}
	}

	if err := d.session.Send("(check-sat)"); err != nil {
		return Result{}, err
	}
	outcomeResp, err := d.session.AwaitResponse(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := d.session.Send("(get-info :reason-unknown)"); err != nil {
		return Result{}, err
	}
	reasonResp, err := d.session.AwaitResponse(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Outcome: classifyOutcome(outcomeResp)}
	if res.Outcome == Undetermined {
		res.Outcome = refineReasonUnknown(reasonUnknownText(reasonResp))
	}

	if d.dialect.IsZ3 {
		if err := d.session.Send(fmt.Sprintf("(get-info :%s)", d.dialect.RLimitInfoKey)); err != nil {
			return Result{}, err
		}
		rlimitResp, err := d.session.AwaitResponse(ctx)
		if err != nil {
			return Result{}, err
		}
		if v, ok := rlimitValue(rlimitResp); ok {
			res.RLimit, res.HasRLimit = v, true
		}
	}

	if err := d.session.Send("(get-model)"); err != nil {
		return Result{}, err
	}
	modelResp, err := d.session.AwaitResponse(ctx)
	if err != nil {
		return Result{}, err
	}
	if modelResp.Name == "model" {
		res.Model, res.HasModel = modelResp, true
	}

	if res.Outcome == Invalid && res.HasModel {
		path, perr := d.gen.CalculatePath(controlFlowConstant, res.Model)
		if perr != nil {
			// No path but an error was returned: downgrade, there is
			// nothing to blame (SPEC_FULL §4.D).
			res.Outcome = Undetermined
		} else {
			if len(path) > maxPathLength {
				path = path[:maxPathLength]
			}
			res.Path = path
		}
	}

	if err := d.session.Send("(pop 1)"); err != nil {
		return Result{}, err
	}
	return res, nil
}

// EndCheck closes the session's stdin; no further commands may be sent
// after this, though trailing log comments are still permitted.
func (d *Driver) EndCheck() error {
	return d.session.IndicateEndOfInput()
}

// classifyOutcome maps the check-sat reply onto a provisional Outcome, per
// the table in SPEC_FULL §4.D.
func classifyOutcome(resp sexpr.SExpr) Outcome {
	switch resp.Name {
	case "sat":
		return Invalid
	case "unsat":
		return Valid
	case "unknown":
		return Undetermined
	case "error":
		if solver.IsResourceLimitError(resp) {
			return OutOfResource
		}
		return SolverException
	default:
		return SolverException
	}
}

func reasonUnknownText(resp sexpr.SExpr) string {
	if resp.Name != ":reason-unknown" || len(resp.Args) == 0 {
		return ""
	}
	return resp.Args[0].Name
}

func rlimitValue(resp sexpr.SExpr) (int64, bool) {
	if !strings.HasPrefix(resp.Name, ":") || len(resp.Args) == 0 {
		return 0, false
	}
	var n int64
	if _, err := fmt.Sscanf(resp.Args[0].Name, "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}

// Evaluate, Check, UnsatCore, and CheckAssumptions are explicit
// non-features of the batch driver (SPEC_FULL §4.D).

func (d *Driver) Evaluate(context.Context, string) (sexpr.SExpr, error) {
	return sexpr.SExpr{}, fmt.Errorf("%w: Evaluate", ErrUnsupported)
}

func (d *Driver) IncrementalCheck(context.Context) (Outcome, error) {
	return SolverException, fmt.Errorf("%w: Check", ErrUnsupported)
}

func (d *Driver) UnsatCore(context.Context) ([]string, error) {
	return nil, fmt.Errorf("%w: UnsatCore", ErrUnsupported)
}

func (d *Driver) CheckAssumptions(context.Context, []string) (Outcome, error) {
	return SolverException, fmt.Errorf("%w: CheckAssumptions", ErrUnsupported)
}
