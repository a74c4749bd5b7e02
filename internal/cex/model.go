// Package cex implements counterexample representation and model
// projection (SPEC_FULL §4.E): binding a solver's raw model to the
// per-state variable incarnations recorded during VC generation.
package cex

import "github.com/vcforge/houdini/internal/sexpr"

// ExprKind classifies an incarnation expression for model-element mapping.
type ExprKind int

const (
	// ExprIdentifier is a reference to another program variable's unique
	// name; looked up directly in the model.
	ExprIdentifier ExprKind = iota
	// ExprLiteral is a constant value; turned into a model element built
	// from its stringified value.
	ExprLiteral
	// ExprOther is anything else; turned into a fresh 0-ary function
	// constant named by its string form.
	ExprOther
)

// Expr is the minimal shape of an incarnation expression the VC generator
// hands to model projection: its kind plus a textual rendering.
type Expr struct {
	Kind ExprKind
	Text string
}

// CaptureState is one named point in a block's symbolic execution where
// the current source-variable-to-incarnation mapping was recorded.
type CaptureState struct {
	Assume       string
	Incarnations map[string]Expr
}

// Block is one element of a counterexample trace.
type Block struct {
	Name          string
	CaptureStates []CaptureState
}

// ModelViewInfo is the static description a VC generator produces once:
// every program variable, plus per-block capture-state sequences.
type ModelViewInfo struct {
	Variables []string
	Blocks    []Block
}

// ProverContext resolves a source variable to the unique name the solver
// model binds it under.
type ProverContext interface {
	UniqueName(variable string) (string, bool)
}

// ModelState is a labeled snapshot of variable bindings, keyed by source
// variable name, produced by InitializeModelStates.
type ModelState struct {
	Label    string
	Bindings map[string]sexpr.SExpr
}

// Model wraps a raw `(model ...)` reply with lookup helpers.
type Model struct {
	raw sexpr.SExpr
}

// NewModel wraps a parsed `(model ...)` SExpr.
func NewModel(raw sexpr.SExpr) *Model {
	return &Model{raw: raw}
}

// GetModelValue looks up the value bound to uniqueName via a top-level
// `(define-fun uniqueName () Sort value)` entry in the model.
func (m *Model) GetModelValue(uniqueName string) (sexpr.SExpr, bool) {
	for _, def := range m.raw.Args {
		if def.Name != "define-fun" || len(def.Args) < 4 {
			continue
		}
		name, params, value := def.Args[0], def.Args[1], def.Args[len(def.Args)-1]
		if name.Name == uniqueName && len(params.Args) == 0 {
			return value, true
		}
	}
	return sexpr.SExpr{}, false
}

// applyUniversalRedirection substitutes every application of fnName to a
// single argument with that argument's bound result, per step 1 of
// InitializeModelStates: for U_2_bool/U_2_int, a unary defined function
// that coerces an opaque universe element to bool/int is collapsed away
// so later lookups see the coerced value directly.
func (m *Model) applyUniversalRedirection(fnName string) {
	table := m.unaryFunctionTable(fnName)
	if len(table) == 0 {
		return
	}
	for i := range m.raw.Args {
		m.raw.Args[i] = substituteUnaryCalls(m.raw.Args[i], fnName, table)
	}
}

// unaryFunctionTable builds an {argument-text -> result} table from a
// `(define-fun fnName ((x Sort)) Result body)` entry whose body is a
// chain of `(ite (= x K) V ...)` equalities — the shape the reference
// solver emits for finite-domain function graphs.
func (m *Model) unaryFunctionTable(fnName string) map[string]sexpr.SExpr {
	for _, def := range m.raw.Args {
		if def.Name != "define-fun" || len(def.Args) != 4 {
			continue
		}
		name, params := def.Args[0], def.Args[1]
		if name.Name != fnName || len(params.Args) != 1 {
			continue
		}
		arg := params.Args[0]
		if len(arg.Args) == 0 {
			continue
		}
		argName := arg.Name
		return iteChainTable(argName, def.Args[3])
	}
	return nil
}

// iteChainTable flattens `(ite (= argName K) V rest)` into a lookup table.
func iteChainTable(argName string, body sexpr.SExpr) map[string]sexpr.SExpr {
	table := make(map[string]sexpr.SExpr)
	for body.Name == "ite" && len(body.Args) == 3 {
		cond, then, rest := body.Args[0], body.Args[1], body.Args[2]
		if cond.Name == "=" && len(cond.Args) == 2 && cond.Args[0].Name == argName {
			table[cond.Args[1].Name] = then
		}
		body = rest
	}
	return table
}

// substituteUnaryCalls rewrites every `(fnName arg)` subterm of e whose
// arg has a table entry into that entry's bound value.
func substituteUnaryCalls(e sexpr.SExpr, fnName string, table map[string]sexpr.SExpr) sexpr.SExpr {
	if e.Name == fnName && len(e.Args) == 1 {
		if v, ok := table[e.Args[0].Name]; ok {
			return v
		}
	}
	if e.IsID() {
		return e
	}
	args := make([]sexpr.SExpr, len(e.Args))
	for i, a := range e.Args {
		args[i] = substituteUnaryCalls(a, fnName, table)
	}
	return sexpr.App(e.Name, args...)
}

// InitializeModelStates implements SPEC_FULL §4.E's four-step model
// projection: universal redirection, initial-state binding, per-block
// capture-state walk (stopping at the failing command of the last
// block), and per-state incarnation binding with unchanged-value
// skipping.
func InitializeModelStates(m *Model, info ModelViewInfo, pc ProverContext, failingBlockIndex, failingCmdIndex int) []ModelState {
	m.applyUniversalRedirection("U_2_bool")
	m.applyUniversalRedirection("U_2_int")

	states := make([]ModelState, 0)

	initial := ModelState{Label: "<init>", Bindings: make(map[string]sexpr.SExpr)}
	prevText := make(map[string]string, len(info.Variables))
	for _, v := range info.Variables {
		uname := v
		if resolved, ok := pc.UniqueName(v); ok {
			uname = resolved
		}
		prevText[v] = uname
		if val, ok := m.GetModelValue(uname); ok {
			initial.Bindings[v] = val
		}
	}
	states = append(states, initial)

	for bi, block := range info.Blocks {
		limit := len(block.CaptureStates)
		if bi == failingBlockIndex && failingCmdIndex >= 0 && failingCmdIndex < limit {
			limit = failingCmdIndex
		}
		for ci := 0; ci < limit; ci++ {
			cs := block.CaptureStates[ci]
			state := ModelState{Label: cs.Assume, Bindings: make(map[string]sexpr.SExpr)}
			for varName, expr := range cs.Incarnations {
				if prev, ok := prevText[varName]; ok && sameExpr(prev, expr) {
					continue
				}
				prevText[varName] = expr.Text
				state.Bindings[varName] = bindExpr(m, expr, pc)
			}
			states = append(states, state)
		}
		if bi == failingBlockIndex {
			break
		}
	}
	return states
}

// sameExpr reports whether an incarnation expression is textually
// identical to the variable's previous incarnation text, used to skip
// rebinding variables unchanged since the last capture state.
func sameExpr(prevText string, expr Expr) bool {
	return prevText == expr.Text
}

func bindExpr(m *Model, expr Expr, pc ProverContext) sexpr.SExpr {
	switch expr.Kind {
	case ExprIdentifier:
		uname := expr.Text
		if resolved, ok := pc.UniqueName(expr.Text); ok {
			uname = resolved
		}
		if val, ok := m.GetModelValue(uname); ok {
			return val
		}
		return sexpr.Atom(expr.Text)
	case ExprLiteral:
		return sexpr.Atom(expr.Text)
	default:
		return sexpr.App(expr.Text)
	}
}
