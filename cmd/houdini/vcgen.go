package main

import (
	"fmt"

	"github.com/vcforge/houdini/internal/sexpr"
)

// staticVCGenerator implements prover.VCGenerator over text already
// produced by an external VC generator (spec.md §2: VC generation
// itself is out of scope). The preamble and VC expression are fixed at
// construction time; only control-flow path extraction does any real
// work, walking the solver's `ControlFlow` model function.
type staticVCGenerator struct {
	preamble []string
	vc       string
}

func (g *staticVCGenerator) SetupAxiomBuilder() {}
func (g *staticVCGenerator) PrepareCommon()     {}

func (g *staticVCGenerator) FlushAxioms() []string {
	return g.preamble
}

func (g *staticVCGenerator) VCExprToString(indent int) string {
	return g.vc
}

func (g *staticVCGenerator) CalculatePath(controlFlowConstant int, model sexpr.SExpr) ([]string, error) {
	if controlFlowTable(model) == nil {
		return nil, nil
	}
	return controlFlowPath(model, controlFlowConstant)
}

// controlFlowPath walks a model's `ControlFlow` binary function from
// (controlFlowConstant, 0), following successive "next block" bindings
// until the table has no entry for the current pair, per spec.md §4.D's
// control-flow path extraction. The walk also stops at the first
// repeated (k, v) pair, so a cyclic ControlFlow table ends it; the
// caller (prover.Driver) additionally caps the resulting path length.
func controlFlowPath(model sexpr.SExpr, controlFlowConstant int) ([]string, error) {
	table := controlFlowTable(model)
	if table == nil {
		return nil, fmt.Errorf("houdini: model has no ControlFlow function")
	}

	var path []string
	k := fmt.Sprintf("%d", controlFlowConstant)
	v := "0"
	seen := make(map[string]bool)
	for {
		key := k + "," + v
		if seen[key] {
			break
		}
		seen[key] = true
		next, ok := table[key]
		if !ok {
			break
		}
		path = append(path, next)
		v = next
	}
	return path, nil
}

// controlFlowTable flattens the nested
// `(define-fun ControlFlow ((k Int) (v Int)) Int (ite (= k K) (ite (= v V) NEXT ...) ...))`
// shape into a {"k,v": next} lookup table, mirroring the ite-chain
// flattening internal/cex uses for unary model functions but over a
// two-argument function.
func controlFlowTable(model sexpr.SExpr) map[string]string {
	for _, def := range model.Args {
		if def.Name != "define-fun" || len(def.Args) != 4 {
			continue
		}
		name, params := def.Args[0], def.Args[1]
		if name.Name != "ControlFlow" || len(params.Args) != 2 {
			continue
		}
		kName := paramName(params.Args[0])
		vName := paramName(params.Args[1])
		if kName == "" || vName == "" {
			continue
		}
		return outerIteChain(kName, vName, def.Args[3])
	}
	return nil
}

func paramName(param sexpr.SExpr) string {
	if len(param.Args) == 0 {
		return ""
	}
	return param.Name
}

func outerIteChain(kName, vName string, body sexpr.SExpr) map[string]string {
	table := make(map[string]string)
	for body.Name == "ite" && len(body.Args) == 3 {
		cond, then, rest := body.Args[0], body.Args[1], body.Args[2]
		if cond.Name == "=" && len(cond.Args) == 2 && cond.Args[0].Name == kName {
			k := cond.Args[1].Name
			for v, next := range innerIteChain(vName, then) {
				table[k+","+v] = next
			}
		}
		body = rest
	}
	return table
}

func innerIteChain(vName string, body sexpr.SExpr) map[string]string {
	table := make(map[string]string)
	for body.Name == "ite" && len(body.Args) == 3 {
		cond, then, rest := body.Args[0], body.Args[1], body.Args[2]
		if cond.Name == "=" && len(cond.Args) == 2 && cond.Args[0].Name == vName {
			table[cond.Args[1].Name] = then.Name
		}
		body = rest
	}
	return table
}
