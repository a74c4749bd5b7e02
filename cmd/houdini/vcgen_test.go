package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcforge/houdini/internal/sexpr"
)

func TestControlFlowPath_WalksFixedProcedureAcrossSuccessiveBlocks(t *testing.T) {
	// (define-fun ControlFlow ((k Int) (v Int)) Int
	//   (ite (= k 3) (ite (= v 0) 7 (ite (= v 7) Block42 0)) 0))
	//
	// controlFlowConstant (the procedure id) stays fixed at 3 for the
	// whole walk; each step looks up the *next* v for the same k, per
	// spec.md §4.D: ControlFlow(3,0)=7, then ControlFlow(3,7)=Block42.
	model := sexpr.App("model",
		sexpr.App("define-fun",
			sexpr.Atom("ControlFlow"),
			sexpr.App("",
				sexpr.App("k", sexpr.Atom("Int")),
				sexpr.App("v", sexpr.Atom("Int")),
			),
			sexpr.Atom("Int"),
			sexpr.App("ite",
				sexpr.App("=", sexpr.Atom("k"), sexpr.Atom("3")),
				sexpr.App("ite",
					sexpr.App("=", sexpr.Atom("v"), sexpr.Atom("0")),
					sexpr.Atom("7"),
					sexpr.App("ite",
						sexpr.App("=", sexpr.Atom("v"), sexpr.Atom("7")),
						sexpr.Atom("Block42"),
						sexpr.Atom("0"),
					),
				),
				sexpr.Atom("0"),
			),
		),
	)

	path, err := controlFlowPath(model, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"7", "Block42"}, path)
}

func TestControlFlowPath_MissingFunctionErrors(t *testing.T) {
	model := sexpr.App("model")
	_, err := controlFlowPath(model, 0)
	require.Error(t, err)
}

func TestSplitLines_DropsBlankLines(t *testing.T) {
	lines := splitLines("(a)\n\n(b)\n  \n(c)")
	require.Equal(t, []string{"(a)", "(b)", "(c)"}, lines)
}
