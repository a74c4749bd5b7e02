package houdini_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcforge/houdini/internal/callgraph"
	"github.com/vcforge/houdini/internal/cex"
	"github.com/vcforge/houdini/internal/houdini"
	"github.com/vcforge/houdini/internal/prover"
)

type scriptedCall struct {
	outcome prover.Outcome
	cexes   []cex.Cex
}

// scriptedVerifier replays, per implementation, a fixed sequence of
// verify results, and reports a fixed unsat core per implementation.
type scriptedVerifier struct {
	script    map[string][]scriptedCall
	calls     map[string]int
	unsatCore map[string][]string
}

func newScriptedVerifier() *scriptedVerifier {
	return &scriptedVerifier{
		script:    map[string][]scriptedCall{},
		calls:     map[string]int{},
		unsatCore: map[string][]string{},
	}
}

func (v *scriptedVerifier) Verify(_ context.Context, impl string, _ houdini.Assignment) (prover.Outcome, []cex.Cex, error) {
	i := v.calls[impl]
	v.calls[impl] = i + 1
	seq := v.script[impl]
	if i >= len(seq) {
		return prover.Valid, nil, nil
	}
	return seq[i].outcome, seq[i].cexes, nil
}

func (v *scriptedVerifier) UnsatCore(impl string) ([]string, bool) {
	core, ok := v.unsatCore[impl]
	return core, ok
}

// identResolver treats every AssertCounterexample's ErrorData and every
// ReturnCounterexample's FailingEnsures/CallCounterexample's
// FailingRequires as a bare candidate name: the whole text becomes the
// antecedent identifier, with no consequent.
type identResolver struct{}

func (identResolver) FailingExpr(c cex.Cex) *houdini.Implication {
	var text string
	switch v := c.(type) {
	case *cex.AssertCounterexample:
		text = v.ErrorData
	case *cex.CallCounterexample:
		text = v.FailingRequires
	case *cex.ReturnCounterexample:
		text = v.FailingEnsures
	}
	if text == "" {
		return nil
	}
	return &houdini.Implication{AntecedentIdent: text}
}

func TestEngine_TrivialCandidateVerified(t *testing.T) {
	g := callgraph.New()
	g.AddNode("P")

	v := newScriptedVerifier()
	// No counterexamples at all: P verifies outright under c=true.
	v.script["P"] = []scriptedCall{{outcome: prover.Valid}}

	e := houdini.New(houdini.Config{
		Graph:      g,
		Verifier:   v,
		Resolver:   identResolver{},
		Candidates: houdini.StringSet{"c": true},
	})
	e.Initialize([]string{"P"}, nil, nil)

	out := e.Run(context.Background())
	require.True(t, out.Assignment["c"])
	require.Empty(t, out.Refutations)
}

func TestEngine_TriviallyRefutedCandidate(t *testing.T) {
	g := callgraph.New()
	g.AddNode("P")

	v := newScriptedVerifier()
	v.script["P"] = []scriptedCall{
		{outcome: prover.Invalid, cexes: []cex.Cex{cex.NewReturn(1, 0, nil, nil, "ret", "c")}},
		{outcome: prover.Valid},
	}

	e := houdini.New(houdini.Config{
		Graph:      g,
		Verifier:   v,
		Resolver:   identResolver{},
		Candidates: houdini.StringSet{"c": true},
	})
	e.Initialize([]string{"P"}, nil, nil)

	out := e.Run(context.Background())
	require.False(t, out.Assignment["c"])
	require.Len(t, out.Refutations, 1)
	require.Equal(t, houdini.AnnotationEnsures, out.Refutations[0].Kind)
}

func TestEngine_PropagationAcrossCaller(t *testing.T) {
	g := callgraph.New()
	g.AddEdge("A", "B")

	v := newScriptedVerifier()
	v.script["B"] = []scriptedCall{
		{outcome: prover.Invalid, cexes: []cex.Cex{cex.NewReturn(1, 0, nil, nil, "ret", "c")}},
		{outcome: prover.Valid},
	}
	v.script["A"] = []scriptedCall{{outcome: prover.Valid}}
	v.unsatCore["A"] = []string{"c"}

	e := houdini.New(houdini.Config{
		Graph:            g,
		Verifier:         v,
		Resolver:         identResolver{},
		Candidates:       houdini.StringSet{"c": true},
		UnsatCoreEnabled: true,
	})
	e.Initialize([]string{"A", "B"}, nil, nil)

	out := e.Run(context.Background())
	require.False(t, out.Assignment["c"])
	require.Equal(t, 1, v.calls["A"])
	require.Equal(t, 2, v.calls["B"])
}

func TestEngine_PropagationUnconditionalWhenUnsatCoreDisabled(t *testing.T) {
	g := callgraph.New()
	g.AddEdge("A", "B")

	v := newScriptedVerifier()
	v.script["B"] = []scriptedCall{
		{outcome: prover.Invalid, cexes: []cex.Cex{cex.NewReturn(1, 0, nil, nil, "ret", "c")}},
		{outcome: prover.Valid},
	}
	v.script["A"] = []scriptedCall{{outcome: prover.Valid}}
	// No entry in v.unsatCore["A"]: with UnsatCoreEnabled false (the
	// default), propagation must not depend on a core that was never
	// recorded.

	e := houdini.New(houdini.Config{
		Graph:      g,
		Verifier:   v,
		Resolver:   identResolver{},
		Candidates: houdini.StringSet{"c": true},
	})
	e.Initialize([]string{"A", "B"}, nil, nil)

	out := e.Run(context.Background())
	require.False(t, out.Assignment["c"])
	require.Equal(t, 1, v.calls["A"])
	require.Equal(t, 2, v.calls["B"])
}

func TestEngine_ResourceExhaustionDeniesAndFlipsAssertGuards(t *testing.T) {
	g := callgraph.New()
	g.AddNode("P")

	v := newScriptedVerifier()
	v.script["P"] = []scriptedCall{{outcome: prover.OutOfResource}}

	e := houdini.New(houdini.Config{
		Graph:                 g,
		Verifier:              v,
		Resolver:              identResolver{},
		Candidates:            houdini.StringSet{"c1": true, "c2": true},
		AssertGuardCandidates: map[string][]string{"P": {"c1", "c2"}},
	})
	e.Initialize([]string{"P"}, nil, nil)

	out := e.Run(context.Background())
	require.False(t, out.Assignment["c1"])
	require.False(t, out.Assignment["c2"])
	require.Equal(t, 1, v.calls["P"])
}

func TestEngine_GenuineErrorFlushesWorklist(t *testing.T) {
	g := callgraph.New()
	g.AddNode("P")
	g.AddNode("Q")

	v := newScriptedVerifier()
	// No candidate matches this ErrorData: a genuine failure.
	v.script["P"] = []scriptedCall{
		{outcome: prover.Invalid, cexes: []cex.Cex{cex.NewAssert(1, 0, nil, nil, "")}},
	}
	v.script["Q"] = []scriptedCall{{outcome: prover.Valid}}

	e := houdini.New(houdini.Config{
		Graph:      g,
		Verifier:   v,
		Resolver:   identResolver{},
		Candidates: houdini.StringSet{"c": true},
	})
	e.Initialize([]string{"P", "Q"}, nil, nil)

	out := e.Run(context.Background())
	require.Contains(t, out.ImplErrors, "P")
	// Q was drained from the worklist without ever being verified.
	require.Equal(t, 0, v.calls["Q"])
}
