// Package houdini implements the candidate-invariant inference loop
// (SPEC_FULL §4.F): a monotone fixed-point algorithm over existentially
// quantified boolean candidate constants guarding optional pre/post
// conditions and assertions.
package houdini

import "github.com/vcforge/houdini/internal/prover"

// AnnotationKind names the syntactic position a refuted annotation guards.
type AnnotationKind int

const (
	AnnotationRequires AnnotationKind = iota
	AnnotationEnsures
	AnnotationAssert
)

func (k AnnotationKind) String() string {
	switch k {
	case AnnotationRequires:
		return "REQUIRES"
	case AnnotationEnsures:
		return "ENSURES"
	case AnnotationAssert:
		return "ASSERT"
	default:
		return "UNKNOWN"
	}
}

// RefutedAnnotation is a witness that setting Constant to true makes a
// specific pre/post/assert fail. Two refutations are equal iff every
// field matches.
type RefutedAnnotation struct {
	Constant string
	Kind     AnnotationKind
	Site     string
	Callee   string // only meaningful for AnnotationRequires
}

// Assignment maps candidate name to its current truth value. Only ever
// mutated true -> false (SPEC_FULL invariant 1, assignment monotonicity).
type Assignment map[string]bool

// Clone returns an independent copy.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// CrossDependencies maps a candidate name to the set of implementations
// whose assume commands mention it, populated once during initialization
// when cross-dependency analysis is enabled.
type CrossDependencies map[string]map[string]bool

// Add records that impl's assume list mentions candidate.
func (c CrossDependencies) Add(candidate, impl string) {
	set, ok := c[candidate]
	if !ok {
		set = make(map[string]bool)
		c[candidate] = set
	}
	set[impl] = true
}

// Implementations returns the set of implementations that assume
// candidate, as a slice in indeterminate order.
func (c CrossDependencies) Implementations(candidate string) []string {
	set := c[candidate]
	out := make([]string, 0, len(set))
	for impl := range set {
		out = append(out, impl)
	}
	return out
}

// RunOutcome is the accumulated result of a full Houdini run: the final
// assignment, every refutation applied along the way, and any genuine
// (non-refutation) errors recorded per implementation.
type RunOutcome struct {
	Assignment    Assignment
	Refutations   []RefutedAnnotation
	ImplErrors    map[string][]error
	ImplOutcomes  map[string]prover.Outcome
	VCGenFailures map[string]error
}
