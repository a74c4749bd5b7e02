// Package prover implements the batch prover driver (SPEC_FULL §4.D): the
// fixed command sequence that checks one verification condition against a
// solver session and reduces the four-reply harvest to an Outcome.
package prover

import "strings"

// Outcome is the final verdict of one batch check.
type Outcome int

const (
	// Valid means the solver reported unsat on the negated VC: the
	// procedure verifies under the current assignment.
	Valid Outcome = iota
	// Invalid means the solver reported sat: a counterexample exists.
	Invalid
	// Undetermined means the solver answered unknown without a
	// recognized resource-related reason.
	Undetermined
	// TimedOut means the reason-unknown text named a time,
	// cancellation, or resource limit.
	TimedOut
	// OutOfMemory means the reason-unknown text named a memory limit.
	OutOfMemory
	// OutOfResource means the solver reported its configured resource
	// limit (e.g. Z3 rlimit ticks) exhausted.
	OutOfResource
	// SolverException means the solver returned an unrecognized or hard
	// error reply in place of sat/unsat/unknown.
	SolverException
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "Valid"
	case Invalid:
		return "Invalid"
	case Undetermined:
		return "Undetermined"
	case TimedOut:
		return "TimedOut"
	case OutOfMemory:
		return "OutOfMemory"
	case OutOfResource:
		return "OutOfResource"
	case SolverException:
		return "SolverException"
	default:
		return "Unknown"
	}
}

// refineReasonUnknown maps reason-unknown text fragments onto a refined
// outcome, per SPEC_FULL §4.D. Unrecognized text leaves Undetermined.
func refineReasonUnknown(reason string) Outcome {
	switch {
	case containsAny(reason, "timeout", "canceled", "resource limit"):
		return TimedOut
	case containsAny(reason, "memout"):
		return OutOfMemory
	default:
		return Undetermined
	}
}

func containsAny(s string, frags ...string) bool {
	for _, f := range frags {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
