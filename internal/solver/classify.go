package solver

import (
	"strings"

	"github.com/vcforge/houdini/internal/sexpr"
)

// ReplyKind is the high-level category a parsed SExpr reply classifies to.
type ReplyKind int

const (
	// ReplyOK carries a reply to be handed to the awaiting caller.
	ReplyOK ReplyKind = iota
	// ReplySwallowed indicates the classifier consumed the reply itself
	// (progress statistics, unsupported notices); await-response loops.
	ReplySwallowed
	// ReplySoftNull indicates a benign error; await-response returns null.
	ReplySoftNull
	// ReplyError indicates a hard solver error.
	ReplyError
)

// Classification is the result of classifying one parsed SExpr.
type Classification struct {
	Kind  ReplyKind
	Value sexpr.SExpr
	Err   error
}

// softErrorFragments are textual patterns inside an `(error "...")` reply
// that indicate a benign condition: treat as "no reply" rather than a hard
// failure.
var softErrorFragments = []string{
	"model is not available",
	"context is unsatisfiable",
	"Cannot get model",
	"last result wasn't unknown",
}

const resourceLimitFragment = "max. resource limit exceeded"

// Inspector receives statistics lines extracted from `(progress ...)`
// replies, in the textual forms described by SPEC_FULL §6.
type Inspector interface {
	Stat(line string)
}

// NopInspector discards all statistics.
type NopInspector struct{}

// Stat implements Inspector.
func (NopInspector) Stat(string) {}

// Classify implements component C: translate a parsed SExpr into a reply
// category per the table in spec.md §4.C, forwarding progress statistics
// to insp as a side effect.
func Classify(resp sexpr.SExpr, insp Inspector) Classification {
	if insp == nil {
		insp = NopInspector{}
	}

	switch resp.Name {
	case "error":
		return classifyError(resp)
	case "progress":
		forwardProgress(resp, insp)
		return Classification{Kind: ReplySwallowed}
	case "unsupported":
		return Classification{Kind: ReplySwallowed}
	default:
		return Classification{Kind: ReplyOK, Value: resp}
	}
}

func classifyError(resp sexpr.SExpr) Classification {
	msg := errorMessage(resp)

	if strings.Contains(msg, resourceLimitFragment) {
		// Propagates to the outcome parser as an ok() reply: the batch
		// driver's outcome table treats this specific error specially.
		return Classification{Kind: ReplyOK, Value: resp}
	}
	for _, frag := range softErrorFragments {
		if strings.Contains(msg, frag) {
			return Classification{Kind: ReplySoftNull}
		}
	}
	return Classification{
		Kind: ReplyError,
		Err:  &HardSolverError{Message: msg},
	}
}

// errorMessage extracts the diagnostic text from an `(error ...)` reply:
// the first argument if it is a bare identifier, otherwise the stringified
// form of the whole reply.
func errorMessage(resp sexpr.SExpr) string {
	if len(resp.Args) > 0 && resp.Args[0].IsID() {
		return resp.Args[0].Name
	}
	return resp.String()
}

// forwardProgress emits one inspector statistics line per argument of a
// `(progress ...)` reply, per the rules in spec.md §4.C.
func forwardProgress(resp sexpr.SExpr, insp Inspector) {
	for _, arg := range resp.Args {
		switch {
		case arg.Name == "labels":
			insp.Stat("STATS LABELS " + childNames(arg))
		case strings.HasPrefix(arg.Name, ":"):
			insp.Stat("STATS NAMED_VALUES " + arg.Name + " " + childNames(arg))
		}
	}
}

func childNames(e sexpr.SExpr) string {
	names := make([]string, len(e.Args))
	for i, c := range e.Args {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

// IsResourceLimitError reports whether resp is the specific `(error ...)`
// reply that signals the solver exhausted its configured resource limit.
func IsResourceLimitError(resp sexpr.SExpr) bool {
	return resp.Name == "error" && strings.Contains(errorMessage(resp), resourceLimitFragment)
}
