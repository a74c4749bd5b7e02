package cex

import "strings"

// Compare implements the total order from SPEC_FULL §4.E: first by
// Location, then elementwise by block-trace token position, then (for
// AssertCounterexample) by ErrorData. Returns <0, 0, >0 like strings.Compare.
func Compare(a, b Cex) int {
	if d := a.Location() - b.Location(); d != 0 {
		return d
	}
	ta, tb := blockTraceTokens(a), blockTraceTokens(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if c := strings.Compare(ta[i], tb[i]); c != 0 {
			return c
		}
	}
	if d := len(ta) - len(tb); d != 0 {
		return d
	}
	aa, aIsAssert := a.(*AssertCounterexample)
	ab, bIsAssert := b.(*AssertCounterexample)
	if aIsAssert && bIsAssert {
		return strings.Compare(aa.ErrorData, ab.ErrorData)
	}
	return 0
}

// Equal reports whether a and b are equal under Compare's total order.
func Equal(a, b Cex) bool {
	return Compare(a, b) == 0
}

// HashCode is the constant hash for any Cex value, per SPEC_FULL §4.E:
// containers relying on this hash must preserve insertion order rather
// than bucket by hash.
func HashCode(Cex) int { return 0 }

// SortByOrder sorts cexes in place according to Compare.
func SortByOrder(cexes []Cex) {
	// Insertion sort: counterexample lists in this system are small
	// (one per failing site within a single check), and the comparator
	// is the part under test, not the sort algorithm.
	for i := 1; i < len(cexes); i++ {
		for j := i; j > 0 && Compare(cexes[j-1], cexes[j]) > 0; j-- {
			cexes[j-1], cexes[j] = cexes[j], cexes[j-1]
		}
	}
}
