// Package mutability infers a function's state mutability (payable,
// non-payable, view, pure) by forcing CALLVALUE and watching whether the
// dispatcher reverts on a nonzero-value check, then bounding a recursive
// JUMPI-fork walk by an opcode's presence in fixed not-view/not-pure tables.
// Grounded on original_source/src/state_mutability/mod.rs.
package mutability

type labelKind int

const (
	kindCallValue labelKind = iota
	kindIsZero
)

// Label is the state-mutability taint: either "this value came from
// CALLVALUE" or "this value is the result of ISZERO'ing a CallValue-tainted
// value".
type Label struct {
	Kind labelKind
}

func callValueLabel() Label { return Label{Kind: kindCallValue} }
func isZeroLabel() Label    { return Label{Kind: kindIsZero} }

func is(l *Label, k labelKind) bool { return l != nil && l.Kind == k }
