// Package selectors implements function-selector discovery: walking a
// contract's dispatcher code while tainting the value derived from
// CALLDATALOAD(0) and watching for the comparisons and jump-table patterns
// real compilers emit. Grounded on original_source/src/selectors/mod.rs.
package selectors

// labelKind is the closed set of taints this analysis tracks (spec.md §4.4).
type labelKind int

const (
	kindCallData labelKind = iota
	kindSignature
	kindMulSig
	kindSelCmp
)

// Label is the selector-analysis taint: most variants carry no payload,
// SelCmp additionally remembers which 4-byte selector the comparison it
// originated from was checking.
type Label struct {
	Kind labelKind
	Sel  [4]byte
}

func callDataLabel() Label        { return Label{Kind: kindCallData} }
func signatureLabel() Label       { return Label{Kind: kindSignature} }
func mulSigLabel() Label          { return Label{Kind: kindMulSig} }
func selCmpLabel(sel [4]byte) Label { return Label{Kind: kindSelCmp, Sel: sel} }

func is(l *Label, k labelKind) bool { return l != nil && l.Kind == k }
