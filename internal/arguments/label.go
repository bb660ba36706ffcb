// Package arguments infers a function's ABI argument-type list by tainting
// the CALLDATALOAD'd words after the selector and watching how the
// dispatcher unpacks them (masking, sign-extension, dynamic-length
// SHL/MUL patterns). Grounded on original_source/rust/src/arguments.rs —
// the only generation of this analysis retrieved in the example pack.
package arguments

type labelKind int

const (
	kindCallData labelKind = iota
	kindArg
	kindArgDynamicLength
	kindArgDynamic
	kindIsZeroResult
)

// Label is the argument-analysis taint. Off is the calldata byte offset of
// the argument slot this value traces back to; Dynamic marks it as an
// element of a dynamic array/bytes/string rather than a bare scalar.
type Label struct {
	Kind    labelKind
	Off     uint32
	Dynamic bool
}

func callDataLabel() Label                      { return Label{Kind: kindCallData} }
func argLabel(off uint32, dyn bool) Label        { return Label{Kind: kindArg, Off: off, Dynamic: dyn} }
func argDynLenLabel(off uint32) Label           { return Label{Kind: kindArgDynamicLength, Off: off} }
func argDynLabel(off uint32) Label              { return Label{Kind: kindArgDynamic, Off: off} }
func isZeroResultLabel(off uint32, dyn bool) Label {
	return Label{Kind: kindIsZeroResult, Off: off, Dynamic: dyn}
}
