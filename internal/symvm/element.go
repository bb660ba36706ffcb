// Package symvm implements the symbolic EVM: a non-stateful interpreter
// where every stack and memory slot carries a concrete 32-byte value plus
// an optional domain-specific label tainting its derivation. It is
// parametric in the label alphabet L, which each analysis (selectors,
// arguments, mutability) instantiates with its own closed set of tags.
//
// Grounded on original_source/src/evm/vm.rs (the Rust symbolic Vm<T,U>) and
// styled after the teacher's core/vm package (error taxonomy, Stack/Memory
// method names), but the semantics are the spec's analysis VM, not a
// stateful chain-executing EVM.
package symvm

import "github.com/holiman/uint256"

// Element is a labeled 32-byte big-endian word. The label, when present,
// describes how the value was derived, not its numeric content.
type Element[L any] struct {
	Data  [32]byte
	Label *L
}

// Int returns the value as a *uint256.Int.
func (e Element[L]) Int() *uint256.Int {
	return new(uint256.Int).SetBytes32(e.Data[:])
}

// FromInt builds an Element from a uint256 value and an optional label.
func FromInt[L any](v *uint256.Int, label *L) Element[L] {
	b := v.Bytes32()
	return Element[L]{Data: b, Label: label}
}

// WithLabel returns a copy of e carrying the given label.
func (e Element[L]) WithLabel(label L) Element[L] {
	e.Label = &label
	return e
}

// Load returns size bytes of e's big-endian representation starting at
// offset, zero-padded, preserving e's label. Mirrors
// original_source/src/utils.rs `Element::load`.
func (e Element[L]) Load(offset uint64, size int) Element[L] {
	var out [32]byte
	if offset < 32 {
		to := offset + uint64(size)
		if to > 32 {
			to = 32
		}
		copy(out[0:to-offset], e.Data[offset:to])
	}
	return Element[L]{Data: out, Label: e.Label}
}
