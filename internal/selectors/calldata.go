package selectors

import (
	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/symvm"
)

// dummySelector is the fixed 4-byte value this analysis pretends the real
// calldata starts with. The exact bytes don't matter — only that the VM's
// first CALLDATALOAD(0) result is tagged Label.CallData and its selector
// bytes are recoverable for the equality checks below.
var dummySelector = [4]byte{0xaa, 0xbb, 0xcc, 0xdd}

// calldataImpl is a placeholder CallData[Label]: it answers CALLDATALOAD(0)
// with a labeled sentinel and reports a large length so length-guard
// branches degenerate, matching the sibling calldata shims in
// original_source (e.g. src/state_mutability/calldata.rs).
type calldataImpl struct{}

func (calldataImpl) Load32(offset *uint256.Int) symvm.Element[Label] {
	if !offset.IsZero() {
		return symvm.Element[Label]{}
	}
	var data [32]byte
	copy(data[:4], dummySelector[:])
	l := callDataLabel()
	return symvm.Element[Label]{Data: data, Label: &l}
}

func (c calldataImpl) Load(offset, size *uint256.Int) ([]byte, *Label, error) {
	n := size.Uint64()
	if n > 512 {
		n = 512
	}
	out := make([]byte, n)
	if offset.IsZero() {
		copy(out, dummySelector[:])
	}
	return out, nil, nil
}

func (calldataImpl) Len() *uint256.Int { return uint256.NewInt(131072) }

func (calldataImpl) Selector() [4]byte { return dummySelector }
