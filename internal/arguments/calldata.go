package arguments

import (
	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/symvm"
)

// calldataImpl exposes only the selector word (at offset 0), labeled
// Label.CallData; every other offset reads as untagged zero so later
// argument-slot values get their Arg label purely from pointer arithmetic
// on offset literals, matching arguments.rs's Vm::new(code, Element{data:
// selector_word, label: Some(Label::CallData)}).
type calldataImpl struct {
	selector [4]byte
}

func (c calldataImpl) Load32(offset *uint256.Int) symvm.Element[Label] {
	if !offset.IsZero() {
		return symvm.Element[Label]{}
	}
	var data [32]byte
	copy(data[:4], c.selector[:])
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
		copy(out, c.selector[:])
	}
	return out, nil, nil
}

func (calldataImpl) Len() *uint256.Int { return uint256.NewInt(131072) }

func (c calldataImpl) Selector() [4]byte { return c.selector }
