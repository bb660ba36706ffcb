package mutability

import (
	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/symvm"
)

// calldataImpl exposes only the selector bytes (at offsets 0..4), always
// unlabeled: this analysis taints CALLVALUE, not calldata, so it only needs
// enough of the selector to let execute_until_function_start's EQ/XOR/SUB
// scan locate the target function. Grounded on
// state_mutability/calldata.rs's CallDataImpl.
type calldataImpl struct {
	selector [4]byte
}

func (c calldataImpl) Load32(offset *uint256.Int) symvm.Element[Label] {
	var data [32]byte
	if offset.LtUint64(4) {
		off := offset.Uint64()
		copy(data[:4-off], c.selector[off:])
	}
	return symvm.Element[Label]{Data: data}
}

func (c calldataImpl) Load(offset, size *uint256.Int) ([]byte, *Label, error) {
	n := size.Uint64()
	if n > 512 {
		n = 512
	}
	out := make([]byte, n)
	if offset.LtUint64(4) {
		off := offset.Uint64()
		nlen := uint64(len(out))
		if rem := 4 - off; rem < nlen {
			nlen = rem
		}
		copy(out[:nlen], c.selector[off:off+nlen])
	}
	return out, nil, nil
}

func (calldataImpl) Len() *uint256.Int { return uint256.NewInt(131072) }

func (c calldataImpl) Selector() [4]byte { return c.selector }
