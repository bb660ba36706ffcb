package selectors

import (
	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/opcodes"
	"github.com/cdump/evmole/internal/symvm"
)

// defaultGasLimit mirrors function_selectors' 5e5 default when the caller
// passes 0.
const defaultGasLimit = 500_000

var valFFFFFFFF = [32]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff,
}

func selectorOf(data [32]byte) [4]byte {
	var s [4]byte
	copy(s[:], data[28:32])
	return s
}

func labelOf(e *symvm.Element[Label]) *Label {
	if e == nil {
		return nil
	}
	return e.Label
}

// analyze inspects one StepResult and mutates the VM's stack top in place
// when it recognizes one of the dispatcher idioms below. The returned int
// is a "fork fan-out": 0 means no fork is needed, n>0 means the caller
// should explore stack-top values 1..n-1 in forked VMs (the MOD/AND
// bucket-table pattern, and the LT/GT blind spot, both need this).
//
// Grounded on original_source/src/selectors/mod.rs's analyze().
func analyze(vm *symvm.VM[Label], selectors map[[4]byte]int, ret symvm.StepResult[Label]) (int, error) {
	fa, sa := labelOf(ret.FA), labelOf(ret.SA)

	switch ret.Op {
	case opcodes.XOR, opcodes.EQ, opcodes.SUB:
		var other *symvm.Element[Label]
		switch {
		case is(fa, kindSignature):
			other = ret.SA
		case is(sa, kindSignature):
			other = ret.FA
		default:
			return 0, nil
		}
		if other == nil {
			return 0, nil
		}
		sel := selectorOf(other.Data)
		top, err := vm.Stack.Top()
		if err != nil {
			return 0, err
		}
		if ret.Op == opcodes.EQ {
			top.Data = [32]byte{}
		} else {
			top.Data = oneBytes()
		}
		lbl := selCmpLabel(sel)
		top.Label = &lbl
		return 0, nil

	case opcodes.JUMPI:
		if ret.FA == nil || sa == nil || sa.Kind != kindSelCmp {
			return 0, nil
		}
		pc := int(ret.FA.Int().Uint64())
		selectors[sa.Sel] = pc
		return 0, nil

	case opcodes.LT, opcodes.GT:
		if !(is(fa, kindSignature) || is(sa, kindSignature)) {
			return 0, nil
		}
		top, err := vm.Stack.Top()
		if err != nil {
			return 0, err
		}
		top.Data = [32]byte{}
		return 2, nil

	case opcodes.MUL:
		if !(is(fa, kindSignature) || is(sa, kindSignature)) {
			return 0, nil
		}
		top, err := vm.Stack.Top()
		if err != nil {
			return 0, err
		}
		lbl := mulSigLabel()
		top.Label = &lbl
		return 0, nil

	case opcodes.SHR:
		if is(sa, kindMulSig) {
			top, err := vm.Stack.Top()
			if err != nil {
				return 0, err
			}
			lbl := mulSigLabel()
			top.Label = &lbl
			return 0, nil
		}
		if is(sa, kindCallData) {
			return 0, tagIfSelector(vm, signatureLabel())
		}
		return 0, nil

	case opcodes.MOD:
		if !(is(fa, kindMulSig) || is(fa, kindSignature)) {
			return 0, nil
		}
		return bucketFork(vm, ret.SA, false)

	case opcodes.AND:
		switch {
		case is(fa, kindSignature):
			return bucketFork(vm, ret.SA, true)
		case is(sa, kindSignature):
			return bucketFork(vm, ret.FA, true)
		case is(fa, kindCallData), is(sa, kindCallData):
			top, err := vm.Stack.Top()
			if err != nil {
				return 0, err
			}
			lbl := callDataLabel()
			top.Label = &lbl
			return 0, nil
		}
		return 0, nil

	case opcodes.DIV:
		if !is(fa, kindCallData) {
			return 0, nil
		}
		return 0, tagIfSelector(vm, signatureLabel())

	case opcodes.ISZERO:
		if fa == nil {
			return 0, nil
		}
		top, err := vm.Stack.Top()
		if err != nil {
			return 0, err
		}
		switch fa.Kind {
		case kindSelCmp:
			lbl := selCmpLabel(fa.Sel)
			top.Label = &lbl
		case kindSignature:
			lbl := selCmpLabel([4]byte{})
			top.Label = &lbl
		}
		return 0, nil

	case opcodes.MLOAD:
		if ret.MemoryLoad == nil {
			return 0, nil
		}
		for _, l := range ret.MemoryLoad.Labels {
			if l.Kind == kindCallData {
				return 0, tagIfSelector(vm, signatureLabel())
			}
		}
		return 0, nil

	case opcodes.GAS:
		vm.Stopped = true
		return 0, nil

	default:
		return 0, nil
	}
}

// tagIfSelector labels the (already pushed) stack top with lbl if its low
// 4 bytes match the calldata's real selector.
func tagIfSelector(vm *symvm.VM[Label], lbl Label) error {
	top, err := vm.Stack.Top()
	if err != nil {
		return err
	}
	if selectorOf(top.Data) == vm.Calldata.Selector() {
		top.Label = &lbl
	}
	return nil
}

// bucketFork implements the Vyper dense/sparse selector-table pattern: `sig
// MOD n_buckets` or `sig AND (n_buckets-1)`. If the other operand is the
// literal 0xffffffff mask, the value is still a full signature (re-tag and
// continue); if it's a small constant, the value could be any of 1..fan-out
// bucket indices, so the caller explores each by forking.
func bucketFork(vm *symvm.VM[Label], other *symvm.Element[Label], isAnd bool) (int, error) {
	if other == nil {
		return 0, nil
	}
	top, err := vm.Stack.Top()
	if err != nil {
		return 0, err
	}
	if isAnd && other.Data == valFFFFFFFF {
		lbl := signatureLabel()
		top.Label = &lbl
		return 0, nil
	}
	v := new(uint256.Int).SetBytes32(other.Data[:])
	if !v.IsUint64() || v.Uint64() == 0 || v.Uint64() > 255 {
		return 0, nil
	}
	n := int(v.Uint64())
	to := n
	if isAnd {
		to = n + 1
	}
	top.Data = [32]byte{}
	top.Label = nil
	return to, nil
}

func oneBytes() [32]byte {
	var b [32]byte
	b[31] = 1
	return b
}
