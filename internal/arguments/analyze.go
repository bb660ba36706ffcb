package arguments

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/opcodes"
	"github.com/cdump/evmole/internal/symvm"
)

// argsResult accumulates one ABI type string per argument offset, plus the
// set of offsets definitively ruled out as bool. Grounded on
// arguments.rs's ArgsResult.
type argsResult struct {
	order   []uint32
	args    map[uint32]string
	notBool map[uint32]bool
}

func newArgsResult() *argsResult {
	return &argsResult{args: make(map[uint32]string), notBool: make(map[uint32]bool)}
}

func (r *argsResult) set(off uint32, atype string) {
	if _, ok := r.args[off]; !ok {
		r.order = append(r.order, off)
	}
	r.args[off] = atype
}

// setIf overwrites the type at off only if it currently equals ifVal (used
// to let a later, more specific rule refine an earlier generic guess). If
// the offset wasn't seen yet, it is reserved with an empty placeholder type
// only when atype is empty; otherwise nothing is recorded.
func (r *argsResult) setIf(off uint32, ifVal, atype string) {
	if v, ok := r.args[off]; ok {
		if v == ifVal {
			r.args[off] = atype
		}
		return
	}
	if atype == "" {
		r.set(off, "")
	}
}

func (r *argsResult) markNotBool(off uint32) {
	r.notBool[off] = true
	r.setIf(off, "bool", "")
}

// joinToString renders the accumulated types in ascending offset order,
// matching the original's BTreeMap<u32,String> iteration order rather than
// first-touch insertion order.
func (r *argsResult) joinToString() string {
	offsets := append([]uint32(nil), r.order...)
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	out := ""
	for i, off := range offsets {
		t := r.args[off]
		if t == "" {
			t = "uint256"
		}
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

var (
	val1B      = oneBytes()
	val2B      = uintBytes(2)
	val4B      = uintBytes(4)
	val5B      = uintBytes(5)
	val32B     = uintBytes(32)
	val131072B = uintBytes(131072)
)

func oneBytes() [32]byte { return uintBytes(1) }

func uintBytes(v uint64) [32]byte {
	return uint256.NewInt(v).Bytes32()
}

func labelOf(e *symvm.Element[Label]) *Label {
	if e == nil {
		return nil
	}
	return e.Label
}

// analyze mutates the VM's stack top in response to one StepResult,
// following the argument-unpacking idioms listed in arguments.rs's
// analyze(). Only called once the scan is past the selector dispatch and
// inside the target function's body.
func analyze(vm *symvm.VM[Label], args *argsResult, ret symvm.StepResult[Label]) error {
	fa, sa := labelOf(ret.FA), labelOf(ret.SA)

	switch ret.Op {
	case opcodes.CALLDATASIZE:
		top, err := vm.Stack.Top()
		if err != nil {
			return err
		}
		top.Data = val131072B

	case opcodes.CALLDATALOAD:
		switch {
		case fa != nil && fa.Kind == kindArg:
			args.set(fa.Off, "bytes")
			top, err := vm.Stack.Top()
			if err != nil {
				return err
			}
			l := argDynLenLabel(fa.Off)
			*top = symvm.Element[Label]{Data: val1B, Label: &l}

		case fa != nil && fa.Kind == kindArgDynamic:
			top, err := vm.Stack.Top()
			if err != nil {
				return err
			}
			l := argLabel(fa.Off, true)
			*top = symvm.Element[Label]{Label: &l}

		default:
			if ret.FA == nil {
				return nil
			}
			v := ret.FA.Int()
			if !v.IsUint64() {
				return nil
			}
			off := v.Uint64()
			if off >= 4 && off < 131072-1024 {
				top, err := vm.Stack.Top()
				if err != nil {
					return err
				}
				l := argLabel(uint32(off), false)
				*top = symvm.Element[Label]{Label: &l}
				args.setIf(uint32(off), "", "")
			}
		}

	case opcodes.ADD:
		var off uint32
		var ot *symvm.Element[Label]
		switch {
		case fa != nil && fa.Kind == kindArg:
			off, ot = fa.Off, ret.SA
		case sa != nil && sa.Kind == kindArg:
			off, ot = sa.Off, ret.FA
		case fa != nil && fa.Kind == kindArgDynamic:
			off = fa.Off
		case sa != nil && sa.Kind == kindArgDynamic:
			off = sa.Off
		default:
			return nil
		}
		top, err := vm.Stack.Top()
		if err != nil {
			return err
		}
		if ot != nil {
			var l Label
			if ot.Data == val4B {
				l = argLabel(off, false)
			} else {
				l = argDynLabel(off)
			}
			top.Label = &l
			args.markNotBool(off)
		} else {
			l := argDynLabel(off)
			top.Label = &l
		}

	case opcodes.SHL:
		if sa == nil || sa.Kind != kindArgDynamicLength || ret.FA == nil {
			return nil
		}
		switch ret.FA.Data {
		case val5B:
			args.set(sa.Off, "uint256[]")
		case val1B:
			args.set(sa.Off, "string")
		}

	case opcodes.MUL:
		var off uint32
		var ot *symvm.Element[Label]
		switch {
		case fa != nil && fa.Kind == kindArgDynamicLength:
			off, ot = fa.Off, ret.SA
		case sa != nil && sa.Kind == kindArgDynamicLength:
			off, ot = sa.Off, ret.FA
		case fa != nil && fa.Kind == kindArg:
			args.markNotBool(fa.Off)
			return nil
		case sa != nil && sa.Kind == kindArg:
			args.markNotBool(sa.Off)
			return nil
		default:
			return nil
		}
		if ot == nil {
			return nil
		}
		switch ot.Data {
		case val32B:
			args.set(off, "uint256[]")
		case val2B:
			args.set(off, "string")
		}
		if ot.Label != nil && ot.Label.Kind == kindArg {
			args.markNotBool(ot.Label.Off)
		}

	case opcodes.LT, opcodes.GT:
		if fa != nil && fa.Kind == kindArg {
			args.markNotBool(fa.Off)
		} else if sa != nil && sa.Kind == kindArg {
			args.markNotBool(sa.Off)
		}

	case opcodes.AND:
		var off uint32
		var dynamic bool
		var ot *symvm.Element[Label]
		switch {
		case fa != nil && fa.Kind == kindArg:
			off, dynamic, ot = fa.Off, fa.Dynamic, ret.SA
		case sa != nil && sa.Kind == kindArg:
			off, dynamic, ot = sa.Off, sa.Dynamic, ret.FA
		default:
			return nil
		}
		if ot == nil {
			return nil
		}
		applyAndMask(args, off, dynamic, ot.Data)

	case opcodes.ISZERO:
		if fa == nil {
			return nil
		}
		switch fa.Kind {
		case kindArg:
			top, err := vm.Stack.Top()
			if err != nil {
				return err
			}
			l := isZeroResultLabel(fa.Off, fa.Dynamic)
			top.Label = &l

		case kindIsZeroResult:
			off, dynamic := fa.Off, fa.Dynamic
			isBool := true
			if vm.PC < len(vm.Code) {
				op := opcodes.OpCode(vm.Code[vm.PC])
				if op >= opcodes.PUSH1 && op <= opcodes.PUSH4 {
					n := op.PushSize()
					if vm.PC+n+1 < len(vm.Code) && opcodes.OpCode(vm.Code[vm.PC+n+1]) == opcodes.JUMPI {
						var argb [4]byte
						copy(argb[4-n:], vm.Code[vm.PC+1:vm.PC+1+n])
						jumpdest := int(uint32(argb[0])<<24 | uint32(argb[1])<<16 | uint32(argb[2])<<8 | uint32(argb[3]))
						if jumpdest+1 < len(vm.Code) &&
							opcodes.OpCode(vm.Code[jumpdest]) == opcodes.JUMPDEST &&
							opcodes.OpCode(vm.Code[jumpdest+1]) == opcodes.DIV {
							isBool = false
						}
					}
				}
			}
			if isBool {
				if dynamic {
					args.set(off, "bool[]")
				} else if !args.notBool[off] {
					args.set(off, "bool")
				}
			}
		}

	case opcodes.SIGNEXTEND:
		if sa == nil || sa.Kind != kindArg || ret.FA == nil {
			return nil
		}
		if lessThan32(ret.FA.Data) {
			n := ret.FA.Data[31]
			suffix := ""
			if sa.Dynamic {
				suffix = "[]"
			}
			args.set(sa.Off, fmt.Sprintf("int%d%s", (int(n)+1)*8, suffix))
		}

	case opcodes.BYTE:
		if sa == nil || sa.Kind != kindArg {
			return nil
		}
		args.setIf(sa.Off, "", "bytes32")
	}

	return nil
}

func lessThan32(data [32]byte) bool {
	for i := 0; i < 31; i++ {
		if data[i] != 0 {
			return false
		}
	}
	return data[31] < 32
}

// applyAndMask recovers an ABI type from a bitmask AND'd against an
// argument value: a right-aligned run of one-bits means address/uintN (or
// their array forms), a left-aligned run (checked by byte-reversing)
// means bytesN.
func applyAndMask(args *argsResult, off uint32, dynamic bool, mask [32]byte) {
	v := new(uint256.Int).SetBytes32(mask[:])
	if v.IsZero() {
		return
	}
	one := uint256.NewInt(1)
	if isContiguousOnes(v, one) {
		bl := v.BitLen()
		if bl%8 == 0 {
			t := fmt.Sprintf("uint%d", bl)
			if bl == 160 {
				t = "address"
			}
			if dynamic {
				t += "[]"
			}
			args.set(off, t)
		}
		return
	}
	var rev [32]byte
	for i := range mask {
		rev[i] = mask[31-i]
	}
	v2 := new(uint256.Int).SetBytes32(rev[:])
	if isContiguousOnes(v2, one) {
		bl := v2.BitLen()
		if bl%8 == 0 {
			t := fmt.Sprintf("bytes%d", bl/8)
			if dynamic {
				t += "[]"
			}
			args.set(off, t)
		}
	}
}

func isContiguousOnes(v, one *uint256.Int) bool {
	plus1 := new(uint256.Int).Add(v, one)
	return new(uint256.Int).And(v, plus1).IsZero()
}
