package symvm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/opcodes"
)

// MemLoad captures the byte-range and label provenance of an MLOAD or MCOPY,
// for analyses that need to taint a loaded value by what produced the bytes
// it was assembled from (spec.md §3, §4.2).
type MemLoad[L comparable] struct {
	Offset uint64
	Size   uint64
	Labels []L
}

// StepResult is the outcome of one VM.Step call: the opcode executed, an
// approximate gas cost, and the pre-pop operands an analysis may want to
// pattern-match on. FA/SA mirror the Rust Vm's StepResult.args[0]/args[1]:
// the top and second-from-top stack slots *consumed* by this instruction,
// captured before they were popped so their labels survive. Deeper
// consumers (MULMOD/ADDMOD's third operand, CALL's operand list, LOG
// topics) land in ExArgs.
type StepResult[L comparable] struct {
	Op         opcodes.OpCode
	PC         int
	GasUsed    uint64
	FA         *Element[L]
	SA         *Element[L]
	ExArgs     []Element[L]
	MemoryLoad *MemLoad[L]
}

// VM is the symbolic interpreter, generic over the label alphabet L and
// backed by a pluggable CallData[L] implementation. Grounded on
// original_source/src/evm/vm.rs (Vm<'a,T,U>) and styled after the teacher's
// core/vm.EVM (Step-at-a-time loop, Config-free since there is no gas
// metering or call depth to configure here).
type VM[L comparable] struct {
	Code     []byte
	PC       int
	Stack    *Stack[L]
	Memory   *Memory[L]
	Calldata CallData[L]
	Stopped  bool
}

// New returns a fresh VM over the given immutable code slice and calldata.
func New[L comparable](code []byte, calldata CallData[L]) *VM[L] {
	return &VM[L]{
		Code:     code,
		Stack:    NewStack[L](),
		Memory:   NewMemory[L](),
		Calldata: calldata,
	}
}

// Fork deep-clones the VM's mutable state (stack, memory); the code slice
// and calldata implementation are shared, matching spec.md §4.2: "fork()
// clones the entire VM state (code reference is shared)."
func (vm *VM[L]) Fork() *VM[L] {
	return &VM[L]{
		Code:     vm.Code,
		PC:       vm.PC,
		Stack:    vm.Stack.Clone(),
		Memory:   vm.Memory.Clone(),
		Calldata: vm.Calldata,
		Stopped:  vm.Stopped,
	}
}

var (
	sentinel1    = uint256.NewInt(1)
	sentinel1024 = uint256.NewInt(1024)
	sentinel1M   = uint256.NewInt(1_000_000)
)

func push0[L comparable](vm *VM[L]) error { return vm.Stack.Push(Element[L]{}) }

func pushU256[L comparable](vm *VM[L], v *uint256.Int) error {
	return vm.Stack.Push(FromInt[L](v, nil))
}

// gasFor is an approximate, monotonic gas cost per opcode: spec.md §4.2
// states the gas model is "approximate; intended to bound worst-case
// divergence, not to mirror real gas." PUSH/DUP/SWAP/arithmetic are cheap;
// storage and call-family opcodes are priced heavier so gas-bounded loops
// terminate at roughly the same point real EVM gas metering would.
func gasFor(op opcodes.OpCode) uint64 {
	switch op {
	case opcodes.JUMPDEST:
		return 1
	case opcodes.KECCAK256:
		return 30
	case opcodes.BALANCE, opcodes.EXTCODESIZE, opcodes.EXTCODEHASH, opcodes.EXTCODECOPY,
		opcodes.SLOAD, opcodes.SSTORE, opcodes.TLOAD, opcodes.TSTORE:
		return 100
	case opcodes.CALL, opcodes.CALLCODE, opcodes.DELEGATECALL, opcodes.STATICCALL,
		opcodes.CREATE, opcodes.CREATE2, opcodes.SELFDESTRUCT:
		return 100
	case opcodes.STOP, opcodes.RETURN, opcodes.REVERT, opcodes.INVALID:
		return 5
	default:
		return 3
	}
}

func clampU64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrUnsupportedOp
	}
	return v.Uint64(), nil
}

// Step executes the instruction at the current PC and advances it,
// returning the captured StepResult. On error, PC is not advanced and the
// VM is left in a state where the caller should treat this branch as dead
// (spec.md §7 propagation policy).
func (vm *VM[L]) Step() (StepResult[L], error) {
	if vm.Stopped || vm.PC >= len(vm.Code) {
		vm.Stopped = true
		return StepResult[L]{Op: opcodes.STOP, PC: vm.PC, GasUsed: 1}, nil
	}

	pc := vm.PC
	op := opcodes.OpCode(vm.Code[pc])
	info := opcodes.Table[op]
	if !info.Known {
		return StepResult[L]{}, fmt.Errorf("%w: opcode 0x%02x at pc=%d", ErrUnsupportedOp, byte(op), pc)
	}
	if pc+info.Size > len(vm.Code) {
		return StepResult[L]{}, fmt.Errorf("%w: truncated immediate at pc=%d", ErrUnsupportedOp, pc)
	}

	res := StepResult[L]{Op: op, PC: pc, GasUsed: gasFor(op)}
	dest := pc + info.Size

	switch {
	case op.IsPush():
		n := op.PushSize()
		var data [32]byte
		copy(data[32-n:], vm.Code[pc+1:pc+1+n])
		if err := vm.Stack.Push(Element[L]{Data: data}); err != nil {
			return res, err
		}

	case op >= opcodes.DUP1 && op <= opcodes.DUP16:
		if err := vm.Stack.Dup(int(op-opcodes.DUP1) + 1); err != nil {
			return res, err
		}

	case op >= opcodes.SWAP1 && op <= opcodes.SWAP16:
		if err := vm.Stack.Swap(int(op-opcodes.SWAP1) + 1); err != nil {
			return res, err
		}

	default:
		var err error
		dest, err = vm.execOne(op, pc, dest, &res)
		if err != nil {
			return res, err
		}
	}

	if !vm.Stopped {
		vm.PC = dest
	}
	return res, nil
}

func (vm *VM[L]) pop() (Element[L], error) { return vm.Stack.Pop() }

// execOne handles every opcode that isn't PUSH/DUP/SWAP (those are simple
// enough to stay inline in Step). Returns the next PC.
func (vm *VM[L]) execOne(op opcodes.OpCode, pc, fallthroughPC int, res *StepResult[L]) (int, error) {
	dest := fallthroughPC

	bin := func(f func(z, x, y *uint256.Int) *uint256.Int) error {
		a, err := vm.pop()
		if err != nil {
			return err
		}
		b, err := vm.pop()
		if err != nil {
			return err
		}
		res.FA, res.SA = &a, &b
		z := new(uint256.Int)
		f(z, a.Int(), b.Int())
		return pushU256(vm, z)
	}

	switch op {
	case opcodes.STOP:
		vm.Stopped = true

	case opcodes.ADD:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Add(x, y) })
	case opcodes.MUL:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Mul(x, y) })
	case opcodes.SUB:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Sub(x, y) })
	case opcodes.DIV:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Div(x, y) })
	case opcodes.SDIV:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.SDiv(x, y) })
	case opcodes.MOD:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Mod(x, y) })
	case opcodes.SMOD:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.SMod(x, y) })
	case opcodes.EXP:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Exp(x, y) })
	case opcodes.SIGNEXTEND:
		return dest, bin(func(z, nbytes, x *uint256.Int) *uint256.Int { return z.ExtendSign(x, nbytes) })

	case opcodes.ADDMOD:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		b, err := vm.pop()
		if err != nil {
			return dest, err
		}
		c, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &b
		res.ExArgs = []Element[L]{c}
		z := new(uint256.Int).AddMod(a.Int(), b.Int(), c.Int())
		return dest, pushU256(vm, z)

	case opcodes.MULMOD:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		b, err := vm.pop()
		if err != nil {
			return dest, err
		}
		c, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &b
		res.ExArgs = []Element[L]{c}
		z := new(uint256.Int).MulMod(a.Int(), b.Int(), c.Int())
		return dest, pushU256(vm, z)

	case opcodes.LT:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int {
			if x.Lt(y) {
				return z.SetOne()
			}
			return z.Clear()
		})
	case opcodes.GT:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int {
			if x.Gt(y) {
				return z.SetOne()
			}
			return z.Clear()
		})
	case opcodes.SLT:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int {
			if x.Slt(y) {
				return z.SetOne()
			}
			return z.Clear()
		})
	case opcodes.SGT:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int {
			if x.Sgt(y) {
				return z.SetOne()
			}
			return z.Clear()
		})
	case opcodes.EQ:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int {
			if x.Eq(y) {
				return z.SetOne()
			}
			return z.Clear()
		})
	case opcodes.ISZERO:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		z := new(uint256.Int)
		if a.Int().IsZero() {
			z.SetOne()
		}
		return dest, pushU256(vm, z)

	case opcodes.AND:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.And(x, y) })
	case opcodes.OR:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Or(x, y) })
	case opcodes.XOR:
		return dest, bin(func(z, x, y *uint256.Int) *uint256.Int { return z.Xor(x, y) })
	case opcodes.NOT:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		z := new(uint256.Int).Not(a.Int())
		return dest, pushU256(vm, z)
	case opcodes.BYTE:
		return dest, bin(func(z, n, x *uint256.Int) *uint256.Int { return z.Set(x).Byte(n) })
	case opcodes.SHL:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		b, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &b
		z := new(uint256.Int)
		if shift, ok := a.Int().Uint64(), a.Int().IsUint64(); ok && shift < 256 {
			z.Lsh(b.Int(), uint(shift))
		}
		return dest, pushU256(vm, z)
	case opcodes.SHR:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		b, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &b
		z := new(uint256.Int)
		if shift, ok := a.Int().Uint64(), a.Int().IsUint64(); ok && shift < 256 {
			z.Rsh(b.Int(), uint(shift))
		}
		return dest, pushU256(vm, z)
	case opcodes.SAR:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		b, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &b
		val := b.Int()
		z := new(uint256.Int)
		if shift, ok := a.Int().Uint64(), a.Int().IsUint64(); ok && shift < 256 {
			z.SRsh(val, uint(shift))
		} else if val.Sign() >= 0 {
			z.Clear()
		} else {
			z.SetAllOne()
		}
		return dest, pushU256(vm, z)

	case opcodes.KECCAK256:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		b, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &b
		return dest, pushU256(vm, sentinel1)

	case opcodes.ADDRESS, opcodes.ORIGIN, opcodes.CALLER, opcodes.CALLVALUE,
		opcodes.COINBASE, opcodes.TIMESTAMP, opcodes.NUMBER, opcodes.PREVRANDAO,
		opcodes.GASLIMIT, opcodes.CHAINID, opcodes.SELFBALANCE, opcodes.BASEFEE,
		opcodes.BLOBBASEFEE, opcodes.GASPRICE:
		return dest, push0(vm)

	case opcodes.BALANCE:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		return dest, push0(vm)

	case opcodes.CALLDATALOAD:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		e := vm.Calldata.Load32(a.Int())
		return dest, vm.Stack.Push(e)

	case opcodes.CALLDATASIZE:
		return dest, pushU256(vm, vm.Calldata.Len())

	case opcodes.CALLDATACOPY:
		return dest, vm.execCopy(res, func(dstOff, off, size uint64) ([]byte, *L) {
			data, label, err := vm.Calldata.Load(uint256.NewInt(off), uint256.NewInt(size))
			if err != nil {
				return nil, nil
			}
			return data, label
		})

	case opcodes.CODESIZE:
		return dest, pushU256(vm, uint256.NewInt(uint64(len(vm.Code))))

	case opcodes.CODECOPY:
		return dest, vm.execCopy(res, func(dstOff, off, size uint64) ([]byte, *L) {
			if size > 32768 {
				return nil, nil
			}
			out := make([]byte, size)
			for i := uint64(0); i < size; i++ {
				if off+i < uint64(len(vm.Code)) {
					out[i] = vm.Code[off+i]
				}
			}
			return out, nil
		})

	case opcodes.EXTCODESIZE, opcodes.EXTCODEHASH:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		return dest, pushU256(vm, sentinel1)

	case opcodes.EXTCODECOPY:
		for i := 0; i < 4; i++ {
			if _, err := vm.pop(); err != nil {
				return dest, err
			}
		}

	case opcodes.RETURNDATASIZE:
		return dest, pushU256(vm, sentinel1024)

	case opcodes.RETURNDATACOPY:
		return dest, vm.execCopy(res, func(dstOff, off, size uint64) ([]byte, *L) {
			if size > 2048 {
				return nil, nil
			}
			return make([]byte, size), nil
		})

	case opcodes.BLOCKHASH, opcodes.BLOBHASH:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		return dest, pushU256(vm, sentinel1)

	case opcodes.POP:
		if _, err := vm.pop(); err != nil {
			return dest, err
		}

	case opcodes.MLOAD:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		off, err := clampU64(a.Int())
		if err != nil {
			return dest, err
		}
		data, labels := vm.Memory.Load32(off)
		res.MemoryLoad = &MemLoad[L]{Offset: off, Size: 32, Labels: labels}
		e := Element[L]{Data: data}
		if len(labels) > 0 {
			e.Label = &labels[0]
		}
		return dest, vm.Stack.Push(e)

	case opcodes.MSTORE:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		v, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &v
		off, err := clampU64(a.Int())
		if err != nil {
			return dest, err
		}
		data := v.Data
		vm.Memory.Store(off, data[:], v.Label)

	case opcodes.MSTORE8:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		v, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &v
		off, err := clampU64(a.Int())
		if err != nil {
			return dest, err
		}
		vm.Memory.Store(off, []byte{v.Data[31]}, v.Label)

	case opcodes.SLOAD, opcodes.TLOAD:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		return dest, push0(vm)

	case opcodes.SSTORE, opcodes.TSTORE:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		v, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &a, &v

	case opcodes.JUMP:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		to, err := vm.jumpDest(a.Int())
		if err != nil {
			return dest, err
		}
		return to, nil

	case opcodes.JUMPI:
		// FA is set to the PC of the branch NOT taken (the fallthrough PC
		// when the jump is taken, the jump target itself when it isn't),
		// mirroring original_source/src/evm/vm.rs's JUMPI handling. This lets
		// an analysis that forces a comparison's outcome (e.g. the selector
		// dispatcher's EQ/XOR/SUB rewrite) still recover the path it chose
		// not to walk.
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		c, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.SA = &c
		if !c.Int().IsZero() {
			untaken := FromInt[L](uint256.NewInt(uint64(dest)), nil)
			res.FA = &untaken
			to, err := vm.jumpDest(a.Int())
			if err != nil {
				return dest, err
			}
			return to, nil
		}
		res.FA = &a

	case opcodes.PC:
		return dest, pushU256(vm, uint256.NewInt(uint64(pc)))

	case opcodes.MSIZE:
		return dest, pushU256(vm, uint256.NewInt(vm.Memory.Len()))

	case opcodes.GAS:
		return dest, pushU256(vm, sentinel1M)

	case opcodes.JUMPDEST:
		// no-op

	case opcodes.MCOPY:
		dstOffE, err := vm.pop()
		if err != nil {
			return dest, err
		}
		offE, err := vm.pop()
		if err != nil {
			return dest, err
		}
		sizeE, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &offE, &sizeE
		res.ExArgs = []Element[L]{dstOffE}
		size, err := clampU64(sizeE.Int())
		if err != nil {
			return dest, err
		}
		if size > 2048 {
			return dest, fmt.Errorf("%w: MCOPY size %d exceeds limit", ErrUnsupportedOp, size)
		}
		res.GasUsed = 3 + 3*((size+31)/32)
		dstOff, err := clampU64(dstOffE.Int())
		if err != nil {
			return dest, err
		}
		off, err := clampU64(offE.Int())
		if err != nil {
			return dest, err
		}
		var loaded []L
		seen := make(map[L]struct{})
		for i := uint64(0); i < size; i += 32 {
			chunkLen := size - i
			if chunkLen > 32 {
				chunkLen = 32
			}
			d, lbls := vm.Memory.Load32(off + i)
			for _, l := range lbls {
				if _, dup := seen[l]; !dup {
					seen[l] = struct{}{}
					loaded = append(loaded, l)
				}
			}
			var label *L
			if len(lbls) > 0 {
				label = &lbls[0]
			}
			vm.Memory.Store(dstOff+i, d[:chunkLen], label)
		}
		res.MemoryLoad = &MemLoad[L]{Offset: off, Size: size, Labels: loaded}

	case opcodes.LOG0, opcodes.LOG1, opcodes.LOG2, opcodes.LOG3, opcodes.LOG4:
		n := int(op - opcodes.LOG0)
		off, err := vm.pop()
		if err != nil {
			return dest, err
		}
		size, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &off, &size
		topics := make([]Element[L], 0, n)
		for i := 0; i < n; i++ {
			t, err := vm.pop()
			if err != nil {
				return dest, err
			}
			topics = append(topics, t)
		}
		res.ExArgs = topics

	case opcodes.CREATE, opcodes.CREATE2:
		n := 3
		if op == opcodes.CREATE2 {
			n = 4
		}
		args := make([]Element[L], 0, n)
		for i := 0; i < n; i++ {
			e, err := vm.pop()
			if err != nil {
				return dest, err
			}
			args = append(args, e)
		}
		if len(args) > 0 {
			res.FA = &args[0]
		}
		if len(args) > 1 {
			res.SA = &args[1]
		}
		res.ExArgs = args
		return dest, push0(vm)

	case opcodes.CALL, opcodes.CALLCODE:
		args := make([]Element[L], 0, 7)
		for i := 0; i < 7; i++ {
			e, err := vm.pop()
			if err != nil {
				return dest, err
			}
			args = append(args, e)
		}
		res.FA, res.SA = &args[0], &args[1]
		res.ExArgs = args
		return dest, pushU256(vm, sentinel1)

	case opcodes.DELEGATECALL, opcodes.STATICCALL:
		args := make([]Element[L], 0, 6)
		for i := 0; i < 6; i++ {
			e, err := vm.pop()
			if err != nil {
				return dest, err
			}
			args = append(args, e)
		}
		res.FA, res.SA = &args[0], &args[1]
		res.ExArgs = args
		return dest, pushU256(vm, sentinel1)

	case opcodes.RETURN, opcodes.REVERT:
		off, err := vm.pop()
		if err != nil {
			return dest, err
		}
		size, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA, res.SA = &off, &size
		vm.Stopped = true

	case opcodes.SELFDESTRUCT:
		a, err := vm.pop()
		if err != nil {
			return dest, err
		}
		res.FA = &a
		vm.Stopped = true

	case opcodes.INVALID:
		vm.Stopped = true

	default:
		return dest, fmt.Errorf("%w: unhandled opcode %s", ErrUnsupportedOp, op)
	}

	return dest, nil
}

// execCopy implements the shared shape of CALLDATACOPY/CODECOPY/RETURNDATACOPY:
// pop destOffset, offset, size; write the bytes `read` produces at
// destOffset in memory. `res.FA` is set to the offset operand (not
// destOffset), matching CALLDATALOAD's argument position so selector and
// argument analyses can pattern-match either opcode identically.
func (vm *VM[L]) execCopy(res *StepResult[L], read func(dstOff, off, size uint64) ([]byte, *L)) error {
	dstOffE, err := vm.pop()
	if err != nil {
		return err
	}
	offE, err := vm.pop()
	if err != nil {
		return err
	}
	sizeE, err := vm.pop()
	if err != nil {
		return err
	}
	res.FA = &offE
	res.SA = &sizeE
	res.ExArgs = []Element[L]{dstOffE}

	dstOff, err := clampU64(dstOffE.Int())
	if err != nil {
		return err
	}
	off, err := clampU64(offE.Int())
	if err != nil {
		return err
	}
	size, err := clampU64(sizeE.Int())
	if err != nil {
		return err
	}
	data, label := read(dstOff, off, size)
	if data == nil {
		return fmt.Errorf("%w: copy size %d rejected", ErrUnsupportedOp, size)
	}
	vm.Memory.Store(dstOff, data, label)
	return nil
}

// jumpDest validates that the target is a JUMPDEST and returns it as an int
// PC, per spec.md §4.2: "JUMP/JUMPI to a non-JUMPDEST byte fails UnsupportedOp."
func (vm *VM[L]) jumpDest(v *uint256.Int) (int, error) {
	to, err := clampU64(v)
	if err != nil {
		return 0, err
	}
	if to >= uint64(len(vm.Code)) || opcodes.OpCode(vm.Code[to]) != opcodes.JUMPDEST {
		return 0, fmt.Errorf("%w: jump to non-JUMPDEST offset %d", ErrUnsupportedOp, to)
	}
	return int(to), nil
}
