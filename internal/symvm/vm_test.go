package symvm

import (
	"testing"

	"github.com/holiman/uint256"
)

// plainCalldata is a minimal CallData[int] used only by these tests: it
// treats offsets literally against a backing byte slice, with no labeling.
type plainCalldata struct {
	data []byte
}

func (c plainCalldata) Load32(offset *uint256.Int) Element[int] {
	off := offset.Uint64()
	var out [32]byte
	for i := 0; i < 32; i++ {
		idx := off + uint64(i)
		if idx < uint64(len(c.data)) {
			out[i] = c.data[idx]
		}
	}
	return Element[int]{Data: out}
}

func (c plainCalldata) Load(offset, size *uint256.Int) ([]byte, *int, error) {
	off, sz := offset.Uint64(), size.Uint64()
	out := make([]byte, sz)
	for i := uint64(0); i < sz; i++ {
		idx := off + i
		if idx < uint64(len(c.data)) {
			out[i] = c.data[idx]
		}
	}
	return out, nil, nil
}

func (c plainCalldata) Len() *uint256.Int { return uint256.NewInt(uint64(len(c.data))) }
func (c plainCalldata) Selector() [4]byte {
	var s [4]byte
	copy(s[:], c.data)
	return s
}

func runAll[L comparable](t *testing.T, vm *VM[L]) {
	t.Helper()
	for !vm.Stopped {
		if _, err := vm.Step(); err != nil {
			t.Fatalf("step at pc=%d: %v", vm.PC, err)
		}
	}
}

func push(n uint64) []byte {
	if n == 0 {
		return []byte{0x60, 0x00}
	}
	return []byte{0x60, byte(n)}
}

func TestVM_Add(t *testing.T) {
	code := append(append(push(2), push(3)...), byte(0x01), 0x00) // PUSH1 2 PUSH1 3 ADD STOP
	vm := New[int](code, plainCalldata{})
	runAll(t, vm)
	top, err := vm.Stack.Peek()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got := top.Int().Uint64(); got != 5 {
		t.Fatalf("2+3 = %d, want 5", got)
	}
}

func TestVM_SDivMinByMinusOne(t *testing.T) {
	// SDIV(MIN_I256, -1) must wrap back to MIN_I256, not overflow/panic.
	var minI256, negOne uint256.Int
	minI256.SetAllOne()
	minI256.Lsh(&minI256, 255) // 1 << 255 == math.MinInt256 bit pattern
	negOne.SetAllOne()

	code := []byte{}
	push32 := func(v *uint256.Int) []byte {
		b := v.Bytes32()
		return append([]byte{0x7f}, b[:]...)
	}
	code = append(code, push32(&negOne)...)
	code = append(code, push32(&minI256)...)
	code = append(code, byte(0x05), 0x00) // SDIV STOP

	vm := New[int](code, plainCalldata{})
	runAll(t, vm)
	top, err := vm.Stack.Peek()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if top.Data != minI256.Bytes32() {
		t.Fatalf("SDIV(MIN, -1) = %x, want wraparound to MIN (%x)", top.Data, minI256.Bytes32())
	}
}

func TestVM_JumpToNonJumpdestFails(t *testing.T) {
	code := []byte{0x60, 0x05, 0x56, 0x00, 0x00, 0x00} // PUSH1 5 JUMP STOP STOP STOP (pc=5 not JUMPDEST)
	vm := New[int](code, plainCalldata{})
	if _, err := vm.Step(); err != nil { // PUSH1
		t.Fatalf("push: %v", err)
	}
	if _, err := vm.Step(); err == nil { // JUMP
		t.Fatalf("expected error jumping to non-JUMPDEST")
	}
}

func TestVM_JumpToJumpdestSucceeds(t *testing.T) {
	code := []byte{0x60, 0x04, 0x56, 0x00, 0x5b, 0x00} // PUSH1 4 JUMP STOP JUMPDEST STOP
	vm := New[int](code, plainCalldata{})
	runAll(t, vm)
	if vm.PC != 5 {
		t.Fatalf("PC after jump+jumpdest+stop = %d, want 5", vm.PC)
	}
}

func TestVM_JumpiBranches(t *testing.T) {
	// PUSH1 0 (cond=false) PUSH1 6 JUMPI STOP JUMPDEST STOP
	code := []byte{0x60, 0x00, 0x60, 0x06, 0x57, 0x00, 0x5b, 0x00}
	vm := New[int](code, plainCalldata{})
	runAll(t, vm)
	if vm.PC != 5 {
		t.Fatalf("false JUMPI should fall through to pc=5, got %d", vm.PC)
	}
}

func TestVM_CalldataloadSelector(t *testing.T) {
	cd := plainCalldata{data: []byte{0xde, 0xad, 0xbe, 0xef}}
	code := []byte{0x60, 0x00, 0x35, 0x00} // PUSH1 0 CALLDATALOAD STOP
	vm := New[int](code, cd)
	runAll(t, vm)
	top, err := vm.Stack.Peek()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if top.Data[0] != 0xde || top.Data[1] != 0xad || top.Data[2] != 0xbe || top.Data[3] != 0xef {
		t.Fatalf("calldataload = %x, want deadbeef...", top.Data[:4])
	}
}

func TestVM_MstoreMloadRoundtrip(t *testing.T) {
	// PUSH1 0x42 PUSH1 0 MSTORE PUSH1 0 MLOAD STOP
	code := []byte{0x60, 0x42, 0x60, 0x00, 0x52, 0x60, 0x00, 0x51, 0x00}
	vm := New[int](code, plainCalldata{})
	runAll(t, vm)
	top, err := vm.Stack.Peek()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if top.Data[31] != 0x42 {
		t.Fatalf("mload after mstore = %x, want ...42", top.Data)
	}
}

func TestVM_StackUnderflow(t *testing.T) {
	code := []byte{0x01, 0x00} // ADD with empty stack
	vm := New[int](code, plainCalldata{})
	if _, err := vm.Step(); err == nil {
		t.Fatalf("expected stack underflow error")
	}
}

func TestVM_UnknownOpcode(t *testing.T) {
	code := []byte{0x0c, 0x00} // 0x0c is undefined
	vm := New[int](code, plainCalldata{})
	if _, err := vm.Step(); err == nil {
		t.Fatalf("expected unsupported-opcode error")
	}
}

func TestVM_ForkIsIndependent(t *testing.T) {
	code := []byte{0x60, 0x01, 0x00} // PUSH1 1 STOP
	vm := New[int](code, plainCalldata{})
	if _, err := vm.Step(); err != nil {
		t.Fatalf("push: %v", err)
	}
	fork := vm.Fork()
	if _, err := fork.Stack.Pop(); err != nil {
		t.Fatalf("pop on fork: %v", err)
	}
	if vm.Stack.Len() != 1 {
		t.Fatalf("popping fork's stack must not affect original, original len=%d", vm.Stack.Len())
	}
	if fork.Stack.Len() != 0 {
		t.Fatalf("fork stack len = %d, want 0", fork.Stack.Len())
	}
}

func TestVM_RevertStopsExecution(t *testing.T) {
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xfd, 0x5b, 0x00} // PUSH1 0 PUSH1 0 REVERT JUMPDEST STOP
	vm := New[int](code, plainCalldata{})
	runAll(t, vm)
	if vm.PC != 4 {
		t.Fatalf("PC after REVERT = %d, want unchanged at 4 (the REVERT's own pc)", vm.PC)
	}
}
