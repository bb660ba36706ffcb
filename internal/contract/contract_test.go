package contract

import (
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return b
}

func TestAnalyze_SelectorsOnly(t *testing.T) {
	// PUSH1 0x00 STOP: no dispatcher, no selectors.
	code := []byte{0x60, 0x00, 0x00}

	out := Analyze(NewContractInfoArgs(code).WithSelectors())
	if out.Functions == nil {
		t.Fatal("Functions should be non-nil once WithSelectors is set")
	}
	if len(out.Functions) != 0 {
		t.Fatalf("got %d functions, want 0: %+v", len(out.Functions), out.Functions)
	}
	if out.Disassembled != nil || out.BasicBlocks != nil || out.ControlFlowGraph != nil {
		t.Fatalf("unrequested fields should stay nil: %+v", out)
	}
}

func TestAnalyze_StorageAlwaysNil(t *testing.T) {
	code := []byte{0x00}
	out := Analyze(NewContractInfoArgs(code).WithStorage())
	if out.Storage != nil {
		t.Fatalf("Storage = %+v, want nil", out.Storage)
	}
}

func TestAnalyze_DisassembleAndBasicBlocks(t *testing.T) {
	code := []byte{
		0x60, 0x03, // PUSH1 3
		0x56,       // JUMP
		0x5b,       // JUMPDEST
		0x00,       // STOP
	}

	out := Analyze(NewContractInfoArgs(code).WithDisassemble().WithControlFlowGraph())

	if len(out.Disassembled) != 4 {
		t.Fatalf("got %d disassembled ops, want 4: %+v", len(out.Disassembled), out.Disassembled)
	}
	if len(out.BasicBlocks) != 2 {
		t.Fatalf("got %d basic blocks, want 2: %+v", len(out.BasicBlocks), out.BasicBlocks)
	}
	if out.ControlFlowGraph == nil || len(out.ControlFlowGraph.Blocks) != 2 {
		t.Fatalf("cfg = %+v, want 2 reachable blocks", out.ControlFlowGraph)
	}
}

func TestAnalyze_TwoFunctionDispatch(t *testing.T) {
	code := mustHex(t, "6080604052348015600e575f80fd5b50600436106030575f3560e01c80632125b65b146034578063b69ef8a8146044575b5f80fd5b6044603f3660046046565b505050565b005b5f805f606084860312156057575f80fd5b833563ffffffff811681146069575f80fd5b925060208401356001600160a01b03811681146083575f80fd5b915060408401356001600160e01b0381168114609d575f80fd5b80915050925092509256")

	out := Analyze(NewContractInfoArgs(code).WithArguments().WithStateMutability())

	if len(out.Functions) != 2 {
		t.Fatalf("got %d functions, want 2: %+v", len(out.Functions), out.Functions)
	}
	want := [4]byte{0x21, 0x25, 0xb6, 0x5b}
	if out.Functions[0].Selector != want {
		t.Errorf("Functions[0].Selector = %x, want %x", out.Functions[0].Selector, want)
	}
	if out.Functions[0].Arguments == nil {
		t.Fatal("Arguments should be set once WithArguments is requested")
	}
	if out.Functions[0].StateMutability == nil {
		t.Fatal("StateMutability should be set once WithStateMutability is requested")
	}
}
