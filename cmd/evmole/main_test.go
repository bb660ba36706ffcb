package main

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestRun_TwoFunctionDispatch(t *testing.T) {
	// PUSH0 CALLDATALOAD PUSH1 0xe0 SHR DUP1 PUSH4 selA EQ PUSH1 dest JUMPI ...
	// reuse the minimal two-selector dispatcher bytecode from contract_info.rs's doctest.
	code := "6080604052348015600e575f80fd5b50600436106030575f3560e01c80632125b65b146034578063b69ef8a8146044575b5f80fd5b6044603f3660046046565b505050565b005b5f805f606084860312156057575f80fd5b833563ffffffff811681146069575f80fd5b925060208401356001600160a01b03811681146083575f80fd5b915060408401356001600160e01b0381168114609d575f80fd5b80915050925092509256"

	raw, err := hex.DecodeString(code)
	if err != nil {
		t.Fatalf("decode bytecode: %v", err)
	}

	var stdout bytes.Buffer
	opts := options{selectors: true, stateMutability: true, code: code}
	info := analyzeBytecode(raw, opts)
	printContract(&stdout, info, opts)

	if len(info.Functions) != 2 {
		t.Fatalf("got %d functions, want 2: %+v", len(info.Functions), info.Functions)
	}
	if stdout.Len() == 0 {
		t.Fatal("expected non-empty output")
	}
}

func TestRun_MissingArgument(t *testing.T) {
	if code := run([]string{}); code != 2 {
		t.Errorf("run([]) = %d, want 2", code)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	if code := run([]string{"-unknown-flag"}); code != 2 {
		t.Errorf("run with unknown flag = %d, want 2", code)
	}
}

func TestRun_EmptyBytecode(t *testing.T) {
	if code := run([]string{"0x"}); code != 0 {
		t.Errorf("run([0x]) = %d, want 0", code)
	}
}
