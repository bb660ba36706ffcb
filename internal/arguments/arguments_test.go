package arguments

import (
	"encoding/hex"
	"testing"
)

func TestFunctionArguments_Fixture(t *testing.T) {
	raw := "6080604052348015600e575f80fd5b50600436106030575f3560e01c80632125b65b146034578063b69ef8a8146044575b5f80fd5b6044603f3660046046565b505050565b005b5f805f606084860312156057575f80fd5b833563ffffffff811681146069575f80fd5b925060208401356001600160a01b03811681146083575f80fd5b915060408401356001600160e01b0381168114609d575f80fd5b80915050925092509256"
	code, err := hex.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	got := FunctionArguments(code, [4]byte{0x21, 0x25, 0xb6, 0x5b}, 0)
	want := "uint32,address,uint224"
	if got != want {
		t.Fatalf("arguments = %q, want %q", got, want)
	}
}

func TestFunctionArguments_UnknownSelector(t *testing.T) {
	got := FunctionArguments(nil, [4]byte{0xff, 0xff, 0xff, 0xff}, 0)
	if got != "" {
		t.Fatalf("arguments for empty code = %q, want empty", got)
	}
}
