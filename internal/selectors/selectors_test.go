package selectors

import (
	"encoding/hex"
	"testing"
)

func TestFunctionSelectors_EmptyCode(t *testing.T) {
	selectors, _ := FunctionSelectors(nil, 0)
	if len(selectors) != 0 {
		t.Fatalf("empty code: got %d selectors, want 0", len(selectors))
	}
}

func TestFunctionSelectors_FlatDispatcher(t *testing.T) {
	// Two-function flat dispatcher, taken verbatim from
	// original_source/src/selectors/mod.rs's doctest bytecode.
	raw := "6080604052348015600e575f80fd5b50600436106030575f3560e01c80632125b65b146034578063b69ef8a8146044575b5f80fd5b6044603f3660046046565b505050565b005b5f805f606084860312156057575f80fd5b833563ffffffff811681146069575f80fd5b925060208401356001600160a01b03811681146083575f80fd5b915060408401356001600160e01b0381168114609d575f80fd5b80915050925092509256"
	code, err := hex.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	got, _ := FunctionSelectors(code, 0)

	want := map[[4]byte]bool{
		{0x21, 0x25, 0xb6, 0x5b}: true,
		{0xb6, 0x9e, 0xf8, 0xa8}: true,
	}
	if len(got) != len(want) {
		t.Fatalf("selectors = %v, want keys %v", got, want)
	}
	for sel := range want {
		if _, ok := got[sel]; !ok {
			t.Errorf("missing selector %x", sel)
		}
	}
}
