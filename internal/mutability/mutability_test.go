package mutability

import "testing"

func TestFunctionStateMutability_DefaultsToPayable(t *testing.T) {
	// No CALLVALUE/REVERT guard at all: analyzePayable never proves
	// otherwise, so the function is assumed to accept ether.
	code := []byte{0x00} // STOP
	got := FunctionStateMutability(code, [4]byte{0x01, 0x02, 0x03, 0x04}, 0)
	if got != Payable {
		t.Fatalf("state mutability = %v, want %v", got, Payable)
	}
}

func TestFunctionStateMutability_NonPayableGuard(t *testing.T) {
	// CALLVALUE ISZERO PUSH1 0xff JUMPI PUSH1 0 PUSH1 0 REVERT: the classic
	// Solidity non-payable guard. Forcing CALLVALUE=1 makes ISZERO false,
	// so the JUMPI falls through into the zero-length REVERT.
	code := []byte{
		0x34,       // CALLVALUE
		0x15,       // ISZERO
		0x60, 0xff, // PUSH1 0xff
		0x57,       // JUMPI
		0x60, 0x00, // PUSH1 0
		0x60, 0x00, // PUSH1 0
		0xfd, // REVERT
	}
	got := FunctionStateMutability(code, [4]byte{0x01, 0x02, 0x03, 0x04}, 0)
	if got != NonPayable {
		t.Fatalf("state mutability = %v, want %v", got, NonPayable)
	}
}

func TestStateMutability_String(t *testing.T) {
	cases := map[StateMutability]string{
		NonPayable: "nonpayable",
		Payable:    "payable",
		View:       "view",
		Pure:       "pure",
	}
	for sm, want := range cases {
		if got := sm.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", sm, got, want)
		}
	}
}
