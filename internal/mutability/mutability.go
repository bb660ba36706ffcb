package mutability

import (
	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/symvm"
)

const defaultGasLimit = 500_000

// StateMutability is a function's inferred Solidity state mutability.
type StateMutability int

const (
	NonPayable StateMutability = iota
	Payable
	View
	Pure
)

func (s StateMutability) String() string {
	switch s {
	case Payable:
		return "payable"
	case View:
		return "view"
	case Pure:
		return "pure"
	default:
		return "nonpayable"
	}
}

// FunctionStateMutability infers whether the function at selector accepts
// ether (Payable), only reads chain/environment state (View), touches
// neither (Pure), or neither of those holds (NonPayable). gasLimit bounds
// total analysis work, split between the payable and view/pure passes; 0
// selects the default of 500,000. Grounded on
// original_source/src/state_mutability/mod.rs's function_state_mutability.
func FunctionStateMutability(code []byte, selector [4]byte, gasLimit uint64) StateMutability {
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	vm := symvm.New[Label](code, calldataImpl{selector: selector})

	payableGasLimit := gasLimit / 2
	payable, gasUsed := analyzePayable(vm.Fork(), payableGasLimit, uint256.NewInt(1))
	if payable {
		return Payable
	}

	spent := gasUsed
	if spent > payableGasLimit {
		spent = payableGasLimit
	}
	gasRemaining := gasLimit - spent

	vpr := analyzeViewPure(vm, gasRemaining)
	switch {
	case vpr.Pure:
		return Pure
	case vpr.View:
		return View
	default:
		return NonPayable
	}
}
