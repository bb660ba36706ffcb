package mutability

import (
	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/opcodes"
	"github.com/cdump/evmole/internal/symvm"
)

func labelOf(e *symvm.Element[Label]) *Label {
	if e == nil {
		return nil
	}
	return e.Label
}

var oneWord = uint256.NewInt(1).Bytes32()

// executeUntilFunctionStart steps vm past the selector dispatcher until it
// reaches the JUMPI that enters the target function's body, returning the
// gas consumed getting there. ok is false if gasLimit was exceeded or the
// function's entry JUMPI was never found (e.g. the selector doesn't exist
// in this bytecode). Grounded on original_source/src/utils.rs's
// execute_until_function_start.
func executeUntilFunctionStart(vm *symvm.VM[Label], gasLimit uint64) (uint64, bool) {
	var gasUsed uint64
	found := false
	for !vm.Stopped {
		ret, err := vm.Step()
		if err != nil {
			return gasUsed, false
		}
		gasUsed += ret.GasUsed
		if gasUsed > gasLimit {
			return gasUsed, false
		}

		if found && ret.Op == opcodes.JUMPI {
			return gasUsed, true
		}

		switch ret.Op {
		case opcodes.EQ, opcodes.XOR, opcodes.SUB:
			top, err := vm.Stack.Peek()
			if err != nil {
				return gasUsed, false
			}
			matched := (ret.Op == opcodes.EQ && top.Data == oneWord) ||
				(ret.Op != opcodes.EQ && top.Data == [32]byte{})
			if matched && ret.FA != nil {
				var sel [4]byte
				copy(sel[:], ret.FA.Data[28:32])
				if sel == vm.Calldata.Selector() {
					found = true
				}
			}
		}
	}
	return gasUsed, false
}

// analyzePayable forces CALLVALUE to callValue and walks the bytecode
// watching for the classic Solidity non-payable guard: `CALLVALUE ISZERO
// <dest> JUMPI ... REVERT` with a zero-length revert. If that pattern is
// seen on a JUMPI whose condition traces back to CALLVALUE, the function
// is non-payable; otherwise it's treated as payable. Grounded on
// state_mutability/mod.rs's analyze_payable.
func analyzePayable(vm *symvm.VM[Label], gasLimit uint64, callValue *uint256.Int) (bool, uint64) {
	var gasUsed uint64
	lastJumpiCallValue := false
	cv := callValue.Bytes32()

	for !vm.Stopped {
		ret, err := vm.Step()
		if err != nil {
			break
		}
		gasUsed += ret.GasUsed
		if gasUsed > gasLimit {
			break
		}

		switch ret.Op {
		case opcodes.CALLVALUE:
			top, err := vm.Stack.Top()
			if err != nil {
				break
			}
			l := callValueLabel()
			top.Data = cv
			top.Label = &l

		case opcodes.ISZERO:
			if is(labelOf(ret.FA), kindCallValue) {
				top, err := vm.Stack.Top()
				if err != nil {
					break
				}
				l := isZeroLabel()
				top.Label = &l
			}

		case opcodes.JUMPI:
			sa := labelOf(ret.SA)
			lastJumpiCallValue = is(sa, kindIsZero) || is(sa, kindCallValue)

		case opcodes.REVERT:
			if lastJumpiCallValue && ret.SA != nil && ret.SA.Data == [32]byte{} {
				return false, gasUsed
			}
		}
	}

	return true, gasUsed
}

// ViewPureResult accumulates the upper bound for a function's view/pure
// classification as the scan rules out capabilities it observes.
type ViewPureResult struct {
	View bool
	Pure bool
}

// analyzeViewPureInternal walks vm (at depth 0, first skipping the
// dispatcher preamble via executeUntilFunctionStart), clearing View/Pure
// when it observes an opcode from opNotView/opNotPure, and forking at each
// JUMPI to explore the untaken branch too — bounded to depth 8 so
// diamond-shaped control flow can't blow up the walk. Grounded on
// state_mutability/mod.rs's analyze_view_pure_internal.
func analyzeViewPureInternal(vm *symvm.VM[Label], vpr *ViewPureResult, gasLimit uint64, depth int) uint64 {
	var gasUsed uint64
	if depth == 0 {
		used, ok := executeUntilFunctionStart(vm, gasLimit)
		if !ok {
			vpr.View = false
			vpr.Pure = false
			return gasLimit
		}
		gasUsed = used
	}

	for !vm.Stopped && vpr.View {
		ret, err := vm.Step()
		if err != nil {
			break
		}
		gasUsed += ret.GasUsed
		if gasUsed > gasLimit {
			break
		}

		if ret.Op == opcodes.JUMPI {
			if ret.FA != nil && depth < 8 && gasUsed < gasLimit {
				otherPC := int(ret.FA.Int().Uint64())
				forked := vm.Fork()
				forked.PC = otherPC
				gasUsed += analyzeViewPureInternal(forked, vpr, (gasLimit-gasUsed)/2, depth+1)
			}
			continue
		}

		if opNotView[ret.Op] {
			vpr.View = false
			vpr.Pure = false
		} else if opNotPure[ret.Op] {
			vpr.Pure = false
		}
	}

	return gasUsed
}

// analyzeViewPure runs analyzeViewPureInternal from depth 0 and returns the
// accumulated classification.
func analyzeViewPure(vm *symvm.VM[Label], gasLimit uint64) ViewPureResult {
	vpr := ViewPureResult{View: true, Pure: true}
	analyzeViewPureInternal(vm, &vpr, gasLimit, 0)
	return vpr
}
