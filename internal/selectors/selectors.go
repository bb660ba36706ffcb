package selectors

import (
	"github.com/holiman/uint256"

	"github.com/cdump/evmole/internal/symvm"
)

// process walks vm, recording discovered selectors, and returns the gas
// consumed. It recurses to explore the bucket-table/blind-spot fork points
// analyze() surfaces, splitting the remaining gas budget across forks the
// way original_source/src/selectors/mod.rs's process() does.
func process(vm *symvm.VM[Label], selectors map[[4]byte]int, gasLimit uint64) uint64 {
	var gasUsed uint64
	for !vm.Stopped {
		ret, err := vm.Step()
		if err != nil {
			break
		}
		gasUsed += ret.GasUsed
		if gasUsed > gasLimit {
			break
		}

		to, err := analyze(vm, selectors, ret)
		if err != nil {
			break
		}
		if to <= 0 {
			continue
		}
		remaining := gasLimit - gasUsed
		if remaining == 0 {
			break
		}
		perBranch := remaining / uint64(to)
		if perBranch == 0 {
			perBranch = 1
		}
		for m := 1; m < to; m++ {
			forked := vm.Fork()
			top, err := forked.Stack.Top()
			if err != nil {
				break
			}
			top.Data = uint256.NewInt(uint64(m)).Bytes32()
			top.Label = nil
			used := process(forked, selectors, perBranch)
			gasUsed += used
			if gasUsed > gasLimit {
				return gasUsed
			}
		}
	}
	return gasUsed
}

// FunctionSelectors extracts 4-byte function selectors and the bytecode
// offset of each selector's dispatch target, from deployed contract
// bytecode. gasLimit bounds total analysis work; 0 selects the default of
// 500,000. Grounded on original_source/src/selectors/mod.rs's
// function_selectors().
func FunctionSelectors(code []byte, gasLimit uint64) (map[[4]byte]int, uint64) {
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	vm := symvm.New[Label](code, calldataImpl{})
	selectors := make(map[[4]byte]int)
	gasUsed := process(vm, selectors, gasLimit)
	return selectors, gasUsed
}
