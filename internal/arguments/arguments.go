package arguments

import (
	"github.com/cdump/evmole/internal/opcodes"
	"github.com/cdump/evmole/internal/symvm"
)

const defaultGasLimit = 10_000

// FunctionArguments returns a comma-separated ABI type list for the
// function at selector, inferred by walking code past the dispatcher and
// tainting each CALLDATALOAD'd word. gasLimit bounds total work; 0 selects
// the default of 10,000. Grounded on
// original_source/rust/src/arguments.rs's function_arguments().
func FunctionArguments(code []byte, selector [4]byte, gasLimit uint64) string {
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	vm := symvm.New[Label](code, calldataImpl{selector: selector})
	args := newArgsResult()

	var gasUsed uint64
	insideFunction := false
	for !vm.Stopped {
		ret, err := vm.Step()
		if err != nil {
			break
		}
		gasUsed += ret.GasUsed
		if gasUsed > gasLimit {
			break
		}

		if !insideFunction {
			if ret.Op == opcodes.EQ || ret.Op == opcodes.XOR || ret.Op == opcodes.SUB {
				top, err := vm.Stack.Peek()
				if err != nil {
					break
				}
				matched := (ret.Op == opcodes.EQ && top.Data == oneBytes()) ||
					(ret.Op != opcodes.EQ && top.Data == [32]byte{})
				if matched && ret.FA != nil {
					if selectorOf(ret.FA.Data) == selector {
						insideFunction = true
					}
				}
			}
			continue
		}

		if err := analyze(vm, args, ret); err != nil {
			break
		}
	}

	return args.joinToString()
}

func selectorOf(data [32]byte) [4]byte {
	var s [4]byte
	copy(s[:], data[28:32])
	return s
}
