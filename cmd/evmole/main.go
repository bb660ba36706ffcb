// Command evmole analyzes deployed EVM bytecode and prints its function
// selectors, argument types, state mutability, disassembly, basic blocks,
// and control flow graph, depending on which flags are set.
//
// Usage:
//
//	evmole [flags] <hex-bytecode>
//
// Flags:
//
//	-selectors          extract function selectors (default: true)
//	-arguments          infer function argument types
//	-state-mutability   infer function state mutability
//	-storage            extract storage layout (always empty, see DESIGN.md)
//	-disassemble        disassemble the bytecode
//	-basic-blocks       extract basic blocks
//	-cfg                build the control flow graph
//	-gas-limit          gas budget per analysis pass (default: each analysis's own)
package main

import (
	"fmt"
	"os"

	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/cdump/evmole/internal/contract"
	"github.com/cdump/evmole/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	opts := options{}
	fs := newFlagSet(&opts)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: evmole [flags] <hex-bytecode>")
		return 2
	}
	opts.code = fs.Arg(0)

	logger := log.Default().Module("cmd/evmole")

	code := gethcommon.FromHex(opts.code)
	if len(code) == 0 && opts.code != "0x" && opts.code != "" {
		logger.Error("failed to decode bytecode as hex", "input", opts.code)
		return 1
	}

	info := analyzeBytecode(code, opts)
	printContract(os.Stdout, info, opts)
	return 0
}

// analyzeBytecode builds a ContractInfoArgs from opts and runs Analyze.
func analyzeBytecode(code []byte, opts options) contract.Contract {
	a := contract.NewContractInfoArgs(code)
	a.GasLimit = opts.gasLimit

	if opts.selectors {
		a.WithSelectors()
	}
	if opts.arguments {
		a.WithArguments()
	}
	if opts.stateMutability {
		a.WithStateMutability()
	}
	if opts.storage {
		a.WithStorage()
	}
	if opts.disassemble {
		a.WithDisassemble()
	}
	if opts.basicBlocks {
		a.WithBasicBlocks()
	}
	if opts.controlFlowGraph {
		a.WithControlFlowGraph()
	}

	return contract.Analyze(a)
}
