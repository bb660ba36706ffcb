package main

import "flag"

// options holds the parsed CLI flags.
type options struct {
	selectors        bool
	arguments        bool
	stateMutability  bool
	storage          bool
	disassemble      bool
	basicBlocks      bool
	controlFlowGraph bool
	gasLimit         uint64
	code             string
}

// newFlagSet creates a flag.FlagSet bound to opts, using flag.ContinueOnError
// so callers (tests included) control error handling instead of the default
// os.Exit-on-parse-error behavior.
func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("evmole", flag.ContinueOnError)
	fs.BoolVar(&opts.selectors, "selectors", true, "extract function selectors")
	fs.BoolVar(&opts.arguments, "arguments", false, "infer function argument types")
	fs.BoolVar(&opts.stateMutability, "state-mutability", false, "infer function state mutability")
	fs.BoolVar(&opts.storage, "storage", false, "extract storage layout (always empty, see DESIGN.md)")
	fs.BoolVar(&opts.disassemble, "disassemble", false, "disassemble the bytecode")
	fs.BoolVar(&opts.basicBlocks, "basic-blocks", false, "extract basic blocks")
	fs.BoolVar(&opts.controlFlowGraph, "cfg", false, "build the control flow graph")
	fs.Uint64Var(&opts.gasLimit, "gas-limit", 0, "gas budget per analysis pass (0 = each analysis's default)")
	return fs
}
