// Package contract ties the individual analyses (selectors, arguments,
// state mutability, basic blocks, control flow graph, disassembly)
// together into a single entry point over one blob of deployed bytecode.
// Grounded on original_source/src/contract_info.rs's ContractInfoArgs/
// Contract/contract_info.
package contract

import (
	"bytes"
	"sort"

	"github.com/cdump/evmole/internal/arguments"
	"github.com/cdump/evmole/internal/cfg"
	"github.com/cdump/evmole/internal/mutability"
	"github.com/cdump/evmole/internal/selectors"
)

// Function describes one publicly callable function recovered from the
// bytecode.
type Function struct {
	// Selector is the 4-byte function selector.
	Selector [4]byte

	// BytecodeOffset is where the dispatcher jumps on a selector match.
	BytecodeOffset int

	// Arguments is the inferred ABI argument-type list ("uint256,address"),
	// nil unless ContractInfoArgs.WithArguments was set.
	Arguments *string

	// StateMutability is nil unless ContractInfoArgs.WithStateMutability
	// was set.
	StateMutability *mutability.StateMutability
}

// BasicBlock is a (start, end) byte-offset pair, the public shape of one
// cfg.Block with its internal edge data stripped.
type BasicBlock struct {
	Start int
	End   int
}

// Contract is the aggregate result of analyzing one contract's bytecode;
// every field is nil unless the corresponding ContractInfoArgs.With* was
// requested.
type Contract struct {
	Functions []Function

	// Storage is always nil: no storage-layout resolution algorithm was
	// available to ground this component on (see DESIGN.md). Carried as a
	// field, per original_source/src/contract_info.rs's Contract.storage,
	// so callers that branch on ContractInfoArgs.WithStorage() still
	// compile against the same shape the upstream analyzer exposes.
	Storage interface{}

	Disassembled []cfg.DisasmOp

	BasicBlocks []BasicBlock

	ControlFlowGraph *cfg.ControlFlowGraph
}

// ContractInfoArgs configures which analyses Analyze runs. Zero value asks
// for nothing; use the With* builder methods to opt in, mirroring
// contract_info.rs's ContractInfoArgs.
type ContractInfoArgs struct {
	code []byte

	needSelectors        bool
	needArguments        bool
	needStateMutability  bool
	needStorage          bool
	needDisassemble      bool
	needBasicBlocks      bool
	needControlFlowGraph bool

	// GasLimit bounds the selector-discovery pass and each per-function
	// analysis pass; 0 selects each analysis's own default.
	GasLimit uint64
}

// NewContractInfoArgs creates a builder over deployed contract bytecode.
func NewContractInfoArgs(code []byte) *ContractInfoArgs {
	return &ContractInfoArgs{code: code}
}

// WithSelectors enables function-selector discovery.
func (a *ContractInfoArgs) WithSelectors() *ContractInfoArgs {
	a.needSelectors = true
	return a
}

// WithArguments enables ABI argument-type inference (implies WithSelectors).
func (a *ContractInfoArgs) WithArguments() *ContractInfoArgs {
	a.needSelectors = true
	a.needArguments = true
	return a
}

// WithStateMutability enables state-mutability inference (implies
// WithSelectors).
func (a *ContractInfoArgs) WithStateMutability() *ContractInfoArgs {
	a.needSelectors = true
	a.needStateMutability = true
	return a
}

// WithStorage enables storage-layout extraction (implies WithSelectors and
// WithArguments). Always resolves to a nil Contract.Storage; see its
// doc comment.
func (a *ContractInfoArgs) WithStorage() *ContractInfoArgs {
	a.needSelectors = true
	a.needArguments = true
	a.needStorage = true
	return a
}

// WithDisassemble enables full bytecode disassembly.
func (a *ContractInfoArgs) WithDisassemble() *ContractInfoArgs {
	a.needDisassemble = true
	return a
}

// WithBasicBlocks enables basic-block extraction.
func (a *ContractInfoArgs) WithBasicBlocks() *ContractInfoArgs {
	a.needBasicBlocks = true
	return a
}

// WithControlFlowGraph enables control-flow-graph construction (implies
// WithBasicBlocks).
func (a *ContractInfoArgs) WithControlFlowGraph() *ContractInfoArgs {
	a.needBasicBlocks = true
	a.needControlFlowGraph = true
	return a
}

// Analyze runs every analysis requested via the With* builder methods over
// args's bytecode and returns the aggregated result. Grounded on
// contract_info.rs's contract_info().
func Analyze(args *ContractInfoArgs) Contract {
	var out Contract

	if args.needSelectors {
		found, _ := selectors.FunctionSelectors(args.code, args.GasLimit)

		sels := make([][4]byte, 0, len(found))
		for sel := range found {
			sels = append(sels, sel)
		}
		sort.Slice(sels, func(i, j int) bool {
			return bytes.Compare(sels[i][:], sels[j][:]) < 0
		})

		fns := make([]Function, 0, len(sels))
		for _, sel := range sels {
			off := found[sel]
			fn := Function{Selector: sel, BytecodeOffset: off}

			if args.needArguments {
				a := arguments.FunctionArguments(args.code, sel, args.GasLimit)
				fn.Arguments = &a
			}
			if args.needStateMutability {
				m := mutability.FunctionStateMutability(args.code, sel, args.GasLimit)
				fn.StateMutability = &m
			}
			fns = append(fns, fn)
		}
		out.Functions = fns
	}

	// out.Storage stays nil regardless of args.needStorage; see its field
	// doc comment.

	if args.needDisassemble {
		out.Disassembled = cfg.Disassemble(args.code)
	}

	if args.needBasicBlocks {
		blocks := cfg.BasicBlocks(args.code)

		bb := make([]BasicBlock, 0, len(blocks))
		for _, b := range blocks {
			bb = append(bb, BasicBlock{Start: b.Start, End: b.End})
		}
		sort.Slice(bb, func(i, j int) bool { return bb[i].Start < bb[j].Start })
		out.BasicBlocks = bb

		if args.needControlFlowGraph {
			g := cfg.BuildControlFlowGraph(args.code, blocks)
			out.ControlFlowGraph = &g
		}
	}

	return out
}
