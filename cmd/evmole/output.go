package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cdump/evmole/internal/contract"
)

// printContract renders a contract.Contract as human-readable text, one
// section per analysis that was requested.
func printContract(w io.Writer, info contract.Contract, opts options) {
	if opts.selectors {
		fmt.Fprintf(w, "functions (%d):\n", len(info.Functions))
		for _, fn := range info.Functions {
			fmt.Fprintf(w, "  0x%s @ %d", hex.EncodeToString(fn.Selector[:]), fn.BytecodeOffset)
			if fn.Arguments != nil {
				fmt.Fprintf(w, " (%s)", *fn.Arguments)
			}
			if fn.StateMutability != nil {
				fmt.Fprintf(w, " [%s]", fn.StateMutability.String())
			}
			fmt.Fprintln(w)
		}
	}

	if opts.disassemble {
		fmt.Fprintln(w, "disassembly:")
		for _, op := range info.Disassembled {
			fmt.Fprintf(w, "  %5d: %s\n", op.PC, op.Text)
		}
	}

	if opts.basicBlocks {
		fmt.Fprintf(w, "basic blocks (%d):\n", len(info.BasicBlocks))
		for _, b := range info.BasicBlocks {
			fmt.Fprintf(w, "  [%d, %d]\n", b.Start, b.End)
		}
	}

	if opts.controlFlowGraph && info.ControlFlowGraph != nil {
		fmt.Fprintf(w, "control flow graph (%d reachable blocks):\n", len(info.ControlFlowGraph.Blocks))
	}
}
