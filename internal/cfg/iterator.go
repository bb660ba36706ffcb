package cfg

import (
	"encoding/hex"

	"github.com/cdump/evmole/internal/opcodes"
)

// CodeOp is one decoded instruction: its opcode, byte offset, metadata, and
// immediate argument bytes (empty for non-PUSH opcodes).
type CodeOp struct {
	PC  int
	Op  opcodes.OpCode
	Info opcodes.Info
	Arg []byte
}

// IterateCode decodes code starting at pc, stopping at the first truncated
// instruction (an opcode whose immediate runs past the end of code).
// Unknown opcodes decode as a 1-byte instruction with Info.Known false,
// matching the teacher's disassembler rather than erroring, so callers can
// decide for themselves how to treat them. Grounded on
// original_source/src/evm/code_iterator.rs's iterate_code.
func IterateCode(code []byte, pc int) []CodeOp {
	var ops []CodeOp
	for pc < len(code) {
		op := opcodes.OpCode(code[pc])
		info := opcodes.Table[op]
		if pc+info.Size > len(code) {
			break
		}
		ops = append(ops, CodeOp{
			PC:   pc,
			Op:   op,
			Info: info,
			Arg:  code[pc+1 : pc+info.Size],
		})
		pc += info.Size
	}
	return ops
}

// DisasmOp is one line of a disassembly listing.
type DisasmOp struct {
	PC   int
	Text string
}

// Disassemble renders code as a sequence of (offset, mnemonic [+ hex arg])
// lines. Grounded on code_iterator.rs's disassemble.
func Disassemble(code []byte) []DisasmOp {
	ops := IterateCode(code, 0)
	out := make([]DisasmOp, 0, len(ops))
	for _, op := range ops {
		text := op.Info.Name
		if len(op.Arg) > 0 {
			text += " " + hex.EncodeToString(op.Arg)
		}
		out = append(out, DisasmOp{PC: op.PC, Text: text})
	}
	return out
}
