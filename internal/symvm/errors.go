package symvm

import "errors"

// Error taxonomy mirrors spec.md §7 and the teacher's core/vm/interpreter.go
// sentinel-error style (ErrStackUnderflow, ErrStackOverflow, ...).
var (
	ErrStackUnderflow = errors.New("symvm: stack underflow")
	ErrStackOverflow  = errors.New("symvm: stack overflow")
	ErrUnsupportedOp  = errors.New("symvm: unsupported opcode or operand")
	ErrGasOverrun     = errors.New("symvm: gas limit exceeded")
)
