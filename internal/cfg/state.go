package cfg

import (
	"fmt"
	"strings"

	"github.com/cdump/evmole/internal/opcodes"
)

// symKind distinguishes the four shapes a symbolic stack slot can take.
type symKind int

const (
	symBefore symKind = iota
	symPushed
	symJumpdest
	symOther
)

// StackSym is a symbolic stack value tracked during a block's local
// execution: either "whatever was at this depth before the block started"
// (Before), a small literal pushed in this block (Pushed), that literal
// resolved to a JUMPDEST (Jumpdest), or "some other opcode's result"
// (Other, tagged by the producing PC only — its actual value is unknown).
// Comparable so it can be used as a set element. Grounded on
// control_flow_graph/state.rs's StackSym.
type StackSym struct {
	Kind   symKind
	Before int    // symBefore: depth below the block's entry stack
	Pushed [4]byte // symPushed/symJumpdest
	PC     int    // symOther/symJumpdest
}

func symBeforeSym(n int) StackSym   { return StackSym{Kind: symBefore, Before: n} }
func symPushedSym(v [4]byte) StackSym { return StackSym{Kind: symPushed, Pushed: v} }
func symJumpdestSym(to int) StackSym { return StackSym{Kind: symJumpdest, PC: to} }
func symOtherSym(pc int) StackSym    { return StackSym{Kind: symOther, PC: pc} }

// allFF is the literal PUSH4 0xffffffff mask State.realExec special-cases
// for AND (the Solidity "mask to uint32" idiom that should not taint the
// selector/jump-target symbol it's ANDed against).
var allFF = [4]byte{0xff, 0xff, 0xff, 0xff}

// State is a block-local abstract stack: a LIFO of StackSym, where entries
// at the bottom may be placeholders ("Before(n)": the value that was n
// slots below the top when this block was entered, not yet known until
// resolved against a parent). Grounded on control_flow_graph/state.rs's
// State.
type State struct {
	stack []StackSym
}

// NewState returns a fresh state for a block entered with an empty local
// history: its only entry says "slot 0 is whatever was on top before".
func NewState() *State {
	return &State{stack: []StackSym{symBeforeSym(0)}}
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	cp := make([]StackSym, len(s.stack))
	copy(cp, s.stack)
	return &State{stack: cp}
}

// Key returns a canonical string encoding, usable as a map key, since Go
// slices aren't themselves comparable.
func (s *State) Key() string {
	var b strings.Builder
	for _, sym := range s.stack {
		fmt.Fprintf(&b, "%d:%d:%x:%d|", sym.Kind, sym.Before, sym.Pushed, sym.PC)
	}
	return b.String()
}

// GetStack returns the symbol at depth pos (0 = top), synthesizing a
// Before symbol relative to the block's entry stack if pos reaches below
// what's been recorded.
func (s *State) GetStack(pos int) StackSym {
	slen := len(s.stack)
	if pos < slen {
		return s.stack[slen-pos-1]
	}
	if s.stack[0].Kind != symBefore {
		panic("first stack element is not Before")
	}
	b := s.stack[0].Before
	return symBeforeSym(b + 1 + (pos - slen))
}

// ResolveWithParent substitutes every Before(i) symbol in s with the
// corresponding concrete symbol from parent's stack, producing a state
// that no longer depends on an unresolved predecessor.
func (s *State) ResolveWithParent(parent *State) *State {
	if s.stack[0].Kind != symBefore {
		panic("first stack element is not Before")
	}
	baseBefore := s.stack[0].Before

	parentLen := len(parent.stack)
	extra := 0
	if parentLen > baseBefore {
		extra = parentLen - baseBefore - 1
	}
	newStack := make([]StackSym, 0, len(s.stack)+extra)
	if parentLen > baseBefore {
		newStack = append(newStack, parent.stack[:parentLen-baseBefore-1]...)
	}
	for _, el := range s.stack {
		if el.Kind == symBefore {
			newStack = append(newStack, parent.GetStack(el.Before))
		} else {
			newStack = append(newStack, el)
		}
	}
	return &State{stack: newStack}
}

// Exec runs code starting at start against this state, mutating it in
// place, and returns the jump-destination symbol if execution ended in a
// JUMP/JUMPI (nil otherwise: a terminator, an unresolvable JUMPDEST
// boundary, or falling off the end of code). After executing, redundant
// leading Before(n) placeholders are trimmed so states that differ only in
// how far they look past their entry point still compare equal.
func (s *State) Exec(code []byte, start int) *StackSym {
	if s.stack[0].Kind != symBefore {
		panic("first stack element is not Before")
	}
	r := s.realExec(code, start)
	if s.stack[0].Kind != symBefore {
		panic("first stack element is not Before")
	}

	baseBefore := s.stack[0].Before
	prefixLen := 0
	for pos, el := range s.stack {
		if el.Kind == symBefore && el.Before+pos == baseBefore && el.Before > 0 {
			prefixLen++
		} else {
			break
		}
	}
	if prefixLen > 1 {
		s.stack = append(s.stack[:0:0], s.stack[prefixLen-1:]...)
	}
	return r
}

func (s *State) realExec(code []byte, startPC int) *StackSym {
	for _, co := range IterateCode(code, startPC) {
		pc, op, opi := co.PC, co.Op, co.Info

		if len(s.stack) < opi.StackIn+1 {
			needed := opi.StackIn + 1 - len(s.stack)
			if s.stack[0].Kind != symBefore {
				panic("expected first stack element to be Before")
			}
			base := s.stack[0].Before
			prefix := make([]StackSym, needed)
			for i := 0; i < needed; i++ {
				prefix[i] = symBeforeSym(base + needed - i)
			}
			s.stack = append(prefix, s.stack...)
		}

		switch {
		case op >= opcodes.PUSH1 && op <= opcodes.PUSH4:
			n := int(op - opcodes.PUSH0)
			var arg [4]byte
			copy(arg[4-n:], code[pc+1:pc+1+n])
			val := int(arg[0])<<24 | int(arg[1])<<16 | int(arg[2])<<8 | int(arg[3])
			if val < len(code) && opcodes.OpCode(code[val]) == opcodes.JUMPDEST {
				s.push(symJumpdestSym(val))
			} else {
				s.push(symPushedSym(arg))
			}

		case op >= opcodes.DUP1 && op <= opcodes.DUP16:
			n := int(op-opcodes.DUP1) + 1
			s.push(s.stack[len(s.stack)-n])

		case op >= opcodes.SWAP1 && op <= opcodes.SWAP16:
			n := int(op-opcodes.SWAP1) + 1
			top := len(s.stack) - 1
			s.stack[top], s.stack[top-n] = s.stack[top-n], s.stack[top]

		case op == opcodes.AND:
			a := s.pop()
			b := s.pop()
			switch {
			case a.Kind == symPushed && a.Pushed == allFF:
				s.push(b)
			case b.Kind == symPushed && b.Pushed == allFF:
				s.push(a)
			default:
				s.push(symOtherSym(pc))
			}

		case op == opcodes.JUMP:
			to := s.pop()
			return &to

		case op == opcodes.JUMPI:
			to := s.pop()
			s.pop() // condition
			return &to

		case op == opcodes.JUMPDEST:
			if pc != startPC {
				return nil
			}

		case op == opcodes.REVERT || op == opcodes.RETURN || op == opcodes.STOP ||
			op == opcodes.SELFDESTRUCT || op == opcodes.INVALID:
			for i := 0; i < opi.StackIn; i++ {
				s.pop()
			}
			for i := 0; i < opi.StackOut; i++ {
				s.push(symOtherSym(pc))
			}
			return nil

		default:
			for i := 0; i < opi.StackIn; i++ {
				s.pop()
			}
			for i := 0; i < opi.StackOut; i++ {
				s.push(symOtherSym(pc))
			}
		}
	}
	return nil
}

func (s *State) push(sym StackSym) { s.stack = append(s.stack, sym) }

func (s *State) pop() StackSym {
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v
}
