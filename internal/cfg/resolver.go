package cfg

import (
	"sort"
	"strconv"
	"strings"
)

func pathKey(path []int) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}

func sortedBlockKeys(blocks map[int]*Block) []int {
	keys := make([]int, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type pathState struct {
	path  []int
	state *State
}

// parentIndex is an insertion-order-preserving map from a path (keyed by
// its encoded string) to the state that held at the end of that path, one
// per jump destination.
type parentIndex struct {
	order   []string
	entries map[string]pathState
}

func newParentIndex() *parentIndex {
	return &parentIndex{entries: make(map[string]pathState)}
}

func (p *parentIndex) insert(path []int, state *State) {
	k := pathKey(path)
	if _, ok := p.entries[k]; !ok {
		p.order = append(p.order, k)
	}
	p.entries[k] = pathState{path: path, state: state}
}

func (p *parentIndex) contains(path []int) bool {
	_, ok := p.entries[pathKey(path)]
	return ok
}

// revIdx is the resolver's working index, grounded on resolver.rs's RevIdx.
type revIdx struct {
	states    map[int]*State
	parents   map[int]*parentIndex
	istate    map[int]map[string]map[StackSym]struct{}
	badpaths  map[string]struct{}
	reachable0 map[int]struct{}
}

func newRevIdx() *revIdx {
	return &revIdx{
		states:   make(map[int]*State),
		parents:  make(map[int]*parentIndex),
		istate:   make(map[int]map[string]map[StackSym]struct{}),
		badpaths: make(map[string]struct{}),
	}
}

func (r *revIdx) insertState(start int, state *State) { r.states[start] = state }

func (r *revIdx) getState(code []byte, start int) *State {
	if s, ok := r.states[start]; ok {
		return s
	}
	s := NewState()
	s.Exec(code, start)
	r.states[start] = s
	return s
}

func (r *revIdx) insertDirectParent(to, from int, state *State) {
	pi, ok := r.parents[to]
	if !ok {
		pi = newParentIndex()
		r.parents[to] = pi
	}
	pi.insert([]int{from}, state)
}

// insertPathParent returns true if this path to `to` is new.
func (r *revIdx) insertPathParent(to int, path []int, state *State) bool {
	r.reachable0[to] = struct{}{}
	pi, ok := r.parents[to]
	if !ok {
		pi = newParentIndex()
		r.parents[to] = pi
	}
	if pi.contains(path) {
		return false
	}
	cp := append([]int(nil), path...)
	pi.insert(cp, state)
	return true
}

func (r *revIdx) insertBadpath(path []int) bool {
	k := pathKey(path)
	if _, ok := r.badpaths[k]; ok {
		return false
	}
	r.badpaths[k] = struct{}{}
	return true
}

func (r *revIdx) getParents(to int) []pathState {
	pi, ok := r.parents[to]
	if !ok {
		return nil
	}
	out := make([]pathState, 0, len(pi.order))
	for _, k := range pi.order {
		ps := pi.entries[k]
		if _, ok := r.reachable0[ps.path[len(ps.path)-1]]; ok {
			out = append(out, ps)
		}
	}
	return out
}

func (r *revIdx) addInterState(last int, state *State, jmp StackSym) bool {
	m, ok := r.istate[last]
	if !ok {
		m = make(map[string]map[StackSym]struct{})
		r.istate[last] = m
	}
	key := state.Key()
	set, ok := m[key]
	if !ok {
		m[key] = map[StackSym]struct{}{jmp: {}}
		return true
	}
	if _, ok := set[jmp]; ok {
		return false
	}
	set[jmp] = struct{}{}
	return true
}

func (r *revIdx) clearInterState() {
	r.istate = make(map[int]map[string]map[StackSym]struct{})
}

const maxPathLen = 256

// resolveDynamicJumpPath recursively walks parent blocks of path's tail,
// substituting each parent's concrete stack symbol for the Before(n)
// placeholder at stackPos, until it resolves to a JUMPDEST (success), a
// non-jump value (a dead end: record as a bad path), or another Before
// (recurse one block further back). Bounded by energyLimit so pathological
// fan-out (many parents, many levels) can't run unbounded. Grounded on
// resolver.rs's resolve_dynamic_jump_path.
func resolveDynamicJumpPath(idx *revIdx, path []int, stackPos int, state *State, energyLimit int) ([]DynamicJump, int) {
	energyUsed := 0
	var dynamicJumps []DynamicJump

	for _, ps := range idx.getParents(path[len(path)-1]) {
		energyUsed++
		if energyUsed > energyLimit {
			break
		}

		newPath := make([]int, 0, len(path)+len(ps.path))
		newPath = append(newPath, path...)
		newPath = append(newPath, ps.path...)

		if len(newPath) > maxPathLen {
			if idx.insertBadpath(newPath) {
				dynamicJumps = append(dynamicJumps, DynamicJump{Path: newPath})
			}
			continue
		}

		jumpSym := ps.state.GetStack(stackPos)
		newState := state.ResolveWithParent(ps.state)

		if !idx.addInterState(newPath[len(newPath)-1], newState, jumpSym) {
			continue
		}

		switch jumpSym.Kind {
		case symBefore:
			jumps, used := resolveDynamicJumpPath(idx, newPath, jumpSym.Before, newState, energyLimit-energyUsed)
			energyUsed += used
			dynamicJumps = append(dynamicJumps, jumps...)

		case symJumpdest:
			to := jumpSym.PC
			if idx.insertPathParent(to, newPath, newState) {
				toCopy := to
				dynamicJumps = append(dynamicJumps, DynamicJump{Path: newPath, To: &toCopy})
			}

		default: // symPushed, symOther
			if idx.insertBadpath(newPath) {
				dynamicJumps = append(dynamicJumps, DynamicJump{Path: newPath})
			}
		}
	}
	return dynamicJumps, energyUsed
}

type dynamicEntry struct {
	start    int
	stackPos int
}

// ResolveDynamicJumps attempts to convert every DynamicJump/DynamicJumpi
// block into a static Jump/Jumpi by symbolically walking each such block's
// local stack effect, then (when that alone isn't enough) recursively
// resolving the Before(n) placeholder it lands on against the block's
// parents — and their parents — up to a total energy budget. Blocks whose
// dynamic jump fully resolves to a single consistent target are rewritten
// as static jumps; the rest keep their resolved-so-far candidate list.
// Grounded on resolver.rs's resolve_dynamic_jumps.
func ResolveDynamicJumps(code []byte, blocks map[int]*Block) map[int]*Block {
	var stackPos []dynamicEntry
	idx := newRevIdx()
	idx.reachable0 = map[int]struct{}{0: {}}

	for _, start := range sortedBlockKeys(blocks) {
		block := blocks[start]
		if block.Type.Kind != KindDynamicJump && block.Type.Kind != KindDynamicJumpi {
			continue
		}
		state := NewState()
		sym := state.Exec(code, block.Start)
		if sym != nil {
			switch sym.Kind {
			case symJumpdest:
				to := sym.PC
				if block.Type.Kind == KindDynamicJump {
					block.Type = BlockType{Kind: KindJump, To: to}
				} else {
					block.Type = BlockType{Kind: KindJumpi, TrueTo: to, FalseTo: block.Type.FalseTo}
				}
			case symBefore:
				stackPos = append(stackPos, dynamicEntry{block.Start, sym.Before})
			}
		}
		idx.insertState(block.Start, state)
	}

	for _, start := range sortedBlockKeys(blocks) {
		block := blocks[start]
		state := idx.getState(code, block.Start)
		switch block.Type.Kind {
		case KindJump:
			idx.insertDirectParent(block.Type.To, block.Start, state)
		case KindJumpi:
			idx.insertDirectParent(block.Type.TrueTo, block.Start, state)
			idx.insertDirectParent(block.Type.FalseTo, block.Start, state)
		case KindDynamicJumpi:
			idx.insertDirectParent(block.Type.FalseTo, block.Start, state)
		}
	}

	const energyLimit = 500_000
	totalEnergyUsed := 0

	for iter := 0; iter < 128; iter++ {
		if totalEnergyUsed >= energyLimit {
			break
		}
		reachable := GetReachableNodes(blocks, 0, nil)
		idx.reachable0 = reachable

		foundNewPaths := false
		for _, pe := range stackPos {
			if _, ok := reachable[pe.start]; !ok {
				continue
			}
			state := idx.getState(code, pe.start).Clone()
			jumps, energyUsed := resolveDynamicJumpPath(idx, []int{pe.start}, pe.stackPos, state, energyLimit-totalEnergyUsed)
			totalEnergyUsed += energyUsed

			if len(jumps) > 0 {
				foundNewPaths = true
				block := blocks[pe.start]
				switch block.Type.Kind {
				case KindDynamicJump:
					block.Type.DynamicTo = append(block.Type.DynamicTo, jumps...)
				case KindDynamicJumpi:
					block.Type.DynamicTrueTo = append(block.Type.DynamicTrueTo, jumps...)
				}
			}
			idx.clearInterState()
		}
		if !foundNewPaths {
			break
		}
	}

	for _, pe := range stackPos {
		block := blocks[pe.start]
		if block.Type.Kind != KindDynamicJump || len(block.Type.DynamicTo) == 0 {
			continue
		}
		allResolved := true
		for _, dj := range block.Type.DynamicTo {
			if dj.To == nil {
				allResolved = false
				break
			}
		}
		if !allResolved {
			continue
		}
		first := *block.Type.DynamicTo[0].To
		same := true
		for _, dj := range block.Type.DynamicTo {
			if *dj.To != first {
				same = false
				break
			}
		}
		if same {
			block.Type = BlockType{Kind: KindJump, To: first}
		}
	}

	return blocks
}
