package cfg

// BasicBlocks splits code into its initial, un-resolved basic blocks: every
// JUMP/JUMPI/terminator starts a new block, and static jump targets (the
// PUSH-then-JUMP idiom) are already filled in.
func BasicBlocks(code []byte) map[int]*Block {
	return InitialBlocks(code)
}

// BuildControlFlowGraph resolves every DynamicJump/DynamicJumpi block in
// blocks as far as the energy budget allows, then prunes to only the
// blocks reachable from pc=0. Grounded on control_flow_graph/mod.rs's
// control_flow_graph.
func BuildControlFlowGraph(code []byte, blocks map[int]*Block) ControlFlowGraph {
	blocks = ResolveDynamicJumps(code, blocks)

	reachable := GetReachableNodes(blocks, 0, nil)
	for start := range blocks {
		if _, ok := reachable[start]; !ok {
			delete(blocks, start)
		}
	}
	return ControlFlowGraph{Blocks: blocks}
}
