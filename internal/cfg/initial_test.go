package cfg

import "testing"

func TestInitialBlocks_StaticJump(t *testing.T) {
	code := []byte{
		0x60, 0x03, // PUSH1 3
		0x56,       // JUMP
		0x5b,       // JUMPDEST
		0x00,       // STOP
	}
	blocks := InitialBlocks(code)

	b0, ok := blocks[0]
	if !ok {
		t.Fatalf("missing block at 0: %v", blocks)
	}
	if b0.End != 2 || b0.Type.Kind != KindJump || b0.Type.To != 3 {
		t.Fatalf("block 0 = %+v, want Jump{To:3} ending at 2", b0)
	}

	b3, ok := blocks[3]
	if !ok {
		t.Fatalf("missing block at 3: %v", blocks)
	}
	if b3.End != 4 || b3.Type.Kind != KindTerminate || !b3.Type.Success {
		t.Fatalf("block 3 = %+v, want successful Terminate ending at 4", b3)
	}
}

func TestInitialBlocks_InvalidJumpTarget(t *testing.T) {
	code := []byte{
		0x60, 0x09, // PUSH1 9 (not a JUMPDEST)
		0x56, // JUMP
		0x00, // STOP (dead code, never reached via this path)
	}
	blocks := InitialBlocks(code)
	b0 := blocks[0]
	if b0.Type.Kind != KindJump || b0.Type.To < InvalidJumpStart {
		t.Fatalf("block 0 = %+v, want Jump redirected to an invalid-jump sentinel", b0)
	}
}

func TestBuildControlFlowGraph_KeepsJumpTarget(t *testing.T) {
	code := []byte{
		0x60, 0x03, // PUSH1 3
		0x56,       // JUMP
		0x5b,       // JUMPDEST  <- pc 3, reached only via the jump, not by fallthrough
		0x00,       // STOP
	}
	blocks := BasicBlocks(code)
	cfgRes := BuildControlFlowGraph(code, blocks)
	if _, ok := cfgRes.Blocks[0]; !ok {
		t.Fatalf("expected block 0 to survive pruning: %v", cfgRes.Blocks)
	}
	if _, ok := cfgRes.Blocks[3]; !ok {
		t.Fatalf("expected block 3 (jump target) to survive pruning: %v", cfgRes.Blocks)
	}
}
