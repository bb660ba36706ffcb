package mutability

import "github.com/cdump/evmole/internal/opcodes"

// opNotView lists opcodes whose presence rules out both view and pure:
// anything that can mutate state. Grounded on state_mutability/mod.rs's
// OP_NOT_VIEW.
var opNotView = lookupTable(
	opcodes.CALL, opcodes.CALLCODE, opcodes.CREATE, opcodes.CREATE2,
	opcodes.DELEGATECALL, opcodes.SELFDESTRUCT, opcodes.SSTORE,
)

// opNotPure lists opcodes that read environment/chain state: these rule
// out pure but not view. Grounded on state_mutability/mod.rs's
// OP_NOT_PURE.
var opNotPure = lookupTable(
	opcodes.BALANCE, opcodes.BASEFEE, opcodes.BLOBBASEFEE, opcodes.BLOBHASH,
	opcodes.BLOCKHASH, opcodes.CALLER, opcodes.CHAINID, opcodes.COINBASE,
	opcodes.EXTCODECOPY, opcodes.EXTCODEHASH, opcodes.EXTCODESIZE,
	opcodes.GASLIMIT, opcodes.GASPRICE, opcodes.NUMBER, opcodes.ORIGIN,
	opcodes.PREVRANDAO, opcodes.SELFBALANCE, opcodes.SLOAD,
	opcodes.STATICCALL, opcodes.TIMESTAMP,
)

func lookupTable(ops ...opcodes.OpCode) [256]bool {
	var t [256]bool
	for _, op := range ops {
		t[op] = true
	}
	return t
}
