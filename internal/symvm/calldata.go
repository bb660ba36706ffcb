package symvm

import "github.com/holiman/uint256"

// CallData abstracts the input bytes of a call. Three concrete
// implementations exist in this core (spec.md §4.3): a selector-discovery
// placeholder, a mutability concrete-selector, and an arguments
// implementation that labels only the selector word and reads every other
// offset as zero. Grounded on
// original_source/src/evm/calldata.rs's `CallData<T>` trait.
type CallData[L comparable] interface {
	// Load32 returns the 32-byte word at offset.
	Load32(offset *uint256.Int) Element[L]
	// Load returns up to size bytes starting at offset, plus a single
	// label describing the whole range (implementations only track one
	// label per load, matching the Rust trait's `Option<T>` return).
	Load(offset, size *uint256.Int) ([]byte, *L, error)
	// Len returns the calldata's reported length (often a large sentinel
	// rather than a real length, to let length-bounded loops degenerate).
	Len() *uint256.Int
	// Selector returns the 4-byte function selector this calldata encodes.
	Selector() [4]byte
}
