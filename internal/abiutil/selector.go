// Package abiutil provides small ABI helpers: computing a function selector
// from its canonical signature. No other package in this module imports it.
// Grounded on the teacher's pkg/crypto/keccak.go.
package abiutil

import "golang.org/x/crypto/sha3"

// Selector returns the 4-byte function selector for a canonical signature
// string (e.g. "transfer(address,uint256)"): the first 4 bytes of the
// Keccak-256 hash of its ASCII bytes.
func Selector(signature string) [4]byte {
	d := sha3.NewLegacyKeccak256()
	d.Write([]byte(signature))
	sum := d.Sum(nil)

	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel
}
