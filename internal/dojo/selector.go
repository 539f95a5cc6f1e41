package dojo

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

var mask250 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Selector returns the starknet keccak of an entrypoint name: keccak256
// truncated to its low 250 bits, as a 0x-prefixed hex felt.
func Selector(name string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(name))
	n := new(big.Int).SetBytes(h.Sum(nil))
	n.And(n, mask250)
	return "0x" + n.Text(16)
}
