package paillier

import "math/big"

// RawCiphertext wraps c without VerifyCiphertext so tests can reach the range
// checks of the operations themselves.
func RawCiphertext(c *big.Int) *Ciphertext {
	return &Ciphertext{c: c}
}
