// Package paillier implements the Paillier cryptosystem on math/big.
//
// The Paillier cryptosystem is a probabilistic asymmetric scheme with additive
// homomorphic properties: computations on ciphertexts map to computations on
// the hidden plaintexts, so parties holding only the public key can combine
// encrypted values without ever learning them.
//
// # Key Operations
//
//   - KeyGen(): Create a new keypair with a modulus of the requested bit length
//   - KeyGenFromPrimes(): Create a keypair from two fixed primes
//   - Encrypt(): Encrypt a signed plaintext with fresh randomness
//   - Decrypt(): Decrypt a ciphertext (requires the secret key)
//   - Add() / Subtract(): Homomorphic addition and subtraction
//   - ScalarMultiply(): Multiply the hidden plaintext by a public integer
//   - VerifyCiphertext(): Check that a ciphertext is a unit in [0, n²)
//
// # Homomorphic Properties
//
//   - Additive homomorphism: E(m1) * E(m2) = E(m1 + m2)
//   - Scalar multiplication: E(m)^k = E(k * m)
//
// # Signed Plaintexts
//
// Plaintexts live in Z_n. Values with |m| < n/2 are accepted; negative values
// are stored as m + n and mapped back on decryption, so sums and products stay
// correct as long as every intermediate result remains inside (-n/2, n/2).
// Leaving that range does not raise an error: the value wraps and decrypts
// with the wrong sign. Callers budget bit growth up front (see hegossip.Config).
//
// # Usage Example
//
//	pk, sk, err := paillier.KeyGen(192)
//	if err != nil {
//	    return err
//	}
//
//	c1, _ := paillier.Encrypt(pk, big.NewInt(3))
//	c2, _ := paillier.Encrypt(pk, big.NewInt(5))
//	sum := paillier.Add(pk, c1, c2)
//	m, _ := paillier.Decrypt(sk, sum) // m == 8
//
// All functions are stateless and take keys explicitly, so a single public key
// can be shared by many goroutines without synchronization.
//
// Key sizes in this module are chosen for simulation speed, not security.
package paillier
