// Package modular provides the exact integer arithmetic the Paillier
// cryptosystem is built on: prime search, the extended Euclidean algorithm,
// gcd/lcm and modular multiplicative inverses.
//
// All functions are pure and operate on math/big integers. Inputs are never
// modified; every result is freshly allocated.
package modular
