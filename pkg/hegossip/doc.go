// Package hegossip holds the shared configuration and error taxonomy for a
// sensor-grid consensus protocol whose fused values can stay Paillier
// encrypted end to end.
//
// The protocol itself lives in the subpackages:
//
//   - modular: primality search, extended Euclid, gcd/lcm, modular inverse
//   - paillier: key generation and the homomorphic operations
//   - quant: fixed-point encoding of measurements and fusion weights
//   - consensus: grid nodes and the broadcast/fuse round
//
// A Config is built once, validated, and handed to every constructor. There is
// no package-level mutable state.
package hegossip
