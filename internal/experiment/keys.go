package experiment

import (
	"math/big"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/paillier"
)

// Primes of the built-in key. Their product has 197 bits; it is meant for
// reproducible simulations and offers no security.
const (
	fixedP = "282174488599599500573849980909"
	fixedQ = "362736035870515331128527330659"
)

// FixedKey returns the built-in keypair with a fresh random generator.
func FixedKey() (*paillier.PublicKey, *paillier.SecretKey, error) {
	p, _ := new(big.Int).SetString(fixedP, 10)
	q, _ := new(big.Int).SetString(fixedQ, 10)
	return paillier.KeyGenFromPrimes(p, q)
}

// Keys returns the keypair a simulation with cfg and s encrypts under, or nil
// keys when encryption is disabled.
func Keys(cfg hegossip.Config, s Settings) (*paillier.PublicKey, *paillier.SecretKey, error) {
	switch {
	case !cfg.EncryptionEnabled:
		return nil, nil, nil
	case s.FixedKey:
		return FixedKey()
	default:
		bits := int(cfg.PlaintextModulusBits)
		bits += bits % 2
		return paillier.KeyGen(bits)
	}
}
