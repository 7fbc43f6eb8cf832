package paillier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/modular"
)

// MinKeyBits is the smallest modulus KeyGen accepts.
const MinKeyBits = 16

// maxGeneratorAttempts bounds the search for a generator g whose L(g^λ mod n²)
// is invertible modulo n. A random g fails with probability about 1/p + 1/q.
const maxGeneratorAttempts = 64

var one = big.NewInt(1)

// PublicKey is the Paillier public key (n, g). It is immutable once created and
// safe to share between goroutines.
type PublicKey struct {
	N *big.Int
	G *big.Int

	nSquared *big.Int
	halfN    *big.Int
}

// SecretKey holds λ = lcm(p-1, q-1), μ = L(g^λ mod n²)^-1 mod n and the
// modulus n.
type SecretKey struct {
	Lambda *big.Int
	Mu     *big.Int
	N      *big.Int

	nSquared *big.Int
	halfN    *big.Int
}

// NewPublicKey validates (n, g) and returns a PublicKey. It is used when only
// the public half travels to another party.
func NewPublicKey(n, g *big.Int) (*PublicKey, error) {
	if n == nil || g == nil || n.Cmp(one) <= 0 {
		return nil, hegossip.Errorf("NewPublicKey", hegossip.ErrConfiguration, "modulus must be greater than one")
	}
	pk := newPublicKey(n, g)
	if g.Sign() <= 0 || g.Cmp(pk.nSquared) >= 0 {
		return nil, hegossip.Errorf("NewPublicKey", hegossip.ErrRange, "generator outside [1, n²)")
	}
	return pk, nil
}

func newPublicKey(n, g *big.Int) *PublicKey {
	n = new(big.Int).Set(n)
	return &PublicKey{
		N:        n,
		G:        new(big.Int).Set(g),
		nSquared: new(big.Int).Mul(n, n),
		halfN:    new(big.Int).Rsh(n, 1),
	}
}

// NSquared returns a copy of n².
func (pk *PublicKey) NSquared() *big.Int {
	return new(big.Int).Set(pk.nSquared)
}

// PlaintextBound returns ⌊n/2⌋. Encrypt accepts plaintexts with |m| strictly
// below it.
func (pk *PublicKey) PlaintextBound() *big.Int {
	return new(big.Int).Set(pk.halfN)
}

// BitLen returns the bit length of n.
func (pk *PublicKey) BitLen() int {
	return pk.N.BitLen()
}

// Equal reports whether both keys share the same n and g.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.N.Cmp(other.N) == 0 && pk.G.Cmp(other.G) == 0
}

func (pk *PublicKey) String() string {
	return fmt.Sprintf("paillier.PublicKey{bits=%d}", pk.BitLen())
}

// String never prints key material.
func (sk *SecretKey) String() string {
	return "paillier.SecretKey{[redacted]}"
}

// LogValue keeps secret keys out of structured logs.
func (sk *SecretKey) LogValue() slog.Value {
	return slog.StringValue("[redacted]")
}

// KeyGen creates a keypair whose modulus has exactly bits bits, drawing
// randomness from crypto/rand.
func KeyGen(bits int) (*PublicKey, *SecretKey, error) {
	return KeyGenWithReader(rand.Reader, bits)
}

// KeyGenWithReader is KeyGen with an explicit randomness source.
//
// Two primes of bits/2 bits are sampled; q is resampled until p != q and
// gcd(pq, (p-1)(q-1)) = 1. Those retries are internal and never surface.
func KeyGenWithReader(r io.Reader, bits int) (*PublicKey, *SecretKey, error) {
	if bits < MinKeyBits || bits%2 != 0 {
		return nil, nil, hegossip.Errorf("KeyGen", hegossip.ErrConfiguration,
			"key length must be an even number of bits >= %d, got %d", MinKeyBits, bits)
	}
	half := bits / 2

	p, err := randomPrime(r, half)
	if err != nil {
		return nil, nil, err
	}
	for {
		q, err := randomPrime(r, half)
		if err != nil {
			return nil, nil, err
		}
		if p.Cmp(q) == 0 || !coprimeOrders(p, q) {
			continue
		}
		pk, sk, err := KeyGenFromPrimesWithReader(r, p, q)
		if errors.Is(err, hegossip.ErrNoInverse) {
			continue
		}
		return pk, sk, err
	}
}

// KeyGenFromPrimes builds a keypair from fixed primes p and q with a random
// generator.
func KeyGenFromPrimes(p, q *big.Int) (*PublicKey, *SecretKey, error) {
	return KeyGenFromPrimesWithReader(rand.Reader, p, q)
}

// KeyGenFromPrimesWithReader is KeyGenFromPrimes with an explicit randomness
// source for the generator.
func KeyGenFromPrimesWithReader(r io.Reader, p, q *big.Int) (*PublicKey, *SecretKey, error) {
	if p == nil || q == nil || !p.ProbablyPrime(20) || !q.ProbablyPrime(20) {
		return nil, nil, hegossip.Errorf("KeyGenFromPrimes", hegossip.ErrConfiguration, "p and q must be prime")
	}
	if p.Cmp(q) == 0 {
		return nil, nil, hegossip.Errorf("KeyGenFromPrimes", hegossip.ErrConfiguration, "p and q must differ")
	}
	if !coprimeOrders(p, q) {
		return nil, nil, hegossip.Errorf("KeyGenFromPrimes", hegossip.ErrConfiguration, "gcd(pq, (p-1)(q-1)) != 1")
	}

	n := new(big.Int).Mul(p, q)
	nSquared := new(big.Int).Mul(n, n)
	pm1 := new(big.Int).Sub(p, one)
	qm1 := new(big.Int).Sub(q, one)
	lambda := modular.Lcm(pm1, qm1)

	for range maxGeneratorAttempts {
		g, err := randomUnit(r, nSquared, n)
		if err != nil {
			return nil, nil, err
		}
		u := new(big.Int).Exp(g, lambda, nSquared)
		mu, err := modular.ModularInverse(lFunc(u, n), n)
		if errors.Is(err, hegossip.ErrNoInverse) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		pk := newPublicKey(n, g)
		sk := &SecretKey{
			Lambda:   lambda,
			Mu:       mu,
			N:        pk.N,
			nSquared: pk.nSquared,
			halfN:    pk.halfN,
		}
		return pk, sk, nil
	}
	return nil, nil, hegossip.Errorf("KeyGenFromPrimes", hegossip.ErrNoInverse,
		"no usable generator after %d attempts", maxGeneratorAttempts)
}

// lFunc is L(x) = (x - 1) / n.
func lFunc(x, n *big.Int) *big.Int {
	out := new(big.Int).Sub(x, one)
	return out.Quo(out, n)
}

func coprimeOrders(p, q *big.Int) bool {
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
	return modular.Gcd(n, phi).Cmp(one) == 0
}

// randomPrime returns a prime of exactly bits bits. The two top bits of the
// search start are set so the product of two such primes has exactly 2·bits
// bits.
func randomPrime(r io.Reader, bits int) (*big.Int, error) {
	span := new(big.Int).Lsh(one, uint(bits-2))
	base := new(big.Int).Mul(span, big.NewInt(3))
	for {
		offset, err := rand.Int(r, span)
		if err != nil {
			return nil, fmt.Errorf("paillier: read randomness: %w", err)
		}
		p := modular.NextPrime(offset.Add(offset, base))
		if p.BitLen() == bits {
			return p, nil
		}
	}
}

// randomUnit draws x uniformly from [1, limit) with gcd(x, n) = 1.
func randomUnit(r io.Reader, limit, n *big.Int) (*big.Int, error) {
	upper := new(big.Int).Sub(limit, one)
	for {
		x, err := rand.Int(r, upper)
		if err != nil {
			return nil, fmt.Errorf("paillier: read randomness: %w", err)
		}
		x.Add(x, one)
		if modular.Gcd(x, n).Cmp(one) == 0 {
			return x, nil
		}
	}
}
