package paillier

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/modular"
)

// Ciphertext is an element of [0, n²). It is opaque: the only meaningful
// operations are the homomorphic functions of this package and Decrypt.
// Ciphertexts are immutable; every operation returns a new value.
type Ciphertext struct {
	c *big.Int
}

// NewCiphertext wraps a raw integer received from elsewhere. The value is
// copied and checked with VerifyCiphertext.
func NewCiphertext(pk *PublicKey, c *big.Int) (*Ciphertext, error) {
	ct := &Ciphertext{c: new(big.Int).Set(c)}
	if err := VerifyCiphertext(pk, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// Int returns a copy of the underlying integer, e.g. for serialization.
func (ct *Ciphertext) Int() *big.Int {
	return new(big.Int).Set(ct.c)
}

// Equal reports whether two ciphertexts hold the same integer. Two encryptions
// of the same plaintext are almost never Equal.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	if ct == nil || other == nil {
		return ct == other
	}
	return ct.c.Cmp(other.c) == 0
}

// Encrypt encrypts m under pk using crypto/rand for the blinding factor.
func Encrypt(pk *PublicKey, m *big.Int) (*Ciphertext, error) {
	return EncryptWithReader(rand.Reader, pk, m)
}

// EncryptWithReader computes g^m · r^n mod n² for a fresh r drawn from rnd.
// It fails with hegossip.ErrRange unless |m| < ⌊n/2⌋. Negative m is mapped to
// m + n first.
func EncryptWithReader(rnd io.Reader, pk *PublicKey, m *big.Int) (*Ciphertext, error) {
	if new(big.Int).Abs(m).Cmp(pk.halfN) >= 0 {
		return nil, hegossip.Errorf("Encrypt", hegossip.ErrRange,
			"plaintext of %d bits outside the signed range of a %d-bit modulus", m.BitLen(), pk.BitLen())
	}
	mm := new(big.Int).Set(m)
	if mm.Sign() < 0 {
		mm.Add(mm, pk.N)
	}

	r, err := randomUnit(rnd, pk.N, pk.N)
	if err != nil {
		return nil, err
	}

	gm := new(big.Int).Exp(pk.G, mm, pk.nSquared)
	rn := new(big.Int).Exp(r, pk.N, pk.nSquared)
	gm.Mul(gm, rn)
	return &Ciphertext{c: gm.Mod(gm, pk.nSquared)}, nil
}

// EncryptZeros returns count independent encryptions of zero.
func EncryptZeros(pk *PublicKey, count int) ([]*Ciphertext, error) {
	if count <= 0 {
		return nil, hegossip.Errorf("EncryptZeros", hegossip.ErrRange, "count must be positive, got %d", count)
	}
	out := make([]*Ciphertext, count)
	for i := range out {
		ct, err := Encrypt(pk, new(big.Int))
		if err != nil {
			return nil, err
		}
		out[i] = ct
	}
	return out, nil
}

// Decrypt returns the signed plaintext of ct. It fails with hegossip.ErrRange
// unless 0 <= ct < n².
func Decrypt(sk *SecretKey, ct *Ciphertext) (*big.Int, error) {
	if ct == nil || ct.c == nil || ct.c.Sign() < 0 || ct.c.Cmp(sk.nSquared) >= 0 {
		return nil, hegossip.Errorf("Decrypt", hegossip.ErrRange, "ciphertext outside [0, n²)")
	}
	u := new(big.Int).Exp(ct.c, sk.Lambda, sk.nSquared)
	m := lFunc(u, sk.N)
	m.Mul(m, sk.Mu)
	m.Mod(m, sk.N)
	if m.Cmp(sk.halfN) > 0 {
		m.Sub(m, sk.N)
	}
	return m, nil
}

// Add returns a ciphertext of m1 + m2.
func Add(pk *PublicKey, c1, c2 *Ciphertext) *Ciphertext {
	out := new(big.Int).Mul(c1.c, c2.c)
	return &Ciphertext{c: out.Mod(out, pk.nSquared)}
}

// Subtract returns a ciphertext of m1 - m2. It fails with hegossip.ErrNoInverse
// if c2 is not a unit modulo n², which never happens for honest ciphertexts.
func Subtract(pk *PublicKey, c1, c2 *Ciphertext) (*Ciphertext, error) {
	inv, err := modular.ModularInverse(c2.c, pk.nSquared)
	if err != nil {
		return nil, err
	}
	return Add(pk, c1, &Ciphertext{c: inv}), nil
}

// ScalarMultiply returns a ciphertext of k·m. For k = 0 it returns a fresh
// encryption of zero rather than the degenerate value 1.
func ScalarMultiply(pk *PublicKey, ct *Ciphertext, k *big.Int) (*Ciphertext, error) {
	if k.Sign() == 0 {
		return Encrypt(pk, new(big.Int))
	}
	out := new(big.Int).Exp(ct.c, new(big.Int).Abs(k), pk.nSquared)
	if k.Sign() < 0 {
		inv, err := modular.ModularInverse(out, pk.nSquared)
		if err != nil {
			return nil, err
		}
		out = inv
	}
	return &Ciphertext{c: out}, nil
}

// VerifyCiphertext checks that ct lies in [0, n²) and is a unit modulo n.
func VerifyCiphertext(pk *PublicKey, ct *Ciphertext) error {
	if ct == nil || ct.c == nil {
		return hegossip.Errorf("VerifyCiphertext", hegossip.ErrRange, "nil ciphertext")
	}
	if ct.c.Sign() < 0 || ct.c.Cmp(pk.nSquared) >= 0 {
		return hegossip.Errorf("VerifyCiphertext", hegossip.ErrRange, "ciphertext outside [0, n²)")
	}
	if modular.Gcd(ct.c, pk.N).Cmp(one) != 0 {
		return hegossip.Errorf("VerifyCiphertext", hegossip.ErrNoInverse, "ciphertext is not a unit modulo n")
	}
	return nil
}
