package modular

import (
	"math/big"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
)

// primalityRounds is the Miller-Rabin round count passed to ProbablyPrime. The
// Baillie-PSW test ProbablyPrime always adds has no known counterexample.
const primalityRounds = 20

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// NextPrime returns the smallest prime p >= start. Starts below 2 yield 2.
func NextPrime(start *big.Int) *big.Int {
	if start.Cmp(two) <= 0 {
		return new(big.Int).Set(two)
	}
	p := new(big.Int).Set(start)
	if p.Bit(0) == 0 {
		p.Add(p, one)
	}
	for !p.ProbablyPrime(primalityRounds) {
		p.Add(p, two)
	}
	return p
}

// ExtendedEuclid returns (g, x, y) with a·x + b·y = g = gcd(a, b). g is
// always non-negative; the signs of x and y follow from that.
func ExtendedEuclid(a, b *big.Int) (g, x, y *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	q := new(big.Int)
	tmp := new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		tmp.Mul(q, r)
		oldR, r = r, new(big.Int).Sub(oldR, tmp)

		tmp.Mul(q, s)
		oldS, s = s, new(big.Int).Sub(oldS, tmp)

		tmp.Mul(q, t)
		oldT, t = t, new(big.Int).Sub(oldT, tmp)
	}

	if oldR.Sign() < 0 {
		oldR.Neg(oldR)
		oldS.Neg(oldS)
		oldT.Neg(oldT)
	}
	return oldR, oldS, oldT
}

// Gcd returns the non-negative greatest common divisor of a and b.
func Gcd(a, b *big.Int) *big.Int {
	g, _, _ := ExtendedEuclid(a, b)
	return g
}

// Lcm returns the non-negative least common multiple of a and b. Lcm(0, x) is 0.
func Lcm(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return new(big.Int)
	}
	l := new(big.Int).Mul(a, b)
	l.Abs(l)
	return l.Quo(l, Gcd(a, b))
}

// ModularInverse returns x in [0, m) with a·x ≡ 1 (mod m). It fails with
// hegossip.ErrNoInverse when gcd(a, m) != 1 and with hegossip.ErrRange when m
// is not positive.
func ModularInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, hegossip.Errorf("ModularInverse", hegossip.ErrRange, "modulus must be positive")
	}
	reduced := new(big.Int).Mod(a, m)
	g, x, _ := ExtendedEuclid(reduced, m)
	if g.Cmp(one) != 0 {
		return nil, hegossip.Errorf("ModularInverse", hegossip.ErrNoInverse, "gcd is %s", g)
	}
	return x.Mod(x, m), nil
}

// BitSize returns the number of bits needed to store |v|, sign excluded.
func BitSize(v *big.Int) int {
	return v.BitLen()
}
