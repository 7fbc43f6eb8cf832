package modular_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/modular"
)

func TestNextPrime(t *testing.T) {
	tests := []struct {
		start int64
		want  int64
	}{
		{-5, 2},
		{0, 2},
		{2, 2},
		{3, 3},
		{4, 5},
		{14, 17},
		{17, 17},
		{7918, 7919},
	}
	for _, tt := range tests {
		got := modular.NextPrime(big.NewInt(tt.start))
		if got.Int64() != tt.want {
			t.Fatalf("NextPrime(%d) = %s, want %d", tt.start, got, tt.want)
		}
	}
}

func TestNextPrimeLarge(t *testing.T) {
	// 2^89 - 1 is a Mersenne prime.
	m89 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 89), big.NewInt(1))
	start := new(big.Int).Sub(m89, big.NewInt(40))
	got := modular.NextPrime(start)
	if got.Cmp(start) < 0 || got.Cmp(m89) > 0 {
		t.Fatalf("NextPrime(%s) = %s, want a prime in [start, 2^89-1]", start, got)
	}
	if !got.ProbablyPrime(20) {
		t.Fatalf("NextPrime returned composite %s", got)
	}
}

func TestNextPrimeDoesNotModifyInput(t *testing.T) {
	start := big.NewInt(90)
	_ = modular.NextPrime(start)
	if start.Int64() != 90 {
		t.Fatalf("input modified: %s", start)
	}
}

func TestExtendedEuclid(t *testing.T) {
	tests := []struct {
		a, b, g int64
	}{
		{240, 46, 2},
		{46, 240, 2},
		{0, 7, 7},
		{7, 0, 7},
		{-12, 18, 6},
		{12, -18, 6},
		{-12, -18, 6},
		{17, 5, 1},
	}
	for _, tt := range tests {
		a, b := big.NewInt(tt.a), big.NewInt(tt.b)
		g, x, y := modular.ExtendedEuclid(a, b)
		if g.Int64() != tt.g {
			t.Fatalf("gcd(%d, %d) = %s, want %d", tt.a, tt.b, g, tt.g)
		}
		lhs := new(big.Int).Add(new(big.Int).Mul(a, x), new(big.Int).Mul(b, y))
		if lhs.Cmp(g) != 0 {
			t.Fatalf("%d*%s + %d*%s = %s, want %s", tt.a, x, tt.b, y, lhs, g)
		}
	}
}

func TestGcdLcm(t *testing.T) {
	if got := modular.Gcd(big.NewInt(84), big.NewInt(36)); got.Int64() != 12 {
		t.Fatalf("Gcd(84, 36) = %s", got)
	}
	if got := modular.Lcm(big.NewInt(4), big.NewInt(6)); got.Int64() != 12 {
		t.Fatalf("Lcm(4, 6) = %s", got)
	}
	if got := modular.Lcm(big.NewInt(-4), big.NewInt(6)); got.Int64() != 12 {
		t.Fatalf("Lcm(-4, 6) = %s", got)
	}
	if got := modular.Lcm(big.NewInt(0), big.NewInt(6)); got.Sign() != 0 {
		t.Fatalf("Lcm(0, 6) = %s", got)
	}
}

func TestModularInverse(t *testing.T) {
	tests := []struct {
		a, m, want int64
	}{
		{3, 11, 4},
		{10, 17, 12},
		{-3, 11, 7},
		{1, 2, 1},
	}
	for _, tt := range tests {
		got, err := modular.ModularInverse(big.NewInt(tt.a), big.NewInt(tt.m))
		if err != nil {
			t.Fatalf("ModularInverse(%d, %d): %v", tt.a, tt.m, err)
		}
		if got.Int64() != tt.want {
			t.Fatalf("ModularInverse(%d, %d) = %s, want %d", tt.a, tt.m, got, tt.want)
		}
	}
}

func TestModularInverseNotCoprime(t *testing.T) {
	_, err := modular.ModularInverse(big.NewInt(6), big.NewInt(9))
	if !errors.Is(err, hegossip.ErrNoInverse) {
		t.Fatalf("expected ErrNoInverse, got %v", err)
	}
	_, err = modular.ModularInverse(big.NewInt(0), big.NewInt(9))
	if !errors.Is(err, hegossip.ErrNoInverse) {
		t.Fatalf("expected ErrNoInverse for zero, got %v", err)
	}
}

func TestModularInverseBadModulus(t *testing.T) {
	_, err := modular.ModularInverse(big.NewInt(3), big.NewInt(0))
	if !errors.Is(err, hegossip.ErrRange) {
		t.Fatalf("expected ErrRange, got %v", err)
	}
}

func TestBitSize(t *testing.T) {
	tests := []struct {
		v    int64
		want int
	}{
		{0, 0},
		{1, 1},
		{-1, 1},
		{255, 8},
		{256, 9},
		{-256, 9},
	}
	for _, tt := range tests {
		if got := modular.BitSize(big.NewInt(tt.v)); got != tt.want {
			t.Fatalf("BitSize(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestArithmeticProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("extended euclid satisfies Bezout and matches math/big", prop.ForAll(
		func(a, b int64) bool {
			x, y := big.NewInt(a), big.NewInt(b)
			g, s, u := modular.ExtendedEuclid(x, y)
			lhs := new(big.Int).Add(new(big.Int).Mul(x, s), new(big.Int).Mul(y, u))
			ref := new(big.Int).GCD(nil, nil, new(big.Int).Abs(x), new(big.Int).Abs(y))
			return lhs.Cmp(g) == 0 && g.Cmp(ref) == 0
		},
		gen.Int64Range(-1<<40, 1<<40),
		gen.Int64Range(-1<<40, 1<<40),
	))

	properties.Property("inverse times value is one modulo a prime", prop.ForAll(
		func(a int64) bool {
			m := big.NewInt(7919)
			inv, err := modular.ModularInverse(big.NewInt(a), m)
			if err != nil {
				return false
			}
			prod := new(big.Int).Mul(inv, big.NewInt(a))
			return prod.Mod(prod, m).Int64() == 1
		},
		gen.Int64Range(1, 7918),
	))

	properties.TestingRun(t)
}
