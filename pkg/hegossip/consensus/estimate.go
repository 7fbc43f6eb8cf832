package consensus

import (
	"math/big"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/paillier"
)

// NodeID is the row-major index of a node in its grid.
type NodeID int

// Estimate is one node's value in every representation. Quantized holds one
// integer per configured measurement precision. The ciphertext is optional;
// use Ciphertext to read it.
type Estimate struct {
	Plain     float64
	Quantized []*big.Int

	encrypted *paillier.Ciphertext
}

// NewEstimate bundles the representations of one estimate. ct may be nil when
// encryption is disabled.
func NewEstimate(plain float64, quantized []*big.Int, ct *paillier.Ciphertext) Estimate {
	return Estimate{Plain: plain, Quantized: quantized, encrypted: ct}
}

// Encrypted reports whether the estimate carries a ciphertext.
func (e Estimate) Encrypted() bool {
	return e.encrypted != nil
}

// Ciphertext returns the encrypted representation, or hegossip.ErrNotEncrypted
// when there is none.
func (e Estimate) Ciphertext() (*paillier.Ciphertext, error) {
	if e.encrypted == nil {
		return nil, hegossip.Errorf("Estimate.Ciphertext", hegossip.ErrNotEncrypted, "no encrypted representation")
	}
	return e.encrypted, nil
}

// Clone returns a deep copy of the quantized values. Ciphertexts are immutable
// and shared.
func (e Estimate) Clone() Estimate {
	out := Estimate{Plain: e.Plain, encrypted: e.encrypted}
	if e.Quantized != nil {
		out.Quantized = make([]*big.Int, len(e.Quantized))
		for i, q := range e.Quantized {
			out.Quantized[i] = new(big.Int).Set(q)
		}
	}
	return out
}
