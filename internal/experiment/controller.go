package experiment

import (
	"fmt"
	"math/rand/v2"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/consensus"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/paillier"
)

// Representation labels used in reports and metrics.
const (
	Unfiltered = "unfiltered"
	Plain      = "plain"
	Encrypted  = "encrypted"
)

// QuantizedLabel names the quantized representation with precision bits.
func QuantizedLabel(bits uint) string {
	return fmt.Sprintf("q%d", bits)
}

// Sample is one node's estimate at one instant in every representation,
// converted back to real values, next to the true value.
type Sample struct {
	Node      consensus.NodeID
	Rounds    int
	Truth     float64
	Plain     float64
	Quantized []float64

	decrypted float64
	encrypted bool
}

// SquaredError returns (Plain - Truth)².
func (s Sample) SquaredError() float64 {
	return sq(s.Plain - s.Truth)
}

// QuantizedSquaredErrors returns the squared error of each precision.
func (s Sample) QuantizedSquaredErrors() []float64 {
	out := make([]float64, len(s.Quantized))
	for i, q := range s.Quantized {
		out[i] = sq(q - s.Truth)
	}
	return out
}

// Decrypted returns the decrypted estimate, or hegossip.ErrNotEncrypted.
func (s Sample) Decrypted() (float64, error) {
	if !s.encrypted {
		return 0, hegossip.Errorf("Sample.Decrypted", hegossip.ErrNotEncrypted, "sample has no decrypted value")
	}
	return s.decrypted, nil
}

// DecryptedSquaredError returns the squared error of the decrypted estimate.
func (s Sample) DecryptedSquaredError() (float64, error) {
	d, err := s.Decrypted()
	if err != nil {
		return 0, err
	}
	return sq(d - s.Truth), nil
}

func sq(v float64) float64 { return v * v }

// Controller is the only holder of the secret key. It hands the public key to
// the grid and reads estimates back from nodes.
type Controller struct {
	grid   *consensus.Grid
	target Target
	sk     *paillier.SecretKey
	rng    *rand.Rand
	last   *consensus.Node
}

// NewController distributes pk to grid. pk and sk may be nil when the grid
// does not encrypt.
func NewController(grid *consensus.Grid, target Target, pk *paillier.PublicKey, sk *paillier.SecretKey, rng *rand.Rand) (*Controller, error) {
	if grid.Config().EncryptionEnabled {
		if sk == nil {
			return nil, hegossip.Errorf("NewController", hegossip.ErrConfiguration, "encryption enabled without a secret key")
		}
		if err := grid.DistributeKey(pk); err != nil {
			return nil, err
		}
	}
	return &Controller{grid: grid, target: target, sk: sk, rng: rng}, nil
}

// Fetch samples n against the target's current value.
func (c *Controller) Fetch(n *consensus.Node) (Sample, error) {
	c.last = n
	est := n.Estimate()
	s := Sample{
		Node:      n.ID(),
		Rounds:    n.Rounds(),
		Truth:     c.target.CurrentValue(),
		Plain:     est.Plain,
		Quantized: make([]float64, len(est.Quantized)),
	}
	for p, q := range est.Quantized {
		s.Quantized[p] = n.Unquantize(q, p)
	}

	if ct, err := est.Ciphertext(); err == nil {
		m, err := paillier.Decrypt(c.sk, ct)
		if err != nil {
			return Sample{}, err
		}
		s.decrypted = n.Unquantize(m, c.grid.Config().EncryptedIndex())
		s.encrypted = true
	}
	return s, nil
}

// FetchCenter samples the grid's center node.
func (c *Controller) FetchCenter() (Sample, error) {
	return c.Fetch(c.grid.CenterNode())
}

// FetchRandom samples a uniformly chosen node.
func (c *Controller) FetchRandom() (Sample, error) {
	return c.Fetch(c.grid.RandomNode(c.rng))
}

// FetchSame samples the node of the previous fetch again.
func (c *Controller) FetchSame() (Sample, error) {
	if c.last == nil {
		return Sample{}, hegossip.Errorf("Controller.FetchSame", hegossip.ErrProtocolViolation, "no node sampled yet")
	}
	return c.Fetch(c.last)
}

// FetchBy samples according to a Settings.SampleNode value.
func (c *Controller) FetchBy(mode string) (Sample, error) {
	if mode == SampleRandom {
		return c.FetchRandom()
	}
	return c.FetchCenter()
}
