package consensus

import (
	"math/big"
	"slices"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/paillier"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/quant"
)

// Node is one sensor of the grid. It knows its neighbours only by id and
// holds the public key only.
type Node struct {
	id     NodeID
	cfg    hegossip.Config
	codec  *quant.Codec
	pk     *paillier.PublicKey
	source MeasurementSource
	sigma  float64

	// neighbors is sorted and includes id. weights, qweights, received and
	// have are indexed like neighbors.
	neighbors []NodeID
	self      int
	weights   []float64
	qweights  []int64
	received  []Estimate
	have      []bool

	estimate Estimate
	rounds   int
}

// NewNode returns an unconfigured node. cfg is derived and validated; source
// defaults to ExactSource when nil.
func NewNode(id NodeID, cfg hegossip.Config, source MeasurementSource) (*Node, error) {
	codec, err := quant.NewCodec(cfg)
	if err != nil {
		return nil, err
	}
	n := &Node{}
	n.init(id, cfg.Derive(), codec, source, 0)
	return n, nil
}

func (n *Node) init(id NodeID, cfg hegossip.Config, codec *quant.Codec, source MeasurementSource, sigma float64) {
	if source == nil {
		source = ExactSource{}
	}
	n.id = id
	n.cfg = cfg
	n.codec = codec
	n.source = source
	n.sigma = sigma
}

// Configure fixes the neighbour set and computes the fusion weights. The own
// weight is ownWeight and the rest is split equally among the other
// neighbours; a node without other neighbours keeps all of it. Quantized
// weights are rounded individually and the rounding remainder goes to the own
// weight so they sum to the weight factor exactly.
//
// The own weight's quantized value must be at least half the number of other
// neighbours, which bounds the largest possible remainder, and the corrected
// own weight must not be negative. Both failures are hegossip.ErrConfiguration.
func (n *Node) Configure(neighbors []NodeID, ownWeight float64) error {
	ids := slices.Clone(neighbors)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	self, found := slices.BinarySearch(ids, n.id)
	if !found {
		return hegossip.Errorf("Node.Configure", hegossip.ErrConfiguration, "node %d is not its own neighbour", n.id)
	}
	if ownWeight < 0 || ownWeight > 1 {
		return hegossip.Errorf("Node.Configure", hegossip.ErrConfiguration, "own weight %v outside [0, 1]", ownWeight)
	}

	others := len(ids) - 1
	own, other := 1.0, 0.0
	if others > 0 {
		own = ownWeight
		other = (1 - ownWeight) / float64(others)
	}

	qOwn, err := n.codec.QuantizeWeight(own)
	if err != nil {
		return hegossip.Errorf("Node.Configure", hegossip.ErrConfiguration, "own weight: %v", err)
	}
	qOther, err := n.codec.QuantizeWeight(other)
	if err != nil {
		return hegossip.Errorf("Node.Configure", hegossip.ErrConfiguration, "neighbour weight: %v", err)
	}
	if others > 0 && qOwn < int64(others/2) {
		return hegossip.Errorf("Node.Configure", hegossip.ErrConfiguration,
			"quantized own weight %d cannot absorb the rounding of %d neighbour weights", qOwn, others)
	}

	factor := n.codec.WeightFactor()
	remainder := factor - qOwn - int64(others)*qOther
	if qOwn+remainder < 0 {
		return hegossip.Errorf("Node.Configure", hegossip.ErrConfiguration,
			"rounding correction makes the own weight negative (%d%+d)", qOwn, remainder)
	}

	weights := make([]float64, len(ids))
	qweights := make([]int64, len(ids))
	var sum int64
	for i := range ids {
		if i == self {
			weights[i] = own
			qweights[i] = qOwn + remainder
		} else {
			weights[i] = other
			qweights[i] = qOther
		}
		sum += qweights[i]
	}
	if sum != factor {
		return hegossip.Errorf("Node.Configure", hegossip.ErrConfiguration,
			"quantized weights sum to %d, want %d", sum, factor)
	}

	n.neighbors = ids
	n.self = self
	n.weights = weights
	n.qweights = qweights
	n.received = make([]Estimate, len(ids))
	n.have = make([]bool, len(ids))
	return nil
}

// SetPublicKey gives the node the key it encrypts its measurements under.
func (n *Node) SetPublicKey(pk *paillier.PublicKey) {
	n.pk = pk
}

// Observe replaces the current estimate with one fresh sample of trueValue in
// every representation and resets the round counter. Quantization failures are
// returned as hegossip.ErrRange and never clamped.
func (n *Node) Observe(trueValue, sigma float64) error {
	if n.neighbors == nil {
		return hegossip.Errorf("Node.Observe", hegossip.ErrConfiguration, "node %d is not configured", n.id)
	}
	sample := n.source.Sample(trueValue, sigma)

	quantized, err := n.codec.QuantizeMeasurement(sample)
	if err != nil {
		return err
	}

	var ct *paillier.Ciphertext
	if n.cfg.EncryptionEnabled {
		if n.pk == nil {
			return hegossip.Errorf("Node.Observe", hegossip.ErrConfiguration, "node %d has no public key", n.id)
		}
		ct, err = paillier.Encrypt(n.pk, quantized[n.cfg.EncryptedIndex()])
		if err != nil {
			return err
		}
	}

	n.estimate = NewEstimate(sample, quantized, ct)
	n.rounds = 0
	n.clearReceived()
	return nil
}

// Broadcast returns the current estimate addressed to every neighbour,
// including n itself. It does not modify n.
func (n *Node) Broadcast() map[NodeID]Estimate {
	out := make(map[NodeID]Estimate, len(n.neighbors))
	for _, id := range n.neighbors {
		out[id] = n.estimate
	}
	return out
}

// Receive buffers an estimate sent by from. It fails with
// hegossip.ErrProtocolViolation if from is not a neighbour or the estimate
// lacks a representation this node fuses.
func (n *Node) Receive(from NodeID, est Estimate) error {
	i, ok := slices.BinarySearch(n.neighbors, from)
	if !ok {
		return hegossip.Errorf("Node.Receive", hegossip.ErrProtocolViolation,
			"node %d received an estimate from non-neighbour %d", n.id, from)
	}
	if len(est.Quantized) != n.codec.Precisions() {
		return hegossip.Errorf("Node.Receive", hegossip.ErrProtocolViolation,
			"estimate from %d has %d quantized values, want %d", from, len(est.Quantized), n.codec.Precisions())
	}
	if n.cfg.EncryptionEnabled && !est.Encrypted() {
		return hegossip.Errorf("Node.Receive", hegossip.ErrProtocolViolation,
			"estimate from %d is not encrypted", from)
	}
	n.received[i] = est
	n.have[i] = true
	return nil
}

// Fuse replaces the current estimate with the weighted sum over all
// neighbours, in every representation. The ciphertext is fused with
// ScalarMultiply and Add only.
//
// Fuse fails with hegossip.ErrRange once RoundCount rounds have been fused
// since the last observation, and with hegossip.ErrProtocolViolation if an
// estimate from another neighbour is missing. The buffer is cleared on
// success.
func (n *Node) Fuse() error {
	if n.estimate.Quantized == nil {
		return hegossip.Errorf("Node.Fuse", hegossip.ErrProtocolViolation, "node %d has not observed yet", n.id)
	}
	if n.rounds >= n.cfg.RoundCount {
		return hegossip.Errorf("Node.Fuse", hegossip.ErrRange,
			"bit budget exhausted: node %d already fused %d rounds", n.id, n.rounds)
	}
	for i, id := range n.neighbors {
		if i != n.self && !n.have[i] {
			return hegossip.Errorf("Node.Fuse", hegossip.ErrProtocolViolation,
				"node %d has no estimate from neighbour %d", n.id, id)
		}
	}

	own := n.estimate
	plain := n.weights[n.self] * own.Plain
	quantized := make([]*big.Int, len(own.Quantized))
	for p, q := range own.Quantized {
		quantized[p] = new(big.Int).Mul(q, big.NewInt(n.qweights[n.self]))
	}
	var ct *paillier.Ciphertext
	if own.Encrypted() {
		var err error
		ct, err = paillier.ScalarMultiply(n.pk, own.encrypted, big.NewInt(n.qweights[n.self]))
		if err != nil {
			return err
		}
	}

	var term big.Int
	for i := range n.neighbors {
		if i == n.self {
			continue
		}
		est := n.received[i]
		w := big.NewInt(n.qweights[i])

		plain += n.weights[i] * est.Plain
		for p := range quantized {
			quantized[p].Add(quantized[p], term.Mul(est.Quantized[p], w))
		}
		if ct != nil {
			weighted, err := paillier.ScalarMultiply(n.pk, est.encrypted, w)
			if err != nil {
				return err
			}
			ct = paillier.Add(n.pk, ct, weighted)
		}
	}

	n.estimate = NewEstimate(plain, quantized, ct)
	n.rounds++
	n.clearReceived()
	return nil
}

func (n *Node) clearReceived() {
	clear(n.received)
	clear(n.have)
}

// ID returns the node's id.
func (n *Node) ID() NodeID { return n.id }

// Estimate returns a copy of the current estimate.
func (n *Node) Estimate() Estimate { return n.estimate.Clone() }

// Rounds returns the number of rounds fused since the last observation.
func (n *Node) Rounds() int { return n.rounds }

// Sigma returns the node's configured measurement noise.
func (n *Node) Sigma() float64 { return n.sigma }

// Neighbors returns the sorted neighbour ids, including the node itself.
func (n *Node) Neighbors() []NodeID { return slices.Clone(n.neighbors) }

// Weights returns the float fusion weight of every neighbour.
func (n *Node) Weights() map[NodeID]float64 {
	out := make(map[NodeID]float64, len(n.neighbors))
	for i, id := range n.neighbors {
		out[id] = n.weights[i]
	}
	return out
}

// QuantizedWeights returns the integer fusion weight of every neighbour.
func (n *Node) QuantizedWeights() map[NodeID]int64 {
	out := make(map[NodeID]int64, len(n.neighbors))
	for i, id := range n.neighbors {
		out[id] = n.qweights[i]
	}
	return out
}

// Unquantize converts a value of the p-th precision that went through as many
// fusions as this node's current estimate back to a real value.
func (n *Node) Unquantize(v *big.Int, p int) float64 {
	return n.codec.Unquantize(v, p, n.rounds)
}
