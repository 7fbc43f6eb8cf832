package consensus

import (
	"math/rand/v2"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/paillier"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/quant"
)

// Option configures Build.
type Option func(*gridOptions)

type gridOptions struct {
	source    MeasurementSource
	goodSigma float64
	badSigma  float64
}

// WithSource sets the measurement source shared by all nodes. The default is
// ExactSource.
func WithSource(src MeasurementSource) Option {
	return func(o *gridOptions) {
		o.source = src
	}
}

// WithSensorSigmas sets the measurement noise of odd (good) and even (bad)
// node ids.
func WithSensorSigmas(good, bad float64) Option {
	return func(o *gridOptions) {
		o.goodSigma = good
		o.badSigma = bad
	}
}

// Grid is a GridWidth x GridHeight arena of nodes addressed row-major.
type Grid struct {
	cfg   hegossip.Config
	codec *quant.Codec
	nodes []Node
}

// Build validates cfg, creates every node and configures its Moore
// neighbourhood and weights. Any failure is hegossip.ErrConfiguration and the
// grid is not returned.
func Build(cfg hegossip.Config, opts ...Option) (*Grid, error) {
	var o gridOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.Derive()
	codec, err := quant.NewCodec(cfg)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		cfg:   cfg,
		codec: codec,
		nodes: make([]Node, cfg.NodeCount()),
	}
	for i := range g.nodes {
		sigma := o.badSigma
		if i%2 == 1 {
			sigma = o.goodSigma
		}
		n := &g.nodes[i]
		n.init(NodeID(i), cfg, codec, o.source, sigma)
		if err := n.Configure(g.NeighborIDs(NodeID(i)), cfg.OwnEstimateWeight); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// NeighborIDs returns the ids whose row and column each differ from id's by at
// most one, id included, clamped at the edges.
func (g *Grid) NeighborIDs(id NodeID) []NodeID {
	w, h := g.cfg.GridWidth, g.cfg.GridHeight
	row, col := int(id)/w, int(id)%w

	out := make([]NodeID, 0, 9)
	for r := max(row-1, 0); r <= min(row+1, h-1); r++ {
		for c := max(col-1, 0); c <= min(col+1, w-1); c++ {
			out = append(out, NodeID(r*w+c))
		}
	}
	return out
}

// DistributeKey hands pk to every node. The key must be at least
// PlaintextModulusBits long, and its signed plaintext bound must exceed
// GrowthBits so a decrypted estimate never wraps to a negative value.
func (g *Grid) DistributeKey(pk *paillier.PublicKey) error {
	if pk == nil || pk.BitLen() < int(g.cfg.PlaintextModulusBits) {
		return hegossip.Errorf("Grid.DistributeKey", hegossip.ErrConfiguration,
			"public key shorter than the configured %d-bit plaintext modulus", g.cfg.PlaintextModulusBits)
	}
	if bound := pk.PlaintextBound().BitLen(); bound <= int(g.cfg.GrowthBits()) {
		return hegossip.Errorf("Grid.DistributeKey", hegossip.ErrConfiguration,
			"signed plaintext range of %d bits cannot hold %d-bit estimates after %d rounds",
			bound, g.cfg.GrowthBits(), g.cfg.RoundCount)
	}
	for i := range g.nodes {
		g.nodes[i].SetPublicKey(pk)
	}
	return nil
}

// ObserveAll makes every node take one measurement of trueValue with its own
// noise.
func (g *Grid) ObserveAll(trueValue float64) error {
	for i := range g.nodes {
		n := &g.nodes[i]
		if err := n.Observe(trueValue, n.sigma); err != nil {
			return err
		}
	}
	return nil
}

// RunRound performs one consensus round: every node broadcasts, then every
// node fuses. No node fuses before all broadcasts are delivered.
func (g *Grid) RunRound() error {
	for i := range g.nodes {
		if err := g.nodes[i].Send(g); err != nil {
			return err
		}
	}
	for i := range g.nodes {
		if err := g.nodes[i].Fuse(); err != nil {
			return err
		}
	}
	return nil
}

// RunRounds runs k rounds.
func (g *Grid) RunRounds(k int) error {
	for range k {
		if err := g.RunRound(); err != nil {
			return err
		}
	}
	return nil
}

// Deliver implements Transport by handing est to the addressed node.
func (g *Grid) Deliver(from, to NodeID, est Estimate) error {
	n, err := g.Node(to)
	if err != nil {
		return hegossip.Errorf("Grid.Deliver", hegossip.ErrProtocolViolation, "%d -> %d: no such node", from, to)
	}
	return n.Receive(from, est)
}

// Node returns the node with the given id, or hegossip.ErrRange.
func (g *Grid) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, hegossip.Errorf("Grid.Node", hegossip.ErrRange, "node %d outside [0, %d)", id, len(g.nodes))
	}
	return &g.nodes[id], nil
}

// RandomNode returns a node chosen uniformly with rng.
func (g *Grid) RandomNode(rng *rand.Rand) *Node {
	return &g.nodes[rng.IntN(len(g.nodes))]
}

// CenterNode returns the middle node for an odd node count. For an even count
// it steps back half a row from count/2, so the choice is fixed per grid size.
func (g *Grid) CenterNode() *Node {
	mid := len(g.nodes) / 2
	if len(g.nodes)%2 == 0 {
		mid -= g.cfg.GridWidth / 2
	}
	return &g.nodes[mid]
}

// Size returns the number of nodes.
func (g *Grid) Size() int { return len(g.nodes) }

// Config returns the derived configuration the grid was built with.
func (g *Grid) Config() hegossip.Config { return g.cfg }

// Codec returns the codec shared by all nodes.
func (g *Grid) Codec() *quant.Codec { return g.codec }

// Estimates returns every node's plaintext estimate, row-major.
func (g *Grid) Estimates() []float64 {
	out := make([]float64, len(g.nodes))
	for i := range g.nodes {
		out[i] = g.nodes[i].estimate.Plain
	}
	return out
}

// Errors returns every node's plaintext estimate minus truth, row-major.
func (g *Grid) Errors(truth float64) []float64 {
	out := g.Estimates()
	for i := range out {
		out[i] -= truth
	}
	return out
}

// Deviations returns every node's plaintext estimate minus the grid mean,
// row-major.
func (g *Grid) Deviations() []float64 {
	out := g.Estimates()
	var mean float64
	for _, v := range out {
		mean += v
	}
	mean /= float64(len(out))
	for i := range out {
		out[i] -= mean
	}
	return out
}
