package consensus

// Transport delivers an estimate from one node to another. Grid implements it
// with an in-process call that ends in Node.Receive on the addressed node.
type Transport interface {
	Deliver(from, to NodeID, est Estimate) error
}

// Send broadcasts n's current estimate to every neighbour through t.
func (n *Node) Send(t Transport) error {
	for to, est := range n.Broadcast() {
		if err := t.Deliver(n.id, to, est); err != nil {
			return err
		}
	}
	return nil
}
