// Package consensus runs bounded-round weighted averaging over a grid of
// sensor nodes.
//
// Every node carries its estimate in up to three representations that advance
// in lockstep: a float64, one fixed-point integer per configured precision,
// and, when encryption is enabled, a Paillier ciphertext of one of those
// integers. Fusing the ciphertext uses only ScalarMultiply and Add, so nodes
// hold the public key and never decrypt.
//
// A Grid owns its nodes in a single slice and addresses them by NodeID. A
// round is two strict phases: every node broadcasts through the grid, then
// every node fuses. Grids are not safe for concurrent use; run independent
// simulations on independent grids.
//
// Usage:
//
//	grid, err := consensus.Build(cfg, consensus.WithSource(src))
//	if err != nil {
//		return err
//	}
//	if err := grid.DistributeKey(pk); err != nil {
//		return err
//	}
//	if err := grid.ObserveAll(truth); err != nil {
//		return err
//	}
//	for range cfg.RoundCount {
//		if err := grid.RunRound(); err != nil {
//			return err
//		}
//	}
//	est := grid.CenterNode().Estimate()
package consensus
