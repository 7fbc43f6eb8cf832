// Package experiment drives Monte-Carlo simulations of the consensus grid and
// reports the RMSE of every representation.
//
// A run resets a random-walk target and then, for each time step, moves the
// target, lets every node observe it, samples one node, runs RoundCount
// consensus rounds and samples the same node again. Runs are split over
// workers; each worker owns its grid, target and random source, and merges its
// totals into a shared Accumulator when done.
package experiment
