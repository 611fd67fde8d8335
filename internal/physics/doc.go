// Package physics implements the oscillator chain: identical masses joined
// to their nearest neighbours by identical linear springs, each end either
// clamped or free.
//
// [Chain] owns one contiguous buffer per quantity and advances all of them
// with a staggered leapfrog step. Forces are always evaluated against a
// copy of the displacements taken before the step, so updating oscillator
// i never leaks into the force on oscillator i+1:
//
//	ch, err := physics.NewChain(params, init, dt)
//	for f := 0; f < frames; f++ {
//	    snap := ch.Snapshot()
//	    ch.Step()
//	}
//
// A Chain belongs to exactly one run. Build a fresh one for every
// (frame count, dt) pair.
package physics
