// Package dynamo provides the primitives shared by the chain simulator.
//
// The package defines the value types and domain errors every other
// package builds on:
//
//   - [State]: contiguous per-oscillator vector of one physical quantity
//   - [SimulationError]: step/time context wrapped around a domain error
//
// # Errors
//
// Configuration problems wrap [ErrParameterBounds] or
// [ErrDimensionMismatch]; numerical blow-ups wrap [ErrUnstable]. Use
// errors.Is to classify them:
//
//	if errors.Is(err, dynamo.ErrUnstable) {
//	    // dt is above the stability limit of the chain
//	}
package dynamo
