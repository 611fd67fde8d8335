// Package analysis derives observables from a recorded chain trajectory
// and compares them with closed-form predictions.
//
//   - [FindPeaks]: local maxima of a sampled series
//   - [MeanFrequency]: angular frequency of the middle oscillator from the
//     spacing of its displacement peaks
//   - [SpectralFrequency]: dominant FFT bin of the same series
//   - [EstimateWaveSpeed]: wavefront arrival at the far end of a free chain
//   - [RelativeError], [Compare]: analytic vs measured
//
// # Undefined results
//
// Estimates that cannot be formed (fewer than two peaks, a zero reference
// value, no samples) return [ErrUndefined] instead of NaN or Inf. The
// comparison helpers turn that into an undefined [Value]:
//
//	c := analysis.Compare(omega, analysis.ValueOf(analysis.MeanFrequency(traj)))
//	if !c.Estimated.IsDefined() {
//	    // not enough peaks for this dt
//	}
package analysis
