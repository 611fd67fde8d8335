package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/chainsim/internal/sim"
	"gonum.org/v1/gonum/stat"
)

const minSpectralSamples = 4

// PowerSpectrum returns |X_k| for k in [0, N/2] of the mean-removed series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	mean := stat.Mean(series, nil)
	centered := make([]float64, len(series))
	for i, v := range series {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, len(coeffs)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// SpectralFrequency returns the angular frequency of the strongest non-DC
// bin of a series sampled every dt. Resolution is 2*pi/(N*dt).
func SpectralFrequency(series []float64, dt float64) (float64, error) {
	if len(series) < minSpectralSamples {
		return 0, fmt.Errorf("%w: %d samples, need %d", ErrUndefined, len(series), minSpectralSamples)
	}
	if !(dt > 0) {
		return 0, fmt.Errorf("%w: sample spacing %g", ErrUndefined, dt)
	}

	ps := PowerSpectrum(series)
	best, bestMag := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > bestMag {
			best, bestMag = k, ps[k]
		}
	}
	if best == 0 || bestMag < 1e-12 {
		return 0, fmt.Errorf("%w: flat spectrum", ErrUndefined)
	}

	return 2 * math.Pi * float64(best) / (float64(len(series)) * dt), nil
}

// SpectralMeanFrequency applies SpectralFrequency to the middle oscillator.
func SpectralMeanFrequency(traj *sim.Trajectory) (float64, error) {
	if traj.Len() == 0 {
		return 0, fmt.Errorf("%w: empty trajectory", ErrUndefined)
	}
	mid := MiddleIndex(traj.Oscillators())
	return SpectralFrequency(traj.DisplacementSeries(mid), traj.Dt)
}
