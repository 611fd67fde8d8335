package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/chainsim/internal/sim"
	"gonum.org/v1/gonum/stat"
)

// MiddleIndex is the oscillator whose displacement drives the frequency
// estimate.
func MiddleIndex(n int) int { return n / 2 }

// MeanPeriod averages the spacing of consecutive peaks of series, sampled
// at times.
func MeanPeriod(times, series []float64) (float64, error) {
	if len(times) != len(series) {
		return 0, fmt.Errorf("analysis: %d times for %d samples", len(times), len(series))
	}

	peaks := FindPeaks(series)
	if len(peaks) < 2 {
		return 0, fmt.Errorf("%w: %d peaks, need at least 2", ErrUndefined, len(peaks))
	}

	periods := make([]float64, len(peaks)-1)
	for i := range periods {
		periods[i] = math.Abs(times[peaks[i+1]] - times[peaks[i]])
	}

	mean := stat.Mean(periods, nil)
	if mean == 0 {
		return 0, fmt.Errorf("%w: zero mean period", ErrUndefined)
	}
	return mean, nil
}

// AngularFrequency converts a series' mean peak spacing to 2*pi/T.
func AngularFrequency(times, series []float64) (float64, error) {
	period, err := MeanPeriod(times, series)
	if err != nil {
		return 0, err
	}
	return 2 * math.Pi / period, nil
}

// MeanFrequency estimates the oscillation frequency of the middle
// oscillator of a recorded run.
func MeanFrequency(traj *sim.Trajectory) (float64, error) {
	if traj.Len() == 0 {
		return 0, fmt.Errorf("%w: empty trajectory", ErrUndefined)
	}
	mid := MiddleIndex(traj.Oscillators())
	return AngularFrequency(traj.Times(), traj.DisplacementSeries(mid))
}

// CompareFrequency builds the frequency triple for a run.
func CompareFrequency(analytic float64, traj *sim.Trajectory) Comparison {
	return Compare(analytic, ValueOf(MeanFrequency(traj)))
}
