package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/sim"
)

// WaveFront is the wave-speed comparison of one run together with the
// arrival data it was derived from.
type WaveFront struct {
	Comparison
	ArrivalTime float64 `json:"arrival_time"`
	Detected    bool    `json:"detected"`
}

// AnalyticWaveSpeed is the long-wavelength group velocity l*sqrt(k/m).
func AnalyticWaveSpeed(p *config.Params) float64 {
	return p.RestLength * math.Sqrt(p.SpringConstant/p.Mass)
}

// ArrivalTime returns the time of the first strictly positive velocity.
// When none is found it returns the last time with detected = false.
func ArrivalTime(times, velocities []float64) (t float64, detected bool) {
	for i, v := range velocities {
		if v > 0 {
			return times[i], true
		}
	}
	if len(times) == 0 {
		return 0, false
	}
	return times[len(times)-1], false
}

// EstimateWaveSpeed times the wavefront over the (n-1)*l length of a long
// free chain. A zero arrival time leaves the measured speed undefined.
func EstimateWaveSpeed(p *config.Params, traj *sim.Trajectory) (WaveFront, error) {
	if !p.WaveSpeedApplicable() {
		return WaveFront{}, fmt.Errorf("%w: need more than 100 oscillators and two open ends", ErrNotApplicable)
	}
	if traj.Len() == 0 {
		return WaveFront{}, fmt.Errorf("%w: empty trajectory", ErrUndefined)
	}

	last := traj.Oscillators() - 1
	arrival, detected := ArrivalTime(traj.Times(), traj.VelocitySeries(last))

	measured := Undefined
	if arrival > 0 {
		measured = Defined(float64(last) * p.RestLength / arrival)
	}

	return WaveFront{
		Comparison:  Compare(AnalyticWaveSpeed(p), measured),
		ArrivalTime: arrival,
		Detected:    detected,
	}, nil
}
