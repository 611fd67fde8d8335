package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Energies holds the mechanical energy of every recorded frame.
type Energies struct {
	Kinetic   []float64
	Potential []float64
	Total     []float64
}

// FrameEnergy returns the kinetic and spring potential energy of one frame.
func FrameEnergy(displacements, velocities []float64, mass, k float64) (kinetic, potential float64) {
	kinetic = 0.5 * mass * floats.Dot(velocities, velocities)

	n := len(displacements)
	if n < 2 {
		return kinetic, 0
	}
	stretch := make([]float64, n-1)
	floats.SubTo(stretch, displacements[1:], displacements[:n-1])
	potential = 0.5 * k * floats.Dot(stretch, stretch)
	return kinetic, potential
}

// ComputeEnergy evaluates every frame of a run. Frames are matched by
// index; extra entries in the longer list are ignored.
func ComputeEnergy(displacements, velocities [][]float64, mass, k float64) Energies {
	n := min(len(displacements), len(velocities))
	e := Energies{
		Kinetic:   make([]float64, n),
		Potential: make([]float64, n),
		Total:     make([]float64, n),
	}
	for t := 0; t < n; t++ {
		e.Kinetic[t], e.Potential[t] = FrameEnergy(displacements[t], velocities[t], mass, k)
	}
	floats.AddTo(e.Total, e.Kinetic, e.Potential)
	return e
}

func (e Energies) Len() int { return len(e.Total) }

// Drift is the largest relative deviation of the total energy from its
// first value. It is 0 when the first total is 0.
func (e Energies) Drift() float64 {
	if len(e.Total) == 0 || e.Total[0] == 0 {
		return 0
	}
	e0 := e.Total[0]
	drift := 0.0
	for _, v := range e.Total {
		drift = math.Max(drift, math.Abs(v-e0)/math.Abs(e0))
	}
	return drift
}

// MeanTotal is the time average of the total energy.
func (e Energies) MeanTotal() float64 {
	if len(e.Total) == 0 {
		return 0
	}
	return stat.Mean(e.Total, nil)
}
