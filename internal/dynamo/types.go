package dynamo

import "math"

// State holds one quantity (position, velocity, ...) for every oscillator.
type State []float64

func NewState(n int) State {
	return make(State, n)
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest absolute entry, 0 for an empty state.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// Snapshot is an independent copy of the chain at one frame.
type Snapshot struct {
	Frame         int
	Time          float64
	Positions     State
	Displacements State
	Velocities    State
	Accelerations State
}
