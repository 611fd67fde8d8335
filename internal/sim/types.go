package sim

import "github.com/san-kum/chainsim/internal/dynamo"

// Stepper is the chain as the run loop sees it.
type Stepper interface {
	Step()
	Snapshot() dynamo.Snapshot
	IsValid() bool
	Dt() float64
}

// Observer receives every recorded frame. Snapshots are shared between
// observers and must not be mutated.
type Observer interface {
	OnFrame(s dynamo.Snapshot)
}

type Config struct {
	Frames        int
	ValidateState bool
}

func DefaultConfig(frames int) Config {
	return Config{Frames: frames, ValidateState: true}
}

// Trajectory is the ordered list of frames recorded during one run.
type Trajectory struct {
	Dt        float64
	Snapshots []dynamo.Snapshot
}

func (t *Trajectory) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Snapshots)
}

// Oscillators is the chain length, 0 for an empty trajectory.
func (t *Trajectory) Oscillators() int {
	if t.Len() == 0 {
		return 0
	}
	return len(t.Snapshots[0].Displacements)
}

func (t *Trajectory) Times() []float64 {
	out := make([]float64, t.Len())
	for i, s := range t.Snapshots {
		out[i] = s.Time
	}
	return out
}

func (t *Trajectory) Displacements() [][]float64 {
	out := make([][]float64, t.Len())
	for i, s := range t.Snapshots {
		out[i] = s.Displacements
	}
	return out
}

func (t *Trajectory) Velocities() [][]float64 {
	out := make([][]float64, t.Len())
	for i, s := range t.Snapshots {
		out[i] = s.Velocities
	}
	return out
}

// DisplacementSeries returns oscillator i's displacement over time.
func (t *Trajectory) DisplacementSeries(i int) []float64 {
	return t.series(i, func(s dynamo.Snapshot) dynamo.State { return s.Displacements })
}

// VelocitySeries returns oscillator i's velocity over time.
func (t *Trajectory) VelocitySeries(i int) []float64 {
	return t.series(i, func(s dynamo.Snapshot) dynamo.State { return s.Velocities })
}

// AccelerationSeries returns oscillator i's acceleration over time.
func (t *Trajectory) AccelerationSeries(i int) []float64 {
	return t.series(i, func(s dynamo.Snapshot) dynamo.State { return s.Accelerations })
}

func (t *Trajectory) series(i int, pick func(dynamo.Snapshot) dynamo.State) []float64 {
	out := make([]float64, 0, t.Len())
	for _, s := range t.Snapshots {
		v := pick(s)
		if i < 0 || i >= len(v) {
			return nil
		}
		out = append(out, v[i])
	}
	return out
}
