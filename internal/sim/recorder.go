package sim

import "github.com/san-kum/chainsim/internal/dynamo"

// Recorder accumulates the frames of one run.
type Recorder struct {
	traj Trajectory
}

func NewRecorder(dt float64, capacity int) *Recorder {
	return &Recorder{traj: Trajectory{
		Dt:        dt,
		Snapshots: make([]dynamo.Snapshot, 0, capacity),
	}}
}

func (r *Recorder) OnFrame(s dynamo.Snapshot) {
	r.traj.Snapshots = append(r.traj.Snapshots, s)
}

// Record stores copies of the given vectors as one frame.
func (r *Recorder) Record(displacements, velocities, accelerations []float64, t float64) {
	r.OnFrame(dynamo.Snapshot{
		Frame:         len(r.traj.Snapshots) + 1,
		Time:          t,
		Displacements: dynamo.State(displacements).Clone(),
		Velocities:    dynamo.State(velocities).Clone(),
		Accelerations: dynamo.State(accelerations).Clone(),
	})
}

func (r *Recorder) Trajectory() *Trajectory {
	return &r.traj
}

