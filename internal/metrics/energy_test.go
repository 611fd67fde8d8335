package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/physics"
	"github.com/san-kum/chainsim/internal/sim"
)

func TestFrameEnergy(t *testing.T) {
	kinetic, potential := FrameEnergy([]float64{0, 1, 0}, []float64{1, 2, 0}, 2, 3)

	if math.Abs(kinetic-5) > 1e-12 {
		t.Errorf("expected kinetic 5, got %f", kinetic)
	}
	if math.Abs(potential-3) > 1e-12 {
		t.Errorf("expected potential 3, got %f", potential)
	}
}

func TestFrameEnergy_SingleOscillator(t *testing.T) {
	kinetic, potential := FrameEnergy([]float64{5}, []float64{2}, 1, 1)
	if kinetic != 2 || potential != 0 {
		t.Errorf("expected (2, 0), got (%f, %f)", kinetic, potential)
	}
}

func TestComputeEnergy_Empty(t *testing.T) {
	e := ComputeEnergy(nil, nil, 1, 1)
	if e.Len() != 0 || len(e.Kinetic) != 0 || len(e.Potential) != 0 {
		t.Errorf("expected empty series, got %+v", e)
	}
	if e.Drift() != 0 || e.MeanTotal() != 0 {
		t.Error("empty series should have zero drift and mean")
	}
}

func TestComputeEnergy_TotalIsSum(t *testing.T) {
	d := [][]float64{{0, 1}, {0.5, 0.5}}
	v := [][]float64{{0, 0}, {1, -1}}
	e := ComputeEnergy(d, v, 1, 2)

	for i := range e.Total {
		if math.Abs(e.Total[i]-(e.Kinetic[i]+e.Potential[i])) > 1e-15 {
			t.Errorf("frame %d: total %f != %f + %f", i, e.Total[i], e.Kinetic[i], e.Potential[i])
		}
	}
	if e.Potential[0] != 1 || e.Kinetic[1] != 1 || e.Potential[1] != 0 {
		t.Errorf("unexpected series %+v", e)
	}
}

func TestEnergyDrift(t *testing.T) {
	e := Energies{Total: []float64{2, 2.1, 1.8, 2}}
	if got := e.Drift(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("expected drift 0.1, got %f", got)
	}

	zero := Energies{Total: []float64{0, 1}}
	if zero.Drift() != 0 {
		t.Error("drift relative to zero energy should be 0")
	}
}

func simulate(t *testing.T, open bool, dt float64, frames int) Energies {
	t.Helper()
	p := &config.Params{
		OscillatorCount: 10, Mass: 1.5, SpringConstant: 2, RestLength: 1,
		FirstOpen: open, LastOpen: open,
		Frames: []int{frames}, Dts: []float64{dt},
	}
	init := config.Displaced(p, func(i, n int) float64 {
		return 0.2*math.Sin(math.Pi*float64(i)/float64(n-1)) + 0.05*math.Sin(3*math.Pi*float64(i)/float64(n-1))
	})
	init.V[4] = 0.1

	ch, err := physics.NewChain(p, init, dt)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	traj, err := sim.New().Run(context.Background(), ch, sim.DefaultConfig(frames))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return ComputeEnergy(traj.Displacements(), traj.Velocities(), p.Mass, p.SpringConstant)
}

func TestEnergiesAreNonNegative(t *testing.T) {
	for _, open := range []bool{false, true} {
		e := simulate(t, open, 0.05, 2000)
		for i := range e.Total {
			if e.Kinetic[i] < 0 || e.Potential[i] < 0 {
				t.Fatalf("open=%v frame %d: negative energy k=%g p=%g", open, i, e.Kinetic[i], e.Potential[i])
			}
		}
	}
}

func TestEnergyConservation_ClosedChain(t *testing.T) {
	e := simulate(t, false, 0.002, 25000)

	if e.Total[0] <= 0 {
		t.Fatalf("expected positive initial energy, got %f", e.Total[0])
	}
	if drift := e.Drift(); drift > 0.01 {
		t.Errorf("energy drift too large: %.4f", drift)
	}
}

func TestEnergyDriftShrinksWithDt(t *testing.T) {
	coarse := simulate(t, false, 0.04, 2500).Drift()
	fine := simulate(t, false, 0.01, 10000).Drift()

	if fine >= coarse {
		t.Errorf("expected smaller drift for smaller dt: coarse=%g fine=%g", coarse, fine)
	}
}
