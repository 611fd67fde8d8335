package config

import (
	"math"
	"sort"
)

// Preset couples a parameter set with the displacement profile of its
// initial state.
type Preset struct {
	Description  string
	Params       Params
	Displacement func(i, n int) float64
}

// State returns the preset's initial state, at rest.
func (p *Preset) State() *InitialState {
	return Displaced(&p.Params, p.Displacement)
}

func omega(w float64) *float64 { return &w }

// fundamental sets Omega to the lowest normal mode of a clamped chain.
func fundamental(p Params) Params {
	p.Omega = omega(p.FixedModeFrequency(1))
	return p
}

var Presets = map[string]*Preset{
	"single": {
		Description: "one mass between two clamped ends",
		Params: fundamental(Params{
			OscillatorCount: 3, Mass: 1, SpringConstant: 1, RestLength: 1,
			Frames: []int{4000, 2000, 1000, 500, 250},
			Dts:    []float64{0.005, 0.01, 0.02, 0.04, 0.08},
		}),
		Displacement: func(i, n int) float64 {
			if i == n/2 {
				return 0.1
			}
			return 0
		},
	},
	"standing": {
		Description: "fundamental standing wave on a clamped chain",
		Params: fundamental(Params{
			OscillatorCount: DefaultOscillators, Mass: DefaultMass, SpringConstant: DefaultK, RestLength: DefaultRestLength,
			Frames: []int{20000, 10000, 5000, 2500},
			Dts:    []float64{0.01, 0.02, 0.04, 0.08},
		}),
		Displacement: func(i, n int) float64 {
			return 0.1 * math.Sin(math.Pi*float64(i)/float64(n-1))
		},
	},
	"pulse": {
		Description: "compact pulse travelling down a long free chain",
		Params: Params{
			OscillatorCount: 150, Mass: DefaultMass, SpringConstant: DefaultK, RestLength: DefaultRestLength,
			FirstOpen: true, LastOpen: true,
			Frames: []int{4000, 8000, 16000},
			Dts:    []float64{0.05, 0.025, 0.0125},
		},
		// Zero beyond the first eleven masses, so the far end stays at
		// rest until the disturbance reaches it.
		Displacement: func(i, n int) float64 {
			x := float64(i) - 5
			if math.Abs(x) >= 5 {
				return 0
			}
			return 0.05 * (1 + math.Cos(math.Pi*x/5))
		},
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
