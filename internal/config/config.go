package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/chainsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOscillators = 12
	DefaultMass        = 1.0
	DefaultK           = 1.0
	DefaultRestLength  = 1.0
	DefaultFrames      = 2000
	DefaultDt          = 0.01
)

// Params holds the parameters of one batch of simulations. The yaml keys
// follow the historical input_parameters.json layout, so JSON parameter
// files load unchanged. A Params must not be modified once validated; every
// run of the batch shares it read-only.
type Params struct {
	// OscillatorCount is the number of masses in the chain (at least 2).
	OscillatorCount int `yaml:"osc_num" json:"osc_num"`

	// Mass of every oscillator.
	Mass float64 `yaml:"mass" json:"mass"`

	// SpringConstant is the stiffness k of every spring.
	SpringConstant float64 `yaml:"k" json:"k"`

	// RestLength is the equilibrium spacing between neighbours.
	RestLength float64 `yaml:"l_rest" json:"l_rest"`

	// FirstOpen and LastOpen select a free end instead of a clamped one.
	FirstOpen bool `yaml:"first_is_open" json:"first_is_open"`
	LastOpen  bool `yaml:"last_is_open" json:"last_is_open"`

	// Frames and Dts are parallel lists, one entry per simulation.
	Frames []int     `yaml:"frames_num" json:"frames_num"`
	Dts    []float64 `yaml:"dt" json:"dt"`

	// Omega is the analytic angular frequency. Nil skips the frequency
	// comparison.
	Omega *float64 `yaml:"omega" json:"omega"`
}

// Run is one (frame count, time step) pair of a batch.
type Run struct {
	Index  int     `json:"index"`
	Frames int     `json:"frames"`
	Dt     float64 `json:"dt"`
}

// Duration is the simulated time covered by the run.
func (r Run) Duration() float64 {
	return float64(r.Frames) * r.Dt
}

func DefaultParams() *Params {
	p := Presets["standing"].Params
	return p.Clone()
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := *p
	c.Frames = append([]int(nil), p.Frames...)
	c.Dts = append([]float64(nil), p.Dts...)
	if p.Omega != nil {
		w := *p.Omega
		c.Omega = &w
	}
	return &c
}

// Runs returns the batch in input order.
func (p *Params) Runs() []Run {
	n := min(len(p.Frames), len(p.Dts))
	runs := make([]Run, n)
	for i := 0; i < n; i++ {
		runs[i] = Run{Index: i + 1, Frames: p.Frames[i], Dt: p.Dts[i]}
	}
	return runs
}

// AnalyticFrequency reports the reference angular frequency, if any.
func (p *Params) AnalyticFrequency() (float64, bool) {
	if p.Omega == nil {
		return 0, false
	}
	return *p.Omega, true
}

// WaveSpeedApplicable reports whether the chain is long enough and free at
// both ends for a wavefront measurement.
func (p *Params) WaveSpeedApplicable() bool {
	return p.OscillatorCount > 100 && p.FirstOpen && p.LastOpen
}

// FixedModeFrequency is the angular frequency of normal mode m of a chain
// whose two end oscillators are clamped, leaving OscillatorCount-2 moving
// masses.
func (p *Params) FixedModeFrequency(m int) float64 {
	return 2 * math.Sqrt(p.SpringConstant/p.Mass) *
		math.Sin(float64(m)*math.Pi/(2*float64(p.OscillatorCount-1)))
}

func (p *Params) Validate() error {
	if p.OscillatorCount < 2 {
		return dynamo.BoundsError("osc_num", p.OscillatorCount, ">= 2")
	}
	if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
		return dynamo.BoundsError("mass", p.Mass, "> 0")
	}
	if !(p.SpringConstant > 0) || math.IsInf(p.SpringConstant, 0) {
		return dynamo.BoundsError("k", p.SpringConstant, "> 0")
	}
	if !(p.RestLength > 0) || math.IsInf(p.RestLength, 0) {
		return dynamo.BoundsError("l_rest", p.RestLength, "> 0")
	}
	if len(p.Frames) != len(p.Dts) {
		return dynamo.DimensionError("dt", len(p.Dts), len(p.Frames))
	}
	if len(p.Frames) == 0 {
		return dynamo.BoundsError("frames_num", "[]", "at least one run")
	}
	for i := range p.Frames {
		if p.Frames[i] <= 0 {
			return dynamo.BoundsError(fmt.Sprintf("frames_num[%d]", i), p.Frames[i], "> 0")
		}
		if !(p.Dts[i] > 0) || math.IsInf(p.Dts[i], 0) {
			return dynamo.BoundsError(fmt.Sprintf("dt[%d]", i), p.Dts[i], "> 0")
		}
	}
	if p.Omega != nil && (math.IsNaN(*p.Omega) || math.IsInf(*p.Omega, 0)) {
		return dynamo.BoundsError("omega", *p.Omega, "finite")
	}
	return nil
}

// Load reads and validates a parameter file (YAML or JSON).
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := &Params{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func Save(path string, p *Params) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
