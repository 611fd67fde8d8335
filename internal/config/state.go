package config

import (
	"fmt"
	"os"

	"github.com/san-kum/chainsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

// InitialState holds absolute positions and velocities at t = 0.
type InitialState struct {
	X []float64 `yaml:"x" json:"x"`
	V []float64 `yaml:"v" json:"v"`
}

// EquilibriumState places every oscillator at rest at i*RestLength.
func EquilibriumState(p *Params) *InitialState {
	s := &InitialState{
		X: make([]float64, p.OscillatorCount),
		V: make([]float64, p.OscillatorCount),
	}
	for i := range s.X {
		s.X[i] = float64(i) * p.RestLength
	}
	return s
}

// Displaced builds a state at rest whose displacement from equilibrium is
// given per oscillator.
func Displaced(p *Params, displacement func(i, n int) float64) *InitialState {
	s := EquilibriumState(p)
	for i := range s.X {
		s.X[i] += displacement(i, p.OscillatorCount)
	}
	return s
}

func (s *InitialState) Validate(n int) error {
	if len(s.X) != n {
		return dynamo.DimensionError("x", len(s.X), n)
	}
	if len(s.V) != n {
		return dynamo.DimensionError("v", len(s.V), n)
	}
	if !dynamo.State(s.X).IsValid() || !dynamo.State(s.V).IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

// LoadState reads an initial state file and checks it against the
// oscillator count.
func LoadState(path string, n int) (*InitialState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &InitialState{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(n); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func SaveState(path string, s *InitialState) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
