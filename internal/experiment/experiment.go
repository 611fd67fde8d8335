package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/metrics"
	"github.com/san-kum/chainsim/internal/physics"
	"github.com/san-kum/chainsim/internal/sim"
	"go.uber.org/zap"
)

// RunReport is everything derived from one (frames, dt) simulation.
type RunReport struct {
	config.Run

	Trajectory *sim.Trajectory  `json:"-"`
	Energies   metrics.Energies `json:"-"`

	EnergyDrift       float64              `json:"energy_drift"`
	Frequency         *analysis.Comparison `json:"frequency,omitempty"`
	SpectralFrequency analysis.Value       `json:"spectral_frequency"`
	WaveSpeed         *analysis.WaveFront  `json:"wave_speed,omitempty"`
}

// Report is the outcome of a whole batch, runs in input order.
type Report struct {
	Params *config.Params       `json:"params"`
	State  *config.InitialState `json:"initial_state"`
	Runs   []*RunReport         `json:"runs"`
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.log = l
		}
	}
}

// WithObserver attaches o to every run's simulator.
func WithObserver(o sim.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

// WithoutValidation disables the per-step NaN/Inf check.
func WithoutValidation() Option {
	return func(e *Experiment) { e.validate = false }
}

// Experiment runs every (frames, dt) pair of a parameter set from the same
// initial state.
type Experiment struct {
	params    *config.Params
	state     *config.InitialState
	log       *zap.Logger
	observers []sim.Observer
	validate  bool
}

func New(p *config.Params, init *config.InitialState, opts ...Option) (*Experiment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := init.Validate(p.OscillatorCount); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}

	e := &Experiment{
		params:   p.Clone(),
		state:    &config.InitialState{X: append([]float64(nil), init.X...), V: append([]float64(nil), init.V...)},
		log:      zap.NewNop(),
		validate: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Experiment) Params() *config.Params { return e.params }

// Run executes the batch sequentially. It stops at the first failing run
// and returns the runs completed before it.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	report := &Report{Params: e.params, State: e.state}

	for _, r := range e.params.Runs() {
		rr, err := e.RunOne(ctx, r)
		if err != nil {
			return report, fmt.Errorf("run %d (dt=%g): %w", r.Index, r.Dt, err)
		}
		report.Runs = append(report.Runs, rr)
	}

	return report, nil
}

// RunOne simulates a single run on a fresh chain and analyzes it.
func (e *Experiment) RunOne(ctx context.Context, r config.Run) (*RunReport, error) {
	log := e.log.With(zap.Int("run", r.Index), zap.Int("frames", r.Frames), zap.Float64("dt", r.Dt))
	log.Debug("starting run", zap.Float64("duration", r.Duration()))

	ch, err := physics.NewChain(e.params, e.state, r.Dt)
	if err != nil {
		return nil, err
	}

	s := sim.New()
	for _, o := range e.observers {
		s.AddObserver(o)
	}

	cfg := sim.DefaultConfig(r.Frames)
	cfg.ValidateState = e.validate

	traj, err := s.Run(ctx, ch, cfg)
	if err != nil {
		log.Error("run aborted", zap.Int("recorded", traj.Len()), zap.Error(err))
		return nil, err
	}

	rr := e.analyze(r, traj, log)
	log.Info("run finished",
		zap.Float64("elapsed", ch.Time()),
		zap.Float64("energy_drift", rr.EnergyDrift),
	)
	return rr, nil
}

func (e *Experiment) analyze(r config.Run, traj *sim.Trajectory, log *zap.Logger) *RunReport {
	p := e.params
	rr := &RunReport{
		Run:        r,
		Trajectory: traj,
		Energies:   metrics.ComputeEnergy(traj.Displacements(), traj.Velocities(), p.Mass, p.SpringConstant),
	}
	rr.EnergyDrift = rr.Energies.Drift()

	if omega, ok := p.AnalyticFrequency(); ok {
		c := analysis.CompareFrequency(omega, traj)
		if !c.Estimated.IsDefined() {
			log.Warn("frequency undefined, fewer than two peaks")
		}
		rr.Frequency = &c
	}
	rr.SpectralFrequency = analysis.ValueOf(analysis.SpectralMeanFrequency(traj))

	wf, err := analysis.EstimateWaveSpeed(p, traj)
	switch {
	case errors.Is(err, analysis.ErrNotApplicable):
	case err != nil:
		log.Warn("wave speed undefined", zap.Error(err))
	default:
		if !wf.Detected {
			log.Warn("last oscillator never moved, wave speed uses the final time",
				zap.Float64("time", wf.ArrivalTime))
		}
		if !wf.Estimated.IsDefined() {
			log.Warn("wave speed undefined, zero arrival time")
		}
		rr.WaveSpeed = &wf
	}

	return rr
}
