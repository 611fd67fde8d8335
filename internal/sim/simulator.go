package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
)

// Simulator drives one chain through a fixed number of frames.
type Simulator struct {
	observers []Observer
}

func New() *Simulator {
	return &Simulator{observers: make([]Observer, 0)}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run records the current frame and then steps, cfg.Frames times. The
// returned trajectory therefore starts at t = 0 and ends one dt before the
// final chain state. On error the frames recorded so far are returned.
func (s *Simulator) Run(ctx context.Context, ch Stepper, cfg Config) (*Trajectory, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	rec := NewRecorder(ch.Dt(), cfg.Frames)

	for f := 0; f < cfg.Frames; f++ {
		select {
		case <-ctx.Done():
			return rec.Trajectory(), fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		snap := ch.Snapshot()
		rec.OnFrame(snap)
		for _, obs := range s.observers {
			obs.OnFrame(snap)
		}

		ch.Step()

		if cfg.ValidateState && !ch.IsValid() {
			bad := ch.Snapshot()
			return rec.Trajectory(), &dynamo.SimulationError{
				Frame:   bad.Frame,
				Time:    bad.Time,
				State:   bad.Positions,
				Wrapped: dynamo.ErrUnstable,
			}
		}
	}

	return rec.Trajectory(), nil
}

func validateConfig(cfg Config) error {
	if cfg.Frames <= 0 {
		return dynamo.BoundsError("frames", cfg.Frames, "> 0")
	}
	return nil
}
