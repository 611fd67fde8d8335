package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector holding NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates vectors whose length differs from the
	// oscillator count.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and chain")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Frame   int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// BoundsError reports a named parameter outside its valid range.
func BoundsError(name string, value any, want string) error {
	return fmt.Errorf("%w: %s = %v, want %s", ErrParameterBounds, name, value, want)
}

// DimensionError reports a vector of the wrong length.
func DimensionError(name string, got, want int) error {
	return fmt.Errorf("%w: %s has %d entries, want %d", ErrDimensionMismatch, name, got, want)
}
