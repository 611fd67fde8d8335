package analysis

import (
	"fmt"
	"math"
)

// RelativeError is |reference - measured| / reference.
func RelativeError(reference, measured float64) (float64, error) {
	if reference == 0 {
		return 0, fmt.Errorf("%w: zero reference value", ErrUndefined)
	}
	return math.Abs(reference-measured) / reference, nil
}

// Comparison is the (analytic, estimated, relative error) triple reported
// for every run.
type Comparison struct {
	Analytic      float64 `json:"analytic"`
	Estimated     Value   `json:"estimated"`
	RelativeError Value   `json:"relative_error"`
}

func Compare(analytic float64, estimated Value) Comparison {
	c := Comparison{Analytic: analytic, Estimated: estimated}
	if m, ok := estimated.Get(); ok {
		c.RelativeError = ValueOf(RelativeError(analytic, m))
	}
	return c
}

// Triple returns the comparison as three printable fields.
func (c Comparison) Triple() [3]string {
	return [3]string{Defined(c.Analytic).String(), c.Estimated.String(), c.RelativeError.String()}
}
