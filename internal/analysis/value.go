package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

var (
	// ErrUndefined marks an estimate that cannot be formed from the data.
	ErrUndefined = errors.New("analysis: result undefined")

	// ErrNotApplicable marks an estimate the chain configuration does not
	// support.
	ErrNotApplicable = errors.New("analysis: not applicable to this chain")
)

// Value is a scalar result that may be undefined.
type Value struct {
	v  float64
	ok bool
}

// Undefined is the zero Value.
var Undefined = Value{}

func Defined(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Value{v: v, ok: true}
}

// ValueOf adapts a (float64, error) result.
func ValueOf(v float64, err error) Value {
	if err != nil {
		return Undefined
	}
	return Defined(v)
}

func (v Value) Get() (float64, bool) { return v.v, v.ok }
func (v Value) IsDefined() bool      { return v.ok }

// Or returns the value, or fallback when undefined.
func (v Value) Or(fallback float64) float64 {
	if !v.ok {
		return fallback
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "undefined"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}
