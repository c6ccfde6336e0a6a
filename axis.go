package spiceraw

import (
	"math"
	"strings"

	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
)

// Axis is the independent-variable series of a file: time, frequency or a
// swept source value. An axis is always real. The stored buffer keeps the
// values exactly as decoded, sign included, so binary round-trips stay
// bit-exact; LTspice negates the time of points it would have compressed
// away, and Wave strips that marker.
type Axis struct {
	name string
	typ  string
	data []float64
	file *File
}

// NewAxis builds a detached axis for file assembly.
func NewAxis(name, typ string, data []float64) *Axis {
	return &Axis{name: name, typ: typ, data: data}
}

func (a *Axis) Name() string { return a.name }

func (a *Axis) Type() string { return a.typ }

func (a *Axis) Len() int { return len(a.data) }

// Raw returns the stored buffer without normalization or copying. Treat it
// as read-only.
func (a *Axis) Raw() []float64 { return a.data }

// Wave returns the axis values for one step, sign-normalized when the
// producing dialect marks compressed points by negation. The result is
// freshly allocated when normalization applies and aliases the stored
// buffer otherwise; treat it as read-only. A detached axis has exactly one
// step spanning everything.
func (a *Axis) Wave(step int) ([]float64, error) {
	start, end := 0, len(a.data)
	if a.file != nil {
		var err error
		start, end, err = a.file.stepRange(step)
		if err != nil {
			return nil, err
		}
	} else if step != 0 {
		return nil, errors.Validation("step %d out of range for a detached axis", step)
	}
	window := a.data[start:end]
	if !a.signCompressed() {
		return window, nil
	}
	out := make([]float64, len(window))
	for i, v := range window {
		out[i] = math.Abs(v)
	}
	return out, nil
}

// signCompressed reports whether stored values carry compression markers in
// their sign bit. Only LTspice does this, and only on time axes.
func (a *Axis) signCompressed() bool {
	return a.file != nil &&
		a.file.Dialect() == dialect.LTspice &&
		strings.EqualFold(a.typ, "time")
}
