package spiceraw

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
)

func buildFile(t *testing.T) *File {
	t.Helper()
	f := NewFile(Meta{
		Title:    "* rc lowpass",
		Plotname: "Transient Analysis",
		Dialect:  dialect.LTspice,
	})
	f.SetAxis("time", "time", []float64{0, 1, 2, 3})
	if err := f.AddTrace(NewTraceF32("V(out)", "voltage", []float32{0, 0.5, 1, 0.5})); err != nil {
		t.Fatal(err)
	}
	if err := f.AddTrace(NewTraceF64("I(R1)", "device_current", []float64{0, 1e-3, 2e-3, 1e-3})); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFileAccessors(t *testing.T) {
	f := buildFile(t)

	names := f.TraceNames()
	want := []string{"time", "V(out)", "I(R1)"}
	if len(names) != len(want) {
		t.Fatalf("TraceNames = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("TraceNames[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if f.Points() != 4 {
		t.Errorf("Points = %d", f.Points())
	}
	if f.StepCount() != 1 {
		t.Errorf("StepCount = %d", f.StepCount())
	}
	steps := f.Steps()
	if len(steps) != 1 || steps[0].Start != 0 || steps[0].N != 4 {
		t.Errorf("synthetic step = %+v", steps)
	}

	tr, err := f.Trace("v(OUT)")
	if err != nil {
		t.Fatalf("case-insensitive lookup: %v", err)
	}
	if tr.Name() != "V(out)" || tr.Kind() != KindFloat32 {
		t.Errorf("trace = %q kind %v", tr.Name(), tr.Kind())
	}
}

func TestTraceNotFound(t *testing.T) {
	f := buildFile(t)

	_, err := f.Trace("V(missing)")
	if err == nil {
		t.Fatal("lookup of undeclared name succeeded")
	}
	var se *errors.Error
	if !stderrors.As(err, &se) || se.Kind != errors.KindTraceNotFound {
		t.Errorf("error = %v", err)
	}

	_, err = f.Trace("time")
	if err == nil {
		t.Fatal("axis name resolved as a trace")
	}
	if !strings.Contains(err.Error(), "axis") {
		t.Errorf("axis lookup error should point at Axis(): %v", err)
	}
}

func TestDuplicateNames(t *testing.T) {
	f := buildFile(t)

	if err := f.AddTrace(NewTraceF64("v(out)", "voltage", make([]float64, 4))); err == nil {
		t.Error("duplicate trace name accepted")
	}
	if err := f.AddTrace(NewTraceF64("TIME", "time", make([]float64, 4))); err == nil {
		t.Error("trace name colliding with axis accepted")
	}
}

func TestWaveAndPromotion(t *testing.T) {
	f := buildFile(t)

	vout, _ := f.Trace("V(out)")
	if vout.Raw32() == nil || vout.Raw64() != nil {
		t.Fatal("float32 trace does not own a float32 buffer")
	}

	wave, err := vout.Wave(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(wave) != 4 || wave[1] != 0.5 {
		t.Errorf("wave = %v", wave)
	}

	all, err := vout.Float64s()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[2] != 1 {
		t.Errorf("Float64s = %v", all)
	}

	// promotion never mutates the trace
	if vout.Kind() != KindFloat32 || vout.Raw32() == nil {
		t.Error("promotion changed the stored kind")
	}

	if _, err := vout.Wave(1); err == nil {
		t.Error("out-of-range step accepted")
	}
}

func TestComplexTrace(t *testing.T) {
	f := NewFile(Meta{Plotname: "AC Analysis", Dialect: dialect.NGSpice})
	f.SetAxis("frequency", "frequency", []float64{1, 10, 100})
	vals := []complex128{complex(2, 0), complex(0, 2), complex(-2, 0)}
	if err := f.AddTrace(NewTraceC128("V(out)", "voltage", vals)); err != nil {
		t.Fatal(err)
	}

	tr, _ := f.Trace("V(out)")
	if _, err := tr.Wave(0); err == nil {
		t.Error("Wave on a complex trace must refuse")
	}
	if _, err := tr.Float64s(); err == nil {
		t.Error("Float64s on a complex trace must refuse")
	}

	cw, err := tr.WaveComplex(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(cw) != 3 || real(cw[0]) != 2 {
		t.Errorf("WaveComplex = %v", cw)
	}

	mags, err := tr.Magnitudes()
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range mags {
		if m < 1.999999999 || m > 2.000000001 {
			t.Errorf("Magnitudes[%d] = %v, want 2.0", i, m)
		}
	}

	phases, err := tr.Phases()
	if err != nil {
		t.Fatal(err)
	}
	if phases[0] != 0 {
		t.Errorf("Phases[0] = %v, want 0", phases[0])
	}
}

func TestSetSteps(t *testing.T) {
	f := NewFile(Meta{Plotname: "Transient Analysis"})
	f.SetAxis("time", "time", make([]float64, 27))

	good := []Step{
		{Start: 0, N: 10},
		{Start: 10, N: 7},
		{Start: 17, N: 10},
	}
	if err := f.SetSteps(good); err != nil {
		t.Fatalf("SetSteps: %v", err)
	}
	if f.StepCount() != 3 {
		t.Errorf("StepCount = %d", f.StepCount())
	}
	if f.Steps()[1].Index != 1 || f.Steps()[1].End() != 17 {
		t.Errorf("step 1 = %+v", f.Steps()[1])
	}

	gap := []Step{{Start: 0, N: 10}, {Start: 11, N: 16}}
	if err := f.SetSteps(gap); err == nil {
		t.Error("non-contiguous ranges accepted")
	}

	short := []Step{{Start: 0, N: 10}}
	if err := f.SetSteps(short); err == nil {
		t.Error("partition not covering the axis accepted")
	}
}

func TestValidate(t *testing.T) {
	empty := NewFile(Meta{})
	if err := empty.Validate(); err == nil {
		t.Error("empty file validated")
	}

	f := buildFile(t)
	if err := f.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// length mismatch
	bad := NewFile(Meta{Plotname: "Transient Analysis"})
	bad.SetAxis("time", "time", []float64{0, 1, 2})
	if err := bad.AddTrace(NewTraceF64("V(out)", "voltage", []float64{1, 2})); err != nil {
		t.Fatal(err)
	}
	err := bad.Validate()
	if err == nil {
		t.Fatal("length mismatch validated")
	}
	var se *errors.Error
	if !stderrors.As(err, &se) || se.Kind != errors.KindValidation {
		t.Errorf("error = %v", err)
	}

	// axis-only files are permitted
	axisOnly := NewFile(Meta{Plotname: "Transient Analysis"})
	axisOnly.SetAxis("time", "time", []float64{0, 1})
	if err := axisOnly.Validate(); err != nil {
		t.Errorf("axis-only file rejected: %v", err)
	}

	// trace-only (pointwise) files are permitted
	pointwise := NewFile(Meta{Plotname: "Operating Point"})
	if err := pointwise.AddTrace(NewTraceF64("V(n1)", "voltage", []float64{3.3})); err != nil {
		t.Fatal(err)
	}
	if err := pointwise.Validate(); err != nil {
		t.Errorf("pointwise file rejected: %v", err)
	}
}

func TestAddDerived(t *testing.T) {
	f := buildFile(t)

	vout, _ := f.Trace("V(out)")
	ir1, _ := f.Trace("I(R1)")
	v, _ := vout.Float64s()
	i64, _ := ir1.Float64s()

	err := f.AddDerived("P(R1)", "power", func(i int) float64 { return v[i] * i64[i] })
	if err != nil {
		t.Fatal(err)
	}

	p, err := f.Trace("P(R1)")
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind() != KindFloat64 || p.Len() != 4 {
		t.Fatalf("derived trace = %v len %d", p.Kind(), p.Len())
	}
	wave, _ := p.Wave(0)
	if wave[2] != 2e-3 {
		t.Errorf("P(R1)[2] = %v, want 2e-3", wave[2])
	}

	if err := f.Validate(); err != nil {
		t.Errorf("file with derived trace failed validation: %v", err)
	}
}

func TestMetaIsolation(t *testing.T) {
	f := NewFile(Meta{
		Title: "t",
		Extra: []header.Attr{{Key: "Offset", Value: "0"}},
	})
	m := f.Meta()
	m.Extra[0].Value = "changed"
	if f.Meta().Extra[0].Value != "0" {
		t.Error("Meta() exposes the internal Extra slice")
	}
}
