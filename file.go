package spiceraw

import (
	"strings"

	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
)

// Meta carries a file's provenance: everything the header said about the
// run, plus how the bytes were interpreted.
type Meta struct {
	Path     string // source path, empty for in-memory buffers
	Title    string
	Date     string
	Plotname string
	Command  string
	Flags    header.Flags
	Extra    []header.Attr // unrecognized header attributes, original order
	Dialect  dialect.Dialect
	Encoding header.Encoding
}

// File is a decoded waveform container: one optional axis, the dependent
// traces in declared order, and the step partition. A decode builds a File
// once and the result is read-only; writer input is assembled incrementally
// with NewFile, SetAxis and AddTrace, then validated by the encoder.
type File struct {
	meta   Meta
	axis   *Axis
	traces []*Trace
	byName map[string]*Trace
	steps  []Step
}

// NewFile starts an empty container with the given provenance.
func NewFile(m Meta) *File {
	return &File{meta: m, byName: make(map[string]*Trace)}
}

// Meta returns a copy of the file's provenance.
func (f *File) Meta() Meta {
	m := f.meta
	m.Extra = append([]header.Attr(nil), f.meta.Extra...)
	return m
}

func (f *File) Dialect() dialect.Dialect { return f.meta.Dialect }

func (f *File) Flags() header.Flags { return f.meta.Flags }

func (f *File) Plotname() string { return f.meta.Plotname }

// SetAxis installs the independent axis, replacing any previous one.
func (f *File) SetAxis(name, typ string, data []float64) *Axis {
	a := &Axis{name: name, typ: typ, data: data, file: f}
	f.axis = a
	return a
}

// AddTrace appends a dependent trace. Names must be unique among traces and
// against the axis, compared case-insensitively.
func (f *File) AddTrace(t *Trace) error {
	if t == nil {
		return errors.Validation("nil trace")
	}
	low := strings.ToLower(t.name)
	if _, ok := f.byName[low]; ok {
		return errors.Validation("duplicate trace name %q", t.name)
	}
	if f.axis != nil && strings.EqualFold(f.axis.name, t.name) {
		return errors.Validation("trace name %q collides with the axis", t.name)
	}
	t.file = f
	f.traces = append(f.traces, t)
	f.byName[low] = t
	return nil
}

// AddDerived appends a computed real trace, evaluating fn eagerly for every
// existing point index. Derived traces behave like decoded ones: they
// participate in lookup, steps and encoding.
func (f *File) AddDerived(name, typ string, fn func(i int) float64) error {
	if fn == nil {
		return errors.Validation("nil derivation for trace %q", name)
	}
	n := f.Points()
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = fn(i)
	}
	return f.AddTrace(NewTraceF64(name, typ, data))
}

// Axis returns the independent axis, nil for pointwise plots.
func (f *File) Axis() *Axis { return f.axis }

// Traces returns the dependent traces in declared order. Treat the slice as
// read-only.
func (f *File) Traces() []*Trace { return f.traces }

// TraceNames returns every declared series name in container order, the
// axis first when one exists.
func (f *File) TraceNames() []string {
	names := make([]string, 0, len(f.traces)+1)
	if f.axis != nil {
		names = append(names, f.axis.name)
	}
	for _, t := range f.traces {
		names = append(names, t.name)
	}
	return names
}

// Trace looks a dependent trace up by name, case-insensitively.
func (f *File) Trace(name string) (*Trace, error) {
	if t, ok := f.byName[strings.ToLower(name)]; ok {
		return t, nil
	}
	if f.axis != nil && strings.EqualFold(f.axis.name, name) {
		return nil, errors.New(errors.PhaseAccess, errors.KindTraceNotFound).
			File(f.meta.Path).
			Trace(name).
			Detail("%q is the axis; use Axis()", name).
			Build()
	}
	return nil, errors.TraceNotFound(f.meta.Path, name)
}

// Points returns the total point count across all steps.
func (f *File) Points() int {
	if f.axis != nil {
		return f.axis.Len()
	}
	if len(f.traces) > 0 {
		return f.traces[0].Len()
	}
	return 0
}

// Steps returns the step partition. A file that was never partitioned has
// one synthetic step spanning every point.
func (f *File) Steps() []Step {
	if len(f.steps) == 0 {
		return []Step{{Index: 0, Start: 0, N: f.Points()}}
	}
	return f.steps
}

func (f *File) StepCount() int {
	if len(f.steps) == 0 {
		return 1
	}
	return len(f.steps)
}

// SetSteps installs a step partition. Ranges must be contiguous from zero
// and sum to the file's point count; Index fields are renumbered in place
// of whatever the caller supplied.
func (f *File) SetSteps(steps []Step) error {
	total := f.Points()
	off := 0
	cp := append([]Step(nil), steps...)
	for i := range cp {
		if cp[i].N < 0 {
			return errors.Validation("step %d has negative length %d", i, cp[i].N)
		}
		if cp[i].Start != off {
			return errors.Validation("step %d starts at %d, expected %d (ranges must be contiguous)", i, cp[i].Start, off)
		}
		cp[i].Index = i
		off += cp[i].N
	}
	if off != total {
		return errors.Validation("step lengths sum to %d, file has %d points", off, total)
	}
	f.steps = cp
	return nil
}

// Validate checks the container invariants the writer relies on: at least
// one series, unique names, every trace exactly as long as the axis (or as
// each other when no axis exists), steps summing to the point count.
func (f *File) Validate() error {
	if f.axis == nil && len(f.traces) == 0 {
		return errors.Validation("file has no axis and no traces")
	}
	total := f.Points()
	seen := make(map[string]string, len(f.traces)+1)
	if f.axis != nil {
		seen[strings.ToLower(f.axis.name)] = f.axis.name
	}
	for _, t := range f.traces {
		low := strings.ToLower(t.name)
		if prev, ok := seen[low]; ok {
			return errors.Validation("duplicate series name %q (collides with %q)", t.name, prev)
		}
		seen[low] = t.name
		if t.Len() != total {
			return errors.Validation("trace %q has %d points, expected %d", t.name, t.Len(), total)
		}
	}
	if len(f.steps) > 0 {
		sum := 0
		for _, s := range f.steps {
			sum += s.N
		}
		if sum != total {
			return errors.Validation("step lengths sum to %d, file has %d points", sum, total)
		}
	}
	return nil
}

func (f *File) stepRange(step int) (int, int, error) {
	steps := f.Steps()
	if step < 0 || step >= len(steps) {
		return 0, 0, errors.Validation("step %d out of range (file has %d steps)", step, len(steps))
	}
	s := steps[step]
	return s.Start, s.End(), nil
}
