package lazy

import (
	"bytes"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/codec"
	"github.com/spicekit/spiceraw/errors"
)

// File is a header-decoded view of a binary raw container. All methods are
// safe for concurrent use; the underlying handle serves windows through
// ReadAt and is never repositioned.
type File struct {
	src    io.ReaderAt
	closer io.Closer // nil for in-memory sources
	info   *codec.Info

	stepsOnce sync.Once
	steps     []spiceraw.Step
	stepsErr  error

	closed atomic.Bool
}

// Open maps the raw file at path for windowed access. Only the header is
// read; the handle stays open until Close.
func Open(path string) (*File, error) {
	h, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO(errors.PhaseAccess, path, err)
	}
	st, err := h.Stat()
	if err != nil {
		h.Close()
		return nil, errors.WrapIO(errors.PhaseAccess, path, err)
	}
	f, err := open(h, st.Size(), path, h)
	if err != nil {
		h.Close()
		return nil, err
	}
	return f, nil
}

// OpenBytes maps an in-memory container. Close is still valid and shuts
// the view down, though there is no handle to release.
func OpenBytes(data []byte) (*File, error) {
	return open(bytes.NewReader(data), int64(len(data)), "", nil)
}

func open(src io.ReaderAt, size int64, path string, closer io.Closer) (*File, error) {
	info, err := codec.ProbeReaderAt(src, size, path)
	if err != nil {
		return nil, err
	}
	if info.Rules.Fallback && info.Header.Binary() {
		return nil, errors.UnsupportedDialect(path, "Command: "+info.Header.Command)
	}
	if info.Rules.ASCII {
		return nil, errors.New(errors.PhaseAccess, errors.KindValidation).
			File(path).
			Detail("text bodies have no fixed-width records; decode with codec or stream").
			Build()
	}
	want := info.Rules.BodySize(info.Header.NVars, info.Header.NPoints)
	if got := info.BodyBytes(); got < want {
		return nil, errors.Truncated(path, info.Header.BodyOffset, want, got)
	}

	Logger().Debug("opened",
		zap.String("path", path),
		zap.String("rules", info.Rules.String()),
		zap.Int("variables", info.Header.NVars),
		zap.Int("points", info.Header.NPoints))
	return &File{src: src, closer: closer, info: info}, nil
}

// Close releases the handle. Windows taken afterwards fail; Close is
// idempotent.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	if f.closer == nil {
		return nil
	}
	if err := f.closer.Close(); err != nil {
		return errors.WrapIO(errors.PhaseAccess, f.info.Path, err)
	}
	return nil
}

// Info exposes the probed header and layout rules.
func (f *File) Info() *codec.Info { return f.info }

// Points returns the declared point count.
func (f *File) Points() int { return f.info.Header.NPoints }

// Plotname returns the header's plot name.
func (f *File) Plotname() string { return f.info.Header.Plotname }

// TraceNames lists every variable in header order, the axis first when the
// plot has one.
func (f *File) TraceNames() []string {
	return f.info.Header.VarNames()
}

// Axis returns the independent variable as a lazy trace, or nil for
// pointwise plots.
func (f *File) Axis() *Trace {
	if f.info.Rules.AxisIndex < 0 {
		return nil
	}
	v := f.info.Header.Vars[f.info.Rules.AxisIndex]
	return &Trace{file: f, v: v, isAxis: true}
}

// Trace looks a dependent variable up by name, case-insensitively.
func (f *File) Trace(name string) (*Trace, error) {
	v, ok := f.info.Header.Var(name)
	if !ok {
		return nil, errors.TraceNotFound(f.info.Path, name)
	}
	if v.Index == f.info.Rules.AxisIndex {
		return nil, errors.New(errors.PhaseAccess, errors.KindTraceNotFound).
			File(f.info.Path).
			Trace(name).
			Detail("%q is the axis; use Axis()", v.Name).
			Build()
	}
	return &Trace{file: f, v: v}, nil
}

// Steps returns the step partition, computing it on first use by reading
// only the axis column. Unstepped files get one synthetic full-range step.
func (f *File) Steps() ([]spiceraw.Step, error) {
	f.stepsOnce.Do(func() {
		f.steps, f.stepsErr = f.computeSteps()
	})
	return f.steps, f.stepsErr
}

// StepCount returns the number of steps.
func (f *File) StepCount() (int, error) {
	steps, err := f.Steps()
	if err != nil {
		return 0, err
	}
	return len(steps), nil
}

func (f *File) computeSteps() ([]spiceraw.Step, error) {
	flags := f.info.Header.Flags
	if flags.Stepped && f.Points() > 0 {
		var axis []float64
		if ax := f.Axis(); ax != nil {
			vals, err := ax.float64s(0, f.Points())
			if err != nil {
				return nil, err
			}
			axis = vals
		}
		steps, err := codec.ComputeSteps(f.info.Path, flags, axis, f.Points())
		if err != nil {
			return nil, err
		}
		if len(steps) > 0 {
			return steps, nil
		}
	}
	return []spiceraw.Step{{Index: 0, Start: 0, N: f.Points()}}, nil
}

func (f *File) stepRange(step int) (int, int, error) {
	steps, err := f.Steps()
	if err != nil {
		return 0, 0, err
	}
	if step < 0 || step >= len(steps) {
		return 0, 0, errors.New(errors.PhaseAccess, errors.KindValidation).
			File(f.info.Path).
			Detail("step %d out of range (file has %d steps)", step, len(steps)).
			Build()
	}
	return steps[step].Start, steps[step].End(), nil
}

// readAt pulls one byte range out of the container, guarding against use
// after Close.
func (f *File) readAt(buf []byte, off int64) error {
	if f.closed.Load() {
		return errors.New(errors.PhaseAccess, errors.KindIO).
			File(f.info.Path).
			Detail("file is closed").
			Build()
	}
	if _, err := f.src.ReadAt(buf, off); err != nil {
		return errors.WrapIO(errors.PhaseAccess, f.info.Path, err)
	}
	return nil
}

// Materialize assembles a fully decoded in-memory File from the named
// traces (all of them when names is empty) without re-opening the source.
// The axis always materializes.
func (f *File) Materialize(names ...string) (*spiceraw.File, error) {
	h := f.info.Header
	m := spiceraw.Meta{
		Path:     f.info.Path,
		Title:    h.Title,
		Date:     h.Date,
		Plotname: h.Plotname,
		Command:  h.Command,
		Flags:    h.Flags,
		Extra:    h.Extra,
		Dialect:  f.info.Rules.Dialect,
		Encoding: h.Encoding,
	}
	out := spiceraw.NewFile(m)

	if ax := f.Axis(); ax != nil {
		vals, err := ax.float64s(0, f.Points())
		if err != nil {
			return nil, err
		}
		out.SetAxis(ax.Name(), ax.Type(), vals)
	}

	var traces []*Trace
	if len(names) == 0 {
		for _, v := range h.Vars {
			if v.Index == f.info.Rules.AxisIndex {
				continue
			}
			traces = append(traces, &Trace{file: f, v: v})
		}
	} else {
		for _, name := range names {
			t, err := f.Trace(name)
			if err != nil {
				return nil, err
			}
			traces = append(traces, t)
		}
	}

	for _, t := range traces {
		s, err := t.Full()
		if err != nil {
			return nil, err
		}
		var mt *spiceraw.Trace
		switch s.Kind() {
		case spiceraw.KindComplex128:
			mt = spiceraw.NewTraceC128(t.Name(), t.Type(), s.RawComplex())
		case spiceraw.KindFloat32:
			mt = spiceraw.NewTraceF32(t.Name(), t.Type(), s.Raw32())
		default:
			mt = spiceraw.NewTraceF64(t.Name(), t.Type(), s.Raw64())
		}
		if err := out.AddTrace(mt); err != nil {
			return nil, err
		}
	}

	if h.Flags.Stepped {
		steps, err := f.Steps()
		if err != nil {
			return nil, err
		}
		if err := out.SetSteps(steps); err != nil {
			return nil, err
		}
	}
	return out, nil
}
