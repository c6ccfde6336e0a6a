package codec

import (
	"os"

	"go.uber.org/zap"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
)

// Decode reads the raw file at path and decodes it fully into memory.
func Decode(path string, opts *Options) (*spiceraw.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(errors.PhaseHeader, path, err)
	}
	return decode(data, path, opts)
}

// DecodeBytes decodes an in-memory raw container. Without a path there is
// no extension hint for dialect detection and no companion log to read step
// parameters from; everything else behaves like Decode.
func DecodeBytes(data []byte, opts *Options) (*spiceraw.File, error) {
	return decode(data, "", opts)
}

func decode(data []byte, path string, opts *Options) (*spiceraw.File, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	h, err := header.Parse(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	rules := resolveRules(h, path, opts.Dialect)
	log := Logger()
	log.Debug("decoding",
		zap.String("path", path),
		zap.String("rules", rules.String()),
		zap.Int("variables", h.NVars),
		zap.Int("points", h.NPoints))

	sel, err := selectVars(h, rules, opts.Traces, path)
	if err != nil {
		return nil, err
	}

	f := spiceraw.NewFile(fileMeta(h, rules, path))
	if opts.HeaderOnly || h.NVars == 0 || h.NPoints == 0 {
		return f, assemble(f, h, rules, sel, emptyColumns(h, rules))
	}

	if rules.Fallback && h.Binary() {
		return nil, errors.UnsupportedDialect(path, producerHint(h))
	}

	cols, err := decodeBody(data[h.BodyOffset:], h, rules, sel, path)
	if err != nil {
		return nil, err
	}
	if err := assemble(f, h, rules, sel, cols); err != nil {
		return nil, err
	}

	steps, err := fileSteps(path, h.Flags, f)
	if err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		if err := f.SetSteps(steps); err != nil {
			return nil, err
		}
	}
	warnNonMonotonic(f)

	log.Debug("decoded",
		zap.String("path", path),
		zap.Int("points", f.Points()),
		zap.Int("steps", f.StepCount()))
	return f, nil
}

// resolveRules honors an explicit dialect override, otherwise detects from
// header hints.
func resolveRules(h *header.Header, path string, d dialect.Dialect) dialect.Rules {
	if d == dialect.Auto {
		return dialect.Resolve(h, path)
	}
	return dialect.For(d, h)
}

// selectVars maps the Traces option onto header variable indexes. The axis
// is always selected: step partitioning and Wave windows need it even when
// the caller asked for a single trace.
func selectVars(h *header.Header, rules dialect.Rules, names []string, path string) ([]bool, error) {
	sel := make([]bool, len(h.Vars))
	if len(names) == 0 {
		for i := range sel {
			sel[i] = true
		}
		return sel, nil
	}
	if rules.AxisIndex >= 0 {
		sel[rules.AxisIndex] = true
	}
	for _, name := range names {
		v, ok := h.Var(name)
		if !ok {
			return nil, errors.TraceNotFound(path, name)
		}
		sel[v.Index] = true
	}
	return sel, nil
}

func fileMeta(h *header.Header, rules dialect.Rules, path string) spiceraw.Meta {
	return spiceraw.Meta{
		Path:     path,
		Title:    h.Title,
		Date:     h.Date,
		Plotname: h.Plotname,
		Command:  h.Command,
		Flags:    h.Flags,
		Extra:    h.Extra,
		Dialect:  rules.Dialect,
		Encoding: h.Encoding,
	}
}

func producerHint(h *header.Header) string {
	if h.Command != "" {
		return "Command: " + h.Command
	}
	return "header names no known producer"
}

// column is one variable's decoded buffer. Exactly one slice is non-nil,
// matching the element width the rules fix for that variable.
type column struct {
	f32  []float32
	f64  []float64
	c128 []complex128
}

// makeColumn sizes a buffer of the kind variable i decodes to. Text bodies
// have no element width; their real values are float64.
func makeColumn(rules dialect.Rules, i, n int) column {
	switch {
	case rules.Complex:
		return column{c128: make([]complex128, n)}
	case !rules.ASCII && rules.VarWidth(i) == 4:
		return column{f32: make([]float32, n)}
	default:
		return column{f64: make([]float64, n)}
	}
}

// emptyColumns builds kind-correct zero-length buffers so that header-only
// decodes still resolve every name with the right Kind.
func emptyColumns(h *header.Header, rules dialect.Rules) []column {
	cols := make([]column, len(h.Vars))
	for i := range cols {
		cols[i] = makeColumn(rules, i, 0)
	}
	return cols
}

// assemble moves decoded columns into the model: variable 0 (when the plot
// has an axis) becomes the Axis, everything else selected becomes a Trace in
// header order.
func assemble(f *spiceraw.File, h *header.Header, rules dialect.Rules, sel []bool, cols []column) error {
	if rules.AxisIndex >= 0 {
		v := h.Vars[rules.AxisIndex]
		f.SetAxis(v.Name, v.Type, axisFloat64(cols[rules.AxisIndex]))
	}
	for i, v := range h.Vars {
		if i == rules.AxisIndex || !sel[i] {
			continue
		}
		if err := f.AddTrace(traceFor(v, cols[i])); err != nil {
			return err
		}
	}
	return nil
}

// axisFloat64 converts the stored axis column to the model's float64 axis.
// Complex plots store the axis as a pair whose imaginary half is zero; the
// real half is the frequency.
func axisFloat64(c column) []float64 {
	if c.c128 != nil {
		out := make([]float64, len(c.c128))
		for i, v := range c.c128 {
			out[i] = real(v)
		}
		return out
	}
	return c.f64
}

func traceFor(v header.Var, c column) *spiceraw.Trace {
	switch {
	case c.c128 != nil:
		return spiceraw.NewTraceC128(v.Name, v.Type, c.c128)
	case c.f32 != nil:
		return spiceraw.NewTraceF32(v.Name, v.Type, c.f32)
	default:
		return spiceraw.NewTraceF64(v.Name, v.Type, c.f64)
	}
}

func fileSteps(path string, flags header.Flags, f *spiceraw.File) ([]spiceraw.Step, error) {
	if !flags.Stepped || f.Points() == 0 {
		return nil, nil
	}
	var axis []float64
	if f.Axis() != nil {
		axis = f.Axis().Raw()
	}
	return ComputeSteps(path, flags, axis, f.Points())
}

// warnNonMonotonic logs when an axis window runs in neither direction
// within a step. Real sweeps run forward or backward; anything else usually
// means the step partition does not match this file.
func warnNonMonotonic(f *spiceraw.File) {
	ax := f.Axis()
	if ax == nil || ax.Len() == 0 {
		return
	}
	for i := 0; i < f.StepCount(); i++ {
		w, err := ax.Wave(i)
		if err != nil || monotonic(w) {
			continue
		}
		Logger().Warn("axis is not monotonic within step",
			zap.String("path", f.Meta().Path),
			zap.String("axis", ax.Name()),
			zap.Int("step", i))
	}
}

func monotonic(w []float64) bool {
	up, down := true, true
	for i := 1; i < len(w); i++ {
		if w[i] < w[i-1] {
			up = false
		}
		if w[i] > w[i-1] {
			down = false
		}
	}
	return up || down
}
