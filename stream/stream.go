package stream

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spicekit/spiceraw/codec"
	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
	"github.com/spicekit/spiceraw/internal/bin"
)

// DefaultMemoryBudget bounds a chunk when Config leaves both the record
// count and the budget unset.
const DefaultMemoryBudget = 4 << 20

// Config bounds the reader. ChunkRecords wins when both limits are set;
// otherwise MemoryBudget (or DefaultMemoryBudget) is divided by the
// per-record footprint and rounded down to whole records, minimum one.
type Config struct {
	// ChunkRecords is the maximum number of records per chunk.
	ChunkRecords int

	// MemoryBudget is the approximate ceiling, in bytes, on what one chunk
	// holds while being assembled.
	MemoryBudget int64

	// Traces limits chunks to the named dependent variables, compared
	// case-insensitively. The axis always decodes. Empty means every
	// variable.
	Traces []string
}

func (c Config) validate() error {
	if c.ChunkRecords < 0 {
		return errors.Validation("chunk record count %d is negative", c.ChunkRecords)
	}
	if c.MemoryBudget < 0 {
		return errors.Validation("memory budget %d is negative", c.MemoryBudget)
	}
	return nil
}

func (c Config) records(perRecord int, total int) int {
	n := int64(c.ChunkRecords)
	if n == 0 {
		budget := c.MemoryBudget
		if budget == 0 {
			budget = DefaultMemoryBudget
		}
		if perRecord < 1 {
			perRecord = 1
		}
		n = budget / int64(perRecord)
	}
	if total > 0 && n > int64(total) {
		n = int64(total)
	}
	if n < 1 {
		n = 1
	}
	return int(n)
}

// Chunk is one contiguous run of records. Start is the absolute index of
// the first record, N the record count, Step the sweep iteration every
// record belongs to. Axis is nil for pointwise plots and sign-normalized
// for LTspice time axes. Real plots fill Values, complex plots fill
// Complex; the axis appears in neither map.
type Chunk struct {
	Start int
	N     int
	Step  int

	Axis    []float64
	Values  map[string][]float64
	Complex map[string][]complex128
}

// Reader pulls chunks off one container in record order.
type Reader struct {
	src    io.ReaderAt
	closer io.Closer // nil for in-memory sources
	info   *codec.Info

	sel   []bool
	nData int // selected vars excluding the axis
	chunk int

	next    int // absolute index of the next record to emit
	step    int
	stepped bool

	firstAxis float64
	haveFirst bool

	// text bodies only
	tokens  *bufio.Scanner
	parsed  int
	pending *record

	closed atomic.Bool
	fail   error
}

// Open starts streaming the container at path. The handle stays open until
// Close and is released on every Open error path.
func Open(path string, cfg Config) (*Reader, error) {
	h, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO(errors.PhaseStream, path, err)
	}
	st, err := h.Stat()
	if err != nil {
		h.Close()
		return nil, errors.WrapIO(errors.PhaseStream, path, err)
	}
	r, err := open(h, st.Size(), path, h, cfg)
	if err != nil {
		h.Close()
		return nil, err
	}
	return r, nil
}

// OpenBytes streams an in-memory container.
func OpenBytes(data []byte, cfg Config) (*Reader, error) {
	return open(bytes.NewReader(data), int64(len(data)), "", nil, cfg)
}

func open(src io.ReaderAt, size int64, path string, closer io.Closer, cfg Config) (*Reader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	info, err := codec.ProbeReaderAt(src, size, path)
	if err != nil {
		return nil, err
	}
	h, rules := info.Header, info.Rules
	if rules.Fallback && h.Binary() {
		return nil, errors.UnsupportedDialect(path, "Command: "+h.Command)
	}
	if !rules.ASCII {
		want := rules.BodySize(h.NVars, h.NPoints)
		if got := info.BodyBytes(); got < want {
			return nil, errors.Truncated(path, h.BodyOffset, want, got)
		}
	}
	sel, err := selectVars(h, rules, cfg.Traces, path)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		src:     src,
		closer:  closer,
		info:    info,
		sel:     sel,
		stepped: h.Flags.Stepped,
	}
	for i, on := range sel {
		if on && i != rules.AxisIndex {
			r.nData++
		}
	}
	r.chunk = cfg.records(perRecordBytes(info, sel), h.NPoints)

	if rules.ASCII {
		body := io.NewSectionReader(src, h.BodyOffset, size-h.BodyOffset)
		sc := bufio.NewScanner(header.DecodeReader(body, h.Encoding))
		sc.Split(bufio.ScanWords)
		r.tokens = sc
	}

	Logger().Debug("streaming",
		zap.String("path", path),
		zap.String("rules", rules.String()),
		zap.Int("points", h.NPoints),
		zap.Int("chunk_records", r.chunk))
	return r, nil
}

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

// perRecordBytes estimates what one record costs while a chunk is being
// assembled: the decoded output plus the raw window binary layouts read.
func perRecordBytes(info *codec.Info, sel []bool) int {
	h, rules := info.Header, info.Rules
	n := 0
	for i, on := range sel {
		if !on {
			continue
		}
		if rules.Complex && i != rules.AxisIndex {
			n += 16
		} else {
			n += 8
		}
		if !rules.ASCII && rules.FastAccess {
			n += rules.VarWidth(i)
		}
	}
	if !rules.ASCII && !rules.FastAccess {
		n += rules.RecordSize(h.NVars)
	}
	return n
}

// Info exposes the probed header and layout rules.
func (r *Reader) Info() *codec.Info { return r.info }

// Points returns the declared record count.
func (r *Reader) Points() int { return r.info.Header.NPoints }

// ChunkRecords returns the resolved per-chunk record ceiling.
func (r *Reader) ChunkRecords() int { return r.chunk }

// Next returns the next chunk, io.EOF once the declared point count is
// exhausted, or the sticky error that stopped the reader.
func (r *Reader) Next() (*Chunk, error) {
	if r.closed.Load() {
		return nil, errors.New(errors.PhaseStream, errors.KindIO).
			File(r.info.Path).
			Detail("reader is closed").
			Build()
	}
	if r.fail != nil {
		return nil, r.fail
	}
	var (
		ck  *Chunk
		err error
	)
	if r.tokens != nil {
		ck, err = r.nextText()
	} else {
		ck, err = r.nextBinary()
	}
	if err != nil && err != io.EOF {
		r.fail = err
	}
	return ck, err
}

// Close releases the handle. Close is idempotent; Next fails afterwards.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.closer == nil {
		return nil
	}
	if err := r.closer.Close(); err != nil {
		return errors.WrapIO(errors.PhaseStream, r.info.Path, err)
	}
	return nil
}

// cutAt bounds the chunk starting at r.next to one step. axisRaw holds the
// stored axis values of the n candidate records; boundaries are records
// where the axis returns to its first value. It also advances r.step when
// the chunk itself starts on a boundary.
func (r *Reader) cutAt(axisRaw []float64, n int, hasAxis bool) int {
	if !r.stepped {
		return n
	}
	if !hasAxis {
		// One step per record when a stepped plot has no axis.
		if r.next > 0 {
			r.step++
		}
		return 1
	}
	if !r.haveFirst {
		r.firstAxis = axisRaw[0]
		r.haveFirst = true
	} else if r.next > 0 && axisRaw[0] == r.firstAxis {
		r.step++
	}
	for j := 1; j < n; j++ {
		if axisRaw[j] == r.firstAxis {
			return j
		}
	}
	return n
}

func (r *Reader) nextBinary() (*Chunk, error) {
	h, rules := r.info.Header, r.info.Rules
	total := h.NPoints
	if r.next >= total {
		return nil, io.EOF
	}
	n := r.chunk
	if rem := total - r.next; n > rem {
		n = rem
	}
	hasAxis := rules.AxisIndex >= 0

	var (
		win     []byte // row-major window, whole records
		rec     int
		axisRaw []float64
	)
	if rules.FastAccess {
		if hasAxis {
			buf, err := r.columnBytes(rules.AxisIndex, r.next, r.next+n)
			if err != nil {
				return nil, err
			}
			axisRaw = rawAxis(buf, rules.Complex, n, rules.VarWidth(rules.AxisIndex))
		}
	} else {
		rec = rules.RecordSize(h.NVars)
		win = make([]byte, n*rec)
		if err := r.readAt(win, rules.PointOffset(h.BodyOffset, h.NVars, r.next, 0)); err != nil {
			return nil, err
		}
		if hasAxis {
			axisRaw = rawAxis(win[rules.VarOffsetInRecord(rules.AxisIndex):], rules.Complex, n, rec)
		}
	}

	cut := r.cutAt(axisRaw, n, hasAxis)
	ck := r.newChunk(cut)
	if hasAxis {
		ck.Axis = r.normalizeAxis(axisRaw[:cut])
	}

	for i := range h.Vars {
		if !r.sel[i] || i == rules.AxisIndex {
			continue
		}
		var (
			src    []byte
			stride int
		)
		if rules.FastAccess {
			buf, err := r.columnBytes(i, r.next, r.next+cut)
			if err != nil {
				return nil, err
			}
			src, stride = buf, rules.VarWidth(i)
		} else {
			src, stride = win[rules.VarOffsetInRecord(i):], rec
		}
		name := h.Vars[i].Name
		switch {
		case rules.Complex:
			ck.Complex[name] = extractC128(src, cut, stride)
		case rules.VarWidth(i) == 4:
			ck.Values[name] = extractF32(src, cut, stride)
		default:
			ck.Values[name] = extractF64(src, cut, stride)
		}
	}
	r.next += cut
	return ck, nil
}

func (r *Reader) nextText() (*Chunk, error) {
	h, rules := r.info.Header, r.info.Rules
	total := h.NPoints
	if r.next >= total && r.pending == nil {
		return nil, io.EOF
	}
	hasAxis := rules.AxisIndex >= 0

	recs := make([]record, 0, r.chunk)
	if r.pending != nil {
		// The held-back record opened a new step when it was parsed.
		recs = append(recs, *r.pending)
		r.pending = nil
		r.step++
	}
	for len(recs) < r.chunk && r.parsed < total {
		rec, err := r.parseRecord()
		if err != nil {
			return nil, err
		}
		if r.parsed == 1 && hasAxis {
			r.firstAxis = rec.axis(rules)
			r.haveFirst = true
		}
		if r.stepped && r.parsed > 1 && (!hasAxis || rec.axis(rules) == r.firstAxis) {
			if len(recs) == 0 {
				r.step++
			} else {
				r.pending = &rec
				break
			}
		}
		recs = append(recs, rec)
	}

	cut := len(recs)
	ck := r.newChunk(cut)
	if hasAxis {
		axis := make([]float64, cut)
		for k := range recs {
			axis[k] = recs[k].axis(rules)
		}
		ck.Axis = r.normalizeAxis(axis)
	}
	for i := range h.Vars {
		if !r.sel[i] || i == rules.AxisIndex {
			continue
		}
		name := h.Vars[i].Name
		if rules.Complex {
			vals := make([]complex128, cut)
			for k := range recs {
				vals[k] = recs[k].c128[i]
			}
			ck.Complex[name] = vals
		} else {
			vals := make([]float64, cut)
			for k := range recs {
				vals[k] = recs[k].f64[i]
			}
			ck.Values[name] = vals
		}
	}
	r.next += cut
	return ck, nil
}

func (r *Reader) newChunk(n int) *Chunk {
	ck := &Chunk{Start: r.next, N: n, Step: r.step}
	if r.nData > 0 {
		if r.info.Rules.Complex {
			ck.Complex = make(map[string][]complex128, r.nData)
		} else {
			ck.Values = make(map[string][]float64, r.nData)
		}
	}
	return ck
}

// columnBytes reads one variable's run [start, end) of a column-major body.
func (r *Reader) columnBytes(i, start, end int) ([]byte, error) {
	h, rules := r.info.Header, r.info.Rules
	w := rules.VarWidth(i)
	buf := make([]byte, (end-start)*w)
	off := rules.ColumnOffset(h.BodyOffset, h.NPoints, i) + int64(start)*int64(w)
	if err := r.readAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) readAt(buf []byte, off int64) error {
	if _, err := r.src.ReadAt(buf, off); err != nil {
		return errors.WrapIO(errors.PhaseStream, r.info.Path, err)
	}
	return nil
}

// normalizeAxis strips LTspice compression signs in place. The scan for
// step boundaries always runs before this, on the stored values.
func (r *Reader) normalizeAxis(vals []float64) []float64 {
	if !r.signCompressed() {
		return vals
	}
	for i, v := range vals {
		vals[i] = math.Abs(v)
	}
	return vals
}

func (r *Reader) signCompressed() bool {
	rules := r.info.Rules
	if rules.AxisIndex < 0 || rules.Dialect != dialect.LTspice {
		return false
	}
	return strings.EqualFold(r.info.Header.Vars[rules.AxisIndex].Type, "time")
}

func rawAxis(buf []byte, complexPlot bool, count, stride int) []float64 {
	out := make([]float64, count)
	for k := 0; k < count; k++ {
		if complexPlot {
			out[k] = real(bin.C128(buf[k*stride:]))
		} else {
			out[k] = bin.F64(buf[k*stride:])
		}
	}
	return out
}

func extractF64(buf []byte, count, stride int) []float64 {
	out := make([]float64, count)
	for k := 0; k < count; k++ {
		out[k] = bin.F64(buf[k*stride:])
	}
	return out
}

func extractF32(buf []byte, count, stride int) []float64 {
	out := make([]float64, count)
	for k := 0; k < count; k++ {
		out[k] = float64(bin.F32(buf[k*stride:]))
	}
	return out
}

func extractC128(buf []byte, count, stride int) []complex128 {
	out := make([]complex128, count)
	for k := 0; k < count; k++ {
		out[k] = bin.C128(buf[k*stride:])
	}
	return out
}
