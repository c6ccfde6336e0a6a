package codec

import (
	stderrors "errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
)

// Info describes a raw container without its body having been read: the
// parsed header, the resolved layout rules, and the container size. It is
// everything the lazy and stream packages need to compute body offsets.
type Info struct {
	Path   string // empty for in-memory sources
	Size   int64  // total container length in bytes
	Header *header.Header
	Rules  dialect.Rules
}

// BodyOffset returns the byte offset of the first body byte.
func (in *Info) BodyOffset() int64 { return in.Header.BodyOffset }

// BodyBytes returns the number of bytes between the body marker and the end
// of the container.
func (in *Info) BodyBytes() int64 { return in.Size - in.Header.BodyOffset }

// probeWindow is the initial header read size. It doubles until the body
// marker is found; 64 KiB covers all but pathological Variables blocks in a
// single read.
const probeWindow = 64 * 1024

// Probe opens path and parses its header and layout rules without reading
// the body.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO(errors.PhaseHeader, path, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, errors.WrapIO(errors.PhaseHeader, path, err)
	}
	return ProbeReaderAt(f, st.Size(), path)
}

// ProbeBytes probes an in-memory container.
func ProbeBytes(data []byte) (*Info, error) {
	h, err := header.Parse(data)
	if err != nil {
		return nil, err
	}
	return newInfo(h, int64(len(data)), ""), nil
}

// ProbeReaderAt probes a container behind a random-access reader of known
// size, reading the header in growing windows so only the preamble of a
// large file is ever pulled in. pathHint feeds dialect detection and error
// context; empty is fine.
func ProbeReaderAt(r io.ReaderAt, size int64, pathHint string) (*Info, error) {
	h, err := readHeader(r, size, pathHint)
	if err != nil {
		return nil, err
	}
	return newInfo(h, size, pathHint), nil
}

func newInfo(h *header.Header, size int64, path string) *Info {
	rules := dialect.Resolve(h, path)
	Logger().Debug("probed container",
		zap.String("path", path),
		zap.String("plotname", h.Plotname),
		zap.String("rules", rules.String()),
		zap.Int("variables", h.NVars),
		zap.Int("points", h.NPoints),
		zap.Int64("body_offset", h.BodyOffset))
	return &Info{Path: path, Size: size, Header: h, Rules: rules}
}

// readHeader parses the header from the front of r, retrying with a doubled
// window while the parse failure says the input ended before the body
// marker. The final window is the whole container, so a genuinely
// marker-less file still fails with the original error.
func readHeader(r io.ReaderAt, size int64, path string) (*header.Header, error) {
	win := int64(probeWindow)
	for {
		if win > size {
			win = size
		}
		buf := make([]byte, win)
		n, err := r.ReadAt(buf, 0)
		if err != nil && err != io.EOF {
			return nil, errors.WrapIO(errors.PhaseHeader, path, err)
		}
		h, perr := header.Parse(buf[:n])
		if perr == nil {
			return h, nil
		}
		if win < size && stderrors.Is(perr, header.ErrNoMarker) {
			win *= 2
			continue
		}
		return nil, withPath(perr, path)
	}
}

// withPath stamps the file path onto a structured error built without one.
// header.Parse never sees a path; the caller holding it adds it here.
func withPath(err error, path string) error {
	if err == nil || path == "" {
		return err
	}
	var se *errors.Error
	if stderrors.As(err, &se) && se.File == "" {
		se.File = path
	}
	return err
}
