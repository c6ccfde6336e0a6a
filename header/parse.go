package header

import (
	stderrors "errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spicekit/spiceraw/errors"
)

// Body markers terminating the header block.
const (
	MarkerBinary = "Binary:"
	MarkerValues = "Values:"
)

// ErrNoMarker is the cause attached to a parse failure when the input ends
// before a body marker was seen. A longer prefix of the same stream may
// still parse; callers reading the header in growing windows test for it
// with errors.Is.
var ErrNoMarker = stderrors.New("input ends before the body marker")

// preambleLineLimit bounds the scan for the body marker so that a
// non-raw text file fails fast instead of being consumed whole.
const preambleLineLimit = 4096

// Parse decodes the header block at the start of data and locates the body.
// It is a pure function: no I/O, no side effects. Errors carry the 1-based
// line number; the caller attaches the file path when one exists.
func Parse(data []byte) (*Header, error) {
	s := newScanner(data)
	h := &Header{Encoding: s.enc}

	var sawTitle, sawPlot, sawFlags, sawNVars, sawNPoints, sawVars bool

	for {
		text, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(errors.PhaseHeader, errors.KindParse).
				Line(s.line).
				Cause(ErrNoMarker).
				Detail("header ends without a body marker (%q or %q)", MarkerBinary, MarkerValues).
				Build()
		}
		if s.line > preambleLineLimit {
			return nil, errors.Parse("", s.line,
				"no body marker within the first %d lines", preambleLineLimit)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		key, value, found := strings.Cut(text, ":")
		if !found {
			return nil, lineErr(s, "expected a \"Key: value\" line, got %q", snippet(text))
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch strings.ToLower(key) {
		case "title":
			h.Title = value
			sawTitle = true
		case "date":
			h.Date = value
		case "plotname":
			h.Plotname = value
			sawPlot = true
		case "command":
			h.Command = value
		case "flags":
			h.Flags = ParseFlags(value)
			sawFlags = true
		case "no. variables":
			h.NVars, err = parseCount(s, value, key)
			if err != nil {
				return nil, err
			}
			sawNVars = true
		case "no. points":
			h.NPoints, err = parseCount(s, value, key)
			if err != nil {
				return nil, err
			}
			sawNPoints = true
		case "variables":
			if !sawNVars {
				return nil, errors.Parse("", s.line,
					"Variables block appears before \"No. Variables\"")
			}
			if err := parseVars(s, h); err != nil {
				return nil, err
			}
			sawVars = true
		case "binary", "values":
			if strings.EqualFold(key, "binary") {
				h.BodyMarker = MarkerBinary
			} else {
				h.BodyMarker = MarkerValues
			}
			h.BodyOffset = s.off
			if s.cp1252 {
				h.Encoding = EncWindows1252
			}
			if err := checkMandatory(s.line, sawTitle, sawPlot, sawFlags, sawNVars, sawNPoints, sawVars); err != nil {
				return nil, err
			}
			return h, nil
		default:
			h.Extra = append(h.Extra, Attr{Key: key, Value: value})
		}
	}
}

func checkMandatory(line int, title, plot, flags, nvars, npoints, vars bool) error {
	missing := ""
	switch {
	case !title:
		missing = "Title"
	case !plot:
		missing = "Plotname"
	case !flags:
		missing = "Flags"
	case !nvars:
		missing = "No. Variables"
	case !npoints:
		missing = "No. Points"
	case !vars:
		missing = "Variables"
	}
	if missing == "" {
		return nil
	}
	return errors.Parse("", line, "mandatory field %q is missing", missing)
}

func parseCount(s *scanner, value, key string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, lineErr(s, "%s value %q is not a non-negative integer", key, value)
	}
	return n, nil
}

// lineErr builds a parse error for the scanner's current line. When that
// line ran into the end of the input it may merely be cut short, so the
// error carries ErrNoMarker and a longer window can be retried.
func lineErr(s *scanner, format string, args ...any) error {
	b := errors.New(errors.PhaseHeader, errors.KindParse).
		Line(s.line).
		Detail(format, args...)
	if s.atEnd() {
		b = b.Cause(ErrNoMarker)
	}
	return b.Build()
}

func parseVars(s *scanner, h *Header) error {
	h.Vars = make([]Var, 0, h.NVars)
	for i := 0; i < h.NVars; i++ {
		text, ok, err := s.next()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.PhaseHeader, errors.KindParse).
				Line(s.line).
				Cause(ErrNoMarker).
				Detail("Variables block ends after %d of %d declared entries", i, h.NVars).
				Build()
		}
		fields := strings.Fields(text)
		if len(fields) < 3 {
			return lineErr(s, "variable entry needs \"<index>\t<name>\t<kind>\", got %q", snippet(text))
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return lineErr(s, "variable index %q is not an integer", fields[0])
		}
		if idx != i {
			return lineErr(s, "variable index %d out of order (expected %d)", idx, i)
		}
		h.Vars = append(h.Vars, Var{
			Index: idx,
			Name:  fields[1],
			Type:  strings.Join(fields[2:], " "),
		})
	}
	return nil
}

func snippet(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// scanner yields header lines as UTF-8 text while tracking the byte offset
// in the original stream, which may be UTF-16-LE.
type scanner struct {
	data   []byte
	enc    Encoding
	off    int64
	line   int
	cp1252 bool
	eof    bool
}

// atEnd reports whether the most recent line was terminated by the end of
// the input rather than a newline, meaning its text may be incomplete.
func (s *scanner) atEnd() bool { return s.eof }

func newScanner(data []byte) *scanner {
	enc := DetectEncoding(data)
	s := &scanner{data: data, enc: enc}
	if enc == EncUTF16LE && len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		s.off = 2
	}
	if enc == EncUTF8 && len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		s.off = 3
	}
	return s
}

// next returns the following header line. ok is false at end of input.
func (s *scanner) next() (text string, ok bool, err error) {
	if s.enc == EncUTF16LE {
		return s.nextUTF16()
	}
	return s.nextByte()
}

func (s *scanner) nextByte() (string, bool, error) {
	n := int64(len(s.data))
	if s.off >= n {
		return "", false, nil
	}
	start := s.off
	end := start
	for end < n && s.data[end] != '\n' {
		end++
	}
	raw := s.data[start:end]
	if end < n {
		s.off = end + 1
	} else {
		s.off = end
		s.eof = true
	}
	s.line++

	if len(raw) > 0 && raw[len(raw)-1] == '\r' {
		raw = raw[:len(raw)-1]
	}
	for _, b := range raw {
		if b == 0 {
			return "", false, errors.New(errors.PhaseHeader, errors.KindEncoding).
				Line(s.line).
				Detail("line contains NUL bytes; not a text header").
				Build()
		}
	}
	if utf8.Valid(raw) {
		return string(raw), true, nil
	}
	dec, err := decodeCP1252(raw)
	if err != nil {
		return "", false, errors.New(errors.PhaseHeader, errors.KindEncoding).
			Line(s.line).
			Cause(err).
			Detail("line is neither valid utf-8 nor windows-1252").
			Build()
	}
	s.cp1252 = true
	return string(dec), true, nil
}

func (s *scanner) nextUTF16() (string, bool, error) {
	n := int64(len(s.data))
	if s.off >= n {
		return "", false, nil
	}
	start := s.off
	end := start
	for end+1 < n && !(s.data[end] == '\n' && s.data[end+1] == 0x00) {
		end += 2
	}
	var raw []byte
	if end+1 < n {
		raw = s.data[start:end]
		s.off = end + 2
	} else {
		raw = s.data[start:]
		s.off = n
		s.eof = true
	}
	s.line++

	if len(raw)%2 != 0 {
		// Only possible when the input ends mid code unit.
		return "", false, errors.New(errors.PhaseHeader, errors.KindEncoding).
			Line(s.line).
			Cause(ErrNoMarker).
			Detail("odd byte count in utf-16-le header line").
			Build()
	}
	if len(raw) >= 2 && raw[len(raw)-2] == '\r' && raw[len(raw)-1] == 0x00 {
		raw = raw[:len(raw)-2]
	}
	dec, err := decodeUTF16(raw)
	if err != nil {
		return "", false, errors.New(errors.PhaseHeader, errors.KindEncoding).
			Line(s.line).
			Cause(err).
			Detail("invalid utf-16-le header line").
			Build()
	}
	return string(dec), true, nil
}
