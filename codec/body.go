package codec

import (
	"strconv"
	"strings"

	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
	"github.com/spicekit/spiceraw/internal/bin"
)

// decodeBody dispatches on the resolved layout. body is everything after
// the marker line, still in the container's original encoding when text.
func decodeBody(body []byte, h *header.Header, rules dialect.Rules, sel []bool, path string) ([]column, error) {
	if rules.ASCII {
		return decodeASCII(body, h, rules, sel, path)
	}
	want := rules.BodySize(h.NVars, h.NPoints)
	if got := int64(len(body)); got < want {
		return nil, errors.Truncated(path, h.BodyOffset, want, got)
	}
	if rules.FastAccess {
		return decodeColumnMajor(body, h, rules, sel, path)
	}
	return decodeRowMajor(body, h, rules, sel, path)
}

func allocColumns(h *header.Header, rules dialect.Rules, sel []bool) []column {
	cols := make([]column, len(h.Vars))
	for i := range cols {
		if sel[i] {
			cols[i] = makeColumn(rules, i, h.NPoints)
		}
	}
	return cols
}

// decodeRowMajor scatters interleaved records into per-variable buffers.
func decodeRowMajor(body []byte, h *header.Header, rules dialect.Rules, sel []bool, path string) ([]column, error) {
	cols := allocColumns(h, rules, sel)
	r := bin.NewReader(body)
	for p := 0; p < h.NPoints; p++ {
		for i := 0; i < h.NVars; i++ {
			if !sel[i] {
				if err := r.Skip(int64(rules.VarWidth(i))); err != nil {
					return nil, readErr(path, h, r, err)
				}
				continue
			}
			if err := readElement(r, rules, cols, i, p); err != nil {
				return nil, readErr(path, h, r, err)
			}
		}
	}
	return cols, nil
}

// decodeColumnMajor copies one contiguous run per variable.
func decodeColumnMajor(body []byte, h *header.Header, rules dialect.Rules, sel []bool, path string) ([]column, error) {
	cols := allocColumns(h, rules, sel)
	r := bin.NewReader(body)
	for i := 0; i < h.NVars; i++ {
		if !sel[i] {
			if err := r.Skip(int64(rules.VarWidth(i)) * int64(h.NPoints)); err != nil {
				return nil, readErr(path, h, r, err)
			}
			continue
		}
		for p := 0; p < h.NPoints; p++ {
			if err := readElement(r, rules, cols, i, p); err != nil {
				return nil, readErr(path, h, r, err)
			}
		}
	}
	return cols, nil
}

// readElement reads variable i's element at point p into its column.
func readElement(r *bin.Reader, rules dialect.Rules, cols []column, i, p int) error {
	c := &cols[i]
	switch {
	case rules.Complex:
		v, err := r.ReadC128()
		if err != nil {
			return err
		}
		c.c128[p] = v
	case rules.VarWidth(i) == 4:
		v, err := r.ReadF32()
		if err != nil {
			return err
		}
		c.f32[p] = v
	default:
		v, err := r.ReadF64()
		if err != nil {
			return err
		}
		c.f64[p] = v
	}
	return nil
}

// readErr maps a short read onto the truncation taxonomy with the absolute
// container offset.
func readErr(path string, h *header.Header, r *bin.Reader, err error) error {
	return errors.New(errors.PhaseBody, errors.KindTruncated).
		File(path).
		Offset(h.BodyOffset + r.Position()).
		Cause(err).
		Detail("binary body ends mid element").
		Build()
}

// decodeASCII tokenizes a "Values:" body. Records are index-prefixed and
// whitespace-separated; LTspice puts each variable on its own line, NGSpice
// separates records with blank lines, and the generic fallback may omit the
// index entirely. Tokenizing the whole body absorbs all three shapes.
func decodeASCII(body []byte, h *header.Header, rules dialect.Rules, sel []bool, path string) ([]column, error) {
	text, err := header.DecodeText(body, h.Encoding)
	if err != nil {
		return nil, withPath(err, path)
	}
	toks := strings.Fields(string(text))
	cols := allocColumns(h, rules, sel)
	pos := 0
	for p := 0; p < h.NPoints; p++ {
		if pos < len(toks) && isIndexToken(toks[pos], p) {
			pos++
		}
		for i := 0; i < h.NVars; i++ {
			if pos >= len(toks) {
				return nil, errors.New(errors.PhaseBody, errors.KindTruncated).
					File(path).
					Detail("text body ends inside record %d of %d", p, h.NPoints).
					Build()
			}
			if err := parseValueToken(toks[pos], rules, cols, i, p, path); err != nil {
				return nil, err
			}
			pos++
		}
	}
	return cols, nil
}

// isIndexToken reports whether tok is the bare point index p. Values always
// carry an exponent or sign, so a pure digit run is unambiguous.
func isIndexToken(tok string, p int) bool {
	for _, c := range tok {
		if c < '0' || c > '9' {
			return false
		}
	}
	n, err := strconv.Atoi(tok)
	return err == nil && n == p
}

func parseValueToken(tok string, rules dialect.Rules, cols []column, i, p int, path string) error {
	c := &cols[i]
	if rules.Complex {
		reTok, imTok, ok := strings.Cut(tok, ",")
		if !ok {
			return asciiErr(path, p, i, tok, "want \"re,im\"")
		}
		re, err1 := strconv.ParseFloat(reTok, 64)
		im, err2 := strconv.ParseFloat(imTok, 64)
		if err1 != nil || err2 != nil {
			return asciiErr(path, p, i, tok, "is not a complex pair")
		}
		if c.c128 != nil {
			c.c128[p] = complex(re, im)
		}
		return nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return asciiErr(path, p, i, tok, "is not a number")
	}
	if c.f64 != nil {
		c.f64[p] = v
	}
	return nil
}

func asciiErr(path string, p, i int, tok, why string) error {
	return errors.New(errors.PhaseBody, errors.KindParse).
		File(path).
		Detail("record %d variable %d: %q %s", p, i, tok, why).
		Build()
}
