package stream

import (
	"strconv"
	"strings"

	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
)

// record is one parsed row of a text body. Exactly one slice is populated,
// matching the plot's element kind, and both carry every variable so the
// axis is always at hand for boundary checks.
type record struct {
	f64  []float64
	c128 []complex128
}

func (re *record) axis(rules dialect.Rules) float64 {
	if re.c128 != nil {
		return real(re.c128[rules.AxisIndex])
	}
	return re.f64[rules.AxisIndex]
}

// parseRecord consumes the next record's tokens: an optional bare index
// followed by one value per variable. Token shapes follow the eager
// decoder; LTspice, NGSpice and the generic fallback all tokenize the same
// way once line structure is ignored.
func (r *Reader) parseRecord() (record, error) {
	h, rules := r.info.Header, r.info.Rules
	p := r.parsed

	tok, err := r.nextToken(p)
	if err != nil {
		return record{}, err
	}
	if isIndexToken(tok, p) {
		tok, err = r.nextToken(p)
		if err != nil {
			return record{}, err
		}
	}

	var rec record
	if rules.Complex {
		rec.c128 = make([]complex128, h.NVars)
	} else {
		rec.f64 = make([]float64, h.NVars)
	}
	for i := 0; i < h.NVars; i++ {
		if i > 0 {
			tok, err = r.nextToken(p)
			if err != nil {
				return record{}, err
			}
		}
		if err := rec.set(tok, rules.Complex, i, p, r.info.Path); err != nil {
			return record{}, err
		}
	}
	r.parsed++
	return rec, nil
}

func (r *Reader) nextToken(p int) (string, error) {
	if r.tokens.Scan() {
		return r.tokens.Text(), nil
	}
	if err := r.tokens.Err(); err != nil {
		return "", errors.WrapIO(errors.PhaseStream, r.info.Path, err)
	}
	return "", errors.New(errors.PhaseStream, errors.KindTruncated).
		File(r.info.Path).
		Detail("text body ends inside record %d of %d", p, r.info.Header.NPoints).
		Build()
}

func (re *record) set(tok string, complexPlot bool, i, p int, path string) error {
	if complexPlot {
		reTok, imTok, ok := strings.Cut(tok, ",")
		if !ok {
			return tokenErr(path, p, i, tok, "want \"re,im\"")
		}
		rv, err1 := strconv.ParseFloat(reTok, 64)
		iv, err2 := strconv.ParseFloat(imTok, 64)
		if err1 != nil || err2 != nil {
			return tokenErr(path, p, i, tok, "is not a complex pair")
		}
		re.c128[i] = complex(rv, iv)
		return nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return tokenErr(path, p, i, tok, "is not a number")
	}
	re.f64[i] = v
	return nil
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

func tokenErr(path string, p, i int, tok, why string) error {
	return errors.New(errors.PhaseStream, errors.KindParse).
		File(path).
		Detail("record %d variable %d: %q %s", p, i, tok, why).
		Build()
}
