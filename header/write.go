package header

import (
	"fmt"
	"strings"

	"github.com/spicekit/spiceraw/errors"
)

// Append serializes h in the same grammar Parse accepts and appends the
// encoded bytes to dst. Variable and point counts are recomputed from the
// actual Vars slice and the NPoints field rather than trusted blindly;
// unknown attributes and flag tokens are emitted verbatim.
func (h *Header) Append(dst []byte, enc Encoding) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", h.Title)
	fmt.Fprintf(&b, "Date: %s\n", h.Date)
	fmt.Fprintf(&b, "Plotname: %s\n", h.Plotname)
	fmt.Fprintf(&b, "Flags: %s\n", h.Flags)
	fmt.Fprintf(&b, "No. Variables: %d\n", len(h.Vars))
	fmt.Fprintf(&b, "No. Points: %d\n", h.NPoints)
	if h.Command != "" {
		fmt.Fprintf(&b, "Command: %s\n", h.Command)
	}
	for _, a := range h.Extra {
		fmt.Fprintf(&b, "%s: %s\n", a.Key, a.Value)
	}
	b.WriteString("Variables:\n")
	for i, v := range h.Vars {
		fmt.Fprintf(&b, "\t%d\t%s\t%s\n", i, v.Name, v.Type)
	}
	marker := h.BodyMarker
	if marker == "" {
		marker = MarkerBinary
	}
	b.WriteString(marker)
	b.WriteByte('\n')

	out, err := EncodeText([]byte(b.String()), enc)
	if err != nil {
		return nil, err
	}
	return append(dst, out...), nil
}

// EncodeText converts UTF-8 text into the given header encoding. ASCII
// bodies of "Values:" files share the header's encoding, so encoders route
// body text through here as well.
func EncodeText(text []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncAuto, EncUTF8:
		return text, nil
	case EncUTF16LE:
		out, err := encodeUTF16(text)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindEncoding).
				Cause(err).
				Detail("cannot encode text as %s", enc).
				Build()
		}
		return out, nil
	case EncWindows1252:
		out, err := encodeCP1252(text)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindEncoding).
				Cause(err).
				Detail("text contains characters outside %s", enc).
				Build()
		}
		return out, nil
	default:
		return nil, errors.New(errors.PhaseEncode, errors.KindEncoding).
			Detail("unknown header encoding %d", enc).
			Build()
	}
}

// DecodeText converts bytes in the given header encoding to UTF-8.
func DecodeText(b []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncAuto, EncUTF8:
		return b, nil
	case EncUTF16LE:
		out, err := decodeUTF16(b)
		if err != nil {
			return nil, errors.New(errors.PhaseBody, errors.KindEncoding).
				Cause(err).
				Detail("invalid %s text", enc).
				Build()
		}
		return out, nil
	case EncWindows1252:
		out, err := decodeCP1252(b)
		if err != nil {
			return nil, errors.New(errors.PhaseBody, errors.KindEncoding).
				Cause(err).
				Detail("invalid %s text", enc).
				Build()
		}
		return out, nil
	default:
		return nil, errors.New(errors.PhaseBody, errors.KindEncoding).
			Detail("unknown header encoding %d", enc).
			Build()
	}
}
