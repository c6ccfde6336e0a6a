package header

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	rawerrors "github.com/spicekit/spiceraw/errors"
)

const basicHeader = "Title: * C:\\sim\\rc.asc\n" +
	"Date: Mon Apr 14 09:15:17 2025\n" +
	"Plotname: Transient Analysis\n" +
	"Flags: real forward\n" +
	"No. Variables: 3\n" +
	"No. Points: 4\n" +
	"Offset: 0.0000000000000000e+000\n" +
	"Command: Linear Technology Corporation LTspice XVII\n" +
	"Variables:\n" +
	"\t0\ttime\ttime\n" +
	"\t1\tV(out)\tvoltage\n" +
	"\t2\tI(R1)\tdevice_current\n" +
	"Binary:\n"

func TestParseBasic(t *testing.T) {
	body := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := append([]byte(basicHeader), body...)

	h, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if h.Title != "* C:\\sim\\rc.asc" {
		t.Errorf("Title = %q", h.Title)
	}
	if h.Plotname != "Transient Analysis" {
		t.Errorf("Plotname = %q", h.Plotname)
	}
	if h.Flags.Complex || !h.Flags.Forward || h.Flags.Stepped {
		t.Errorf("Flags = %+v", h.Flags)
	}
	if h.NVars != 3 || h.NPoints != 4 {
		t.Errorf("NVars/NPoints = %d/%d", h.NVars, h.NPoints)
	}
	if h.Command != "Linear Technology Corporation LTspice XVII" {
		t.Errorf("Command = %q", h.Command)
	}
	if len(h.Extra) != 1 || h.Extra[0].Key != "Offset" {
		t.Errorf("Extra = %+v", h.Extra)
	}
	if h.BodyMarker != MarkerBinary || !h.Binary() {
		t.Errorf("BodyMarker = %q", h.BodyMarker)
	}
	if h.Encoding != EncUTF8 {
		t.Errorf("Encoding = %v", h.Encoding)
	}

	want := []Var{
		{0, "time", "time"},
		{1, "V(out)", "voltage"},
		{2, "I(R1)", "device_current"},
	}
	for i, v := range want {
		if h.Vars[i] != v {
			t.Errorf("Vars[%d] = %+v, want %+v", i, h.Vars[i], v)
		}
	}

	if h.BodyOffset != int64(len(basicHeader)) {
		t.Errorf("BodyOffset = %d, want %d", h.BodyOffset, len(basicHeader))
	}
	if !bytes.Equal(data[h.BodyOffset:], body) {
		t.Error("BodyOffset does not point at the body bytes")
	}
}

func TestParseCRLFAndCasing(t *testing.T) {
	text := strings.ReplaceAll(basicHeader, "\n", "\r\n")
	text = strings.Replace(text, "Title:", "TITLE:", 1)
	text = strings.Replace(text, "No. Variables:", "no. variables:", 1)

	h, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Title == "" || h.NVars != 3 {
		t.Errorf("case-insensitive keys not honored: %+v", h)
	}
	if h.BodyOffset != int64(len(text)) {
		t.Errorf("BodyOffset = %d, want %d", h.BodyOffset, len(text))
	}
}

func TestParseUTF16(t *testing.T) {
	body := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	encoded, err := encodeUTF16([]byte(basicHeader))
	if err != nil {
		t.Fatal(err)
	}
	data := append(encoded, body...)

	h, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse utf-16: %v", err)
	}
	if h.Encoding != EncUTF16LE {
		t.Errorf("Encoding = %v, want EncUTF16LE", h.Encoding)
	}
	if h.Title != "* C:\\sim\\rc.asc" || h.NPoints != 4 {
		t.Errorf("fields wrong after utf-16 decode: %+v", h)
	}
	if h.BodyOffset != int64(len(encoded)) {
		t.Errorf("BodyOffset = %d, want %d", h.BodyOffset, len(encoded))
	}
	if !bytes.Equal(data[h.BodyOffset:], body) {
		t.Error("BodyOffset does not point at the body bytes")
	}
}

func TestParseUnknownCommandAndFlags(t *testing.T) {
	text := strings.Replace(basicHeader,
		"Command: Linear Technology Corporation LTspice XVII",
		"Command: WeirdSpice 9000", 1)
	text = strings.Replace(text, "Flags: real forward", "Flags: real forward padded", 1)

	h, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Command != "WeirdSpice 9000" {
		t.Errorf("Command = %q", h.Command)
	}
	if len(h.Flags.Unknown) != 1 || h.Flags.Unknown[0] != "padded" {
		t.Errorf("Flags.Unknown = %v", h.Flags.Unknown)
	}
	if len(h.Vars) != 3 || h.Vars[1].Name != "V(out)" {
		t.Errorf("header parse should not depend on the Command value: %+v", h.Vars)
	}
}

func TestParseZeroVariables(t *testing.T) {
	text := "Title: empty\nDate: today\nPlotname: Transient Analysis\n" +
		"Flags: real\nNo. Variables: 0\nNo. Points: 0\nVariables:\nBinary:\n"
	h, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(h.Vars) != 0 || h.NPoints != 0 {
		t.Errorf("zero-variable header mishandled: %+v", h)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind rawerrors.Kind
		want string
	}{
		{
			name: "missing plotname",
			text: "Title: t\nFlags: real\nNo. Variables: 0\nNo. Points: 0\nVariables:\nBinary:\n",
			kind: rawerrors.KindParse,
			want: "Plotname",
		},
		{
			name: "missing flags",
			text: "Title: t\nPlotname: p\nNo. Variables: 0\nNo. Points: 0\nVariables:\nBinary:\n",
			kind: rawerrors.KindParse,
			want: "Flags",
		},
		{
			name: "bad point count",
			text: "Title: t\nPlotname: p\nFlags: real\nNo. Variables: 0\nNo. Points: many\nVariables:\nBinary:\n",
			kind: rawerrors.KindParse,
			want: "No. Points",
		},
		{
			name: "no marker",
			text: "Title: t\nPlotname: p\nFlags: real\n",
			kind: rawerrors.KindParse,
			want: "body marker",
		},
		{
			name: "variable index out of order",
			text: "Title: t\nPlotname: p\nFlags: real\nNo. Variables: 2\nNo. Points: 1\nVariables:\n\t0\ttime\ttime\n\t5\tV(out)\tvoltage\nBinary:\n",
			kind: rawerrors.KindParse,
			want: "out of order",
		},
		{
			name: "truncated variables block",
			text: "Title: t\nPlotname: p\nFlags: real\nNo. Variables: 2\nNo. Points: 1\nVariables:\n\t0\ttime\ttime\n",
			kind: rawerrors.KindParse,
			want: "1 of 2",
		},
		{
			name: "not a key value line",
			text: "this is not a header\n",
			kind: rawerrors.KindParse,
			want: "Key: value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			var he *rawerrors.Error
			if !errors.As(err, &he) {
				t.Fatalf("error type %T, want *errors.Error", err)
			}
			if he.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", he.Kind, tt.kind)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
			if he.Line == 0 {
				t.Error("parse error carries no line number")
			}
		})
	}
}

func TestParseBinaryGarbage(t *testing.T) {
	data := []byte{'T', 'x', 0x00, 0x01, 0x02, '\n', 0x00, 0x00}
	_, err := Parse(data)
	if err == nil {
		t.Fatal("Parse of binary garbage succeeded")
	}
	var he *rawerrors.Error
	if !errors.As(err, &he) || he.Kind != rawerrors.KindEncoding {
		t.Errorf("error = %v, want encoding kind", err)
	}
}

func TestRoundTrip(t *testing.T) {
	h1, err := Parse([]byte(basicHeader))
	if err != nil {
		t.Fatal(err)
	}

	for _, enc := range []Encoding{EncUTF8, EncUTF16LE} {
		out, err := h1.Append(nil, enc)
		if err != nil {
			t.Fatalf("Append(%v): %v", enc, err)
		}
		h2, err := Parse(out)
		if err != nil {
			t.Fatalf("reparse(%v): %v", enc, err)
		}
		if h2.Title != h1.Title || h2.Date != h1.Date || h2.Plotname != h1.Plotname {
			t.Errorf("%v: metadata changed across round-trip", enc)
		}
		if h2.Command != h1.Command {
			t.Errorf("%v: Command = %q, want %q", enc, h2.Command, h1.Command)
		}
		if h2.Flags.String() != h1.Flags.String() {
			t.Errorf("%v: Flags = %q, want %q", enc, h2.Flags, h1.Flags)
		}
		if len(h2.Extra) != len(h1.Extra) || h2.Extra[0] != h1.Extra[0] {
			t.Errorf("%v: Extra not preserved: %+v", enc, h2.Extra)
		}
		if len(h2.Vars) != len(h1.Vars) {
			t.Fatalf("%v: Vars length %d, want %d", enc, len(h2.Vars), len(h1.Vars))
		}
		for i := range h1.Vars {
			if h2.Vars[i] != h1.Vars[i] {
				t.Errorf("%v: Vars[%d] = %+v, want %+v", enc, i, h2.Vars[i], h1.Vars[i])
			}
		}
		if h2.Encoding != enc {
			t.Errorf("Encoding = %v, want %v", h2.Encoding, enc)
		}
	}
}

func TestFlagsString(t *testing.T) {
	f := ParseFlags("Complex Backward STEPPED FastAccess custom1 custom2")
	if !f.Complex || !f.Backward || !f.Stepped || !f.FastAccess {
		t.Errorf("flags not parsed case-insensitively: %+v", f)
	}
	got := f.String()
	want := "complex backward stepped fastaccess custom1 custom2"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	reparsed := ParseFlags(got)
	if reparsed.String() != want {
		t.Errorf("flags do not round-trip: %q", reparsed.String())
	}
}

func TestVarLookup(t *testing.T) {
	h, err := Parse([]byte(basicHeader))
	if err != nil {
		t.Fatal(err)
	}
	v, ok := h.Var("v(OUT)")
	if !ok || v.Index != 1 {
		t.Errorf("case-insensitive Var lookup failed: %+v ok=%v", v, ok)
	}
	if _, ok := h.Var("V(nonexistent)"); ok {
		t.Error("lookup of undeclared name succeeded")
	}
	names := h.VarNames()
	if len(names) != 3 || names[0] != "time" {
		t.Errorf("VarNames = %v", names)
	}
}
