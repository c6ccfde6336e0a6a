package codec

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
	"github.com/spicekit/spiceraw/internal/bin"
)

// Fixtures are built by hand against the container format so that decoding
// is tested independently of Encode.

const tranHeader = "Title: * C:\\sim\\rc.asc\n" +
	"Date: Mon Apr 14 09:15:17 2025\n" +
	"Plotname: Transient Analysis\n" +
	"Flags: real forward\n" +
	"No. Variables: 3\n" +
	"No. Points: 4\n" +
	"Command: Linear Technology Corporation LTspice XVII\n" +
	"Variables:\n" +
	"\t0\ttime\ttime\n" +
	"\t1\tV(out)\tvoltage\n" +
	"\t2\tI(R1)\tdevice_current\n" +
	"Binary:\n"

var (
	tranTime = []float64{0, 1e-6, 2e-6, 3e-6}
	tranVout = []float32{0, 0.5, 0.75, 0.875}
	tranIR1  = []float32{0, -0.5, -0.25, -0.125}
)

// tranBytes assembles the LTspice transient fixture: float64 time over
// float32 data, row-major unless fastAccess.
func tranBytes(t *testing.T, fastAccess bool) []byte {
	t.Helper()
	hdr := tranHeader
	if fastAccess {
		hdr = strings.Replace(hdr, "Flags: real forward", "Flags: real forward fastaccess", 1)
	}
	w := bin.NewWriter()
	if fastAccess {
		for _, v := range tranTime {
			w.WriteF64(v)
		}
		for _, v := range tranVout {
			w.WriteF32(v)
		}
		for _, v := range tranIR1 {
			w.WriteF32(v)
		}
	} else {
		for p := range tranTime {
			w.WriteF64(tranTime[p])
			w.WriteF32(tranVout[p])
			w.WriteF32(tranIR1[p])
		}
	}
	return append([]byte(hdr), w.Bytes()...)
}

func kindOf(t *testing.T, err error) *errors.Error {
	t.Helper()
	var se *errors.Error
	if !stderrors.As(err, &se) {
		t.Fatalf("error type %T, want *errors.Error: %v", err, err)
	}
	return se
}

func sameF64(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameF32(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDecodeRowMajor(t *testing.T) {
	f, err := DecodeBytes(tranBytes(t, false), nil)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	if f.Dialect() != dialect.LTspice {
		t.Errorf("Dialect = %v, want ltspice", f.Dialect())
	}
	if f.Points() != 4 || f.StepCount() != 1 {
		t.Errorf("Points/StepCount = %d/%d", f.Points(), f.StepCount())
	}
	if ax := f.Axis(); ax == nil || ax.Name() != "time" || !sameF64(ax.Raw(), tranTime) {
		t.Fatalf("axis wrong: %+v", f.Axis())
	}

	vout, err := f.Trace("V(out)")
	if err != nil {
		t.Fatal(err)
	}
	if vout.Kind() != spiceraw.KindFloat32 {
		t.Errorf("V(out) kind = %v, want float32", vout.Kind())
	}
	if !sameF32(vout.Raw32(), tranVout) {
		t.Errorf("V(out) = %v, want %v", vout.Raw32(), tranVout)
	}

	ir1, err := f.Trace("i(r1)") // case-insensitive
	if err != nil {
		t.Fatal(err)
	}
	if !sameF32(ir1.Raw32(), tranIR1) {
		t.Errorf("I(R1) = %v, want %v", ir1.Raw32(), tranIR1)
	}
}

func TestDecodeFastAccessMatchesRowMajor(t *testing.T) {
	row, err := DecodeBytes(tranBytes(t, false), nil)
	if err != nil {
		t.Fatal(err)
	}
	col, err := DecodeBytes(tranBytes(t, true), nil)
	if err != nil {
		t.Fatal(err)
	}

	if !sameF64(row.Axis().Raw(), col.Axis().Raw()) {
		t.Error("axis differs between layouts")
	}
	for _, name := range []string{"V(out)", "I(R1)"} {
		a, _ := row.Trace(name)
		b, _ := col.Trace(name)
		if a == nil || b == nil || !sameF32(a.Raw32(), b.Raw32()) {
			t.Errorf("%s differs between row-major and fastaccess", name)
		}
	}
}

func TestDecodeDoubleFlag(t *testing.T) {
	hdr := strings.Replace(tranHeader, "Flags: real forward", "Flags: real forward double", 1)
	w := bin.NewWriter()
	for p := range tranTime {
		w.WriteF64(tranTime[p])
		w.WriteF64(float64(tranVout[p]))
		w.WriteF64(float64(tranIR1[p]))
	}
	f, err := DecodeBytes(append([]byte(hdr), w.Bytes()...), nil)
	if err != nil {
		t.Fatal(err)
	}
	vout, _ := f.Trace("V(out)")
	if vout.Kind() != spiceraw.KindFloat64 {
		t.Errorf("kind under double flag = %v, want float64", vout.Kind())
	}
	wave, err := vout.Wave(0)
	if err != nil {
		t.Fatal(err)
	}
	if wave[3] != 0.875 {
		t.Errorf("V(out)[3] = %v, want 0.875", wave[3])
	}
}

func TestDecodeComplexAC(t *testing.T) {
	hdr := "Title: * ac\n" +
		"Date: d\n" +
		"Plotname: AC Analysis\n" +
		"Flags: complex forward\n" +
		"No. Variables: 2\n" +
		"No. Points: 3\n" +
		"Command: Linear Technology Corporation LTspice XVII\n" +
		"Variables:\n" +
		"\t0\tfrequency\tfrequency\n" +
		"\t1\tV(out)\tvoltage\n" +
		"Binary:\n"
	freqs := []float64{1, 10, 100}
	w := bin.NewWriter()
	for _, fr := range freqs {
		w.WriteC128(complex(fr, 0)) // stored axis pair, imaginary half zero
		w.WriteC128(complex(2, 0))
	}

	f, err := DecodeBytes(append([]byte(hdr), w.Bytes()...), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sameF64(f.Axis().Raw(), freqs) {
		t.Errorf("frequency axis = %v, want %v", f.Axis().Raw(), freqs)
	}
	vout, err := f.Trace("V(out)")
	if err != nil {
		t.Fatal(err)
	}
	if vout.Kind() != spiceraw.KindComplex128 {
		t.Fatalf("kind = %v, want complex128", vout.Kind())
	}
	mags, err := vout.Magnitudes()
	if err != nil {
		t.Fatal(err)
	}
	phases, err := vout.Phases()
	if err != nil {
		t.Fatal(err)
	}
	for i := range mags {
		if mags[i] != 2 || phases[i] != 0 {
			t.Errorf("point %d: |v|=%v phase=%v, want 2 and 0", i, mags[i], phases[i])
		}
	}
}

func TestDecodeASCIIValues(t *testing.T) {
	data := "Title: rc\n" +
		"Date: d\n" +
		"Plotname: Transient Analysis\n" +
		"Flags: real\n" +
		"No. Variables: 2\n" +
		"No. Points: 3\n" +
		"Command: ngspice-36\n" +
		"Variables:\n" +
		"\t0\ttime\ttime\n" +
		"\t1\tv(out)\tvoltage\n" +
		"Values:\n" +
		"0\t0.000000000000000e+00\n" +
		"\t0.0e+00\n" +
		"\n" +
		"1\t1.000000000000000e-03\n" +
		"\t5.0e-01\n" +
		"\n" +
		"2\t2.000000000000000e-03\n" +
		"\t7.5e-01\n"

	f, err := DecodeBytes([]byte(data), nil)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if f.Dialect() != dialect.NGSpice {
		t.Errorf("Dialect = %v, want ngspice", f.Dialect())
	}
	if !sameF64(f.Axis().Raw(), []float64{0, 1e-3, 2e-3}) {
		t.Errorf("time = %v", f.Axis().Raw())
	}
	vout, err := f.Trace("v(out)")
	if err != nil {
		t.Fatal(err)
	}
	if vout.Kind() != spiceraw.KindFloat64 {
		t.Errorf("text bodies decode at float64, got %v", vout.Kind())
	}
	if !sameF64(vout.Raw64(), []float64{0, 0.5, 0.75}) {
		t.Errorf("v(out) = %v", vout.Raw64())
	}
}

func TestDecodeGenericASCIIWithoutIndexes(t *testing.T) {
	data := "Title: exported\n" +
		"Date: d\n" +
		"Plotname: Transient Analysis\n" +
		"Flags: real\n" +
		"No. Variables: 2\n" +
		"No. Points: 2\n" +
		"Command: WeirdSpice 9000\n" +
		"Variables:\n" +
		"\t0\ttime\ttime\n" +
		"\t1\tv(out)\tvoltage\n" +
		"Values:\n" +
		"1.0e-03 1.0e+00\n" +
		"2.0e-03 2.0e+00\n"

	f, err := DecodeBytes([]byte(data), nil)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if f.Dialect() != dialect.Generic {
		t.Errorf("Dialect = %v, want generic", f.Dialect())
	}
	vout, _ := f.Trace("v(out)")
	if !sameF64(vout.Raw64(), []float64{1, 2}) {
		t.Errorf("v(out) = %v", vout.Raw64())
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	data := tranBytes(t, false)
	full := strings.Index(string(data), "Binary:\n") + len("Binary:\n")
	cut := data[:full+(len(data)-full)/2] // half the records

	_, err := DecodeBytes(cut, nil)
	if err == nil {
		t.Fatal("decode of truncated body succeeded")
	}
	se := kindOf(t, err)
	if se.Kind != errors.KindTruncated {
		t.Fatalf("Kind = %v, want truncated", se.Kind)
	}
	if se.Want != 64 || se.Got != 32 {
		t.Errorf("Want/Got = %d/%d, want 64/32", se.Want, se.Got)
	}
}

func TestDecodeUnknownProducerBinary(t *testing.T) {
	data := strings.Replace(string(tranBytes(t, false)),
		"Command: Linear Technology Corporation LTspice XVII",
		"Command: WeirdSpice 9000", 1)

	_, err := DecodeBytes([]byte(data), nil)
	if err == nil {
		t.Fatal("binary decode under unknown producer succeeded")
	}
	se := kindOf(t, err)
	if se.Kind != errors.KindUnsupported {
		t.Errorf("Kind = %v, want unsupported_dialect", se.Kind)
	}
	if !strings.Contains(err.Error(), "WeirdSpice") {
		t.Errorf("error %q does not name the producer hint", err)
	}

	// Header-only inspection still works for the same bytes.
	f, err := DecodeBytes([]byte(data), &Options{HeaderOnly: true})
	if err != nil {
		t.Fatalf("header-only decode: %v", err)
	}
	names := f.TraceNames()
	if len(names) != 3 || names[0] != "time" {
		t.Errorf("TraceNames = %v", names)
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	f, err := DecodeBytes(tranBytes(t, false), &Options{HeaderOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if f.Points() != 0 {
		t.Errorf("Points = %d, want 0", f.Points())
	}
	vout, err := f.Trace("V(out)")
	if err != nil {
		t.Fatal(err)
	}
	if vout.Kind() != spiceraw.KindFloat32 || vout.Len() != 0 {
		t.Errorf("header-only trace = kind %v len %d", vout.Kind(), vout.Len())
	}
	m := f.Meta()
	if m.Title == "" || m.Plotname != "Transient Analysis" {
		t.Errorf("metadata missing: %+v", m)
	}
}

func TestDecodeTraceFilter(t *testing.T) {
	f, err := DecodeBytes(tranBytes(t, false), &Options{Traces: []string{"i(r1)"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Trace("I(R1)"); err != nil {
		t.Errorf("filtered trace missing: %v", err)
	}
	if _, err := f.Trace("V(out)"); err == nil {
		t.Error("unselected trace was decoded")
	}
	// Axis always decodes so steps and waves keep working.
	if f.Axis() == nil || f.Axis().Len() != 4 {
		t.Error("axis not decoded under trace filter")
	}
}

func TestDecodeUnknownTraceName(t *testing.T) {
	_, err := DecodeBytes(tranBytes(t, false), &Options{Traces: []string{"V(bogus)"}})
	if err == nil {
		t.Fatal("decode with undeclared trace name succeeded")
	}
	se := kindOf(t, err)
	if se.Kind != errors.KindTraceNotFound || se.Trace != "V(bogus)" {
		t.Errorf("error = %+v, want trace_not_found for V(bogus)", se)
	}
}

func TestDecodeDialectOverride(t *testing.T) {
	// The same bytes under a forced generic dialect refuse the binary body.
	_, err := DecodeBytes(tranBytes(t, false), &Options{Dialect: dialect.Generic})
	if err == nil {
		t.Fatal("forced generic dialect decoded a binary body")
	}
	if se := kindOf(t, err); se.Kind != errors.KindUnsupported {
		t.Errorf("Kind = %v, want unsupported_dialect", se.Kind)
	}
}

func TestDecodeUTF16Container(t *testing.T) {
	utf16hdr, err := header.EncodeText([]byte(tranHeader), header.EncUTF16LE)
	if err != nil {
		t.Fatal(err)
	}
	w := bin.NewWriter()
	for p := range tranTime {
		w.WriteF64(tranTime[p])
		w.WriteF32(tranVout[p])
		w.WriteF32(tranIR1[p])
	}
	f, err := DecodeBytes(append(utf16hdr, w.Bytes()...), nil)
	if err != nil {
		t.Fatalf("utf-16 container: %v", err)
	}
	if f.Meta().Encoding != header.EncUTF16LE {
		t.Errorf("Encoding = %v, want utf-16-le", f.Meta().Encoding)
	}
	if !sameF64(f.Axis().Raw(), tranTime) {
		t.Error("axis wrong after utf-16 header decode")
	}
}

func TestDecodePointwisePlot(t *testing.T) {
	data := "Title: op\n" +
		"Date: d\n" +
		"Plotname: Operating Point\n" +
		"Flags: real\n" +
		"No. Variables: 2\n" +
		"No. Points: 1\n" +
		"Command: Linear Technology Corporation LTspice XVII\n" +
		"Variables:\n" +
		"\t0\tV(n001)\tvoltage\n" +
		"\t1\tI(R1)\tdevice_current\n" +
		"Binary:\n"
	w := bin.NewWriter()
	w.WriteF32(3.3)
	w.WriteF32(0.001)

	f, err := DecodeBytes(append([]byte(data), w.Bytes()...), nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.Axis() != nil {
		t.Error("pointwise plot has an axis")
	}
	names := f.TraceNames()
	if len(names) != 2 || names[0] != "V(n001)" {
		t.Errorf("TraceNames = %v", names)
	}
	v, err := f.Trace("V(n001)")
	if err != nil {
		t.Fatal(err)
	}
	if v.Raw32()[0] != 3.3 {
		t.Errorf("V(n001) = %v", v.Raw32()[0])
	}
}

func TestDecodeBadOptions(t *testing.T) {
	_, err := DecodeBytes(tranBytes(t, false), &Options{Dialect: dialect.Dialect(99)})
	if err == nil {
		t.Fatal("bad dialect option accepted")
	}
	if se := kindOf(t, err); se.Kind != errors.KindValidation {
		t.Errorf("Kind = %v, want validation", se.Kind)
	}
}
