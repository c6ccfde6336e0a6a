package codec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/dialect"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
)

// ramp returns 0..n-1 as floats, the shape of one sweep pass.
func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// steppedFile builds a stepped NGSpice binary container whose axis restarts
// at every run boundary, and writes it (plus an optional companion log)
// into dir. Run lengths follow runs.
func steppedFile(t *testing.T, dir, logText string, runs ...int) string {
	t.Helper()
	var axis []float64
	for _, n := range runs {
		axis = append(axis, ramp(n)...)
	}
	data := make([]float64, len(axis))
	for i := range data {
		data[i] = float64(i) * 0.5
	}

	f := spiceraw.NewFile(spiceraw.Meta{
		Title:    "* sweep",
		Date:     "d",
		Plotname: "Transient Analysis",
		Dialect:  dialect.NGSpice,
		Flags:    header.Flags{Stepped: true},
	})
	f.SetAxis("time", "time", axis)
	if err := f.AddTrace(spiceraw.NewTraceF64("V(out)", "voltage", data)); err != nil {
		t.Fatal(err)
	}
	start := 0
	steps := make([]spiceraw.Step, len(runs))
	for i, n := range runs {
		steps[i] = spiceraw.Step{Index: i, Start: start, N: n}
		start += n
	}
	if err := f.SetSteps(steps); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "sweep.raw")
	if err := EncodeFile(f, path, nil); err != nil {
		t.Fatal(err)
	}
	if logText != "" {
		if err := os.WriteFile(filepath.Join(dir, "sweep.log"), []byte(logText), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestComputeStepsHeuristic(t *testing.T) {
	var axis []float64
	for _, n := range []int{10, 7, 10} {
		axis = append(axis, ramp(n)...)
	}
	steps, err := ComputeSteps("", header.Flags{Stepped: true}, axis, len(axis))
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}
	wantN := []int{10, 7, 10}
	wantStart := []int{0, 10, 17}
	for i, s := range steps {
		if s.Index != i || s.N != wantN[i] || s.Start != wantStart[i] {
			t.Errorf("step %d = %+v, want N=%d Start=%d", i, s, wantN[i], wantStart[i])
		}
		if !s.Heuristic {
			t.Errorf("step %d not marked heuristic", i)
		}
		if s.End() != s.Start+s.N {
			t.Errorf("step %d End = %d", i, s.End())
		}
	}
}

func TestComputeStepsUnstepped(t *testing.T) {
	steps, err := ComputeSteps("", header.Flags{}, ramp(5), 5)
	if err != nil || steps != nil {
		t.Errorf("unstepped run produced steps %v, err %v", steps, err)
	}
}

func TestComputeStepsAxisless(t *testing.T) {
	steps, err := ComputeSteps("", header.Flags{Stepped: true}, nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 4 {
		t.Fatalf("steps = %d, want one per point", len(steps))
	}
	for i, s := range steps {
		if s.Start != i || s.N != 1 || !s.Heuristic {
			t.Errorf("step %d = %+v", i, s)
		}
	}
}

func TestDecodeSteppedSweep(t *testing.T) {
	path := steppedFile(t, t.TempDir(), "", 10, 7, 10)
	f, err := Decode(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.StepCount() != 3 {
		t.Fatalf("StepCount = %d, want 3", f.StepCount())
	}
	steps := f.Steps()
	if steps[1].N != 7 || steps[1].Start != 10 {
		t.Errorf("step 1 = %+v", steps[1])
	}
	vout, _ := f.Trace("V(out)")
	w, err := vout.Wave(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(w) != 7 || w[0] != 5.0 {
		t.Errorf("step 1 wave len=%d first=%v, want 7 and 5", len(w), w[0])
	}
}

func TestDecodeSteppedWithCompanionLog(t *testing.T) {
	log := ".step vin=1 temp=25\n" +
		".step vin=2 temp=25\n" +
		".step vin=3 temp=25\n"
	path := steppedFile(t, t.TempDir(), log, 4, 4, 4)

	f, err := Decode(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	steps := f.Steps()
	if len(steps) != 3 {
		t.Fatalf("StepCount = %d", len(steps))
	}
	for i, s := range steps {
		if s.Heuristic {
			t.Errorf("step %d still heuristic with a companion log", i)
		}
		if got := s.Params["vin"]; got != []string{"1", "2", "3"}[i] {
			t.Errorf("step %d vin = %q", i, got)
		}
		if s.Params["temp"] != "25" {
			t.Errorf("step %d temp = %q", i, s.Params["temp"])
		}
	}
}

func TestDecodeSteppedLogMismatch(t *testing.T) {
	log := ".step vin=1\n.step vin=2\n" // two declared, three found
	path := steppedFile(t, t.TempDir(), log, 4, 4, 4)

	_, err := Decode(path, nil)
	if err == nil {
		t.Fatal("step count mismatch not reported")
	}
	se := kindOf(t, err)
	if se.Phase != errors.PhaseSteps || se.Kind != errors.KindParse {
		t.Errorf("Phase/Kind = %v/%v", se.Phase, se.Kind)
	}
	for _, want := range []string{"2", "3"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not name count %s", err, want)
		}
	}
}

func TestDecodeBytesIgnoresCompanionLog(t *testing.T) {
	dir := t.TempDir()
	path := steppedFile(t, dir, ".step vin=1\n.step vin=2\n", 4, 4)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := DecodeBytes(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range f.Steps() {
		if !s.Heuristic || s.Params != nil {
			t.Errorf("in-memory decode consulted a log: %+v", s)
		}
	}
}

func TestParseStepLine(t *testing.T) {
	tests := []struct {
		line string
		want map[string]string
		ok   bool
	}{
		{".step vin=1 temp=25", map[string]string{"vin": "1", "temp": "25"}, true},
		{".step Vin=1.5k", map[string]string{"Vin": "1.5k"}, true},
		{"Step Information: vin=2  (Run: 2/6)", map[string]string{"vin": "2"}, true},
		{"2 of 6 steps: .step vin=2", map[string]string{"vin": "2"}, true},
		{".step param R LIST 1k 2k", nil, false},
		{"Total elapsed time: 0.512 seconds.", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, ok := parseStepLine(tt.line)
		if ok != tt.ok {
			t.Errorf("%q: ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("%q: %s = %q, want %q", tt.line, k, got[k], v)
			}
		}
	}
}

func TestReadStepLogUTF16(t *testing.T) {
	dir := t.TempDir()
	text := ".step vin=1\r\n.step vin=2\r\n"
	enc, err := header.EncodeText([]byte(text), header.EncUTF16LE)
	if err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "x.log")
	if err := os.WriteFile(logPath, enc, 0o644); err != nil {
		t.Fatal(err)
	}
	params, err := readStepLog(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 2 || params[1]["vin"] != "2" {
		t.Errorf("params = %v", params)
	}
}
