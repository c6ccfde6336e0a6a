package codec

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/errors"
	"github.com/spicekit/spiceraw/header"
)

// ComputeSteps derives the step partition of a stepped run. Boundaries come
// from axis-restart scanning: a return to the first axis value opens a new
// step. When the simulator left a companion log beside the raw file, the
// log's declared parameter sets are validated against the scan and attached
// to the steps, clearing Heuristic. Stepped runs without an axis (stepped
// operating points) get one step per point.
//
// In-memory sources pass an empty path and always stay heuristic.
func ComputeSteps(path string, flags header.Flags, axis []float64, points int) ([]spiceraw.Step, error) {
	if !flags.Stepped || points == 0 {
		return nil, nil
	}
	var steps []spiceraw.Step
	if len(axis) == 0 {
		steps = make([]spiceraw.Step, points)
		for i := range steps {
			steps[i] = spiceraw.Step{Index: i, Start: i, N: 1, Heuristic: true}
		}
	} else {
		steps = spiceraw.PartitionSteps(axis)
	}
	if path == "" {
		return steps, nil
	}

	logPath := companionLogPath(path)
	params, err := readStepLog(logPath)
	if err != nil {
		Logger().Debug("no companion log",
			zap.String("raw", path),
			zap.String("log", logPath),
			zap.Error(err))
		return steps, nil
	}
	if len(params) == 0 {
		return steps, nil
	}
	if len(params) != len(steps) {
		return nil, errors.New(errors.PhaseSteps, errors.KindParse).
			File(path).
			Detail("companion log %s declares %d steps, axis restarts give %d",
				filepath.Base(logPath), len(params), len(steps)).
			Build()
	}
	for i := range steps {
		steps[i].Params = params[i]
		steps[i].Heuristic = false
	}
	Logger().Debug("step parameters attached",
		zap.String("raw", path),
		zap.Int("steps", len(steps)))
	return steps, nil
}

func companionLogPath(raw string) string {
	return strings.TrimSuffix(raw, filepath.Ext(raw)) + ".log"
}

// readStepLog extracts one parameter set per completed run from a
// simulator log. Three line shapes appear in the wild:
//
//	.step vin=1 temp=25
//	Step Information: vin=1 temp=25  (Run: 2/6)
//	2 of 6 steps: .step vin=1
//
// LTspice XVII writes its logs in UTF-16-LE, so the bytes go through the
// same encoding detection as headers. Lines that are not step records
// (netlist echoes, timing output) are skipped.
func readStepLog(path string) ([]map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := header.DecodeText(raw, header.DetectEncoding(raw))
	if err != nil {
		return nil, err
	}
	var out []map[string]string
	for _, line := range strings.Split(string(text), "\n") {
		if params, ok := parseStepLine(strings.TrimRight(line, "\r")); ok {
			out = append(out, params)
		}
	}
	return out, nil
}

func parseStepLine(line string) (map[string]string, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF"))
	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, ".step"):
		s = s[len(".step"):]
	case strings.HasPrefix(low, "step information:"):
		s = s[len("step information:"):]
		// Trailing "(Run: 2/6)" is bookkeeping, not a parameter.
		if i := strings.LastIndex(s, "("); i >= 0 {
			s = s[:i]
		}
	default:
		i := strings.Index(low, "steps:")
		if i < 0 {
			return nil, false
		}
		rest := strings.TrimSpace(s[i+len("steps:"):])
		if !strings.HasPrefix(strings.ToLower(rest), ".step") {
			return nil, false
		}
		s = rest[len(".step"):]
	}

	params := make(map[string]string)
	for _, field := range strings.Fields(s) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			// ".step param R LIST 1k 2k" is a directive echo, not a run.
			continue
		}
		params[k] = v
	}
	if len(params) == 0 {
		return nil, false
	}
	return params, true
}
