package spiceraw

// Step describes one parameter-sweep iteration as a contiguous range of
// points inside the flat series buffers.
type Step struct {
	Index int
	Start int
	N     int

	// Params holds the swept parameter values exactly as the simulator
	// printed them. Values stay raw strings; numeric coercion is the
	// caller's business.
	Params map[string]string

	// Heuristic is set when the boundaries came from axis-restart scanning
	// rather than explicit step metadata, so positions are approximate for
	// pathological sweeps.
	Heuristic bool
}

// End returns the exclusive end of the step's point range.
func (s Step) End() int { return s.Start + s.N }

// PartitionSteps derives step ranges from an axis buffer by scanning for
// returns to the first axis value: a parameter sweep restarts the axis at
// its initial point on every iteration. The scan runs over the stored
// values, sign included, so LTspice compression markers (negated interior
// times) cannot produce false boundaries. Ranges are contiguous,
// non-overlapping and sum to len(axis); an axis that never restarts yields
// one full-range step. Every returned Step is marked Heuristic.
func PartitionSteps(axis []float64) []Step {
	if len(axis) == 0 {
		return []Step{{Heuristic: true}}
	}
	first := axis[0]
	starts := []int{0}
	for i := 1; i < len(axis); i++ {
		if axis[i] == first {
			starts = append(starts, i)
		}
	}
	steps := make([]Step, len(starts))
	for k, start := range starts {
		end := len(axis)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		steps[k] = Step{Index: k, Start: start, N: end - start, Heuristic: true}
	}
	return steps
}
