package nnue

// Accumulator is the opaque dense hidden-layer vector maintained across
// tree traversal, one per perspective. It supports exactly the three
// operations spec.md §3 grants it: refresh from scratch, incremental
// update from a prior accumulator, and copy assignment.
type Accumulator struct {
	Values [L1Size]int16
}

// Refresh recomputes the accumulator from scratch: bias plus the sum of
// weight columns for every active feature.
func (a *Accumulator) Refresh(weights *[InputSize][L1Size]int16, biases *[L1Size]int16, features []uint16) {
	a.Values = *biases
	for _, idx := range features {
		row := &weights[idx]
		for i := range a.Values {
			a.Values[i] += row[i]
		}
	}
}

// Update sets a = prev + sum(weights[added]) - sum(weights[removed]).
// added and removed must already be pairwise-cancelled by the caller
// (spec.md §4.C) — this method does no cancellation itself.
func (a *Accumulator) Update(prev *Accumulator, weights *[InputSize][L1Size]int16, added, removed []uint16) {
	a.Values = prev.Values
	for _, idx := range removed {
		row := &weights[idx]
		for i := range a.Values {
			a.Values[i] -= row[i]
		}
	}
	for _, idx := range added {
		row := &weights[idx]
		for i := range a.Values {
			a.Values[i] += row[i]
		}
	}
}

// Assign copies src into a (the "copy assignment" operation of spec.md §3).
func (a *Accumulator) Assign(src *Accumulator) {
	a.Values = src.Values
}
