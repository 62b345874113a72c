package wfst

import "sort"

// ArcSortInput sorts each state's outgoing arcs by Ilabel, breaking ties by
// Olabel then Nextstate for determinism (spec §8, "determinism of standard
// composer"). Required before using an Fst as the ilabel-sorted member (G)
// of a three-way composition.
func ArcSortInput(f *Fst) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.states {
		arcs := f.states[i].arcs
		sort.Slice(arcs, func(a, b int) bool {
			if arcs[a].Ilabel != arcs[b].Ilabel {
				return arcs[a].Ilabel < arcs[b].Ilabel
			}
			if arcs[a].Olabel != arcs[b].Olabel {
				return arcs[a].Olabel < arcs[b].Olabel
			}
			return arcs[a].Nextstate < arcs[b].Nextstate
		})
	}
	f.inputSorted = true
	f.outputSorted = false
}

// ArcSortOutput sorts each state's outgoing arcs by Olabel, breaking ties by
// Ilabel then Nextstate. Required for the lexicon Fst (L) per §3.
func ArcSortOutput(f *Fst) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.states {
		arcs := f.states[i].arcs
		sort.Slice(arcs, func(a, b int) bool {
			if arcs[a].Olabel != arcs[b].Olabel {
				return arcs[a].Olabel < arcs[b].Olabel
			}
			if arcs[a].Ilabel != arcs[b].Ilabel {
				return arcs[a].Ilabel < arcs[b].Ilabel
			}
			return arcs[a].Nextstate < arcs[b].Nextstate
		})
	}
	f.outputSorted = true
	f.inputSorted = false
}

// IsInputSorted reports whether ArcSortInput was the last sort applied.
func (f *Fst) IsInputSorted() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.inputSorted
}

// IsOutputSorted reports whether ArcSortOutput was the last sort applied.
func (f *Fst) IsOutputSorted() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.outputSorted
}
