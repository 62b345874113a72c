package wfst

import (
	"sort"
	"strconv"
	"strings"
)

// Determinize converts an unweighted, epsilon-free acceptor (Ilabel ==
// Olabel on every arc, all weights One — i.e. decode's output lattice after
// Project+RemoveWeights+RmEpsilon) into an equivalent deterministic
// acceptor via classic subset construction.
//
// Full weighted transducer determinization (weight pushing plus subset
// construction over residual weights) is one of the generic WFST library
// primitives spec §1 explicitly lists as external/given; decipherfst only
// ever determinizes the decoder's already-unweighted output lattice, so
// this implements the much simpler unweighted-acceptor special case rather
// than reproducing the general algorithm.
func Determinize(f *Fst) *Fst {
	out := NewTropical()
	start := f.Start()
	if start == NoStateId {
		out.SetStart(out.AddState())
		return out
	}

	startSet := []StateId{start}
	key := setKey(startSet)
	setOf := map[string][]StateId{key: startSet}
	idOf := map[string]StateId{key: out.AddState()}
	out.SetStart(idOf[key])

	queue := []string{key}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		set := setOf[k]
		id := idOf[k]

		final := false
		for _, s := range set {
			if f.IsFinal(s) {
				final = true
				break
			}
		}
		if final {
			out.SetFinal(id, out.One)
		}

		byLabel := make(map[int32]map[StateId]bool)
		for _, s := range set {
			for _, a := range f.Arcs(s) {
				if byLabel[a.Olabel] == nil {
					byLabel[a.Olabel] = make(map[StateId]bool)
				}
				byLabel[a.Olabel][a.Nextstate] = true
			}
		}

		labels := make([]int32, 0, len(byLabel))
		for l := range byLabel {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

		for _, l := range labels {
			dest := make([]StateId, 0, len(byLabel[l]))
			for s := range byLabel[l] {
				dest = append(dest, s)
			}
			sort.Slice(dest, func(i, j int) bool { return dest[i] < dest[j] })

			dk := setKey(dest)
			did, ok := idOf[dk]
			if !ok {
				did = out.AddState()
				idOf[dk] = did
				setOf[dk] = dest
				queue = append(queue, dk)
			}
			out.AddArc(id, Arc{Ilabel: l, Olabel: l, Weight: out.One, Nextstate: did})
		}
	}

	return out
}

func setKey(states []StateId) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(int(s))
	}
	return strings.Join(parts, ",")
}

// Minimize merges equivalent states of an unweighted deterministic acceptor
// via Moore partition refinement, keyed on (final-ness, per-label successor
// partition). Scoped to the same unweighted-acceptor case as Determinize.
func Minimize(f *Fst) *Fst {
	n := f.NumStates()
	if n == 0 {
		return f.Clone()
	}

	partition := make([]int, n)
	for s := 0; s < n; s++ {
		if f.IsFinal(StateId(s)) {
			partition[s] = 1
		}
	}

	for {
		sig := make([]string, n)
		for s := 0; s < n; s++ {
			arcs := f.Arcs(StateId(s))
			sorted := append([]Arc(nil), arcs...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Olabel < sorted[j].Olabel })
			var b strings.Builder
			b.WriteString(strconv.Itoa(partition[s]))
			for _, a := range sorted {
				b.WriteByte('|')
				b.WriteString(strconv.Itoa(int(a.Olabel)))
				b.WriteByte(':')
				b.WriteString(strconv.Itoa(partition[a.Nextstate]))
			}
			sig[s] = b.String()
		}

		classOf := make(map[string]int)
		newPartition := make([]int, n)
		for s := 0; s < n; s++ {
			id, ok := classOf[sig[s]]
			if !ok {
				id = len(classOf)
				classOf[sig[s]] = id
			}
			newPartition[s] = id
		}

		changed := false
		for s := 0; s < n; s++ {
			if newPartition[s] != partition[s] {
				changed = true
				break
			}
		}
		// Also need to detect class-count growth even if relabeled ids
		// happen to coincide; compare class counts instead.
		oldClasses := make(map[int]bool)
		for _, p := range partition {
			oldClasses[p] = true
		}
		if len(oldClasses) != len(classOf) {
			changed = true
		}

		partition = newPartition
		if !changed {
			break
		}
	}

	numClasses := 0
	for _, p := range partition {
		if p+1 > numClasses {
			numClasses = p + 1
		}
	}

	out := NewTropical()
	for i := 0; i < numClasses; i++ {
		out.AddState()
	}
	out.SetStart(StateId(partition[f.Start()]))

	seenFinal := make([]bool, numClasses)
	seenArcs := make(map[[2]int]bool)
	for s := 0; s < n; s++ {
		cls := partition[s]
		if f.IsFinal(StateId(s)) && !seenFinal[cls] {
			out.SetFinal(StateId(cls), out.One)
			seenFinal[cls] = true
		}
		for _, a := range f.Arcs(StateId(s)) {
			destCls := partition[a.Nextstate]
			k := [2]int{cls, int(a.Olabel)}
			if seenArcs[k] {
				continue
			}
			seenArcs[k] = true
			out.AddArc(StateId(cls), Arc{Ilabel: a.Olabel, Olabel: a.Olabel, Weight: out.One, Nextstate: StateId(destCls)})
		}
	}

	return out
}
