// Package matrix provides Dense, a row-major float64 matrix used as the
// backing storage for expect's EM accumulator tables (the forward-backward
// posterior sums over lexicon and alignment states). It is a pruned-down,
// self-contained remnant of a larger linear-algebra package that also
// converted graphs to adjacency/incidence matrices; that surface had no use
// in a decipherment pipeline and is not carried forward (see DESIGN.md).
package matrix
