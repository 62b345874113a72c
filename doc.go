// Package decipherfst learns and applies a probabilistic source-to-target
// symbol mapping via weighted finite-state transducer composition and
// Expectation-Maximization training.
//
// Given three transducers — a lexicon L (target symbols to source symbols),
// an alignment/edit model A (insertions, deletions, substitutions,
// silence), and a target-side language model G — plus a corpus of
// observation transducers over source symbols, this module:
//
//   - trains L and A's weights to maximize the likelihood of the
//     observations under G (forward-backward EM in the log semiring), and
//   - decodes new observations to their most probable target sequences
//     (tropical-semiring shortest path over a temperature-scaled cascade).
//
// Everything lives under dedicated subpackages:
//
//	semiring/ — Tropical, Log, and Log64 weight algebras plus cross-semiring casts
//	wfst/     — the Fst type: states, arcs, epsilon handling, shortest distance/path
//	matcher/  — dense (state, ilabel, olabel) arc lookup used by three-way composition
//	statetable/ — composed-state bookkeeping for three-way composition (triple state table)
//	compose/  — standard exact composition and on-the-fly three-way beam-pruned composition
//	cascade/  — the decipherment EM loop: accumulate expectations, maximize, retarget zero-mass arcs
//	expect/   — the EM accumulator tables (lexical and alignment posteriors)
//	train/    — the sharded worker-pool EM driver
//	decode/   — the per-observation decoding driver
//	rescore/  — phi-composition backoff rescoring against an old/new language model pair
//	fstio/    — gob-based Fst and keyed-archive serialization, linear acceptor construction
//	config/   — YAML configuration loading for the CLI binaries
//	cmd/      — decipherment-learn, decipherment-apply, fsts-rescore
//
// See SPEC_FULL.md and DESIGN.md for the full module layout and the
// grounding behind each package's design.
package decipherfst
