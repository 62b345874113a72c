// Package statetable implements the triple-state bijection a three-way
// composition needs: mapping a (s1, s2, s3) co-traversal triple to a dense
// composite state id and back, the Go counterpart of the state tables
// composer.h builds on top of OpenFst's StateTable.
package statetable

import "github.com/katalvlaran/decipherfst/wfst"

// Triple identifies one co-traversal state: s1 in the observation O, s2 in
// the composed lexicon/alignment LA, s3 in the grammar G.
type Triple struct {
	S1, S2, S3 wfst.StateId
}

// key packs a triple into the hash spec §3 describes: s1 in the low 32
// bits, s2 in the next 8 bits, s3 in the high bits above that. s2 (the
// alignment/edit state) is assumed to have small cardinality, matching
// §6's "A uses small integer state ids (expected <= 255 effective)". The
// truncation of s2 to 8 bits means this key is advisory only — two
// distinct triples can collide once s2 grows past 255 — so every lookup
// verifies real Triple equality against the bucket's candidates rather
// than trusting the key alone (spec §9: "hash quality degrades but
// correctness is preserved").
type key uint64

func packKey(t Triple) key {
	return key(uint64(uint32(t.S1)) | uint64(uint8(t.S2))<<32 | uint64(uint32(t.S3))<<40)
}

// TripleStateTable is a bijection between Triple and a dense composite
// state id, following the same "new id equals current size" convention and
// map-to-dense-id pattern used throughout this module's id allocation.
type TripleStateTable struct {
	idOf    map[key][]wfst.StateId // bucket of candidate ids sharing one (possibly colliding) key
	triples []Triple
}

// NewTripleStateTable returns an empty bijection.
func NewTripleStateTable() *TripleStateTable {
	return &TripleStateTable{idOf: make(map[key][]wfst.StateId)}
}

// findID returns the id of the bucket entry whose recorded triple actually
// equals t, disambiguating key collisions by true Triple equality.
func (tt *TripleStateTable) findID(k key, t Triple) (wfst.StateId, bool) {
	for _, id := range tt.idOf[k] {
		if tt.triples[id] == t {
			return id, true
		}
	}

	return wfst.NoStateId, false
}

// FindOrInsert returns t's existing composite id if present, otherwise
// assigns the next dense id (current table size) and records both
// directions of the mapping. The load-bearing property the composer
// depends on: a freshly assigned id always equals the output Fst's state
// count immediately before the insert, so the caller can tell "is this
// state newly discovered" by comparing against NumStates().
func (tt *TripleStateTable) FindOrInsert(t Triple) wfst.StateId {
	k := packKey(t)
	if id, ok := tt.findID(k, t); ok {
		return id
	}

	id := wfst.StateId(len(tt.triples))
	tt.idOf[k] = append(tt.idOf[k], id)
	tt.triples = append(tt.triples, t)

	return id
}

// Find reports whether t is already present, without inserting it.
func (tt *TripleStateTable) Find(t Triple) (wfst.StateId, bool) {
	return tt.findID(packKey(t), t)
}

// Triple returns the (s1,s2,s3) triple a composite id was assigned to.
func (tt *TripleStateTable) Triple(id wfst.StateId) Triple {
	return tt.triples[id]
}

// Len returns the number of triples recorded so far.
func (tt *TripleStateTable) Len() int {
	return len(tt.triples)
}
