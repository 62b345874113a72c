package fstio

import "github.com/katalvlaran/decipherfst/wfst"

// LinearAcceptor builds a linear tropical acceptor from transcript, the Go
// equivalent of transcripts-to-fsts.cc's MakeLinearAcceptor: one state per
// symbol plus a final state, each arc's ilabel and olabel both set to the
// symbol, all weights One. Used to turn an observed integer sequence (a
// decipherment input utterance) into the Fst the composer's O member
// expects, and by tests to build toy observations without assembling arcs
// by hand.
func LinearAcceptor(transcript []int32) *wfst.Fst {
	f := wfst.NewTropical()
	s := f.AddState()
	f.SetStart(s)
	for _, sym := range transcript {
		next := f.AddState()
		f.AddArc(s, wfst.Arc{Ilabel: sym, Olabel: sym, Weight: f.One, Nextstate: next})
		s = next
	}
	f.SetFinal(s, f.One)

	return f
}
