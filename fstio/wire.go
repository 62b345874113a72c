// Package fstio persists wfst.Fst values to and from disk. It follows the
// shape kho-fslm's Model.MarshalBinary/UnmarshalBinary uses for its n-gram
// model (gob.NewEncoder/Decoder over a bytes.Buffer): no third-party
// serialization library appears anywhere in the example pack, so gob is the
// idiomatic choice rather than a hand-rolled binary format.
package fstio

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/katalvlaran/decipherfst/semiring"
	"github.com/katalvlaran/decipherfst/wfst"
)

// weightKind tags which semiring family a wire-encoded Fst's weights belong
// to, since semiring.Weight is an interface and gob cannot decode into one
// without a concrete destination type.
type weightKind uint8

const (
	kindTropical weightKind = iota
	kindLog
	kindLog64
)

const wireMagic = "dcphrfst"
const wireVersion = 1

type wireArc struct {
	Ilabel    int32
	Olabel    int32
	Weight    float64
	Nextstate int32
}

type wireState struct {
	Arcs    []wireArc
	IsFinal bool
	Final   float64
}

type wireFst struct {
	Magic   string
	Version uint32
	Kind    weightKind
	Start   int32
	States  []wireState
}

func kindOf(w semiring.Weight) (weightKind, error) {
	switch w.(type) {
	case semiring.Tropical:
		return kindTropical, nil
	case semiring.Log:
		return kindLog, nil
	case semiring.Log64:
		return kindLog64, nil
	default:
		return 0, fmt.Errorf("fstio: unrecognized weight type %T", w)
	}
}

func zeroOneFor(k weightKind) (zero, one semiring.Weight) {
	switch k {
	case kindTropical:
		return semiring.TropicalZero(), semiring.TropicalOne()
	case kindLog:
		return semiring.LogZero(), semiring.LogOne()
	case kindLog64:
		return semiring.Log64Zero(), semiring.Log64One()
	default:
		panic(fmt.Sprintf("fstio: unrecognized weightKind %d", k))
	}
}

func wrapWeight(k weightKind, v float64) semiring.Weight {
	switch k {
	case kindTropical:
		return semiring.Tropical(v)
	case kindLog:
		return semiring.Log(v)
	case kindLog64:
		return semiring.Log64(v)
	default:
		panic(fmt.Sprintf("fstio: unrecognized weightKind %d", k))
	}
}

// toWire flattens f into a gob-friendly snapshot. The Fst's own Zero/One are
// not encoded; they are reconstructed from Kind on decode.
func toWire(f *wfst.Fst) (*wireFst, error) {
	n := f.NumStates()
	w := &wireFst{Magic: wireMagic, Version: wireVersion, Start: f.Start(), States: make([]wireState, n)}

	var kindKnown bool
	for s := 0; s < n; s++ {
		arcs := f.Arcs(wfst.StateId(s))
		ws := wireState{Arcs: make([]wireArc, len(arcs))}
		for i, a := range arcs {
			k, err := kindOf(a.Weight)
			if err != nil {
				return nil, err
			}
			if !kindKnown {
				w.Kind, kindKnown = k, true
			} else if k != w.Kind {
				return nil, fmt.Errorf("fstio: mixed semiring weights in one Fst (%d and %d)", w.Kind, k)
			}
			ws.Arcs[i] = wireArc{Ilabel: a.Ilabel, Olabel: a.Olabel, Weight: a.Weight.Float(), Nextstate: a.Nextstate}
		}
		if f.IsFinal(wfst.StateId(s)) {
			ws.IsFinal = true
			fw := f.Final(wfst.StateId(s))
			k, err := kindOf(fw)
			if err != nil {
				return nil, err
			}
			if !kindKnown {
				w.Kind, kindKnown = k, true
			}
			ws.Final = fw.Float()
		}
		w.States[s] = ws
	}

	return w, nil
}

// fromWire rebuilds an Fst from a decoded snapshot.
func fromWire(w *wireFst) (*wfst.Fst, error) {
	if w.Magic != wireMagic {
		return nil, fmt.Errorf("fstio: bad magic %q", w.Magic)
	}
	zero, one := zeroOneFor(w.Kind)
	f := wfst.New(zero, one)
	for range w.States {
		f.AddState()
	}
	f.SetStart(w.Start)
	for s, ws := range w.States {
		if ws.IsFinal {
			f.SetFinal(wfst.StateId(s), wrapWeight(w.Kind, ws.Final))
		}
		for _, a := range ws.Arcs {
			f.AddArc(wfst.StateId(s), wfst.Arc{
				Ilabel:    a.Ilabel,
				Olabel:    a.Olabel,
				Weight:    wrapWeight(w.Kind, a.Weight),
				Nextstate: a.Nextstate,
			})
		}
	}

	return f, nil
}

// Encode serializes f to a gob-encoded byte slice.
func Encode(f *wfst.Fst) ([]byte, error) {
	w, err := toWire(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("fstio: encode: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode reconstructs an Fst from bytes produced by Encode.
func Decode(data []byte) (*wfst.Fst, error) {
	var w wireFst
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, fmt.Errorf("fstio: decode: %w", err)
	}

	return fromWire(&w)
}
