// Package gml computes spatial envelopes from materialized GML geometry and
// accumulates them into a document extent.
package gml

import (
	"math"
	"slices"
)

// Envelope is an axis-aligned bounding box with an optional reference system.
type Envelope struct {
	Lower   []float64
	Upper   []float64
	SRSName string
}

// Valid reports whether the envelope holds a usable box.
func (e Envelope) Valid() bool {
	if len(e.Lower) == 0 || len(e.Lower) != len(e.Upper) {
		return false
	}
	for i := range e.Lower {
		if e.Lower[i] > e.Upper[i] {
			return false
		}
	}
	return true
}

// Extent accumulates envelopes. It starts invalid, becomes valid with the
// first valid envelope and never becomes invalid again.
type Extent struct {
	lower   []float64
	upper   []float64
	srsName string
	valid   bool
}

// Valid reports whether at least one envelope has been included.
func (e *Extent) Valid() bool {
	return e.valid
}

// Lower returns a copy of the lower corner.
func (e *Extent) Lower() []float64 {
	return slices.Clone(e.lower)
}

// Upper returns a copy of the upper corner.
func (e *Extent) Upper() []float64 {
	return slices.Clone(e.upper)
}

// SRSName returns the reference system adopted from the first envelope.
func (e *Extent) SRSName() string {
	return e.srsName
}

// Include widens the extent by env. Invalid envelopes are ignored.
// The reference system of the first envelope is kept, even when it is empty;
// differing systems are never reconciled.
func (e *Extent) Include(env Envelope) {
	if !env.Valid() {
		return
	}
	if !e.valid {
		e.lower = slices.Clone(env.Lower)
		e.upper = slices.Clone(env.Upper)
		e.srsName = env.SRSName
		e.valid = true
		return
	}
	e.lower = widen(e.lower, env.Lower, math.Min)
	e.upper = widen(e.upper, env.Upper, math.Max)
}

// Merge widens the extent by another extent. Unlike Include, conflicting
// reference systems resolve to the lexicographically smaller name so that
// merging is commutative.
func (e *Extent) Merge(other *Extent) {
	if other == nil || !other.valid {
		return
	}
	srs := e.srsName
	switch {
	case !e.valid || srs == "":
		srs = other.srsName
	case other.srsName != "" && other.srsName < srs:
		srs = other.srsName
	}
	e.Include(Envelope{Lower: other.lower, Upper: other.upper})
	e.srsName = srs
}

// Envelope returns the accumulated box.
func (e *Extent) Envelope() Envelope {
	return Envelope{Lower: e.Lower(), Upper: e.Upper(), SRSName: e.srsName}
}

// widen combines two corners componentwise. Dimensions present in only one
// corner are taken from that corner.
func widen(a, b []float64, pick func(x, y float64) float64) []float64 {
	n := max(len(a), len(b))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(a):
			out[i] = b[i]
		case i >= len(b):
			out[i] = a[i]
		default:
			out[i] = pick(a[i], b[i])
		}
	}
	return out
}
