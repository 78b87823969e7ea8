package gml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

// GML namespaces used by CityGML 1.0/2.0 and 3.0.
const (
	Namespace   = "http://www.opengis.net/gml"
	Namespace32 = "http://www.opengis.net/gml/3.2"
)

// ErrInvalidCoordinates is returned for coordinate text that cannot be parsed.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

const defaultDimension = 3

// IsGML reports whether uri is one of the GML namespaces.
func IsGML(uri string) bool {
	return uri == Namespace || uri == Namespace32
}

// EnvelopeOf computes the envelope of all positions below el, el included.
// Positions are read from pos, posList, coordinates, coord, lowerCorner and
// upperCorner elements, so gml:Envelope and gml:Box are handled as well.
func EnvelopeOf(el *etree.Element) (Envelope, error) {
	env := Envelope{SRSName: SRSNameOf(el)}
	err := eachPoint(el, func(p []float64) {
		env = extend(env, p)
	})
	if err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// SRSNameOf returns the srsName of el or, failing that, of its first
// descendant that declares one.
func SRSNameOf(el *etree.Element) string {
	if v, ok := xmlstream.AttrValue(el, "", "srsName"); ok {
		return v
	}
	for _, child := range el.ChildElements() {
		if v := SRSNameOf(child); v != "" {
			return v
		}
	}
	return ""
}

// SRSNames collects every distinct srsName declared in the subtree of el.
func SRSNames(el *etree.Element) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		if v, ok := xmlstream.AttrValue(e, "", "srsName"); ok && v != "" && !seen[v] {
			seen[v] = true
			names = append(names, v)
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(el)
	return names
}

// Points returns every position below el, el included.
func Points(el *etree.Element) ([][]float64, error) {
	var points [][]float64
	err := eachPoint(el, func(p []float64) {
		points = append(points, p)
	})
	return points, err
}

func eachPoint(el *etree.Element, fn func([]float64)) error {
	if !IsGML(xmlstream.NamespaceOf(el)) {
		for _, child := range el.ChildElements() {
			if err := eachPoint(child, fn); err != nil {
				return err
			}
		}
		return nil
	}

	switch el.Tag {
	case "pos", "lowerCorner", "upperCorner":
		values, err := parseFloats(strings.Fields(el.Text()))
		if err != nil {
			return fmt.Errorf("%s: %w", el.Tag, err)
		}
		if len(values) > 0 {
			fn(values)
		}
		return nil

	case "posList":
		values, err := parseFloats(strings.Fields(el.Text()))
		if err != nil {
			return fmt.Errorf("posList: %w", err)
		}
		dim := dimensionOf(el)
		if len(values)%dim != 0 {
			return fmt.Errorf("posList: %w: %d values for dimension %d", ErrInvalidCoordinates, len(values), dim)
		}
		for i := 0; i < len(values); i += dim {
			fn(values[i : i+dim])
		}
		return nil

	case "coordinates":
		return eachCoordinatesTuple(el, fn)

	case "coord":
		var values []float64
		for _, axis := range []string{"X", "Y", "Z"} {
			c := el.SelectElement(axis)
			if c == nil {
				break
			}
			v, err := parseFloat(c.Text())
			if err != nil {
				return fmt.Errorf("coord: %w", err)
			}
			values = append(values, v)
		}
		if len(values) > 0 {
			fn(values)
		}
		return nil
	}

	for _, child := range el.ChildElements() {
		if err := eachPoint(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// eachCoordinatesTuple reads the legacy gml:coordinates encoding.
func eachCoordinatesTuple(el *etree.Element, fn func([]float64)) error {
	cs := el.SelectAttrValue("cs", ",")
	ts := el.SelectAttrValue("ts", " ")
	decimal := el.SelectAttrValue("decimal", ".")

	text := strings.TrimSpace(el.Text())
	var tuples []string
	if strings.TrimSpace(ts) == "" {
		tuples = strings.Fields(text)
	} else {
		tuples = strings.Split(text, ts)
	}

	for _, tuple := range tuples {
		tuple = strings.TrimSpace(tuple)
		if tuple == "" {
			continue
		}
		parts := strings.Split(tuple, cs)
		if decimal != "." {
			for i := range parts {
				parts[i] = strings.ReplaceAll(parts[i], decimal, ".")
			}
		}
		values, err := parseFloats(parts)
		if err != nil {
			return fmt.Errorf("coordinates: %w", err)
		}
		fn(values)
	}
	return nil
}

// dimensionOf returns the srsDimension in effect for el.
func dimensionOf(el *etree.Element) int {
	for e := el; e != nil; e = e.Parent() {
		if v, ok := xmlstream.AttrValue(e, "", "srsDimension"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				return n
			}
		}
	}
	return defaultDimension
}

func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := parseFloat(f)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// parseFloat parses a single ordinate. NaN and infinities are rejected.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, s)
	}
	return v, nil
}

func extend(env Envelope, p []float64) Envelope {
	if len(env.Lower) == 0 {
		env.Lower = append([]float64(nil), p...)
		env.Upper = append([]float64(nil), p...)
		return env
	}
	env.Lower = widen(env.Lower, p, math.Min)
	env.Upper = widen(env.Upper, p, math.Max)
	return env
}
