package gml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Matrix4 is a row-major 4x4 transformation matrix.
type Matrix4 [16]float64

// Identity returns the identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// ParseMatrix reads the 16 whitespace-separated values of a
// transformationMatrix element.
func ParseMatrix(text string) (Matrix4, error) {
	values, err := parseFloats(strings.Fields(text))
	if err != nil {
		return Matrix4{}, fmt.Errorf("transformationMatrix: %w", err)
	}
	if len(values) != 16 {
		return Matrix4{}, fmt.Errorf("transformationMatrix: %w: expected 16 values, got %d", ErrInvalidCoordinates, len(values))
	}
	var m Matrix4
	copy(m[:], values)
	return m, nil
}

// Apply transforms p. Missing coordinates are treated as zero and the result
// keeps the dimension of p.
func (m Matrix4) Apply(p []float64) []float64 {
	var in [4]float64
	copy(in[:3], p)
	in[3] = 1

	var out [4]float64
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row] += m[row*4+col] * in[col]
		}
	}
	if out[3] != 0 && out[3] != 1 {
		for i := 0; i < 3; i++ {
			out[i] /= out[3]
		}
	}

	n := min(len(p), 3)
	result := make([]float64, n)
	copy(result, out[:n])
	return result
}

// TransformedEnvelope computes the envelope of a template geometry placed by
// an implicit geometry: every template position is transformed by m and then
// translated by the reference point.
func TransformedEnvelope(template *etree.Element, m Matrix4, referencePoint []float64, srsName string) (Envelope, error) {
	points, err := Points(template)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{SRSName: srsName}
	for _, p := range points {
		q := m.Apply(p)
		for i := range q {
			if i < len(referencePoint) {
				q[i] += referencePoint[i]
			}
		}
		env = extend(env, q)
	}
	return env, nil
}
