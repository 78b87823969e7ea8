package gml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

// XLinkNamespace is the namespace of xlink:href references.
const XLinkNamespace = "http://www.w3.org/1999/xlink"

// ImplicitGeometry is the placement of a template geometry.
type ImplicitGeometry struct {
	Matrix         Matrix4
	ReferencePoint []float64
	SRSName        string
	// Relative is the inline template geometry, nil when the template is referenced.
	Relative *etree.Element
	// Href is the gml:id of a referenced template, without the leading '#'.
	Href string
}

// ParseImplicitGeometry reads a materialized ImplicitGeometry element of
// CityGML 1.0, 2.0 or 3.0.
func ParseImplicitGeometry(el *etree.Element) (ImplicitGeometry, error) {
	ig := ImplicitGeometry{Matrix: Identity()}

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "transformationMatrix":
			m, err := ParseMatrix(child.Text())
			if err != nil {
				return ImplicitGeometry{}, err
			}
			ig.Matrix = m

		case "relativeGMLGeometry", "relativeGeometry":
			if href, ok := xmlstream.AttrValue(child, XLinkNamespace, "href"); ok {
				ig.Href = strings.TrimPrefix(strings.TrimSpace(href), "#")
			}
			if elems := child.ChildElements(); len(elems) > 0 {
				ig.Relative = elems[0]
			}

		case "referencePoint":
			points, err := Points(child)
			if err != nil {
				return ImplicitGeometry{}, fmt.Errorf("referencePoint: %w", err)
			}
			if len(points) > 0 {
				ig.ReferencePoint = points[0]
			}
			ig.SRSName = SRSNameOf(child)
		}
	}
	return ig, nil
}

// IsReference reports whether the template must be resolved by identifier.
func (ig ImplicitGeometry) IsReference() bool {
	return ig.Relative == nil && ig.Href != ""
}

// Envelope computes the placed envelope of template, or of the inline
// geometry when template is nil. It reports false when no envelope can be
// derived, e.g. without a reference point.
func (ig ImplicitGeometry) Envelope(template *etree.Element) (Envelope, bool, error) {
	if template == nil {
		template = ig.Relative
	}
	if template == nil || len(ig.ReferencePoint) == 0 {
		return Envelope{}, false, nil
	}
	srs := ig.SRSName
	if srs == "" {
		srs = SRSNameOf(template)
	}
	env, err := TransformedEnvelope(template, ig.Matrix, ig.ReferencePoint, srs)
	if err != nil {
		return Envelope{}, false, err
	}
	return env, env.Valid(), nil
}
