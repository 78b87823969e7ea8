package stats

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/iancoleman/strcase"

	"github.com/dbsmedya/gmlstats/internal/schema"
	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

// lodPattern extracts the level of detail from a property name such as lod2Solid.
var lodPattern = regexp.MustCompile(`^lod([0-4])(?:[A-Z].*)?$`)

// lodFromProperty returns the LOD encoded in a property's local name.
func lodFromProperty(local string) (int, bool) {
	m := lodPattern.FindStringSubmatch(local)
	if m == nil {
		return 0, false
	}
	return int(m[1][0] - '0'), true
}

// nodeKind is the closed set of sub-object kinds inspected in a
// materialized subtree.
type nodeKind uint8

const (
	kindOther nodeKind = iota
	kindSurfaceData
	kindTexture
	kindMaterial
	kindGeometry
	kindGenericAttribute
)

// visitor records sub-objects of materialized appearances, geometries and
// generic attribute sets.
type visitor struct {
	stats *Statistics
	cls   *schema.Classifier
}

func (v *visitor) kindOf(el *etree.Element) nodeKind {
	name := xmlstream.NameOf(el)
	if isAppearanceNamespace(name.Space) {
		switch name.Local {
		case "ParameterizedTexture", "GeoreferencedTexture":
			return kindTexture
		case "X3DMaterial":
			return kindMaterial
		case "_SurfaceData", "AbstractSurfaceData", "_Texture", "AbstractTexture":
			return kindSurfaceData
		}
		return kindOther
	}
	switch v.cls.Lookup(name) {
	case schema.RoleGeometry:
		return kindGeometry
	case schema.RoleGenericAttribute:
		return kindGenericAttribute
	}
	return kindOther
}

// walk visits el and all its descendants.
func (v *visitor) walk(el *etree.Element) {
	switch v.kindOf(el) {
	case kindTexture:
		v.surfaceData(el)
		v.stats.HasTextures = true
	case kindMaterial:
		v.surfaceData(el)
		v.stats.HasMaterials = true
	case kindSurfaceData:
		v.surfaceData(el)
	case kindGeometry:
		if srs, ok := xmlstream.AttrValue(el, "", "srsName"); ok {
			v.stats.AddReferenceSystem(srs)
		}
	case kindGenericAttribute:
		v.genericAttribute(el)
		return
	}
	for _, child := range el.ChildElements() {
		v.walk(child)
	}
}

func (v *visitor) surfaceData(el *etree.Element) {
	v.stats.AddAppearance("app:" + el.Tag)
}

// genericAttribute records the name and type tag of a generic attribute and
// of the attributes nested in a generic attribute set.
func (v *visitor) genericAttribute(el *etree.Element) {
	v.stats.AddGenericAttribute(genericAttributeName(el), strcase.ToCamel(el.Tag))
	for _, child := range el.ChildElements() {
		v.nestedGenericAttributes(child)
	}
}

func (v *visitor) nestedGenericAttributes(el *etree.Element) {
	if v.cls.Lookup(xmlstream.NameOf(el)) == schema.RoleGenericAttribute {
		v.genericAttribute(el)
		return
	}
	for _, child := range el.ChildElements() {
		v.nestedGenericAttributes(child)
	}
}

// genericAttributeName reads the name attribute of CityGML 1.0/2.0 or the
// name child element of CityGML 3.0.
func genericAttributeName(el *etree.Element) string {
	if name, ok := xmlstream.AttrValue(el, "", "name"); ok {
		return strings.TrimSpace(name)
	}
	for _, child := range el.ChildElements() {
		if child.Tag == "name" {
			return strings.TrimSpace(child.Text())
		}
	}
	return ""
}

func isAppearanceNamespace(ns string) bool {
	return strings.HasPrefix(ns, "http://www.opengis.net/citygml/appearance/")
}

// appearanceTheme returns the theme of a materialized appearance.
func appearanceTheme(el *etree.Element) string {
	for _, child := range el.ChildElements() {
		if child.Tag == "theme" && isAppearanceNamespace(xmlstream.NamespaceOf(child)) {
			return strings.TrimSpace(child.Text())
		}
	}
	return ""
}
