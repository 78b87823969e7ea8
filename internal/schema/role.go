// Package schema classifies qualified element names of CityGML documents into
// the roles the statistics walker acts upon. It carries a built-in table of the
// CityGML 1.0, 2.0 and 3.0 modules and accepts supplementary XSD sources for
// application domain extensions.
package schema

// Role is the semantic category of an element.
type Role uint8

const (
	// RoleNone is a known element without statistical relevance.
	RoleNone Role = iota
	RoleFeature
	RoleGeometry
	RoleImplicitGeometry
	RoleAppearance
	RoleBoundingShape
	RoleGenericAttribute
	RoleCityModel
	// RoleNoSchema marks an element whose namespace is not covered by any schema.
	RoleNoSchema
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleFeature:
		return "feature"
	case RoleGeometry:
		return "geometry"
	case RoleImplicitGeometry:
		return "implicit-geometry"
	case RoleAppearance:
		return "appearance"
	case RoleBoundingShape:
		return "bounding-shape"
	case RoleGenericAttribute:
		return "generic-attribute"
	case RoleCityModel:
		return "city-model"
	case RoleNoSchema:
		return "no-schema"
	default:
		return "unknown"
	}
}

// DefaultPrefix is the prefix used for a module without a conventional prefix
// when the document binds its namespace as the default namespace.
func (r Role) DefaultPrefix() string {
	switch r {
	case RoleGeometry:
		return "gml"
	case RoleImplicitGeometry:
		return "core"
	case RoleAppearance:
		return "app"
	default:
		return "ade"
	}
}
