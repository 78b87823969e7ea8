// Package stats implements the streaming statistics engine for CityGML
// documents: a single forward pass per file that classifies elements, tracks
// feature containment by depth and aggregates counts, extent, LODs and
// attribute usage into a Statistics value.
package stats

import (
	"github.com/dbsmedya/gmlstats/internal/gml"
)

// Statistics is the result of analyzing one file, or the merged summary of
// several files. Counters and sets only grow; the extent only widens.
type Statistics struct {
	// Files lists the analyzed sources in processing order.
	Files []string

	Versions Set[string]
	// Modules maps a namespace prefix to its namespace URI.
	Modules map[string]string

	Features    map[string]int
	Geometries  map[string]int
	Appearances map[string]int

	LODs   Set[int]
	Themes Set[string]
	// GenericAttributes maps an attribute name to the type tags seen for it.
	GenericAttributes map[string]Set[string]

	HasGlobalAppearances  bool
	HasImplicitGeometries bool
	HasTextures           bool
	HasMaterials          bool

	MissingSchemas   Set[string]
	Extent           gml.Extent
	ReferenceSystems Set[string]

	// Hierarchy is nil unless hierarchy tracking was requested.
	Hierarchy [][]string
	// ObjectIDs is nil unless an identifier filter was active.
	ObjectIDs Set[string]
}

// NewStatistics creates empty statistics for the named source.
func NewStatistics(files ...string) *Statistics {
	return &Statistics{
		Files:             append([]string(nil), files...),
		Versions:          NewSet[string](),
		Modules:           make(map[string]string),
		Features:          make(map[string]int),
		Geometries:        make(map[string]int),
		Appearances:       make(map[string]int),
		LODs:              NewSet[int](),
		Themes:            NewSet[string](),
		GenericAttributes: make(map[string]Set[string]),
		MissingSchemas:    NewSet[string](),
		ReferenceSystems:  NewSet[string](),
	}
}

// AddVersion records a CityGML version. Empty versions are ignored.
func (s *Statistics) AddVersion(version string) {
	if version != "" {
		s.Versions.Add(version)
	}
}

// AddModule records a prefix binding. When a prefix is bound to different
// namespaces the lexicographically smaller URI is kept, which keeps Merge
// commutative.
func (s *Statistics) AddModule(prefix, namespace string) {
	if current, ok := s.Modules[prefix]; ok && current <= namespace {
		return
	}
	s.Modules[prefix] = namespace
}

// AddFeature counts a feature by qualified name.
func (s *Statistics) AddFeature(name string) {
	s.Features[name]++
}

// AddGeometry counts a geometry by qualified name.
func (s *Statistics) AddGeometry(name string) {
	s.Geometries[name]++
}

// AddAppearance counts an appearance or surface data object by qualified name.
func (s *Statistics) AddAppearance(name string) {
	s.Appearances[name]++
}

// AddLOD records a level of detail.
func (s *Statistics) AddLOD(lod int) {
	s.LODs.Add(lod)
}

// AddTheme records an appearance theme. Empty themes are ignored.
func (s *Statistics) AddTheme(theme string) {
	if theme != "" {
		s.Themes.Add(theme)
	}
}

// AddGenericAttribute records the type tag of a named generic attribute.
func (s *Statistics) AddGenericAttribute(name, typeTag string) {
	if name == "" || typeTag == "" {
		return
	}
	tags, ok := s.GenericAttributes[name]
	if !ok {
		tags = NewSet[string]()
		s.GenericAttributes[name] = tags
	}
	tags.Add(typeTag)
}

// AddMissingSchema records a namespace without schema.
func (s *Statistics) AddMissingSchema(namespace string) {
	s.MissingSchemas.Add(namespace)
}

// AddReferenceSystem records a reference system identifier. Empty names are ignored.
func (s *Statistics) AddReferenceSystem(name string) {
	if name != "" {
		s.ReferenceSystems.Add(name)
	}
}

// AddHierarchy appends a hierarchy path, outermost feature first.
func (s *Statistics) AddHierarchy(path []string) {
	s.Hierarchy = append(s.Hierarchy, append([]string(nil), path...))
}

// WithObjectIDs marks the statistics as filtered by the given identifiers.
func (s *Statistics) WithObjectIDs(ids []string) {
	if s.ObjectIDs == nil {
		s.ObjectIDs = NewSet[string]()
	}
	for _, id := range ids {
		s.ObjectIDs.Add(id)
	}
}

// HasFeatures reports whether at least one feature has been counted.
func (s *Statistics) HasFeatures() bool {
	return len(s.Features) > 0
}

// HasMissingSchemas reports whether any namespace lacked a schema.
func (s *Statistics) HasMissingSchemas() bool {
	return len(s.MissingSchemas) > 0
}

// Merge adds other into s. All fields except Files and Hierarchy merge
// commutatively and associatively; those two are appended in call order.
func (s *Statistics) Merge(other *Statistics) {
	if other == nil {
		return
	}

	s.Files = append(s.Files, other.Files...)
	s.Versions.Union(other.Versions)
	for prefix, ns := range other.Modules {
		s.AddModule(prefix, ns)
	}

	addCounts(s.Features, other.Features)
	addCounts(s.Geometries, other.Geometries)
	addCounts(s.Appearances, other.Appearances)

	s.LODs.Union(other.LODs)
	s.Themes.Union(other.Themes)
	for name, tags := range other.GenericAttributes {
		for tag := range tags {
			s.AddGenericAttribute(name, tag)
		}
	}

	s.HasGlobalAppearances = s.HasGlobalAppearances || other.HasGlobalAppearances
	s.HasImplicitGeometries = s.HasImplicitGeometries || other.HasImplicitGeometries
	s.HasTextures = s.HasTextures || other.HasTextures
	s.HasMaterials = s.HasMaterials || other.HasMaterials

	s.MissingSchemas.Union(other.MissingSchemas)
	s.Extent.Merge(&other.Extent)
	s.ReferenceSystems.Union(other.ReferenceSystems)

	for _, path := range other.Hierarchy {
		s.AddHierarchy(path)
	}
	if other.ObjectIDs != nil {
		if s.ObjectIDs == nil {
			s.ObjectIDs = NewSet[string]()
		}
		s.ObjectIDs.Union(other.ObjectIDs)
	}
}

func addCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}
