// Package report converts statistics into their stable structured form and
// writes them as JSON or YAML documents or as a console summary.
package report

import (
	"sort"

	"github.com/dbsmedya/gmlstats/internal/stats"
)

// Report is the serialized form of statistics. Field names are stable.
type Report struct {
	Files                 []string            `json:"files" yaml:"files"`
	CityGMLVersions       []string            `json:"cityGMLVersions" yaml:"cityGMLVersions"`
	Extent                *Extent             `json:"extent,omitempty" yaml:"extent,omitempty"`
	Features              map[string]int      `json:"features" yaml:"features"`
	Geometries            map[string]int      `json:"geometries" yaml:"geometries"`
	Appearances           map[string]int      `json:"appearances" yaml:"appearances"`
	LODs                  []int               `json:"lods" yaml:"lods"`
	Themes                []string            `json:"themes" yaml:"themes"`
	GenericAttributes     map[string][]string `json:"genericAttributes" yaml:"genericAttributes"`
	HasGlobalAppearances  bool                `json:"hasGlobalAppearances" yaml:"hasGlobalAppearances"`
	HasImplicitGeometries bool                `json:"hasImplicitGeometries" yaml:"hasImplicitGeometries"`
	HasTextures           bool                `json:"hasTextures" yaml:"hasTextures"`
	HasMaterials          bool                `json:"hasMaterials" yaml:"hasMaterials"`
	Modules               []Module            `json:"modules" yaml:"modules"`
	MissingSchemas        []string            `json:"missingSchemas,omitempty" yaml:"missingSchemas,omitempty"`
	ObjectIDs             []string            `json:"objectIds,omitempty" yaml:"objectIds,omitempty"`
	FeatureHierarchy      []*HierarchyNode    `json:"featureHierarchy,omitempty" yaml:"featureHierarchy,omitempty"`
	FeatureHierarchyPaths [][]string          `json:"featureHierarchyPaths,omitempty" yaml:"featureHierarchyPaths,omitempty"`
}

// Extent is the spatial extent of the analyzed content.
type Extent struct {
	LowerCorner      []float64 `json:"lowerCorner" yaml:"lowerCorner"`
	UpperCorner      []float64 `json:"upperCorner" yaml:"upperCorner"`
	ReferenceSystem  string    `json:"referenceSystem,omitempty" yaml:"referenceSystem,omitempty"`
	ReferenceSystems []string  `json:"referenceSystems,omitempty" yaml:"referenceSystems,omitempty"`
}

// Module is a prefix binding used by the analyzed content.
type Module struct {
	Prefix    string `json:"prefix" yaml:"prefix"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// FromStatistics builds the report of s. All collections are sorted.
func FromStatistics(s *stats.Statistics) *Report {
	r := &Report{
		Files:                 append([]string{}, s.Files...),
		CityGMLVersions:       s.Versions.Sorted(),
		Features:              copyCounts(s.Features),
		Geometries:            copyCounts(s.Geometries),
		Appearances:           copyCounts(s.Appearances),
		LODs:                  s.LODs.Sorted(),
		Themes:                s.Themes.Sorted(),
		GenericAttributes:     make(map[string][]string, len(s.GenericAttributes)),
		HasGlobalAppearances:  s.HasGlobalAppearances,
		HasImplicitGeometries: s.HasImplicitGeometries,
		HasTextures:           s.HasTextures,
		HasMaterials:          s.HasMaterials,
		Modules:               make([]Module, 0, len(s.Modules)),
	}

	if s.Extent.Valid() || len(s.ReferenceSystems) > 0 {
		r.Extent = &Extent{ReferenceSystems: s.ReferenceSystems.Sorted()}
		if s.Extent.Valid() {
			env := s.Extent.Envelope()
			r.Extent.LowerCorner = env.Lower
			r.Extent.UpperCorner = env.Upper
			r.Extent.ReferenceSystem = env.SRSName
		}
	}

	for name, tags := range s.GenericAttributes {
		r.GenericAttributes[name] = tags.Sorted()
	}

	for prefix, ns := range s.Modules {
		r.Modules = append(r.Modules, Module{Prefix: prefix, Namespace: ns})
	}
	sort.Slice(r.Modules, func(i, j int) bool {
		return r.Modules[i].Prefix < r.Modules[j].Prefix
	})

	if len(s.MissingSchemas) > 0 {
		r.MissingSchemas = s.MissingSchemas.Sorted()
	}
	if s.ObjectIDs != nil {
		r.ObjectIDs = s.ObjectIDs.Sorted()
	}
	if len(s.Hierarchy) > 0 {
		r.FeatureHierarchy = BuildHierarchy(s.Hierarchy)
		r.FeatureHierarchyPaths = make([][]string, len(s.Hierarchy))
		for i, path := range s.Hierarchy {
			r.FeatureHierarchyPaths[i] = append([]string(nil), path...)
		}
	}
	return r
}

// TotalFeatures returns the number of counted features.
func (r *Report) TotalFeatures() int {
	return sum(r.Features)
}

// TotalGeometries returns the number of counted geometries.
func (r *Report) TotalGeometries() int {
	return sum(r.Geometries)
}

// TotalAppearances returns the number of counted appearances and surface data objects.
func (r *Report) TotalAppearances() int {
	return sum(r.Appearances)
}

func copyCounts(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func sum(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
