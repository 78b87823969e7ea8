package schema

// Namespaces of the built-in modules that callers refer to directly.
const (
	GMLNamespace   = "http://www.opengis.net/gml"
	GML32Namespace = "http://www.opengis.net/gml/3.2"
	XLinkNamespace = "http://www.w3.org/1999/xlink"

	CityGML1Namespace = "http://www.opengis.net/citygml/1.0"
	CityGML2Namespace = "http://www.opengis.net/citygml/2.0"
	CityGML3Namespace = "http://www.opengis.net/citygml/3.0"
)

type moduleDef struct {
	prefix string
	// namespaces maps a CityGML version to the module namespace.
	namespaces map[string]string
	roles      map[Role][]string
}

var boundarySurfaces = []string{
	"_BoundarySurface", "RoofSurface", "WallSurface", "GroundSurface", "ClosureSurface",
	"FloorSurface", "InteriorWallSurface", "CeilingSurface", "OuterCeilingSurface", "OuterFloorSurface",
	"_Opening", "Door", "Window",
}

var builtinModules = []moduleDef{
	{
		prefix: "core",
		namespaces: map[string]string{
			"1.0": CityGML1Namespace,
			"2.0": CityGML2Namespace,
			"3.0": CityGML3Namespace,
		},
		roles: map[Role][]string{
			RoleCityModel:        {"CityModel"},
			RoleImplicitGeometry: {"ImplicitGeometry"},
			RoleFeature: {
				"_CityObject", "_Site", "Address",
				"AbstractCityObject", "AbstractSpace", "AbstractPhysicalSpace", "AbstractOccupiedSpace",
				"AbstractUnoccupiedSpace", "AbstractLogicalSpace", "AbstractSpaceBoundary",
				"AbstractThematicSurface", "AbstractFeature", "AbstractFeatureWithLifespan",
				"AbstractDynamizer", "AbstractVersion", "AbstractVersionTransition",
				"AbstractPointCloud", "ClosureSurface",
			},
			RoleAppearance:       {"AbstractAppearance"},
			RoleGenericAttribute: {"_genericAttribute", "AbstractGenericAttribute"},
		},
	},
	{
		prefix: "bldg",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/building/1.0",
			"2.0": "http://www.opengis.net/citygml/building/2.0",
			"3.0": "http://www.opengis.net/citygml/building/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: append([]string{
				"_AbstractBuilding", "Building", "BuildingPart", "BuildingInstallation",
				"IntBuildingInstallation", "BuildingFurniture", "Room", "AbstractBuilding",
				"AbstractBuildingSubdivision", "BuildingConstructiveElement", "BuildingRoom",
				"BuildingUnit", "Storey",
			}, boundarySurfaces...),
		},
	},
	{
		prefix: "brid",
		namespaces: map[string]string{
			"2.0": "http://www.opengis.net/citygml/bridge/2.0",
			"3.0": "http://www.opengis.net/citygml/bridge/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: append([]string{
				"_AbstractBridge", "Bridge", "BridgePart", "BridgeConstructionElement",
				"BridgeConstructiveElement", "BridgeInstallation", "IntBridgeInstallation",
				"BridgeFurniture", "BridgeRoom", "AbstractBridge",
			}, boundarySurfaces...),
		},
	},
	{
		prefix: "tun",
		namespaces: map[string]string{
			"2.0": "http://www.opengis.net/citygml/tunnel/2.0",
			"3.0": "http://www.opengis.net/citygml/tunnel/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: append([]string{
				"_AbstractTunnel", "Tunnel", "TunnelPart", "TunnelInstallation",
				"IntTunnelInstallation", "TunnelConstructiveElement", "TunnelFurniture",
				"HollowSpace", "AbstractTunnel",
			}, boundarySurfaces...),
		},
	},
	{
		prefix: "con",
		namespaces: map[string]string{
			"3.0": "http://www.opengis.net/citygml/construction/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {
				"AbstractConstruction", "AbstractConstructionSurface", "AbstractConstructiveElement",
				"AbstractFillingElement", "AbstractFillingSurface", "AbstractInstallation",
				"AbstractFurniture", "RoofSurface", "WallSurface", "GroundSurface", "FloorSurface",
				"InteriorWallSurface", "CeilingSurface", "OuterCeilingSurface", "OuterFloorSurface",
				"Door", "Window", "DoorSurface", "WindowSurface", "OtherConstruction",
			},
		},
	},
	{
		prefix: "tran",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/transportation/1.0",
			"2.0": "http://www.opengis.net/citygml/transportation/2.0",
			"3.0": "http://www.opengis.net/citygml/transportation/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {
				"_TransportationObject", "TransportationComplex", "Track", "Road", "Railway",
				"Square", "TrafficArea", "AuxiliaryTrafficArea", "AbstractTransportationSpace",
				"Waterway", "Section", "Intersection", "TrafficSpace", "AuxiliaryTrafficSpace",
				"ClearanceSpace", "Hole", "HoleSurface", "Marking",
			},
		},
	},
	{
		prefix: "veg",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/vegetation/1.0",
			"2.0": "http://www.opengis.net/citygml/vegetation/2.0",
			"3.0": "http://www.opengis.net/citygml/vegetation/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {"_VegetationObject", "AbstractVegetationObject", "SolitaryVegetationObject", "PlantCover"},
		},
	},
	{
		prefix: "wtr",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/waterbody/1.0",
			"2.0": "http://www.opengis.net/citygml/waterbody/2.0",
			"3.0": "http://www.opengis.net/citygml/waterbody/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {
				"_WaterObject", "_WaterBoundarySurface", "AbstractWaterBoundarySurface", "WaterBody",
				"WaterSurface", "WaterGroundSurface", "WaterClosureSurface",
			},
		},
	},
	{
		prefix: "luse",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/landuse/1.0",
			"2.0": "http://www.opengis.net/citygml/landuse/2.0",
			"3.0": "http://www.opengis.net/citygml/landuse/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {"LandUse"},
		},
	},
	{
		prefix: "dem",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/relief/1.0",
			"2.0": "http://www.opengis.net/citygml/relief/2.0",
			"3.0": "http://www.opengis.net/citygml/relief/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {
				"_ReliefComponent", "AbstractReliefComponent", "ReliefFeature", "TINRelief",
				"MassPointRelief", "BreaklineRelief", "RasterRelief",
			},
		},
	},
	{
		prefix: "frn",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/cityfurniture/1.0",
			"2.0": "http://www.opengis.net/citygml/cityfurniture/2.0",
			"3.0": "http://www.opengis.net/citygml/cityfurniture/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {"CityFurniture"},
		},
	},
	{
		prefix: "grp",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/cityobjectgroup/1.0",
			"2.0": "http://www.opengis.net/citygml/cityobjectgroup/2.0",
			"3.0": "http://www.opengis.net/citygml/cityobjectgroup/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {"CityObjectGroup"},
		},
	},
	{
		prefix: "gen",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/generics/1.0",
			"2.0": "http://www.opengis.net/citygml/generics/2.0",
			"3.0": "http://www.opengis.net/citygml/generics/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {
				"GenericCityObject", "GenericOccupiedSpace", "GenericUnoccupiedSpace",
				"GenericLogicalSpace", "GenericThematicSurface",
			},
			RoleGenericAttribute: {
				"_genericAttribute", "stringAttribute", "intAttribute", "doubleAttribute", "dateAttribute",
				"uriAttribute", "measureAttribute", "genericAttributeSet",
				"StringAttribute", "IntAttribute", "DoubleAttribute", "DateAttribute", "UriAttribute",
				"MeasureAttribute", "CodeAttribute", "GenericAttributeSet",
			},
		},
	},
	{
		prefix: "app",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/appearance/1.0",
			"2.0": "http://www.opengis.net/citygml/appearance/2.0",
			"3.0": "http://www.opengis.net/citygml/appearance/3.0",
		},
		roles: map[Role][]string{
			RoleAppearance: {"Appearance"},
		},
	},
	{
		prefix: "tex",
		namespaces: map[string]string{
			"1.0": "http://www.opengis.net/citygml/texturedsurface/1.0",
			"2.0": "http://www.opengis.net/citygml/texturedsurface/2.0",
		},
		roles: map[Role][]string{
			RoleGeometry: {"TexturedSurface"},
		},
	},
	{
		prefix: "dyn",
		namespaces: map[string]string{
			"3.0": "http://www.opengis.net/citygml/dynamizer/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {
				"Dynamizer", "AbstractTimeseries", "AbstractAtomicTimeseries", "StandardFileTimeseries",
				"TabulatedFileTimeseries", "GenericTimeseries", "CompositeTimeseries",
				"AbstractSensorConnection",
			},
		},
	},
	{
		prefix: "vers",
		namespaces: map[string]string{
			"3.0": "http://www.opengis.net/citygml/versioning/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {"Version", "VersionTransition"},
		},
	},
	{
		prefix: "pcl",
		namespaces: map[string]string{
			"3.0": "http://www.opengis.net/citygml/pointcloud/3.0",
		},
		roles: map[Role][]string{
			RoleFeature: {"PointCloud"},
		},
	},
}

var gmlGeometries = []string{
	"_Geometry", "_GeometricPrimitive", "_GeometricAggregate", "_Curve", "_Surface", "_Solid",
	"_Ring", "AbstractGeometry", "AbstractGeometricPrimitive", "AbstractGeometricAggregate",
	"AbstractCurve", "AbstractSurface", "AbstractSolid", "AbstractRing",
	"Point", "MultiPoint", "LineString", "Curve", "OrientableCurve", "CompositeCurve", "MultiCurve",
	"LinearRing", "Ring", "Polygon", "Surface", "PolyhedralSurface", "OrientableSurface",
	"CompositeSurface", "MultiSurface", "TriangulatedSurface", "Tin", "Triangle", "Rectangle",
	"Solid", "CompositeSolid", "MultiSolid", "MultiGeometry", "GeometricComplex",
	"MultiLineString", "MultiPolygon",
}

// gmlRoles returns the roles of the GML elements CityGML relies on.
func gmlRoles() map[Role][]string {
	return map[Role][]string{
		RoleGeometry:      gmlGeometries,
		RoleBoundingShape: {"boundedBy"},
		RoleFeature:       {"_Feature", "AbstractFeature"},
	}
}

// auxiliaryNamespaces are known but never classified into a role.
var auxiliaryNamespaces = map[string]string{
	XLinkNamespace:                                     "xlink",
	"http://www.w3.org/2001/XMLSchema-instance":        "xsi",
	"http://www.w3.org/XML/1998/namespace":             "xml",
	"urn:oasis:names:tc:ciq:xsdschema:xAL:2.0":         "xAL",
	"urn:oasis:names:tc:ciq:xal:3":                     "xAL",
	"http://www.opengis.net/citygml/profiles/base/1.0": "base",
	"http://www.opengis.net/citygml/profiles/base/2.0": "base",
	"http://www.w3.org/2001/SMIL20/":                   "smil20",
	"http://www.w3.org/2001/SMIL20/Language":           "smil20lang",
}

// builtin returns the modules that cannot be replaced by supplementary sources.
func builtin() []*Module {
	var modules []*Module
	for _, def := range builtinModules {
		for version, ns := range def.namespaces {
			modules = append(modules, newBuiltinModule(ns, def.prefix, version, def.roles))
		}
	}
	modules = append(modules,
		newBuiltinModule(GMLNamespace, "gml", "", gmlRoles()),
		newBuiltinModule(GML32Namespace, "gml", "", gmlRoles()),
	)
	for ns, prefix := range auxiliaryNamespaces {
		modules = append(modules, newBuiltinModule(ns, prefix, "", nil))
	}
	return modules
}

func newBuiltinModule(ns, prefix, version string, roles map[Role][]string) *Module {
	m := &Module{
		Namespace: ns,
		Prefix:    prefix,
		Version:   version,
		Builtin:   true,
		roles:     make(map[string]Role),
	}
	for role, names := range roles {
		for _, name := range names {
			m.roles[name] = role
		}
	}
	return m
}
