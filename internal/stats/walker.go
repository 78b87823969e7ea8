package stats

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dbsmedya/gmlstats/internal/gml"
	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/schema"
	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

// checkInterval is the number of events between context checks.
const checkInterval = 256

// memberProperties are the properties that hold top-level objects of a city model.
var memberProperties = map[string]bool{
	"cityObjectMember":        true,
	"featureMember":           true,
	"featureMembers":          true,
	"appearanceMember":        true,
	"versionMember":           true,
	"versionTransitionMember": true,
}

// Options controls what an Analyzer records.
type Options struct {
	// ComputeExtent computes the extent from geometries instead of relying
	// on bounding shapes only.
	ComputeExtent bool
	// OnlyTopLevel counts only features that are direct members of the city model.
	OnlyTopLevel bool
	// ObjectHierarchy records the feature nesting paths.
	ObjectHierarchy bool
	// IDs restricts the analysis to the features with these gml:ids and
	// everything nested in them.
	IDs []string

	Encoding string
	MaxDepth int
}

// Analyzer computes the statistics of CityGML documents. An Analyzer is not
// safe for concurrent use; files are analyzed one after the other.
type Analyzer struct {
	cls  *schema.Classifier
	opts Options
	ids  map[string]struct{}
	log  *logger.Logger
}

// NewAnalyzer creates an Analyzer using cls to classify elements.
func NewAnalyzer(cls *schema.Classifier, opts Options, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNop()
	}
	a := &Analyzer{
		cls:  cls,
		opts: opts,
		log:  log,
	}
	if len(opts.IDs) > 0 {
		a.ids = make(map[string]struct{}, len(opts.IDs))
		for _, id := range opts.IDs {
			a.ids[id] = struct{}{}
		}
	}
	return a
}

func (a *Analyzer) readerOptions() []xmlstream.Option {
	var opts []xmlstream.Option
	if a.opts.Encoding != "" {
		opts = append(opts, xmlstream.WithEncoding(a.opts.Encoding))
	}
	if a.opts.MaxDepth > 0 {
		opts = append(opts, xmlstream.WithMaxDepth(a.opts.MaxDepth))
	}
	return opts
}

// pass is the state of one forward pass over a document.
type pass struct {
	a        *Analyzer
	ctx      context.Context
	name     string
	reader   *xmlstream.Reader
	stats    *Statistics
	tracker  *tracker
	visitor  *visitor
	resolver *TemplateResolver

	// compute is switched on for the rest of the file when a geometry is
	// met before any valid extent exists.
	compute        bool
	extentFromRoot bool
	sawFeature     bool
}

// Analyze streams src once and returns its statistics. A second pass over
// src is made only if an implicit geometry references its template by
// identifier and the extent is computed.
func (a *Analyzer) Analyze(ctx context.Context, src Source) (result *Statistics, err error) {
	start := time.Now()
	log := a.log.WithFile(src.Name())

	// Drop namespaces left over from a previous file that failed.
	a.cls.TakeMissingSchemas()

	rc, err := src.Open()
	if err != nil {
		return nil, &ReadError{File: src.Name(), Err: err}
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			result, err = nil, &ReadError{File: src.Name(), Err: cerr}
		}
	}()

	reader, err := xmlstream.NewReader(rc, a.readerOptions()...)
	if err != nil {
		return nil, &ReadError{File: src.Name(), Err: err}
	}

	p := &pass{
		a:        a,
		ctx:      ctx,
		name:     src.Name(),
		reader:   reader,
		stats:    NewStatistics(src.Name()),
		tracker:  newTracker(a.ids != nil),
		resolver: NewTemplateResolver(src, a.cls, log, a.readerOptions()...),
		compute:  a.opts.ComputeExtent,
	}
	p.visitor = &visitor{stats: p.stats, cls: a.cls}
	defer p.resolver.Close()

	if a.ids != nil {
		p.stats.WithObjectIDs(a.opts.IDs)
	}

	log.Debugw("Analyzing file", "options", a.opts.String())

	if err := p.run(); err != nil {
		return nil, err
	}

	for _, ns := range a.cls.TakeMissingSchemas() {
		p.stats.AddMissingSchema(ns)
	}
	if p.compute && !a.opts.ComputeExtent {
		log.Debug("Extent was computed from geometries because no bounding shape was found")
	}

	log.Infow("File analyzed",
		"features", total(p.stats.Features),
		"geometries", total(p.stats.Geometries),
		"missing_schemas", len(p.stats.MissingSchemas),
		"templates", p.resolver.Len(),
		"duration", time.Since(start).String())
	return p.stats, nil
}

func (p *pass) run() error {
	for n := 0; ; n++ {
		if n%checkInterval == 0 {
			if err := p.ctx.Err(); err != nil {
				return err
			}
		}

		ev, err := p.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p.readError(p.openElement(), 0, err)
		}

		switch ev.Kind {
		case xmlstream.EventStartElement:
			if err := p.startElement(ev); err != nil {
				return err
			}
		case xmlstream.EventEndElement:
			p.tracker.closeElement(ev.Depth)
		}
	}

	if !p.tracker.empty() {
		return p.readError(p.openElement(), 0, ErrUnbalancedDocument)
	}
	return nil
}

func (p *pass) startElement(ev xmlstream.Event) error {
	if !p.isMemberProperty(ev.Name) {
		if err := p.dispatch(ev); err != nil {
			return err
		}
	}
	// A materialized element has been consumed including its end tag.
	if p.reader.Depth() == ev.Depth {
		p.tracker.pushElement(ev.Name)
	}
	return nil
}

func (p *pass) dispatch(ev xmlstream.Event) error {
	role, err := p.a.cls.RoleOf(ev.Name)
	if err != nil {
		var rerr *schema.ResolutionError
		if errors.As(err, &rerr) {
			rerr.File = p.name
			rerr.Line = ev.Line
		}
		return err
	}

	nested := ev.Depth > p.tracker.lastFeatureDepth()

	switch {
	case role == schema.RoleAppearance && nested:
		return p.appearance(ev)
	case role == schema.RoleCityModel && !p.sawFeature && ev.Depth == 1:
		p.stats.AddVersion(p.a.cls.Version(ev.Name.Space))
		return nil
	case (role == schema.RoleFeature || role == schema.RoleCityModel) && p.accepts(ev, nested):
		p.feature(ev, role)
		return nil
	case role == schema.RoleBoundingShape && (p.parentIsCityModel() || nested):
		return p.boundingShape(ev)
	case !nested:
		return nil
	case role == schema.RoleGeometry:
		return p.geometry(ev, role)
	case role == schema.RoleImplicitGeometry:
		return p.implicitGeometry(ev, role)
	case role == schema.RoleGenericAttribute:
		return p.genericAttribute(ev, role)
	}
	return nil
}

// accepts reports whether a feature passes the identifier filter.
func (p *pass) accepts(ev xmlstream.Event, nested bool) bool {
	if p.a.ids == nil || nested {
		return true
	}
	for _, ns := range []string{gml.Namespace, gml.Namespace32} {
		if id, ok := ev.Attr(ns, "id"); ok {
			if _, match := p.a.ids[id]; match {
				return true
			}
		}
	}
	return false
}

func (p *pass) feature(ev xmlstream.Event, role schema.Role) {
	p.sawFeature = true
	name, prefix := p.qualify(ev, role)
	p.stats.AddVersion(p.a.cls.Version(ev.Name.Space))
	p.stats.AddModule(prefix, ev.Name.Space)

	if p.isTopLevel() || !p.a.opts.OnlyTopLevel {
		p.stats.AddFeature(name)
		if p.a.opts.ObjectHierarchy {
			p.stats.AddHierarchy(p.tracker.pushFeature(name, ev.Depth))
		}
	}
	p.tracker.pushFeatureDepth(ev.Depth)
}

func (p *pass) boundingShape(ev xmlstream.Event) error {
	atRoot := p.parentIsCityModel()
	el, err := p.reader.Element()
	if err != nil {
		return p.readError(ev.Name.String(), ev.Line, err)
	}

	if srs := gml.SRSNameOf(el); srs != "" {
		p.stats.AddReferenceSystem(srs)
	}
	env, err := gml.EnvelopeOf(el)
	if err != nil {
		p.a.log.Warnw("Skipping bounding shape with invalid coordinates",
			"file", p.name, "line", ev.Line, "error", err)
		return nil
	}
	if !env.Valid() {
		return nil
	}
	if !p.extentFromRoot || p.a.opts.ComputeExtent {
		p.stats.Extent.Include(env)
	}
	if atRoot {
		p.extentFromRoot = true
	}
	return nil
}

func (p *pass) geometry(ev xmlstream.Event, role schema.Role) error {
	name, prefix := p.qualify(ev, role)
	el, err := p.reader.Element()
	if err != nil {
		return p.readError(ev.Name.String(), ev.Line, err)
	}

	p.stats.AddGeometry(name)
	p.stats.AddModule(prefix, ev.Name.Space)
	p.addLOD()
	for _, srs := range gml.SRSNames(el) {
		p.stats.AddReferenceSystem(srs)
	}

	p.upgradeCompute()
	if !p.compute {
		return nil
	}
	env, err := gml.EnvelopeOf(el)
	if err != nil {
		p.a.log.Warnw("Skipping geometry with invalid coordinates",
			"file", p.name, "element", name, "line", ev.Line, "error", err)
		return nil
	}
	if env.Valid() {
		p.stats.Extent.Include(env)
	}
	return nil
}

func (p *pass) implicitGeometry(ev xmlstream.Event, role schema.Role) error {
	name, prefix := p.qualify(ev, role)
	el, err := p.reader.Element()
	if err != nil {
		return p.readError(ev.Name.String(), ev.Line, err)
	}

	p.stats.AddGeometry(name)
	p.stats.AddModule(prefix, ev.Name.Space)
	p.stats.HasImplicitGeometries = true
	p.addLOD()
	for _, srs := range gml.SRSNames(el) {
		p.stats.AddReferenceSystem(srs)
	}

	p.upgradeCompute()
	if !p.compute {
		return nil
	}

	ig, err := gml.ParseImplicitGeometry(el)
	if err != nil {
		p.a.log.Warnw("Skipping unreadable implicit geometry",
			"file", p.name, "line", ev.Line, "error", err)
		return nil
	}
	template := ig.Relative
	if ig.IsReference() {
		template, err = p.resolver.Resolve(p.ctx, ig.Href)
		if err != nil {
			return err
		}
		if template == nil {
			p.a.log.Warnw("Implicit geometry template not found",
				"file", p.name, "line", ev.Line, "href", ig.Href)
			return nil
		}
	}
	env, ok, err := ig.Envelope(template)
	if err != nil {
		p.a.log.Warnw("Skipping implicit geometry with invalid coordinates",
			"file", p.name, "line", ev.Line, "error", err)
		return nil
	}
	if ok {
		p.stats.Extent.Include(env)
	}
	return nil
}

func (p *pass) appearance(ev xmlstream.Event) error {
	name, prefix := p.qualify(ev, schema.RoleAppearance)
	topLevel := p.isTopLevel()
	el, err := p.reader.Element()
	if err != nil {
		return p.readError(ev.Name.String(), ev.Line, err)
	}

	p.stats.AddAppearance(name)
	p.stats.AddModule(prefix, ev.Name.Space)
	p.stats.AddTheme(appearanceTheme(el))
	if topLevel {
		p.stats.HasGlobalAppearances = true
	}
	p.visitor.walk(el)
	return nil
}

func (p *pass) genericAttribute(ev xmlstream.Event, role schema.Role) error {
	_, prefix := p.qualify(ev, role)
	el, err := p.reader.Element()
	if err != nil {
		return p.readError(ev.Name.String(), ev.Line, err)
	}
	p.stats.AddModule(prefix, ev.Name.Space)
	p.visitor.genericAttribute(el)
	return nil
}

// upgradeCompute enables extent computation when no valid extent is
// available by the time geometries appear.
func (p *pass) upgradeCompute() {
	if !p.compute && !p.stats.Extent.Valid() {
		p.compute = true
	}
}

func (p *pass) addLOD() {
	if parent, ok := p.tracker.parent(); ok {
		if lod, ok := lodFromProperty(parent.Local); ok {
			p.stats.AddLOD(lod)
		}
	}
}

// qualify returns the prefixed name of the element and the prefix used for
// its module. Built-in modules always use their conventional prefix.
func (p *pass) qualify(ev xmlstream.Event, role schema.Role) (string, string) {
	m, ok := p.a.cls.Module(ev.Name.Space)
	var prefix string
	switch {
	case ok && m.Builtin:
		prefix = m.Prefix
	case ev.Prefix != "":
		prefix = ev.Prefix
	case ok && m.Prefix != "":
		prefix = m.Prefix
	default:
		prefix = role.DefaultPrefix()
	}
	return prefix + ":" + ev.Name.Local, prefix
}

// isTopLevel reports whether the current element is a direct member of the
// city model.
func (p *pass) isTopLevel() bool {
	parent, ok := p.tracker.parent()
	return ok && p.isMemberProperty(parent)
}

func (p *pass) isMemberProperty(name xmlstream.QName) bool {
	if !memberProperties[name.Local] {
		return false
	}
	if gml.IsGML(name.Space) {
		return true
	}
	m, ok := p.a.cls.Module(name.Space)
	if !ok || !m.Builtin {
		return false
	}
	switch m.Prefix {
	case "core", "app", "vers":
		return true
	}
	return false
}

func (p *pass) parentIsCityModel() bool {
	parent, ok := p.tracker.parent()
	return ok && p.a.cls.Lookup(parent) == schema.RoleCityModel
}

func (p *pass) openElement() string {
	if parent, ok := p.tracker.parent(); ok {
		return parent.String()
	}
	return ""
}

func (p *pass) readError(element string, line int, err error) error {
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		line = syntax.Line
	}
	return &ReadError{File: p.name, Element: element, Line: line, Err: err}
}

// String describes the analyzer settings for log output.
func (o Options) String() string {
	return fmt.Sprintf("compute_extent=%t only_top_level=%t object_hierarchy=%t ids=%d",
		o.ComputeExtent, o.OnlyTopLevel, o.ObjectHierarchy, len(o.IDs))
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
