package stats

import (
	"context"
	"errors"
	"io"

	"github.com/beevik/etree"

	"github.com/dbsmedya/gmlstats/internal/gml"
	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/schema"
	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

// Source is a readable CityGML document.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// TemplateResolver resolves implicit geometry templates referenced by
// identifier. The index is built by one additional pass over the source on
// the first call to Resolve and lives until Close.
type TemplateResolver struct {
	source Source
	cls    *schema.Classifier
	opts   []xmlstream.Option
	log    *logger.Logger

	templates map[string]*etree.Element
	built     bool
}

// NewTemplateResolver creates a resolver for src.
func NewTemplateResolver(src Source, cls *schema.Classifier, log *logger.Logger, opts ...xmlstream.Option) *TemplateResolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &TemplateResolver{
		source: src,
		cls:    cls,
		opts:   opts,
		log:    log,
	}
}

// Resolve returns the template geometry with the given gml:id, or nil if the
// document does not declare it.
func (r *TemplateResolver) Resolve(ctx context.Context, id string) (*etree.Element, error) {
	if !r.built {
		if err := r.build(ctx); err != nil {
			return nil, err
		}
	}
	return r.templates[id], nil
}

// Close discards the template index.
func (r *TemplateResolver) Close() {
	r.templates = nil
	r.built = false
}

// Len returns the number of indexed templates.
func (r *TemplateResolver) Len() int {
	return len(r.templates)
}

func (r *TemplateResolver) build(ctx context.Context) (err error) {
	r.built = true
	r.templates = make(map[string]*etree.Element)

	rc, err := r.source.Open()
	if err != nil {
		return &ReadError{File: r.source.Name(), Err: err}
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = &ReadError{File: r.source.Name(), Err: cerr}
		}
	}()

	reader, err := xmlstream.NewReader(rc, r.opts...)
	if err != nil {
		return &ReadError{File: r.source.Name(), Err: err}
	}

	r.log.Debugw("Indexing implicit geometry templates", "file", r.source.Name())

	for n := 0; ; n++ {
		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &ReadError{File: r.source.Name(), Err: err}
		}
		if ev.Kind != xmlstream.EventStartElement {
			continue
		}

		switch r.cls.Lookup(ev.Name) {
		case schema.RoleAppearance:
			if err := reader.Skip(); err != nil {
				return &ReadError{File: r.source.Name(), Element: ev.Name.String(), Line: ev.Line, Err: err}
			}
		case schema.RoleImplicitGeometry:
			el, err := reader.Element()
			if err != nil {
				return &ReadError{File: r.source.Name(), Element: ev.Name.String(), Line: ev.Line, Err: err}
			}
			r.index(el, ev.Line)
		}
	}

	r.log.Debugw("Indexed implicit geometry templates", "file", r.source.Name(), "templates", len(r.templates))
	return nil
}

func (r *TemplateResolver) index(el *etree.Element, line int) {
	ig, err := gml.ParseImplicitGeometry(el)
	if err != nil {
		r.log.Warnw("Skipping unreadable implicit geometry", "file", r.source.Name(), "line", line, "error", err)
		return
	}
	if ig.Relative == nil {
		return
	}
	id, ok := xmlstream.AttrValue(ig.Relative, gml.Namespace, "id")
	if !ok {
		id, ok = xmlstream.AttrValue(ig.Relative, gml.Namespace32, "id")
	}
	if !ok || id == "" {
		return
	}
	if _, dup := r.templates[id]; dup {
		r.log.Warnw("Duplicate template identifier", "file", r.source.Name(), "id", id)
		return
	}
	r.templates[id] = ig.Relative
}
