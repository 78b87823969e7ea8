package schema

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

// Module is a schema module identified by its target namespace.
type Module struct {
	Namespace string
	Prefix    string
	Version   string // CityGML version, empty for non-CityGML modules
	Builtin   bool
	Location  string // source of a supplementary module

	roles map[string]Role
	// heads maps a global element to its substitution group head.
	heads map[string]xmlstream.QName
}

// Elements returns the number of classified element declarations.
func (m *Module) Elements() int {
	n := len(m.roles)
	for name := range m.heads {
		if _, ok := m.roles[name]; !ok {
			n++
		}
	}
	return n
}

// ResolutionError is returned in strict mode for an element whose namespace
// is not covered by any schema. File and Line are filled in by the caller
// that streams the document.
type ResolutionError struct {
	File    string
	Element xmlstream.QName
	Line    int
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("no schema found for namespace %q (element <%s>", e.Element.Space, e.Element.Local)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	msg += ")"
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	return msg
}

// Classifier maps qualified names to roles.
type Classifier struct {
	modules map[string]*Module
	strict  bool
	client  *http.Client
	log     *logger.Logger

	resolved map[xmlstream.QName]Role
	missing  map[string]struct{}
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithStrict makes the first element without schema fail with a ResolutionError.
func WithStrict(strict bool) Option {
	return func(c *Classifier) {
		c.strict = strict
	}
}

// WithLogger sets the logger used to report skipped or loaded schema sources.
func WithLogger(log *logger.Logger) Option {
	return func(c *Classifier) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient sets the client used to fetch schema sources given as URLs.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Classifier) {
		if client != nil {
			c.client = client
		}
	}
}

// NewClassifier creates a Classifier backed by the built-in CityGML modules.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		modules:  make(map[string]*Module),
		client:   http.DefaultClient,
		log:      logger.NewNop(),
		resolved: make(map[xmlstream.QName]Role),
		missing:  make(map[string]struct{}),
	}
	for _, m := range builtin() {
		c.modules[m.Namespace] = m
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Strict reports whether strict mode is enabled.
func (c *Classifier) Strict() bool {
	return c.strict
}

// RoleOf classifies name. An element of an unknown namespace yields
// RoleNoSchema and its namespace is recorded for TakeMissingSchemas; in strict
// mode a *ResolutionError is returned instead.
func (c *Classifier) RoleOf(name xmlstream.QName) (Role, error) {
	role := c.Lookup(name)
	if role != RoleNoSchema {
		return role, nil
	}
	if c.strict {
		return RoleNoSchema, &ResolutionError{Element: name}
	}
	c.missing[name.Space] = struct{}{}
	return RoleNoSchema, nil
}

// Lookup classifies name without recording missing schemas.
func (c *Classifier) Lookup(name xmlstream.QName) Role {
	if name.Space == "" {
		return RoleNone
	}
	if role, ok := c.resolved[name]; ok {
		return role
	}
	if _, ok := c.modules[name.Space]; !ok {
		return RoleNoSchema
	}
	role := c.resolve(name, make(map[xmlstream.QName]bool))
	c.resolved[name] = role
	return role
}

// resolve follows substitution group chains until an element with a known
// role is found. visiting guards against cyclic declarations.
func (c *Classifier) resolve(name xmlstream.QName, visiting map[xmlstream.QName]bool) Role {
	if role, ok := c.resolved[name]; ok {
		return role
	}
	m, ok := c.modules[name.Space]
	if !ok || visiting[name] {
		return RoleNone
	}
	if role, ok := m.roles[name.Local]; ok {
		return role
	}
	head, ok := m.heads[name.Local]
	if !ok {
		return RoleNone
	}
	visiting[name] = true
	return c.resolve(head, visiting)
}

// Module returns the module registered for a namespace.
func (c *Classifier) Module(namespace string) (*Module, bool) {
	m, ok := c.modules[namespace]
	return m, ok
}

// Version returns the CityGML version of a namespace, or "" if unknown.
func (c *Classifier) Version(namespace string) string {
	if m, ok := c.modules[namespace]; ok {
		return m.Version
	}
	return ""
}

// Modules returns all registered modules ordered by prefix and namespace.
func (c *Classifier) Modules() []*Module {
	modules := make([]*Module, 0, len(c.modules))
	for _, m := range c.modules {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Prefix != modules[j].Prefix {
			return modules[i].Prefix < modules[j].Prefix
		}
		return modules[i].Namespace < modules[j].Namespace
	})
	return modules
}

// TakeMissingSchemas returns the namespaces recorded since the last call,
// sorted, and resets the record.
func (c *Classifier) TakeMissingSchemas() []string {
	if len(c.missing) == 0 {
		return nil
	}
	missing := make([]string, 0, len(c.missing))
	for ns := range c.missing {
		missing = append(missing, ns)
	}
	sort.Strings(missing)
	c.missing = make(map[string]struct{})
	return missing
}
