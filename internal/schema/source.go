package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/beevik/etree"

	"github.com/dbsmedya/gmlstats/internal/xmlstream"
)

const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

var (
	// ErrBuiltinNamespace is returned when a supplementary schema targets a
	// namespace of the built-in core schema.
	ErrBuiltinNamespace = errors.New("namespace is provided by the built-in schema")

	errNoTargetNamespace = errors.New("schema has no targetNamespace")
)

// AddSource loads a supplementary XSD from a file path or an http(s) URL.
// A source targeting a built-in namespace is skipped with a warning.
func (c *Classifier) AddSource(ctx context.Context, location string) error {
	rc, err := c.open(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to open schema %s: %w", location, err)
	}
	defer rc.Close()

	err = c.AddSchema(rc, location)
	if errors.Is(err, ErrBuiltinNamespace) {
		c.log.Warnw("Skipping schema source that targets a built-in namespace",
			"location", location, "error", err)
		return nil
	}
	return err
}

func (c *Classifier) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.Open(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}
	return resp.Body, nil
}

// AddSchema reads a supplementary XSD and registers its global element
// declarations. Roles are derived by following substitutionGroup chains to a
// known head, so an ADE feature substituting core:_CityObject is a feature.
func (c *Classifier) AddSchema(r io.Reader, location string) error {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return fmt.Errorf("failed to parse schema %s: %w", location, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "schema" || xmlstream.NamespaceOf(root) != xsdNamespace {
		return fmt.Errorf("%s is not an XML schema", location)
	}

	target := root.SelectAttrValue("targetNamespace", "")
	if target == "" {
		return fmt.Errorf("%s: %w", location, errNoTargetNamespace)
	}
	if existing, ok := c.modules[target]; ok && existing.Builtin {
		return fmt.Errorf("%s: %w: %s", location, ErrBuiltinNamespace, target)
	}

	m, ok := c.modules[target]
	if !ok {
		m = &Module{
			Namespace: target,
			Prefix:    prefixFor(root, target),
			Location:  location,
			roles:     make(map[string]Role),
			heads:     make(map[string]xmlstream.QName),
		}
	}

	for _, el := range root.ChildElements() {
		if el.Tag != "element" || xmlstream.NamespaceOf(el) != xsdNamespace {
			continue
		}
		name := el.SelectAttrValue("name", "")
		if name == "" {
			continue
		}
		head := el.SelectAttrValue("substitutionGroup", "")
		if head == "" {
			if _, declared := m.roles[name]; !declared {
				m.roles[name] = RoleNone
			}
			continue
		}
		qname, err := resolveQName(el, head)
		if err != nil {
			return fmt.Errorf("%s: element %s: %w", location, name, err)
		}
		delete(m.roles, name)
		m.heads[name] = qname
	}

	c.modules[target] = m
	// Roles may change for elements substituting into the new module.
	c.resolved = make(map[xmlstream.QName]Role)

	c.log.Infow("Loaded schema source",
		"location", location,
		"namespace", target,
		"prefix", m.Prefix,
		"elements", m.Elements())
	return nil
}

// prefixFor returns the prefix the schema binds to its own target namespace.
func prefixFor(root *etree.Element, target string) string {
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Value == target {
			return a.Key
		}
	}
	return ""
}

func resolveQName(el *etree.Element, value string) (xmlstream.QName, error) {
	prefix, local, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		local = prefix
		prefix = ""
	}
	ns := xmlstream.LookupPrefix(el, prefix)
	if ns == "" && prefix != "" {
		return xmlstream.QName{}, fmt.Errorf("unbound prefix %q in %q", prefix, value)
	}
	return xmlstream.QName{Space: ns, Local: local}, nil
}
