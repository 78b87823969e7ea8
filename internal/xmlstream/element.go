package xmlstream

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Element materializes the subtree of the element returned by the last start
// event and consumes it, including its end tag. Afterwards Depth reports the
// depth of the parent element and no end event is reported for the element.
//
// Namespace declarations in scope at the element are copied onto the returned
// root so that prefixes inside the subtree stay resolvable.
func (r *Reader) Element() (*etree.Element, error) {
	if !r.lastStart {
		return nil, errNoStartElement
	}
	r.lastStart = false

	doc := etree.NewDocument()
	root := doc.CreateElement(rawName(r.lastRaw.Name))
	copyAttrs(root, r.lastRaw.Attr)
	for _, b := range r.ns.inScope() {
		key := "xmlns"
		if b.prefix != "" {
			key = "xmlns:" + b.prefix
		}
		if root.SelectAttr(key) == nil {
			root.CreateAttr(key, b.uri)
		}
	}

	target := len(r.open) - 1
	current := root
	texts := []*strings.Builder{{}}

	for len(r.open) > target {
		tok, err := r.dec.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, r.syntaxError("unexpected EOF: element <" + rawName(r.lastRaw.Name) + "> is not closed")
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := r.startElement(t); err != nil {
				return nil, err
			}
			r.lastStart = false
			child := current.CreateElement(rawName(t.Name))
			copyAttrs(child, t.Attr)
			current = child
			texts = append(texts, &strings.Builder{})

		case xml.EndElement:
			if _, err := r.endElement(t); err != nil {
				return nil, err
			}
			text := texts[len(texts)-1]
			texts = texts[:len(texts)-1]
			if strings.TrimSpace(text.String()) != "" {
				current.SetText(text.String())
			}
			if parent := current.Parent(); parent != nil && len(r.open) > target {
				current = parent
			}

		case xml.CharData:
			texts[len(texts)-1].Write(t)
		}
	}

	return root, nil
}

func copyAttrs(el *etree.Element, attrs []xml.Attr) {
	for _, a := range attrs {
		el.CreateAttr(rawName(a.Name), a.Value)
	}
}

// NamespaceOf returns the namespace URI of a materialized element.
func NamespaceOf(el *etree.Element) string {
	return LookupPrefix(el, el.Space)
}

// LookupPrefix resolves a prefix against the namespace declarations of el and
// its ancestors. An empty prefix resolves the default namespace.
func LookupPrefix(el *etree.Element, prefix string) string {
	switch prefix {
	case "xml":
		return xmlNamespace
	case "xmlns":
		return xmlnsNamespace
	}
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}

// NameOf returns the qualified name of a materialized element.
func NameOf(el *etree.Element) QName {
	return QName{Space: NamespaceOf(el), Local: el.Tag}
}

// AttrValue returns the value of the attribute with the given namespace and
// local name on a materialized element.
func AttrValue(el *etree.Element, space, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key != local || a.Space == "xmlns" {
			continue
		}
		attrSpace := ""
		if a.Space != "" {
			attrSpace = LookupPrefix(el, a.Space)
		}
		if attrSpace == space {
			return a.Value, true
		}
	}
	return "", false
}
