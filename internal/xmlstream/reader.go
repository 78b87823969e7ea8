// Package xmlstream provides a forward-only, namespace-aware pull reader that
// emits start and end element events with their nesting depth. The subtree of
// the current element can be materialized on demand as an etree element.
package xmlstream

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMaxDepthExceeded is returned when element nesting exceeds the configured maximum depth.
	ErrMaxDepthExceeded = errors.New("maximum XML nesting depth exceeded")

	errNoStartElement = errors.New("expected start element event")
	errNilReader      = errors.New("nil XML reader")
)

// QName is a namespace-qualified element or attribute name.
// Space holds the namespace URI, not the prefix.
type QName struct {
	Space string
	Local string
}

func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// Attr is a resolved attribute of a start element.
type Attr struct {
	Name  QName
	Value string
}

// EventKind identifies the type of an event.
type EventKind uint8

const (
	EventStartElement EventKind = iota + 1
	EventEndElement
)

func (k EventKind) String() string {
	switch k {
	case EventStartElement:
		return "StartElement"
	case EventEndElement:
		return "EndElement"
	default:
		return "Unknown"
	}
}

// Event is a start or end element event.
//
// Depth is the reader depth after the event was applied: the document element
// starts at depth 1 and its end event reports depth 0.
type Event struct {
	Kind   EventKind
	Name   QName
	Prefix string
	Attrs  []Attr
	Depth  int
	Line   int
}

// Attr returns the value of the attribute with the given namespace and local name.
func (e Event) Attr(space, local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == local && a.Name.Space == space {
			return a.Value, true
		}
	}
	return "", false
}

type openElement struct {
	raw  xml.Name
	name QName
}

// Reader is a pull reader of element events.
type Reader struct {
	dec       *xml.Decoder
	ns        nsStack
	open      []openElement
	depth     int
	maxDepth  int
	lastRaw   xml.StartElement
	lastStart bool
}

// NewReader creates a new event reader for r.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	if r == nil {
		return nil, errNilReader
	}
	options := buildOptions(opts...)

	src := r
	charset := charsetReader
	if options.encoding != "" {
		decoded, err := decodeFrom(options.encoding, r)
		if err != nil {
			return nil, err
		}
		src = decoded
		charset = passthroughCharset
	}

	dec := xml.NewDecoder(src)
	dec.CharsetReader = charset
	return &Reader{
		dec:      dec,
		maxDepth: options.maxDepth,
	}, nil
}

// Depth returns the current nesting depth.
func (r *Reader) Depth() int {
	return r.depth
}

// Next returns the next start or end element event. It returns io.EOF once the
// document is exhausted and all elements have been closed.
func (r *Reader) Next() (Event, error) {
	r.lastStart = false
	for {
		tok, err := r.dec.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(r.open) > 0 {
					return Event{}, r.syntaxError(fmt.Sprintf("unexpected EOF: element <%s> is not closed",
						rawName(r.open[len(r.open)-1].raw)))
				}
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return r.startElement(t)
		case xml.EndElement:
			return r.endElement(t)
		}
	}
}

// Skip consumes the subtree of the element returned by the last start event,
// including its end tag. No end event is reported for the skipped element.
func (r *Reader) Skip() error {
	if !r.lastStart {
		return errNoStartElement
	}
	target := len(r.open) - 1
	for len(r.open) > target {
		if _, err := r.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) startElement(t xml.StartElement) (Event, error) {
	r.ns.push(t.Attr)

	space, err := r.ns.resolve(t.Name.Space, true)
	if err != nil {
		return Event{}, r.syntaxError(err.Error())
	}

	attrs := make([]Attr, 0, len(t.Attr))
	for _, a := range t.Attr {
		if isNamespaceDecl(a.Name) {
			continue
		}
		attrSpace, err := r.ns.resolve(a.Name.Space, false)
		if err != nil {
			return Event{}, r.syntaxError(err.Error())
		}
		attrs = append(attrs, Attr{Name: QName{Space: attrSpace, Local: a.Name.Local}, Value: a.Value})
	}

	r.depth++
	if r.maxDepth > 0 && r.depth > r.maxDepth {
		return Event{}, fmt.Errorf("%w: depth %d at <%s>", ErrMaxDepthExceeded, r.depth, rawName(t.Name))
	}

	name := QName{Space: space, Local: t.Name.Local}
	r.open = append(r.open, openElement{raw: t.Name, name: name})
	r.lastRaw = t.Copy()
	r.lastStart = true

	return Event{
		Kind:   EventStartElement,
		Name:   name,
		Prefix: t.Name.Space,
		Attrs:  attrs,
		Depth:  r.depth,
		Line:   r.line(),
	}, nil
}

func (r *Reader) endElement(t xml.EndElement) (Event, error) {
	if len(r.open) == 0 {
		return Event{}, r.syntaxError(fmt.Sprintf("unexpected end element </%s>", rawName(t.Name)))
	}
	top := r.open[len(r.open)-1]
	if top.raw != t.Name {
		return Event{}, r.syntaxError(fmt.Sprintf("element <%s> closed by </%s>", rawName(top.raw), rawName(t.Name)))
	}

	r.open = r.open[:len(r.open)-1]
	r.ns.pop()
	r.depth--

	return Event{
		Kind:   EventEndElement,
		Name:   top.name,
		Prefix: top.raw.Space,
		Depth:  r.depth,
		Line:   r.line(),
	}, nil
}

func (r *Reader) line() int {
	line, _ := r.dec.InputPos()
	return line
}

func (r *Reader) syntaxError(msg string) error {
	return &xml.SyntaxError{Msg: msg, Line: r.line()}
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
