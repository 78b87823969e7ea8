package xmlstream

import (
	"encoding/xml"
	"fmt"
)

const (
	xmlNamespace   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNamespace = "http://www.w3.org/2000/xmlns/"
)

type nsBinding struct {
	prefix string
	uri    string
}

// nsStack holds one frame of namespace declarations per open element.
type nsStack struct {
	frames [][]nsBinding
}

func (s *nsStack) push(attrs []xml.Attr) {
	var frame []nsBinding
	for _, a := range attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			frame = append(frame, nsBinding{prefix: "", uri: a.Value})
		case a.Name.Space == "xmlns":
			frame = append(frame, nsBinding{prefix: a.Name.Local, uri: a.Value})
		}
	}
	s.frames = append(s.frames, frame)
}

func (s *nsStack) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// resolve maps a prefix to its namespace URI. Unprefixed attributes are in no
// namespace; unprefixed elements take the default namespace.
func (s *nsStack) resolve(prefix string, isElement bool) (string, error) {
	if prefix == "" && !isElement {
		return "", nil
	}
	switch prefix {
	case "xml":
		return xmlNamespace, nil
	case "xmlns":
		return xmlnsNamespace, nil
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		frame := s.frames[i]
		for j := len(frame) - 1; j >= 0; j-- {
			if frame[j].prefix == prefix {
				return frame[j].uri, nil
			}
		}
	}
	if prefix == "" {
		return "", nil
	}
	return "", fmt.Errorf("unbound namespace prefix %q", prefix)
}

// inScope returns the effective bindings, innermost declaration first.
func (s *nsStack) inScope() []nsBinding {
	seen := make(map[string]bool)
	var bindings []nsBinding
	for i := len(s.frames) - 1; i >= 0; i-- {
		frame := s.frames[i]
		for j := len(frame) - 1; j >= 0; j-- {
			if seen[frame[j].prefix] {
				continue
			}
			seen[frame[j].prefix] = true
			bindings = append(bindings, frame[j])
		}
	}
	return bindings
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}
