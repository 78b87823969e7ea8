package stats

import (
	"errors"
	"fmt"
)

// ErrUnbalancedDocument is reported when containment stacks did not unwind at
// the end of a document.
var ErrUnbalancedDocument = errors.New("document ended with open elements")

// ReadError reports malformed input or an I/O failure while streaming a file.
type ReadError struct {
	File    string
	Element string // qualified name of the offending element, if known
	Line    int
	Err     error
}

func (e *ReadError) Error() string {
	msg := fmt.Sprintf("failed to read file %s", e.File)
	if e.Element != "" {
		msg += fmt.Sprintf(" at element <%s>", e.Element)
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
