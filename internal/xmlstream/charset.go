package xmlstream

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/ianaindex"
)

// charsetReader decodes documents that declare a non UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	return decodeFrom(label, input)
}

// passthroughCharset is used when the input was already decoded to UTF-8.
func passthroughCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

func decodeFrom(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
