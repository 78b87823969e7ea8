package xmlstream

// Option configures a Reader.
type Option func(*options)

type options struct {
	maxDepth int
	encoding string
}

// WithMaxDepth limits element nesting. Zero or a negative value disables the limit.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithEncoding forces the input encoding, ignoring the XML declaration.
func WithEncoding(label string) Option {
	return func(o *options) {
		o.encoding = label
	}
}

func buildOptions(opts ...Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
