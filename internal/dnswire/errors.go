package dnswire

import "fmt"

// Kind classifies why a message failed to parse, mirroring the three
// failure modes spec.md §4.3 and §7 call out by name.
type Kind int

const (
	// KindUnpack covers short reads, truncated sections and anything else
	// that isn't a compression-specific failure.
	KindUnpack Kind = iota
	// KindPointerRecursion means a name required more than MaxPointers
	// compression hops to resolve.
	KindPointerRecursion
	// KindInvalidLabelLength means a label length byte had its top two
	// bits set to 01 or 10 (neither a literal label nor a pointer).
	KindInvalidLabelLength
)

func (k Kind) String() string {
	switch k {
	case KindUnpack:
		return "unpack"
	case KindPointerRecursion:
		return "pointer_recursion"
	case KindInvalidLabelLength:
		return "invalid_label_length"
	default:
		return "unknown"
	}
}

// ParseError reports a failure to decode a DNS message, tagged with a Kind
// so callers (internal/proxy) can decide whether to log-and-drop or react
// differently without inspecting error text.
type ParseError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dnswire: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("dnswire: %s: %s", e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

func unpackErrorf(format string, args ...any) *ParseError {
	return &ParseError{Kind: KindUnpack, Msg: fmt.Sprintf(format, args...)}
}
