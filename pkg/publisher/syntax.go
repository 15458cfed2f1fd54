package publisher

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultReserved lists characters escaped on top of url.PathEscape.
// Some HTTP stacks mis-handle a raw colon in a path segment.
const DefaultReserved = ":"

// AddressSyntax maps an effective topic to the path segment it is published
// under, and back.
type AddressSyntax interface {
	Escape(topic string) string
	Unescape(segment string) (string, error)
}

// PathSegment percent-encodes a topic into a single URL path segment.
// Everything url.PathEscape encodes is encoded, plus every byte in Reserved.
type PathSegment struct {
	Reserved string
}

// NewPathSegment returns a PathSegment with the given extra reserved set.
// Only printable ASCII is honoured; '%' is always encoded already.
func NewPathSegment(reserved string) PathSegment {
	var b strings.Builder
	for i := 0; i < len(reserved); i++ {
		c := reserved[i]
		if c > 0x20 && c < 0x7f && c != '%' && strings.IndexByte(b.String(), c) < 0 {
			b.WriteByte(c)
		}
	}
	return PathSegment{Reserved: b.String()}
}

// Escape implements AddressSyntax.
func (p PathSegment) Escape(topic string) string {
	escaped := url.PathEscape(topic)
	if p.Reserved == "" {
		return escaped
	}

	var b strings.Builder
	b.Grow(len(escaped))
	for i := 0; i < len(escaped); i++ {
		c := escaped[i]
		switch {
		case c == '%' && i+2 < len(escaped):
			b.WriteString(escaped[i : i+3])
			i += 2
		case strings.IndexByte(p.Reserved, c) >= 0:
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unescape implements AddressSyntax.
func (p PathSegment) Unescape(segment string) (string, error) {
	return url.PathUnescape(segment)
}
