package seam

import "strings"

const escapeSet = `&<>"'`

// escapeText applies the five-entity escaping used for text slots and
// spliced attribute values.
func escapeText(s string) string {
	if !strings.ContainsAny(s, escapeSet) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#x27;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
