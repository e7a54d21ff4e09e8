package seam

import (
	"encoding/json"
	"strings"
)

// DefaultDataScriptID is the id of the embedded JSON payload element
// when no override is configured.
const DefaultDataScriptID = "seam-data"

// appendDataScript embeds the data object as an application/json script
// so client code can rehydrate the values that were injected. The
// script goes right before the last closing body tag, or at the end of
// the document when there is none. A marshal failure leaves the
// document unchanged.
func appendDataScript(html string, data map[string]any, id string) string {
	payload := []byte("{}")
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return html
		}
	}

	// json.Marshal escapes '<' and '>' inside strings, so the payload
	// can never terminate the script element early.
	var b strings.Builder
	b.Grow(len(html) + len(payload) + len(id) + 64)
	at := lastBodyClose(html)
	if at < 0 {
		at = len(html)
	}
	b.WriteString(html[:at])
	b.WriteString(`<script id="`)
	b.WriteString(escapeText(id))
	b.WriteString(`" type="application/json">`)
	b.Write(payload)
	b.WriteString(`</script>`)
	b.WriteString(html[at:])
	return b.String()
}

// lastBodyClose returns the offset of the last </body> tag, matched
// case-insensitively, or -1. The scan is byte-wise so multi-byte text
// elsewhere in the document cannot skew offsets.
func lastBodyClose(html string) int {
	const tag = "</body>"
	for i := len(html) - len(tag); i >= 0; i-- {
		if foldEqual(html[i:i+len(tag)], tag) {
			return i
		}
	}
	return -1
}

func foldEqual(s, lower string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}
