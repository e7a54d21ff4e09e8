package seam

import "strings"

// applySplices rewrites the start tags addressed by pending records.
// Each record points at the rendered-output offset its marker stood at;
// the affected tag is the first start tag at or after that offset. A
// record with no following start tag is dropped. Entries for one tag
// are applied in source order, so dynamic attributes keep their
// declaration order.
func applySplices(html string, pending []pendingSplice, metrics *Collector) string {
	if len(pending) == 0 {
		return html
	}

	type tagEdit struct {
		tagStart int
		entries  []pendingSplice
	}
	var edits []tagEdit
	byStart := make(map[int]int)
	for _, p := range pending {
		ts := nextStartTag(html, p.offset)
		if ts < 0 {
			continue
		}
		if i, ok := byStart[ts]; ok {
			edits[i].entries = append(edits[i].entries, p)
		} else {
			byStart[ts] = len(edits)
			edits = append(edits, tagEdit{tagStart: ts, entries: []pendingSplice{p}})
		}
	}
	if len(edits) == 0 {
		return html
	}

	// Offsets ascend, and nextStartTag is monotonic over them, so edits
	// are already ordered by position.
	var b strings.Builder
	b.Grow(len(html) + len(edits)*24)
	last := 0
	for _, e := range edits {
		end := tagEnd(html, e.tagStart)
		if end < 0 {
			continue
		}
		b.WriteString(html[last:e.tagStart])
		b.WriteString(rewriteTag(html[e.tagStart:end+1], e.entries))
		metrics.IncrementAttrSplice()
		last = end + 1
	}
	b.WriteString(html[last:])
	return b.String()
}

// rewriteTag rebuilds one start tag: dynamic attributes are inserted
// immediately after the tag name, ahead of any static attributes, and
// dynamic style properties merge into a single style attribute. When the
// tag already carries a static style attribute the properties append to
// it after the static content.
func rewriteTag(tag string, entries []pendingSplice) string {
	nameEnd := 1
	for nameEnd < len(tag) && !isTagDelim(tag[nameEnd]) {
		nameEnd++
	}
	rest := tag[nameEnd:] // static attributes plus the closing bracket

	// The insertion list keeps entry order; all style properties merge
	// into one slot at the position of the first style entry.
	type insertion struct {
		entry pendingSplice
		style bool
	}
	var inserts []insertion
	var props []string
	for _, e := range entries {
		if e.attr != "" {
			inserts = append(inserts, insertion{entry: e})
			continue
		}
		if len(props) == 0 {
			inserts = append(inserts, insertion{style: true})
		}
		props = append(props, e.prop+":"+e.value)
	}

	static, hasStatic := findStyleAttr(rest)
	joined := strings.Join(props, ";")

	var b strings.Builder
	b.Grow(len(tag) + len(joined) + 32)
	b.WriteString(tag[:nameEnd])
	for _, in := range inserts {
		if in.style {
			if hasStatic {
				continue // appended into the static attribute below
			}
			b.WriteString(` style="`)
			b.WriteString(escapeText(joined))
			b.WriteByte('"')
			continue
		}
		b.WriteByte(' ')
		b.WriteString(in.entry.attr)
		b.WriteString(`="`)
		b.WriteString(escapeText(in.entry.value))
		b.WriteByte('"')
	}

	if hasStatic && len(props) > 0 {
		// The static value is source text and stays verbatim; only the
		// appended properties get escaped.
		existing := strings.TrimRight(rest[static.start:static.end], "; \t")
		sep := ";"
		if existing == "" {
			sep = ""
		}
		b.WriteString(rest[:static.start])
		if static.bare {
			b.WriteString(`="`)
			b.WriteString(escapeText(joined))
			b.WriteByte('"')
		} else if static.quoted {
			b.WriteString(existing)
			b.WriteString(escapeText(sep + joined))
		} else {
			b.WriteByte('"')
			b.WriteString(existing)
			b.WriteString(escapeText(sep + joined))
			b.WriteByte('"')
		}
		b.WriteString(rest[static.end:])
	} else {
		b.WriteString(rest)
	}
	return b.String()
}

// styleSpan locates a static style attribute's value inside the raw
// attribute chunk of a tag.
type styleSpan struct {
	start, end int  // value byte range within the chunk
	quoted     bool // value was quoted in the source
	bare       bool // attribute had no value; start==end points after the name
}

func findStyleAttr(rest string) (styleSpan, bool) {
	n := len(rest)
	i := 0
	for i < n {
		for i < n && (isAttrSpace(rest[i]) || rest[i] == '/') {
			i++
		}
		if i >= n || rest[i] == '>' {
			return styleSpan{}, false
		}
		nameStart := i
		for i < n && !isAttrSpace(rest[i]) && rest[i] != '=' && rest[i] != '>' && rest[i] != '/' {
			i++
		}
		name := strings.ToLower(rest[nameStart:i])
		j := i
		for j < n && isAttrSpace(rest[j]) {
			j++
		}
		if j < n && rest[j] == '=' {
			j++
			for j < n && isAttrSpace(rest[j]) {
				j++
			}
			if j < n && (rest[j] == '"' || rest[j] == '\'') {
				q := rest[j]
				vs := j + 1
				k := strings.IndexByte(rest[vs:], q)
				if k < 0 {
					return styleSpan{}, false
				}
				if name == "style" {
					return styleSpan{start: vs, end: vs + k, quoted: true}, true
				}
				i = vs + k + 1
			} else {
				vs := j
				for j < n && !isAttrSpace(rest[j]) && rest[j] != '>' {
					j++
				}
				if name == "style" {
					return styleSpan{start: vs, end: j}, true
				}
				i = j
			}
		} else {
			if name == "style" {
				return styleSpan{start: i, end: i, bare: true}, true
			}
			i = j
		}
	}
	return styleSpan{}, false
}

// nextStartTag finds the '<' opening the first start tag at or after
// offset. Comments, end tags, declarations and bare '<' characters are
// skipped.
func nextStartTag(s string, offset int) int {
	if offset < 0 {
		offset = 0
	}
	for i := offset; i < len(s); {
		j := strings.IndexByte(s[i:], '<')
		if j < 0 {
			return -1
		}
		i += j
		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			k := strings.Index(rest, "-->")
			if k < 0 {
				return -1
			}
			i += k + 3
		case strings.HasPrefix(rest, "</"), strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "<?"):
			k := strings.IndexByte(rest, '>')
			if k < 0 {
				return -1
			}
			i += k + 1
		default:
			if len(rest) > 1 && isTagNameStart(rest[1]) {
				return i
			}
			i++
		}
	}
	return -1
}

// tagEnd returns the index of the '>' terminating the tag opened at
// start, honoring quoted attribute values.
func tagEnd(s string, start int) int {
	quote := byte(0)
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return i
		}
	}
	return -1
}

func isTagNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isTagDelim(c byte) bool {
	return isAttrSpace(c) || c == '>' || c == '/'
}

func isAttrSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
