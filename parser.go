package seam

import "strings"

const (
	markerPrefix = "<!--seam:"
	markerSuffix = "-->"
)

// dirKind enumerates the directive forms a marker can carry.
type dirKind uint8

const (
	dirSlot dirKind = iota
	dirAttr
	dirStyle
	dirIf
	dirElse
	dirEndif
	dirEach
	dirEndeach
	dirMatch
	dirWhen
	dirEndmatch
	dirInvalid
)

// directive is one decoded marker. src keeps the complete comment so a
// marker that turns out malformed can fall back to literal text.
type directive struct {
	kind  dirKind
	path  string
	name  string // attribute name or style property
	value string // when arm value
	html  bool   // slot raw mode
	src   string
}

// piece is one lexed segment of a skeleton: literal text or a directive.
type piece struct {
	text string
	dir  *directive
}

// lexTemplate splits a skeleton into text runs and seam markers. A
// marker comment that never closes, or whose body decodes to nothing
// valid, stays literal text.
func lexTemplate(tpl string) []piece {
	var pieces []piece
	rest := tpl
	for {
		i := strings.Index(rest, markerPrefix)
		if i < 0 {
			break
		}
		bodyStart := i + len(markerPrefix)
		end := strings.Index(rest[bodyStart:], markerSuffix)
		if end < 0 {
			break
		}
		if i > 0 {
			pieces = append(pieces, piece{text: rest[:i]})
		}
		src := rest[i : bodyStart+end+len(markerSuffix)]
		d := parseDirective(rest[bodyStart : bodyStart+end])
		d.src = src
		if d.kind == dirInvalid {
			pieces = append(pieces, piece{text: src})
		} else {
			pieces = append(pieces, piece{dir: d})
		}
		rest = rest[bodyStart+end+len(markerSuffix):]
	}
	if rest != "" {
		pieces = append(pieces, piece{text: rest})
	}
	return pieces
}

// parseDirective decodes a marker body (the bytes between "seam:" and
// "-->"). Bodies are machine generated, so anything off-pattern is
// rejected rather than repaired.
func parseDirective(body string) *directive {
	switch body {
	case "else":
		return &directive{kind: dirElse}
	case "endeach":
		return &directive{kind: dirEndeach}
	case "endmatch":
		return &directive{kind: dirEndmatch}
	}
	if rest, ok := strings.CutPrefix(body, "if:"); ok {
		return pathDirective(dirIf, rest)
	}
	if rest, ok := strings.CutPrefix(body, "endif:"); ok {
		return pathDirective(dirEndif, rest)
	}
	if rest, ok := strings.CutPrefix(body, "each:"); ok {
		return pathDirective(dirEach, rest)
	}
	if rest, ok := strings.CutPrefix(body, "match:"); ok {
		return pathDirective(dirMatch, rest)
	}
	if rest, ok := strings.CutPrefix(body, "when:"); ok {
		return &directive{kind: dirWhen, value: rest}
	}

	parts := strings.Split(body, ":")
	switch {
	case len(parts) == 1 && validPath(parts[0]):
		return &directive{kind: dirSlot, path: parts[0]}
	case len(parts) == 2 && parts[1] == "html" && validPath(parts[0]):
		return &directive{kind: dirSlot, path: parts[0], html: true}
	case len(parts) == 3 && parts[1] == "attr" && validPath(parts[0]) && validAttrName(parts[2]):
		return &directive{kind: dirAttr, path: parts[0], name: parts[2]}
	case len(parts) == 3 && parts[1] == "style" && validPath(parts[0]) && validAttrName(parts[2]):
		return &directive{kind: dirStyle, path: parts[0], name: parts[2]}
	}
	return &directive{kind: dirInvalid}
}

func pathDirective(kind dirKind, path string) *directive {
	if !validPath(path) {
		return &directive{kind: dirInvalid}
	}
	return &directive{kind: kind, path: path}
}

// validPath accepts dotted lookup paths: "user.name", "$.title",
// "$$.id". Whitespace or an empty segment disqualifies the marker.
func validPath(p string) bool {
	if p == "" || strings.ContainsAny(p, " \t\n\r\f") {
		return false
	}
	for i, seg := range strings.Split(p, ".") {
		if seg == "" {
			return false
		}
		if (seg == "$" || seg == "$$") && i != 0 {
			return false
		}
	}
	return true
}

// validAttrName filters names we are willing to splice into a tag.
func validAttrName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, " \t\n\r\f\"'<>=/")
}

// openBlock tracks an enclosing construct while parsing nested bodies.
type openBlock struct {
	kind   dirKind // dirIf, dirEach or dirMatch
	path   string  // endif matches on path
	inElse bool
}

// parseTemplate turns a skeleton into an AST. It never fails: markers
// that cannot be paired degrade to literal text.
func parseTemplate(tpl string) []templateNode {
	nodes, _, _ := parseBlock(lexTemplate(tpl), 0, nil)
	return nodes
}

// parseBlock consumes pieces until input ends or a terminator owned by
// an enclosing block appears. It returns the nodes built, the piece
// index it stopped at, and the terminator (nil at end of input). The
// terminator is left unconsumed for its owner to claim while the stack
// unwinds.
func parseBlock(pieces []piece, pos int, stack []openBlock) ([]templateNode, int, *directive) {
	var nodes []templateNode
	for pos < len(pieces) {
		pc := pieces[pos]
		if pc.dir == nil {
			nodes = append(nodes, textNode{text: pc.text})
			pos++
			continue
		}
		d := pc.dir
		switch d.kind {
		case dirSlot:
			nodes = append(nodes, slotNode{path: d.path, html: d.html})
			pos++
		case dirAttr:
			nodes = append(nodes, attrNode{path: d.path, name: d.name})
			pos++
		case dirStyle:
			nodes = append(nodes, styleNode{path: d.path, prop: d.name})
			pos++
		case dirIf, dirEach, dirMatch:
			var sub []templateNode
			var stop *directive
			switch d.kind {
			case dirIf:
				sub, pos, stop = parseIf(pieces, pos, stack, d)
			case dirEach:
				sub, pos, stop = parseEach(pieces, pos, stack, d)
			case dirMatch:
				sub, pos, stop = parseMatch(pieces, pos, stack, d)
			}
			nodes = append(nodes, sub...)
			if stop != nil {
				return nodes, pos, stop
			}
		default:
			// A terminator. When an enclosing block owns it, stop here
			// and let the stack unwind; otherwise it is stray text.
			if ownedByStack(stack, d) {
				return nodes, pos, d
			}
			nodes = append(nodes, textNode{text: d.src})
			pos++
		}
	}
	return nodes, pos, nil
}

func parseIf(pieces []piece, pos int, stack []openBlock, d *directive) ([]templateNode, int, *directive) {
	then, np, stop := parseBlock(pieces, pos+1, append(stack, openBlock{kind: dirIf, path: d.path}))

	var els []templateNode
	elseSrc := ""
	if stop != nil && stop.kind == dirElse {
		elseSrc = stop.src
		els, np, stop = parseBlock(pieces, np+1, append(stack, openBlock{kind: dirIf, path: d.path, inElse: true}))
	}

	if stop != nil && stop.kind == dirEndif && stop.path == d.path {
		return []templateNode{&ifNode{path: d.path, then: then, els: els}}, np + 1, nil
	}

	// No matching endif. The construct degrades: its markers become
	// literal text, its contents splice inline, and a terminator owned
	// by an outer block keeps unwinding.
	out := []templateNode{textNode{text: d.src}}
	out = append(out, then...)
	if elseSrc != "" {
		out = append(out, textNode{text: elseSrc})
		out = append(out, els...)
	}
	return out, np, stop
}

func parseEach(pieces []piece, pos int, stack []openBlock, d *directive) ([]templateNode, int, *directive) {
	body, np, stop := parseBlock(pieces, pos+1, append(stack, openBlock{kind: dirEach}))
	if stop != nil && stop.kind == dirEndeach {
		return []templateNode{&eachNode{path: d.path, body: body}}, np + 1, nil
	}
	out := []templateNode{textNode{text: d.src}}
	out = append(out, body...)
	return out, np, stop
}

func parseMatch(pieces []piece, pos int, stack []openBlock, d *directive) ([]templateNode, int, *directive) {
	mstack := append(stack, openBlock{kind: dirMatch})

	// Content before the first when belongs to no arm; it is dropped on
	// success and restored verbatim when the construct degrades.
	lead, np, stop := parseBlock(pieces, pos+1, mstack)

	var arms []matchArm
	var armSrcs []string
	for stop != nil && stop.kind == dirWhen {
		var body []templateNode
		var next *directive
		body, np, next = parseBlock(pieces, np+1, mstack)
		arms = append(arms, matchArm{value: stop.value, body: body})
		armSrcs = append(armSrcs, stop.src)
		stop = next
	}

	if stop != nil && stop.kind == dirEndmatch {
		return []templateNode{&matchNode{path: d.path, arms: arms}}, np + 1, nil
	}

	out := []templateNode{textNode{text: d.src}}
	out = append(out, lead...)
	for i, arm := range arms {
		out = append(out, textNode{text: armSrcs[i]})
		out = append(out, arm.body...)
	}
	return out, np, stop
}

// ownedByStack reports whether any enclosing block claims terminator d.
func ownedByStack(stack []openBlock, d *directive) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		b := stack[i]
		switch d.kind {
		case dirElse:
			if b.kind == dirIf && !b.inElse {
				return true
			}
		case dirEndif:
			if b.kind == dirIf && b.path == d.path {
				return true
			}
		case dirEndeach:
			if b.kind == dirEach {
				return true
			}
		case dirWhen, dirEndmatch:
			if b.kind == dirMatch {
				return true
			}
		}
	}
	return false
}
