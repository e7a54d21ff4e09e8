// Package dom builds a lightweight markup tree that preserves the exact
// bytes of its input. Serializing an unmodified tree returns the source
// string unchanged, which lets callers compare and rearrange rendered
// fragments without introducing formatting drift.
package dom

import "strings"

// Kind discriminates the node shapes in the tree.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
)

// CloseStyle records how the source closed an element so serialization
// can reproduce the original bytes.
type CloseStyle uint8

const (
	// CloseTag means the element had an explicit end tag: <div>...</div>.
	CloseTag CloseStyle = iota
	// CloseSelf means the source used a self-closing slash: <img/>.
	CloseSelf
	// CloseVoid marks void elements written without an end tag: <br>.
	CloseVoid
	// CloseNone marks elements whose end tag never appeared in the source.
	CloseNone
)

// Node is a single node in the markup tree. Exactly one of the kind
// specific field groups is meaningful, selected by Kind.
type Node struct {
	Kind Kind

	// Element fields. Tag keeps the source casing. Attrs is the raw
	// attribute chunk between the tag name and the closing bracket,
	// verbatim, leading whitespace included. EndTag holds the end tag
	// exactly as written when it differs from the synthesized form.
	Tag      string
	Attrs    string
	Close    CloseStyle
	EndTag   string
	Children []*Node

	// Text holds raw character data with entities left encoded.
	Text string

	// Data holds the comment payload between <!-- and -->.
	Data string
}

// NewText builds a text node holding raw markup bytes.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// NewComment builds a comment node that serializes as <!--data-->.
func NewComment(data string) *Node {
	return &Node{Kind: KindComment, Data: data}
}

// IsElement reports whether the node is an element.
func (n *Node) IsElement() bool {
	return n != nil && n.Kind == KindElement
}

// TagLower returns the element tag name folded to lower case.
func (n *Node) TagLower() string {
	return strings.ToLower(n.Tag)
}

// IsWhitespace reports whether the node is text made up entirely of
// markup whitespace. Empty text nodes count as whitespace.
func (n *Node) IsWhitespace() bool {
	return n.Kind == KindText && strings.TrimLeft(n.Text, " \t\n\r\f") == ""
}

// Clone deep-copies a node. When mirror is non-nil every source node is
// recorded against its copy, which lets callers relocate positions found
// in the source tree inside the cloned tree by identity.
func (n *Node) Clone(mirror map[*Node]*Node) *Node {
	cp := &Node{
		Kind:   n.Kind,
		Tag:    n.Tag,
		Attrs:  n.Attrs,
		Close:  n.Close,
		EndTag: n.EndTag,
		Text:   n.Text,
		Data:   n.Data,
	}
	if len(n.Children) > 0 {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone(mirror)
		}
	}
	if mirror != nil {
		mirror[n] = cp
	}
	return cp
}

// CloneAll deep-copies a node sequence in order.
func CloneAll(nodes []*Node, mirror map[*Node]*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone(mirror)
	}
	return out
}

// Serialize renders a node sequence back to markup. For a tree produced
// by Parse and not modified since, the output equals the parsed input.
func Serialize(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		n.writeTo(&b)
	}
	return b.String()
}

// Fingerprint returns the identity of a subtree used for structural
// comparison: its exact serialization. Two nodes with equal fingerprints
// render the same bytes.
func (n *Node) Fingerprint() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	switch n.Kind {
	case KindText:
		b.WriteString(n.Text)
	case KindComment:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case KindElement:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		b.WriteString(n.Attrs)
		if n.Close == CloseSelf {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for _, c := range n.Children {
			c.writeTo(b)
		}
		if n.Close == CloseTag {
			if n.EndTag != "" {
				b.WriteString(n.EndTag)
			} else {
				b.WriteString("</")
				b.WriteString(n.Tag)
				b.WriteByte('>')
			}
		}
	}
}
