package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements never take an end tag.
var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

// Parse tokenizes markup into a tree without validating or repairing it.
// Malformed constructs are kept as text nodes so Serialize reproduces the
// input byte for byte. Parse never fails; the worst input degrades to a
// flat list of text nodes.
func Parse(markup string) []*Node {
	z := html.NewTokenizer(strings.NewReader(markup))
	root := &Node{Kind: KindElement}
	stack := []*Node{root}

	appendChild := func(n *Node) {
		top := stack[len(stack)-1]
		top.Children = append(top.Children, n)
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			// A string reader only errors at EOF. Elements still on the
			// stack never saw their end tag.
			for _, n := range stack[1:] {
				n.Close = CloseNone
			}
			return root.Children

		case html.TextToken:
			appendChild(&Node{Kind: KindText, Text: string(z.Raw())})

		case html.CommentToken:
			raw := string(z.Raw())
			// Bogus comments (<! ... >, <? ... >, truncated input) do not
			// carry the normal delimiters and stay literal text.
			if len(raw) >= 7 && strings.HasPrefix(raw, "<!--") && strings.HasSuffix(raw, "-->") {
				appendChild(&Node{Kind: KindComment, Data: raw[4 : len(raw)-3]})
			} else {
				appendChild(&Node{Kind: KindText, Text: raw})
			}

		case html.DoctypeToken:
			appendChild(&Node{Kind: KindText, Text: string(z.Raw())})

		case html.StartTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			el := &Node{
				Kind:  KindElement,
				Tag:   raw[1 : 1+len(name)],
				Attrs: raw[1+len(name) : len(raw)-1],
				Close: CloseTag,
			}
			appendChild(el)
			if voidElements[atom.Lookup(name)] {
				el.Close = CloseVoid
			} else {
				stack = append(stack, el)
			}

		case html.SelfClosingTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			appendChild(&Node{
				Kind:  KindElement,
				Tag:   raw[1 : 1+len(name)],
				Attrs: raw[1+len(name) : len(raw)-2],
				Close: CloseSelf,
			})

		case html.EndTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			tag := string(name)
			match := -1
			for i := len(stack) - 1; i >= 1; i-- {
				if stack[i].TagLower() == tag {
					match = i
					break
				}
			}
			if match < 0 {
				// An end tag with no open element stays literal text.
				appendChild(&Node{Kind: KindText, Text: raw})
				continue
			}
			closed := stack[match]
			if raw != "</"+closed.Tag+">" {
				closed.EndTag = raw
			}
			// Elements skipped over were never closed in the source.
			for i := match + 1; i < len(stack); i++ {
				stack[i].Close = CloseNone
			}
			stack = stack[:match]
		}
	}
}
