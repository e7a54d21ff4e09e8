package seam

import (
	"strings"

	"go.uber.org/zap"
)

// pendingSplice is one dynamic attribute or style property recorded
// during rendering while its target tag is still unwritten. offset is
// the output length at the marker's position; the splice pass rewrites
// the first start tag at or after it. Keying on offsets instead of
// in-band sentinel bytes keeps every byte value legal in template text.
type pendingSplice struct {
	offset int
	attr   string // attribute name; empty for style entries
	prop   string // style property; empty for attribute entries
	value  string
}

// renderer walks a parsed skeleton against one data object. It is built
// fresh per Inject call and never shared.
type renderer struct {
	out     strings.Builder
	pending []pendingSplice
	data    map[string]any
	scopes  []any
	metrics *Collector
	log     *zap.Logger
}

func (r *renderer) resolve(path string) (any, bool) {
	v, ok := resolvePath(r.data, r.scopes, path)
	if !ok {
		r.metrics.IncrementMissingPath()
		r.log.Debug("Path missing from data", zap.String("path", path))
	}
	return v, ok
}

func (r *renderer) renderNodes(nodes []templateNode) {
	for _, n := range nodes {
		r.renderNode(n)
	}
}

func (r *renderer) renderNode(n templateNode) {
	switch t := n.(type) {
	case textNode:
		r.out.WriteString(t.text)

	case slotNode:
		v, ok := r.resolve(t.path)
		if !ok {
			return
		}
		s := stringify(v)
		if !t.html {
			s = escapeText(s)
		}
		r.out.WriteString(s)
		r.metrics.IncrementSlotRendered()

	case attrNode:
		v, ok := r.resolve(t.path)
		if !ok {
			return
		}
		val, keep := attrValue(t.name, v)
		if !keep {
			return
		}
		r.pending = append(r.pending, pendingSplice{
			offset: r.out.Len(),
			attr:   t.name,
			value:  val,
		})

	case styleNode:
		v, ok := r.resolve(t.path)
		if !ok {
			return
		}
		val, keep := styleValue(t.prop, v)
		if !keep {
			return
		}
		r.pending = append(r.pending, pendingSplice{
			offset: r.out.Len(),
			prop:   t.prop,
			value:  val,
		})

	case *ifNode:
		v, _ := r.resolve(t.path)
		if isTruthy(v) {
			r.renderNodes(t.then)
		} else {
			r.renderNodes(t.els)
		}

	case *eachNode:
		v, ok := r.resolve(t.path)
		if !ok {
			return
		}
		for _, item := range asArray(v) {
			r.scopes = append(r.scopes, item)
			r.renderNodes(t.body)
			r.scopes = r.scopes[:len(r.scopes)-1]
		}

	case *matchNode:
		v, ok := r.resolve(t.path)
		if !ok {
			return
		}
		s := stringify(v)
		for _, arm := range t.arms {
			if arm.value == s {
				r.renderNodes(arm.body)
				return
			}
		}
	}
}
