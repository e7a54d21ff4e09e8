package extract

import (
	"github.com/canmi21/seam/internal/dom"
)

// enumPlan is one located divergence across every arm of an enum axis:
// per-arm parents plus the middle children left between the common
// prefix and suffix.
type enumPlan struct {
	parents []*dom.Node
	middles [][]*dom.Node
	prev    *dom.Node // arm-0 sibling right before the middle; nil at parent start
}

// resolveEnum isolates an enum axis in the given context and splices a
// match/when block over the divergent middle. Returns false when all
// arms render identically here or the plan cannot be anchored yet.
func (e *Engine) resolveEnum(ai int, ctx []int) (bool, error) {
	ax := e.axes[ai]
	parents := make([]*dom.Node, ax.Count)
	for v := 0; v < ax.Count; v++ {
		parents[v] = e.roots[e.comboIndex(assign(ctx, ai, v))]
	}

	plan, found := findEnumPlan(parents)
	if !found {
		return false, nil
	}

	skelParent := e.mirror[plan.parents[0]]
	if skelParent == nil {
		return false, nil
	}
	if len(plan.middles[0]) > 0 {
		if _, _, ok := e.span(skelParent, plan.middles[0]); !ok {
			return false, nil
		}
	} else if e.insertPos(plan.parents[0], plan.prev, skelParent) < 0 {
		return false, nil
	}

	e.spliceMatch(ax, plan, skelParent)
	return true, nil
}

// findEnumPlan trims the maximal common prefix and suffix shared by
// every arm's children, by fingerprint. When each arm's middle is a
// single element agreeing on tag and raw attributes, the divergence is
// deeper: descend into those elements instead of wrapping them.
func findEnumPlan(parents []*dom.Node) (enumPlan, bool) {
	arms := make([][]*dom.Node, len(parents))
	short := -1
	for i, p := range parents {
		arms[i] = p.Children
		if short == -1 || len(arms[i]) < short {
			short = len(arms[i])
		}
	}

	pre := 0
	for pre < short && allEqualAt(arms, func(a []*dom.Node) *dom.Node { return a[pre] }) {
		pre++
	}
	suf := 0
	for suf < short-pre && allEqualAt(arms, func(a []*dom.Node) *dom.Node { return a[len(a)-1-suf] }) {
		suf++
	}

	middles := make([][]*dom.Node, len(arms))
	empty := true
	for i, a := range arms {
		middles[i] = a[pre : len(a)-suf]
		if len(middles[i]) > 0 {
			empty = false
		}
	}
	if empty {
		return enumPlan{}, false
	}

	if shell, ok := sharedShell(middles); ok {
		return findEnumPlan(shell)
	}

	var prev *dom.Node
	if pre > 0 {
		prev = arms[0][pre-1]
	}
	return enumPlan{parents: parents, middles: middles, prev: prev}, true
}

func allEqualAt(arms [][]*dom.Node, pick func([]*dom.Node) *dom.Node) bool {
	fp := pick(arms[0]).Fingerprint()
	for _, a := range arms[1:] {
		if pick(a).Fingerprint() != fp {
			return false
		}
	}
	return true
}

// sharedShell returns the per-arm elements to descend into when every
// middle is exactly one element with the same tag and raw attributes.
func sharedShell(middles [][]*dom.Node) ([]*dom.Node, bool) {
	first := middles[0]
	if len(first) != 1 || !first[0].IsElement() {
		return nil, false
	}
	shell := make([]*dom.Node, len(middles))
	shell[0] = first[0]
	for i, m := range middles[1:] {
		if len(m) != 1 || !m[0].IsElement() {
			return nil, false
		}
		if m[0].TagLower() != first[0].TagLower() || m[0].Attrs != first[0].Attrs {
			return nil, false
		}
		shell[i+1] = m[0]
	}
	return shell, true
}

// spliceMatch wraps arm 0's resident middle in match/when markers and
// clones every other arm's middle in behind its own when marker.
func (e *Engine) spliceMatch(ax Axis, plan enumPlan, skelParent *dom.Node) {
	matchOpen := e.directive("seam:match:" + ax.Path)
	when0 := e.directive("seam:when:" + ax.Arms[0])

	var tail []*dom.Node
	for v := 1; v < len(plan.middles); v++ {
		tail = append(tail, e.directive("seam:when:"+ax.Arms[v]))
		tail = append(tail, dom.CloneAll(plan.middles[v], e.mirror)...)
	}
	tail = append(tail, e.directive("seam:endmatch"))

	if len(plan.middles[0]) > 0 {
		i, j, _ := e.span(skelParent, plan.middles[0])
		insertAt(skelParent, j+1, tail...)
		insertAt(skelParent, i, matchOpen, when0)
		return
	}
	pos := e.insertPos(plan.parents[0], plan.prev, skelParent)
	insertAt(skelParent, pos, append([]*dom.Node{matchOpen, when0}, tail...)...)
}
