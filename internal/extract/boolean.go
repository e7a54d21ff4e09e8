package extract

import (
	"go.uber.org/zap"

	"github.com/canmi21/seam/internal/diff"
	"github.com/canmi21/seam/internal/dom"
)

// region is one contiguous divergence between the truthy and falsy
// trees of a boolean axis, located under a structurally shared parent.
type region struct {
	parentT *dom.Node
	parentF *dom.Node
	thenN   []*dom.Node // truthy-exclusive children
	elseN   []*dom.Node // falsy-exclusive children
	prevT   *dom.Node   // truthy-side sibling right before the run; nil at parent start
	prevF   *dom.Node
}

// resolveBoolean isolates a boolean axis in the given context and
// splices if/else/endif markers around every divergent region. Returns
// false when the context shows no difference or cannot be anchored yet.
func (e *Engine) resolveBoolean(ai int, ctx []int) (bool, error) {
	ax := e.axes[ai]
	trueRoot := e.roots[e.comboIndex(assign(ctx, ai, ax.True))]
	falseRoot := e.roots[e.comboIndex(assign(ctx, ai, 1-ax.True))]

	regions := e.collectRegions(trueRoot, falseRoot)
	if len(regions) == 0 {
		return false, nil
	}

	// Anchored side is the one baked into the skeleton: value index 0.
	anchoredThen := ax.True == 0
	for _, reg := range regions {
		if !e.anchorable(reg, anchoredThen) {
			e.log.Debug("Deferred axis, region not anchored yet",
				zap.String("path", ax.Path))
			return false, nil
		}
	}

	// Reverse order keeps sibling regions that share an insertion
	// anchor in document order.
	for i := len(regions) - 1; i >= 0; i-- {
		e.spliceIf(ax, regions[i], anchoredThen)
	}
	return true, nil
}

// collectRegions diffs two trees level by level. A run made solely of
// same-tag, same-attrs Modified pairs is descended into; anything else
// becomes a region at this level.
func (e *Engine) collectRegions(tp, fp *dom.Node) []region {
	ops := diff.Children(tp.Children, fp.Children)
	e.metrics.AddDiffOps(int64(len(ops)))

	var regs []region
	var prevT, prevF *dom.Node
	i := 0
	for i < len(ops) {
		op := ops[i]
		if op.Kind == diff.Identical {
			prevT = tp.Children[op.Left]
			prevF = fp.Children[op.Right]
			i++
			continue
		}
		j := i
		for j < len(ops) && ops[j].Kind != diff.Identical {
			j++
		}
		run := ops[i:j]

		if descendable(run, tp, fp) {
			for _, m := range run {
				regs = append(regs, e.collectRegions(tp.Children[m.Left], fp.Children[m.Right])...)
			}
		} else {
			reg := region{parentT: tp, parentF: fp, prevT: prevT, prevF: prevF}
			for _, m := range run {
				if m.Left >= 0 {
					reg.thenN = append(reg.thenN, tp.Children[m.Left])
				}
				if m.Right >= 0 {
					reg.elseN = append(reg.elseN, fp.Children[m.Right])
				}
			}
			regs = append(regs, reg)
		}

		for _, m := range run {
			if m.Left >= 0 {
				prevT = tp.Children[m.Left]
			}
			if m.Right >= 0 {
				prevF = fp.Children[m.Right]
			}
		}
		i = j
	}
	return regs
}

// descendable reports whether a run is purely structural: every op a
// Modified pair of elements agreeing on tag and raw attributes. Attrs
// compare verbatim; an attribute difference makes the whole element the
// region.
func descendable(run []diff.Op, tp, fp *dom.Node) bool {
	for _, op := range run {
		if op.Kind != diff.Modified {
			return false
		}
		l := tp.Children[op.Left]
		r := fp.Children[op.Right]
		if !l.IsElement() || !r.IsElement() {
			return false
		}
		if l.TagLower() != r.TagLower() || l.Attrs != r.Attrs {
			return false
		}
	}
	return true
}

// anchorable reports whether a region's skeleton positions resolve
// through the mirror right now.
func (e *Engine) anchorable(reg region, anchoredThen bool) bool {
	parentA, resident, prevA := reg.parentF, reg.elseN, reg.prevF
	if anchoredThen {
		parentA, resident, prevA = reg.parentT, reg.thenN, reg.prevT
	}
	skelParent := e.mirror[parentA]
	if skelParent == nil {
		return false
	}
	if len(resident) > 0 {
		_, _, ok := e.span(skelParent, resident)
		return ok
	}
	return e.insertPos(parentA, prevA, skelParent) >= 0
}

func (e *Engine) spliceIf(ax Axis, reg region, anchoredThen bool) {
	ifOpen := e.directive("seam:if:" + ax.Path)
	ifClose := e.directive("seam:endif:" + ax.Path)

	if anchoredThen {
		skelParent := e.mirror[reg.parentT]
		var tail []*dom.Node
		if len(reg.elseN) > 0 {
			tail = append(tail, e.directive("seam:else"))
			tail = append(tail, dom.CloneAll(reg.elseN, e.mirror)...)
		}
		tail = append(tail, ifClose)

		if len(reg.thenN) > 0 {
			i, j, _ := e.span(skelParent, reg.thenN)
			insertAt(skelParent, j+1, tail...)
			insertAt(skelParent, i, ifOpen)
			return
		}
		pos := e.insertPos(reg.parentT, reg.prevT, skelParent)
		insertAt(skelParent, pos, append([]*dom.Node{ifOpen}, tail...)...)
		return
	}

	// Skeleton was built from the falsy variant: resident nodes form the
	// else branch and the then branch is cloned in.
	skelParent := e.mirror[reg.parentF]
	head := []*dom.Node{ifOpen}
	head = append(head, dom.CloneAll(reg.thenN, e.mirror)...)

	if len(reg.elseN) > 0 {
		head = append(head, e.directive("seam:else"))
		i, j, _ := e.span(skelParent, reg.elseN)
		insertAt(skelParent, j+1, ifClose)
		insertAt(skelParent, i, head...)
		return
	}
	pos := e.insertPos(reg.parentF, reg.prevF, skelParent)
	insertAt(skelParent, pos, append(head, ifClose)...)
}
