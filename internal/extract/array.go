package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/canmi21/seam/internal/dom"
)

const (
	ruleInPlace = iota // repeated units sit directly in the parent
	ruleUnwrap         // one list container wraps the units; each goes inside it
	ruleHoist          // one container per item; keep the first, loop inside it
)

// listContainers are the tags whose repetition per item is treated as
// accidental wrapping rather than intended output.
var listContainers = map[atom.Atom]bool{
	atom.Ul:       true,
	atom.Ol:       true,
	atom.Dl:       true,
	atom.Table:    true,
	atom.Thead:    true,
	atom.Tbody:    true,
	atom.Tfoot:    true,
	atom.Tr:       true,
	atom.Select:   true,
	atom.Optgroup: true,
	atom.Datalist: true,
	atom.Menu:     true,
}

func listContainer(n *dom.Node) bool {
	return listContainers[atom.Lookup([]byte(n.TagLower()))]
}

// arrayPlan is a classified array region: which rule applies, the
// repeated unit within the populated tree, and the whitespace kept on
// the region's edges.
type arrayPlan struct {
	reg         region
	rule        int
	container   *dom.Node   // unwrap/hoist: the kept wrapper, populated tree
	lead, trail []*dom.Node // edge whitespace around the populated run
	core        []*dom.Node // populated run minus edge whitespace
	unit        []*dom.Node // one repeated unit; nil when the region has none
	k           int         // nodes per unit
	wrapped     bool        // region needs an if/else wrapper
}

// resolveArray isolates an array axis in the given context, splices
// each/endeach (plus an if/else wrapper where the empty variant lacks
// the surrounding structure), and recursively extracts axes nested
// under this one's items.
func (e *Engine) resolveArray(ai int, ctx []int) (bool, error) {
	ax := e.axes[ai]
	popVi := e.comboIndex(assign(ctx, ai, ax.Pop))
	emptyVi := e.comboIndex(assign(ctx, ai, 1-ax.Pop))

	plan, found, err := e.planArray(popVi, emptyVi, ai)
	if err != nil || !found {
		return false, err
	}

	anchoredPop := ax.Pop == 0
	if !e.arrayAnchorable(plan, anchoredPop) {
		return false, nil
	}

	var eachOpen, unitParent *dom.Node
	if anchoredPop {
		eachOpen, unitParent = e.spliceEachResident(ax, plan)
	} else {
		eachOpen, unitParent = e.spliceEachCloned(ax, plan)
	}

	if kids := e.childAxes(ax.Path); len(kids) > 0 {
		if len(plan.unit) == 0 {
			return false, &Diagnostic{
				AxisPath: ax.Path,
				Variants: []int{e.vi(popVi), e.vi(emptyVi)},
				Reason:   "child axes declared but the region has no repeated unit",
			}
		}
		if err := e.resolveChildAxes(ai, ctx, plan, kids, eachOpen, unitParent); err != nil {
			return false, err
		}
	}
	return true, nil
}

// planArray locates and classifies the single region an array axis may
// occupy. The populated tree takes the truthy position in the shared
// region collector.
func (e *Engine) planArray(popVi, emptyVi, ai int) (arrayPlan, bool, error) {
	ax := e.axes[ai]
	regs := e.collectRegions(e.roots[popVi], e.roots[emptyVi])
	if len(regs) == 0 {
		return arrayPlan{}, false, nil
	}
	vis := []int{e.vi(popVi), e.vi(emptyVi)}
	if len(regs) > 1 {
		return arrayPlan{}, false, &Diagnostic{
			AxisPath: ax.Path,
			Variants: vis,
			Reason:   fmt.Sprintf("axis varies in %d separate regions", len(regs)),
		}
	}
	plan, err := classifyArray(regs[0], ax.Len, ax.Path, vis)
	if err != nil {
		return arrayPlan{}, false, err
	}
	return plan, true, nil
}

func classifyArray(reg region, n int, axPath string, vis []int) (arrayPlan, error) {
	lead, core, trail := trimEdges(reg.thenN)
	plan := arrayPlan{reg: reg, lead: lead, core: core, trail: trail}
	hasElse := len(reg.elseN) > 0

	if len(core) == 0 {
		// Populated side adds no repeated content; the axis degrades to
		// a presence toggle.
		plan.rule = ruleInPlace
		plan.wrapped = true
		return plan, nil
	}

	if len(core) == 1 && core[0].IsElement() && listContainer(core[0]) {
		if unit, k, ok := splitUnits(core[0].Children, n); ok {
			plan.rule = ruleUnwrap
			plan.container = core[0]
			plan.unit = unit
			plan.k = k
			plan.wrapped = true
			return plan, nil
		}
	}

	if hoistable(core, n) {
		plan.rule = ruleHoist
		plan.container = core[0]
		plan.unit = core[0].Children
		plan.k = len(core[0].Children)
		plan.wrapped = true
		return plan, nil
	}

	if unit, k, ok := splitUnits(core, n); ok {
		plan.rule = ruleInPlace
		plan.unit = unit
		plan.k = k
		plan.wrapped = hasElse || len(lead)+len(trail) > 0
		return plan, nil
	}

	return plan, &Diagnostic{
		AxisPath: axPath,
		Variants: vis,
		Reason:   fmt.Sprintf("repeated region does not divide into %d identical units", n),
	}
}

func trimEdges(nodes []*dom.Node) (lead, core, trail []*dom.Node) {
	i, j := 0, len(nodes)
	for i < j && nodes[i].IsWhitespace() {
		i++
	}
	for j > i && nodes[j-1].IsWhitespace() {
		j--
	}
	return nodes[:i], nodes[i:j], nodes[j:]
}

// splitUnits divides a sequence into n groups that must serialize
// identically, returning the first group.
func splitUnits(nodes []*dom.Node, n int) ([]*dom.Node, int, bool) {
	if n <= 0 || len(nodes) == 0 || len(nodes)%n != 0 {
		return nil, 0, false
	}
	k := len(nodes) / n
	fp := dom.Serialize(nodes[:k])
	for g := 1; g < n; g++ {
		if dom.Serialize(nodes[g*k:(g+1)*k]) != fp {
			return nil, 0, false
		}
	}
	return nodes[:k], k, true
}

// hoistable reports whether the region is one identical list-container
// wrapper per item. Tag and raw attributes must match exactly on every
// wrapper.
func hoistable(core []*dom.Node, n int) bool {
	if len(core) != n || n < 2 {
		return false
	}
	first := core[0]
	if !first.IsElement() || !listContainer(first) || len(first.Children) == 0 {
		return false
	}
	fp := dom.Serialize(first.Children)
	for _, c := range core[1:] {
		if !c.IsElement() || c.TagLower() != first.TagLower() || c.Attrs != first.Attrs {
			return false
		}
		if dom.Serialize(c.Children) != fp {
			return false
		}
	}
	return true
}

func (e *Engine) arrayAnchorable(plan arrayPlan, anchoredPop bool) bool {
	if anchoredPop {
		skelParent := e.mirror[plan.reg.parentT]
		if skelParent == nil {
			return false
		}
		if len(plan.reg.thenN) > 0 {
			if _, _, ok := e.span(skelParent, plan.reg.thenN); !ok {
				return false
			}
		} else if e.insertPos(plan.reg.parentT, plan.reg.prevT, skelParent) < 0 {
			return false
		}
		if plan.container != nil {
			ci := e.mirror[plan.container]
			if ci == nil {
				return false
			}
			if _, _, ok := e.span(ci, plan.container.Children); !ok {
				return false
			}
		}
		return true
	}
	skelParent := e.mirror[plan.reg.parentF]
	if skelParent == nil {
		return false
	}
	if len(plan.reg.elseN) > 0 {
		_, _, ok := e.span(skelParent, plan.reg.elseN)
		return ok
	}
	return e.insertPos(plan.reg.parentF, plan.reg.prevF, skelParent) >= 0
}

// spliceEachResident rewrites the skeleton when it was built from the
// populated variant: duplicate units are deleted and markers wrap what
// remains.
func (e *Engine) spliceEachResident(ax Axis, plan arrayPlan) (*dom.Node, *dom.Node) {
	skelParent := e.mirror[plan.reg.parentT]
	var eachOpen, eachClose, unitParent *dom.Node
	if len(plan.unit) > 0 {
		eachOpen = e.directive("seam:each:" + ax.Path)
		eachClose = e.directive("seam:endeach")
	}

	switch {
	case plan.container != nil:
		ci := e.mirror[plan.container]
		unitParent = ci
		if plan.rule == ruleUnwrap && len(plan.container.Children) > plan.k {
			i, j, _ := e.span(ci, plan.container.Children[plan.k:])
			removeRange(ci, i, j)
		}
		ui, uj, _ := e.span(ci, plan.unit)
		insertAt(ci, uj+1, eachClose)
		insertAt(ci, ui, eachOpen)
		if plan.rule == ruleHoist {
			i, j, _ := e.span(skelParent, plan.core[1:])
			removeRange(skelParent, i, j)
		}
	case len(plan.unit) > 0:
		unitParent = skelParent
		if len(plan.core) > plan.k {
			i, j, _ := e.span(skelParent, plan.core[plan.k:])
			removeRange(skelParent, i, j)
		}
		ui, uj, _ := e.span(skelParent, plan.unit)
		insertAt(skelParent, uj+1, eachClose)
		insertAt(skelParent, ui, eachOpen)
	}

	if !plan.wrapped {
		return eachOpen, unitParent
	}

	ifOpen := e.directive("seam:if:" + ax.Path)
	var tail []*dom.Node
	if len(plan.reg.elseN) > 0 {
		tail = append(tail, e.directive("seam:else"))
		tail = append(tail, dom.CloneAll(plan.reg.elseN, e.mirror)...)
	}
	tail = append(tail, e.directive("seam:endif:"+ax.Path))

	head, last := e.thenBounds(skelParent, plan, eachOpen, eachClose)
	if head < 0 {
		pos := e.insertPos(plan.reg.parentT, plan.reg.prevT, skelParent)
		insertAt(skelParent, pos, append([]*dom.Node{ifOpen}, tail...)...)
		return eachOpen, unitParent
	}
	insertAt(skelParent, last+1, tail...)
	insertAt(skelParent, head, ifOpen)
	return eachOpen, unitParent
}

// thenBounds finds the skeleton index range the populated branch now
// occupies, after unit deletion and marker insertion. head is -1 when
// nothing of the branch resides in the skeleton.
func (e *Engine) thenBounds(skelParent *dom.Node, plan arrayPlan, eachOpen, eachClose *dom.Node) (int, int) {
	head := -1
	switch {
	case len(plan.lead) > 0:
		head = indexOf(skelParent, e.mirror[plan.lead[0]])
	case plan.container != nil:
		head = indexOf(skelParent, e.mirror[plan.container])
	case eachOpen != nil:
		head = indexOf(skelParent, eachOpen)
	case len(plan.reg.thenN) > 0:
		head = indexOf(skelParent, e.mirror[plan.reg.thenN[0]])
	}
	if head < 0 {
		return -1, -1
	}
	last := head
	switch {
	case len(plan.trail) > 0:
		last = indexOf(skelParent, e.mirror[plan.trail[len(plan.trail)-1]])
	case plan.container != nil:
		last = indexOf(skelParent, e.mirror[plan.container])
	case eachClose != nil:
		last = indexOf(skelParent, eachClose)
	case len(plan.reg.thenN) > 0:
		last = indexOf(skelParent, e.mirror[plan.reg.thenN[len(plan.reg.thenN)-1]])
	}
	return head, last
}

// spliceEachCloned rewrites the skeleton when it was built from the
// empty variant: the whole populated branch is cloned in around the
// resident placeholder content, if any.
func (e *Engine) spliceEachCloned(ax Axis, plan arrayPlan) (*dom.Node, *dom.Node) {
	skelParent := e.mirror[plan.reg.parentF]
	var eachOpen, unitParent *dom.Node
	var thenSeq []*dom.Node
	thenSeq = append(thenSeq, dom.CloneAll(plan.lead, e.mirror)...)

	if len(plan.unit) > 0 {
		eachOpen = e.directive("seam:each:" + ax.Path)
		eachClose := e.directive("seam:endeach")
		unitClones := dom.CloneAll(plan.unit, e.mirror)
		if plan.container != nil {
			cc := shallowClone(plan.container)
			e.mirror[plan.container] = cc
			cc.Children = append(append([]*dom.Node{eachOpen}, unitClones...), eachClose)
			unitParent = cc
			thenSeq = append(thenSeq, cc)
		} else {
			unitParent = skelParent
			thenSeq = append(thenSeq, eachOpen)
			thenSeq = append(thenSeq, unitClones...)
			thenSeq = append(thenSeq, eachClose)
		}
	}
	thenSeq = append(thenSeq, dom.CloneAll(plan.trail, e.mirror)...)

	if !plan.wrapped {
		pos := e.insertPos(plan.reg.parentF, plan.reg.prevF, skelParent)
		insertAt(skelParent, pos, thenSeq...)
		return eachOpen, unitParent
	}

	head := append([]*dom.Node{e.directive("seam:if:" + ax.Path)}, thenSeq...)
	ifClose := e.directive("seam:endif:" + ax.Path)
	if len(plan.reg.elseN) > 0 {
		head = append(head, e.directive("seam:else"))
		i, j, _ := e.span(skelParent, plan.reg.elseN)
		insertAt(skelParent, j+1, ifClose)
		insertAt(skelParent, i, head...)
		return eachOpen, unitParent
	}
	pos := e.insertPos(plan.reg.parentF, plan.reg.prevF, skelParent)
	insertAt(skelParent, pos, append(head, ifClose)...)
	return eachOpen, unitParent
}

func shallowClone(n *dom.Node) *dom.Node {
	c := *n
	c.Children = nil
	return &c
}

// resolveChildAxes extracts the axes nested under an array axis by
// running a child engine over the repeated unit. Unit variants come
// from re-locating the region in each child-combination's trees; the
// child engine shares the mirror so its splices land inside this
// skeleton's unit. Paths it synthesizes are re-prefixed onto the item
// scope afterwards.
func (e *Engine) resolveChildAxes(ai int, ctx []int, plan arrayPlan, kids []int, eachOpen, unitParent *dom.Node) error {
	ax := e.axes[ai]
	prefix := ax.Path + ".$."

	sub := &Engine{
		rootSet:    make(map[*dom.Node]bool),
		mirror:     e.mirror,
		skelParent: unitParent,
		skelAfter:  eachOpen,
		log:        e.log,
		metrics:    e.metrics,
	}
	for _, ki := range kids {
		k := e.axes[ki]
		k.Path = strings.TrimPrefix(k.Path, prefix)
		sub.axes = append(sub.axes, k)
	}

	counts := make([]int, len(kids))
	for i, ki := range kids {
		counts[i] = e.axes[ki].Count
	}
	cc := make([]int, len(kids))
	first := true
	for {
		asnP := assign(ctx, ai, ax.Pop)
		asnE := assign(ctx, ai, 1-ax.Pop)
		for i, ki := range kids {
			asnP[ki] = cc[i]
			asnE[ki] = cc[i]
		}
		popVi := e.comboIndex(asnP)
		emptyVi := e.comboIndex(asnE)

		var unit []*dom.Node
		if first {
			unit = plan.unit
		} else {
			u, err := e.locateUnit(popVi, emptyVi, ai, plan.rule)
			if err != nil {
				return err
			}
			unit = u
		}
		root := holder(unit)
		sub.roots = append(sub.roots, root)
		sub.rootSet[root] = true
		e.mirror[root] = unitParent
		sub.viMap = append(sub.viMap, e.vi(popVi))

		first = false
		p := len(cc) - 1
		for p >= 0 {
			cc[p]++
			if cc[p] < counts[p] {
				break
			}
			cc[p] = 0
			p--
		}
		if p < 0 {
			break
		}
	}

	if err := sub.run(); err != nil {
		if d, ok := err.(*Diagnostic); ok && d.AxisPath != "" {
			d.AxisPath = prefix + d.AxisPath
		}
		return err
	}
	for _, c := range sub.spliced {
		c.Data = prefixRelative(c.Data)
	}
	return nil
}

// locateUnit re-runs region analysis for one child combination and
// checks it matches the shape found at the baseline combination.
func (e *Engine) locateUnit(popVi, emptyVi, ai, wantRule int) ([]*dom.Node, error) {
	ax := e.axes[ai]
	vis := []int{e.vi(popVi), e.vi(emptyVi)}
	regs := e.collectRegions(e.roots[popVi], e.roots[emptyVi])
	if len(regs) != 1 {
		return nil, &Diagnostic{
			AxisPath: ax.Path,
			Variants: vis,
			Reason:   "repeated region is not consistent across item variants",
		}
	}
	plan, err := classifyArray(regs[0], ax.Len, ax.Path, vis)
	if err != nil {
		return nil, err
	}
	if plan.rule != wantRule || len(plan.unit) == 0 {
		return nil, &Diagnostic{
			AxisPath: ax.Path,
			Variants: vis,
			Reason:   "repeated region changes shape across item variants",
		}
	}
	return plan.unit, nil
}

// prefixRelative rebinds a directive synthesized inside a loop unit to
// the item scope. Paths already rooted at the iteration scope stay as
// they are; pathless directives pass through.
func prefixRelative(data string) string {
	rest, ok := strings.CutPrefix(data, "seam:")
	if !ok {
		return data
	}
	for _, kw := range []string{"if:", "endif:", "each:", "match:"} {
		if p, found := strings.CutPrefix(rest, kw); found {
			if p == "$" || strings.HasPrefix(p, "$.") || strings.HasPrefix(p, "$$") {
				return data
			}
			return "seam:" + kw + "$." + p
		}
	}
	return data
}
