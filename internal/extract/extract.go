package extract

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/canmi21/seam/internal/dom"
	"github.com/canmi21/seam/internal/metrics"
)

// AxisKind discriminates the three variation kinds an axis can declare
type AxisKind uint8

const (
	Boolean AxisKind = iota
	Array
	Enum
)

func (k AxisKind) String() string {
	switch k {
	case Boolean:
		return "boolean"
	case Array:
		return "array"
	case Enum:
		return "enum"
	}
	return "unknown"
}

// Axis is the engine-facing form of one variation dimension. The public
// package resolves raw axis values down to these fields, so the engine
// never re-derives truthiness or value stringification.
type Axis struct {
	Path  string
	Kind  AxisKind
	Count int      // number of declared values; drives variant indexing
	True  int      // Boolean: value index that renders the truthy variant
	Pop   int      // Array: value index of the populated sample
	Len   int      // Array: number of items in the populated sample
	Arms  []string // Enum: when-arm literals by value index
}

// Diagnostic is a build-time extraction failure tied to an axis and the
// variant indices that exposed it.
type Diagnostic struct {
	AxisPath string
	Variants []int
	Reason   string
}

func (d *Diagnostic) Error() string {
	switch {
	case d.AxisPath == "":
		return "extraction failed: " + d.Reason
	case len(d.Variants) == 0:
		return fmt.Sprintf("extraction failed for axis %q: %s", d.AxisPath, d.Reason)
	default:
		return fmt.Sprintf("extraction failed for axis %q: %s (variants %s)", d.AxisPath, d.Reason, joinInts(d.Variants))
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

// Engine splices directive markers into a skeleton cloned from the
// baseline variant (every axis at its first value). Axes resolve under a
// fixpoint loop: an axis whose region lives inside another axis's arm or
// else branch anchors only after that axis has been resolved, so
// deferred axes are retried until a full round makes no progress.
//
// mirror maps nodes of the variant trees to their skeleton counterparts.
// Baseline nodes enter it when the skeleton is cloned; content copied in
// from non-baseline variants (else branches, match arms, loop units) is
// registered as it is spliced, which is what lets later axes anchor
// inside it. Nested array axes run a child engine over the repeated unit
// with the same mirror.
type Engine struct {
	axes    []Axis
	roots   []*dom.Node // one synthetic holder per variant
	rootSet map[*dom.Node]bool
	mirror  map[*dom.Node]*dom.Node

	skel       *dom.Node   // skeleton holder
	skelParent *dom.Node   // parent receiving root-level splices
	skelAfter  *dom.Node   // root-level splices land after this node; nil = at the start
	spliced    []*dom.Node // directive comments this engine created
	viMap      []int       // local variant index -> reported index; nil = identity

	log     *zap.Logger
	metrics *metrics.Collector
}

// Run extracts a marker-annotated skeleton from rendered variants.
// variants[i] is the HTML for the i-th combination of axis values,
// enumerated in declaration order with the last axis varying fastest.
func Run(axes []Axis, variants []string, log *zap.Logger, collector *metrics.Collector) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if want := Total(axes); len(variants) != want {
		collector.IncrementExtractionError()
		return "", &Diagnostic{
			Reason: fmt.Sprintf("expected %d variants for the declared axes, got %d", want, len(variants)),
		}
	}
	collector.RecordVariantCount(int64(len(variants)))

	e := &Engine{
		axes:    axes,
		rootSet: make(map[*dom.Node]bool),
		mirror:  make(map[*dom.Node]*dom.Node),
		log:     log,
		metrics: collector,
	}
	for _, v := range variants {
		root := holder(dom.Parse(v))
		e.roots = append(e.roots, root)
		e.rootSet[root] = true
	}
	e.skel = e.roots[0].Clone(e.mirror)
	e.skelParent = e.skel
	for _, r := range e.roots {
		e.mirror[r] = e.skel
	}

	if err := e.run(); err != nil {
		collector.IncrementExtractionError()
		log.Warn("Extraction failed", zap.Error(err))
		return "", err
	}
	collector.IncrementExtraction()
	log.Debug("Extracted skeleton",
		zap.Int("variants", len(variants)),
		zap.Int("axes", len(axes)),
		zap.Int("directives", len(e.spliced)))
	return dom.Serialize(e.skel.Children), nil
}

func holder(children []*dom.Node) *dom.Node {
	return &dom.Node{Kind: dom.KindElement, Tag: "#holder", Children: children}
}

// run resolves every axis this engine owns. Axes nested under an array
// path ($) belong to that array's child engine and are skipped here;
// a $-bearing path no sibling array claims would otherwise never be
// resolved, so it fails up front instead of silently dropping out.
func (e *Engine) run() error {
	var unresolved []int
	for i, ax := range e.axes {
		if !strings.Contains(ax.Path, "$") {
			unresolved = append(unresolved, i)
			continue
		}
		if !e.claimed(i) {
			return &Diagnostic{
				AxisPath: ax.Path,
				Reason:   "item-scoped axis has no parent array axis",
			}
		}
	}
	for len(unresolved) > 0 {
		progress := false
		var next []int
		for _, ai := range unresolved {
			done, err := e.resolveAxis(ai)
			if err != nil {
				return err
			}
			if done {
				progress = true
			} else {
				next = append(next, ai)
			}
		}
		unresolved = next
		if !progress {
			break
		}
	}
	if len(unresolved) > 0 {
		ax := e.axes[unresolved[0]]
		return &Diagnostic{
			AxisPath: ax.Path,
			Variants: e.baselineGroup(unresolved[0]),
			Reason:   "variants do not differ along this axis",
		}
	}
	return nil
}

func (e *Engine) resolveAxis(ai int) (bool, error) {
	for _, ctx := range e.contexts(ai) {
		var done bool
		var err error
		switch e.axes[ai].Kind {
		case Boolean:
			done, err = e.resolveBoolean(ai, ctx)
		case Array:
			done, err = e.resolveArray(ai, ctx)
		case Enum:
			done, err = e.resolveEnum(ai, ctx)
		}
		if err != nil {
			return false, err
		}
		if done {
			e.log.Debug("Resolved axis",
				zap.String("path", e.axes[ai].Path),
				zap.String("kind", e.axes[ai].Kind.String()))
			return true, nil
		}
	}
	return false, nil
}

// contexts yields the assignments walked when isolating one axis: the
// baseline first, then every other axis pinned at each of its
// non-baseline values. Pinned contexts reach regions that only exist
// inside another axis's arm or else branch.
func (e *Engine) contexts(ai int) [][]int {
	out := [][]int{make([]int, len(e.axes))}
	for j, ax := range e.axes {
		if j == ai || strings.Contains(ax.Path, "$") {
			continue
		}
		for v := 1; v < ax.Count; v++ {
			c := make([]int, len(e.axes))
			c[j] = v
			out = append(out, c)
		}
	}
	return out
}

// comboIndex maps a value-index assignment to its variant index.
func (e *Engine) comboIndex(asn []int) int {
	idx := 0
	for i, ax := range e.axes {
		idx = idx*ax.Count + asn[i]
	}
	return idx
}

// Total is the number of variants the axes require.
func Total(axes []Axis) int {
	t := 1
	for _, ax := range axes {
		t *= ax.Count
	}
	return t
}

// vi maps a local variant index to the index reported in diagnostics;
// child engines report in terms of the top-level variant list.
func (e *Engine) vi(local int) int {
	if e.viMap != nil {
		return e.viMap[local]
	}
	return local
}

// baselineGroup lists the reported variant indices that isolate an axis
// at the baseline context, for diagnostics.
func (e *Engine) baselineGroup(ai int) []int {
	asn := make([]int, len(e.axes))
	out := make([]int, e.axes[ai].Count)
	for v := 0; v < e.axes[ai].Count; v++ {
		asn[ai] = v
		out[v] = e.vi(e.comboIndex(asn))
	}
	return out
}

// assign builds an assignment from a context with one axis overridden.
func assign(ctx []int, ai, v int) []int {
	asn := make([]int, len(ctx))
	copy(asn, ctx)
	asn[ai] = v
	return asn
}

func (e *Engine) directive(text string) *dom.Node {
	c := dom.NewComment(text)
	e.spliced = append(e.spliced, c)
	return c
}

// childAxes returns the indices of axes nested directly or transitively
// under an array axis path.
func (e *Engine) childAxes(parent string) []int {
	var out []int
	prefix := parent + ".$."
	for i, ax := range e.axes {
		if strings.HasPrefix(ax.Path, prefix) {
			out = append(out, i)
		}
	}
	return out
}

// claimed reports whether some sibling array axis's item scope owns
// axis i, meaning that sibling's child engine will resolve it.
func (e *Engine) claimed(i int) bool {
	for j, p := range e.axes {
		if j == i || p.Kind != Array {
			continue
		}
		if strings.HasPrefix(e.axes[i].Path, p.Path+".$.") {
			return true
		}
	}
	return false
}

func indexOf(parent, child *dom.Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func insertAt(parent *dom.Node, i int, nodes ...*dom.Node) {
	tail := append([]*dom.Node{}, parent.Children[i:]...)
	parent.Children = append(append(parent.Children[:i], nodes...), tail...)
}

func removeRange(parent *dom.Node, i, j int) {
	parent.Children = append(parent.Children[:i], parent.Children[j+1:]...)
}

// insertPos finds where content with no resident skeleton nodes goes:
// right after the image of the anchored-side node preceding the region,
// or at the engine's root boundary when the region opens its parent.
// Returns -1 when the position cannot be anchored yet.
func (e *Engine) insertPos(parentA, prevA, skelParent *dom.Node) int {
	if prevA != nil {
		img := e.mirror[prevA]
		if img == nil {
			return -1
		}
		if i := indexOf(skelParent, img); i >= 0 {
			return i + 1
		}
		return -1
	}
	if e.rootSet[parentA] && e.skelAfter != nil {
		if i := indexOf(skelParent, e.skelAfter); i >= 0 {
			return i + 1
		}
		return -1
	}
	return 0
}

// span locates the contiguous skeleton index range covered by the
// images of the given anchored-tree nodes. ok is false when any image
// is missing or not under skelParent.
func (e *Engine) span(skelParent *dom.Node, nodes []*dom.Node) (int, int, bool) {
	first := e.mirror[nodes[0]]
	last := e.mirror[nodes[len(nodes)-1]]
	if first == nil || last == nil {
		return 0, 0, false
	}
	i := indexOf(skelParent, first)
	j := indexOf(skelParent, last)
	if i < 0 || j < 0 {
		return 0, 0, false
	}
	return i, j, true
}
