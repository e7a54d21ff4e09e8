package seam

// templateNode is one node of a parsed skeleton. The parser produces a
// tree of these; the renderer walks it against a data object.
type templateNode interface {
	templateNode()
}

// textNode holds literal template bytes emitted verbatim.
type textNode struct {
	text string
}

// slotNode substitutes the value at path. Text slots escape, html slots
// pass the value through raw.
type slotNode struct {
	path string
	html bool
}

// attrNode queues a dynamic attribute for the start tag that follows
// the marker position.
type attrNode struct {
	path string
	name string
}

// styleNode queues a dynamic style property for the start tag that
// follows the marker position.
type styleNode struct {
	path string
	prop string
}

// ifNode renders then when the value at path is truthy, otherwise els.
type ifNode struct {
	path string
	then []templateNode
	els  []templateNode
}

// eachNode repeats body once per element of the array at path, binding
// "$" to the current element and "$$" to the enclosing one.
type eachNode struct {
	path string
	body []templateNode
}

// matchNode renders the single arm whose value equals the stringified
// value at path. No arm matching means no output.
type matchNode struct {
	path string
	arms []matchArm
}

type matchArm struct {
	value string
	body  []templateNode
}

func (textNode) templateNode()   {}
func (slotNode) templateNode()   {}
func (attrNode) templateNode()   {}
func (styleNode) templateNode()  {}
func (*ifNode) templateNode()    {}
func (*eachNode) templateNode()  {}
func (*matchNode) templateNode() {}
