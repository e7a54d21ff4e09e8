package seam

import (
	"errors"
	"strings"
	"testing"
)

// renderVariants produces the variant list ExtractTemplate expects: the
// reference template rendered once per combination, in combination
// order. The data script is skipped so per-combo payloads do not read
// as variation.
func renderVariants(t *testing.T, reference string, axes []Axis) []string {
	t.Helper()
	combos, err := GenerateCombos(axes)
	if err != nil {
		t.Fatalf("GenerateCombos failed: %v", err)
	}
	variants := make([]string, len(combos))
	for i, combo := range combos {
		variants[i] = Inject(reference, combo, WithSkipDataScript())
	}
	return variants
}

// assertRoundTrip extracts a template from the reference's own
// renderings and checks the result replays every combination to the
// same bytes. Returns the extracted template for shape assertions.
func assertRoundTrip(t *testing.T, reference string, axes []Axis) string {
	t.Helper()
	variants := renderVariants(t, reference, axes)
	extracted, err := ExtractTemplate(axes, variants)
	if err != nil {
		t.Fatalf("ExtractTemplate failed: %v", err)
	}
	combos, _ := GenerateCombos(axes)
	for i, combo := range combos {
		if got := Inject(extracted, combo, WithSkipDataScript()); got != variants[i] {
			t.Errorf("combo %d replay: got %q, want %q", i, got, variants[i])
		}
	}
	return extracted
}

func TestExtractBooleanIf(t *testing.T) {
	const reference = `<div><!--seam:if:promo--><span class="promo">Sale!</span><!--seam:endif:promo--></div>`
	axes := []Axis{{Path: "promo", Kind: AxisBoolean}}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractBooleanIfElse(t *testing.T) {
	const reference = `<p><!--seam:if:ok--><b>yes</b><!--seam:else--><i>no</i><!--seam:endif:ok--></p>`
	axes := []Axis{{Path: "ok", Kind: AxisBoolean}}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractBooleanFalseBaseline(t *testing.T) {
	// Declared falsy-first, so the skeleton clones the empty variant and
	// the then-branch is copied in from the truthy one.
	const reference = `<div><!--seam:if:show--><em>x</em><!--seam:endif:show--></div>`
	axes := []Axis{{Path: "show", Kind: AxisBoolean, Values: []any{false, true}}}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractIndependentAxes(t *testing.T) {
	const reference = `<div id="a"><!--seam:if:x--><b>X</b><!--seam:endif:x--></div>` +
		`<div id="b"><!--seam:if:y--><i>Y</i><!--seam:endif:y--></div>`
	axes := []Axis{
		{Path: "x", Kind: AxisBoolean},
		{Path: "y", Kind: AxisBoolean},
	}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractDeferredAxisInElseBranch(t *testing.T) {
	// The inner axis region only exists inside the outer else branch, so
	// it cannot anchor until the outer axis has cloned that branch into
	// the skeleton. Declaring it first forces a retry round.
	const reference = `<!--seam:if:outer-->A<!--seam:else-->` +
		`<span><!--seam:if:inner-->B<!--seam:endif:inner--></span><!--seam:endif:outer-->`
	axes := []Axis{
		{Path: "inner", Kind: AxisBoolean},
		{Path: "outer", Kind: AxisBoolean},
	}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractEachInPlace(t *testing.T) {
	const reference = `<ul><!--seam:each:items--><li>item</li><!--seam:endeach--></ul>`
	populated := []any{map[string]any{}, map[string]any{}}

	t.Run("populated sample first", func(t *testing.T) {
		axes := []Axis{{Path: "items", Kind: AxisArray, Values: []any{populated, []any{}}}}
		if got := assertRoundTrip(t, reference, axes); got != reference {
			t.Errorf("got %q, want %q", got, reference)
		}
	})

	t.Run("empty sample first", func(t *testing.T) {
		axes := []Axis{{Path: "items", Kind: AxisArray, Values: []any{[]any{}, populated}}}
		if got := assertRoundTrip(t, reference, axes); got != reference {
			t.Errorf("got %q, want %q", got, reference)
		}
	})
}

func TestExtractEachUnwrapsListContainer(t *testing.T) {
	// The container only renders when the list is non-empty, so the loop
	// goes inside it and an if guards the whole structure.
	const reference = `<div><!--seam:if:list--><ul><!--seam:each:list--><li>x</li><!--seam:endeach--></ul><!--seam:endif:list--></div>`
	axes := []Axis{{Path: "list", Kind: AxisArray, Values: []any{
		[]any{map[string]any{}, map[string]any{}},
		[]any{},
	}}}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractEachWithElsePlaceholder(t *testing.T) {
	const reference = `<section><!--seam:if:posts--><!--seam:each:posts--><article>p</article><!--seam:endeach-->` +
		`<!--seam:else--><p class="empty">none</p><!--seam:endif:posts--></section>`
	axes := []Axis{{Path: "posts", Kind: AxisArray, Values: []any{
		[]any{map[string]any{}, map[string]any{}},
		[]any{},
	}}}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractArrayPresenceToggle(t *testing.T) {
	// The populated side adds no repeated content, so the axis degrades
	// to a visibility toggle with no loop.
	const reference = `<div><!--seam:if:flag--> <!--seam:endif:flag--></div>`
	axes := []Axis{{Path: "flag", Kind: AxisArray, Values: []any{
		[]any{map[string]any{}},
		[]any{},
	}}}

	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractEachHoistsRepeatedWrapper(t *testing.T) {
	// One identical list container per item reads as accidental
	// wrapping: the first wrapper is kept and the loop moves inside it.
	// The extracted form intentionally does not reproduce the sampled
	// bytes; replaying it emits a single container.
	variants := []string{
		`<div><ul class="row"><li>x</li></ul><ul class="row"><li>x</li></ul></div>`,
		`<div></div>`,
	}
	axes := []Axis{{Path: "rows", Kind: AxisArray, Values: []any{
		[]any{map[string]any{}, map[string]any{}},
		[]any{},
	}}}

	extracted, err := ExtractTemplate(axes, variants)
	if err != nil {
		t.Fatalf("ExtractTemplate failed: %v", err)
	}
	want := `<div><!--seam:if:rows--><ul class="row"><!--seam:each:rows--><li>x</li><!--seam:endeach--></ul><!--seam:endif:rows--></div>`
	if extracted != want {
		t.Errorf("got %q, want %q", extracted, want)
	}

	three := map[string]any{"rows": []any{map[string]any{}, map[string]any{}, map[string]any{}}}
	got := Inject(extracted, three, WithSkipDataScript())
	if got != `<div><ul class="row"><li>x</li><li>x</li><li>x</li></ul></div>` {
		t.Errorf("hoisted replay: got %q", got)
	}
	if got := Inject(extracted, map[string]any{"rows": []any{}}, WithSkipDataScript()); got != `<div></div>` {
		t.Errorf("empty replay: got %q", got)
	}
}

func TestExtractNestedAxisInsideEach(t *testing.T) {
	const reference = `<ul><!--seam:each:posts--><li>post<!--seam:if:$.fea--><em>!</em><!--seam:endif:$.fea--></li><!--seam:endeach--></ul>`
	axes := []Axis{
		{Path: "posts", Kind: AxisArray, Values: []any{
			[]any{map[string]any{}, map[string]any{}},
			[]any{},
		}},
		{Path: "posts.$.fea", Kind: AxisBoolean},
	}

	extracted := assertRoundTrip(t, reference, axes)
	if extracted != reference {
		t.Errorf("got %q, want %q", extracted, reference)
	}

	// Off-sample: items with mixed flags.
	mixed := map[string]any{"posts": []any{
		map[string]any{"fea": true},
		map[string]any{"fea": false},
		map[string]any{"fea": true},
	}}
	got := Inject(extracted, mixed, WithSkipDataScript())
	want := `<ul><li>post<em>!</em></li><li>post</li><li>post<em>!</em></li></ul>`
	if got != want {
		t.Errorf("mixed replay: got %q, want %q", got, want)
	}
}

func TestExtractEnumMatch(t *testing.T) {
	// Shared prefix and suffix around the divergent middle stay outside
	// the match block. Arm literals are the stringified values.
	const reference = `<nav><a>home</a><!--seam:match:tab--><!--seam:when:1--><s>one</s>` +
		`<!--seam:when:2--><s id="2">two</s><!--seam:when:3--><s id="3">three</s><!--seam:endmatch--><a>end</a></nav>`
	axes := []Axis{{Path: "tab", Kind: AxisEnum, Values: []any{1, 2, 3}}}

	extracted := assertRoundTrip(t, reference, axes)
	if extracted != reference {
		t.Errorf("got %q, want %q", extracted, reference)
	}

	// Numeric coercion: a float that stringifies like an arm selects it.
	got := Inject(extracted, map[string]any{"tab": 2.0}, WithSkipDataScript())
	if got != `<nav><a>home</a><s id="2">two</s><a>end</a></nav>` {
		t.Errorf("float arm: got %q", got)
	}
}

func TestExtractMultiAxisComposition(t *testing.T) {
	const reference = `<div><!--seam:if:promo--><b>sale</b><!--seam:endif:promo-->` +
		`<ul><!--seam:each:items--><li>i</li><!--seam:endeach--></ul>` +
		`<!--seam:match:mode--><!--seam:when:list--><p>L</p><!--seam:when:grid--><p class="g">G</p><!--seam:endmatch--></div>`
	axes := []Axis{
		{Path: "promo", Kind: AxisBoolean},
		{Path: "items", Kind: AxisArray, Values: []any{
			[]any{map[string]any{}, map[string]any{}},
			[]any{},
		}},
		{Path: "mode", Kind: AxisEnum, Values: []any{"list", "grid"}},
	}

	variants := renderVariants(t, reference, axes)
	if len(variants) != 8 {
		t.Fatalf("variant count = %d, want 8", len(variants))
	}
	if got := assertRoundTrip(t, reference, axes); got != reference {
		t.Errorf("got %q, want %q", got, reference)
	}
}

func TestExtractVariantCountMismatch(t *testing.T) {
	axes := []Axis{{Path: "show", Kind: AxisBoolean}}
	_, err := ExtractTemplate(axes, []string{`<p>x</p>`})

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	if xerr.Reason != "expected 2 variants for the declared axes, got 1" {
		t.Errorf("reason = %q", xerr.Reason)
	}
}

func TestExtractIdenticalVariants(t *testing.T) {
	axes := []Axis{{Path: "show", Kind: AxisBoolean}}
	_, err := ExtractTemplate(axes, []string{`<p>x</p>`, `<p>x</p>`})

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	if xerr.AxisPath != "show" {
		t.Errorf("axis = %q, want %q", xerr.AxisPath, "show")
	}
	if xerr.Reason != "variants do not differ along this axis" {
		t.Errorf("reason = %q", xerr.Reason)
	}
	if len(xerr.Variants) != 2 || xerr.Variants[0] != 0 || xerr.Variants[1] != 1 {
		t.Errorf("variants = %v, want [0 1]", xerr.Variants)
	}
	want := `extraction failed for axis "show": variants do not differ along this axis (variants 0, 1)`
	if xerr.Error() != want {
		t.Errorf("message = %q, want %q", xerr.Error(), want)
	}
}

func TestExtractArrayMultipleRegions(t *testing.T) {
	axes := []Axis{{Path: "stuff", Kind: AxisArray, Values: []any{
		[]any{map[string]any{}, map[string]any{}},
		[]any{},
	}}}
	variants := []string{
		`<p>a</p><hr><li>i</li><li>i</li>`,
		`<hr>`,
	}
	_, err := ExtractTemplate(axes, variants)

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	if xerr.AxisPath != "stuff" {
		t.Errorf("axis = %q", xerr.AxisPath)
	}
	if xerr.Reason != "axis varies in 2 separate regions" {
		t.Errorf("reason = %q", xerr.Reason)
	}
}

func TestExtractArrayNonDividingUnits(t *testing.T) {
	axes := []Axis{{Path: "items", Kind: AxisArray, Values: []any{
		[]any{map[string]any{}, map[string]any{}},
		[]any{},
	}}}
	variants := []string{
		`<li>a</li><li>b</li>`,
		``,
	}
	_, err := ExtractTemplate(axes, variants)

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	if xerr.Reason != "repeated region does not divide into 2 identical units" {
		t.Errorf("reason = %q", xerr.Reason)
	}
}

func TestExtractChildAxisWithoutUnit(t *testing.T) {
	axes := []Axis{
		{Path: "posts", Kind: AxisArray, Values: []any{
			[]any{map[string]any{}},
			[]any{},
		}},
		{Path: "posts.$.x", Kind: AxisBoolean},
	}
	variants := []string{
		`<div> </div>`, `<div> </div>`,
		`<div></div>`, `<div></div>`,
	}
	_, err := ExtractTemplate(axes, variants)

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	if xerr.AxisPath != "posts" {
		t.Errorf("axis = %q", xerr.AxisPath)
	}
	if xerr.Reason != "child axes declared but the region has no repeated unit" {
		t.Errorf("reason = %q", xerr.Reason)
	}
}

func TestExtractRejectsInvalidAxes(t *testing.T) {
	_, err := ExtractTemplate(nil, nil)
	var aerrs AxisErrors
	if !errors.As(err, &aerrs) {
		t.Fatalf("expected AxisErrors, got %T: %v", err, err)
	}

	// A "$" stuck inside a segment is not an item scope. The axis must
	// be rejected here; otherwise extraction would skip it and hand
	// back a skeleton with the baseline baked in and no marker.
	axes := []Axis{{Path: "a$b", Kind: AxisBoolean}}
	_, err = ExtractTemplate(axes, []string{"<p>on</p>", "<p></p>"})
	if !errors.As(err, &aerrs) {
		t.Fatalf("expected AxisErrors for embedded $, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "path is malformed") {
		t.Errorf("error = %q, want a malformed-path message", err)
	}
}

func TestExtractCollectorCounts(t *testing.T) {
	collector := NewCollector()
	axes := []Axis{{Path: "promo", Kind: AxisBoolean}}
	const reference = `<div><!--seam:if:promo--><b>s</b><!--seam:endif:promo--></div>`

	variants := renderVariants(t, reference, axes)
	if _, err := ExtractTemplate(axes, variants, WithCollector(collector)); err != nil {
		t.Fatalf("ExtractTemplate failed: %v", err)
	}
	m := collector.GetMetrics()
	if m.Extractions != 1 {
		t.Errorf("Extractions = %d, want 1", m.Extractions)
	}
	if m.DiffOps == 0 {
		t.Error("DiffOps = 0, want > 0")
	}
	if m.MaxVariantCount != 2 {
		t.Errorf("MaxVariantCount = %d, want 2", m.MaxVariantCount)
	}

	if _, err := ExtractTemplate(axes, []string{`<p>x</p>`, `<p>x</p>`}, WithCollector(collector)); err == nil {
		t.Fatal("expected an extraction error")
	}
	if m := collector.GetMetrics(); m.ExtractionErrors != 1 {
		t.Errorf("ExtractionErrors = %d, want 1", m.ExtractionErrors)
	}
}
