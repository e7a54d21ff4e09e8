package seam

import "testing"

func TestAttrSpliceOrder(t *testing.T) {
	const tpl = `<!--seam:id:attr:id--><!--seam:cls:attr:class--><!--seam:dis:attr:disabled--><button type="submit">Go</button>`

	data := map[string]any{"id": "b1", "cls": "big", "dis": true}
	want := `<button id="b1" class="big" disabled="" type="submit">Go</button>`
	if got := Inject(tpl, data, WithSkipDataScript()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAttrSpliceBooleanAttr(t *testing.T) {
	const tpl = `<!--seam:dis:attr:disabled--><input name="q">`

	if got := Inject(tpl, map[string]any{"dis": true}, WithSkipDataScript()); got != `<input disabled="" name="q">` {
		t.Errorf("true: got %q", got)
	}
	if got := Inject(tpl, map[string]any{"dis": false}, WithSkipDataScript()); got != `<input name="q">` {
		t.Errorf("false: got %q", got)
	}

	// Booleans stringify on attributes without presence semantics.
	const dataTpl = `<!--seam:on:attr:data-on--><i>x</i>`
	if got := Inject(dataTpl, map[string]any{"on": true}, WithSkipDataScript()); got != `<i data-on="true">x</i>` {
		t.Errorf("data attr: got %q", got)
	}
}

func TestAttrSpliceValueEscaping(t *testing.T) {
	const tpl = `<!--seam:v:attr:title--><div>x</div>`

	data := map[string]any{"v": `a"b&c<d>'e`}
	want := `<div title="a&quot;b&amp;c&lt;d&gt;&#x27;e">x</div>`
	if got := Inject(tpl, data, WithSkipDataScript()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAttrSpliceNilDropsAttribute(t *testing.T) {
	const tpl = `<!--seam:v:attr:title--><div>x</div>`

	if got := Inject(tpl, map[string]any{"v": nil}, WithSkipDataScript()); got != `<div>x</div>` {
		t.Errorf("got %q", got)
	}
}

func TestStyleSpliceNewAttribute(t *testing.T) {
	const tpl = `<!--seam:w:style:width--><!--seam:o:style:opacity--><div>x</div>`

	data := map[string]any{"w": 42, "o": 0.5}
	want := `<div style="width:42px;opacity:0.5">x</div>`
	if got := Inject(tpl, data, WithSkipDataScript()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStyleSpliceUnits(t *testing.T) {
	tests := []struct {
		prop string
		v    any
		want string
	}{
		{"width", 42, `width:42px`},
		{"width", 1.5, `width:1.5px`},
		{"z-index", 3, `z-index:3`},
		{"opacity", 0.25, `opacity:0.25`},
		{"flex-grow", 2, `flex-grow:2`},
		{"margin", "0 auto", `margin:0 auto`},
	}
	for _, tt := range tests {
		tpl := `<!--seam:v:style:` + tt.prop + `--><div>x</div>`
		want := `<div style="` + tt.want + `">x</div>`
		if got := Inject(tpl, map[string]any{"v": tt.v}, WithSkipDataScript()); got != want {
			t.Errorf("%s=%v: got %q, want %q", tt.prop, tt.v, got, want)
		}
	}
}

func TestStyleSpliceStaticMerge(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{
			name: "appends to quoted value",
			tag:  `<div style="color:red">x</div>`,
			want: `<div style="color:red;width:42px">x</div>`,
		},
		{
			name: "trailing semicolon not doubled",
			tag:  `<div style="color:red; ">x</div>`,
			want: `<div style="color:red;width:42px">x</div>`,
		},
		{
			name: "empty static value",
			tag:  `<div style="">x</div>`,
			want: `<div style="width:42px">x</div>`,
		},
		{
			name: "unquoted static value gets quoted",
			tag:  `<div style=color:red>x</div>`,
			want: `<div style="color:red;width:42px">x</div>`,
		},
		{
			name: "bare style attribute",
			tag:  `<div style>x</div>`,
			want: `<div style="width:42px">x</div>`,
		},
		{
			name: "single quoted value",
			tag:  `<div style='color:red'>x</div>`,
			want: `<div style='color:red;width:42px'>x</div>`,
		},
		{
			name: "style after other attributes",
			tag:  `<div id="a" style="color:red" class="b">x</div>`,
			want: `<div id="a" style="color:red;width:42px" class="b">x</div>`,
		},
		{
			name: "no static style",
			tag:  `<div id="a">x</div>`,
			want: `<div style="width:42px" id="a">x</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := `<!--seam:w:style:width-->` + tt.tag
			if got := Inject(tpl, map[string]any{"w": 42}, WithSkipDataScript()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStyleSpliceSkipsFalsyValues(t *testing.T) {
	const tpl = `<!--seam:a:style:width--><!--seam:b:style:color--><div>x</div>`

	data := map[string]any{"a": nil, "b": false}
	if got := Inject(tpl, data, WithSkipDataScript()); got != `<div>x</div>` {
		t.Errorf("got %q", got)
	}
}

func TestSpliceTargetsNextStartTag(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{
			name: "skips text and end tags",
			tpl:  `<p>a<!--seam:c:attr:class-->b</p><div>x</div>`,
			want: `<p>ab</p><div class="v">x</div>`,
		},
		{
			name: "skips rendered comments",
			tpl:  `<!--seam:c:attr:class--><!--note--><span>x</span>`,
			want: `<!--note--><span class="v">x</span>`,
		},
		{
			name: "quoted bracket in static attr",
			tpl:  `<!--seam:c:attr:class--><div title="a>b">x</div>`,
			want: `<div class="v" title="a>b">x</div>`,
		},
		{
			name: "self closing tag",
			tpl:  `<!--seam:c:attr:class--><img src="x"/>`,
			want: `<img class="v" src="x"/>`,
		},
		{
			name: "no following tag drops the splice",
			tpl:  `<p>x</p><!--seam:c:attr:class-->end`,
			want: `<p>x</p>end`,
		},
		{
			name: "doctype is not a start tag",
			tpl:  `<!--seam:c:attr:class--><!DOCTYPE html><html>x</html>`,
			want: `<!DOCTYPE html><html class="v">x</html>`,
		},
	}

	data := map[string]any{"c": "v"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inject(tt.tpl, data, WithSkipDataScript()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpliceUnterminatedTagUnchanged(t *testing.T) {
	const tpl = `<!--seam:c:attr:class--><div class="x`

	if got := Inject(tpl, map[string]any{"c": "v"}, WithSkipDataScript()); got != `<div class="x` {
		t.Errorf("got %q", got)
	}
}

func TestSpliceInsideEach(t *testing.T) {
	const tpl = `<!--seam:each:rows--><!--seam:$.c:attr:class--><tr><td>x</td></tr><!--seam:endeach-->`

	data := map[string]any{"rows": []any{
		map[string]any{"c": "odd"},
		map[string]any{"c": "even"},
	}}
	want := `<tr class="odd"><td>x</td></tr><tr class="even"><td>x</td></tr>`
	if got := Inject(tpl, data, WithSkipDataScript()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSpliceMixedAttrAndStyleOrder(t *testing.T) {
	const tpl = `<!--seam:a:attr:id--><!--seam:w:style:width--><!--seam:b:attr:class--><!--seam:h:style:height--><div>x</div>`

	data := map[string]any{"a": "i1", "w": 10, "b": "c1", "h": 20}
	// Style properties merge into one attribute at the first style
	// marker's position.
	want := `<div id="i1" style="width:10px;height:20px" class="c1">x</div>`
	if got := Inject(tpl, data, WithSkipDataScript()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSpliceMetricsCount(t *testing.T) {
	collector := NewCollector()
	const tpl = `<!--seam:a:attr:id--><div>x</div><!--seam:b:attr:id--><span>y</span>`

	Inject(tpl, map[string]any{"a": "1", "b": "2"}, WithSkipDataScript(), WithCollector(collector))
	if m := collector.GetMetrics(); m.AttrSplices != 2 {
		t.Errorf("attr splices = %d, want 2", m.AttrSplices)
	}
}
