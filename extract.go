package seam

import (
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/canmi21/seam/internal/extract"
)

// ExtractTemplate synthesizes a directive-annotated template from
// rendered variants. variants[i] must be the HTML produced by rendering
// the component with the i-th data object from GenerateCombos(axes).
// The result is a skeleton that Inject can replay for any assignment of
// the axis values, not just the sampled ones.
//
// A failure means the variants do not vary consistently along some
// axis; the returned error is an *ExtractionError naming that axis and
// the variant indices that exposed the mismatch.
func ExtractTemplate(axes []Axis, variants []string, opts ...Option) (string, error) {
	cfg := newConfig(opts...)
	if err := ValidateAxes(axes); err != nil {
		return "", err
	}
	out, err := extract.Run(toEngineAxes(axes), variants, cfg.Logger, cfg.Collector)
	if err != nil {
		var d *extract.Diagnostic
		if errors.As(err, &d) {
			return "", &ExtractionError{AxisPath: d.AxisPath, Variants: d.Variants, Reason: d.Reason}
		}
		return "", err
	}
	cfg.Logger.Debug("Extracted template",
		zap.Int("variant_count", len(variants)),
		zap.Int("template_bytes", len(out)))
	return out, nil
}

// toEngineAxes resolves raw axis values into the engine's precomputed
// form. Truthiness and arm stringification reuse the renderer's own
// coercions, so the extractor and the injector agree by construction.
func toEngineAxes(axes []Axis) []extract.Axis {
	out := make([]extract.Axis, len(axes))
	for i, ax := range axes {
		vals := ax.normValues()
		ea := extract.Axis{Path: ax.Path, Count: len(vals)}
		switch ax.Kind {
		case AxisBoolean:
			ea.Kind = extract.Boolean
			for vi, v := range vals {
				if isTruthy(v) {
					ea.True = vi
				}
			}
		case AxisArray:
			ea.Kind = extract.Array
			for vi, v := range vals {
				if arr, ok := v.([]any); ok && len(arr) > 0 {
					ea.Pop = vi
					ea.Len = len(arr)
				}
			}
		case AxisEnum:
			ea.Kind = extract.Enum
			ea.Arms = make([]string, len(vals))
			for vi, v := range vals {
				ea.Arms[vi] = stringify(v)
			}
		}
		out[i] = ea
	}
	return out
}

// GenerateCombos enumerates the data objects an external renderer must
// produce variants for, in declaration order with the last axis varying
// fastest. Each combo is a ready-to-render object: dotted paths build
// nested maps, array axes contribute their sample value, and a nested
// axis patches its value onto every item of the parent's populated
// sample. Sample values are deep-copied, so mutating one combo never
// leaks into another.
func GenerateCombos(axes []Axis) ([]map[string]any, error) {
	if err := ValidateAxes(axes); err != nil {
		return nil, err
	}

	// Parents must land in the data object before nested axes patch
	// their items, whatever order the axes were declared in.
	order := make([]int, len(axes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return strings.Count(axes[order[a]].Path, "$") < strings.Count(axes[order[b]].Path, "$")
	})

	values := make([][]any, len(axes))
	total := 1
	for i, ax := range axes {
		values[i] = ax.normValues()
		total *= len(values[i])
	}

	combos := make([]map[string]any, 0, total)
	idx := make([]int, len(axes))
	for {
		data := make(map[string]any)
		for _, i := range order {
			setPath(data, strings.Split(axes[i].Path, "."), values[i][idx[i]])
		}
		combos = append(combos, data)

		k := len(idx) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(values[k]) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			break
		}
	}
	return combos, nil
}

// setPath writes a deep-copied value at a dotted path, creating
// intermediate maps. A `$` segment fans the remaining path out over
// every item of the array already present at that point; with the
// empty sample there are no items, so the nested value simply does not
// appear in that combo.
func setPath(m map[string]any, segs []string, v any) {
	seg := segs[0]
	if len(segs) == 1 {
		m[seg] = deepCopy(v)
		return
	}
	if segs[1] == "$" {
		arr, _ := m[seg].([]any)
		for _, item := range arr {
			if im, ok := item.(map[string]any); ok {
				setPath(im, segs[2:], v)
			}
		}
		return
	}
	child, ok := m[seg].(map[string]any)
	if !ok {
		child = make(map[string]any)
		m[seg] = child
	}
	setPath(child, segs[1:], v)
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	}
	return v
}
