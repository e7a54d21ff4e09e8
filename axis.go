package seam

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// AxisKind identifies how an axis varies a component's rendered output
type AxisKind string

const (
	AxisBoolean AxisKind = "boolean"
	AxisArray   AxisKind = "array"
	AxisEnum    AxisKind = "enum"
)

// Axis declares one independent dimension along which rendered variants
// differ: a flag that shows or hides a region, an array whose items
// repeat a unit, or an enum selecting between arms. A nested axis path
// uses `$` for the item scope of its parent array, as in
// `posts.$.hasAuthor`.
type Axis struct {
	Path   string   `yaml:"path" validate:"required"`
	Kind   AxisKind `yaml:"kind" validate:"required,oneof=boolean array enum"`
	Values []any    `yaml:"values,omitempty"`
}

// normValues returns the declared values with kind defaults applied:
// a boolean axis without explicit values gets true then false, making
// the truthy variant the skeleton baseline.
func (a Axis) normValues() []any {
	if a.Kind == AxisBoolean && len(a.Values) == 0 {
		return []any{true, false}
	}
	return a.Values
}

// Validate checks a single axis declaration.
func (a Axis) Validate() error {
	errs := a.validateOne()
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (a Axis) validateOne() AxisErrors {
	var errs AxisErrors
	if err := validate.Struct(a); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range verrs {
				var message string
				switch e.Tag() {
				case "required":
					message = fmt.Sprintf("%s is required", strings.ToLower(e.Field()))
				case "oneof":
					message = fmt.Sprintf("%s must be one of %s", strings.ToLower(e.Field()), e.Param())
				default:
					message = fmt.Sprintf("%s is invalid", strings.ToLower(e.Field()))
				}
				errs = append(errs, AxisError{Path: a.Path, Message: message})
			}
			return errs
		}
		errs = append(errs, AxisError{Path: a.Path, Message: err.Error()})
		return errs
	}

	if !validAxisPath(a.Path) {
		errs = append(errs, AxisError{Path: a.Path, Message: "path is malformed"})
		return errs
	}

	vals := a.normValues()
	switch a.Kind {
	case AxisBoolean:
		if len(vals) != 2 {
			errs = append(errs, AxisError{Path: a.Path, Message: "boolean axis needs exactly two values"})
			break
		}
		t, tok := vals[0].(bool)
		f, fok := vals[1].(bool)
		if !tok || !fok || t == f {
			errs = append(errs, AxisError{Path: a.Path, Message: "boolean axis values must be true and false"})
		}
	case AxisArray:
		if len(vals) != 2 {
			errs = append(errs, AxisError{Path: a.Path, Message: "array axis needs an empty and a populated sample"})
			break
		}
		empties, populated := 0, 0
		for _, v := range vals {
			arr, ok := v.([]any)
			if !ok {
				errs = append(errs, AxisError{Path: a.Path, Message: "array axis values must be arrays"})
				return errs
			}
			if len(arr) == 0 {
				empties++
			} else {
				populated++
			}
		}
		if empties != 1 || populated != 1 {
			errs = append(errs, AxisError{Path: a.Path, Message: "array axis needs exactly one empty and one populated sample"})
		}
	case AxisEnum:
		if len(vals) < 2 {
			errs = append(errs, AxisError{Path: a.Path, Message: "enum axis needs at least two values"})
			break
		}
		seen := make(map[string]bool, len(vals))
		for _, v := range vals {
			switch v.(type) {
			case string, bool, int, int64, float64:
			default:
				errs = append(errs, AxisError{Path: a.Path, Message: "enum axis values must be scalars"})
				return errs
			}
			s := stringify(v)
			if strings.Contains(s, "-->") {
				errs = append(errs, AxisError{Path: a.Path, Message: "enum value cannot contain a comment terminator"})
				return errs
			}
			if seen[s] {
				errs = append(errs, AxisError{Path: a.Path, Message: fmt.Sprintf("enum value %q repeats", s)})
				return errs
			}
			seen[s] = true
		}
	}
	return errs
}

// ValidateAxes checks a whole axis set: each axis on its own, path
// uniqueness, and that every nested path hangs off a declared array
// axis.
func ValidateAxes(axes []Axis) error {
	var errs AxisErrors
	if len(axes) == 0 {
		return AxisErrors{{Path: "", Message: "at least one axis is required"}}
	}

	byPath := make(map[string]Axis, len(axes))
	for _, ax := range axes {
		errs = append(errs, ax.validateOne()...)
		if _, dup := byPath[ax.Path]; dup {
			errs = append(errs, AxisError{Path: ax.Path, Message: "path declared twice"})
		}
		byPath[ax.Path] = ax
	}
	for _, ax := range axes {
		i := strings.LastIndex(ax.Path, ".$.")
		if i < 0 {
			continue
		}
		parent, ok := byPath[ax.Path[:i]]
		if !ok {
			errs = append(errs, AxisError{Path: ax.Path, Message: "nested path has no parent axis"})
		} else if parent.Kind != AxisArray {
			errs = append(errs, AxisError{Path: ax.Path, Message: "nested path parent must be an array axis"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validAxisPath accepts dotted paths whose segments are non-empty and
// marker-safe; `$` may appear only between segments as the item scope
// of a parent array.
func validAxisPath(path string) bool {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		switch {
		case s == "":
			return false
		case s == "$":
			if i == 0 || i == len(segs)-1 {
				return false
			}
		case strings.Contains(s, "$"):
			return false
		case strings.ContainsAny(s, " \t\r\n<>"):
			return false
		case strings.Contains(s, "--"):
			return false
		}
	}
	return true
}

type axisManifest struct {
	Axes []Axis `yaml:"axes"`
}

// ParseAxisManifest reads a YAML axis declaration of the form
//
//	axes:
//	  - path: show
//	    kind: boolean
//	  - path: items
//	    kind: array
//	    values: [[], [{}, {}]]
//
// and returns the validated axis set.
func ParseAxisManifest(data []byte) ([]Axis, error) {
	var m axisManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse axis manifest: %w", err)
	}
	if len(m.Axes) == 0 {
		return nil, fmt.Errorf("axis manifest declares no axes")
	}
	if err := ValidateAxes(m.Axes); err != nil {
		return nil, err
	}
	return m.Axes, nil
}
