package seam

import (
	"fmt"
	"strings"
)

// AxisError reports a validation failure for a single axis declaration
type AxisError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e AxisError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// AxisErrors collects every validation failure across an axis set
type AxisErrors []AxisError

func (m AxisErrors) Error() string {
	messages := make([]string, len(m))
	for i, err := range m {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// ExtractionError reports a structural failure: the rendered variants
// do not vary consistently along the named axis, so no directive can
// reproduce them. Variants lists the renderings that were compared
// when the mismatch surfaced.
type ExtractionError struct {
	AxisPath string `json:"axis_path"`
	Variants []int  `json:"variants"`
	Reason   string `json:"reason"`
}

func (e *ExtractionError) Error() string {
	if len(e.Variants) == 0 {
		return fmt.Sprintf("extraction failed for axis %q: %s", e.AxisPath, e.Reason)
	}
	parts := make([]string, len(e.Variants))
	for i, v := range e.Variants {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("extraction failed for axis %q: %s (variants %s)", e.AxisPath, e.Reason, strings.Join(parts, ", "))
}
