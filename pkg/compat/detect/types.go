package detect

import "fmt"

// Framework identifies a host front-end technology variant. The set is
// closed: unknown hosts classify as FrameworkHTML, and FrameworkCustom
// exists only as a caller-forced override.
type Framework string

const (
	FrameworkWordPress Framework = "wordpress"
	FrameworkReact     Framework = "react"
	FrameworkVue       Framework = "vue"
	FrameworkHTML      Framework = "html"

	// FrameworkCustom is never produced by detection. It selects the
	// adapter driven purely by caller-supplied selectors.
	FrameworkCustom Framework = "custom"
)

// Valid reports whether f names a known variant.
func (f Framework) Valid() bool {
	switch f {
	case FrameworkWordPress, FrameworkReact, FrameworkVue, FrameworkHTML, FrameworkCustom:
		return true
	}
	return false
}

// ParseFramework converts a string to a Framework.
func ParseFramework(s string) (Framework, error) {
	f := Framework(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown framework %q", s)
	}
	return f, nil
}

// Info is an immutable snapshot of one classification pass. It is
// recomputed whole on every pass; previous values are discarded, never
// merged.
type Info struct {
	// Type is the selected variant.
	Type Framework `json:"type"`

	// Detected is true once a classification pass has run, including
	// the no-signal default.
	Detected bool `json:"detected"`

	// Confidence is the normalized certainty in [0,1] for Type. It is
	// relative per type, not a probability distribution across types.
	Confidence float64 `json:"confidence"`

	// Version is populated only when a signal exposed one.
	Version string `json:"version,omitempty"`

	// Evidence lists the human-readable notes of every signal that
	// argued for Type.
	Evidence []string `json:"evidence,omitempty"`
}
