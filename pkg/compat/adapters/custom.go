package adapters

import "github.com/entrhq/embedkit/pkg/compat/detect"

type customAdapter struct {
	*base
}

// newCustom builds the caller-driven variant: discovery uses only the
// configured selectors, with no framework assumptions and no host
// hooks. Bubble-mode listeners, like the plain-HTML variant.
func newCustom(deps Deps) Adapter {
	a := &customAdapter{
		base: newBase(detect.FrameworkCustom, deps, deps.CustomSelectors, ListenerOptions{}),
	}
	if len(deps.CustomSelectors) == 0 && deps.Logger != nil {
		deps.Logger.Warnf("custom adapter constructed without selectors, discovery will be empty")
	}
	return a
}
