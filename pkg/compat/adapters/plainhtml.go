package adapters

import (
	"github.com/entrhq/embedkit/pkg/compat/detect"
	"github.com/entrhq/embedkit/pkg/dom"
)

// MinImageSizeScript filters out icons and spacers: an editable image
// must render (or declare) a meaningful size. Measurement failures
// keep the element rather than dropping it.
const MinImageSizeScript = `(el) => {
	try {
		const r = el.getBoundingClientRect();
		const w = r.width || el.naturalWidth || 0;
		const h = r.height || el.naturalHeight || 0;
		return w >= 48 && h >= 48;
	} catch (e) { return true; }
}`

type plainHTMLAdapter struct {
	*base
}

// newPlainHTML builds the default variant for hosts with no detected
// framework. Discovery considers every img and filters by rendered
// size; nothing re-renders behind the widget's back, so listeners use
// the default bubble mode.
func newPlainHTML(deps Deps) Adapter {
	return &plainHTMLAdapter{
		base: newBase(detect.FrameworkHTML, deps, []string{"img"}, ListenerOptions{}),
	}
}

// FindEditableImages applies the size filter on top of the base query.
func (a *plainHTMLAdapter) FindEditableImages() []dom.Element {
	els := a.base.FindEditableImages()
	if len(els) == 0 {
		return els
	}
	kept := make([]dom.Element, 0, len(els))
	for _, el := range els {
		res, err := el.Evaluate(MinImageSizeScript)
		if err != nil {
			// Degrade to unfiltered rather than dropping the image.
			kept = append(kept, el)
			continue
		}
		if ok, isBool := res.(bool); !isBool || ok {
			kept = append(kept, el)
		}
	}
	return kept
}
