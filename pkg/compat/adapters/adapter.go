// Package adapters implements the per-framework behavioral strategies
// for discovering editable images and attaching event listeners in the
// host page.
//
// The variant set is closed: WordPress, React, Vue, plain HTML, and a
// caller-driven custom variant. Every variant exposes the same
// contract; what differs is which selectors, listener phase, and host
// hooks are wired. Callers never branch per type.
package adapters

import (
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/embedkit/pkg/compat/detect"
	"github.com/entrhq/embedkit/pkg/dom"
	"github.com/entrhq/embedkit/pkg/logging"
)

// Adapter is the behavioral strategy for one host technology.
type Adapter interface {
	// FrameworkType identifies the variant.
	FrameworkType() detect.Framework

	// FindEditableImages returns every image element the widget may
	// attach overlay behavior to. The result is recomputed on each
	// call, never cached. DOM query failures yield an empty result.
	FindEditableImages() []dom.Element

	// AttachEventListeners registers the named handlers on the element
	// using the listener mode appropriate to the framework.
	AttachEventListeners(el dom.Element, handlers HandlerMap)

	// Cleanup releases every resource the adapter registered: Go-side
	// handlers and any host hook subscriptions. Idempotent.
	Cleanup()
}

// Event describes a host-page event delivered to a Go handler.
type Event struct {
	// Type is the DOM event type, e.g. "click".
	Type string

	// TargetSrc and TargetAlt describe the image the listener was
	// attached to.
	TargetSrc string
	TargetAlt string
}

// Handler consumes events from the host page.
type Handler func(Event)

// HandlerMap maps DOM event names to handlers.
type HandlerMap map[string]Handler

// ListenerOptions selects the registration mode for page listeners.
// Component-framework adapters use capture+passive so the host's own
// render-pass listeners cannot shadow the widget's; CMS and plain-HTML
// adapters use the default bubble mode.
type ListenerOptions struct {
	Capture bool
	Passive bool
}

// Deps carries everything an adapter needs at construction time.
type Deps struct {
	Page   dom.Page
	Logger *logging.Logger

	// Notify is called when the host framework reports a re-render or
	// readiness change. May be nil.
	Notify func()

	// CustomSelectors drives the custom variant's discovery.
	CustomSelectors []string
}

// New constructs the adapter for the given framework type. Optional
// host integrations (CMS hooks, devtools subscriptions) that fail to
// register degrade the adapter rather than failing construction.
func New(fw detect.Framework, deps Deps) (Adapter, error) {
	switch fw {
	case detect.FrameworkWordPress:
		return newWordPress(deps), nil
	case detect.FrameworkReact:
		return newReact(deps), nil
	case detect.FrameworkVue:
		return newVue(deps), nil
	case detect.FrameworkHTML:
		return newPlainHTML(deps), nil
	case detect.FrameworkCustom:
		return newCustom(deps), nil
	}
	return nil, fmt.Errorf("no adapter for framework %q", fw)
}

// base carries the behavior shared by every variant. Variants differ
// by configuration, not contract shape.
type base struct {
	page      dom.Page
	logger    *logging.Logger
	binder    *Binder
	fw        detect.Framework
	selectors []string

	// opts is the listener registration mode for this variant.
	opts ListenerOptions

	// teardownScript undoes the variant's host hook wiring, if any.
	teardownScript string

	mu      sync.Mutex
	cleaned bool
}

func newBase(fw detect.Framework, deps Deps, selectors []string, opts ListenerOptions) *base {
	b := &base{
		page:      deps.Page,
		logger:    deps.Logger,
		fw:        fw,
		selectors: selectors,
		opts:      opts,
	}
	binder, err := NewBinder(deps.Page, deps.Logger)
	if err != nil {
		// Degraded: discovery still works, listener attachment becomes
		// a logged no-op.
		if deps.Logger != nil {
			deps.Logger.Warnf("%s adapter: event binding unavailable: %v", fw, err)
		}
	} else {
		b.binder = binder
	}
	return b
}

// FrameworkType implements Adapter.
func (b *base) FrameworkType() detect.Framework {
	return b.fw
}

// FindEditableImages implements Adapter.
func (b *base) FindEditableImages() []dom.Element {
	if len(b.selectors) == 0 {
		return nil
	}
	els, err := b.page.QuerySelectorAll(strings.Join(b.selectors, ", "))
	if err != nil {
		if b.logger != nil {
			b.logger.Warnf("%s adapter: image query failed: %v", b.fw, err)
		}
		return nil
	}
	return els
}

// AttachEventListeners implements Adapter.
func (b *base) AttachEventListeners(el dom.Element, handlers HandlerMap) {
	if b.binder == nil {
		if b.logger != nil {
			b.logger.Warnf("%s adapter: dropping listener attachment, binding unavailable", b.fw)
		}
		return
	}
	for event, handler := range handlers {
		b.binder.Attach(el, event, b.opts, handler)
	}
}

// Cleanup implements Adapter.
func (b *base) Cleanup() {
	b.mu.Lock()
	if b.cleaned {
		b.mu.Unlock()
		return
	}
	b.cleaned = true
	b.mu.Unlock()

	if b.teardownScript != "" {
		if _, err := b.page.Evaluate(b.teardownScript); err != nil && b.logger != nil {
			b.logger.Warnf("%s adapter: hook teardown failed: %v", b.fw, err)
		}
	}
	if b.binder != nil {
		b.binder.Release()
	}
}

// installHook runs a guarded hook-registration script. Failures are
// logged and leave the adapter usable without hook-driven updates.
func (b *base) installHook(script string) {
	res, err := b.page.Evaluate(script)
	if err != nil {
		if b.logger != nil {
			b.logger.Warnf("%s adapter: hook registration failed: %v", b.fw, err)
		}
		return
	}
	if ok, _ := res.(bool); !ok && b.logger != nil {
		b.logger.Debugf("%s adapter: host hook not present, continuing without update notifications", b.fw)
	}
}
