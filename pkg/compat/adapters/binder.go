package adapters

import (
	"fmt"
	"sync"

	"github.com/entrhq/embedkit/pkg/dom"
	"github.com/entrhq/embedkit/pkg/logging"
)

// Binding names exposed into the host page. Exposing is
// replace-on-conflict (see dom.Page.ExposeFunction), so each adapter
// generation takes over the names and strands the previous
// generation's page-side listeners, which then emit ids with no Go
// handler and are dropped.
const (
	// EmitBinding routes page events to Go handlers.
	EmitBinding = "__embedkit_emit"

	// UpdateBinding routes host re-render and readiness notifications.
	UpdateBinding = "__embedkit_update"
)

// AttachListenerScript registers a page-side listener on an element
// that forwards events through the emit binding. The registration mode
// comes from the options argument.
const AttachListenerScript = `(el, opts) => {
	try {
		el.addEventListener(opts.event, (ev) => {
			try {
				window.__embedkit_emit(opts.id, {
					type: ev.type,
					src: el.getAttribute('src') || '',
					alt: el.getAttribute('alt') || ''
				});
			} catch (e) {}
		}, { capture: opts.capture, passive: opts.passive });
		return true;
	} catch (e) { return false; }
}`

// Binder owns the Go side of listener attachment for one adapter
// instance: it exposes the emit binding and keeps the handler registry
// that page events dispatch into.
type Binder struct {
	mu       sync.Mutex
	page     dom.Page
	logger   *logging.Logger
	handlers map[string]Handler
	seq      uint64
}

// NewBinder creates a Binder and exposes the emit binding on the page.
func NewBinder(page dom.Page, logger *logging.Logger) (*Binder, error) {
	b := &Binder{
		page:     page,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
	if err := page.ExposeFunction(EmitBinding, b.dispatch); err != nil {
		return nil, fmt.Errorf("failed to expose emit binding: %w", err)
	}
	return b, nil
}

// dispatch routes an emitted page event to its registered handler.
// Events for unknown ids come from a previous adapter generation's
// listeners and are dropped.
func (b *Binder) dispatch(args ...interface{}) interface{} {
	if len(args) == 0 {
		return nil
	}
	id, _ := args[0].(string)

	b.mu.Lock()
	handler := b.handlers[id]
	b.mu.Unlock()

	if handler == nil {
		if b.logger != nil {
			b.logger.Debugf("dropping event for released listener %q", id)
		}
		return nil
	}

	var ev Event
	if len(args) > 1 {
		if payload, ok := args[1].(map[string]interface{}); ok {
			ev.Type, _ = payload["type"].(string)
			ev.TargetSrc, _ = payload["src"].(string)
			ev.TargetAlt, _ = payload["alt"].(string)
		}
	}
	handler(ev)
	return nil
}

// Attach registers handler for the event on the element, using the
// given listener mode. Attachment failures are logged and leave the
// handler unregistered.
func (b *Binder) Attach(el dom.Element, event string, opts ListenerOptions, handler Handler) {
	b.mu.Lock()
	b.seq++
	id := fmt.Sprintf("l%d", b.seq)
	b.handlers[id] = handler
	b.mu.Unlock()

	res, err := el.Evaluate(AttachListenerScript, map[string]interface{}{
		"id":      id,
		"event":   event,
		"capture": opts.Capture,
		"passive": opts.Passive,
	})
	if err != nil {
		b.drop(id)
		if b.logger != nil {
			b.logger.Warnf("listener attach for %q failed: %v", event, err)
		}
		return
	}
	if ok, _ := res.(bool); !ok {
		b.drop(id)
		if b.logger != nil {
			b.logger.Warnf("listener attach for %q rejected by page", event)
		}
	}
}

// HandlerCount returns the number of live handlers.
func (b *Binder) HandlerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// Release drops every registered handler. Page-side listeners become
// inert: their emits dispatch to nothing.
func (b *Binder) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string]Handler)
}

func (b *Binder) drop(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
}
