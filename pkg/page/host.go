package page

import (
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/embedkit/pkg/dom"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate opens the host page URL in the session.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	playwrightOpts := playwright.PageGotoOptions{}

	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// Wait waits for a host element to reach the given state. Useful for
// holding detection until the host has mounted its root.
func (s *Session) Wait(opts WaitOptions) error {
	s.UpdateLastUsed()

	if opts.Selector == "" {
		return fmt.Errorf("selector is required for wait")
	}

	playwrightOpts := playwright.PageWaitForSelectorOptions{}

	if opts.State != "" {
		state := playwright.WaitForSelectorState(opts.State)
		playwrightOpts.State = &state
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.WaitForSelector(opts.Selector, playwrightOpts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

// Host returns the session's dom.Page implementation.
func (s *Session) Host() *Host {
	return s.host
}

// Host implements dom.Page over a session's Playwright page.
//
// Playwright bindings cannot be unregistered, so Host routes every
// exposed function through its own dispatch table: the page binding is
// installed once per name, and re-exposing replaces only the Go-side
// function. See the package documentation.
type Host struct {
	session *Session

	mu       sync.Mutex
	bindings map[string]dom.BindingFunc
}

func newHost(s *Session) *Host {
	return &Host{
		session:  s,
		bindings: make(map[string]dom.BindingFunc),
	}
}

// Evaluate implements dom.Page.
func (h *Host) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	h.session.UpdateLastUsed()
	if len(args) == 0 {
		return h.session.Page.Evaluate(expression)
	}
	return h.session.Page.Evaluate(expression, args[0])
}

// QuerySelectorAll implements dom.Page.
func (h *Host) QuerySelectorAll(selector string) ([]dom.Element, error) {
	h.session.UpdateLastUsed()
	handles, err := h.session.Page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}
	els := make([]dom.Element, 0, len(handles))
	for _, handle := range handles {
		els = append(els, &element{handle: handle})
	}
	return els, nil
}

// ExposeFunction implements dom.Page.
func (h *Host) ExposeFunction(name string, fn dom.BindingFunc) error {
	h.mu.Lock()
	_, installed := h.bindings[name]
	h.bindings[name] = fn
	h.mu.Unlock()

	if installed {
		// Page binding already in place; the dispatch table swap above
		// is the whole re-exposure.
		return nil
	}

	err := h.session.Page.ExposeFunction(name, func(args ...interface{}) interface{} {
		h.mu.Lock()
		f := h.bindings[name]
		h.mu.Unlock()
		if f == nil {
			return nil
		}
		return f(args...)
	})
	if err != nil {
		h.mu.Lock()
		delete(h.bindings, name)
		h.mu.Unlock()
		return fmt.Errorf("failed to expose %q: %w", name, err)
	}
	return nil
}

// Content implements dom.Page.
func (h *Host) Content() (string, error) {
	return h.session.Page.Content()
}

// URL implements dom.Page.
func (h *Host) URL() string {
	return h.session.Page.URL()
}

// element implements dom.Element over a Playwright element handle.
type element struct {
	handle playwright.ElementHandle
}

// Evaluate implements dom.Element. Wrapped elements passed as the
// argument are unwrapped so the page sees the raw node handle.
func (e *element) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return e.handle.Evaluate(expression)
	}
	arg := args[0]
	if other, ok := arg.(*element); ok {
		arg = other.handle
	}
	return e.handle.Evaluate(expression, arg)
}

// GetAttribute implements dom.Element.
func (e *element) GetAttribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

// Matches implements dom.Element.
func (e *element) Matches(selector string) (bool, error) {
	res, err := e.handle.Evaluate("(el, sel) => el.matches(sel)", selector)
	if err != nil {
		return false, fmt.Errorf("matches check failed: %w", err)
	}
	matched, _ := res.(bool)
	return matched, nil
}

// IsSame implements dom.Element.
func (e *element) IsSame(other dom.Element) (bool, error) {
	o, ok := other.(*element)
	if !ok {
		return false, nil
	}
	res, err := e.handle.Evaluate("(a, b) => a === b", o.handle)
	if err != nil {
		return false, fmt.Errorf("identity check failed: %w", err)
	}
	same, _ := res.(bool)
	return same, nil
}
