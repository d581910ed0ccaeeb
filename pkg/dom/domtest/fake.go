// Package domtest provides an in-memory fake of the dom.Page surface
// for tests that exercise detection and adapter logic without a
// browser.
package domtest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/embedkit/pkg/dom"
)

// Page is a configurable fake host page.
//
// Script evaluation is keyed by the exact expression string: tests
// register the result a probe script should produce via Respond.
// Unregistered scripts evaluate to nil, which probes treat as an
// absent signal.
type Page struct {
	mu sync.Mutex

	// HTML is returned by Content.
	HTML string

	// Address is returned by URL.
	Address string

	scripts    map[string]interface{}
	scriptErrs map[string]error
	elements   map[string][]*Element
	exposed    map[string]dom.BindingFunc

	// EvalLog records every expression passed to Evaluate, in order.
	EvalLog []string

	// ContentErr, when set, is returned by Content.
	ContentErr error
}

// NewPage creates an empty fake page.
func NewPage() *Page {
	return &Page{
		Address:    "https://example.test/",
		scripts:    make(map[string]interface{}),
		scriptErrs: make(map[string]error),
		elements:   make(map[string][]*Element),
		exposed:    make(map[string]dom.BindingFunc),
	}
}

// Respond registers the result returned when the exact script is evaluated.
func (p *Page) Respond(script string, result interface{}) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[script] = result
	return p
}

// RespondErr registers an error returned when the exact script is evaluated.
func (p *Page) RespondErr(script string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scriptErrs[script] = err
	return p
}

// Place registers elements returned for a single (non-grouped) selector.
func (p *Page) Place(selector string, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = append(p.elements[selector], els...)
	return p
}

// Exposed returns the binding registered under name, or nil.
func (p *Page) Exposed(name string) dom.BindingFunc {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exposed[name]
}

// Evaluate implements dom.Page.
func (p *Page) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EvalLog = append(p.EvalLog, expression)
	if err, ok := p.scriptErrs[expression]; ok {
		return nil, err
	}
	return p.scripts[expression], nil
}

// QuerySelectorAll implements dom.Page. Grouped selectors are split on
// commas and unioned with identity de-duplication, mirroring how a
// real selector list behaves.
func (p *Page) QuerySelectorAll(selector string) ([]dom.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []dom.Element
	seen := make(map[*Element]bool)
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "!") {
			return nil, fmt.Errorf("invalid selector: %s", part)
		}
		for _, el := range p.elements[part] {
			if seen[el] {
				continue
			}
			seen[el] = true
			out = append(out, el)
		}
	}
	return out, nil
}

// Evaluations returns a snapshot of every expression evaluated so far.
// Safe to call while another goroutine drives the page.
func (p *Page) Evaluations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.EvalLog...)
}

// ExposeFunction implements dom.Page.
func (p *Page) ExposeFunction(name string, fn dom.BindingFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exposed[name] = fn
	return nil
}

// Content implements dom.Page.
func (p *Page) Content() (string, error) {
	if p.ContentErr != nil {
		return "", p.ContentErr
	}
	return p.HTML, nil
}

// URL implements dom.Page.
func (p *Page) URL() string {
	return p.Address
}

// Element is a fake live element.
type Element struct {
	mu sync.Mutex

	// Attrs holds the element's attributes.
	Attrs map[string]string

	// Matching lists every selector the element claims to match.
	Matching []string

	scripts map[string]interface{}

	// EvalCalls records (expression, first argument) pairs passed to
	// Evaluate, so tests can assert on listener attachment options.
	EvalCalls []EvalCall
}

// EvalCall is one recorded Element.Evaluate invocation.
type EvalCall struct {
	Expression string
	Arg        interface{}
}

// NewElement creates a fake element with the given attributes.
func NewElement(attrs map[string]string) *Element {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return &Element{
		Attrs:   attrs,
		scripts: make(map[string]interface{}),
	}
}

// Respond registers the result returned when the exact script is
// evaluated against this element.
func (e *Element) Respond(script string, result interface{}) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts[script] = result
	return e
}

// MatchesSelectors marks the element as matching the given selectors.
func (e *Element) MatchesSelectors(selectors ...string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Matching = append(e.Matching, selectors...)
	return e
}

// Evaluate implements dom.Element.
func (e *Element) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var arg interface{}
	if len(args) > 0 {
		arg = args[0]
	}
	e.EvalCalls = append(e.EvalCalls, EvalCall{Expression: expression, Arg: arg})
	if v, ok := e.scripts[expression]; ok {
		return v, nil
	}
	return true, nil
}

// GetAttribute implements dom.Element.
func (e *Element) GetAttribute(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Attrs[name], nil
}

// Matches implements dom.Element.
func (e *Element) Matches(selector string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.Matching {
		if s == selector {
			return true, nil
		}
	}
	return false, nil
}

// IsSame implements dom.Element using pointer identity.
func (e *Element) IsSame(other dom.Element) (bool, error) {
	o, ok := other.(*Element)
	if !ok {
		return false, nil
	}
	return e == o, nil
}
