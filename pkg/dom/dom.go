// Package dom defines the slice of a live host page that the
// compatibility engine depends on.
//
// The production implementation lives in pkg/page and is backed by a
// Playwright browser session. Tests use the fake in pkg/dom/domtest so
// detection and adapter logic can run without a browser.
package dom

// BindingFunc is a Go function exposed into the page as a global
// JavaScript function. Arguments arrive as JSON-decoded values.
type BindingFunc func(args ...interface{}) interface{}

// Page is a handle to the live host page. All methods operate on the
// page's current state; none of them cache results.
type Page interface {
	// Evaluate runs a JavaScript expression in the page context and
	// returns its JSON-serializable result. At most one argument is
	// passed through to the expression.
	Evaluate(expression string, args ...interface{}) (interface{}, error)

	// QuerySelectorAll returns a handle for every element currently
	// matching the CSS selector. Selector lists ("a, b") are allowed
	// and return each matching node once, in document order.
	QuerySelectorAll(selector string) ([]Element, error)

	// ExposeFunction makes fn callable from page scripts under the
	// given global name. Re-exposing an existing name replaces the
	// Go-side function without touching the page binding.
	ExposeFunction(name string, fn BindingFunc) error

	// Content returns the page's current HTML markup.
	Content() (string, error)

	// URL returns the page's current address.
	URL() string
}

// Element is a handle to a live element in the page. Handles stay valid
// until the host navigates away or removes the node.
type Element interface {
	// Evaluate runs the JavaScript expression with the element bound as
	// its first parameter. At most one extra argument is passed.
	Evaluate(expression string, args ...interface{}) (interface{}, error)

	// GetAttribute returns the value of the named attribute, or the
	// empty string when the attribute is absent.
	GetAttribute(name string) (string, error)

	// Matches reports whether the element matches the CSS selector.
	Matches(selector string) (bool, error)

	// IsSame reports whether the other handle points at the same
	// underlying DOM node.
	IsSame(other Element) (bool, error)
}
