// Package page provides the live host-page substrate for the
// compatibility engine, backed by Playwright.
//
// The package is built around three concepts:
//
//  1. Session: a Playwright browser instance with its context and the
//     host page the widget is embedded into
//  2. SessionManager: registry owning every active host session, with
//     idle cleanup and shutdown
//  3. Host: the dom.Page implementation the compatibility engine
//     consumes, covering evaluation, selector queries, and exposed Go
//     bindings on the session's page
//
// # Session lifecycle
//
//  1. Create: StartSession launches a browser and opens the host page
//  2. Use: Navigate to the host URL, hand Session.Host() to
//     compat.NewManager
//  3. Close: CloseSession releases the browser resources
//  4. Timeout: idle sessions are reaped by CleanupIdleSessions
//
// # Exposed bindings
//
// The compatibility engine exposes Go functions into the page (event
// emit, mutation notifications). Playwright bindings cannot be
// unregistered, so Host keeps its own dispatch table: re-exposing a
// name replaces the Go-side function while the page-side binding stays
// installed. This is what lets adapter generations replace each other
// across switch and cleanup cycles without leaking page state.
package page
