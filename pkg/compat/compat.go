// Package compat orchestrates host-page compatibility for the widget:
// it runs framework detection, owns the single current adapter, unions
// configured selectors into image discovery, debounces host-mutation
// re-evaluation, and tears everything down.
//
// # Lifecycle
//
// A Manager moves Uninitialized -> Detecting -> Ready on Initialize,
// Ready -> Detecting -> Ready on SwitchFramework and debounced
// re-evaluation, and back to Uninitialized on Cleanup. Initialize is
// idempotent: repeated calls return the first result without
// re-running probes. Cleanup during an in-flight detection discards
// the pending result and still settles callers waiting on it.
//
// # Error surface
//
// Only detection faults propagate to the embedding caller. Selector
// failures, hook-registration failures, and adapter teardown failures
// are recovered, logged, and manifest as reduced functionality.
package compat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/embedkit/pkg/compat/adapters"
	"github.com/entrhq/embedkit/pkg/compat/detect"
	"github.com/entrhq/embedkit/pkg/dom"
	"github.com/entrhq/embedkit/pkg/logging"
)

// DefaultDebounceWindow is the coalescing window for host-mutation
// triggered re-evaluation. Bursts of OnFrameworkUpdate calls inside
// one window collapse into a single detection pass.
const DefaultDebounceWindow = 100 * time.Millisecond

// State is the Manager lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateDetecting
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDetecting:
		return "detecting"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config is the caller-supplied compatibility configuration. It is
// immutable after NewManager.
type Config struct {
	// AutoDetect runs framework detection on Initialize. When false,
	// Framework must be set and detection is skipped entirely.
	AutoDetect bool

	// Framework forces a variant when AutoDetect is false, and biases
	// detection ties when AutoDetect is true.
	Framework detect.Framework

	// CustomSelectors are always unioned into the editable-image
	// search, regardless of the detected framework.
	CustomSelectors []string

	// ExcludeSelectors remove any matching element from the result
	// set, regardless of which selector discovered it.
	ExcludeSelectors []string

	// ExcludeSources are glob patterns matched against an image's src
	// attribute; matches are removed from the result set.
	ExcludeSources []string

	// DebounceWindow overrides DefaultDebounceWindow when positive.
	DebounceWindow time.Duration
}

// DefaultConfig returns the zero configuration with detection enabled.
func DefaultConfig() Config {
	return Config{
		AutoDetect:     true,
		DebounceWindow: DefaultDebounceWindow,
	}
}

// Manager owns the current adapter and exposes the stable contract the
// rest of the widget consumes.
type Manager struct {
	mu       sync.Mutex
	state    State
	cfg      Config
	page     dom.Page
	logger   *logging.Logger
	detector *detect.Detector

	adapter  adapters.Adapter
	info     *detect.Info
	inflight chan struct{}
	initErr  error
	pending  *time.Timer

	excludeGlobs []glob.Glob
}

// Option configures a Manager.
type Option func(*Manager)

// WithDetector replaces the Manager's detector. Used by callers that
// tune signal weights or settle behavior.
func WithDetector(d *detect.Detector) Option {
	return func(m *Manager) { m.detector = d }
}

// NewManager creates a Manager for the given page and configuration.
func NewManager(page dom.Page, cfg Config, logger *logging.Logger, opts ...Option) (*Manager, error) {
	if !cfg.AutoDetect && cfg.Framework == "" {
		return nil, fmt.Errorf("autoDetect disabled but no framework configured")
	}
	if cfg.Framework != "" && !cfg.Framework.Valid() {
		return nil, fmt.Errorf("invalid framework %q", cfg.Framework)
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}

	m := &Manager{
		cfg:    cfg,
		page:   page,
		logger: logger,
	}

	for _, pattern := range cfg.ExcludeSources {
		g, err := glob.Compile(pattern)
		if err != nil {
			// A bad pattern degrades filtering, it does not fail startup.
			if logger != nil {
				logger.Warnf("skipping invalid exclude-source pattern %q: %v", pattern, err)
			}
			continue
		}
		m.excludeGlobs = append(m.excludeGlobs, g)
	}

	var detectorOpts []detect.Option
	if cfg.Framework != "" {
		detectorOpts = append(detectorOpts, detect.WithHint(cfg.Framework))
	}
	m.detector = detect.New(page, logger, detectorOpts...)

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Initialize runs detection (or honors the forced framework), builds
// the matching adapter, and installs the host mutation observer.
// Idempotent: once Ready, later calls return immediately; concurrent
// calls wait on the in-flight pass and share its result. A detection
// fault propagates and leaves the Manager Uninitialized.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateReady:
		m.mu.Unlock()
		return nil
	case StateDetecting:
		ch := m.inflight
		m.mu.Unlock()
		<-ch
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.initErr
	}
	m.state = StateDetecting
	ch := make(chan struct{})
	m.inflight = ch
	m.mu.Unlock()

	info, adapter, err := m.evaluate(ctx)

	m.mu.Lock()
	defer close(ch)
	if m.state != StateDetecting || m.inflight != ch {
		// Cleanup, a forced switch, or a newer Initialize superseded
		// this pass: the pending result is discarded, but the call
		// still settles. The channel identity ties the result to the
		// pass that produced it, so a re-Initialize started after a
		// mid-flight Cleanup never adopts the cancelled pass's adapter.
		m.mu.Unlock()
		if adapter != nil {
			m.safeCleanup(adapter)
		}
		return nil
	}
	if err != nil {
		m.state = StateUninitialized
		m.initErr = err
		m.mu.Unlock()
		return err
	}
	m.adapter = adapter
	m.info = info
	m.initErr = nil
	m.state = StateReady
	m.mu.Unlock()

	m.observeHost()
	return nil
}

// evaluate produces a classification and its adapter. Runs without the
// Manager lock held: detection and adapter construction touch the page.
func (m *Manager) evaluate(ctx context.Context) (*detect.Info, adapters.Adapter, error) {
	var info *detect.Info
	if m.cfg.AutoDetect {
		var err error
		info, err = m.detector.Detect(ctx)
		if err != nil {
			return nil, nil, err
		}
	} else {
		info = forcedInfo(m.cfg.Framework)
	}

	adapter, err := m.buildAdapter(info.Type)
	if err != nil {
		return nil, nil, err
	}
	return info, adapter, nil
}

func forcedInfo(fw detect.Framework) *detect.Info {
	return &detect.Info{
		Type:       fw,
		Detected:   true,
		Confidence: 1.0,
		Evidence:   []string{"framework forced by configuration"},
	}
}

func (m *Manager) buildAdapter(fw detect.Framework) (adapters.Adapter, error) {
	return adapters.New(fw, adapters.Deps{
		Page:            m.page,
		Logger:          m.logger,
		Notify:          m.OnFrameworkUpdate,
		CustomSelectors: m.cfg.CustomSelectors,
	})
}

// GetFrameworkInfo returns the last classification snapshot, or nil
// before the Manager is Ready.
func (m *Manager) GetFrameworkInfo() *detect.Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady || m.info == nil {
		return nil
	}
	snapshot := *m.info
	return &snapshot
}

// GetCurrentAdapter returns the live adapter, or nil before Ready.
func (m *Manager) GetCurrentAdapter() adapters.Adapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady {
		return nil
	}
	return m.adapter
}

// FindEditableImages unions the adapter's discovery with every
// configured custom selector, then removes excluded elements and
// de-duplicates by element identity. Before Ready it returns an empty
// result; it never returns an error to the hot path.
func (m *Manager) FindEditableImages() []dom.Element {
	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		return []dom.Element{}
	}
	adapter := m.adapter
	m.mu.Unlock()

	els := adapter.FindEditableImages()
	for _, sel := range m.cfg.CustomSelectors {
		more, err := m.page.QuerySelectorAll(sel)
		if err != nil {
			if m.logger != nil {
				m.logger.Warnf("custom selector %q failed: %v", sel, err)
			}
			continue
		}
		els = append(els, more...)
	}

	return m.filterImages(m.dedupe(els))
}

// dedupe removes duplicate handles pointing at the same DOM node.
// Identity checks that fail are treated as distinct.
func (m *Manager) dedupe(els []dom.Element) []dom.Element {
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		duplicate := false
		for _, kept := range out {
			same, err := kept.IsSame(el)
			if err == nil && same {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, el)
		}
	}
	return out
}

// filterImages drops elements matching an exclude selector or whose
// src matches an exclude-source pattern.
func (m *Manager) filterImages(els []dom.Element) []dom.Element {
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		if m.excluded(el) {
			continue
		}
		out = append(out, el)
	}
	return out
}

func (m *Manager) excluded(el dom.Element) bool {
	for _, sel := range m.cfg.ExcludeSelectors {
		matched, err := el.Matches(sel)
		if err != nil {
			if m.logger != nil {
				m.logger.Warnf("exclude selector %q failed: %v", sel, err)
			}
			continue
		}
		if matched {
			return true
		}
	}
	if len(m.excludeGlobs) > 0 {
		src, err := el.GetAttribute("src")
		if err == nil && src != "" {
			for _, g := range m.excludeGlobs {
				if g.Match(src) {
					return true
				}
			}
		}
	}
	return false
}

// AttachEventListeners delegates to the current adapter. A no-op
// before Ready.
func (m *Manager) AttachEventListeners(el dom.Element, handlers adapters.HandlerMap) {
	m.mu.Lock()
	adapter := m.adapter
	ready := m.state == StateReady
	m.mu.Unlock()
	if !ready || adapter == nil {
		return
	}
	adapter.AttachEventListeners(el, handlers)
}

// SwitchFramework forces the given variant, bypassing re-detection.
// The incoming adapter is fully constructed before the outgoing one is
// cleaned up; a teardown failure is logged and never blocks the swap.
// Switching before the first Initialize also installs the host
// mutation observer.
func (m *Manager) SwitchFramework(fw detect.Framework) error {
	if !fw.Valid() {
		return fmt.Errorf("invalid framework %q", fw)
	}

	adapter, err := m.buildAdapter(fw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.adapter
	wasReady := m.state == StateReady
	m.adapter = adapter
	m.info = forcedInfo(fw)
	m.state = StateReady
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Infof("switched adapter to %s", fw)
	}
	if old != nil {
		m.safeCleanup(old)
	}
	if !wasReady {
		// A cold-start switch never went through Initialize, so the
		// host mutation observer is not installed yet.
		m.observeHost()
	}
	return nil
}

// OnFrameworkUpdate schedules a debounced re-evaluation of the host.
// Safe to call at any rate; bursts inside the debounce window collapse
// into one detection pass. Ignored before Ready.
func (m *Manager) OnFrameworkUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady {
		return
	}
	if m.pending != nil {
		m.pending.Reset(m.cfg.DebounceWindow)
		return
	}
	m.pending = time.AfterFunc(m.cfg.DebounceWindow, m.reevaluate)
}

// reevaluate re-runs detection after the debounce window and swaps the
// adapter when the classification changed. Failures are logged, never
// surfaced: a missed update degrades, it does not crash the host.
func (m *Manager) reevaluate() {
	m.mu.Lock()
	m.pending = nil
	ready := m.state == StateReady
	m.mu.Unlock()
	if !ready || !m.cfg.AutoDetect {
		return
	}

	info, err := m.detector.Detect(context.Background())
	if err != nil {
		if m.logger != nil {
			m.logger.Warnf("re-evaluation failed: %v", err)
		}
		return
	}

	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		return
	}
	if m.info != nil && m.info.Type == info.Type {
		// Same classification: refresh the snapshot, keep the adapter.
		m.info = info
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	adapter, err := m.buildAdapter(info.Type)
	if err != nil {
		if m.logger != nil {
			m.logger.Warnf("adapter rebuild for %s failed: %v", info.Type, err)
		}
		return
	}

	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		m.safeCleanup(adapter)
		return
	}
	old := m.adapter
	m.adapter = adapter
	m.info = info
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Infof("host re-classified as %s, adapter swapped", info.Type)
	}
	if old != nil {
		m.safeCleanup(old)
	}
}

// Cleanup tears down the current adapter, disconnects the mutation
// observer, clears all references, and returns to Uninitialized.
// Idempotent; an in-flight detection settles and its result is
// discarded.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	if m.state == StateUninitialized {
		m.mu.Unlock()
		return
	}
	old := m.adapter
	m.adapter = nil
	m.info = nil
	m.initErr = nil
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.state = StateUninitialized
	m.mu.Unlock()

	m.disconnectObserver()
	if old != nil {
		m.safeCleanup(old)
	}
}

// safeCleanup runs an adapter's Cleanup, containing both errors and
// panics: a failed teardown must never block the Manager's own state
// transitions.
func (m *Manager) safeCleanup(a adapters.Adapter) {
	defer func() {
		if r := recover(); r != nil && m.logger != nil {
			m.logger.Errorf("adapter cleanup panicked: %v", r)
		}
	}()
	a.Cleanup()
}
