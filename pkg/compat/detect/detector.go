// Package detect combines host-page signals into a single framework
// classification with a normalized confidence score.
//
// Detection never fails for "no framework found": a page with no
// recognizable signals classifies as plain HTML with a low but nonzero
// confidence. An error from Detect means an internal fault in the
// probe machinery itself, which callers must treat as fatal to startup
// rather than silently defaulting.
package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/embedkit/pkg/compat/signals"
	"github.com/entrhq/embedkit/pkg/dom"
	"github.com/entrhq/embedkit/pkg/logging"
)

// DefaultSettleDelay is how long Detect waits before a second probe
// pass when the first pass found nothing. Frameworks that bootstrap
// after document load (SPA hydration) install their globals late.
const DefaultSettleDelay = 150 * time.Millisecond

// tieBreakPriority orders variants for exact confidence ties: CMS
// indicators outrank component-framework indicators, which outrank
// generic DOM-library and default classifications. A configured hint
// outranks everything, and between two tied component frameworks one
// backed by a meta-framework signal wins (both applied in outranks
// before this order).
var tieBreakPriority = map[Framework]int{
	FrameworkWordPress: 3,
	FrameworkReact:     2,
	FrameworkVue:       1,
	FrameworkHTML:      0,
}

// metaSignals marks signals produced by a meta-framework layer: root
// containers and bootstrap payloads. A rendered root is stronger
// evidence of an active mount than a bare global left on window.
var metaSignals = map[string]bool{
	signals.IDReactRoot:     true,
	signals.IDReactNextData: true,
	signals.IDVueRoot:       true,
	signals.IDVueNuxt:       true,
}

func componentFramework(fw Framework) bool {
	return fw == FrameworkReact || fw == FrameworkVue
}

// Detector classifies the host page behind a dom.Page.
type Detector struct {
	page        dom.Page
	logger      *logging.Logger
	weights     map[string]float64
	ceilings    map[Framework]float64
	hint        Framework
	settleDelay time.Duration
}

// Option configures a Detector.
type Option func(*Detector)

// WithHint biases exact confidence ties toward the given framework.
// It never overrides a strictly higher-scoring classification.
func WithHint(fw Framework) Option {
	return func(d *Detector) { d.hint = fw }
}

// WithWeights replaces the default signal weights. Unknown signal IDs
// score zero.
func WithWeights(weights map[string]float64) Option {
	return func(d *Detector) {
		d.weights = weights
		d.ceilings = maxAttainable(weights)
	}
}

// WithSettleDelay sets the wait before the second probe pass. Zero
// disables the second pass.
func WithSettleDelay(delay time.Duration) Option {
	return func(d *Detector) { d.settleDelay = delay }
}

// New creates a Detector for the given page.
func New(page dom.Page, logger *logging.Logger, opts ...Option) *Detector {
	d := &Detector{
		page:        page,
		logger:      logger,
		weights:     defaultWeights,
		ceilings:    maxAttainable(defaultWeights),
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs every probe against the page and returns the resulting
// classification. The only error cases are an internal probe fault or
// a cancelled context; an unrecognizable page is not an error.
func (d *Detector) Detect(ctx context.Context) (info *Info, err error) {
	// Probes guard their own failures; a panic here means the probe
	// machinery itself is broken, which is fatal to the caller.
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("detection fault: %v", r)
		}
	}()

	merged := d.collect()

	if !anyPresent(merged) && d.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.settleDelay):
		}
		merged = d.collect()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return d.classify(merged), nil
}

// collect runs the scripted probes and the markup scan, merging
// signals by ID so evidence observed both ways counts once.
func (d *Detector) collect() map[string]signals.Signal {
	merged := make(map[string]signals.Signal)

	for _, sig := range signals.CollectScripted(d.page, d.logger) {
		merged[sig.ID] = sig
	}

	raw, err := d.page.Content()
	if err != nil {
		if d.logger != nil {
			d.logger.Warnf("markup scan skipped: %v", err)
		}
		return merged
	}
	for _, sig := range signals.ScanMarkup(raw) {
		existing, ok := merged[sig.ID]
		if !ok || !existing.Present {
			merged[sig.ID] = sig
			continue
		}
		// Both passes saw it: keep the scripted signal, fill in a
		// version only the markup exposed.
		if existing.Version == "" && sig.Version != "" {
			existing.Version = sig.Version
			merged[sig.ID] = existing
		}
	}
	return merged
}

func anyPresent(sigs map[string]signals.Signal) bool {
	for _, sig := range sigs {
		if sig.Present {
			return true
		}
	}
	return false
}

// signalOrder fixes the iteration order for scoring so evidence lists
// and version selection are deterministic. Higher-value signals come
// first per framework.
var signalOrder = []string{
	signals.IDWordPressAdminClass,
	signals.IDWordPressGenerator,
	signals.IDWordPressGlobal,
	signals.IDWordPressAssetPath,
	signals.IDReactGlobal,
	signals.IDReactDevtools,
	signals.IDReactRoot,
	signals.IDReactNextData,
	signals.IDVueGlobal,
	signals.IDVueDevtools,
	signals.IDVueRoot,
	signals.IDVueNuxt,
	signals.IDJQueryGlobal,
}

func (d *Detector) classify(merged map[string]signals.Signal) *Info {
	scores := make(map[Framework]float64)
	evidence := make(map[Framework][]string)
	versions := make(map[Framework]string)
	meta := make(map[Framework]bool)

	for _, id := range signalOrder {
		sig, ok := merged[id]
		if !ok || !sig.Present {
			continue
		}
		fw := signalFramework(id)
		scores[fw] += d.weights[id]
		if metaSignals[id] {
			meta[fw] = true
		}
		note := sig.Evidence
		if note == "" {
			note = id
		}
		evidence[fw] = append(evidence[fw], note)
		if versions[fw] == "" && sig.Version != "" {
			versions[fw] = sig.Version
		}
	}

	if len(scores) == 0 {
		return &Info{
			Type:       FrameworkHTML,
			Detected:   true,
			Confidence: defaultHTMLConfidence,
			Evidence:   []string{"no recognizable framework signals"},
		}
	}

	best := d.pickBest(scores, meta)
	conf := clamp(scores[best]/d.ceilings[best], 0, 1)

	if d.logger != nil {
		d.logger.Infof("classified host as %s (confidence %.2f, %d signal(s))", best, conf, len(evidence[best]))
	}

	return &Info{
		Type:       best,
		Detected:   true,
		Confidence: conf,
		Version:    versions[best],
		Evidence:   evidence[best],
	}
}

// pickBest selects the framework with the highest normalized
// confidence. Exact ties resolve by hint first, then meta-framework
// evidence between component frameworks, then the fixed priority
// order.
func (d *Detector) pickBest(scores map[Framework]float64, meta map[Framework]bool) Framework {
	best := FrameworkHTML
	bestConf := -1.0
	for fw, score := range scores {
		conf := clamp(score/d.ceilings[fw], 0, 1)
		switch {
		case conf > bestConf:
			best, bestConf = fw, conf
		case conf == bestConf && d.outranks(fw, best, meta):
			best = fw
		}
	}
	return best
}

func (d *Detector) outranks(a, b Framework, meta map[Framework]bool) bool {
	if a == d.hint && b != d.hint {
		return true
	}
	if b == d.hint && a != d.hint {
		return false
	}
	if componentFramework(a) && componentFramework(b) && meta[a] != meta[b] {
		return meta[a]
	}
	return tieBreakPriority[a] > tieBreakPriority[b]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
