package compat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/embedkit/pkg/compat"
	"github.com/entrhq/embedkit/pkg/compat/adapters"
	"github.com/entrhq/embedkit/pkg/compat/detect"
	"github.com/entrhq/embedkit/pkg/compat/signals"
	"github.com/entrhq/embedkit/pkg/dom/domtest"
)

const wordpressHTML = `<html>
<head><meta name="generator" content="WordPress 6.4"></head>
<body class="logged-in admin-bar"><p>post</p></body>
</html>`

const reactHTML = `<html><body><div id="root"></div></body></html>`

// newManager builds a Manager over the fake page with the settle delay
// disabled so no-signal pages classify without waiting.
func newManager(t *testing.T, page *domtest.Page, cfg compat.Config) *compat.Manager {
	t.Helper()
	m, err := compat.NewManager(page, cfg, nil,
		compat.WithDetector(detect.New(page, nil, detect.WithSettleDelay(0))))
	require.NoError(t, err)
	return m
}

// probeCount returns how many times the given probe script ran.
func probeCount(page *domtest.Page, script string) int {
	n := 0
	for _, expr := range page.Evaluations() {
		if expr == script {
			n++
		}
	}
	return n
}

func TestNewManager_Validation(t *testing.T) {
	page := domtest.NewPage()

	t.Run("manual mode requires a framework", func(t *testing.T) {
		_, err := compat.NewManager(page, compat.Config{AutoDetect: false}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown framework", func(t *testing.T) {
		_, err := compat.NewManager(page, compat.Config{
			AutoDetect: false,
			Framework:  detect.Framework("angular"),
		}, nil)
		assert.Error(t, err)
	})

	t.Run("invalid exclude pattern degrades instead of failing", func(t *testing.T) {
		_, err := compat.NewManager(page, compat.Config{
			AutoDetect:     true,
			ExcludeSources: []string{"[unterminated"},
		}, nil)
		assert.NoError(t, err)
	})
}

func TestInitialize_DetectsAndBecomesReady(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.DefaultConfig())
	require.Equal(t, compat.StateUninitialized, m.State())

	require.NoError(t, m.Initialize(context.Background()))

	assert.Equal(t, compat.StateReady, m.State())
	info := m.GetFrameworkInfo()
	require.NotNil(t, info)
	assert.Equal(t, detect.FrameworkWordPress, info.Type)
	assert.Greater(t, info.Confidence, 0.5)

	adapter := m.GetCurrentAdapter()
	require.NotNil(t, adapter)
	assert.Equal(t, detect.FrameworkWordPress, adapter.FrameworkType())
}

func TestInitialize_Idempotent(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.DefaultConfig())

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Initialize(context.Background()))
	}

	assert.Equal(t, 1, probeCount(page, signals.ScriptWordPressGlobal),
		"repeated Initialize must not re-run detection")
}

func TestInitialize_ConcurrentCallsShareOnePass(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.DefaultConfig())

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Initialize(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, probeCount(page, signals.ScriptWordPressGlobal))
	assert.Equal(t, compat.StateReady, m.State())
}

func TestInitialize_ForcedFrameworkSkipsDetection(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML // would classify as wordpress if probed

	m := newManager(t, page, compat.Config{
		AutoDetect: false,
		Framework:  detect.FrameworkReact,
	})
	require.NoError(t, m.Initialize(context.Background()))

	info := m.GetFrameworkInfo()
	require.NotNil(t, info)
	assert.Equal(t, detect.FrameworkReact, info.Type)
	assert.Equal(t, 1.0, info.Confidence)
	assert.Zero(t, probeCount(page, signals.ScriptWordPressGlobal))
}

// gatedPage blocks each Content call until the test releases it,
// letting tests order the completion of overlapping detection passes.
type gatedPage struct {
	*domtest.Page
	entered chan chan struct{}
}

func newGatedPage(html string) *gatedPage {
	p := domtest.NewPage()
	p.HTML = html
	return &gatedPage{Page: p, entered: make(chan chan struct{})}
}

func (p *gatedPage) Content() (string, error) {
	release := make(chan struct{})
	p.entered <- release
	<-release
	return p.Page.Content()
}

func TestInitialize_SupersededPassIsDiscarded(t *testing.T) {
	page := newGatedPage(wordpressHTML)
	m, err := compat.NewManager(page, compat.DefaultConfig(), nil,
		compat.WithDetector(detect.New(page, nil, detect.WithSettleDelay(0))))
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() { first <- m.Initialize(context.Background()) }()
	releaseFirst := <-page.entered

	// Tear down while the first pass is still probing, then start over.
	m.Cleanup()
	second := make(chan error, 1)
	go func() { second <- m.Initialize(context.Background()) }()
	releaseSecond := <-page.entered

	// The cancelled pass finishes first. It must settle without
	// installing its result: the second pass is still mid-detection.
	close(releaseFirst)
	require.NoError(t, <-first)
	assert.Equal(t, compat.StateDetecting, m.State(),
		"a cancelled pass must not transition the manager to ready")
	assert.Nil(t, m.GetCurrentAdapter())

	close(releaseSecond)
	require.NoError(t, <-second)
	assert.Equal(t, compat.StateReady, m.State())
	adapter := m.GetCurrentAdapter()
	require.NotNil(t, adapter)
	assert.Equal(t, detect.FrameworkWordPress, adapter.FrameworkType())
}

// faultPage panics when probed, simulating a broken page substrate.
type faultPage struct {
	*domtest.Page
}

func (p *faultPage) Content() (string, error) {
	panic("substrate gone")
}

func TestInitialize_DetectionFaultPropagatesAndAllowsRetry(t *testing.T) {
	inner := domtest.NewPage()
	page := &faultPage{Page: inner}

	m, err := compat.NewManager(page, compat.DefaultConfig(), nil,
		compat.WithDetector(detect.New(page, nil, detect.WithSettleDelay(0))))
	require.NoError(t, err)

	err = m.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detection fault")
	assert.Equal(t, compat.StateUninitialized, m.State())
	assert.Nil(t, m.GetFrameworkInfo())

	// The fault is not sticky: a later Initialize runs a fresh pass.
	err = m.Initialize(context.Background())
	require.Error(t, err)
}

func TestAccessorsBeforeReady(t *testing.T) {
	page := domtest.NewPage().Place("img", domtest.NewElement(nil))
	page.HTML = reactHTML

	m := newManager(t, page, compat.DefaultConfig())

	assert.Nil(t, m.GetFrameworkInfo())
	assert.Nil(t, m.GetCurrentAdapter())
	assert.Empty(t, m.FindEditableImages())

	// Attachment before Ready is a silent no-op.
	el := domtest.NewElement(nil)
	m.AttachEventListeners(el, adapters.HandlerMap{"click": func(adapters.Event) {}})
	assert.Empty(t, el.EvalCalls)
}

func TestFindEditableImages_UnionDedupeExclude(t *testing.T) {
	hero := domtest.NewElement(map[string]string{"src": "/hero.jpg"})
	banner := domtest.NewElement(map[string]string{"src": "/banner.jpg"})
	decor := domtest.NewElement(map[string]string{"src": "/decor.svg"}).
		MatchesSelectors(".decor")
	sprite := domtest.NewElement(map[string]string{"src": "/assets/sprites/ui.png"})

	page := domtest.NewPage().
		// Adapter discovery (plain HTML variant queries "img") sees the
		// hero twice via the custom selector below.
		Place("img", hero, decor, sprite).
		Place(".promo img", hero, banner)
	page.HTML = `<html><body><p>plain</p></body></html>`

	m := newManager(t, page, compat.Config{
		AutoDetect:       true,
		CustomSelectors:  []string{".promo img"},
		ExcludeSelectors: []string{".decor"},
		ExcludeSources:   []string{"*/sprites/*"},
	})
	require.NoError(t, m.Initialize(context.Background()))
	require.Equal(t, detect.FrameworkHTML, m.GetCurrentAdapter().FrameworkType())

	els := m.FindEditableImages()

	srcs := make([]string, 0, len(els))
	for _, el := range els {
		src, err := el.GetAttribute("src")
		require.NoError(t, err)
		srcs = append(srcs, src)
	}
	assert.ElementsMatch(t, []string{"/hero.jpg", "/banner.jpg"}, srcs)
}

func TestFindEditableImages_CustomSelectorFailureSkipped(t *testing.T) {
	hero := domtest.NewElement(map[string]string{"src": "/hero.jpg"})
	page := domtest.NewPage().Place("img", hero)
	page.HTML = `<html><body></body></html>`

	m := newManager(t, page, compat.Config{
		AutoDetect: true,
		// The fake rejects selectors containing "!".
		CustomSelectors: []string{"div! img"},
	})
	require.NoError(t, m.Initialize(context.Background()))

	els := m.FindEditableImages()
	assert.Len(t, els, 1, "a failing custom selector degrades, remaining sources still apply")
}

func TestSwitchFramework(t *testing.T) {
	t.Run("swaps the adapter and forces the classification", func(t *testing.T) {
		page := domtest.NewPage()
		page.HTML = wordpressHTML

		m := newManager(t, page, compat.DefaultConfig())
		require.NoError(t, m.Initialize(context.Background()))
		require.Equal(t, detect.FrameworkWordPress, m.GetCurrentAdapter().FrameworkType())

		require.NoError(t, m.SwitchFramework(detect.FrameworkReact))

		assert.Equal(t, compat.StateReady, m.State())
		assert.Equal(t, detect.FrameworkReact, m.GetCurrentAdapter().FrameworkType())
		info := m.GetFrameworkInfo()
		require.NotNil(t, info)
		assert.Equal(t, detect.FrameworkReact, info.Type)
		assert.Equal(t, 1.0, info.Confidence)
	})

	t.Run("works from uninitialized", func(t *testing.T) {
		page := domtest.NewPage()
		m := newManager(t, page, compat.DefaultConfig())

		require.NoError(t, m.SwitchFramework(detect.FrameworkCustom))
		assert.Equal(t, compat.StateReady, m.State())
		assert.Equal(t, detect.FrameworkCustom, m.GetCurrentAdapter().FrameworkType())
	})

	t.Run("rejects unknown framework", func(t *testing.T) {
		page := domtest.NewPage()
		m := newManager(t, page, compat.DefaultConfig())
		assert.Error(t, m.SwitchFramework(detect.Framework("angular")))
	})
}

func TestSwitchFramework_ColdStartWiresMutationObserver(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.Config{
		AutoDetect:     true,
		DebounceWindow: 5 * time.Millisecond,
	})
	require.NoError(t, m.SwitchFramework(detect.FrameworkReact))

	mutated := page.Exposed(compat.MutationBinding)
	require.NotNil(t, mutated, "a cold-start switch must expose the mutation binding")

	mutated()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if probeCount(page, signals.ScriptWordPressGlobal) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, probeCount(page, signals.ScriptWordPressGlobal),
		"a host mutation after a cold-start switch must trigger re-evaluation")
}

func TestCleanup(t *testing.T) {
	page := domtest.NewPage().Place("img", domtest.NewElement(nil))
	page.HTML = reactHTML

	m := newManager(t, page, compat.DefaultConfig())
	require.NoError(t, m.Initialize(context.Background()))
	require.Equal(t, compat.StateReady, m.State())

	m.Cleanup()

	assert.Equal(t, compat.StateUninitialized, m.State())
	assert.Nil(t, m.GetFrameworkInfo())
	assert.Nil(t, m.GetCurrentAdapter())
	assert.Empty(t, m.FindEditableImages())

	// Idempotent.
	m.Cleanup()
	assert.Equal(t, compat.StateUninitialized, m.State())
}

func TestCleanup_AllowsReinitialize(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.DefaultConfig())
	require.NoError(t, m.Initialize(context.Background()))
	m.Cleanup()

	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, compat.StateReady, m.State())
	assert.Equal(t, 2, probeCount(page, signals.ScriptWordPressGlobal))
}

func TestOnFrameworkUpdate_DebouncesBursts(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.Config{
		AutoDetect:     true,
		DebounceWindow: 30 * time.Millisecond,
	})
	require.NoError(t, m.Initialize(context.Background()))
	require.Equal(t, 1, probeCount(page, signals.ScriptWordPressGlobal))

	for i := 0; i < 5; i++ {
		m.OnFrameworkUpdate()
		time.Sleep(2 * time.Millisecond)
	}

	// Wait well past the debounce window for the single coalesced pass.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if probeCount(page, signals.ScriptWordPressGlobal) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, 2, probeCount(page, signals.ScriptWordPressGlobal),
		"a burst of updates must coalesce into one re-evaluation")
}

func TestOnFrameworkUpdate_IgnoredBeforeReady(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.Config{
		AutoDetect:     true,
		DebounceWindow: 5 * time.Millisecond,
	})

	m.OnFrameworkUpdate()
	time.Sleep(30 * time.Millisecond)

	assert.Zero(t, probeCount(page, signals.ScriptWordPressGlobal))
	assert.Equal(t, compat.StateUninitialized, m.State())
}

func TestReevaluation_SwapsAdapterOnReclassification(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.Config{
		AutoDetect:     true,
		DebounceWindow: 5 * time.Millisecond,
	})
	require.NoError(t, m.Initialize(context.Background()))
	require.Equal(t, detect.FrameworkWordPress, m.GetCurrentAdapter().FrameworkType())

	// The host swaps its content to a hydrated SPA.
	page.HTML = reactHTML
	m.OnFrameworkUpdate()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if a := m.GetCurrentAdapter(); a != nil && a.FrameworkType() == detect.FrameworkReact {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	adapter := m.GetCurrentAdapter()
	require.NotNil(t, adapter)
	assert.Equal(t, detect.FrameworkReact, adapter.FrameworkType())
	info := m.GetFrameworkInfo()
	require.NotNil(t, info)
	assert.Equal(t, detect.FrameworkReact, info.Type)
}

func TestReevaluation_SameTypeKeepsAdapter(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.Config{
		AutoDetect:     true,
		DebounceWindow: 5 * time.Millisecond,
	})
	require.NoError(t, m.Initialize(context.Background()))
	before := m.GetCurrentAdapter()

	m.OnFrameworkUpdate()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if probeCount(page, signals.ScriptWordPressGlobal) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	assert.Same(t, before, m.GetCurrentAdapter(),
		"an unchanged classification must not rebuild the adapter")
}

func TestMutationObserver_WiredOnInitialize(t *testing.T) {
	page := domtest.NewPage()
	page.HTML = wordpressHTML

	m := newManager(t, page, compat.Config{
		AutoDetect:     true,
		DebounceWindow: 5 * time.Millisecond,
	})
	require.NoError(t, m.Initialize(context.Background()))

	mutated := page.Exposed(compat.MutationBinding)
	require.NotNil(t, mutated, "initialize must expose the mutation binding")

	mutated()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if probeCount(page, signals.ScriptWordPressGlobal) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 2, probeCount(page, signals.ScriptWordPressGlobal),
		"a host mutation must trigger a debounced re-evaluation")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", compat.StateUninitialized.String())
	assert.Equal(t, "detecting", compat.StateDetecting.String())
	assert.Equal(t, "ready", compat.StateReady.String())
}
