package adapters

import "github.com/entrhq/embedkit/pkg/compat/detect"

// wordpressSelectors covers the image markup WordPress block and
// classic themes emit.
var wordpressSelectors = []string{
	".wp-block-image img",
	".wp-post-image",
	".entry-content img",
	".widget_media_image img",
	".gallery-item img",
}

// wordpressReadyScript registers into the wp extension surface so the
// adapter hears about the page becoming ready instead of polling.
// wp.domReady is the stable entry point; its absence is not an error.
const wordpressReadyScript = `(() => {
	try {
		const wp = window.wp;
		if (!wp || typeof wp.domReady !== 'function') return false;
		wp.domReady(() => {
			try { window.__embedkit_update('wordpress'); } catch (e) {}
		});
		return true;
	} catch (e) { return false; }
})()`

type wordpressAdapter struct {
	*base
}

// newWordPress builds the WordPress variant. CMS pages are
// server-rendered, so listeners use the default bubble mode.
func newWordPress(deps Deps) Adapter {
	a := &wordpressAdapter{
		base: newBase(detect.FrameworkWordPress, deps, wordpressSelectors, ListenerOptions{}),
	}
	exposeUpdateBinding(deps)
	a.installHook(wordpressReadyScript)
	return a
}

// exposeUpdateBinding wires the shared update binding to the caller's
// notify callback. Shared by every variant that registers host hooks.
func exposeUpdateBinding(deps Deps) {
	if deps.Page == nil {
		return
	}
	notify := deps.Notify
	err := deps.Page.ExposeFunction(UpdateBinding, func(args ...interface{}) interface{} {
		if notify != nil {
			notify()
		}
		return nil
	})
	if err != nil && deps.Logger != nil {
		deps.Logger.Warnf("update binding unavailable: %v", err)
	}
}
