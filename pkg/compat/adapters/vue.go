package adapters

import "github.com/entrhq/embedkit/pkg/compat/detect"

// vueSelectors targets images inside mounted Vue roots.
var vueSelectors = []string{
	"#app img",
	"#__nuxt img",
	"[data-v-app] img",
}

// vueFlushHookScript subscribes to the Vue devtools hook's flush
// events so the adapter hears about re-renders.
const vueFlushHookScript = `(() => {
	try {
		const hook = window.__VUE_DEVTOOLS_GLOBAL_HOOK__;
		if (!hook || typeof hook.on !== 'function' || hook.__embedkit_subscribed) return false;
		hook.__embedkit_flush = () => {
			try { window.__embedkit_update('vue'); } catch (e) {}
		};
		hook.on('flush', hook.__embedkit_flush);
		hook.__embedkit_subscribed = true;
		return true;
	} catch (e) { return false; }
})()`

// vueFlushHookTeardown removes the flush subscription.
const vueFlushHookTeardown = `(() => {
	try {
		const hook = window.__VUE_DEVTOOLS_GLOBAL_HOOK__;
		if (!hook || !hook.__embedkit_subscribed) return false;
		if (typeof hook.off === 'function') hook.off('flush', hook.__embedkit_flush);
		delete hook.__embedkit_subscribed;
		delete hook.__embedkit_flush;
		return true;
	} catch (e) { return false; }
})()`

type vueAdapter struct {
	*base
}

// newVue builds the Vue variant. Same listener mode as React: capture
// phase, passive, so reactive re-renders cannot shadow the widget's
// listeners.
func newVue(deps Deps) Adapter {
	a := &vueAdapter{
		base: newBase(detect.FrameworkVue, deps, vueSelectors, ListenerOptions{Capture: true, Passive: true}),
	}
	a.teardownScript = vueFlushHookTeardown
	exposeUpdateBinding(deps)
	a.installHook(vueFlushHookScript)
	return a
}
