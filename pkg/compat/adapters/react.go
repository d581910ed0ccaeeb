package adapters

import "github.com/entrhq/embedkit/pkg/compat/detect"

// reactSelectors targets images inside mounted React roots.
var reactSelectors = []string{
	"#root img",
	"#__next img",
	"[data-reactroot] img",
}

// reactCommitHookScript wraps the devtools commit hook so the adapter
// hears about render passes. The previous hook is preserved and still
// called; wrapping is marked so a second install is a no-op.
const reactCommitHookScript = `(() => {
	try {
		const hook = window.__REACT_DEVTOOLS_GLOBAL_HOOK__;
		if (!hook || hook.__embedkit_wrapped) return false;
		const prev = hook.onCommitFiberRoot;
		hook.__embedkit_wrapped = true;
		hook.__embedkit_prev_commit = prev;
		hook.onCommitFiberRoot = function () {
			try { window.__embedkit_update('react'); } catch (e) {}
			if (typeof prev === 'function') return prev.apply(this, arguments);
		};
		return true;
	} catch (e) { return false; }
})()`

// reactCommitHookTeardown restores the wrapped commit hook.
const reactCommitHookTeardown = `(() => {
	try {
		const hook = window.__REACT_DEVTOOLS_GLOBAL_HOOK__;
		if (!hook || !hook.__embedkit_wrapped) return false;
		hook.onCommitFiberRoot = hook.__embedkit_prev_commit;
		delete hook.__embedkit_wrapped;
		delete hook.__embedkit_prev_commit;
		return true;
	} catch (e) { return false; }
})()`

type reactAdapter struct {
	*base
}

// newReact builds the React variant. React attaches its own delegated
// listeners on later render passes, so the widget registers in the
// capture phase and marks listeners passive.
func newReact(deps Deps) Adapter {
	a := &reactAdapter{
		base: newBase(detect.FrameworkReact, deps, reactSelectors, ListenerOptions{Capture: true, Passive: true}),
	}
	a.teardownScript = reactCommitHookTeardown
	exposeUpdateBinding(deps)
	a.installHook(reactCommitHookScript)
	return a
}
