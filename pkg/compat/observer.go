package compat

// MutationBinding is the page-global function the injected observer
// calls when the host mutates its DOM.
const MutationBinding = "__embedkit_mutated"

// mutationObserverScript installs a single MutationObserver on the
// document that reports subtree child-list changes through the
// mutation binding. Attribute churn is ignored: only structural
// changes can indicate a framework mount or re-render worth
// re-evaluating.
const mutationObserverScript = `(() => {
	try {
		if (window.__embedkit_observer) return true;
		const observer = new MutationObserver((mutations) => {
			for (const m of mutations) {
				if (m.type === 'childList' && (m.addedNodes.length || m.removedNodes.length)) {
					try { window.__embedkit_mutated(); } catch (e) {}
					return;
				}
			}
		});
		observer.observe(document.documentElement, { childList: true, subtree: true });
		window.__embedkit_observer = observer;
		return true;
	} catch (e) { return false; }
})()`

// mutationObserverTeardown disconnects and drops the installed
// observer.
const mutationObserverTeardown = `(() => {
	try {
		if (!window.__embedkit_observer) return false;
		window.__embedkit_observer.disconnect();
		delete window.__embedkit_observer;
		return true;
	} catch (e) { return false; }
})()`

// observeHost wires the host mutation observer into OnFrameworkUpdate.
// Failures degrade to polling-free operation (no automatic
// re-evaluation) and are logged, never surfaced.
func (m *Manager) observeHost() {
	err := m.page.ExposeFunction(MutationBinding, func(args ...interface{}) interface{} {
		m.OnFrameworkUpdate()
		return nil
	})
	if err != nil {
		if m.logger != nil {
			m.logger.Warnf("mutation binding unavailable: %v", err)
		}
		return
	}

	res, err := m.page.Evaluate(mutationObserverScript)
	if err != nil {
		if m.logger != nil {
			m.logger.Warnf("mutation observer install failed: %v", err)
		}
		return
	}
	if ok, _ := res.(bool); !ok && m.logger != nil {
		m.logger.Warnf("mutation observer rejected by page")
	}
}

// disconnectObserver removes the injected observer. Guarded: teardown
// failures are logged and never block Cleanup.
func (m *Manager) disconnectObserver() {
	if _, err := m.page.Evaluate(mutationObserverTeardown); err != nil && m.logger != nil {
		m.logger.Warnf("mutation observer teardown failed: %v", err)
	}
}
