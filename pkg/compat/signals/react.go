package signals

// Scripted React probes.

// ScriptReactGlobal checks for the React global and reads its version.
// Modern bundlers rarely expose it, so this is one signal among
// several rather than the deciding one.
const ScriptReactGlobal = `(() => {
	try {
		const r = window.React;
		if (!r || typeof r.createElement !== 'function') return { present: false };
		return { present: true, version: String(r.version || ''), evidence: 'window.React' };
	} catch (e) { return { present: false }; }
})()`

// ScriptReactDevtools checks the devtools hook for at least one live
// renderer. The hook exists whenever the devtools extension is
// installed, so an empty renderer registry reads as absent.
const ScriptReactDevtools = `(() => {
	try {
		const hook = window.__REACT_DEVTOOLS_GLOBAL_HOOK__;
		if (!hook || !hook.renderers || hook.renderers.size === 0) return { present: false };
		let version = '';
		hook.renderers.forEach((r) => { if (!version && r && r.version) version = String(r.version); });
		return { present: true, version: version, evidence: hook.renderers.size + ' renderer(s) registered' };
	} catch (e) { return { present: false }; }
})()`

// ScriptReactRoot checks for a mounted React root: the conventional
// container ids, the legacy data-reactroot attribute, or a container
// carrying React's internal root keys.
const ScriptReactRoot = `(() => {
	try {
		const el = document.querySelector('#root, #__next, [data-reactroot]');
		if (el) {
			const tag = el.id ? '#' + el.id : '[data-reactroot]';
			return { present: true, version: '', evidence: 'root container ' + tag };
		}
		const candidates = document.querySelectorAll('body > div');
		for (const c of candidates) {
			for (const key of Object.keys(c)) {
				if (key.startsWith('__reactContainer') || key.startsWith('_reactRootContainer')) {
					return { present: true, version: '', evidence: 'container with ' + key };
				}
			}
		}
		return { present: false };
	} catch (e) { return { present: false }; }
})()`

// ScriptReactNextData checks for the Next.js bootstrap payload.
const ScriptReactNextData = `(() => {
	try {
		if (!document.getElementById('__NEXT_DATA__')) return { present: false };
		return { present: true, version: '', evidence: '#__NEXT_DATA__ payload' };
	} catch (e) { return { present: false }; }
})()`
