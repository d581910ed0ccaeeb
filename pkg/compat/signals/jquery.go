package signals

// ScriptJQueryGlobal checks for jQuery and reads its version. jQuery
// argues for plain-HTML handling: its presence means the page is
// script-driven but not reactively re-rendered.
const ScriptJQueryGlobal = `(() => {
	try {
		const jq = window.jQuery || window.$;
		if (!jq || !jq.fn || !jq.fn.jquery) return { present: false };
		return { present: true, version: String(jq.fn.jquery), evidence: 'window.jQuery' };
	} catch (e) { return { present: false }; }
})()`
