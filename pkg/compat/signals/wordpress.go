package signals

// Scripted WordPress probes. The generator meta tag and asset-path
// signals are handled by the markup scanner since they need no script
// execution.

// ScriptWordPressGlobal checks for the wp global that WordPress cores
// and block-editor bundles install.
const ScriptWordPressGlobal = `(() => {
	try {
		const wp = window.wp;
		if (!wp || typeof wp !== 'object') return { present: false };
		const parts = [];
		if (wp.hooks) parts.push('wp.hooks');
		if (wp.data) parts.push('wp.data');
		return { present: true, version: '', evidence: 'window.wp' + (parts.length ? ' (' + parts.join(', ') + ')' : '') };
	} catch (e) { return { present: false }; }
})()`

// ScriptWordPressAdminClass checks the document body for the classes
// WordPress stamps on admin and logged-in pages.
const ScriptWordPressAdminClass = `(() => {
	try {
		const body = document.body;
		if (!body || !body.classList) return { present: false };
		const markers = ['wp-admin', 'wp-core-ui', 'logged-in', 'admin-bar'];
		const found = markers.filter((m) => body.classList.contains(m));
		if (found.length === 0) return { present: false };
		return { present: true, version: '', evidence: 'body class ' + found.join(' ') };
	} catch (e) { return { present: false }; }
})()`
