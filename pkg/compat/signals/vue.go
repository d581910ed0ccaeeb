package signals

// Scripted Vue probes.

// ScriptVueGlobal checks for the Vue global and reads its version.
const ScriptVueGlobal = `(() => {
	try {
		const v = window.Vue;
		if (!v) return { present: false };
		return { present: true, version: String(v.version || ''), evidence: 'window.Vue' };
	} catch (e) { return { present: false }; }
})()`

// ScriptVueDevtools checks the Vue devtools hook for a registered app
// or a captured Vue constructor.
const ScriptVueDevtools = `(() => {
	try {
		const hook = window.__VUE_DEVTOOLS_GLOBAL_HOOK__;
		if (!hook) return { present: false };
		const apps = hook.apps && hook.apps.length ? hook.apps.length : 0;
		if (!hook.Vue && apps === 0) return { present: false };
		let version = '';
		if (hook.Vue && hook.Vue.version) version = String(hook.Vue.version);
		return { present: true, version: version, evidence: apps > 0 ? apps + ' app(s) registered' : 'hook.Vue captured' };
	} catch (e) { return { present: false }; }
})()`

// ScriptVueRoot checks for a mounted Vue root: the conventional #app
// container, the data-v-app attribute Vue 3 stamps on mount targets,
// or an element carrying Vue's instance keys.
const ScriptVueRoot = `(() => {
	try {
		const el = document.querySelector('[data-v-app], #app');
		if (el) {
			const tag = el.hasAttribute('data-v-app') ? '[data-v-app]' : '#app';
			return { present: true, version: '', evidence: 'root container ' + tag };
		}
		const candidates = document.querySelectorAll('body > div');
		for (const c of candidates) {
			if (c.__vue__ || c.__vue_app__) {
				return { present: true, version: '', evidence: 'container with Vue instance keys' };
			}
		}
		return { present: false };
	} catch (e) { return { present: false }; }
})()`

// ScriptVueNuxt checks for Nuxt's bootstrap payload and container.
const ScriptVueNuxt = `(() => {
	try {
		if (window.__NUXT__ || window.$nuxt) {
			return { present: true, version: '', evidence: 'window.__NUXT__' };
		}
		if (document.getElementById('__nuxt')) {
			return { present: true, version: '', evidence: '#__nuxt container' };
		}
		return { present: false };
	} catch (e) { return { present: false }; }
})()`
