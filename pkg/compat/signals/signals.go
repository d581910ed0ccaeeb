// Package signals implements the capability probes that read the host
// page environment. Each probe produces an independent piece of
// evidence about the host's front-end technology; classification is
// left entirely to pkg/compat/detect.
//
// Probes come in two flavors:
//
//  1. Scripted probes evaluate a guarded JavaScript expression in the
//     live page (globals, devtools hooks, runtime-only markers).
//  2. The markup scanner parses the page's raw HTML and extracts
//     signals that need no script execution (generator meta tags, body
//     classes, asset URLs, root container ids).
//
// A probe never fails: evaluation errors, missing globals, and
// malformed markup all read as "signal absent".
package signals

import (
	"github.com/entrhq/embedkit/pkg/dom"
	"github.com/entrhq/embedkit/pkg/logging"
)

// Host technology names used by the Framework field. These are plain
// strings here so that signal collection stays independent of the
// classification layer.
const (
	WordPress = "wordpress"
	React     = "react"
	Vue       = "vue"
	HTML      = "html"
)

// Signal is one piece of evidence about the host environment.
type Signal struct {
	// ID identifies the probe, e.g. "wordpress.generator-meta".
	ID string

	// Framework names the technology this signal argues for.
	Framework string

	// Present reports whether the probe found its marker.
	Present bool

	// Version is populated when the marker exposes one.
	Version string

	// Evidence is a short human-readable note of what was found.
	Evidence string
}

// scriptedProbe pairs a probe identity with the guarded page script
// that implements it. Every script resolves to an object of the shape
// {present, version, evidence} and swallows its own failures.
type scriptedProbe struct {
	id        string
	framework string
	script    string
}

// scriptedProbes is the full scripted probe set, evaluated on every
// detection pass.
var scriptedProbes = []scriptedProbe{
	{IDWordPressGlobal, WordPress, ScriptWordPressGlobal},
	{IDWordPressAdminClass, WordPress, ScriptWordPressAdminClass},
	{IDReactGlobal, React, ScriptReactGlobal},
	{IDReactDevtools, React, ScriptReactDevtools},
	{IDReactRoot, React, ScriptReactRoot},
	{IDReactNextData, React, ScriptReactNextData},
	{IDVueGlobal, Vue, ScriptVueGlobal},
	{IDVueDevtools, Vue, ScriptVueDevtools},
	{IDVueRoot, Vue, ScriptVueRoot},
	{IDVueNuxt, Vue, ScriptVueNuxt},
	{IDJQueryGlobal, HTML, ScriptJQueryGlobal},
}

// Probe identifiers. The markup scanner reuses the same IDs where a
// signal can be observed both ways, so the detector counts each piece
// of evidence once.
const (
	IDWordPressGlobal     = "wordpress.global"
	IDWordPressAdminClass = "wordpress.admin-class"
	IDWordPressGenerator  = "wordpress.generator-meta"
	IDWordPressAssetPath  = "wordpress.asset-path"
	IDReactGlobal         = "react.global"
	IDReactDevtools       = "react.devtools"
	IDReactRoot           = "react.root"
	IDReactNextData       = "react.next-data"
	IDVueGlobal           = "vue.global"
	IDVueDevtools         = "vue.devtools"
	IDVueRoot             = "vue.root"
	IDVueNuxt             = "vue.nuxt"
	IDJQueryGlobal        = "html.jquery"
)

// CollectScripted evaluates every scripted probe against the page and
// returns one Signal per probe. Evaluation failures are logged at
// debug level and read as absent.
func CollectScripted(page dom.Page, logger *logging.Logger) []Signal {
	out := make([]Signal, 0, len(scriptedProbes))
	for _, p := range scriptedProbes {
		out = append(out, runScripted(page, logger, p))
	}
	return out
}

func runScripted(page dom.Page, logger *logging.Logger, p scriptedProbe) Signal {
	sig := Signal{ID: p.id, Framework: p.framework}

	raw, err := page.Evaluate(p.script)
	if err != nil {
		if logger != nil {
			logger.Debugf("probe %s: evaluate failed: %v", p.id, err)
		}
		return sig
	}

	result, ok := raw.(map[string]interface{})
	if !ok {
		return sig
	}

	if present, _ := result["present"].(bool); !present {
		return sig
	}
	sig.Present = true
	sig.Version, _ = result["version"].(string)
	sig.Evidence, _ = result["evidence"].(string)
	return sig
}
