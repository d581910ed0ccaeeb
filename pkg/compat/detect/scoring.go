package detect

import (
	"strings"

	"github.com/entrhq/embedkit/pkg/compat/signals"
)

// Scoring constants for host framework detection.
// These define the weight of each signal class when classifying the
// host page. The exact values are tunable (see WithWeights); only the
// relative ordering is contractual.

const (
	// ScoreAdminMarker represents a CMS admin marker on the document
	// body. Only the CMS itself stamps these classes, so this is the
	// strongest single signal.
	ScoreAdminMarker = 3.0

	// ScoreGeneratorMeta represents a generator meta tag naming the
	// CMS, usually with a version. Themes rarely strip it.
	ScoreGeneratorMeta = 3.0

	// ScoreGlobalObject represents a framework global on window.
	// Strong, but bundlers increasingly keep globals out of scope.
	ScoreGlobalObject = 2.5

	// ScoreDevtoolsHook represents a devtools hook listing at least one
	// live renderer or app. Comparable to a global: runtime-confirmed.
	ScoreDevtoolsHook = 2.5

	// ScoreRootContainer represents a distinctive root mounting element
	// (#root, #__next, #app, data-v-app). Weaker since containers can
	// be named anything.
	ScoreRootContainer = 2.0

	// ScoreAssetPath represents CMS asset URLs in the markup
	// (wp-content, wp-includes). Weak alone: pages embed CMS-hosted
	// media without being CMS pages.
	ScoreAssetPath = 2.0

	// ScoreBootstrapPayload represents a meta-framework bootstrap
	// payload (__NEXT_DATA__, __NUXT__).
	ScoreBootstrapPayload = 2.0

	// ScoreLegacyLibrary represents a legacy DOM library (jQuery).
	// Argues for plain-HTML handling, used mostly for tie-breaking
	// against the no-signal default.
	ScoreLegacyLibrary = 1.0
)

// defaultWeights maps every known signal to its score.
var defaultWeights = map[string]float64{
	signals.IDWordPressAdminClass: ScoreAdminMarker,
	signals.IDWordPressGenerator:  ScoreGeneratorMeta,
	signals.IDWordPressGlobal:     ScoreGlobalObject,
	signals.IDWordPressAssetPath:  ScoreAssetPath,

	signals.IDReactGlobal:   ScoreGlobalObject,
	signals.IDReactDevtools: ScoreDevtoolsHook,
	signals.IDReactRoot:     ScoreRootContainer,
	signals.IDReactNextData: ScoreBootstrapPayload,

	signals.IDVueGlobal:   ScoreGlobalObject,
	signals.IDVueDevtools: ScoreDevtoolsHook,
	signals.IDVueRoot:     ScoreRootContainer,
	signals.IDVueNuxt:     ScoreBootstrapPayload,

	signals.IDJQueryGlobal: ScoreLegacyLibrary,
}

// htmlScoreCeiling normalizes the plain-HTML score. It is deliberately
// larger than the jQuery weight alone so that a jQuery-only page scores
// 0.25: above the no-signal default, below any framework with a global
// or devtools signal.
const htmlScoreCeiling = 4.0

// defaultHTMLConfidence is the confidence of the no-signal plain-HTML
// classification. It must stay below the weakest single positive
// framework signal (asset path: 2.0/10.5 ≈ 0.19) so one real signal
// always outranks the default.
const defaultHTMLConfidence = 0.10

// maxAttainable returns the normalization ceiling for each framework:
// the sum of its signal weights, except plain HTML which uses a fixed
// ceiling so a lone jQuery hit cannot normalize to full confidence.
func maxAttainable(weights map[string]float64) map[Framework]float64 {
	ceilings := map[Framework]float64{
		FrameworkHTML: htmlScoreCeiling,
	}
	for id, w := range weights {
		fw := signalFramework(id)
		if fw == FrameworkHTML {
			continue
		}
		ceilings[fw] += w
	}
	return ceilings
}

// signalFramework maps a signal ID prefix to its framework.
func signalFramework(id string) Framework {
	switch {
	case strings.HasPrefix(id, "wordpress."):
		return FrameworkWordPress
	case strings.HasPrefix(id, "react."):
		return FrameworkReact
	case strings.HasPrefix(id, "vue."):
		return FrameworkVue
	default:
		return FrameworkHTML
	}
}
