package signals

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ScanMarkup parses the page's raw HTML and returns every signal that
// can be read from static markup alone: generator meta tags, body
// classes, asset URLs, root container ids. This pass works even when
// the host sandboxes its globals away from injected scripts.
//
// Only present signals are returned; a parse failure returns nil.
func ScanMarkup(rawHTML string) []Signal {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	s := &markupScan{found: make(map[string]Signal)}
	s.walk(doc)

	out := make([]Signal, 0, len(s.found))
	for _, id := range markupSignalOrder {
		if sig, ok := s.found[id]; ok {
			out = append(out, sig)
		}
	}
	return out
}

// markupSignalOrder keeps ScanMarkup's output deterministic.
var markupSignalOrder = []string{
	IDWordPressGenerator,
	IDWordPressAdminClass,
	IDWordPressAssetPath,
	IDReactRoot,
	IDReactNextData,
	IDVueRoot,
	IDVueNuxt,
	IDJQueryGlobal,
}

var (
	wpGeneratorRe = regexp.MustCompile(`(?i)^WordPress\s*([0-9][0-9a-z.\-]*)?`)
	jqueryAssetRe = regexp.MustCompile(`(?i)jquery(?:[.-]([0-9]+(?:\.[0-9]+)*))?(?:\.min)?\.js`)
)

type markupScan struct {
	found map[string]Signal
}

func (s *markupScan) add(sig Signal) {
	if _, ok := s.found[sig.ID]; ok {
		return
	}
	sig.Present = true
	s.found[sig.ID] = sig
}

func (s *markupScan) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		s.inspect(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
}

func (s *markupScan) inspect(n *html.Node) {
	tag := strings.ToLower(n.Data)

	switch tag {
	case "meta":
		s.inspectMeta(n)
	case "body":
		s.inspectBodyClass(n)
	case "script", "link", "img":
		s.inspectAssetURL(n)
	}

	if tag == "script" && attr(n, "id") == "__NEXT_DATA__" {
		s.add(Signal{ID: IDReactNextData, Framework: React, Evidence: "#__NEXT_DATA__ payload"})
	}

	switch attr(n, "id") {
	case "root", "__next":
		s.add(Signal{ID: IDReactRoot, Framework: React, Evidence: "root container #" + attr(n, "id")})
	case "app":
		s.add(Signal{ID: IDVueRoot, Framework: Vue, Evidence: "root container #app"})
	case "__nuxt":
		s.add(Signal{ID: IDVueNuxt, Framework: Vue, Evidence: "#__nuxt container"})
	}

	if hasAttr(n, "data-reactroot") {
		s.add(Signal{ID: IDReactRoot, Framework: React, Evidence: "root container [data-reactroot]"})
	}
	if hasAttr(n, "data-v-app") {
		s.add(Signal{ID: IDVueRoot, Framework: Vue, Evidence: "root container [data-v-app]"})
	}
}

func (s *markupScan) inspectMeta(n *html.Node) {
	if !strings.EqualFold(attr(n, "name"), "generator") {
		return
	}
	content := attr(n, "content")
	m := wpGeneratorRe.FindStringSubmatch(content)
	if m == nil {
		return
	}
	s.add(Signal{
		ID:        IDWordPressGenerator,
		Framework: WordPress,
		Version:   m[1],
		Evidence:  "generator meta " + strings.TrimSpace(content),
	})
}

func (s *markupScan) inspectBodyClass(n *html.Node) {
	classes := strings.Fields(attr(n, "class"))
	markers := map[string]bool{"wp-admin": true, "wp-core-ui": true, "logged-in": true, "admin-bar": true}
	var hits []string
	for _, c := range classes {
		if markers[c] {
			hits = append(hits, c)
		}
	}
	if len(hits) == 0 {
		return
	}
	s.add(Signal{
		ID:        IDWordPressAdminClass,
		Framework: WordPress,
		Evidence:  "body class " + strings.Join(hits, " "),
	})
}

func (s *markupScan) inspectAssetURL(n *html.Node) {
	url := attr(n, "src")
	if url == "" {
		url = attr(n, "href")
	}
	if url == "" {
		return
	}

	if strings.Contains(url, "/wp-content/") || strings.Contains(url, "/wp-includes/") {
		s.add(Signal{
			ID:        IDWordPressAssetPath,
			Framework: WordPress,
			Evidence:  "asset url " + url,
		})
	}

	if m := jqueryAssetRe.FindStringSubmatch(url); m != nil {
		s.add(Signal{
			ID:        IDJQueryGlobal,
			Framework: HTML,
			Version:   m[1],
			Evidence:  "jquery asset " + url,
		})
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}
