// Package readingmode toggles a fixed stylesheet that narrows the page body
// and loosens its typography.
package readingmode

import "github.com/lotas/attention-cleaner/internal/page"

// StyleID is the id of the injected <style> element.
const StyleID = "attention-cleaner-reading-mode"

// Stylesheet is the reading mode CSS. It is not configurable.
const Stylesheet = `
body {
  max-width: 800px !important;
  margin: 0 auto !important;
  padding: 40px 20px !important;
  line-height: 1.8 !important;
  font-size: 18px !important;
  background: #fefefe !important;
  color: #333 !important;
}

article, main, .post-content, .article-content {
  max-width: 100% !important;
  margin: 0 auto !important;
}

p {
  line-height: 1.8 !important;
  margin-bottom: 1.5em !important;
}

h1, h2, h3, h4, h5, h6 {
  line-height: 1.4 !important;
  margin-top: 1.5em !important;
  margin-bottom: 0.8em !important;
}
`

// Set injects the stylesheet, or removes it when enabled is false. Both
// directions are idempotent.
func Set(doc *page.Document, enabled bool) {
	if enabled {
		doc.SetHeadStyle(StyleID, Stylesheet)
		return
	}
	doc.RemoveHeadStyle(StyleID)
}

// Enabled reports whether the stylesheet is present.
func Enabled(doc *page.Document) bool {
	_, ok := doc.HeadStyle(StyleID)
	return ok
}
