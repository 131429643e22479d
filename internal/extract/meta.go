package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/page"
)

// MetaSelectors lists theme metadata in priority order.
var MetaSelectors = []string{
	`meta[name="theme-color"]`,
	`meta[property="og:theme-color"]`,
	`meta[name="og:theme-color"]`,
	`meta[name="msapplication-TileColor"]`,
	`meta[name="apple-mobile-web-app-status-bar-style"]`,
	`meta[name="color-scheme"]`,
	`meta[name="theme-color-light"]`,
	`meta[name="theme-color-dark"]`,
}

// Meta reads declared theme colours from <meta> tags.
type Meta struct{}

// Name implements Strategy.
func (Meta) Name() string { return StrategyMeta }

// Extract implements Strategy.
func (Meta) Extract(doc *page.Document) (colour.Hex, bool) {
	for _, sel := range MetaSelectors {
		var (
			found colour.Hex
			ok    bool
		)
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			content := strings.TrimSpace(s.AttrOr("content", ""))
			if content == "" || strings.EqualFold(content, "default") {
				return true
			}
			found, ok = doc.Usable(content)
			return !ok
		})
		if ok {
			return found, true
		}
	}
	return "", false
}
