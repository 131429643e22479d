package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/page"
)

// MinElementSize is the smallest width and height an element needs before
// its colours are considered. Smaller elements are treated as decoration.
const MinElementSize = 20

// FrameworkSelectors lists utility-CSS conventions for primary colours:
// utility shade classes first, then component conventions.
var FrameworkSelectors = []string{
	".bg-primary",
	".bg-blue-500",
	".bg-blue-600",
	".bg-indigo-500",
	".bg-indigo-600",
	".bg-purple-500",
	".bg-purple-600",
	".bg-red-500",
	".bg-red-600",
	".bg-green-500",
	".bg-green-600",
	".bg-pink-500",
	".bg-pink-600",
	".bg-yellow-500",
	".bg-yellow-600",
	`[class*="bg-primary"]`,
	`[class*="primary-bg"]`,
	".btn-primary",
	".button-primary",
	".primary-button",
	".navbar-primary",
	".primary-bg",
	".cta",
	".cta-primary",
	".btn-cta",
	".button-cta",
	".action-button",
	".main-action",
	".primary-action",
}

// ButtonSelector matches interactive elements whose inline backgrounds are
// checked after the framework selectors.
const ButtonSelector = `button, [role="button"], a.btn, a.button, .btn, .button`

// Framework infers a colour from utility-class conventions and inline
// backgrounds on buttons.
type Framework struct{}

// Name implements Strategy.
func (Framework) Name() string { return StrategyFramework }

// Extract implements Strategy.
func (Framework) Extract(doc *page.Document) (colour.Hex, bool) {
	for _, sel := range FrameworkSelectors {
		if h, ok := firstVisible(doc, doc.Find(sel), frameworkColour); ok {
			return h, true
		}
	}
	return firstVisible(doc, doc.Find(ButtonSelector), inlineBackground)
}

func firstVisible(doc *page.Document, sel *goquery.Selection, fn func(*page.Document, *goquery.Selection) (colour.Hex, bool)) (colour.Hex, bool) {
	var (
		found colour.Hex
		ok    bool
	)
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		box := doc.Box(s)
		if box.Width < MinElementSize || box.Height < MinElementSize {
			return true
		}
		found, ok = fn(doc, s)
		return !ok
	})
	return found, ok
}

func frameworkColour(doc *page.Document, s *goquery.Selection) (colour.Hex, bool) {
	if h, ok := inlineBackground(doc, s); ok {
		return h, true
	}
	for _, class := range page.ClassList(s) {
		if h, ok := colour.ShadeFromClass("bg", class); ok && colour.IsUsable(h) {
			return h, true
		}
	}
	return "", false
}

func inlineBackground(doc *page.Document, s *goquery.Selection) (colour.Hex, bool) {
	raw, ok := page.BackgroundColour(s.AttrOr("style", ""))
	if !ok {
		return "", false
	}
	return doc.Usable(raw)
}
