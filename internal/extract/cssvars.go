package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/page"
)

// BrandVariables is the custom-property vocabulary, in priority order.
var BrandVariables = []string{
	"--primary",
	"--primary-color",
	"--color-primary",
	"--brand",
	"--brand-color",
	"--color-brand",
	"--theme",
	"--theme-color",
	"--color-theme",
	"--accent",
	"--accent-color",
	"--color-accent",
	"--main",
	"--main-color",
	"--color-main",
	"--bg-primary",
	"--background-primary",
	"--tw-bg-primary",
	"--tw-primary",
}

var (
	brandVariablePatterns = compileVariablePatterns(BrandVariables)

	rootBlockPattern = regexp.MustCompile(`:root\s*\{([^}]*)\}`)
	bodyBlockPattern = regexp.MustCompile(`(?:^|[\s,;}])body\s*\{([^}]*)\}`)
)

func compileVariablePatterns(names []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(names))
	for i, name := range names {
		patterns[i] = regexp.MustCompile(`(?i)(?:^|[\s;{])` + regexp.QuoteMeta(name) + `\s*:\s*([^;]+)`)
	}
	return patterns
}

// CSSVars scans inline style attributes and <style> blocks for brand-like
// custom properties. The first usable declaration wins; specificity is
// ignored.
type CSSVars struct{}

// Name implements Strategy.
func (CSSVars) Name() string { return StrategyCSSVars }

// Extract implements Strategy.
func (CSSVars) Extract(doc *page.Document) (colour.Hex, bool) {
	var (
		found colour.Hex
		ok    bool
	)

	doc.Find("[style]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found, ok = variableColour(doc, s.AttrOr("style", ""))
		return !ok
	})
	if ok {
		return found, true
	}

	doc.Find("style").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		css := s.Text()
		if css == "" {
			return true
		}
		for _, pattern := range []*regexp.Regexp{rootBlockPattern, bodyBlockPattern} {
			for _, m := range pattern.FindAllStringSubmatch(css, -1) {
				if found, ok = variableColour(doc, m[1]); ok {
					return false
				}
			}
		}
		return true
	})
	return found, ok
}

func variableColour(doc *page.Document, declarations string) (colour.Hex, bool) {
	if !strings.Contains(declarations, "--") {
		return "", false
	}
	for _, pattern := range brandVariablePatterns {
		m := pattern.FindStringSubmatch(declarations)
		if m == nil {
			continue
		}
		if h, ok := doc.Usable(strings.TrimSpace(m[1])); ok {
			return h, true
		}
	}
	return "", false
}
