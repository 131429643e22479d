package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BrandKeywords mark an element or its parent as a likely logo.
var BrandKeywords = []string{"logo", "brand", "emblem", "symbol", "badge", "mark"}

// BrandContainers are ancestors that make any visual element inside them a
// brand candidate.
const BrandContainers = "header, .header, #header, nav, .nav, #nav, .logo-container, #logo-container, .brand, #brand"

// IsBrandElement reports whether s looks like a logo or brand mark: brand
// keywords in its id, class, alt or src, in its parent's id or class, or
// placement inside a header, nav or brand container.
func IsBrandElement(s *goquery.Selection) bool {
	if s.Length() == 0 {
		return false
	}
	for _, key := range []string{"id", "class", "alt", "src"} {
		if containsBrandKeyword(s.AttrOr(key, "")) {
			return true
		}
	}
	if parent := s.Parent(); parent.Length() > 0 {
		if containsBrandKeyword(parent.AttrOr("id", "")) || containsBrandKeyword(parent.AttrOr("class", "")) {
			return true
		}
	}
	return s.Closest(BrandContainers).Length() > 0
}

func containsBrandKeyword(v string) bool {
	if v == "" {
		return false
	}
	v = strings.ToLower(v)
	for _, kw := range BrandKeywords {
		if strings.Contains(v, kw) {
			return true
		}
	}
	return false
}
