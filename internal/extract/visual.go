package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/page"
)

// Candidate scoring for visual elements.
const (
	brandScore     = 50
	iconBrandScore = 30
	topScore       = 20
	iconTopScore   = 10
	leftScore      = 10
	sizeScore      = 10

	topLimit  = 200
	leftLimit = 200

	minVisualSize     = 10
	minIconSize       = 5
	minInlineSVGImage = 24

	// Candidates whose scores differ by no more than scoreTie are ordered
	// by position; positions within positionTie are ordered left to right.
	scoreTie    = 10
	positionTie = 20

	maxRanked  = 10
	maxGeneral = 5
)

// IconSelector matches icon-font glyphs.
const IconSelector = `i[class*='icon'], i[class*='fa'], span[class*='icon']`

// HeaderSelectors are checked for a background colour when no ranked visual
// element yields one.
var HeaderSelectors = []string{
	"header", ".header", "#header", "nav", ".nav", "#nav",
	".navbar", ".top-bar", ".hero", ".banner",
}

var svgFillPattern = regexp.MustCompile(`(?i)fill\s*:\s*(#[0-9a-f]{3,8}|rgba?\([^)]*\))`)

type visualKind int

const (
	kindSVG visualKind = iota
	kindImage
	kindIcon
)

type visualCandidate struct {
	sel   *goquery.Selection
	kind  visualKind
	score int
	box   page.Rect
}

// Visual scores SVGs, images and icon glyphs as brand candidates and reads
// colours from the best ranked ones.
type Visual struct{}

// Name implements Strategy.
func (Visual) Name() string { return StrategyVisual }

// Extract implements Strategy.
func (Visual) Extract(doc *page.Document) (colour.Hex, bool) {
	svgs := doc.Find("svg")
	images := doc.Find("img")

	for _, c := range rankVisuals(doc, svgs, images, doc.Find(IconSelector)) {
		if h, ok := c.colour(doc); ok {
			return h, true
		}
	}

	for _, sel := range HeaderSelectors {
		if s, ok := doc.First(sel); ok {
			if h, ok := doc.Background(s); ok {
				return h, true
			}
		}
	}

	general := make([]visualCandidate, 0, maxGeneral)
	svgs.Each(func(_ int, s *goquery.Selection) {
		general = append(general, visualCandidate{sel: s, kind: kindSVG})
	})
	images.Each(func(_ int, s *goquery.Selection) {
		general = append(general, visualCandidate{sel: s, kind: kindImage})
	})
	if len(general) > maxGeneral {
		general = general[:maxGeneral]
	}
	for _, c := range general {
		if h, ok := c.colour(doc); ok {
			return h, true
		}
	}
	return "", false
}

func rankVisuals(doc *page.Document, svgs, images, icons *goquery.Selection) []visualCandidate {
	var found []visualCandidate

	svgs.Each(func(_ int, s *goquery.Selection) {
		box := doc.Box(s)
		if box.Width < minVisualSize || box.Height < minVisualSize {
			return
		}
		found = append(found, visualCandidate{sel: s, kind: kindSVG, box: box, score: visualScore(s, box)})
	})

	images.Each(func(_ int, s *goquery.Selection) {
		box := doc.Box(s)
		if box.Width < minVisualSize || box.Height < minVisualSize {
			return
		}
		if strings.Contains(s.AttrOr("src", ""), "data:image/svg+xml") &&
			box.Width < minInlineSVGImage && box.Height < minInlineSVGImage {
			return
		}
		found = append(found, visualCandidate{sel: s, kind: kindImage, box: box, score: visualScore(s, box)})
	})

	icons.Each(func(_ int, s *goquery.Selection) {
		box := doc.Box(s)
		if box.Width < minIconSize || box.Height < minIconSize {
			return
		}
		score := 0
		if IsBrandElement(s) {
			score += iconBrandScore
		}
		if box.Y < topLimit {
			score += iconTopScore
		}
		found = append(found, visualCandidate{sel: s, kind: kindIcon, box: box, score: score})
	})

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if abs(a.score-b.score) > scoreTie {
			return a.score > b.score
		}
		if math.Abs(a.box.Y-b.box.Y) > positionTie {
			return a.box.Y < b.box.Y
		}
		return a.box.X < b.box.X
	})

	if len(found) > maxRanked {
		found = found[:maxRanked]
	}
	return found
}

func visualScore(s *goquery.Selection, box page.Rect) int {
	score := 0
	if IsBrandElement(s) {
		score += brandScore
	}
	if box.Y < topLimit {
		score += topScore
	}
	if box.X < leftLimit {
		score += leftScore
	}
	if box.Width > 20 && box.Width < 300 && box.Height > 20 && box.Height < 200 {
		score += sizeScore
	}
	return score
}

func (c visualCandidate) colour(doc *page.Document) (colour.Hex, bool) {
	switch c.kind {
	case kindSVG:
		return SVGColour(doc, c.sel)
	case kindImage:
		return ImageColour(doc, c.sel)
	case kindIcon:
		return IconColour(doc, c.sel)
	}
	return "", false
}

// SVGColour reads a colour from an SVG: root fill and color attributes,
// inline style, then the majority colour across shape fills and strokes
// (strokes count half), then <style> rules inside the SVG.
func SVGColour(doc *page.Document, svg *goquery.Selection) (colour.Hex, bool) {
	for _, key := range []string{"fill", "color"} {
		if v, ok := svg.Attr(key); ok {
			if h, ok := doc.Usable(v); ok {
				return h, true
			}
		}
	}

	decls := page.Declarations(svg.AttrOr("style", ""))
	for _, key := range []string{"fill", "color"} {
		if v, ok := decls[key]; ok {
			if h, ok := doc.Usable(v); ok {
				return h, true
			}
		}
	}

	var votes tally
	svg.Find("path, circle, rect, polygon, line, ellipse, polyline, g").Each(func(_ int, s *goquery.Selection) {
		shapeDecls := page.Declarations(s.AttrOr("style", ""))
		if v, ok := attrOrDeclaration(s, shapeDecls, "fill"); ok {
			if h, ok := doc.Usable(v); ok {
				votes.add(h, 1)
			}
		}
		if v, ok := attrOrDeclaration(s, shapeDecls, "stroke"); ok {
			if h, ok := doc.Usable(v); ok {
				votes.add(h, 0.5)
			}
		}
	})
	if h, ok := votes.best(); ok {
		return h, true
	}

	var (
		found colour.Hex
		ok    bool
	)
	svg.Find("style").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, m := range svgFillPattern.FindAllStringSubmatch(s.Text(), -1) {
			if found, ok = doc.Usable(m[1]); ok {
				return false
			}
		}
		return true
	})
	return found, ok
}

// ImageColour reads a colour for an <img>: inline border colour, the
// background of up to three ancestors, then colour words in the file name.
func ImageColour(doc *page.Document, img *goquery.Selection) (colour.Hex, bool) {
	decls := page.Declarations(img.AttrOr("style", ""))
	for _, key := range []string{"border-color", "border"} {
		v, ok := decls[key]
		if !ok {
			continue
		}
		for _, token := range page.ColourTokens(v) {
			if h, ok := doc.Usable(token); ok {
				return h, true
			}
		}
	}

	parent := img.Parent()
	for i := 0; i < 3 && parent.Length() > 0; i++ {
		if h, ok := doc.Background(parent); ok {
			return h, true
		}
		parent = parent.Parent()
	}

	if src := img.AttrOr("src", ""); src != "" {
		if h, ok := colour.ColourFromFilename(src); ok && colour.IsUsable(h) {
			return h, true
		}
	}
	return "", false
}

// IconColour reads a colour for an icon glyph: its inherited text colour,
// then a text shade utility class.
func IconColour(doc *page.Document, icon *goquery.Selection) (colour.Hex, bool) {
	if h, ok := doc.ComputedColour(icon); ok && colour.IsUsable(h) {
		return h, true
	}
	for _, class := range page.ClassList(icon) {
		if h, ok := colour.ShadeFromClass("text", class); ok && colour.IsUsable(h) {
			return h, true
		}
	}
	return "", false
}

func attrOrDeclaration(s *goquery.Selection, decls map[string]string, key string) (string, bool) {
	if v, ok := decls[key]; ok {
		return v, true
	}
	return s.Attr(key)
}

// tally counts weighted votes per colour, remembering first-seen order so
// ties go to the earliest colour.
type tally struct {
	order  []colour.Hex
	weight map[colour.Hex]float64
}

func (t *tally) add(h colour.Hex, w float64) {
	if t.weight == nil {
		t.weight = make(map[colour.Hex]float64)
	}
	if _, seen := t.weight[h]; !seen {
		t.order = append(t.order, h)
	}
	t.weight[h] += w
}

func (t *tally) best() (colour.Hex, bool) {
	var (
		best colour.Hex
		top  float64
	)
	for _, h := range t.order {
		if w := t.weight[h]; w > top {
			best, top = h, w
		}
	}
	return best, best != ""
}

// topTwo returns the two heaviest colours.
func (t *tally) topTwo() (colour.Hex, colour.Hex) {
	var (
		first, second colour.Hex
		w1, w2        float64
	)
	for _, h := range t.order {
		w := t.weight[h]
		switch {
		case w > w1:
			second, w2 = first, w1
			first, w1 = h, w
		case w > w2:
			second, w2 = h, w
		}
	}
	return first, second
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
