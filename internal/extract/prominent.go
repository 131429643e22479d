package extract

import (
	"regexp"
	"sort"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/page"
)

// ProminentSelectors lists structural elements in descending importance.
var ProminentSelectors = []string{
	"header",
	"nav",
	"#header",
	"#nav",
	".header",
	".navbar",
	".navigation",

	`[class*="logo"]`,
	`[id*="logo"]`,
	`[class*="brand"]`,
	`[id*="brand"]`,

	".site-header",
	".main-header",
	".page-header",
	".global-header",

	"#masthead",
	".masthead",
	"#appbar",
	"#app-bar",
	".app-header",

	"button.primary",
	".primary-button",
	".btn-primary",
	".cta-button",

	".hero",
	".banner",
	".jumbotron",
	".showcase",
	".feature",

	".drawer",
	".sidebar",
	"#sidebar",
	"#drawer",
	".side-menu",
	"#side-menu",

	".container-fluid > div:first-child",
	".wrapper > div:first-child",

	"main > div:first-child",
	"body > div:first-child",
}

// Prominent score weights.
const (
	backgroundWeight   = 10
	backgroundAreaUnit = 10000
	depthPenalty       = 0.5
	gradientWeight     = 8
	gradientAreaUnit   = 15000
	shadeClassWeight   = 15
	emphasisBoost      = 5

	// Scores closer than this are equal; the shallower candidate wins.
	scoreTolerance = 1e-9
)

var emphasisClassPattern = regexp.MustCompile(`(?i)primary|brand|main|accent|theme`)

// Candidate is a colour with its accumulated score.
type Candidate struct {
	Colour colour.Hex
	Score  float64

	depth int
	order int
}

// Prominent scores background colours of structural elements and returns
// the highest-scoring colour. Colours seen in several places accumulate
// score. The body background is the last resort.
type Prominent struct{}

// Name implements Strategy.
func (Prominent) Name() string { return StrategyProminent }

// Extract implements Strategy.
func (p Prominent) Extract(doc *page.Document) (colour.Hex, bool) {
	if candidates := p.Candidates(doc); len(candidates) > 0 {
		return candidates[0].Colour, true
	}

	body := doc.Body()
	if raw, ok := page.BackgroundColour(body.AttrOr("style", "")); ok {
		return doc.Usable(raw)
	}
	return "", false
}

// Candidates returns every scored colour, best first.
func (Prominent) Candidates(doc *page.Document) []Candidate {
	board := newScoreboard()
	total := len(ProminentSelectors)

	for i, sel := range ProminentSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			box := doc.Box(s)
			if box.Width < MinElementSize || box.Height < MinElementSize {
				return
			}

			basePriority := float64(total - i)
			area := box.Area()
			depth := page.Depth(s.Get(0))
			style := s.AttrOr("style", "")

			if raw, ok := page.BackgroundColour(style); ok {
				if h, ok := doc.Usable(raw); ok {
					board.add(h, basePriority*backgroundWeight+area/backgroundAreaUnit-float64(depth)*depthPenalty, depth)
				}
			}

			for _, stop := range page.GradientStops(style) {
				if h, ok := doc.Usable(stop); ok {
					board.add(h, basePriority*gradientWeight+area/gradientAreaUnit, depth)
				}
			}

			for _, class := range page.ClassList(s) {
				if emphasisClassPattern.MatchString(class) {
					basePriority += emphasisBoost
				}
				if h, ok := colour.ShadeFromClass("bg", class); ok && colour.IsUsable(h) {
					board.add(h, basePriority*shadeClassWeight, depth)
				}
			}
		})
	}

	return board.ranked()
}

type scoreboard struct {
	byColour map[colour.Hex]*Candidate
	order    int
}

func newScoreboard() *scoreboard {
	return &scoreboard{byColour: make(map[colour.Hex]*Candidate)}
}

func (b *scoreboard) add(h colour.Hex, score float64, depth int) {
	c, ok := b.byColour[h]
	if !ok {
		b.byColour[h] = &Candidate{Colour: h, Score: score, depth: depth, order: b.order}
		b.order++
		return
	}
	c.Score += score
	c.depth = min(c.depth, depth)
}

func (b *scoreboard) ranked() []Candidate {
	out := make([]Candidate, 0, len(b.byColour))
	for _, c := range b.byColour {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, c := out[i], out[j]
		if d := a.Score - c.Score; d > scoreTolerance || d < -scoreTolerance {
			return a.Score > c.Score
		}
		if a.depth != c.depth {
			return a.depth < c.depth
		}
		return a.order < c.order
	})
	return out
}
