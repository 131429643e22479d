package page

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Rect is an element's rendered box in CSS pixels relative to the top-left
// of the page.
type Rect struct {
	X, Y, Width, Height float64
}

// Area returns Width*Height.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Layout supplies element geometry.
type Layout interface {
	Box(n *html.Node) Rect
}

// DefaultViewport is the viewport the estimated layout assumes.
var DefaultViewport = Rect{Width: 1280, Height: 800}

const (
	lineHeight     = 24
	iconSize       = 24
	glyphSize      = 16
	controlWidth   = 120
	controlHeight  = 40
	maxInlineWidth = 300
)

// EstimatedLayout derives geometry from markup alone. Explicit sizes come
// from width/height attributes, inline px declarations and SVG viewBox.
// Positions follow a simple block flow: blocks stack vertically inside
// their parent, inline elements run left to right. Inline top/left px
// declarations override the flow position.
type EstimatedLayout struct {
	viewport Rect
	boxes    map[*html.Node]Rect
	widths   map[*html.Node]float64
	sizes    map[*html.Node]Rect
}

// NewEstimatedLayout returns a layout for the given viewport.
func NewEstimatedLayout(viewport Rect) *EstimatedLayout {
	return &EstimatedLayout{
		viewport: viewport,
		boxes:    make(map[*html.Node]Rect),
		widths:   make(map[*html.Node]float64),
		sizes:    make(map[*html.Node]Rect),
	}
}

// Box implements Layout.
func (l *EstimatedLayout) Box(n *html.Node) Rect {
	if n == nil || n.Type != html.ElementNode {
		return Rect{}
	}
	if r, ok := l.boxes[n]; ok {
		return r
	}

	size := l.size(n)
	r := Rect{Width: size.Width, Height: size.Height}

	if parent := elementParent(n); parent != nil {
		pb := l.Box(parent)
		r.X, r.Y = pb.X, pb.Y
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type != html.ElementNode {
				continue
			}
			ss := l.size(s)
			if isInline(s) && isInline(n) {
				r.X += ss.Width
				continue
			}
			if !isInline(s) {
				r.Y += ss.Height
			}
		}
	}

	decls := Declarations(attr(n, "style"))
	if v, ok := Pixels(decls["top"]); ok {
		r.Y = v
	}
	if v, ok := Pixels(decls["left"]); ok {
		r.X = v
	}

	l.boxes[n] = r
	return r
}

// size returns an element's width and height. Widths are resolved top-down
// from the parent and heights bottom-up from the children, so neither pass
// depends on the other's result for the same node.
func (l *EstimatedLayout) size(n *html.Node) Rect {
	if r, ok := l.sizes[n]; ok {
		return r
	}
	var r Rect
	if rendered(n) {
		r.Width = l.width(n)
		if _, h, _, hok := explicitSize(n); hok {
			r.Height = h
		} else {
			r.Height = l.defaultHeight(n, r.Width)
		}
	}
	l.sizes[n] = r
	return r
}

func (l *EstimatedLayout) width(n *html.Node) float64 {
	if w, ok := l.widths[n]; ok {
		return w
	}
	var w float64
	if rendered(n) {
		var wok bool
		if w, _, wok, _ = explicitSize(n); !wok {
			w = l.defaultWidth(n)
		}
	}
	l.widths[n] = w
	return w
}

// explicitSize reads width/height attributes, inline px declarations and,
// for SVG, the viewBox aspect ratio.
func explicitSize(n *html.Node) (w, h float64, wok, hok bool) {
	decls := Declarations(attr(n, "style"))
	w, wok = explicitLength(attr(n, "width"), decls["width"])
	h, hok = explicitLength(attr(n, "height"), decls["height"])

	if n.DataAtom == atom.Svg && (!wok || !hok) {
		if vw, vh, ok := viewBox(attr(n, "viewBox")); ok {
			switch {
			case !wok && !hok:
				w, h = vw, vh
			case !wok:
				w = h * vw / vh
			case !hok:
				h = w * vh / vw
			}
			wok, hok = true, true
		}
	}
	return w, h, wok, hok
}

func (l *EstimatedLayout) defaultWidth(n *html.Node) float64 {
	switch n.DataAtom {
	case atom.Svg, atom.Img:
		return iconSize
	case atom.I:
		return glyphSize
	}
	if isInline(n) {
		return inlineTextWidth(n)
	}
	if parent := elementParent(n); parent != nil {
		return l.width(parent)
	}
	return l.viewport.Width
}

func (l *EstimatedLayout) defaultHeight(n *html.Node, width float64) float64 {
	switch n.DataAtom {
	case atom.Svg, atom.Img:
		if width > 0 && width < iconSize {
			return width
		}
		return iconSize
	case atom.I:
		return glyphSize
	case atom.Button, atom.Input, atom.Select:
		return controlHeight
	}
	if isInline(n) {
		return lineHeight
	}

	var blocks, line float64
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		cs := l.size(c)
		if isInline(c) {
			line = max(line, cs.Height)
			continue
		}
		blocks += cs.Height
	}
	if total := blocks + line; total > 0 {
		return total
	}
	if hasText(n) {
		return lineHeight
	}
	return 0
}

func inlineTextWidth(n *html.Node) float64 {
	if n.DataAtom == atom.Button {
		return controlWidth
	}
	var b strings.Builder
	collectText(n, &b)
	w := float64(len(strings.TrimSpace(b.String()))) * 8
	if w == 0 {
		return glyphSize
	}
	return min(w, maxInlineWidth)
}

func collectText(n *html.Node, b *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			collectText(c, b)
		}
	}
}

func hasText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return true
		}
	}
	return false
}

func explicitLength(attrValue, styleValue string) (float64, bool) {
	if v, ok := Pixels(styleValue); ok {
		return v, true
	}
	return Pixels(attrValue)
}

func viewBox(v string) (float64, float64, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return 0, 0, false
	}
	w, wok := Pixels(fields[2])
	h, hok := Pixels(fields[3])
	if !wok || !hok || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func rendered(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Meta, atom.Link, atom.Title,
		atom.Noscript, atom.Template, atom.Base:
		return false
	}
	if _, hidden := attrOK(n, "hidden"); hidden {
		return false
	}
	if strings.TrimSpace(strings.ToLower(Declarations(attr(n, "style"))["display"])) == "none" {
		return false
	}
	return true
}

func isInline(n *html.Node) bool {
	switch n.DataAtom {
	case atom.A, atom.Span, atom.I, atom.B, atom.Em, atom.Strong, atom.Small,
		atom.Img, atom.Svg, atom.Button, atom.Label, atom.Input, atom.Select,
		atom.Abbr, atom.Code:
		return true
	}
	return false
}

func elementParent(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
