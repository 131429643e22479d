// Package page wraps a parsed HTML document with the facilities colour
// strategies need: selector queries, inline style access, estimated layout
// boxes and DOM depth.
package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jmylchreest/sitetint/internal/colour"
)

// Document is a parsed page.
type Document struct {
	doc      *goquery.Document
	layout   Layout
	resolver colour.Resolver
}

// Option configures a Document.
type Option func(*Document)

// WithLayout replaces the estimated layout, e.g. with real geometry from a
// rendering engine.
func WithLayout(l Layout) Option {
	return func(d *Document) {
		d.layout = l
	}
}

// WithResolver sets the colour resolver used for syntax Normalize does not
// understand. Defaults to colour.NamedResolver.
func WithResolver(r colour.Resolver) Option {
	return func(d *Document) {
		d.resolver = r
	}
}

// Parse parses serialized markup.
func Parse(markup string, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	d := &Document{
		doc:      doc,
		resolver: colour.NamedResolver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.layout == nil {
		d.layout = NewEstimatedLayout(DefaultViewport)
	}
	return d, nil
}

// Find returns all elements matching a CSS selector in document order.
// Invalid selectors match nothing.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// First returns the first element matching selector, if any.
func (d *Document) First(selector string) (*goquery.Selection, bool) {
	s := d.doc.Find(selector).First()
	return s, s.Length() > 0
}

// Body returns the body element.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body").First()
}

// Box returns the layout box of the first node in s.
func (d *Document) Box(s *goquery.Selection) Rect {
	if s.Length() == 0 {
		return Rect{}
	}
	return d.layout.Box(s.Get(0))
}

// Resolver returns the document's colour resolver.
func (d *Document) Resolver() colour.Resolver {
	return d.resolver
}

// Normalize normalizes a raw colour with the document's resolver.
func (d *Document) Normalize(raw string) (colour.Hex, bool) {
	return colour.Normalize(raw, d.resolver)
}

// Usable normalizes raw and reports whether it passes the usability filter.
func (d *Document) Usable(raw string) (colour.Hex, bool) {
	h, ok := d.Normalize(raw)
	if !ok || !colour.IsUsable(h) {
		return "", false
	}
	return h, true
}

// Depth returns the length of the node's ancestor chain, counting the
// document node.
func Depth(n *html.Node) int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		depth++
	}
	return depth
}

// ComputedColour returns the text colour that applies to the first node of
// s: its own inline color declaration or the nearest ancestor's.
func (d *Document) ComputedColour(s *goquery.Selection) (colour.Hex, bool) {
	if s.Length() == 0 {
		return "", false
	}
	for n := s.Get(0); n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if v, ok := Declaration(attr(n, "style"), "color"); ok {
			return d.Normalize(v)
		}
	}
	return "", false
}

// Background returns the background colour of s: its inline background
// colour, else the first stop of an inline gradient. Stylesheet rules are not
// consulted. Only usable colours are returned.
func (d *Document) Background(s *goquery.Selection) (colour.Hex, bool) {
	style, _ := s.Attr("style")
	if style == "" {
		return "", false
	}
	if v, ok := BackgroundColour(style); ok {
		if h, ok := d.Usable(v); ok {
			return h, true
		}
	}
	if stops := GradientStops(style); len(stops) > 0 {
		return d.Usable(stops[0])
	}
	return "", false
}

// ClassList returns the element's class names.
func ClassList(s *goquery.Selection) []string {
	class, _ := s.Attr("class")
	return strings.Fields(class)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
