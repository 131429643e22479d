package colour

import (
	"strings"

	"golang.org/x/image/colornames"
)

// NamedResolver resolves CSS/SVG colour keywords ("navy",
// "tomato") using the SVG 1.1 keyword table.
type NamedResolver struct{}

// ResolveColour implements Resolver.
func (NamedResolver) ResolveColour(value string) (string, bool) {
	c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(value))]
	if !ok || c.A == 0 {
		return "", false
	}
	return RGB{R: c.R, G: c.G, B: c.B}.String(), true
}
