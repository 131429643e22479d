// Package colour provides colour parsing, normalisation and the usability
// filters applied to every candidate brand colour.
package colour

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/sitetint/internal/security"
)

// Hex is a canonical colour: lower-case, six hex digits, leading '#'.
// It is the only form stored in caches or exchanged between strategies.
type Hex string

// String returns the hex string.
func (h Hex) String() string {
	return string(h)
}

// RGB returns the channel values of a canonical hex colour.
func (h Hex) RGB() (RGB, bool) {
	rgb, _, err := ParseHex(string(h))
	if err != nil {
		return RGB{}, false
	}
	return rgb, true
}

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the canonical hex form of the colour (e.g., "#1a2b3c").
func (rgb RGB) Hex() Hex {
	return Hex(fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B))
}

// ParseHex parses #RGB, #RGBA, #RRGGBB and #RRGGBBAA (the leading '#' is optional).
// The returned alpha is 255 when the input carries none.
func ParseHex(s string) (RGB, uint8, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	// Expand shorthand format (RGB -> RRGGBB, RGBA -> RRGGBBAA).
	if len(hex) == 3 || len(hex) == 4 {
		expanded := make([]byte, 0, len(hex)*2)
		for i := 0; i < len(hex); i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	}

	if len(hex) != 6 && len(hex) != 8 {
		return RGB{}, 0, fmt.Errorf("invalid hex colour length: %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return RGB{}, 0, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}

	alpha := uint8(255)
	if len(hex) == 8 {
		alpha = uint8(v & 0xff)
		v >>= 8
	}

	return RGB{
		R: uint8(v >> 16 & 0xff),
		G: uint8(v >> 8 & 0xff),
		B: uint8(v & 0xff),
	}, alpha, nil
}

// Resolver turns colour syntax this package does not understand (named
// colours, system colours) into a value it does, typically "rgb(r, g, b)".
// It stands in for a rendering engine's computed-style facility.
type Resolver interface {
	ResolveColour(value string) (string, bool)
}

var (
	rgbPattern = regexp.MustCompile(`^rgba?\s*\(\s*([0-9.]+)\s*[,\s]\s*([0-9.]+)\s*[,\s]\s*([0-9.]+)\s*(?:[,/]\s*([0-9.]+%?)\s*)?\)`)
	hslPattern = regexp.MustCompile(`^hsla?\s*\(\s*([0-9.]+)(?:deg)?\s*[,\s]\s*([0-9.]+)%\s*[,\s]\s*([0-9.]+)%\s*(?:[,/]\s*([0-9.]+%?)\s*)?\)`)
)

// Normalize converts a raw colour value into its canonical form.
// Transparent values, unparseable syntax and anything the resolver cannot
// resolve yield ok=false; malformed input is never an error.
func Normalize(raw string, resolver Resolver) (Hex, bool) {
	return normalize(raw, resolver, 1)
}

func normalize(raw string, resolver Resolver, depth int) (Hex, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
	if value == "" || value == "transparent" || value == "none" {
		return "", false
	}

	if strings.HasPrefix(value, "#") {
		rgb, alpha, err := ParseHex(value)
		if err != nil || alpha == 0 {
			return "", false
		}
		return rgb.Hex(), true
	}

	if m := rgbPattern.FindStringSubmatch(value); m != nil {
		if isZeroAlpha(m[4]) {
			return "", false
		}
		return RGB{
			R: channel(m[1]),
			G: channel(m[2]),
			B: channel(m[3]),
		}.Hex(), true
	}

	if m := hslPattern.FindStringSubmatch(value); m != nil {
		if isZeroAlpha(m[4]) {
			return "", false
		}
		h, _ := strconv.ParseFloat(m[1], 64) //nolint:errcheck // regex guarantees a number
		s, _ := strconv.ParseFloat(m[2], 64) //nolint:errcheck
		l, _ := strconv.ParseFloat(m[3], 64) //nolint:errcheck
		c := colorful.Hsl(h, s/100, l/100).Clamped()
		r, g, b := c.RGB255()
		return RGB{R: r, G: g, B: b}.Hex(), true
	}

	if resolver == nil || depth <= 0 {
		return "", false
	}
	resolved, ok := resolver.ResolveColour(value)
	if !ok {
		return "", false
	}
	return normalize(resolved, resolver, depth-1)
}

func channel(s string) uint8 {
	// Regex guarantees a number.
	v, _ := strconv.ParseFloat(s, 64) //nolint:errcheck
	return security.SafeUint8(int(v))
}

func isZeroAlpha(s string) bool {
	if s == "" {
		return false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	return err == nil && v == 0
}
