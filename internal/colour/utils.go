package colour

import (
	"image/color"
	"math"
)

// Admission thresholds for accent colours.
const (
	// MinBrightness and MaxBrightness bound perceived brightness (0-255).
	MinBrightness = 30.0
	MaxBrightness = 225.0

	// MinSaturation rejects near-grey colours (HSV saturation, 0-1).
	MinSaturation = 0.1

	// ReadableLuminance is the luminance above which a colour is darkened
	// so that white overlay text stays legible.
	ReadableLuminance = 0.5

	// DarkenFactor scales each channel of a colour that is too bright.
	DarkenFactor = 0.6
)

// Brightness returns the perceived brightness of a colour on a 0-255 scale
// using the 299/587/114 weighting.
func Brightness(rgb RGB) float64 {
	return (float64(rgb.R)*299 + float64(rgb.G)*587 + float64(rgb.B)*114) / 1000
}

// Saturation returns (max-min)/max over the RGB channels.
func Saturation(rgb RGB) float64 {
	maxVal := max(rgb.R, rgb.G, rgb.B)
	minVal := min(rgb.R, rgb.G, rgb.B)
	if maxVal == 0 {
		return 0
	}
	return float64(maxVal-minVal) / float64(maxVal)
}

// IsUsable reports whether a canonical colour can serve as a UI accent.
// Empty values, pure white, pure black, colours that are too dark or too
// light, and near-grey colours are rejected.
func IsUsable(h Hex) bool {
	if h == "" || h == "#ffffff" || h == "#000000" {
		return false
	}
	rgb, ok := h.RGB()
	if !ok {
		return false
	}

	b := Brightness(rgb)
	if b < MinBrightness || b > MaxBrightness {
		return false
	}
	return Saturation(rgb) >= MinSaturation
}

// SimpleLuminance returns 0.2126R+0.7152G+0.0722B on a 0-1 scale without
// gamma correction.
func SimpleLuminance(rgb RGB) float64 {
	return 0.2126*float64(rgb.R)/255 + 0.7152*float64(rgb.G)/255 + 0.0722*float64(rgb.B)/255
}

// EnsureReadable darkens colours whose luminance exceeds ReadableLuminance.
// Values that cannot be normalised yield fallback.
func EnsureReadable(raw string, fallback Hex, resolver Resolver) Hex {
	h, ok := Normalize(raw, resolver)
	if !ok {
		return fallback
	}
	rgb, _ := h.RGB()

	if SimpleLuminance(rgb) <= ReadableLuminance {
		return h
	}
	return darken(rgb, DarkenFactor).Hex()
}

func darken(rgb RGB, factor float64) RGB {
	scale := func(v uint8) uint8 {
		return uint8(math.Floor(float64(v) / 255 * factor * 255))
	}
	return RGB{R: scale(rgb.R), G: scale(rgb.G), B: scale(rgb.B)}
}

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	// Convert from 16-bit to 8-bit.
	rf := float64(r>>8) / 255.0
	rg := float64(g>>8) / 255.0
	rb := float64(b>>8) / 255.0

	// Apply gamma correction.
	rf = gammaCorrect(rf)
	rg = gammaCorrect(rg)
	rb = gammaCorrect(rb)

	return 0.2126*rf + 0.7152*rg + 0.0722*rb
}

// gammaCorrect applies gamma correction to a colour component.
func gammaCorrect(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio calculates the contrast ratio between two colours according to WCAG 2.0.
// Returns a value between 1 and 21. Reported alongside resolved accents so
// hosts can see how the accent fares behind white text.
func ContrastRatio(c1, c2 color.Color) float64 {
	l1 := Luminance(c1)
	l2 := Luminance(c2)

	if l1 < l2 {
		l1, l2 = l2, l1
	}

	return (l1 + 0.05) / (l2 + 0.05)
}

// RGBToColor converts an RGB value to a color.Color (RGBA).
func RGBToColor(rgb RGB) color.Color {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}
