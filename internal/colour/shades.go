package colour

import (
	"regexp"
	"strconv"
	"strings"
)

// UtilityHues lists the hue families recognised in utility-CSS class names.
var UtilityHues = []string{
	"blue", "red", "green", "yellow", "purple",
	"pink", "indigo", "teal", "orange", "cyan",
}

// UtilityShadeSteps lists the shade steps recognised in utility-CSS class names.
var UtilityShadeSteps = []int{400, 500, 600, 700}

// utilityShades maps hue family and shade step to the framework's hex value.
var utilityShades = map[string]map[int]Hex{
	"blue":   {400: "#60a5fa", 500: "#3b82f6", 600: "#2563eb", 700: "#1d4ed8"},
	"red":    {400: "#f87171", 500: "#ef4444", 600: "#dc2626", 700: "#b91c1c"},
	"green":  {400: "#4ade80", 500: "#22c55e", 600: "#16a34a", 700: "#15803d"},
	"yellow": {400: "#facc15", 500: "#eab308", 600: "#ca8a04", 700: "#a16207"},
	"purple": {400: "#c084fc", 500: "#a855f7", 600: "#9333ea", 700: "#7e22ce"},
	"pink":   {400: "#f472b6", 500: "#ec4899", 600: "#db2777", 700: "#be185d"},
	"indigo": {400: "#818cf8", 500: "#6366f1", 600: "#4f46e5", 700: "#4338ca"},
	"teal":   {400: "#2dd4bf", 500: "#14b8a6", 600: "#0d9488", 700: "#0f766e"},
	"orange": {400: "#fb923c", 500: "#f97316", 600: "#ea580c", 700: "#c2410c"},
	"cyan":   {400: "#22d3ee", 500: "#06b6d4", 600: "#0891b2", 700: "#0e7490"},
}

var shadeClassPattern = regexp.MustCompile(`^(bg|text)-(` + strings.Join(UtilityHues, "|") + `)-(400|500|600|700)$`)

// Shade returns the hex value for a hue family and shade step.
func Shade(hue string, step int) (Hex, bool) {
	steps, ok := utilityShades[hue]
	if !ok {
		return "", false
	}
	h, ok := steps[step]
	return h, ok
}

// ShadeFromClass maps a utility class such as "bg-blue-500" to its colour.
// Only classes with the given prefix ("bg" or "text") match.
func ShadeFromClass(prefix, class string) (Hex, bool) {
	m := shadeClassPattern.FindStringSubmatch(class)
	if m == nil || m[1] != prefix {
		return "", false
	}
	// Regex guarantees a shade step.
	step, _ := strconv.Atoi(m[3]) //nolint:errcheck
	return Shade(m[2], step)
}

// FilenameKeyword pairs a colour word that may appear in an asset URL with
// the colour it suggests.
type FilenameKeyword struct {
	Word   string
	Colour Hex
}

// FilenameKeywords is consulted in order against image URLs.
var FilenameKeywords = []FilenameKeyword{
	{Word: "blue", Colour: "#1a73e8"},
	{Word: "red", Colour: "#ea4335"},
	{Word: "green", Colour: "#34a853"},
	{Word: "yellow", Colour: "#fbbc05"},
	{Word: "purple", Colour: "#673ab7"},
	{Word: "pink", Colour: "#e91e63"},
	{Word: "orange", Colour: "#ff9800"},
	{Word: "teal", Colour: "#009688"},
}

// ColourFromFilename returns the first keyword colour found in a URL.
func ColourFromFilename(url string) (Hex, bool) {
	lower := strings.ToLower(url)
	for _, kw := range FilenameKeywords {
		if strings.Contains(lower, kw.Word) {
			return kw.Colour, true
		}
	}
	return "", false
}
