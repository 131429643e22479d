package page

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// colourTokenPattern matches colour literals inside a declaration value.
	colourTokenPattern = regexp.MustCompile(`(?i)#[0-9a-f]{3,8}\b|rgba?\([^)]*\)|hsla?\([^)]*\)`)

	// leadingColourPattern matches a colour literal at the start of a value.
	leadingColourPattern = regexp.MustCompile(`(?i)^(#[0-9a-f]{3,8}\b|rgba?\([^)]*\)|hsla?\([^)]*\))`)

	pxPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)(px)?$`)
)

// Declarations parses an inline style attribute into lower-cased property
// names and trimmed values. Later declarations win.
func Declarations(style string) map[string]string {
	decls := make(map[string]string)
	for _, part := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		decls[name] = value
	}
	return decls
}

// Declaration returns a single property from an inline style.
func Declaration(style, property string) (string, bool) {
	v, ok := Declarations(style)[property]
	return v, ok
}

// BackgroundColour returns the colour set by background-color, or by a
// background shorthand that starts with a colour literal.
func BackgroundColour(style string) (string, bool) {
	decls := Declarations(style)
	if v, ok := decls["background-color"]; ok {
		return v, true
	}
	if v, ok := decls["background"]; ok {
		if m := leadingColourPattern.FindString(v); m != "" {
			return m, true
		}
		// background: red url(...) no-repeat
		if fields := strings.Fields(v); len(fields) > 0 && !strings.ContainsAny(fields[0], "(#") {
			return fields[0], true
		}
	}
	return "", false
}

// GradientStops returns the colour literals of an inline gradient
// background, in order.
func GradientStops(style string) []string {
	decls := Declarations(style)
	for _, prop := range []string{"background", "background-image"} {
		v, ok := decls[prop]
		if !ok || !strings.Contains(strings.ToLower(v), "gradient") {
			continue
		}
		return colourTokenPattern.FindAllString(v, -1)
	}
	return nil
}

// ColourTokens splits a declaration value such as a border shorthand into
// the parts that may be colours: functional and hex literals, or bare words
// when no literal is present.
func ColourTokens(v string) []string {
	if tokens := colourTokenPattern.FindAllString(v, -1); len(tokens) > 0 {
		return tokens
	}
	var words []string
	for _, f := range strings.Fields(v) {
		if !strings.ContainsAny(f, "()") {
			words = append(words, f)
		}
	}
	return words
}

// Pixels parses a length in px (or unitless). Other units are rejected.
func Pixels(v string) (float64, bool) {
	m := pxPattern.FindStringSubmatch(strings.TrimSpace(strings.ToLower(v)))
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
