package colour

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSLA is the derived form handed to UI sinks. Hue is in degrees [0,360),
// saturation and lightness are percentages, alpha is in [0,1].
type HSLA struct {
	H int     `json:"h"`
	S int     `json:"s"`
	L int     `json:"l"`
	A float64 `json:"a"`
}

// String renders the value as a CSS hsla().
func (c HSLA) String() string {
	return c.CSS(c.A)
}

// CSS renders the colour as a CSS hsla() using alpha in place of c.A.
func (c HSLA) CSS(alpha float64) string {
	return fmt.Sprintf("hsla(%d, %d%%, %d%%, %s)", c.H, c.S, c.L, formatAlpha(alpha))
}

// ToHSLA converts #RRGGBB or #RRGGBBAA to HSLA. The alpha channel is passed
// through from eight-digit input and defaults to 1.
func ToHSLA(hex string) (HSLA, error) {
	rgb, alpha, err := ParseHex(hex)
	if err != nil {
		return HSLA{}, err
	}

	c := colorful.Color{
		R: float64(rgb.R) / 255,
		G: float64(rgb.G) / 255,
		B: float64(rgb.B) / 255,
	}
	h, s, l := c.Hsl()

	hue := int(math.Round(h)) % 360
	if math.IsNaN(h) || s == 0 {
		hue = 0
	}

	return HSLA{
		H: hue,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
		A: math.Round(float64(alpha)/255*100) / 100,
	}, nil
}

func formatAlpha(a float64) string {
	return fmt.Sprintf("%g", math.Round(a*100)/100)
}
