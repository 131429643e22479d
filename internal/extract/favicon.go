package extract

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/jmylchreest/sitetint/internal/colour"
)

// Favicon histogram thresholds.
const (
	minFaviconSize = 16
	minOpaqueAlpha = 127
	nearWhite      = 240
	nearBlack      = 15
)

// FromFavicon rasterizes a favicon onto a square canvas at its natural size
// (at least 16px) and returns the most frequent usable colour, ignoring
// translucent, near-white and near-black pixels. When the most frequent
// colour is unusable the runner-up is tried.
func FromFavicon(img image.Image) (colour.Hex, bool) {
	if img == nil {
		return "", false
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", false
	}

	size := max(b.Dx(), b.Dy(), minFaviconSize)
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(canvas, canvas.Bounds(), img, b, draw.Src, nil)

	var votes tally
	for i := 0; i+3 < len(canvas.Pix); i += 4 {
		r, g, bl, a := canvas.Pix[i], canvas.Pix[i+1], canvas.Pix[i+2], canvas.Pix[i+3]
		if a < minOpaqueAlpha {
			continue
		}
		if (r > nearWhite && g > nearWhite && bl > nearWhite) || (r < nearBlack && g < nearBlack && bl < nearBlack) {
			continue
		}
		votes.add(colour.RGB{R: r, G: g, B: bl}.Hex(), 1)
	}

	first, second := votes.topTwo()
	for _, h := range []colour.Hex{first, second} {
		if colour.IsUsable(h) {
			return h, true
		}
	}
	return "", false
}
