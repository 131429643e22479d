package extract

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sitetint/internal/colour"
)

func TestProminentShallowerWinsTie(t *testing.T) {
	// Same selector and area; only depth differs. The deeper element comes
	// first in document order.
	doc := parse(t, `<body>
		<section><div><div class="hero" style="background-color: #e53238; width: 400px; height: 100px"></div></div></section>
		<section><div class="hero" style="background-color: #1877f2; width: 400px; height: 100px"></div></section>
	</body>`)

	candidates := Prominent{}.Candidates(doc)
	require.Len(t, candidates, 2)
	assert.Equal(t, colour.Hex("#1877f2"), candidates[0].Colour)
	assert.InDelta(t, 0.5, candidates[0].Score-candidates[1].Score, 1e-9)

	h, ok := Prominent{}.Extract(doc)
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#1877f2"), h)
}

func TestProminentExactTieUsesDepth(t *testing.T) {
	sb := newScoreboard()
	sb.add("#e53238", 10, 6)
	sb.add("#1877f2", 10, 3)
	ranked := sb.ranked()
	require.Len(t, ranked, 2)
	assert.Equal(t, colour.Hex("#1877f2"), ranked[0].Colour)
}

func TestProminentAccumulates(t *testing.T) {
	doc := parse(t, `<body>
		<section>
			<div class="feature" style="background-color: #ff4500; width: 300px; height: 100px"></div>
			<div class="feature" style="background-color: #0061ff; width: 300px; height: 100px"></div>
			<div class="feature" style="background-color: #0061ff; width: 300px; height: 100px"></div>
		</section>
	</body>`)

	candidates := Prominent{}.Candidates(doc)
	require.Len(t, candidates, 2)
	assert.Equal(t, colour.Hex("#0061ff"), candidates[0].Colour)
	assert.InDelta(t, 2*candidates[1].Score, candidates[0].Score, 1e-9)
}

func TestProminentEarlierSelectorsWin(t *testing.T) {
	doc := parse(t, `<body>
		<div class="sidebar" style="background-color: #4a154b; width: 1000px; height: 1000px"></div>
		<header style="background-color: #ff9900">Shop</header>
	</body>`)

	h, ok := Prominent{}.Extract(doc)
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#ff9900"), h)
}

func TestProminentGradientAndShadeClass(t *testing.T) {
	doc := parse(t, `<body><main>
		<p>intro</p>
		<div class="jumbotron bg-purple-600">Hello</div>
		<div class="banner" style="background-image: linear-gradient(90deg, #e1306c, #833ab4)">Sale</div>
	</main></body>`)

	candidates := Prominent{}.Candidates(doc)
	got := make(map[colour.Hex]bool)
	for _, c := range candidates {
		got[c.Colour] = true
	}
	assert.True(t, got["#9333ea"])
	assert.True(t, got["#e1306c"])
	assert.True(t, got["#833ab4"])
}

func TestProminentEmphasisBoost(t *testing.T) {
	plain := parse(t, `<body><div class="jumbotron bg-teal-600">x</div></body>`)
	boosted := parse(t, `<body><div class="jumbotron brand-area bg-teal-600">x</div></body>`)

	p := Prominent{}.Candidates(plain)
	b := Prominent{}.Candidates(boosted)
	require.NotEmpty(t, p)
	require.NotEmpty(t, b)
	assert.Greater(t, b[0].Score, p[0].Score)
}

func TestProminentBodyFallback(t *testing.T) {
	doc := parse(t, `<body style="background-color: #34526f"><p>x</p></body>`)
	h, ok := Prominent{}.Extract(doc)
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#34526f"), h)

	doc = parse(t, `<body style="background-color: #ffffff"><p>x</p></body>`)
	_, ok = Prominent{}.Extract(doc)
	assert.False(t, ok)
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestFromFavicon(t *testing.T) {
	red := color.NRGBA{R: 0xe5, G: 0x32, B: 0x38, A: 0xff}
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	grey := color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	green := color.NRGBA{R: 0x1d, G: 0xb9, B: 0x54, A: 0xff}

	t.Run("most frequent", func(t *testing.T) {
		img := solid(16, 16, red)
		for x := 0; x < 16; x++ {
			for y := 0; y < 4; y++ {
				img.SetNRGBA(x, y, white)
			}
		}
		h, ok := FromFavicon(img)
		require.True(t, ok)
		assert.Equal(t, colour.Hex("#e53238"), h)
	})

	t.Run("runner-up when leader unusable", func(t *testing.T) {
		img := solid(16, 16, grey)
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, 0, green)
		}
		h, ok := FromFavicon(img)
		require.True(t, ok)
		assert.Equal(t, colour.Hex("#1db954"), h)
	})

	t.Run("translucent pixels ignored", func(t *testing.T) {
		img := solid(16, 16, color.NRGBA{R: 0xe5, G: 0x32, B: 0x38, A: 0x40})
		_, ok := FromFavicon(img)
		assert.False(t, ok)
	})

	t.Run("small icons are upscaled", func(t *testing.T) {
		h, ok := FromFavicon(solid(8, 8, green))
		require.True(t, ok)
		assert.Equal(t, colour.Hex("#1db954"), h)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := FromFavicon(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
		assert.False(t, ok)
		_, ok = FromFavicon(nil)
		assert.False(t, ok)
	})
}
