package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/config"
	"github.com/jmylchreest/sitetint/internal/extract"
	"github.com/jmylchreest/sitetint/internal/page"
	"github.com/jmylchreest/sitetint/internal/sink"
	"github.com/jmylchreest/sitetint/internal/sites"
)

const (
	metaPage  = `<html><head><meta name="theme-color" content="#112233"></head><body></body></html>`
	emptyPage = `<html><body><p>plain</p></body></html>`

	logoPage = `<!DOCTYPE html>
<html><head><title>Logo</title></head>
<body>
  <header><div class="top"><a href="/" class="logo">
    <svg width="120" height="40" viewBox="0 0 120 40"><path fill="#ff0000" d="M0 0h120v40H0z"/></svg>
  </a></div></header>
  <main><section><p>Welcome</p><p>More text</p></section></main>
</body></html>`

	sidebarPage = `<!DOCTYPE html>
<html><body>
  <div class="layout">
    <div class="sidebar" style="background-color: #4a154b; width: 300px; height: 600px"><p>Channels</p></div>
    <section><article><p>Messages</p></article></section>
  </div>
</body></html>`
)

func staticMarkup(markup string, calls *atomic.Int32) MarkupFunc {
	return func(context.Context, Target) (string, error) {
		if calls != nil {
			calls.Add(1)
		}
		return markup, nil
	}
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *sink.Recorder) {
	t.Helper()
	rec := sink.NewRecorder()
	if opts.Sink == nil {
		opts.Sink = rec
	}
	if opts.Config.DefaultColor == "" {
		opts.Config = config.Default()
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 5 * time.Millisecond
	}
	if opts.MarkupTimeout == 0 {
		opts.MarkupTimeout = 50 * time.Millisecond
	}
	e := New(opts)
	t.Cleanup(e.Close)
	return e, rec
}

func TestResolveFromMarkup(t *testing.T) {
	e, rec := newTestEngine(t, Options{Markup: staticMarkup(metaPage, nil)})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com/"})
	require.NoError(t, err)

	assert.Equal(t, colour.Hex("#112233"), out.Colour)
	assert.Equal(t, extract.StrategyMeta, out.Source)
	assert.Equal(t, "example.com", out.Host)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, Applied, e.State("1"))

	applied, ok := rec.Last("1")
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#112233"), applied.Colour)
	assert.Equal(t, 1.0, applied.HSLA.A)
}

func TestResolveThroughLayoutStrategies(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   colour.Hex
		source string
	}{
		{name: "header logo", markup: logoPage, want: "#ff0000", source: extract.StrategyVisual},
		{name: "sidebar background", markup: sidebarPage, want: "#4a154b", source: extract.StrategyProminent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newTestEngine(t, Options{Markup: staticMarkup(tt.markup, nil)})

			out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com/"})
			require.NoError(t, err)
			assert.NoError(t, out.Err)
			assert.Equal(t, tt.want, out.Colour)
			assert.Equal(t, tt.source, out.Source)
			assert.Equal(t, 1, out.Attempts)

			applied, ok := rec.Last("1")
			require.True(t, ok)
			assert.Equal(t, tt.source, applied.Source)
		})
	}
}

func TestKnownSiteSkipsMarkup(t *testing.T) {
	var calls atomic.Int32
	e, _ := newTestEngine(t, Options{Markup: staticMarkup(metaPage, &calls)})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://www.github.com/golang/go"})
	require.NoError(t, err)

	assert.Equal(t, colour.Hex("#171515"), out.Colour)
	assert.Equal(t, SourceKnown, out.Source)
	assert.Zero(t, calls.Load())
	assert.Zero(t, testutil.ToFloat64(e.metrics.markupAttempts))
}

func TestRetryCeiling(t *testing.T) {
	var calls atomic.Int32
	never := MarkupFunc(func(ctx context.Context, _ Target) (string, error) {
		calls.Add(1)
		<-ctx.Done()
		return "", ctx.Err()
	})
	e, rec := newTestEngine(t, Options{Markup: never, MarkupTimeout: 10 * time.Millisecond})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com"})
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxAttempts, out.Attempts)
	assert.Equal(t, SourceDefault, out.Source)
	assert.ErrorIs(t, out.Err, ErrMarkupTimeout)
	assert.Equal(t, colour.Hex("#000000"), out.Colour)
	assert.Equal(t, float64(DefaultMaxAttempts), testutil.ToFloat64(e.metrics.markupAttempts))
	assert.Equal(t, int32(DefaultMaxAttempts), calls.Load())
	assert.Len(t, rec.Applications(), 1)
}

func TestNoColourRetriesThenDefault(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultColor = "#11223380"
	e, _ := newTestEngine(t, Options{Config: cfg, Markup: staticMarkup(emptyPage, nil), MaxAttempts: 2})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com"})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Attempts)
	assert.ErrorIs(t, out.Err, ErrNoColour)
	assert.Equal(t, colour.Hex("#112233"), out.Colour)
	assert.Equal(t, 0.5, out.HSLA.A)
	assert.Zero(t, e.Memory().Len(), "the default is not remembered")
}

func TestUnsupportedTarget(t *testing.T) {
	var calls atomic.Int32
	e, _ := newTestEngine(t, Options{Markup: staticMarkup(metaPage, &calls)})

	for _, url := range []string{"about:blank", "file:///tmp/x.html", ""} {
		out, err := e.Resolve(context.Background(), Target{ID: url, URL: url})
		require.NoError(t, err)
		assert.Equal(t, SourceDefault, out.Source, url)
		assert.ErrorIs(t, out.Err, ErrUnsupportedTarget, url)
		assert.Zero(t, out.Attempts)
	}
	assert.Zero(t, calls.Load())
}

func TestSingleFlight(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	blocking := MarkupFunc(func(ctx context.Context, _ Target) (string, error) {
		calls.Add(1)
		select {
		case <-release:
			return metaPage, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	e, rec := newTestEngine(t, Options{Markup: blocking, MarkupTimeout: 5 * time.Second})
	target := Target{ID: "tab", URL: "https://example.com"}

	require.True(t, e.Trigger(target))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, AwaitingMarkup, e.State("tab"))

	assert.False(t, e.Trigger(target), "second trigger is dropped")
	_, err := e.Resolve(context.Background(), target)
	assert.ErrorIs(t, err, ErrBusy)

	assert.True(t, e.Trigger(Target{ID: "other", URL: "https://www.github.com"}), "other targets are independent")

	close(release)
	e.Wait()

	apps := rec.Applications()
	require.Len(t, apps, 2)
	last, ok := rec.Last("tab")
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#112233"), last.Colour)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.triggers.WithLabelValues("dropped")))
}

func TestTriggerSupersedesPendingRetry(t *testing.T) {
	var calls atomic.Int32
	markup := MarkupFunc(func(context.Context, Target) (string, error) {
		if calls.Add(1) == 1 {
			return emptyPage, nil
		}
		return metaPage, nil
	})
	e, rec := newTestEngine(t, Options{Markup: markup, RetryBackoff: time.Minute})
	target := Target{ID: "tab", URL: "https://example.com"}

	require.True(t, e.Trigger(target))
	require.Eventually(t, func() bool { return e.State("tab") == Retrying }, time.Second, time.Millisecond)

	require.True(t, e.Trigger(target))
	e.Wait()

	apps := rec.Applications()
	require.Len(t, apps, 1)
	assert.Equal(t, colour.Hex("#112233"), apps[0].Colour)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.triggers.WithLabelValues("superseding")))
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "panic" }
func (panicStrategy) Extract(*page.Document) (colour.Hex, bool) {
	panic("strategy exploded")
}

func TestPanicAppliesDefault(t *testing.T) {
	e, rec := newTestEngine(t, Options{
		Markup: staticMarkup(metaPage, nil),
		Chain:  extract.NewChain(nil, panicStrategy{}),
	})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, out.Source)
	assert.ErrorIs(t, out.Err, ErrExtractionPanic)
	assert.Len(t, rec.Applications(), 1)
	assert.Equal(t, Applied, e.State("1"))

	// The guard is released after a panic.
	_, err = e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com"})
	assert.NoError(t, err)
}

func TestCustomColours(t *testing.T) {
	cfg := config.Default()
	cfg.CustomColors = sites.List{{Domain: "github.com", Colour: "#ff4500"}}

	tests := []struct {
		name   string
		enable bool
		want   colour.Hex
		source string
	}{
		{name: "enabled overrides known", enable: true, want: "#ff4500", source: SourceCustom},
		{name: "disabled falls through", enable: false, want: "#171515", source: SourceKnown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.UseCustomColors = tt.enable
			e, _ := newTestEngine(t, Options{Config: c})

			out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://github.com"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Colour)
			assert.Equal(t, tt.source, out.Source)
		})
	}
}

func TestCustomColoursPartialDomain(t *testing.T) {
	cfg := config.Default()
	cfg.UseCustomColors = true
	cfg.CustomColors = sites.List{{Domain: "mail.google", Colour: "#ea4335"}}
	e, _ := newTestEngine(t, Options{Config: cfg})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://mail.google.com/mail/u/0"})
	require.NoError(t, err)
	assert.Equal(t, colour.Hex("#ea4335"), out.Colour)
	assert.Equal(t, SourceCustom, out.Source)
}

func TestMemory(t *testing.T) {
	var calls atomic.Int32
	markup := MarkupFunc(func(context.Context, Target) (string, error) {
		if calls.Add(1) == 1 {
			return metaPage, nil
		}
		return emptyPage, nil
	})

	tests := []struct {
		name   string
		cached bool
		want   string
	}{
		{name: "read enabled", cached: true, want: SourceCache},
		{name: "read disabled", cached: false, want: SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls.Store(0)
			cfg := config.Default()
			cfg.DevOptions.UsedCachedColors = tt.cached
			e, _ := newTestEngine(t, Options{Config: cfg, Markup: markup, MaxAttempts: 1})

			_, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://Example.com"})
			require.NoError(t, err)

			h, ok := e.Memory().Load("example.com")
			require.True(t, ok, "writes happen regardless of the read flag")
			assert.Equal(t, colour.Hex("#112233"), h)

			out, err := e.Resolve(context.Background(), Target{ID: "2", URL: "https://example.com/other"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Source)
		})
	}
}

func TestReadability(t *testing.T) {
	bright := `<html><head><meta name="theme-color" content="#e5e510"></head></html>`
	e, _ := newTestEngine(t, Options{Markup: staticMarkup(bright, nil)})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com"})
	require.NoError(t, err)

	assert.Equal(t, colour.Hex("#e5e510"), out.Raw)
	assert.Equal(t, colour.Hex("#898909"), out.Colour)
	h, _ := e.Memory().Load("example.com")
	assert.Equal(t, colour.Hex("#e5e510"), h)
}

func TestFaviconBeforeMarkup(t *testing.T) {
	var calls atomic.Int32
	icon := FaviconFunc(func(context.Context, Target) (image.Image, error) {
		img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				img.Set(x, y, color.NRGBA{R: 0xe0, G: 0x24, B: 0x5e, A: 0xff})
			}
		}
		return img, nil
	})
	e, _ := newTestEngine(t, Options{Markup: staticMarkup(metaPage, &calls), Favicon: icon})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, colour.Hex("#e0245e"), out.Colour)
	assert.Equal(t, extract.StrategyFavicon, out.Source)
	assert.Zero(t, calls.Load())
}

func TestMarkupError(t *testing.T) {
	failing := MarkupFunc(func(context.Context, Target) (string, error) {
		return "", errors.New("connection refused")
	})
	e, _ := newTestEngine(t, Options{Markup: failing, MaxAttempts: 2})

	out, err := e.Resolve(context.Background(), Target{ID: "1", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, out.Source)
	assert.ErrorContains(t, out.Err, "connection refused")
}

type resettable struct {
	*sink.Recorder
	resets atomic.Int32
}

func (r *resettable) Reset() error {
	r.resets.Add(1)
	return r.Recorder.Reset()
}

func TestUpdateConfig(t *testing.T) {
	rec := &resettable{Recorder: sink.NewRecorder()}
	e, _ := newTestEngine(t, Options{Sink: rec})
	target := Target{ID: "1", URL: "https://github.com"}

	require.True(t, e.Trigger(target))
	e.Wait()
	require.Len(t, rec.Applications(), 1)

	off := config.Default()
	off.Enabled = false
	e.UpdateConfig(off)
	assert.Equal(t, int32(1), rec.resets.Load())
	assert.False(t, e.Trigger(target))
	_, err := e.Resolve(context.Background(), target)
	assert.ErrorIs(t, err, ErrDisabled)

	e.UpdateConfig(config.Default())
	e.Wait()
	assert.Len(t, rec.Applications(), 1, "re-enabling re-triggers known targets")
}

func TestClose(t *testing.T) {
	never := MarkupFunc(func(ctx context.Context, _ Target) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	e, rec := newTestEngine(t, Options{Markup: never, MarkupTimeout: time.Minute})

	require.True(t, e.Trigger(Target{ID: "1", URL: "https://example.com"}))
	done := make(chan struct{})
	go func() {
		e.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Empty(t, rec.Applications())
}

func TestIsTriggerAttribute(t *testing.T) {
	tests := []struct {
		attr string
		want bool
	}{
		{"busy", true},
		{"progress", true},
		{"image", true},
		{"selected", true},
		{"visuallyselected", false},
		{"label", false},
		{"pending", false},
	}

	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTriggerAttribute(tt.attr))
		})
	}
}

func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Store("example.com", "#112233")
			m.Load("example.com")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, m.Len())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting-markup", AwaitingMarkup.String())
	assert.Equal(t, "retrying", Retrying.String())
	assert.Equal(t, "unknown", State(42).String())
}
