package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/config"
	"github.com/jmylchreest/sitetint/internal/extract"
	"github.com/jmylchreest/sitetint/internal/page"
	"github.com/jmylchreest/sitetint/internal/security"
	"github.com/jmylchreest/sitetint/internal/sink"
	"github.com/jmylchreest/sitetint/internal/sites"
)

// run drives one target from AwaitingMarkup to Applied. It never panics:
// anything raised below it applies the default colour.
func (e *Engine) run(f *flight, t Target) (out Outcome) {
	start := time.Now()
	e.metrics.inflight.Inc()

	cfg := e.Config()
	host := ""
	attempts := 0

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("resolution panicked", "target", t.ID, "host", host, "panic", r)
			out = e.apply(cfg, t, host, "", SourceDefault, attempts, fmt.Errorf("%w: %v", ErrExtractionPanic, r))
		}
		e.release(t, f)
		e.metrics.inflight.Dec()
		if out.Source != "" {
			e.metrics.duration.Observe(time.Since(start).Seconds())
		}
	}()

	u, err := security.PageURL(t.URL)
	if err != nil {
		e.logger.Debug("unsupported target", "target", t.ID, "url", t.URL, "error", err)
		return e.apply(cfg, t, "", "", SourceDefault, 0, fmt.Errorf("%w: %w", ErrUnsupportedTarget, err))
	}
	host = strings.ToLower(u.Hostname())

	if h, source, ok := e.lookup(cfg, host); ok {
		return e.apply(cfg, t, host, h, source, 0, nil)
	}

	var cause error
	for attempts < e.maxAttempts {
		attempts++

		h, source, err := e.attempt(f.ctx, t, f)
		if err == nil {
			return e.apply(cfg, t, host, h, source, attempts, nil)
		}
		if f.ctx.Err() != nil {
			return e.abandoned(t, f, attempts)
		}
		cause = err
		e.logger.Debug("attempt failed", "target", t.ID, "host", host, "attempt", attempts, "error", err)

		if attempts >= e.maxAttempts {
			break
		}
		if !e.transition(t, f, Retrying) {
			return e.abandoned(t, f, attempts)
		}

		timer := time.NewTimer(e.retryBackoff)
		select {
		case <-timer.C:
		case <-f.ctx.Done():
			timer.Stop()
			return e.abandoned(t, f, attempts)
		}
		if !e.transition(t, f, AwaitingMarkup) {
			return e.abandoned(t, f, attempts)
		}
	}

	e.logger.Info("no colour found, applying default", "target", t.ID, "host", host, "attempts", attempts)
	return e.apply(cfg, t, host, "", SourceDefault, attempts, cause)
}

// lookup checks the sources that need no page content: custom overrides,
// the colour memory and the known-site table.
func (e *Engine) lookup(cfg config.Config, host string) (colour.Hex, string, bool) {
	if cfg.UseCustomColors {
		if entry, ok := cfg.CustomColors.MatchContains(host); ok {
			if h, ok := colour.Normalize(string(entry.Colour), e.resolver); ok {
				return h, SourceCustom, true
			}
		}
	}
	if cfg.DevOptions.UsedCachedColors {
		if h, ok := e.memory.Load(host); ok {
			return h, SourceCache, true
		}
	}
	if entry, ok := sites.Known.Match(host); ok {
		return entry.Colour, SourceKnown, true
	}
	return "", "", false
}

// attempt runs the favicon strategy and then the markup chain once.
func (e *Engine) attempt(ctx context.Context, t Target, f *flight) (colour.Hex, string, error) {
	if e.favicon != nil {
		img, err := e.favicon.Favicon(ctx, t)
		switch {
		case err != nil:
			e.logger.Trace("favicon unavailable", "target", t.ID, "error", err)
		default:
			if h, ok := extract.FromFavicon(img); ok {
				return h, extract.StrategyFavicon, nil
			}
		}
	}

	markup, err := e.fetchMarkup(ctx, t)
	if err != nil {
		return "", "", err
	}
	if !e.transition(t, f, Resolving) {
		return "", "", ErrSuperseded
	}

	doc, err := page.Parse(markup, page.WithResolver(e.resolver))
	if err != nil {
		return "", "", err
	}
	res, ok := e.chain.Run(doc)
	if !ok {
		return "", "", ErrNoColour
	}
	return res.Colour, res.Strategy, nil
}

// fetchMarkup races the markup collaborator against the timeout. The
// response channel is buffered so a late reply is dropped without blocking.
func (e *Engine) fetchMarkup(ctx context.Context, t Target) (string, error) {
	if e.markup == nil {
		return "", ErrNoColour
	}
	e.metrics.markupAttempts.Inc()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type response struct {
		markup string
		err    error
	}
	replies := make(chan response, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- response{err: fmt.Errorf("%w: %v", ErrExtractionPanic, r)}
			}
		}()
		markup, err := e.markup.Markup(reqCtx, t)
		replies <- response{markup: markup, err: err}
	}()

	timer := time.NewTimer(e.markupTimeout)
	defer timer.Stop()

	select {
	case r := <-replies:
		if r.err != nil {
			return "", fmt.Errorf("markup retrieval failed: %w", r.err)
		}
		return r.markup, nil
	case <-timer.C:
		return "", ErrMarkupTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// apply hands a colour to the sink and records the outcome. An empty raw
// colour applies the configured default.
func (e *Engine) apply(cfg config.Config, t Target, host string, raw colour.Hex, source string, attempts int, cause error) Outcome {
	fallback := cfg.DefaultColour()

	out := Outcome{
		Target:   t,
		Host:     host,
		Raw:      raw,
		Source:   source,
		Attempts: attempts,
		Err:      cause,
	}

	if raw == "" {
		out.Source = SourceDefault
		out.Raw = fallback
		out.Colour = fallback
		// The configured default keeps its alpha.
		hsla, err := colour.ToHSLA(cfg.DefaultColor)
		if err != nil {
			hsla, _ = colour.ToHSLA(string(fallback))
		}
		out.HSLA = hsla
	} else {
		out.Colour = colour.EnsureReadable(string(raw), fallback, e.resolver)
		out.HSLA, _ = colour.ToHSLA(string(out.Colour))
		e.memory.Store(host, raw)
	}

	err := e.deliver(sink.Application{
		Target:   t.ID,
		Host:     host,
		Colour:   out.Colour,
		HSLA:     out.HSLA,
		Source:   out.Source,
		Selected: t.Selected,
	})
	if err != nil {
		e.logger.Warn("sink failed", "sink", e.sink.Name(), "target", t.ID, "error", err)
	}

	e.mu.Lock()
	e.last[t.ID] = out
	e.mu.Unlock()

	e.metrics.resolutions.WithLabelValues(out.Source).Inc()
	e.logger.Debug("colour applied", "target", t.ID, "host", host, "colour", out.Colour, "source", out.Source, "attempts", attempts)
	return out
}

func (e *Engine) deliver(a sink.Application) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return e.sink.Apply(a)
}

// abandoned reports a run that stopped without applying, either because a
// newer trigger replaced it or because its context ended.
func (e *Engine) abandoned(t Target, f *flight, attempts int) Outcome {
	err := ErrSuperseded
	if cause := context.Cause(f.ctx); cause != nil && !e.superseded(t, f) {
		err = cause
	}
	e.logger.Trace("resolution abandoned", "target", t.ID, "attempts", attempts, "reason", err)
	return Outcome{Target: t, Attempts: attempts, Err: err}
}

func (e *Engine) superseded(t Target, f *flight) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur, ok := e.flights[t.ID]
	return ok && cur != f
}

// errAbandoned reports whether err means the run stopped without applying.
func errAbandoned(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
