// Package engine resolves a brand colour for page targets and applies it to
// a sink. It owns the colour memory, the per-target single-flight guard and
// the retry lifecycle.
package engine

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/config"
	"github.com/jmylchreest/sitetint/internal/extract"
	"github.com/jmylchreest/sitetint/internal/sink"
)

// Defaults for the retry lifecycle.
const (
	DefaultMaxAttempts   = 5
	DefaultMarkupTimeout = 500 * time.Millisecond
	DefaultRetryBackoff  = 200 * time.Millisecond
)

// Colour sources reported in outcomes besides the strategy names.
const (
	SourceCustom  = "custom"
	SourceCache   = "cache"
	SourceKnown   = "known"
	SourceDefault = "default"
)

var (
	// ErrUnsupportedTarget is reported for targets without an http(s) page.
	ErrUnsupportedTarget = errors.New("unsupported target")

	// ErrNoColour is reported when no source produced a usable colour.
	ErrNoColour = errors.New("no usable colour found")

	// ErrMarkupTimeout is reported when markup did not arrive in time.
	ErrMarkupTimeout = errors.New("markup retrieval timed out")

	// ErrExtractionPanic is reported when a strategy or collaborator panicked.
	ErrExtractionPanic = errors.New("extraction panicked")

	// ErrBusy is returned when a resolution for the target is in progress.
	ErrBusy = errors.New("resolution already in progress")

	// ErrSuperseded is reported by a run replaced by a newer trigger.
	ErrSuperseded = errors.New("resolution superseded")

	// ErrDisabled is returned while theming is disabled.
	ErrDisabled = errors.New("theming is disabled")
)

// Target identifies something to colour, typically a browser tab.
type Target struct {
	ID       string `json:"tab"`
	URL      string `json:"url"`
	Selected bool   `json:"selected,omitempty"`
}

// MarkupSource retrieves the serialized markup of a target's page.
// Implementations should return promptly once ctx is cancelled.
type MarkupSource interface {
	Markup(ctx context.Context, t Target) (string, error)
}

// MarkupFunc adapts a function to MarkupSource.
type MarkupFunc func(ctx context.Context, t Target) (string, error)

// Markup implements MarkupSource.
func (f MarkupFunc) Markup(ctx context.Context, t Target) (string, error) { return f(ctx, t) }

// FaviconSource retrieves a target's favicon.
type FaviconSource interface {
	Favicon(ctx context.Context, t Target) (image.Image, error)
}

// FaviconFunc adapts a function to FaviconSource.
type FaviconFunc func(ctx context.Context, t Target) (image.Image, error)

// Favicon implements FaviconSource.
func (f FaviconFunc) Favicon(ctx context.Context, t Target) (image.Image, error) { return f(ctx, t) }

// Outcome describes a finished resolution.
type Outcome struct {
	Target   Target
	Host     string
	Colour   colour.Hex // applied, readable colour
	Raw      colour.Hex // colour before readability adjustment
	HSLA     colour.HSLA
	Source   string
	Attempts int
	Err      error
}

// Options configures an Engine.
type Options struct {
	Config   config.Config
	Markup   MarkupSource
	Favicon  FaviconSource
	Sink     sink.Sink
	Chain    *extract.Chain
	Resolver colour.Resolver
	Logger   hclog.Logger

	// Registerer receives the engine metrics. A private registry is used
	// when nil.
	Registerer prometheus.Registerer

	MarkupTimeout time.Duration
	RetryBackoff  time.Duration
	MaxAttempts   int
}

type flight struct {
	state  State
	ctx    context.Context
	cancel context.CancelFunc
}

// Engine is the inference engine. It is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	cfg     config.Config
	flights map[string]*flight
	last    map[string]Outcome
	targets map[string]Target

	memory   *Memory
	markup   MarkupSource
	favicon  FaviconSource
	sink     sink.Sink
	chain    *extract.Chain
	resolver colour.Resolver
	logger   hclog.Logger
	metrics  *metrics

	markupTimeout time.Duration
	retryBackoff  time.Duration
	maxAttempts   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("engine")

	chain := opts.Chain
	if chain == nil {
		chain = extract.DefaultChain(logger)
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = colour.NamedResolver{}
	}
	out := opts.Sink
	if out == nil {
		out = sink.NewRecorder()
	}

	e := &Engine{
		cfg:           opts.Config,
		flights:       make(map[string]*flight),
		last:          make(map[string]Outcome),
		targets:       make(map[string]Target),
		memory:        NewMemory(),
		markup:        opts.Markup,
		favicon:       opts.Favicon,
		sink:          out,
		chain:         chain,
		resolver:      resolver,
		logger:        logger,
		metrics:       newMetrics(opts.Registerer),
		markupTimeout: opts.MarkupTimeout,
		retryBackoff:  opts.RetryBackoff,
		maxAttempts:   opts.MaxAttempts,
	}
	if e.markupTimeout <= 0 {
		e.markupTimeout = DefaultMarkupTimeout
	}
	if e.retryBackoff <= 0 {
		e.retryBackoff = DefaultRetryBackoff
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = DefaultMaxAttempts
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

// Memory returns the engine's colour memory.
func (e *Engine) Memory() *Memory { return e.memory }

// Config returns the current configuration.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Trigger starts an asynchronous resolution for t. It returns false when
// theming is disabled or a resolution for the same target is already
// awaiting markup or resolving; such triggers are dropped, not queued.
// A trigger arriving while the previous run waits to retry replaces it.
func (e *Engine) Trigger(t Target) bool {
	f, err := e.acquire(e.ctx, t)
	if err != nil {
		return false
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(f, t)
	}()
	return true
}

// Resolve runs a resolution synchronously and returns its outcome.
func (e *Engine) Resolve(ctx context.Context, t Target) (Outcome, error) {
	f, err := e.acquire(ctx, t)
	if err != nil {
		return Outcome{Target: t}, err
	}

	out := e.run(f, t)
	if errAbandoned(out.Err) {
		return out, out.Err
	}
	return out, nil
}

// Wait blocks until all triggered resolutions have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close cancels in-flight resolutions and waits for them to exit.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

// State returns the lifecycle state of a target.
func (e *Engine) State(id string) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if f, ok := e.flights[id]; ok {
		return f.state
	}
	if _, ok := e.last[id]; ok {
		return Applied
	}
	return Idle
}

// Last returns the most recent outcome applied to a target.
func (e *Engine) Last(id string) (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, ok := e.last[id]
	return out, ok
}

// Forget drops everything known about a target, e.g. when a tab closes.
func (e *Engine) Forget(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.last, id)
	delete(e.targets, id)
}

// UpdateConfig replaces the configuration. Disabling resets the sink;
// re-enabling re-triggers every known target.
func (e *Engine) UpdateConfig(cfg config.Config) {
	e.mu.Lock()
	old := e.cfg
	e.cfg = cfg
	e.mu.Unlock()

	switch {
	case old.Enabled && !cfg.Enabled:
		e.logger.Info("theming disabled")
		if r, ok := e.sink.(sink.Resetter); ok {
			if err := r.Reset(); err != nil {
				e.logger.Warn("failed to reset sink", "error", err)
			}
		}
	case !old.Enabled && cfg.Enabled:
		e.logger.Info("theming enabled")
		e.RefreshAll()
	}
}

// RefreshAll triggers every target seen so far and returns how many
// triggers were accepted.
func (e *Engine) RefreshAll() int {
	e.mu.Lock()
	targets := make([]Target, 0, len(e.targets))
	for _, t := range e.targets {
		targets = append(targets, t)
	}
	e.mu.Unlock()

	n := 0
	for _, t := range targets {
		if e.Trigger(t) {
			n++
		}
	}
	return n
}

// IsTriggerAttribute reports whether a tab attribute change should start a
// resolution: busy, progress, image and selected changes do, the
// visuallyselected mirror attribute does not.
func IsTriggerAttribute(attr string) bool {
	a := strings.ToLower(attr)
	if strings.Contains(a, "visuallyselected") {
		return false
	}
	for _, key := range []string{"busy", "progress", "image", "selected"} {
		if strings.Contains(a, key) {
			return true
		}
	}
	return false
}

func (e *Engine) acquire(parent context.Context, t Target) (*flight, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.Enabled {
		e.metrics.triggers.WithLabelValues("disabled").Inc()
		return nil, ErrDisabled
	}

	result := "accepted"
	if f, ok := e.flights[t.ID]; ok {
		if f.state != Retrying {
			e.metrics.triggers.WithLabelValues("dropped").Inc()
			e.logger.Trace("trigger dropped", "target", t.ID, "state", f.state)
			return nil, ErrBusy
		}
		f.cancel()
		result = "superseding"
		e.logger.Debug("superseding pending retry", "target", t.ID)
	}

	ctx, cancel := context.WithCancel(parent)
	f := &flight{state: AwaitingMarkup, ctx: ctx, cancel: cancel}
	e.flights[t.ID] = f
	e.targets[t.ID] = t
	e.metrics.triggers.WithLabelValues(result).Inc()
	return f, nil
}

// transition moves f to state if f still owns its target.
func (e *Engine) transition(t Target, f *flight, state State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flights[t.ID] != f || f.ctx.Err() != nil {
		return false
	}
	f.state = state
	return true
}

func (e *Engine) release(t Target, f *flight) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flights[t.ID] == f {
		delete(e.flights, t.ID)
	}
	f.cancel()
}
