// Package extract implements the markup and favicon colour strategies and
// the ordered chain that runs them.
package extract

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/page"
)

// Strategy names.
const (
	StrategyMeta      = "meta"
	StrategyCSSVars   = "css-vars"
	StrategyFramework = "framework"
	StrategyVisual    = "visual"
	StrategyFavicon   = "favicon"
	StrategyProminent = "prominent"
)

// Strategy extracts a usable colour from a parsed document.
type Strategy interface {
	// Name returns the strategy identifier used in logs and traces.
	Name() string

	// Extract returns a canonical, usable colour or false.
	Extract(doc *page.Document) (colour.Hex, bool)
}

// Result is the outcome of a chain run.
type Result struct {
	Colour   colour.Hex
	Strategy string
}

// Attempt records what a single strategy produced.
type Attempt struct {
	Strategy string
	Colour   colour.Hex
	Found    bool
}

// Chain runs strategies in priority order; the first hit wins.
type Chain struct {
	strategies []Strategy
	logger     hclog.Logger
}

// NewChain creates a chain over the given strategies.
func NewChain(logger hclog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Chain{
		strategies: strategies,
		logger:     logger,
	}
}

// DefaultChain returns the markup chain: metadata, CSS custom properties,
// framework classes, visual brand elements and prominent-element scoring.
func DefaultChain(logger hclog.Logger) *Chain {
	return NewChain(logger,
		Meta{},
		CSSVars{},
		Framework{},
		Visual{},
		Prominent{},
	)
}

// Strategies returns the chain's strategies in order.
func (c *Chain) Strategies() []Strategy {
	return c.strategies
}

// Lookup returns the strategy with the given name.
func (c *Chain) Lookup(name string) (Strategy, bool) {
	for _, s := range c.strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Only returns a chain restricted to the named strategies, in chain order.
func (c *Chain) Only(names ...string) (*Chain, error) {
	var picked []Strategy
	for _, name := range names {
		if _, ok := c.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown strategy: %s", name)
		}
	}
	for _, s := range c.strategies {
		for _, name := range names {
			if s.Name() == name {
				picked = append(picked, s)
				break
			}
		}
	}
	return NewChain(c.logger, picked...), nil
}

// Run returns the first usable colour any strategy produces.
func (c *Chain) Run(doc *page.Document) (Result, bool) {
	for _, s := range c.strategies {
		h, ok := s.Extract(doc)
		if !ok {
			c.logger.Trace("strategy missed", "strategy", s.Name())
			continue
		}
		c.logger.Debug("strategy matched", "strategy", s.Name(), "colour", h)
		return Result{Colour: h, Strategy: s.Name()}, true
	}
	return Result{}, false
}

// Trace runs every strategy without short-circuiting.
func (c *Chain) Trace(doc *page.Document) []Attempt {
	attempts := make([]Attempt, 0, len(c.strategies))
	for _, s := range c.strategies {
		h, ok := s.Extract(doc)
		attempts = append(attempts, Attempt{Strategy: s.Name(), Colour: h, Found: ok})
	}
	return attempts
}
