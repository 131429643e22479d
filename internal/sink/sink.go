// Package sink provides the UI application side of the pipeline: every
// resolved colour is handed to one or more sinks that turn it into a visual
// representation.
package sink

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jmylchreest/sitetint/internal/colour"
)

// Application is a resolved colour for one target.
type Application struct {
	Target   string      `json:"target"`
	Host     string      `json:"host,omitempty"`
	Colour   colour.Hex  `json:"color"`
	HSLA     colour.HSLA `json:"hsla"`
	Source   string      `json:"source"`
	Selected bool        `json:"selected,omitempty"`
}

// Sink receives applied colours.
type Sink interface {
	// Name returns the sink identifier.
	Name() string

	// Apply renders the colour for its target.
	Apply(a Application) error
}

// Resetter is implemented by sinks that can remove everything they have
// applied, e.g. when theming is disabled.
type Resetter interface {
	Reset() error
}

// Registry holds named sinks.
type Registry struct {
	sinks map[string]Sink
}

// NewRegistry creates a new sink registry.
func NewRegistry() *Registry {
	return &Registry{
		sinks: make(map[string]Sink),
	}
}

// Register adds a sink to the registry.
func (r *Registry) Register(s Sink) {
	r.sinks[s.Name()] = s
}

// Get retrieves a sink by name.
func (r *Registry) Get(name string) (Sink, bool) {
	s, ok := r.sinks[name]
	return s, ok
}

// List returns all registered sink names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fanout returns the named sinks in the order given. Duplicate names are
// applied once.
func (r *Registry) Fanout(names ...string) (Fanout, error) {
	seen := make(map[string]bool, len(names))
	f := make(Fanout, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		s, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown sink %q (available: %v)", name, r.List())
		}
		seen[name] = true
		f = append(f, s)
	}
	return f, nil
}

// Fanout applies to several sinks in order.
type Fanout []Sink

// Name implements Sink.
func (Fanout) Name() string { return "fanout" }

// Apply implements Sink. Every sink is called even if an earlier one fails.
func (f Fanout) Apply(a Application) error {
	var errs []error
	for _, s := range f {
		if err := s.Apply(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reset implements Resetter for the sinks that support it.
func (f Fanout) Reset() error {
	var errs []error
	for _, s := range f {
		if r, ok := s.(Resetter); ok {
			if err := r.Reset(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
