package sink

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"text/template"

	"github.com/jmylchreest/sitetint/internal/colour"
)

//go:embed *.tmpl
var templates embed.FS

var stylesheetTemplate = template.Must(template.ParseFS(templates, "stylesheet.css.tmpl"))

// Contrast holds the alpha values used for tab and URL bar backgrounds.
type Contrast struct {
	Active    float64
	Inactive  float64
	SearchBar float64
}

type tabRule struct {
	ID     string
	Colour colour.HSLA
}

type stylesheetData struct {
	Tabs     []tabRule
	URLBar   *colour.HSLA
	Contrast Contrast
}

// CSSSink maintains a browser-chrome stylesheet: one set of rules per tab
// plus a URL bar rule driven by the selected tab. When a path is set the
// stylesheet is rewritten on every change.
type CSSSink struct {
	mu       sync.Mutex
	tabs     map[string]colour.HSLA
	urlbar   *colour.HSLA
	contrast Contrast
	path     string
}

// NewCSSSink creates a stylesheet sink. path may be empty.
func NewCSSSink(contrast Contrast, path string) *CSSSink {
	return &CSSSink{
		tabs:     make(map[string]colour.HSLA),
		contrast: contrast,
		path:     path,
	}
}

// Name implements Sink.
func (s *CSSSink) Name() string { return "css" }

// Apply implements Sink. A tab's previous rules are replaced.
func (s *CSSSink) Apply(a Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tabs[a.Target] = a.HSLA
	if a.Selected {
		hsla := a.HSLA
		s.urlbar = &hsla
	}
	return s.flush()
}

// SetContrast changes the alpha values and re-renders.
func (s *CSSSink) SetContrast(c Contrast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contrast = c
	return s.flush()
}

// Remove drops a tab's rules.
func (s *CSSSink) Remove(target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tabs, target)
	return s.flush()
}

// Reset implements Resetter: all rules are removed.
func (s *CSSSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tabs = make(map[string]colour.HSLA)
	s.urlbar = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stylesheet: %w", err)
	}
	return nil
}

// Stylesheet renders the current rules.
func (s *CSSSink) Stylesheet() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *CSSSink) render(w io.Writer) error {
	data := stylesheetData{
		Tabs:     make([]tabRule, 0, len(s.tabs)),
		URLBar:   s.urlbar,
		Contrast: s.contrast,
	}
	for id, c := range s.tabs {
		data.Tabs = append(data.Tabs, tabRule{ID: id, Colour: c})
	}
	sort.Slice(data.Tabs, func(i, j int) bool { return data.Tabs[i].ID < data.Tabs[j].ID })

	if err := stylesheetTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render stylesheet: %w", err)
	}
	return nil
}

func (s *CSSSink) flush() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create stylesheet directory: %w", err)
	}

	var buf bytes.Buffer
	if err := s.render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return nil
}
