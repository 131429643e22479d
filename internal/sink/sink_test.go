package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sitetint/internal/colour"
)

func application(t *testing.T, target, hex string, selected bool) Application {
	t.Helper()
	hsla, err := colour.ToHSLA(hex)
	require.NoError(t, err)
	return Application{Target: target, Colour: colour.Hex(hex), HSLA: hsla, Source: "test", Selected: selected}
}

func TestCSSSinkRules(t *testing.T) {
	s := NewCSSSink(Contrast{Active: 0.45, Inactive: 0.3, SearchBar: 0.45}, "")
	require.NoError(t, s.Apply(application(t, "panel-2", "#ff0000", false)))
	require.NoError(t, s.Apply(application(t, "panel-1", "#0000ff", true)))

	css, err := s.Stylesheet()
	require.NoError(t, err)

	assert.Contains(t, css, ".tab-background-custom-colorpanel-1[selected] {\n  background-color: hsla(240, 100%, 50%, 0.45) !important;")
	assert.Contains(t, css, ".tab-background-custom-colorpanel-1:not([selected]) {\n  background-color: hsla(240, 100%, 50%, 0.3) !important;")
	assert.Contains(t, css, ".tab-background-custom-colorpanel-2[selected] {\n  background-color: hsla(0, 100%, 50%, 0.45) !important;")
	assert.Contains(t, css, "color: white !important;")
	assert.Contains(t, css, "#urlbar-background {\n  background-color: hsla(240, 100%, 50%, 0.45) !important;")
	assert.Less(t, strings.Index(css, "panel-1"), strings.Index(css, "panel-2"))
}

func TestCSSSinkReplacesTabRules(t *testing.T) {
	s := NewCSSSink(Contrast{Active: 1, Inactive: 1, SearchBar: 1}, "")
	require.NoError(t, s.Apply(application(t, "t", "#ff0000", false)))
	require.NoError(t, s.Apply(application(t, "t", "#00ff00", false)))

	css, err := s.Stylesheet()
	require.NoError(t, err)
	assert.NotContains(t, css, "hsla(0, 100%, 50%")
	assert.Equal(t, 1, strings.Count(css, ":not([selected])"))
	assert.NotContains(t, css, "urlbar")
}

func TestCSSSinkContrastAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrome", "sitetint.css")
	s := NewCSSSink(Contrast{Active: 0.45, Inactive: 0.3, SearchBar: 0.45}, path)
	require.NoError(t, s.Apply(application(t, "t", "#ff0000", true)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hsla(0, 100%, 50%, 0.45)")

	require.NoError(t, s.SetContrast(Contrast{Active: 0.8, Inactive: 0.1, SearchBar: 0.2}))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hsla(0, 100%, 50%, 0.8)")
	assert.Contains(t, string(data), "hsla(0, 100%, 50%, 0.1)")
	assert.Contains(t, string(data), "hsla(0, 100%, 50%, 0.2)")

	require.NoError(t, s.Reset())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	css, err := s.Stylesheet()
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(css))
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLines(&buf)
	require.NoError(t, s.Apply(application(t, "a", "#1877f2", false)))
	require.NoError(t, s.Apply(application(t, "b", "#ff4500", true)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got Application
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, "b", got.Target)
	assert.Equal(t, colour.Hex("#ff4500"), got.Colour)
	assert.True(t, got.Selected)
	assert.Contains(t, lines[0], `"color":"#1877f2"`)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Apply(application(t, "a", "#1877f2", false)))
	require.NoError(t, r.Apply(application(t, "a", "#ff4500", false)))

	assert.Len(t, r.Applications(), 2)
	last, ok := r.Last("a")
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#ff4500"), last.Colour)

	require.NoError(t, r.Reset())
	assert.Empty(t, r.Applications())
}

type failingSink struct{}

func (failingSink) Name() string            { return "failing" }
func (failingSink) Apply(Application) error { return errors.New("boom") }

func TestFanout(t *testing.T) {
	r := NewRecorder()
	f := Fanout{failingSink{}, r}

	err := f.Apply(application(t, "a", "#1877f2", false))
	assert.Error(t, err)
	assert.Len(t, r.Applications(), 1, "later sinks still run")

	require.NoError(t, f.Reset())
	assert.Empty(t, r.Applications())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewRecorder())
	reg.Register(NewJSONLines(&bytes.Buffer{}))

	assert.Equal(t, []string{"jsonl", "recorder"}, reg.List())
	_, ok := reg.Get("css")
	assert.False(t, ok)
}

func TestRegistryFanout(t *testing.T) {
	rec := NewRecorder()
	var buf bytes.Buffer
	reg := NewRegistry()
	reg.Register(rec)
	reg.Register(NewJSONLines(&buf))

	tests := []struct {
		name    string
		names   []string
		want    []string
		wantErr bool
	}{
		{name: "order kept", names: []string{"jsonl", "recorder"}, want: []string{"jsonl", "recorder"}},
		{name: "duplicates dropped", names: []string{"recorder", "recorder"}, want: []string{"recorder"}},
		{name: "none", names: nil, want: []string{}},
		{name: "unknown", names: []string{"recorder", "css"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := reg.Fanout(tt.names...)
			if tt.wantErr {
				assert.ErrorContains(t, err, `unknown sink "css"`)
				return
			}
			require.NoError(t, err)
			got := make([]string, 0, len(f))
			for _, s := range f {
				got = append(got, s.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}

	f, err := reg.Fanout("recorder", "jsonl")
	require.NoError(t, err)
	require.NoError(t, f.Apply(application(t, "1", "#112233", true)))
	assert.Len(t, rec.Applications(), 1)
	assert.Contains(t, buf.String(), `"target":"1"`)
}
