package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sitetint/internal/colour"
)

func TestKnownMatch(t *testing.T) {
	tests := []struct {
		host   string
		want   colour.Hex
		wantOK bool
	}{
		{host: "www.github.com", want: "#171515", wantOK: true},
		{host: "github.com", want: "#171515", wantOK: true},
		{host: "GIST.GitHub.com.", want: "#171515", wantOK: true},
		{host: "dropbox.com", want: "#0061ff", wantOK: true},
		{host: "x.com", want: "#000000", wantOK: true},
		{host: "music.youtube.com", want: "#ff0000", wantOK: true},
		{host: "notgithub.com", wantOK: false},
		{host: "example.org", wantOK: false},
		{host: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			e, ok := Known.Match(tt.host)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, e.Colour)
		})
	}
}

func TestKnownTableIsValid(t *testing.T) {
	require.NoError(t, Known.Validate())
	assert.Len(t, Known, 35)
}

func TestFirstMatchWins(t *testing.T) {
	l := List{
		{Domain: "docs.example.com", Colour: "#112233"},
		{Domain: "example.com", Colour: "#445566"},
	}
	e, ok := l.Match("docs.example.com")
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#112233"), e.Colour)

	e, ok = l.Match("www.example.com")
	require.True(t, ok)
	assert.Equal(t, colour.Hex("#445566"), e.Colour)
}

func TestMatchContains(t *testing.T) {
	l := List{
		{Domain: "github", Colour: "#24292f"},
		{Domain: "mail.google", Colour: "#ea4335"},
		{Domain: "x.com", Colour: "#000000"},
		{Domain: "dropbox.com", Colour: "#0061ff"},
	}

	tests := []struct {
		host string
		want colour.Hex
		ok   bool
	}{
		{host: "github.com", want: "#24292f", ok: true},
		{host: "gist.github.com", want: "#24292f", ok: true},
		{host: "mail.google.com", want: "#ea4335", ok: true},
		{host: "www.dropbox.com", want: "#0061ff", ok: true},
		{host: "x.com", want: "#000000", ok: true},
		{host: "example.org", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			e, ok := l.MatchContains(tt.host)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, e.Colour)
		})
	}

	_, ok := l.Match("github.com")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.Error(t, List{{Domain: "", Colour: "#fff"}}.Validate())
	assert.Error(t, List{{Domain: "a.com", Colour: "blue-ish"}}.Validate())
	assert.NoError(t, List{{Domain: "a.com", Colour: "#ABC"}}.Validate())
}
