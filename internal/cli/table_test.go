package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	table := NewTable([]string{"Domain", "Color"})
	table.AddRow([]string{"github.com", "#171515"})
	table.AddRow([]string{"x.com"})
	table.AddRow([]string{"a", "b", "dropped"})

	lines := strings.Split(strings.TrimRight(table.Render(), "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "Domain      Color", lines[0])
	assert.Equal(t, "----------  -------", lines[1])
	assert.Equal(t, "github.com  #171515", lines[2])
	assert.Equal(t, "x.com", lines[3])
	assert.Equal(t, "a           b", lines[4])
}

func TestTableRenderEmpty(t *testing.T) {
	assert.Empty(t, NewTable(nil).Render())

	out := NewTable([]string{"Column1", "Column2"}).Render()
	assert.Equal(t, "Column1  Column2\n-------  -------\n", out)
}

func TestTableStyledCells(t *testing.T) {
	swatch := lipgloss.NewStyle().Bold(true).Render("ab")
	table := NewTable([]string{"Swatch", "Name"})
	table.AddRow([]string{swatch, "x"})

	lines := strings.Split(table.Render(), "\n")
	row := lines[2]
	assert.Equal(t, strings.Index(lines[0], "Name"), lipgloss.Width(row[:strings.LastIndex(row, "x")]))
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"test", 10, "test      "},
		{"hello", 5, "hello"},
		{"world", 3, "world"},
		{"", 5, "     "},
		{"→", 2, "→ "},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, padRight(tt.input, tt.width), tt.input)
	}
}
