package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jmylchreest/sitetint/internal/colour"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

// swatch renders a small block filled with h.
func swatch(h colour.Hex) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(string(h))).
		Render("    ")
}

// formatColour renders h in one of the supported output formats.
func formatColour(h colour.Hex, hsla colour.HSLA, format string) (string, error) {
	switch format {
	case "hex", "":
		return string(h), nil
	case "rgb":
		rgb, ok := h.RGB()
		if !ok {
			return "", fmt.Errorf("invalid colour %q", h)
		}
		return rgb.String(), nil
	case "hsla":
		return hsla.String(), nil
	default:
		return "", fmt.Errorf("unknown format %q (hex, rgb, hsla, json)", format)
	}
}
