package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/extract"
	"github.com/jmylchreest/sitetint/internal/image"
	"github.com/jmylchreest/sitetint/internal/page"
)

type extractOptions struct {
	trace   bool
	only    []string
	favicon string
	preview bool
}

func newExtractCmd(global *globalOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <file.html>",
		Short: "Run the markup strategies on a local HTML file",
		Long: `Run the markup strategy chain against a saved page and report which
strategy produced the colour. Use "-" to read from stdin.

Strategies, in order: meta, css-vars, framework, visual, prominent.

Examples:
  # First matching strategy
  sitetint extract page.html

  # Show what every strategy finds
  sitetint extract --trace page.html

  # Only the framework heuristic
  sitetint extract --only framework page.html

  # Try a favicon first, as the engine does
  sitetint extract --favicon favicon.ico page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, global, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.trace, "trace", false, "run every strategy and print each result")
	f.StringSliceVar(&opts.only, "only", nil, "restrict the chain to these strategies")
	f.StringVar(&opts.favicon, "favicon", "", "favicon image to try before the markup chain")
	f.BoolVar(&opts.preview, "preview", false, "show colour swatches (terminal only)")
	return cmd
}

func runExtract(cmd *cobra.Command, global *globalOptions, opts *extractOptions, path string) error {
	cfg, err := global.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := global.logger(cmd, cfg)

	markup, err := readMarkup(cmd, path)
	if err != nil {
		return err
	}
	global.progress(cmd, "Parsing %s (%d bytes)", path, len(markup))

	doc, err := page.Parse(markup)
	if err != nil {
		return err
	}

	chain := extract.DefaultChain(logger.Named("extract"))
	if len(opts.only) > 0 {
		if chain, err = chain.Only(opts.only...); err != nil {
			return err
		}
	}

	var icon *extract.Attempt
	if opts.favicon != "" {
		img, err := image.NewFileLoader().Load(opts.favicon)
		if err != nil {
			return fmt.Errorf("failed to load favicon: %w", err)
		}
		h, ok := extract.FromFavicon(img)
		icon = &extract.Attempt{Strategy: extract.StrategyFavicon, Colour: h, Found: ok}
	}

	out := cmd.OutOrStdout()
	preview := opts.preview && isTerminal(out)

	if opts.trace {
		attempts := chain.Trace(doc)
		if icon != nil {
			attempts = append([]extract.Attempt{*icon}, attempts...)
		}
		fmt.Fprint(out, traceTable(attempts, preview))
		for _, a := range attempts {
			if a.Found {
				return nil
			}
		}
		return errNoColour
	}

	if icon != nil && icon.Found {
		printExtracted(out, icon.Colour, icon.Strategy, preview)
		return nil
	}
	res, ok := chain.Run(doc)
	if !ok {
		return fmt.Errorf("%w in %s", errNoColour, path)
	}
	printExtracted(out, res.Colour, res.Strategy, preview)
	return nil
}

func readMarkup(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path) // #nosec G304 - user-specified page, intended to be read
	}
	if err != nil {
		return "", fmt.Errorf("failed to read markup: %w", err)
	}
	return string(data), nil
}

func printExtracted(w io.Writer, h colour.Hex, strategy string, preview bool) {
	line := fmt.Sprintf("%s  %s", h, strategy)
	if preview {
		line = swatch(h) + " " + line
	}
	fmt.Fprintln(w, line)
}

func traceTable(attempts []extract.Attempt, preview bool) string {
	headers := []string{"Strategy", "Colour", "Result"}
	if preview {
		headers = append(headers, "")
	}
	table := NewTable(headers)

	winner := -1
	for i, a := range attempts {
		if a.Found {
			winner = i
			break
		}
	}

	for i, a := range attempts {
		result := "-"
		switch {
		case i == winner:
			result = "selected"
		case a.Found:
			result = "found"
		}
		row := []string{a.Strategy, strings.TrimSpace(string(a.Colour)), result}
		if preview && a.Found {
			row = append(row, swatch(a.Colour))
		}
		table.AddRow(row)
	}
	return table.Render()
}
