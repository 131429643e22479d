package cli

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitetint/internal/colour"
	"github.com/jmylchreest/sitetint/internal/config"
	"github.com/jmylchreest/sitetint/internal/engine"
	"github.com/jmylchreest/sitetint/internal/fetch"
	"github.com/jmylchreest/sitetint/internal/sink"
)

type resolveOptions struct {
	format        string
	preview       bool
	cssPath       string
	markupTimeout time.Duration
	attempts      int
	backoff       time.Duration
	noFavicon     bool
	noCache       bool
	cacheDir      string
}

// resolvedColour is the JSON form of an outcome.
type resolvedColour struct {
	URL      string      `json:"url"`
	Host     string      `json:"host,omitempty"`
	Colour   colour.Hex  `json:"color"`
	Raw      colour.Hex  `json:"raw"`
	HSLA     colour.HSLA `json:"hsla"`
	Source   string      `json:"source"`
	Attempts int         `json:"attempts"`
	Contrast float64     `json:"contrast,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func newResolvedColour(out engine.Outcome) resolvedColour {
	r := resolvedColour{
		URL:      out.Target.URL,
		Host:     out.Host,
		Colour:   out.Colour,
		Raw:      out.Raw,
		HSLA:     out.HSLA,
		Source:   out.Source,
		Attempts: out.Attempts,
	}
	if rgb, ok := out.Colour.RGB(); ok {
		// Contrast against the white text drawn over selected tabs.
		r.Contrast = math.Round(colour.ContrastRatio(colour.RGBToColor(rgb), color.White)*100) / 100
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	return r
}

func newResolveCmd(global *globalOptions) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <url>...",
		Short: "Resolve the brand colour of web pages",
		Long: `Fetch each page over HTTP and resolve its brand colour.

The first URL is treated as the selected tab, so --css output carries its
URL bar rule.

Examples:
  # Resolve a single page
  sitetint resolve https://go.dev

  # Several pages as JSON
  sitetint resolve --format json https://go.dev https://github.com

  # Write the browser stylesheet
  sitetint resolve --css ~/.mozilla/firefox/profile/chrome/sitetint.css https://go.dev`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, global, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "hex", "output format (hex, rgb, hsla, json)")
	f.BoolVar(&opts.preview, "preview", false, "show a colour swatch (terminal only)")
	f.StringVar(&opts.cssPath, "css", "", "write the tab stylesheet to this file")
	f.DurationVar(&opts.markupTimeout, "markup-timeout", 5*time.Second, "time to wait for page markup per attempt")
	f.IntVar(&opts.attempts, "attempts", engine.DefaultMaxAttempts, "markup attempts before the default colour is applied")
	f.DurationVar(&opts.backoff, "backoff", engine.DefaultRetryBackoff, "delay between attempts")
	f.BoolVar(&opts.noFavicon, "no-favicon", false, "skip the favicon strategy")
	f.BoolVar(&opts.noCache, "no-cache", false, "do not cache favicons on disk")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "favicon cache directory (default: user cache dir)")
	return cmd
}

func runResolve(cmd *cobra.Command, global *globalOptions, opts *resolveOptions, args []string) error {
	if opts.format != "json" {
		if _, err := formatColour("#000000", colour.HSLA{}, opts.format); err != nil {
			return err
		}
	}

	cfg, err := global.loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return fmt.Errorf("theming is disabled in %s", global.configPath)
	}
	logger := global.logger(cmd, cfg)

	client := fetch.NewClient(fetch.Options{
		Timeout:      opts.markupTimeout,
		AllowPrivate: true,
		CacheDir:     opts.cacheDir,
		CacheMaxAge:  24 * time.Hour,
		NoCache:      opts.noCache,
		Logger:       logger,
	})

	recorder := sink.NewRecorder()
	sinks := sink.Fanout{recorder}
	if opts.cssPath != "" {
		sinks = append(sinks, sink.NewCSSSink(contrastOf(cfg), opts.cssPath))
	}

	engineOpts := engine.Options{
		Config:        cfg,
		Markup:        client,
		Sink:          sinks,
		Logger:        logger,
		MarkupTimeout: opts.markupTimeout,
		RetryBackoff:  opts.backoff,
		MaxAttempts:   opts.attempts,
	}
	if !opts.noFavicon {
		engineOpts.Favicon = client
	}
	e := engine.New(engineOpts)
	defer e.Close()

	out := cmd.OutOrStdout()
	preview := opts.preview && isTerminal(out)
	var results []resolvedColour

	for i, u := range args {
		global.progress(cmd, "Resolving %s", u)
		target := engine.Target{ID: strconv.Itoa(i + 1), URL: u, Selected: i == 0}

		res, err := e.Resolve(cmd.Context(), target)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", u, err)
		}
		global.progress(cmd, "  %s from %s after %d attempt(s)", res.Colour, res.Source, res.Attempts)

		if opts.format == "json" {
			results = append(results, newResolvedColour(res))
			continue
		}
		if global.quiet {
			continue
		}

		value, err := formatColour(res.Colour, res.HSLA, opts.format)
		if err != nil {
			return err
		}
		line := value
		if len(args) > 1 {
			line = fmt.Sprintf("%s  %s", u, value)
		}
		if preview {
			line = swatch(res.Colour) + " " + line
		}
		fmt.Fprintln(out, line)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	}
	return nil
}

func contrastOf(cfg config.Config) sink.Contrast {
	return sink.Contrast{
		Active:    cfg.ContrastActive,
		Inactive:  cfg.ContrastInactive,
		SearchBar: cfg.ContrastSearchBar,
	}
}
