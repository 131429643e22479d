// Package cli provides the command-line interface for sitetint.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitetint/internal/config"
	"github.com/jmylchreest/sitetint/internal/version"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath   string
	defaultColor string
	useCache     bool
	useCustom    bool
	verbose      bool
	quiet        bool
}

// NewRootCmd builds the sitetint command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sitetint",
		Short: "Infer a brand colour for web pages",
		Long: `sitetint infers a representative brand colour for a web page and applies it
to browser chrome.

Colours come from user overrides, remembered results, a built-in table of
well-known sites, the page's favicon and a chain of markup heuristics: meta
tags, CSS custom properties, framework utility classes, logos and finally a
scored survey of prominent elements.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath(), "configuration file (JSON or YAML)")
	flags.StringVar(&opts.defaultColor, "default-color", "", "colour applied when nothing else matches (overrides config)")
	flags.BoolVar(&opts.useCache, "use-cache", false, "read previously resolved colours from memory (overrides config)")
	flags.BoolVar(&opts.useCustom, "use-custom", false, "apply the configured customColors (overrides config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newResolveCmd(opts),
		newExtractCmd(opts),
		newSitesCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sitetint", "config.yaml")
}

// loadConfig reads the configuration file and applies flag overrides.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", o.configPath, err)
	}
	return o.override(cmd, cfg)
}

// override applies explicitly set flags on top of cfg.
func (o *globalOptions) override(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("default-color") {
		cfg.DefaultColor = o.defaultColor
	}
	if flags.Changed("use-cache") {
		cfg.DevOptions.UsedCachedColors = o.useCache
	}
	if flags.Changed("use-custom") {
		cfg.UseCustomColors = o.useCustom
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *globalOptions) logger(cmd *cobra.Command, cfg config.Config) hclog.Logger {
	if o.quiet {
		return hclog.NewNullLogger()
	}
	return cfg.Logger("sitetint", cmd.ErrOrStderr(), o.verbose)
}

// progress prints a verbose progress line to stderr.
func (o *globalOptions) progress(cmd *cobra.Command, format string, args ...any) {
	if o.verbose && !o.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
	}
}

var errNoColour = errors.New("no usable colour found")

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
