package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitetint/internal/sites"
)

func newSitesCmd(global *globalOptions) *cobra.Command {
	var (
		custom  bool
		host    string
		asJSON  bool
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the built-in known-site colours",
		Long: `List the built-in table of well-known sites and their colours, or the
customColors from the configuration with --custom.

A domain matches a host when it equals the host or is a suffix of it at a
label boundary, so "x.com" matches "www.x.com" but not "dropbox.com". The
first matching entry wins. Custom entries that match no host this way fall
back to plain containment, so "github" matches "gist.github.com".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := sites.Known
			if custom {
				cfg, err := global.loadConfig(cmd)
				if err != nil {
					return err
				}
				list = cfg.CustomColors
			}

			out := cmd.OutOrStdout()
			if host != "" {
				match := list.Match
				if custom {
					match = list.MatchContains
				}
				entry, ok := match(host)
				if !ok {
					return fmt.Errorf("no entry matches %q", host)
				}
				list = sites.List{entry}
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			show := preview && isTerminal(out)
			headers := []string{"Domain", "Color"}
			if show {
				headers = append(headers, "")
			}
			table := NewTable(headers)
			for _, e := range list {
				row := []string{e.Domain, string(e.Colour)}
				if show {
					row = append(row, swatch(e.Colour))
				}
				table.AddRow(row)
			}
			fmt.Fprint(out, table.Render())
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&custom, "custom", false, "list customColors from the configuration instead")
	f.StringVar(&host, "match", "", "show only the entry matching this host")
	f.BoolVar(&asJSON, "json", false, "output JSON")
	f.BoolVar(&preview, "preview", false, "show colour swatches (terminal only)")
	return cmd
}
