package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"lavinder/config"
	"lavinder/keys"
)

func addCheckConfig(topLevel *cobra.Command) {
	var path string
	var showKeys bool
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Check a configuration file for errors.",
		Example: `
lavinder check-config
lavinder check-config -c ./config.yaml --keys
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			return checkConfig(cmd.OutOrStdout(), path, showKeys)
		},
	}

	cmd.Flags().StringVarP(&path, "config", "c", "", "Configuration file to check.")
	cmd.Flags().BoolVar(&showKeys, "keys", false, "Print the key bindings.")

	topLevel.AddCommand(cmd)
}

func checkConfig(out io.Writer, path string, showKeys bool) error {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	table, err := keys.FromConfig(cfg)
	if err != nil {
		return err
	}

	if showKeys {
		bold := color.New(color.Bold).SprintFunc()
		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.AddRow(bold("Key"), bold("Command"), bold("Description"))
		for _, r := range table.Rows() {
			tbl.AddRow(r[0], r[1], r[2])
		}
		if _, err := fmt.Fprintln(out, tbl); err != nil {
			return err
		}
	}

	_, err = color.New(color.FgGreen).Fprintf(out, "%s: %d groups, %d layouts, %d screens, %d keys, %d mouse bindings\n",
		path, len(cfg.Groups), len(cfg.Layouts), len(cfg.Screens), len(table.Keys()), len(table.Mouse()))
	return err
}
