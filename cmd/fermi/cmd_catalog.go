package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"fermi/internal/builder"
	"fermi/internal/catalog"
	"fermi/internal/format"
)

func newConfigsCmd() *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "List the dataset configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := format.ASCII
			if markdown {
				mode = format.Markdown
			}
			tb := format.NewTable(mode)
			tb.Header("Name", "Version", "Template", "Fact transform", "Default", "Description")
			for _, c := range catalog.Configs() {
				def := ""
				if c.Name == catalog.DefaultConfigName() {
					def = "*"
				}
				tb.Row(c.Name, c.Version,
					format.BoolMark(c.NeedsTemplate()),
					format.BoolMark(c.NeedsFactTransform()),
					def,
					format.OneLine(c.Description))
			}
			tb.Columns(
				format.ColumnConfig{Number: 3, Align: format.AlignCenter},
				format.ColumnConfig{Number: 4, Align: format.AlignCenter},
				format.ColumnConfig{Number: 5, Align: format.AlignCenter},
				format.ColumnConfig{Number: 6, Align: format.AlignLeft, MaxWidth: 60},
			)
			fmt.Fprintln(cmd.OutOrStdout(), tb.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render as a Markdown table")
	return cmd
}

func newInfoCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "info [config]",
		Short: "Show a configuration's description, schema, license and citation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := builder.New(configArg(args))
			if err != nil {
				return err
			}
			info := b.Info()
			out := cmd.OutOrStdout()
			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(info); err != nil {
					return err
				}
				return enc.Close()
			case "text":
				fmt.Fprintf(out, "Config:   %s (version %s, builder %s)\n", info.ConfigName, info.ConfigVersion, info.BuilderVersion)
				fmt.Fprintf(out, "Homepage: %s\n", info.Homepage)
				fmt.Fprintf(out, "License:  %s\n", info.License)
				fmt.Fprintf(out, "Schema:   %s\n\n", info.Schema)
				fmt.Fprintln(out, strings.TrimSpace(info.Description))
				fmt.Fprintf(out, "\nCitation:\n%s\n", strings.TrimSpace(info.Citation))
				return nil
			}
			return fmt.Errorf("unknown output %q (want text, json or yaml)", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

// configArg returns the optional positional config name; empty selects
// the default configuration.
func configArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
