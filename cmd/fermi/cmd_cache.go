package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fermi/internal/format"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the download cache",
	}

	var markdown bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List cached downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manager(false)
			if err != nil {
				return err
			}
			defer m.Close()

			entries, err := m.Index().List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No cached downloads.")
				return nil
			}
			mode := format.ASCII
			if markdown {
				mode = format.Markdown
			}
			tb := format.NewTable(mode)
			tb.Header("URL", "Size", "SHA-256", "Fetched")
			var total int64
			for _, e := range entries {
				tb.Row(e.URL, format.FmtBytes(e.Size), format.Truncate(e.SHA256, 12), e.FetchedAt.Format("2006-01-02 15:04"))
				total += e.Size
			}
			tb.Footer("TOTAL", format.FmtBytes(total), "", "")
			tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
			fmt.Fprintln(out, tb.String())
			return nil
		},
	}
	list.Flags().BoolVar(&markdown, "markdown", false, "Render as a Markdown table")

	clean := &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manager(false)
			if err != nil {
				return err
			}
			defer m.Close()

			n, err := m.Clean(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached download(s) from %s\n", n, a.settings.CacheDir)
			return nil
		},
	}

	cmd.AddCommand(list, clean)
	return cmd
}
