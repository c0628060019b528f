package main

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/spf13/cobra"

	"fermi/internal/builder"
	"fermi/internal/catalog"
	"fermi/internal/download"
	"fermi/internal/export"
	"fermi/internal/format"
	"fermi/internal/generate"
	"fermi/internal/logging"
)

func newDownloadCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "download [config]",
		Short: "Download every split of a configuration into the cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := builder.New(configArg(args))
			if err != nil {
				return err
			}
			m, err := a.manager(force)
			if err != nil {
				return err
			}
			defer m.Close()

			gens, err := b.SplitGenerators(cmd.Context(), m)
			if err != nil {
				return err
			}
			tb := format.NewTable(format.ASCII)
			tb.Header("Split", "Path")
			for _, g := range gens {
				tb.Row(g.Split, g.Path)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tb.String())

			stats, err := m.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "fetched %.0f (%s), cached %.0f, not modified %.0f\n",
				stats[download.ResultFetched], format.FmtBytes(int64(stats["bytes"])),
				stats[download.ResultHit], stats[download.ResultNotModified])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-download even when cached")
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		split string
		limit int
		file  string
	)
	cmd := &cobra.Command{
		Use:   "generate [config]",
		Short: "Stream the examples of one split as JSON lines",
		Long: "Streams {\"key\":N,\"record\":{...}} lines to stdout. With --file the split\n" +
			"is read from a local JSON document instead of the download cache.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := builder.New(configArg(args))
			if err != nil {
				return err
			}
			seq, err := a.examples(cmd, b, split, file)
			if err != nil {
				return err
			}
			_, err = export.Encode(cmd.OutOrStdout(), export.JSONL, take(seq, limit))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&split, "split", "", "Split to generate: train, validation or test (required)")
	f.IntVar(&limit, "limit", 0, "Stop after N examples (0 = all)")
	f.StringVar(&file, "file", "", "Read the split from a local JSON file")
	_ = cmd.MarkFlagRequired("split")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		outDir string
		fmtStr string
		split  string
		file   string
	)
	cmd := &cobra.Command{
		Use:   "export [config]",
		Short: "Write the examples of a configuration's splits to files",
		Long: "Writes <config>-<split>.<format> under --out for every split, or only for\n" +
			"--split. --file reads that single split from a local JSON document.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(fmtStr)
			if err != nil {
				return err
			}
			b, err := builder.New(configArg(args))
			if err != nil {
				return err
			}
			w, err := export.NewWriter(outDir, f)
			if err != nil {
				return err
			}

			gens, err := a.splitGenerators(cmd, b, split, file)
			if err != nil {
				return err
			}

			logger := logging.New("export")
			tb := format.NewTable(format.ASCII)
			tb.Header("Split", "File", "Examples")
			total := 0
			for _, g := range gens {
				p, n, err := w.WriteSplit(b.Config.Name, g.Split, b.GenerateExamples(g))
				if err != nil {
					return fmt.Errorf("export %s/%s: %w", b.Config.Name, g.Split, err)
				}
				logger.Info("split exported", "config", b.Config.Name, "split", g.Split, "path", p, "examples", n)
				tb.Row(g.Split, filepath.Base(p), n)
				total += n
			}
			tb.Footer("TOTAL", "", total)
			tb.Columns(format.ColumnConfig{Number: 3, Align: format.AlignRight})
			fmt.Fprintln(cmd.OutOrStdout(), tb.String())
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&outDir, "out", "", "Output directory (required)")
	fl.StringVar(&fmtStr, "format", string(export.JSONL), "Output format: jsonl, json or yaml")
	fl.StringVar(&split, "split", "", "Export only this split")
	fl.StringVar(&file, "file", "", "Read the split from a local JSON file (requires --split)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// examples streams one split either from file or through the download cache.
func (a *app) examples(cmd *cobra.Command, b *builder.Builder, split, file string) (iter.Seq2[generate.Example, error], error) {
	gens, err := a.splitGenerators(cmd, b, split, file)
	if err != nil {
		return nil, err
	}
	return b.GenerateExamples(gens[0]), nil
}

// splitGenerators resolves one split, or every split when split is empty.
// A local file stands in for the single requested split.
func (a *app) splitGenerators(cmd *cobra.Command, b *builder.Builder, split, file string) ([]builder.SplitGenerator, error) {
	var s catalog.Split
	if split != "" {
		var err error
		if s, err = catalog.ParseSplit(split); err != nil {
			return nil, err
		}
	}
	if file != "" {
		if split == "" {
			return nil, fmt.Errorf("--file requires --split")
		}
		return []builder.SplitGenerator{{Split: s, Path: file}}, nil
	}

	m, err := a.manager(false)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	if split == "" {
		return b.SplitGenerators(cmd.Context(), m)
	}
	gen, err := b.SplitGenerator(cmd.Context(), m, s)
	if err != nil {
		return nil, err
	}
	return []builder.SplitGenerator{gen}, nil
}

// take yields at most n examples from seq; n <= 0 yields all of them.
func take(seq iter.Seq2[generate.Example, error], n int) iter.Seq2[generate.Example, error] {
	if n <= 0 {
		return seq
	}
	return func(yield func(generate.Example, error) bool) {
		i := 0
		for ex, err := range seq {
			if !yield(ex, err) || err != nil {
				return
			}
			if i++; i == n {
				return
			}
		}
	}
}
