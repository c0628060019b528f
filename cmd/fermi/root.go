// fermi loads the AllenAI Fermi Problems dataset: it lists the
// configurations, downloads their splits into a local cache, streams or
// exports the projected examples, and serves them over MCP.
//
// Usage:
//
//	fermi configs [--markdown]
//	fermi info [config] [--output text|json|yaml]
//	fermi download [config] [--force]
//	fermi generate [config] --split=<split> [--limit=N] [--file=<path>]
//	fermi export [config] --out=<dir> [--format=jsonl|json|yaml] [--split=<split>]
//	fermi cache list|clean
//	fermi serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fermi/internal/config"
	"fermi/internal/download"
	"fermi/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// app carries the global flags and the settings resolved from them.
type app struct {
	configPath string
	cacheDir   string
	logLevel   string
	logFormat  string
	offline    bool

	settings config.Settings
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fermi",
		Short: "Fermi Problems dataset loader",
		Long: "fermi resolves the Fermi Problems splits for a configuration, caches them\n" +
			"locally and projects every problem onto the configuration's schema.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Settings file (YAML or JSON)")
	pf.StringVar(&a.cacheDir, "cache-dir", "", "Download cache directory (default "+config.DefaultCacheDir()+")")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&a.offline, "offline", false, "Serve only cached downloads")

	root.AddCommand(
		newConfigsCmd(),
		newInfoCmd(),
		newDownloadCmd(a),
		newGenerateCmd(a),
		newExportCmd(a),
		newCacheCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads the settings file, applies flag overrides and configures
// logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	s := config.Default()
	if a.configPath != "" {
		loaded, err := config.LoadFromPath(a.configPath)
		if err != nil {
			return err
		}
		s = loaded
	}

	f := cmd.Flags()
	if f.Changed("cache-dir") {
		s.CacheDir = a.cacheDir
	}
	if f.Changed("log-level") {
		s.Log.Level = a.logLevel
	}
	if f.Changed("log-format") {
		s.Log.Format = a.logFormat
	}
	if f.Changed("offline") {
		s.Download.Offline = a.offline
	}
	if err := s.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(s.Log.Level)
	logging.Init(level, s.Log.Format, cmd.ErrOrStderr())
	a.settings = s
	return nil
}

// manager opens the download manager described by the settings.
func (a *app) manager(force bool) (*download.Manager, error) {
	d := a.settings.Download
	return download.New(download.Config{
		CacheDir:      a.settings.CacheDir,
		Timeout:       d.TimeoutDuration(),
		UserAgent:     d.UserAgent,
		Parallel:      d.Parallel,
		Offline:       d.Offline,
		Revalidate:    d.Revalidate,
		ForceDownload: force,
	})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
