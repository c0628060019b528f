package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fermi/internal/builder"
	"fermi/internal/catalog"
	"fermi/internal/download"
)

const synthDoc = `[
	{"question":"Q0","program":"P","answer":"A","context":"C","template":"T","hop":2,"fact_transform":{"3":"a","1":"b"}},
	{"question":"Q1","program":"P","answer":"A","context":"C","template":"T","hop":3,"fact_transform":{}},
	{"question":"Q2","program":"P","answer":"A","context":"C","template":"T","hop":4,"fact_transform":{"0":"c"}}
]`

// run executes the CLI in-process against a fresh command tree with an
// isolated cache directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	cacheFlag := "--cache-dir=" + t.TempDir()
	root.SetArgs(append([]string{cacheFlag}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "split.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConfigs(t *testing.T) {
	out, err := run(t, "configs")
	if err != nil {
		t.Fatalf("configs: %v", err)
	}
	for _, name := range catalog.Names() {
		if !strings.Contains(out, name) {
			t.Errorf("configs output missing %q:\n%s", name, out)
		}
	}

	out, err = run(t, "configs", "--markdown")
	if err != nil {
		t.Fatalf("configs --markdown: %v", err)
	}
	if !strings.Contains(out, "| Name") {
		t.Errorf("expected markdown table:\n%s", out)
	}
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", "synthFP", "--output", "json")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var info catalog.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode info: %v\n%s", err, out)
	}
	if info.ConfigName != "synthFP" || len(info.Schema) != 6 {
		t.Errorf("info = %s with %d fields", info.ConfigName, len(info.Schema))
	}

	out, err = run(t, "info")
	if err != nil {
		t.Fatalf("info (text): %v", err)
	}
	if !strings.Contains(out, "realFP") || !strings.Contains(out, catalog.License) {
		t.Errorf("text info missing default config or license:\n%s", out)
	}

	if _, err := run(t, "info", "bogus"); !errors.Is(err, catalog.ErrUnknownConfig) {
		t.Errorf("unknown config err = %v", err)
	}
	if _, err := run(t, "info", "--output", "xml"); err == nil {
		t.Error("unknown output format should fail")
	}
}

func TestGenerate_FromFile(t *testing.T) {
	doc := writeDoc(t, synthDoc)
	out, err := run(t, "generate", "synthFP_distractor", "--split", "train", "--file", doc, "--limit", "2")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	sc := bufio.NewScanner(strings.NewReader(out))
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	rec := lines[0]["record"].(map[string]any)
	ft := rec["fact_transform"].([]any)
	if len(ft) != 2 || ft[0] != float64(3) || ft[1] != float64(1) {
		t.Errorf("fact_transform = %v, want [3 1]", ft)
	}
	if lines[1]["key"] != float64(1) {
		t.Errorf("second key = %v", lines[1]["key"])
	}
}

func TestGenerate_Errors(t *testing.T) {
	doc := writeDoc(t, synthDoc)
	if _, err := run(t, "generate", "synthFP", "--file", doc); err == nil {
		t.Error("missing --split should fail")
	}
	if _, err := run(t, "generate", "synthFP", "--split", "dev", "--file", doc); err == nil {
		t.Error("unknown split should fail")
	}
	_, err := run(t, "generate", "realFP", "--split", "test", "--file", writeDoc(t, `[{"question":"Q"}]`))
	if err == nil || !strings.Contains(err.Error(), "program") {
		t.Errorf("missing field err = %v", err)
	}
}

func TestExport_FromFile(t *testing.T) {
	doc := writeDoc(t, synthDoc)
	outDir := t.TempDir()
	out, err := run(t, "export", "synthFP", "--out", outDir, "--format", "json", "--split", "validation", "--file", doc)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "synthFP-validation.json") {
		t.Errorf("summary missing file name:\n%s", out)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "synthFP-validation.json"))
	if err != nil {
		t.Fatal(err)
	}
	var exs []map[string]any
	if err := json.Unmarshal(data, &exs); err != nil || len(exs) != 3 {
		t.Errorf("exported %d examples, err %v", len(exs), err)
	}

	if _, err := run(t, "export", "synthFP", "--out", outDir, "--file", doc); err == nil {
		t.Error("--file without --split should fail")
	}
	if _, err := run(t, "export", "synthFP", "--out", outDir, "--format", "csv"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestDownload_OfflineEmptyCache(t *testing.T) {
	_, err := run(t, "download", "realFP", "--offline")
	if !errors.Is(err, download.ErrNotCached) {
		t.Fatalf("err = %v, want ErrNotCached", err)
	}
	var re *builder.ResolutionError
	if !errors.As(err, &re) {
		t.Errorf("err = %T, want *builder.ResolutionError", err)
	}
}

func TestCache_EmptyListAndClean(t *testing.T) {
	out, err := run(t, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "No cached downloads.") {
		t.Errorf("cache list = %q", out)
	}
	out, err = run(t, "cache", "clean")
	if err != nil {
		t.Fatalf("cache clean: %v", err)
	}
	if !strings.HasPrefix(out, "Removed 0 cached download(s)") {
		t.Errorf("cache clean = %q", out)
	}
}

func TestSettingsFile(t *testing.T) {
	cacheDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "fermi.yaml")
	body := "cache_dir: " + cacheDir + "\nlog:\n  level: debug\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	cfgFlag := "--config=" + cfgPath
	root.SetArgs([]string{cfgFlag, "cache", "clean"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clean: %v", err)
	}
	if !strings.Contains(out.String(), cacheDir) {
		t.Errorf("settings cache_dir not used: %q", out.String())
	}
}

func TestInvalidGlobalFlags(t *testing.T) {
	if _, err := run(t, "--log-level=loud", "configs"); err == nil {
		t.Error("invalid log level should fail")
	}
	if _, err := run(t, "--log-format=xml", "configs"); err == nil {
		t.Error("invalid log format should fail")
	}
	missing := "--config=" + filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := run(t, missing, "configs"); err == nil {
		t.Error("missing settings file should fail")
	}
}

func TestDownload_OfflineNamesSplit(t *testing.T) {
	_, err := run(t, "download", "synthFP", "--offline")
	var re *builder.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *builder.ResolutionError", err)
	}
	if re.Split == "" || re.URL == "" {
		t.Errorf("ResolutionError lost the failing split: %+v", re)
	}
}
