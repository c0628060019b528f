package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"fermi/internal/catalog"
	"fermi/internal/generate"
)

const synthSplit = `[
	{"question":"Q0","program":"P","answer":"A","context":"C","template":"T","hop":1},
	{"question":"Q1","program":"P","answer":"A","context":"C","template":"T","hop":2},
	{"question":"Q2","program":"P","answer":"A","context":"C","template":"T","hop":3}
]`

func synthConfig(t *testing.T) catalog.Config {
	t.Helper()
	cfg, err := catalog.Lookup("synthFP")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestWriteSplit_JSONL(t *testing.T) {
	doc, cfg := synthSplit, synthConfig(t)
	w, err := NewWriter(t.TempDir(), JSONL)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	p, n, err := w.WriteSplit(cfg.Name, catalog.Train, generate.GenerateBytes([]byte(doc), cfg))
	if err != nil {
		t.Fatalf("WriteSplit: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
	if filepath.Base(p) != "synthFP-train.jsonl" {
		t.Errorf("file = %q", filepath.Base(p))
	}

	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	key := 0
	for sc.Scan() {
		var line struct {
			Key    int            `json:"key"`
			Record map[string]any `json:"record"`
		}
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			t.Fatalf("line %d: %v", key, err)
		}
		if line.Key != key {
			t.Errorf("line %d key = %d", key, line.Key)
		}
		if line.Record["hop"] != float64(key+1) {
			t.Errorf("line %d hop = %v", key, line.Record["hop"])
		}
		key++
	}
	if key != 3 {
		t.Errorf("lines = %d, want 3", key)
	}
	first := strings.SplitN(mustRead(t, p), "\n", 2)[0]
	if !strings.HasPrefix(first, `{"key":0,"record":{"question":"Q0","program":"P"`) {
		t.Errorf("first line should keep schema order: %s", first)
	}
}

func TestWriteSplit_JSONAndYAML(t *testing.T) {
	doc, cfg := synthSplit, synthConfig(t)
	dir := t.TempDir()

	jw, _ := NewWriter(dir, JSON)
	p, _, err := jw.WriteSplit(cfg.Name, catalog.Validation, generate.GenerateBytes([]byte(doc), cfg))
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var arr []map[string]any
	if err := json.Unmarshal([]byte(mustRead(t, p)), &arr); err != nil || len(arr) != 3 {
		t.Errorf("json array = %v, %v", len(arr), err)
	}

	yw, _ := NewWriter(dir, YAML)
	p, _, err = yw.WriteSplit(cfg.Name, catalog.Validation, generate.GenerateBytes([]byte(doc), cfg))
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var docs []struct {
		Key    int            `yaml:"key"`
		Record map[string]any `yaml:"record"`
	}
	if err := yaml.Unmarshal([]byte(mustRead(t, p)), &docs); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if len(docs) != 3 || docs[2].Key != 2 || docs[2].Record["template"] != "T" {
		t.Errorf("yaml docs = %+v", docs)
	}
}

func TestWriteSplit_FailureLeavesNoFile(t *testing.T) {
	cfg := synthConfig(t)
	dir := t.TempDir()
	w, _ := NewWriter(dir, JSONL)
	bad := `[{"question":"Q","program":"P","answer":"A","context":"C","template":"T"}]`
	_, _, err := w.WriteSplit(cfg.Name, catalog.Test, generate.GenerateBytes([]byte(bad), cfg))
	if !errors.Is(err, generate.ErrMissingField) {
		t.Fatalf("err = %v, want missing field", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("dir has %d entries after failure", len(entries))
	}
}

func TestEncode_EmptyJSON(t *testing.T) {
	cfg := synthConfig(t)
	var buf bytes.Buffer
	n, err := Encode(&buf, JSON, generate.GenerateBytes([]byte("[]"), cfg))
	if err != nil || n != 0 {
		t.Fatalf("Encode = %d, %v", n, err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty split = %q, want []", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"jsonl", "json", "yaml"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("csv should be rejected")
	}
	if _, err := NewWriter(t.TempDir(), "parquet"); err == nil {
		t.Error("NewWriter should reject unknown formats")
	}
}

func mustRead(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
