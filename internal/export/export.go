// Package export materialises generated examples as files on disk.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fermi/internal/catalog"
	"fermi/internal/generate"
)

// Format selects the on-disk encoding.
type Format string

const (
	JSONL Format = "jsonl"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case JSONL, JSON, YAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("export: unknown format %q (want jsonl, json or yaml)", s)
}

// FileName is "<config>-<split>.<format>".
func FileName(config string, split catalog.Split, f Format) string {
	return fmt.Sprintf("%s-%s.%s", config, split, f)
}

// Writer writes splits into Dir.
type Writer struct {
	Dir    string
	Format Format
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string, f Format) (*Writer, error) {
	if _, err := ParseFormat(string(f)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create dir: %w", err)
	}
	return &Writer{Dir: dir, Format: f}, nil
}

// WriteSplit drains seq into <Dir>/<config>-<split>.<format> and returns
// the path and example count. Output is written to a temp file and renamed
// into place, so a generation failure leaves no partial file behind.
func (w *Writer) WriteSplit(config string, split catalog.Split, seq iter.Seq2[generate.Example, error]) (string, int, error) {
	dst := filepath.Join(w.Dir, FileName(config, split, w.Format))
	tmp, err := os.CreateTemp(w.Dir, ".export-*")
	if err != nil {
		return "", 0, fmt.Errorf("export: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := Encode(tmp, w.Format, seq)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("export: close %q: %w", dst, cerr)
	}
	if err != nil {
		return "", n, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", n, fmt.Errorf("export: write %q: %w", dst, err)
	}
	return dst, n, nil
}

// Encode writes seq to out in format f and returns the number of examples.
func Encode(out io.Writer, f Format, seq iter.Seq2[generate.Example, error]) (int, error) {
	switch f {
	case JSONL:
		return encodeJSONL(out, seq)
	case JSON, YAML:
		exs, err := generate.Collect(seq)
		if err != nil {
			return len(exs), err
		}
		if exs == nil {
			exs = []generate.Example{}
		}
		if f == YAML {
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(exs); err != nil {
				return len(exs), fmt.Errorf("export: encode yaml: %w", err)
			}
			return len(exs), enc.Close()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(exs); err != nil {
			return len(exs), fmt.Errorf("export: encode json: %w", err)
		}
		return len(exs), nil
	}
	return 0, fmt.Errorf("export: unknown format %q", f)
}

func encodeJSONL(out io.Writer, seq iter.Seq2[generate.Example, error]) (int, error) {
	bw := bufio.NewWriter(out)
	enc := json.NewEncoder(bw)
	n := 0
	for ex, err := range seq {
		if err != nil {
			return n, err
		}
		if err := enc.Encode(ex); err != nil {
			return n, fmt.Errorf("export: encode example %d: %w", ex.Key, err)
		}
		n++
	}
	return n, bw.Flush()
}
