// Package generate projects the JSON array of a Fermi split file into
// ordered (key, record) examples shaped by a configuration's schema.
package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"strconv"
	"unicode/utf8"

	"fermi/internal/catalog"
	"fermi/internal/logging"
)

// Generate returns a lazy, single-pass sequence of the examples in the
// split file at path. The file is read and parsed in full on the first
// pull and closed before the first example is yielded. On failure the
// sequence yields one zero Example with the error and stops; examples
// yielded before the failure stand.
//
// Calling Generate again re-reads the file and restarts at key 0.
func Generate(path string, cfg catalog.Config) iter.Seq2[Example, error] {
	return func(yield func(Example, error) bool) {
		data, err := readFile(path)
		if err != nil {
			yield(Example{}, err)
			return
		}
		project(path, data, cfg, yield)
	}
}

// GenerateBytes projects an in-memory split document.
func GenerateBytes(data []byte, cfg catalog.Config) iter.Seq2[Example, error] {
	return func(yield func(Example, error) bool) {
		project("", data, cfg, yield)
	}
}

// Collect drains seq, returning the examples produced before the first error.
func Collect(seq iter.Seq2[Example, error]) ([]Example, error) {
	var out []Example
	for ex, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, ex)
	}
	return out, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("generate: open %q: %w", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("generate: read %q: %w", path, err)
	}
	return data, nil
}

var errNotArray = errors.New("top-level value is not an array")

func project(path string, data []byte, cfg catalog.Config, yield func(Example, error) bool) {
	logger := logging.New("generate")

	if !utf8.Valid(data) {
		yield(Example{}, malformed(path, -1, "", errors.New("invalid UTF-8")))
		return
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		if !json.Valid(data) {
			yield(Example{}, malformed(path, -1, "", errors.New("invalid JSON")))
			return
		}
		yield(Example{}, malformed(path, -1, "", errNotArray))
		return
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		yield(Example{}, malformed(path, -1, "", err))
		return
	}

	logger.Debug("generating examples", "config", cfg.Name, "path", path, "rows", len(rows))
	for i, raw := range rows {
		rec, err := projectRow(path, i, raw, cfg.Schema)
		if err != nil {
			logger.Debug("generation aborted", "config", cfg.Name, "path", path, "index", i, "error", err)
			yield(Example{}, err)
			return
		}
		if !yield(Example{Key: i, Record: rec}, nil) {
			return
		}
	}
	logger.Debug("generation complete", "config", cfg.Name, "path", path, "examples", len(rows))
}

// projectRow checks presence of every schema field before converting any,
// so a missing field is reported ahead of a type mismatch.
func projectRow(path string, index int, raw json.RawMessage, schema catalog.Schema) (Record, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return Record{}, malformed(path, index, "", errors.New("element is not an object"))
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Record{}, malformed(path, index, "", err)
	}
	for _, f := range schema {
		if _, ok := obj[f.Name]; !ok {
			return Record{}, &MissingFieldError{Path: path, Index: index, Field: f.Name}
		}
	}

	rec := Record{fields: make([]Field, 0, len(schema))}
	for _, f := range schema {
		v, err := convert(obj[f.Name], f.Type)
		if err != nil {
			return Record{}, malformed(path, index, f.Name, err)
		}
		rec.add(f.Name, v)
	}
	return rec, nil
}

func convert(raw json.RawMessage, typ catalog.FeatureType) (any, error) {
	switch typ {
	case catalog.String:
		return toString(raw)
	case catalog.Int32:
		return toInt32(raw)
	case catalog.Int32Sequence:
		return objectKeys(raw)
	}
	return nil, fmt.Errorf("unsupported feature type %q", typ)
}

func toString(raw json.RawMessage) (string, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return "", fmt.Errorf("want string, got %s", kind(raw))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func toInt32(raw json.RawMessage) (int32, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("want integer, got %s", kind(raw))
	}
	return parseInt32(n.String())
}

// parseInt32 accepts integral JSON numbers, including forms like 2.0 or 1e1.
func parseInt32(s string) (int32, error) {
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("value %s is not an int32", s)
	}
	return int32(f), nil
}

// objectKeys returns the keys of a JSON object in document order, each
// parsed as an int32. The values are discarded. A repeated key keeps the
// position of its first occurrence.
func objectKeys(raw json.RawMessage) ([]int32, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("want object, got %s", kind(raw))
	}
	keys := make([]int32, 0)
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		k, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("key %q is not an int32", key)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, int32(k))
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func kind(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return "nothing"
	}
	switch t[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}
