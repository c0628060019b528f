// Package config loads the fermi settings file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromPath reads a settings file (YAML or JSON) and returns it with
// defaults applied. Format is detected by extension (.yaml/.yml → YAML,
// .json → JSON) or by content.
func LoadFromPath(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read settings: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses settings from bytes. ext is a format hint; empty detects
// JSON by a leading '{' and treats anything else as YAML.
func Load(data []byte, ext string) (Settings, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		ext = ".json"
	}

	var s Settings
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("config: parse settings json: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("config: parse settings yaml: %w", err)
		}
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
