// Package catalog declares the selectable configurations of the Fermi
// Problems dataset: their source URLs, versions and feature schemas.
//
// All data here is static. Nothing in this package performs I/O.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Split names one partition of the dataset.
type Split string

const (
	Train      Split = "train"
	Validation Split = "validation"
	Test       Split = "test"
)

// Splits lists every split in the order the generators are produced.
func Splits() []Split { return []Split{Train, Test, Validation} }

// ParseSplit validates a split name.
func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case Train, Validation, Test:
		return Split(s), nil
	}
	return "", fmt.Errorf("catalog: unknown split %q (want train, validation or test)", s)
}

// BuilderVersion is the version of the loader itself.
const BuilderVersion = "1.1.0"

// Config is one named dataset variant.
type Config struct {
	Name        string           `json:"name" yaml:"name"`
	Version     string           `json:"version" yaml:"version"`
	Description string           `json:"description" yaml:"description"`
	URLs        map[Split]string `json:"urls" yaml:"urls"`
	Schema      Schema           `json:"schema" yaml:"schema"`

	templated  bool
	distractor bool
}

// NeedsTemplate reports whether records carry the template and hop fields.
func (c Config) NeedsTemplate() bool { return c.templated }

// NeedsFactTransform reports whether records carry fact_transform.
func (c Config) NeedsFactTransform() bool { return c.distractor }

// HasFeature reports whether the schema declares the named field.
func (c Config) HasFeature(name string) bool {
	_, ok := c.Schema.Lookup(name)
	return ok
}

func (c Config) clone() Config {
	out := c
	out.URLs = maps.Clone(c.URLs)
	out.Schema = append(Schema(nil), c.Schema...)
	return out
}

const rawBase = "https://raw.githubusercontent.com/allenai/fermi/main/data/"

func newConfig(name, description, dir, file string, templated, distractor bool) Config {
	prefix := rawBase + dir + "/"
	if distractor {
		prefix += "distractor_setting/"
		file = "distractor_" + file
	}
	return Config{
		Name:        name,
		Version:     "1.0.0",
		Description: description,
		URLs: map[Split]string{
			Train:      prefix + "train_" + file,
			Validation: prefix + "val_" + file,
			Test:       prefix + "test_" + file,
		},
		Schema:     buildSchema(templated, distractor),
		templated:  templated,
		distractor: distractor,
	}
}

const (
	realDescription   = "A collection of 928 fermi problems and their solutions expressed in the form a program."
	synthDescription  = "An auxilliary set of 10000 templated fermi questions, created by the authors."
	distractorSuffix  = " This set contains distractor contexts."
	defaultConfigName = "realFP"
)

var configs = []Config{
	newConfig("realFP", realDescription, "realFP", "realfp.json", false, false),
	newConfig("realFP_distractor", realDescription+distractorSuffix, "realFP", "realfp.json", false, true),
	newConfig("synthFP", synthDescription, "synthFP", "synthfp.json", true, false),
	newConfig("synthFP_distractor", synthDescription+distractorSuffix, "synthFP", "synthfp.json", true, true),
}

// Configs returns the four Fermi configurations in display order.
func Configs() []Config {
	out := make([]Config, len(configs))
	for i, c := range configs {
		out[i] = c.clone()
	}
	return out
}

// DefaultConfigName is the configuration selected when none is named.
func DefaultConfigName() string { return defaultConfigName }

// ErrUnknownConfig is returned by Lookup for names not in the catalog.
var ErrUnknownConfig = errors.New("unknown config")

// Lookup returns the configuration with the given name. An empty name
// selects the default configuration.
func Lookup(name string) (Config, error) {
	if name == "" {
		name = defaultConfigName
	}
	for _, c := range configs {
		if c.Name == name {
			return c.clone(), nil
		}
	}
	return Config{}, fmt.Errorf("catalog: %w %q (available: %s)", ErrUnknownConfig, name, strings.Join(Names(), ", "))
}

// Names returns the configuration names in display order.
func Names() []string {
	out := make([]string, len(configs))
	for i, c := range configs {
		out[i] = c.Name
	}
	return out
}
