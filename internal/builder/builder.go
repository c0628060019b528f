// Package builder implements the dataset-host contract for Fermi: it
// exposes configuration metadata, resolves split URLs to local files
// through a Resolver, and generates examples from those files.
package builder

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"fermi/internal/catalog"
	"fermi/internal/generate"
	"fermi/internal/logging"
)

// Resolver materialises split URLs as local file paths. Retry, caching
// and extraction policy belong to the implementation.
type Resolver interface {
	DownloadAndExtract(ctx context.Context, urls map[catalog.Split]string) (map[catalog.Split]string, error)
}

// ResolutionError reports a Resolver failure. Split and URL are empty when
// the failure is not tied to one split.
type ResolutionError struct {
	Split catalog.Split
	URL   string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Split == "" {
		return fmt.Sprintf("builder: resolve splits: %v", e.Err)
	}
	return fmt.Sprintf("builder: resolve %s split (%s): %v", e.Split, e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// URLError is implemented by resolver errors that name the URL that failed.
type URLError interface {
	error
	FailedURL() string
}

// resolutionError attributes err to the first split (in generation order)
// whose URL the error names.
func (b *Builder) resolutionError(err error) *ResolutionError {
	var ue URLError
	if errors.As(err, &ue) {
		for _, split := range catalog.Splits() {
			if u, ok := b.Config.URLs[split]; ok && u == ue.FailedURL() {
				return &ResolutionError{Split: split, URL: u, Err: err}
			}
		}
	}
	return &ResolutionError{Err: err}
}

// SplitGenerator is one generation task: a split and its local file.
type SplitGenerator struct {
	Split catalog.Split `json:"split"`
	Path  string        `json:"path"`
}

// Builder binds the host contract to one configuration.
type Builder struct {
	Config catalog.Config
}

// New returns a Builder for the named configuration ("" selects the default).
func New(configName string) (*Builder, error) {
	cfg, err := catalog.Lookup(configName)
	if err != nil {
		return nil, err
	}
	return &Builder{Config: cfg}, nil
}

// Info returns the configuration's metadata.
func (b *Builder) Info() catalog.Info {
	return catalog.Describe(b.Config)
}

// SplitGenerators resolves the configuration's URLs and returns one
// generator per split, ordered train, test, validation.
func (b *Builder) SplitGenerators(ctx context.Context, r Resolver) ([]SplitGenerator, error) {
	logger := logging.New("builder")
	paths, err := r.DownloadAndExtract(ctx, b.Config.URLs)
	if err != nil {
		return nil, b.resolutionError(err)
	}
	gens := make([]SplitGenerator, 0, len(paths))
	for _, split := range catalog.Splits() {
		u, ok := b.Config.URLs[split]
		if !ok {
			continue
		}
		p, ok := paths[split]
		if !ok || p == "" {
			return nil, &ResolutionError{Split: split, URL: u, Err: fmt.Errorf("no local path returned")}
		}
		logger.Debug("split resolved", "config", b.Config.Name, "split", split, "path", p)
		gens = append(gens, SplitGenerator{Split: split, Path: p})
	}
	return gens, nil
}

// GenerateExamples streams the examples of one resolved split.
func (b *Builder) GenerateExamples(gen SplitGenerator) iter.Seq2[generate.Example, error] {
	return generate.Generate(gen.Path, b.Config)
}

// SplitGenerator resolves only the requested split.
func (b *Builder) SplitGenerator(ctx context.Context, r Resolver, split catalog.Split) (SplitGenerator, error) {
	u, ok := b.Config.URLs[split]
	if !ok {
		return SplitGenerator{}, fmt.Errorf("builder: config %s has no %s split", b.Config.Name, split)
	}
	paths, err := r.DownloadAndExtract(ctx, map[catalog.Split]string{split: u})
	if err != nil {
		return SplitGenerator{}, &ResolutionError{Split: split, URL: u, Err: err}
	}
	p, ok := paths[split]
	if !ok || p == "" {
		return SplitGenerator{}, &ResolutionError{Split: split, URL: u, Err: fmt.Errorf("no local path returned")}
	}
	return SplitGenerator{Split: split, Path: p}, nil
}

// Examples resolves only the requested split and streams its examples.
func (b *Builder) Examples(ctx context.Context, r Resolver, split catalog.Split) (iter.Seq2[generate.Example, error], error) {
	gen, err := b.SplitGenerator(ctx, r, split)
	if err != nil {
		return nil, err
	}
	return b.GenerateExamples(gen), nil
}
