package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, expands and validates the configuration at path. When
// registry is nil a default registry (env provider only) is used.
// Unknown YAML fields are rejected.
func Load(ctx context.Context, path string, registry *Registry) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(ctx, raw, registry)
}

// Parse is Load over an in-memory document.
func Parse(ctx context.Context, raw []byte, registry *Registry) (*Config, error) {
	if registry == nil {
		registry = NewRegistry()
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg.applyDefaults()

	for _, field := range []*string{
		&cfg.Manifest.URL,
		&cfg.Manifest.Root,
		&cfg.Manifest.SignatureKey,
		&cfg.Store.Path,
		&cfg.Server.Listen,
		&cfg.Server.Upstream,
	} {
		resolved, err := registry.ResolveValue(ctx, *field)
		if err != nil {
			return nil, err
		}
		*field = resolved
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
