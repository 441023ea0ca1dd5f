package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals. An empty reader yields the all-defaults config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	t := cfg.Tracking
	if t.LookaheadWords < 1 {
		errs = append(errs, fmt.Errorf("tracking.lookahead_words %d must be at least 1", t.LookaheadWords))
	}
	if t.ConfidenceThreshold < 0 || t.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("tracking.confidence_threshold %.2f is out of range [0, 1]", t.ConfidenceThreshold))
	}
	if t.MaxTranscriptLength < 2 {
		errs = append(errs, fmt.Errorf("tracking.max_transcript_length %d must be at least 2", t.MaxTranscriptLength))
	}
	if t.MatchExpiry <= 0 {
		errs = append(errs, fmt.Errorf("tracking.match_expiry %s must be positive", t.MatchExpiry))
	}
	if t.NormalizedPrefixLength < 1 {
		errs = append(errs, fmt.Errorf("tracking.normalized_prefix_length %d must be at least 1", t.NormalizedPrefixLength))
	}
	if t.SimilarityThreshold < 0 || t.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("tracking.similarity_threshold %.2f is out of range [0, 1]", t.SimilarityThreshold))
	}
	if t.PhoneticThreshold < 0 || t.PhoneticThreshold > 1 {
		errs = append(errs, fmt.Errorf("tracking.phonetic_threshold %.2f is out of range [0, 1]", t.PhoneticThreshold))
	}

	return errors.Join(errs...)
}
