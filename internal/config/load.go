package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads settings from path, applies environment overrides and
// defaults, and validates the result. An empty path yields the defaults
// with environment overrides.
func Load(path string) (*Settings, error) {
	var data []byte
	if path != "" {
		var err error
		// #nosec G304
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses settings from YAML, then applies environment
// overrides, defaults and validation.
func LoadFromBytes(data []byte) (*Settings, error) {
	s, err := parse(data)
	if err != nil {
		return nil, err
	}

	applyEnv(s)
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return s, nil
}

// parse decodes YAML strictly: unknown keys are rejected.
func parse(data []byte) (*Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &s, nil
}
