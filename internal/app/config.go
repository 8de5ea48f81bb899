package app

import "errors"

// Config holds all the configuration an App instance needs to run.
type Config struct {
	// ConfigPath is a .hcl file or a directory of .hcl files.
	ConfigPath string

	// OutDir receives generated containers; empty means analyze only.
	OutDir string
	// Package is the package name of generated files.
	Package string

	LogFormat string
	LogLevel  string
	NoColor   bool
}

// NewConfig validates and normalizes a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.Package == "" {
		cfg.Package = "wiring"
	}
	return &cfg, nil
}
