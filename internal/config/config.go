// Package config holds the hlslpp tool configuration, loaded from a
// YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/hlslpp"
	"github.com/gogpu/hlslpp/pp"
	"github.com/gogpu/hlslpp/profile"
)

// Config holds all hlslpp configuration.
type Config struct {
	// Target profile
	ShaderModel string `yaml:"shader_model"` // "5_0" .. "6_7"
	Stage       string `yaml:"stage"`        // vertex, pixel, compute, ...

	// Preprocessing
	IncludeDirs  []string          `yaml:"include_dirs"`
	Defines      map[string]string `yaml:"defines"`
	Opaque       string            `yaml:"opaque"` // pass, omit, force
	KeepComments bool              `yaml:"keep_comments"`
	LineMarkers  bool              `yaml:"line_markers"`
	MaxDepth     int               `yaml:"max_depth"`

	// Output
	OutputDir string `yaml:"output_dir"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce batches rapid saves, as a duration string.
	Debounce string `yaml:"debounce"`

	// Extensions are the file suffixes that trigger a rerun.
	Extensions []string `yaml:"extensions"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ShaderModel: "5_1",
		Stage:       "vertex",
		Opaque:      "pass",
		MaxDepth:    64,

		Watch: WatchConfig{
			Debounce:   "500ms",
			Extensions: []string{".hlsl", ".hlsli", ".h", ".fx", ".fxh"},
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HLSLPP_SHADER_MODEL"); v != "" {
		c.ShaderModel = v
	}
	if v := os.Getenv("HLSLPP_STAGE"); v != "" {
		c.Stage = v
	}
	if v := os.Getenv("HLSLPP_OPAQUE"); v != "" {
		c.Opaque = v
	}
	if v := os.Getenv("HLSLPP_INCLUDE_PATH"); v != "" {
		c.IncludeDirs = append(c.IncludeDirs, filepath.SplitList(v)...)
	}
	if v := os.Getenv("HLSLPP_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("HLSLPP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// WatchesExtension reports whether a path's suffix is in the watch list.
func (c *Config) WatchesExtension(path string) bool {
	for _, ext := range c.Watch.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Options translates the configuration into preprocessor options.
func (c *Config) Options() (hlslpp.Options, error) {
	opts := hlslpp.DefaultOptions()

	sm, err := profile.ParseShaderModel(c.ShaderModel)
	if err != nil {
		return opts, err
	}
	stage, err := profile.ParseStage(c.Stage)
	if err != nil {
		return opts, err
	}
	opts.Target = profile.Target{Stage: stage, Model: sm}

	switch c.Opaque {
	case "", "pass":
		opts.Opaque = pp.OpaquePassThrough
	case "omit":
		opts.Opaque = pp.OpaqueOmit
	case "force":
		opts.Opaque = pp.OpaqueForce
	default:
		return opts, fmt.Errorf("unknown opaque mode %q (want pass, omit or force)", c.Opaque)
	}

	opts.IncludeDirs = append(opts.IncludeDirs, c.IncludeDirs...)
	if len(c.Defines) > 0 {
		opts.Defines = make(map[string]string, len(c.Defines))
		for name, value := range c.Defines {
			opts.Defines[name] = value
		}
	}
	opts.KeepComments = c.KeepComments
	opts.LineMarkers = c.LineMarkers
	opts.MaxDepth = c.MaxDepth

	return opts, nil
}
