package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	mjerrors "github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/internal/marshal"
	"github.com/wippyai/mujoco-runtime/metrics"
	"github.com/wippyai/mujoco-runtime/native"
	"github.com/wippyai/mujoco-runtime/sim"
)

// Config is the complete runtime configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig mirrors the tunable parts of sim.Config.
type EngineConfig struct {
	ErrorBufferSize      int    `yaml:"error_buffer_size"`
	SkipBinaryValidation bool   `yaml:"skip_binary_validation"`
	LibraryPath          string `yaml:"library_path"` // shared library to probe; empty means the platform default
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Encoding    string `yaml:"encoding"` // json or console; empty keeps the zap preset
}

// MetricsConfig enables prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			ErrorBufferSize: marshal.DefaultErrorBufferSize,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Namespace: "mujoco",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, mjerrors.Wrap(mjerrors.PhaseConfig, mjerrors.KindInvalidData, err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, mjerrors.Wrap(mjerrors.PhaseConfig, mjerrors.KindInvalidInput, err, "config validation failed")
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, mjerrors.NotFound(mjerrors.PhaseConfig, "config file", path)
	}
	if err != nil {
		return nil, mjerrors.Wrap(mjerrors.PhaseConfig, mjerrors.KindInvalidInput, err, "failed to read config file "+path)
	}
	return Parse(data)
}

// Validate checks value ranges. It does not touch the filesystem.
func (c *Config) Validate() error {
	if c.Engine.ErrorBufferSize < 0 {
		return fmt.Errorf("engine.error_buffer_size must be non-negative, got %d", c.Engine.ErrorBufferSize)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding)
	}
	if c.Metrics.Enabled {
		if c.Metrics.Namespace == "" {
			return errors.New("metrics.namespace is required when metrics are enabled")
		}
		if !namespacePattern.MatchString(c.Metrics.Namespace) {
			return fmt.Errorf("metrics.namespace %q is not a valid prometheus name", c.Metrics.Namespace)
		}
	}
	return nil
}

// NewLogger builds the zap logger described by the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	if c.Log.Encoding != "" {
		zc.Encoding = c.Log.Encoding
	}
	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// NewMetrics creates and registers the runtime collectors. It returns nil
// when metrics are disabled.
func (c *Config) NewMetrics(reg prometheus.Registerer) (*metrics.Metrics, error) {
	if !c.Metrics.Enabled {
		return nil, nil
	}
	m := metrics.New(c.Metrics.Namespace)
	if err := m.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return m, nil
}

// SimConfig converts the engine section into a sim.Config. lib may be nil
// to let the engine open the native binding itself.
func (c *Config) SimConfig(lib native.Library, log *zap.Logger, m *metrics.Metrics) *sim.Config {
	return &sim.Config{
		Library:              lib,
		ErrorBufferSize:      c.Engine.ErrorBufferSize,
		SkipBinaryValidation: c.Engine.SkipBinaryValidation,
		Logger:               log,
		Metrics:              m,
	}
}

// ProbeLibrary reports the version of the configured shared library
// without binding it.
func (c *Config) ProbeLibrary() (string, error) {
	path := c.Engine.LibraryPath
	if path == "" {
		path = native.DefaultLibraryName()
	}
	return native.Probe(path)
}
