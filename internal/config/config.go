package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "PREDICTOR_"

type Config struct {
	Model ModelConfig `yaml:"model"`
	Log   LogConfig   `yaml:"log"`
}

type ModelConfig struct {
	Backend      string `yaml:"backend"`       // native | onnx
	Path         string `yaml:"path"`          // e.g. "models/model.json"
	MetadataPath string `yaml:"metadata_path"` // onnx only
}

type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // json | console
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads configuration from a YAML file and applies PREDICTOR_*
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Backend:      "native",
			Path:         filepath.Join("models", "model.json"),
			MetadataPath: filepath.Join("models", "model_metadata.json"),
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"MODEL_BACKEND":       &cfg.Model.Backend,
		"MODEL_PATH":          &cfg.Model.Path,
		"MODEL_METADATA_PATH": &cfg.Model.MetadataPath,
		"LOG_LEVEL":           &cfg.Log.Level,
		"LOG_FORMAT":          &cfg.Log.Format,
		"LOG_FILE":            &cfg.Log.File,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*field = strings.TrimSpace(v)
		}
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()

	if cfg.Model.Backend == "" {
		cfg.Model.Backend = def.Model.Backend
	}
	if cfg.Model.MetadataPath == "" {
		cfg.Model.MetadataPath = def.Model.MetadataPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups < 0 {
		cfg.Log.MaxBackups = def.Log.MaxBackups
	}
	if cfg.Log.MaxAgeDays < 0 {
		cfg.Log.MaxAgeDays = def.Log.MaxAgeDays
	}
}

func (c *Config) Validate() error {
	switch c.Model.Backend {
	case "native", "onnx":
	default:
		return fmt.Errorf("unsupported model backend %q", c.Model.Backend)
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model path is empty")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	return nil
}

// ResolvePaths makes relative model and log paths relative to root.
func (c *Config) ResolvePaths(root string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	c.Model.Path = resolve(c.Model.Path)
	c.Model.MetadataPath = resolve(c.Model.MetadataPath)
	c.Log.File = resolve(c.Log.File)
}
