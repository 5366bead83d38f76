package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// KeyFile is the encryption (permutation) key json handed to the
	// descriptor tool.
	KeyFile string `json:"key_file" yaml:"key_file" toml:"key_file"`
	// ParametersFile is the preparation parameters json for the tool.
	ParametersFile string `json:"parameters_file" yaml:"parameters_file" toml:"parameters_file"`
	// ToolBinary is the descriptor tool executable.
	ToolBinary string `json:"tool_binary" yaml:"tool_binary" toml:"tool_binary"`
	// ToolWorkDir holds per-run output dirs for the tool.
	ToolWorkDir string `json:"tool_work_dir" yaml:"tool_work_dir" toml:"tool_work_dir"`
	// ToolNumCPU is passed to the tool; defaults to 1.
	ToolNumCPU int `json:"tool_number_cpu" yaml:"tool_number_cpu" toml:"tool_number_cpu"`

	// LogLevel is the zerolog global level name (debug, info, warn, error).
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	Device       string `json:"device" yaml:"device" toml:"device"`
	DefaultModel string `json:"default_model" yaml:"default_model" toml:"default_model"`
	BatchSize    int    `json:"batch_size" yaml:"batch_size" toml:"batch_size"`

	// WatchModels enables live re-scan of the models dir.
	WatchModels bool `json:"watch_models" yaml:"watch_models" toml:"watch_models"`

	MaxBodyBytes          int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	PredictTimeoutSeconds int64 `json:"predict_timeout_seconds" yaml:"predict_timeout_seconds" toml:"predict_timeout_seconds"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
