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
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir   string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	Engine      string `json:"engine" yaml:"engine" toml:"engine"`
	ONNXLibrary string `json:"onnx_library" yaml:"onnx_library" toml:"onnx_library"`
	// MaxConcurrent bounds concurrently executing inference calls (0 = unbounded).
	MaxConcurrent int  `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	DisableMmap   bool `json:"disable_mmap" yaml:"disable_mmap" toml:"disable_mmap"`
	// MaxQueueDepth bounds calls waiting or running before 429 (0 = default).
	MaxQueueDepth    int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	QueueWaitSeconds int64 `json:"queue_wait_seconds" yaml:"queue_wait_seconds" toml:"queue_wait_seconds"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogFile   string `json:"log_file" yaml:"log_file" toml:"log_file"`

	MaxBodyBytes      int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	RunTimeoutSeconds int64 `json:"run_timeout_seconds" yaml:"run_timeout_seconds" toml:"run_timeout_seconds"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`

	NATSURL     string `json:"nats_url" yaml:"nats_url" toml:"nats_url"`
	NATSSubject string `json:"nats_subject" yaml:"nats_subject" toml:"nats_subject"`
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
			return cfg, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
