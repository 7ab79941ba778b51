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
// Zero values mean "unspecified" and are replaced by Defaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr" validate:"required"`
	// Kind selects the served variant: price or risk.
	Kind      string `json:"kind" yaml:"kind" toml:"kind" validate:"required,oneof=price risk"`
	ModelName string `json:"model_name" yaml:"model_name" toml:"model_name" validate:"required"`
	Stage     string `json:"stage" yaml:"stage" toml:"stage" validate:"required"`

	// Registry; an empty tracking URI disables the registry backend.
	TrackingURI     string `json:"tracking_uri" yaml:"tracking_uri" toml:"tracking_uri" validate:"omitempty,url"`
	ArtifactPath    string `json:"artifact_path" yaml:"artifact_path" toml:"artifact_path"`
	RegistryTimeout string `json:"registry_timeout" yaml:"registry_timeout" toml:"registry_timeout" validate:"omitempty,duration"`

	// Local fallback artifact.
	LocalPath string `json:"local_path" yaml:"local_path" toml:"local_path"`
	Watch     bool   `json:"watch" yaml:"watch" toml:"watch"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" validate:"omitempty,oneof=console json"`

	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" validate:"gte=0"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Swagger      bool     `json:"swagger" yaml:"swagger" toml:"swagger"`

	// Optional shared result cache.
	RedisAddr string `json:"redis_addr" yaml:"redis_addr" toml:"redis_addr" validate:"omitempty,hostname_port"`
	CacheTTL  string `json:"cache_ttl" yaml:"cache_ttl" toml:"cache_ttl" validate:"omitempty,duration"`

	// Tracing; the none exporter leaves spans unrecorded.
	TraceExporter string `json:"trace_exporter" yaml:"trace_exporter" toml:"trace_exporter" validate:"omitempty,oneof=none stdout otlp"`
	OTLPEndpoint  string `json:"otlp_endpoint" yaml:"otlp_endpoint" toml:"otlp_endpoint" validate:"omitempty,hostname_port"`
	OTLPInsecure  bool   `json:"otlp_insecure" yaml:"otlp_insecure" toml:"otlp_insecure"`
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
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
