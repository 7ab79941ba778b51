package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults for unspecified fields.
const (
	DefaultAddr            = ":8080"
	DefaultKind            = "price"
	DefaultStage           = "Production"
	DefaultLocalPath       = "model/model.json"
	DefaultRegistryTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultTraceExporter   = "none"
)

// DefaultModelName returns the registered model name used for a variant.
func DefaultModelName(kind string) string {
	if kind == "risk" {
		return "HeartDisease"
	}
	return "UsedCarPricePredictor"
}

// FieldError reports one invalid configuration value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("config %s: %s", e.Field, e.Reason) }

// IsFieldError reports whether err is a configuration value error.
func IsFieldError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
}

// Defaults fills zero values.
func (c *Config) Defaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Kind == "" {
		c.Kind = DefaultKind
	}
	if c.ModelName == "" {
		c.ModelName = DefaultModelName(c.Kind)
	}
	if c.Stage == "" {
		c.Stage = DefaultStage
	}
	if c.LocalPath == "" {
		c.LocalPath = DefaultLocalPath
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.TraceExporter == "" {
		c.TraceExporter = DefaultTraceExporter
	}
}

// Validate checks every field and reports the first offending one.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &FieldError{Field: snake(fe.Field()), Reason: fmt.Sprintf("failed %q check (got %v)", fe.Tag(), fe.Value())}
	}
	return err
}

// Timeout returns the registry request timeout.
func (c *Config) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.RegistryTimeout); err == nil && d > 0 {
		return d
	}
	return DefaultRegistryTimeout
}

// TTL returns the result cache TTL, or zero for the cache default.
func (c *Config) TTL() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// snake maps a Go field name to its config key.
func snake(name string) string {
	switch name {
	case "TrackingURI":
		return "tracking_uri"
	case "CORSOrigins":
		return "cors_origins"
	case "CacheTTL":
		return "cache_ttl"
	case "OTLPEndpoint":
		return "otlp_endpoint"
	}
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
