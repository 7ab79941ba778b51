package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables. The MLFLOW_* names are shared with the training
// pipeline.
const (
	EnvTrackingURI     = "MLFLOW_TRACKING_URI"
	EnvModelName       = "MLFLOW_MODEL_NAME"
	EnvStage           = "MLFLOW_STAGE"
	EnvAddr            = "PREDICTD_ADDR"
	EnvKind            = "PREDICTD_KIND"
	EnvLocalPath       = "PREDICTD_LOCAL_PATH"
	EnvArtifactPath    = "PREDICTD_ARTIFACT_PATH"
	EnvRegistryTimeout = "PREDICTD_REGISTRY_TIMEOUT"
	EnvWatch           = "PREDICTD_WATCH"
	EnvLogLevel        = "PREDICTD_LOG_LEVEL"
	EnvLogFormat       = "PREDICTD_LOG_FORMAT"
	EnvMaxBodyBytes    = "PREDICTD_MAX_BODY_BYTES"
	EnvCORSOrigins     = "PREDICTD_CORS_ORIGINS"
	EnvSwagger         = "PREDICTD_SWAGGER"
	EnvRedisAddr       = "PREDICTD_REDIS_ADDR"
	EnvCacheTTL        = "PREDICTD_CACHE_TTL"
	EnvTraceExporter   = "OTEL_TRACES_EXPORTER"
	EnvOTLPEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"
)

// LoadDotenv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotenv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays set environment variables onto cfg. lookup is usually
// os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvTrackingURI, &cfg.TrackingURI)
	str(EnvModelName, &cfg.ModelName)
	str(EnvStage, &cfg.Stage)
	str(EnvAddr, &cfg.Addr)
	str(EnvKind, &cfg.Kind)
	str(EnvLocalPath, &cfg.LocalPath)
	str(EnvArtifactPath, &cfg.ArtifactPath)
	str(EnvRegistryTimeout, &cfg.RegistryTimeout)
	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvLogFormat, &cfg.LogFormat)
	str(EnvRedisAddr, &cfg.RedisAddr)
	str(EnvCacheTTL, &cfg.CacheTTL)
	str(EnvTraceExporter, &cfg.TraceExporter)
	str(EnvOTLPEndpoint, &cfg.OTLPEndpoint)

	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		cfg.CORSOrigins = SplitCSV(v)
	}
	for key, dst := range map[string]*bool{EnvWatch: &cfg.Watch, EnvSwagger: &cfg.Swagger, EnvOTLPInsecure: &cfg.OTLPInsecure} {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return &FieldError{Field: key, Reason: "not a boolean: " + v}
			}
			*dst = b
		}
	}
	if v, ok := lookup(EnvMaxBodyBytes); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &FieldError{Field: EnvMaxBodyBytes, Reason: "not an integer: " + v}
		}
		cfg.MaxBodyBytes = n
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
