package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"predictd/internal/cache"
	"predictd/internal/config"
	"predictd/internal/events"
	"predictd/internal/features"
	"predictd/internal/inference"
	"predictd/internal/logging"
	"predictd/internal/resolver"
	"predictd/internal/telemetry"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	envFile    string
	cfg        config.Config
	log        zerolog.Logger
	events     *events.Memory
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "predictd",
		Short:         "Serve the used-car price and heart-disease risk models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config file (.yaml|.yml|.json|.toml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	pf.String("kind", "", "Model variant: price|risk")
	pf.String("model-name", "", "Registered model name (env MLFLOW_MODEL_NAME)")
	pf.String("stage", "", "Registry stage (env MLFLOW_STAGE)")
	pf.String("tracking-uri", "", "MLflow tracking URI; empty disables the registry (env MLFLOW_TRACKING_URI)")
	pf.String("local-path", "", "Local fallback artifact path")
	pf.String("log-level", "", "Log level: trace|debug|info|warn|error")
	pf.String("log-format", "", "Log format: console|json")
	pf.String("trace-exporter", "", "Trace exporter: none|stdout|otlp (env OTEL_TRACES_EXPORTER)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.load(cmd.Flags())
	}
	root.AddCommand(newServeCmd(a), newFormCmd(a), newCheckCmd(a), newSchemaCmd(a))
	return root
}

// load resolves configuration: file, then dotenv and environment, then flags.
func (a *app) load(flags *pflag.FlagSet) error {
	var cfg config.Config
	if a.configPath != "" {
		c, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	if err := config.LoadDotenv(a.envFile); err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return err
	}
	for flag, dst := range map[string]*string{
		"kind":           &cfg.Kind,
		"model-name":     &cfg.ModelName,
		"stage":          &cfg.Stage,
		"tracking-uri":   &cfg.TrackingURI,
		"local-path":     &cfg.LocalPath,
		"log-level":      &cfg.LogLevel,
		"log-format":     &cfg.LogFormat,
		"trace-exporter": &cfg.TraceExporter,
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	for flag, dst := range map[string]*bool{"watch": &cfg.Watch, "swagger": &cfg.Swagger} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			*dst = f.Value.String() == "true"
		}
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.Addr = f.Value.String()
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	a.events = events.NewMemory(100)
	return nil
}

// initTracing installs the configured tracer provider. The returned func
// flushes pending spans.
func (a *app) initTracing(ctx context.Context) (func(), error) {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  "predictd",
		Exporter:     a.cfg.TraceExporter,
		OTLPEndpoint: a.cfg.OTLPEndpoint,
		OTLPInsecure: a.cfg.OTLPInsecure,
		Writer:       os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	if a.cfg.TraceExporter != telemetry.ExporterNone {
		a.log.Info().Str("exporter", a.cfg.TraceExporter).Msg("tracing enabled")
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			a.log.Warn().Err(err).Msg("trace provider shutdown")
		}
	}, nil
}

// publisher fans lifecycle events out to the log and the in-memory ring.
func (a *app) publisher() events.Publisher {
	return events.Multi{events.Log{Logger: a.log}, a.events}
}

// newResolver builds the registry-then-local resolver for the configured kind.
func (a *app) newResolver() *resolver.Resolver {
	schema, _ := features.SchemaFor(features.Kind(a.cfg.Kind))
	return resolver.New(schema, []resolver.Backend{
		resolver.NewRegistryBackend(a.cfg.TrackingURI, a.cfg.ArtifactPath, a.cfg.Timeout()),
		resolver.NewLocalBackend(a.cfg.LocalPath),
	}, resolver.WithLogger(a.log.With().Str("component", "resolver").Logger()), resolver.WithPublisher(a.publisher()))
}

// newService builds the inference service, with the Redis cache when one is
// configured. The returned closer releases the cache connection.
func (a *app) newService(ctx context.Context, withCache bool) (*inference.Service, func(), error) {
	cfg := inference.Config{
		Kind:     features.Kind(a.cfg.Kind),
		Name:     a.cfg.ModelName,
		Stage:    a.cfg.Stage,
		Resolver: a.newResolver(),
		Logger:   &a.log,
		Events:   a.publisher(),
	}
	closer := func() {}
	if withCache && a.cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cache.Options{Addr: a.cfg.RedisAddr, TTL: a.cfg.TTL()})
		if err != nil {
			return nil, nil, err
		}
		cfg.Cache = rc
		closer = func() { _ = rc.Close() }
		a.log.Info().Str("addr", a.cfg.RedisAddr).Msg("result cache enabled")
	}
	svc, err := inference.New(cfg)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return svc, closer, nil
}
