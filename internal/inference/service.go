// Package inference owns the loaded model handle for the life of the process
// and turns validated feature records into predictions.
//
// The handle is a single-writer/many-reader resource: readers load it through
// an atomic pointer, and Swap/Reload replace it in one step so an in-flight
// prediction always sees one consistent handle.
package inference

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"predictd/internal/events"
	"predictd/internal/features"
	"predictd/internal/model"
)

// tracer resolves against the current global provider.
func tracer() trace.Tracer { return otel.Tracer("predictd/inference") }

// Resolver produces model handles. *resolver.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, name, stage string) (*model.Handle, error)
}

// Config collects the collaborators of a Service.
type Config struct {
	Kind     features.Kind
	Name     string
	Stage    string
	Resolver Resolver
	Cache    ResultCache
	Logger   *zerolog.Logger
	Events   events.Publisher
}

// Service serves predictions for one model variant.
type Service struct {
	kind     features.Kind
	schema   *features.Schema
	encoder  *features.Encoder
	name     string
	stage    string
	resolver Resolver
	cache    ResultCache
	log      zerolog.Logger
	pub      events.Publisher

	handle  atomic.Pointer[model.Handle]
	flight  singleflight.Group
	reloads atomic.Uint64

	mu        sync.RWMutex
	lastError string
	startTime time.Time
}

// New constructs a Service with no handle loaded. It fails if the variant is
// unknown or its encoder tables disagree with its schema.
func New(cfg Config) (*Service, error) {
	schema, ok := features.SchemaFor(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown model kind %q", cfg.Kind)
	}
	enc, _ := features.EncoderFor(cfg.Kind)
	if err := enc.Check(schema); err != nil {
		return nil, fmt.Errorf("encoder self-check: %w", err)
	}
	s := &Service{
		kind:      cfg.Kind,
		schema:    schema,
		encoder:   enc,
		name:      cfg.Name,
		stage:     cfg.Stage,
		resolver:  cfg.Resolver,
		cache:     cfg.Cache,
		log:       zerolog.Nop(),
		pub:       cfg.Events,
		startTime: time.Now(),
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}
	if s.pub == nil {
		s.pub = events.Noop{}
	}
	return s, nil
}

func (s *Service) Kind() features.Kind        { return s.kind }
func (s *Service) Schema() *features.Schema   { return s.schema }
func (s *Service) Encoder() *features.Encoder { return s.encoder }

// Handle returns the current handle, or nil before the first load.
func (s *Service) Handle() *model.Handle { return s.handle.Load() }

// Ready reports whether a handle is installed.
func (s *Service) Ready() bool { return s.handle.Load() != nil }

// Start resolves the model once. A failure here is startup-fatal: callers
// must not begin serving.
func (s *Service) Start(ctx context.Context) error {
	if s.resolver == nil {
		return fmt.Errorf("no resolver configured")
	}
	h, err := s.resolver.Resolve(ctx, s.name, s.stage)
	if err != nil {
		s.setLastError(err)
		return err
	}
	s.Swap(h)
	return nil
}

// Swap installs h and returns the previous handle.
func (s *Service) Swap(h *model.Handle) *model.Handle {
	old := s.handle.Swap(h)
	if h != nil {
		s.log.Info().Str("model", h.Name).Str("stage", h.Stage).Str("backend", string(h.Backend)).
			Str("version", h.Version).Str("source", h.Source).Msg("model handle installed")
		s.pub.Publish(events.Event{Name: events.ModelSwapped, Model: h.Name, Fields: map[string]any{
			"backend": string(h.Backend), "version": h.Version,
		}})
	}
	return old
}

// Reload re-resolves the model and swaps it in on success. Concurrent calls
// share one resolution. A failed reload keeps the current handle.
func (s *Service) Reload(ctx context.Context) (*model.Handle, error) {
	if s.resolver == nil {
		return nil, fmt.Errorf("no resolver configured")
	}
	v, err, _ := s.flight.Do("reload", func() (any, error) {
		h, err := s.resolver.Resolve(ctx, s.name, s.stage)
		if err != nil {
			return nil, err
		}
		s.Swap(h)
		return h, nil
	})
	if err != nil {
		reloadsTotal.WithLabelValues("failed").Inc()
		s.setLastError(err)
		s.log.Error().Err(err).Str("model", s.name).Msg("model reload failed; keeping current handle")
		s.pub.Publish(events.Event{Name: events.ReloadFailed, Model: s.name, Fields: map[string]any{"error": err.Error()}})
		return nil, err
	}
	reloadsTotal.WithLabelValues("ok").Inc()
	s.reloads.Add(1)
	return v.(*model.Handle), nil
}

// PredictFields is the single inbound call for adapters: encode labels,
// validate and assemble the record, then predict.
func (s *Service) PredictFields(ctx context.Context, raw features.Fields) (Result, bool, error) {
	if !s.Ready() {
		predictionsTotal.WithLabelValues(string(s.kind), outcomeNotLoaded).Inc()
		return Result{}, false, ErrModelNotLoaded(string(s.kind))
	}
	norm, err := s.encoder.Normalize(raw)
	if err != nil {
		predictionsTotal.WithLabelValues(string(s.kind), outcomeInvalid).Inc()
		return Result{}, false, err
	}
	rec, err := s.schema.Assemble(norm)
	if err != nil {
		predictionsTotal.WithLabelValues(string(s.kind), outcomeInvalid).Inc()
		return Result{}, false, err
	}
	return s.predictCached(ctx, rec)
}

// Predict runs the model on one record.
func (s *Service) Predict(ctx context.Context, rec features.Record) (Result, error) {
	res, _, err := s.predictCached(ctx, rec)
	return res, err
}

func (s *Service) predictCached(ctx context.Context, rec features.Record) (Result, bool, error) {
	h := s.handle.Load()
	if h == nil {
		predictionsTotal.WithLabelValues(string(s.kind), outcomeNotLoaded).Inc()
		return Result{}, false, ErrModelNotLoaded(string(s.kind))
	}
	if rec.Schema() != s.schema {
		predictionsTotal.WithLabelValues(string(s.kind), outcomeInvalid).Inc()
		return Result{}, false, &features.ValidationError{Reason: features.ReasonSchema, Detail: "record was not assembled against the " + s.schema.Name() + " schema"}
	}
	key := ""
	if s.cache != nil {
		key = cacheKey(h, s.encoder, rec)
		if res, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("result cache read failed")
		} else if ok {
			predictionsTotal.WithLabelValues(string(s.kind), outcomeCacheHit).Inc()
			return res, true, nil
		}
	}
	res, err := s.invoke(ctx, h, rec)
	if err != nil {
		predictionsTotal.WithLabelValues(string(s.kind), outcomeFailed).Inc()
		s.log.Error().Err(err).Str("model", h.Name).Str("version", h.Version).Msg("prediction failed")
		return Result{}, false, err
	}
	predictionsTotal.WithLabelValues(string(s.kind), outcomeOK).Inc()
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res); err != nil {
			s.log.Warn().Err(err).Msg("result cache write failed")
		}
	}
	return res, false, nil
}

// invoke calls the model with h held for the whole call. Errors and panics
// from the model come back as PredictionFailedError.
func (s *Service) invoke(ctx context.Context, h *model.Handle, rec features.Record) (res Result, err error) {
	_, span := tracer().Start(ctx, "Service.Predict")
	span.SetAttributes(attribute.String("model.kind", string(s.kind)), attribute.String("model.name", h.Name),
		attribute.String("model.backend", string(h.Backend)), attribute.String("model.version", h.Version))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = predictionFailed(fmt.Errorf("panic: %v", r))
		}
		predictionDuration.WithLabelValues(string(s.kind)).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "prediction failed")
		}
		span.End()
	}()

	rows := []features.Record{rec}
	res = Result{Task: s.schema.Task(), Model: refOf(h)}
	switch s.schema.Task() {
	case features.Classification:
		clf, ok := h.Model.(model.Classifier)
		if !ok {
			return Result{}, predictionFailed(fmt.Errorf("model %q does not expose class probabilities", h.Name))
		}
		proba, perr := clf.PredictProba(rows)
		if perr != nil {
			return Result{}, predictionFailed(perr)
		}
		if len(proba) != len(rows) {
			return Result{}, predictionFailed(fmt.Errorf("model returned %d probabilities for %d rows", len(proba), len(rows)))
		}
		class, pct := classify(proba[0])
		res.Class, res.ProbabilityPct = &class, &pct
	default:
		values, perr := h.Model.Predict(rows)
		if perr != nil {
			return Result{}, predictionFailed(perr)
		}
		if len(values) != len(rows) {
			return Result{}, predictionFailed(fmt.Errorf("model returned %d values for %d rows", len(values), len(rows)))
		}
		res.Values = values
	}
	return res, nil
}

func (s *Service) setLastError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}
