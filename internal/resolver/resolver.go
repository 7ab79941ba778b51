package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"predictd/internal/events"
	"predictd/internal/features"
	"predictd/internal/model"
)

// tracer resolves against the current global provider.
func tracer() trace.Tracer { return otel.Tracer("predictd/resolver") }

// Resolver tries its backends in a fixed order and returns the first handle
// that loads and binds to the schema.
type Resolver struct {
	schema   *features.Schema
	backends []Backend
	log      zerolog.Logger
	pub      events.Publisher
	now      func() time.Time
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-attempt logging.
func WithLogger(l zerolog.Logger) Option { return func(r *Resolver) { r.log = l } }

// WithClock sets the clock used for attempt durations and load times.
func WithClock(now func() time.Time) Option { return func(r *Resolver) { r.now = now } }

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(r *Resolver) {
		if p != nil {
			r.pub = p
		}
	}
}

// New builds a resolver over backends, tried in the order given. The
// production order is registry, then local.
func New(schema *features.Schema, backends []Backend, opts ...Option) *Resolver {
	r := &Resolver{
		schema:   schema,
		backends: append([]Backend(nil), backends...),
		log:      zerolog.Nop(),
		pub:      events.Noop{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Schema returns the schema every resolved model is bound to.
func (r *Resolver) Schema() *features.Schema { return r.schema }

// Resolve returns a handle for (name, stage) or a ResolutionFailedError
// listing every attempt. No backend is retried.
func (r *Resolver) Resolve(ctx context.Context, name, stage string) (*model.Handle, error) {
	ctx, span := tracer().Start(ctx, "Resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("model.name", name), attribute.String("model.stage", stage))

	failed := &ResolutionFailedError{Name: name, Stage: stage}
	for _, b := range r.backends {
		start := r.now()
		h, err := r.try(ctx, b, name, stage)
		a := Attempt{Backend: b.Kind(), Err: err, Duration: r.now().Sub(start)}
		switch {
		case err == nil:
			a.Outcome = OutcomeOK
		case errors.Is(err, ErrNotConfigured):
			a.Outcome = OutcomeSkipped
		default:
			a.Outcome = OutcomeFailed
		}
		r.record(name, stage, a)
		if err == nil {
			r.pub.Publish(events.Event{Name: events.ResolveSuccess, Model: name, Fields: map[string]any{
				"backend": string(h.Backend), "stage": stage, "version": h.Version, "source": h.Source,
			}})
			span.SetAttributes(attribute.String("model.backend", string(h.Backend)))
			return h, nil
		}
		failed.Attempts = append(failed.Attempts, a)
		if ctx.Err() != nil {
			break
		}
	}
	r.log.Error().Str("model", name).Str("stage", stage).Int("attempts", len(failed.Attempts)).Msg("model resolution failed on every backend")
	r.pub.Publish(events.Event{Name: events.ResolveFailed, Model: name, Fields: map[string]any{"stage": stage, "error": failed.Error()}})
	span.RecordError(failed)
	span.SetStatus(codes.Error, "resolution failed")
	return nil, failed
}

func (r *Resolver) try(ctx context.Context, b Backend, name, stage string) (*model.Handle, error) {
	f, err := b.Fetch(ctx, name, stage)
	if err != nil {
		return nil, err
	}
	m, _, err := model.Load(f.Source, f.Data, r.schema)
	if err != nil {
		return nil, err
	}
	return model.NewHandle(m, b.Kind(), name, stage, f.Version, f.Source, r.now()), nil
}

func (r *Resolver) record(name, stage string, a Attempt) {
	resolveAttemptsTotal.WithLabelValues(string(a.Backend), a.Outcome).Inc()
	var ev *zerolog.Event
	switch a.Outcome {
	case OutcomeOK:
		ev = r.log.Info()
	case OutcomeSkipped:
		ev = r.log.Debug()
	default:
		ev = r.log.Warn().Err(a.Err)
	}
	ev.Str("model", name).Str("stage", stage).Str("backend", string(a.Backend)).
		Str("outcome", a.Outcome).Dur("dur", a.Duration).Msg("model resolution attempt")
	fields := map[string]any{"backend": string(a.Backend), "stage": stage, "outcome": a.Outcome}
	if a.Err != nil {
		fields["error"] = a.Err.Error()
	}
	r.pub.Publish(events.Event{Name: events.ResolveAttempt, Model: name, Fields: fields})
}
