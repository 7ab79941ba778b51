// Package events carries model lifecycle events (resolution attempts, loads,
// reloads) to whoever wants to observe them.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event names.
const (
	ResolveAttempt = "resolve_attempt"
	ResolveSuccess = "resolve_success"
	ResolveFailed  = "resolve_failed"
	ModelSwapped   = "model_swapped"
	ReloadFailed   = "reload_failed"
)

// Event represents a model lifecycle event.
// Minimal and stable: name + model name and optional fields via key/values.
type Event struct {
	Name   string
	Model  string
	Fields map[string]any
	Time   time.Time
}

// Publisher receives events. Implementations should be lightweight and
// non-blocking; Publish must not panic.
type Publisher interface {
	Publish(Event)
}

// Noop drops events.
type Noop struct{}

func (Noop) Publish(Event) {}

// Memory keeps the most recent events for GET /admin/events and tests.
type Memory struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemory keeps at most limit events (0 = unbounded).
func NewMemory(limit int) *Memory { return &Memory{limit: limit} }

func (p *Memory) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	p.mu.Lock()
	p.events = append(p.events, e)
	if p.limit > 0 && len(p.events) > p.limit {
		p.events = p.events[len(p.events)-p.limit:]
	}
	p.mu.Unlock()
}

func (p *Memory) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Log writes every event as a debug line.
type Log struct{ Logger zerolog.Logger }

func (p Log) Publish(e Event) {
	p.Logger.Debug().Str("event", e.Name).Str("model", e.Model).Fields(e.Fields).Msg("model event")
}

// Multi fans an event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}
