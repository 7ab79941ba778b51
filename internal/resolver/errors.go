package resolver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"predictd/internal/model"
)

// Attempt outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Attempt records one backend try.
type Attempt struct {
	Backend  model.Backend
	Outcome  string
	Err      error
	Duration time.Duration
}

// ResolutionFailedError is returned when every backend failed. It is fatal
// at startup.
type ResolutionFailedError struct {
	Name     string
	Stage    string
	Attempts []Attempt
}

func (e *ResolutionFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Backend, a.Err))
	}
	return fmt.Sprintf("resolve model %q stage %q: all backends failed (%s)", e.Name, e.Stage, strings.Join(parts, "; "))
}

// IsResolutionFailed reports whether err is a ResolutionFailedError.
func IsResolutionFailed(err error) bool {
	var e *ResolutionFailedError
	return errors.As(err, &e)
}
