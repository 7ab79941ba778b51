package inference

import (
	"errors"
	"net/http"
)

// modelNotLoadedError signals that no handle is installed. It is a server-side
// unavailability, not a client input fault.
type modelNotLoadedError struct{ kind string }

func (e modelNotLoadedError) Error() string   { return "model not loaded: " + e.kind }
func (e modelNotLoadedError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrModelNotLoaded returns a model-not-loaded error for the given variant.
func ErrModelNotLoaded(kind string) error { return modelNotLoadedError{kind: kind} }

// IsModelNotLoaded reports whether err indicates a missing handle (return 503).
func IsModelNotLoaded(err error) bool {
	var e modelNotLoadedError
	return errors.As(err, &e)
}

// PredictionFailedError wraps any failure raised by the underlying model.
type PredictionFailedError struct {
	Cause string
	err   error
}

func (e *PredictionFailedError) Error() string   { return "prediction failed: " + e.Cause }
func (e *PredictionFailedError) StatusCode() int { return http.StatusInternalServerError }
func (e *PredictionFailedError) Unwrap() error   { return e.err }

func predictionFailed(err error) error {
	return &PredictionFailedError{Cause: err.Error(), err: err}
}

// IsPredictionFailed reports whether err is a PredictionFailedError.
func IsPredictionFailed(err error) bool {
	var e *PredictionFailedError
	return errors.As(err, &e)
}
