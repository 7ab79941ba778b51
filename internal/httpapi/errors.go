package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"predictd/internal/features"
	"predictd/internal/inference"
	"predictd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeErrorResponse(w, types.ErrorResponse{Error: msg, Code: status})
}

func writeErrorResponse(w http.ResponseWriter, body types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Code)
	_ = json.NewEncoder(w).Encode(body)
}

// errorResponse maps a service error onto the HTTP error payload. Input
// faults carry the offending field and value; model failures never leak
// their cause.
func errorResponse(err error) types.ErrorResponse {
	switch {
	case features.IsClientError(err):
		field, value := features.FieldOf(err)
		return types.ErrorResponse{Error: err.Error(), Code: http.StatusUnprocessableEntity, Field: field, Value: value}
	case inference.IsModelNotLoaded(err):
		return types.ErrorResponse{Error: "model not loaded", Code: http.StatusServiceUnavailable}
	case inference.IsPredictionFailed(err):
		return types.ErrorResponse{Error: "prediction failed", Code: http.StatusInternalServerError}
	case errors.Is(err, context.DeadlineExceeded):
		return types.ErrorResponse{Error: "prediction timed out", Code: http.StatusGatewayTimeout}
	}
	var he HTTPError
	if errors.As(err, &he) {
		return types.ErrorResponse{Error: he.Error(), Code: he.StatusCode()}
	}
	return types.ErrorResponse{Error: "internal error", Code: http.StatusInternalServerError}
}
