package features

import (
	"errors"
	"fmt"
	"net/http"
)

// Reasons carried by ValidationError.
const (
	ReasonMissing    = "missing"
	ReasonUnexpected = "unexpected"
	ReasonType       = "type"
	ReasonSchema     = "schema"
)

// ValidationError reports a structural problem with the submitted fields:
// a missing or unexpected field, or a value of the wrong type.
type ValidationError struct {
	Field  string
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return fmt.Sprintf("field %q is required", e.Field)
	case ReasonUnexpected:
		return fmt.Sprintf("field %q is not part of the schema", e.Field)
	}
	if e.Field == "" {
		return e.Detail
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Detail)
}

// StatusCode implements the HTTP status mapping for client input faults.
func (e *ValidationError) StatusCode() int { return http.StatusUnprocessableEntity }

// OutOfRangeError reports a numeric value outside its declared bounds.
type OutOfRangeError struct {
	Field string
	Value float64
	Min   *float64
	Max   *float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("field %q: value %v outside allowed range %s", e.Field, e.Value, formatRange(e.Min, e.Max))
}

func (e *OutOfRangeError) StatusCode() int { return http.StatusUnprocessableEntity }

func formatRange(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("[%v, %v]", *min, *max)
	case min != nil:
		return fmt.Sprintf("[%v, +inf)", *min)
	case max != nil:
		return fmt.Sprintf("(-inf, %v]", *max)
	}
	return "(-inf, +inf)"
}

// UnknownCategoryError reports a categorical value outside the field's domain.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("field %q: unknown category %q", e.Field, e.Value)
}

func (e *UnknownCategoryError) StatusCode() int { return http.StatusUnprocessableEntity }

// EncodingError reports a label the encoder has no code for. It unwraps to an
// UnknownCategoryError so callers may match on either.
type EncodingError struct {
	Field string
	Label string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode field %q: no code for label %q", e.Field, e.Label)
}

func (e *EncodingError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *EncodingError) Unwrap() error {
	return &UnknownCategoryError{Field: e.Field, Value: e.Label}
}

// IsClientError reports whether err is an input fault the caller can correct.
func IsClientError(err error) bool {
	var (
		ve *ValidationError
		oe *OutOfRangeError
		ue *UnknownCategoryError
		ee *EncodingError
	)
	return errors.As(err, &ve) || errors.As(err, &oe) || errors.As(err, &ue) || errors.As(err, &ee)
}

// FieldOf extracts the offending field name and value from an input fault.
func FieldOf(err error) (field string, value any) {
	var (
		ve *ValidationError
		oe *OutOfRangeError
		ee *EncodingError
		ue *UnknownCategoryError
	)
	switch {
	case errors.As(err, &oe):
		return oe.Field, oe.Value
	case errors.As(err, &ee):
		return ee.Field, ee.Label
	case errors.As(err, &ue):
		return ue.Field, ue.Value
	case errors.As(err, &ve):
		return ve.Field, nil
	}
	return "", nil
}
