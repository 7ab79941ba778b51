package model

import "errors"

// SchemaMismatchError reports an artifact that was not fit on the serving schema.
type SchemaMismatchError struct {
	Schema string
	Detail string
}

func (e *SchemaMismatchError) Error() string {
	return "artifact does not match schema " + e.Schema + ": " + e.Detail
}

// IsSchemaMismatch reports whether err is a SchemaMismatchError.
func IsSchemaMismatch(err error) bool {
	var e *SchemaMismatchError
	return errors.As(err, &e)
}
