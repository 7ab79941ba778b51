// Package resolver turns a logical model name and deployment stage into a
// loaded model handle, trying the model registry first and a local artifact
// second.
package resolver

import (
	"context"
	"errors"

	"predictd/internal/model"
)

// ErrNotConfigured is returned by a backend that has nothing to try, e.g. an
// empty tracking URI. The attempt is recorded as skipped.
var ErrNotConfigured = errors.New("backend not configured")

// Fetched is the raw artifact a backend located.
type Fetched struct {
	// Source is a path or URI; its extension selects the artifact codec.
	Source  string
	Version string
	Data    []byte
}

// Backend locates the artifact for (name, stage).
type Backend interface {
	Kind() model.Backend
	Fetch(ctx context.Context, name, stage string) (Fetched, error)
}
