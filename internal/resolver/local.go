package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"predictd/internal/common/fsutil"
	"predictd/internal/model"
)

// LocalBackend loads an artifact from disk. It needs no network and serves as
// the degraded-mode fallback.
type LocalBackend struct {
	path string
}

// NewLocalBackend returns a backend for path; '~' is expanded.
func NewLocalBackend(path string) *LocalBackend { return &LocalBackend{path: path} }

func (b *LocalBackend) Kind() model.Backend { return model.BackendLocal }

// Path returns the configured path as given.
func (b *LocalBackend) Path() string { return b.path }

// Fetch reads the artifact. Name and stage do not select anything on disk;
// the version is a content digest so reloads of an edited file are visible.
func (b *LocalBackend) Fetch(ctx context.Context, name, stage string) (Fetched, error) {
	if b.path == "" {
		return Fetched{}, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return Fetched{}, err
	}
	abs, err := fsutil.ResolvePath(b.path)
	if err != nil {
		return Fetched{}, err
	}
	data, _, err := fsutil.ReadRegularFile(abs)
	if err != nil {
		return Fetched{}, err
	}
	sum := sha256.Sum256(data)
	return Fetched{Source: abs, Version: "sha256:" + hex.EncodeToString(sum[:6]), Data: data}, nil
}
