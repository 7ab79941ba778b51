package model

import (
	"fmt"
	"time"

	"predictd/internal/features"
)

// Backend names where a handle was loaded from.
type Backend string

const (
	BackendRegistry Backend = "registry"
	BackendLocal    Backend = "local"
)

// Handle is an immutable, loaded model tagged with its provenance.
type Handle struct {
	Model    Model
	Backend  Backend
	Name     string
	Stage    string
	Version  string
	Source   string
	LoadedAt time.Time
}

// ID identifies the model a handle serves. Loads of the same version from
// the same backend share an ID, on this replica and on every other one.
func (h *Handle) ID() string {
	return fmt.Sprintf("%s/%s/%s/%s", h.Backend, h.Name, h.Stage, h.Version)
}

// NewHandle tags a freshly loaded model with its provenance and load time.
func NewHandle(m Model, backend Backend, name, stage, version, source string, loadedAt time.Time) *Handle {
	return &Handle{
		Model:    m,
		Backend:  backend,
		Name:     name,
		Stage:    stage,
		Version:  version,
		Source:   source,
		LoadedAt: loadedAt,
	}
}

// Load decodes an artifact and binds it to the schema.
func Load(source string, data []byte, s *features.Schema) (Model, *Artifact, error) {
	a, err := DecodeFile(source, data)
	if err != nil {
		return nil, nil, err
	}
	m, err := Bind(a, s)
	if err != nil {
		return nil, nil, err
	}
	return m, a, nil
}
