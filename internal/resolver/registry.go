package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"predictd/internal/model"
)

// DefaultArtifactPath is the file fetched from a registered model version.
const DefaultArtifactPath = "model.json"

// maxArtifactBytes bounds registry downloads.
const maxArtifactBytes = 32 << 20

// RegistryBackend talks to an MLflow-compatible model registry over REST.
type RegistryBackend struct {
	baseURL      string
	artifactPath string
	client       *http.Client
}

// NewRegistryBackend returns a backend for trackingURI. An empty URI yields a
// backend that always reports ErrNotConfigured.
func NewRegistryBackend(trackingURI, artifactPath string, timeout time.Duration) *RegistryBackend {
	if artifactPath == "" {
		artifactPath = DefaultArtifactPath
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RegistryBackend{
		baseURL:      strings.TrimRight(trackingURI, "/"),
		artifactPath: artifactPath,
		client:       &http.Client{Timeout: timeout},
	}
}

func (b *RegistryBackend) Kind() model.Backend { return model.BackendRegistry }

type modelVersion struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	CurrentStage string `json:"current_stage"`
	Source       string `json:"source"`
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
}

type latestVersionsResponse struct {
	ModelVersions []modelVersion `json:"model_versions"`
}

// Fetch looks up the latest version of name in stage and downloads its
// artifact file.
func (b *RegistryBackend) Fetch(ctx context.Context, name, stage string) (Fetched, error) {
	if b.baseURL == "" {
		return Fetched{}, ErrNotConfigured
	}
	q := url.Values{"name": {name}, "stages": {stage}}
	var lv latestVersionsResponse
	if err := b.getJSON(ctx, "/api/2.0/mlflow/registered-models/get-latest-versions?"+q.Encode(), &lv); err != nil {
		return Fetched{}, err
	}
	mv, ok := pickVersion(lv.ModelVersions, stage)
	if !ok {
		return Fetched{}, fmt.Errorf("registry has no version of %q in stage %q", name, stage)
	}
	aq := url.Values{"name": {name}, "version": {mv.Version}, "path": {b.artifactPath}}
	data, err := b.get(ctx, "/model-versions/get-artifact?"+aq.Encode())
	if err != nil {
		return Fetched{}, fmt.Errorf("download %s v%s: %w", name, mv.Version, err)
	}
	return Fetched{
		Source:  fmt.Sprintf("models:/%s/%s/%s", name, mv.Version, b.artifactPath),
		Version: mv.Version,
		Data:    data,
	}, nil
}

// pickVersion returns the highest version in the requested stage.
func pickVersion(versions []modelVersion, stage string) (modelVersion, bool) {
	var (
		best   modelVersion
		bestN  = -1
		picked bool
	)
	for _, v := range versions {
		if !strings.EqualFold(v.CurrentStage, stage) {
			continue
		}
		if v.Status != "" && v.Status != "READY" {
			continue
		}
		n, err := strconv.Atoi(v.Version)
		if err != nil {
			n = 0
		}
		if n > bestN {
			best, bestN, picked = v, n, true
		}
	}
	return best, picked
}

func (b *RegistryBackend) getJSON(ctx context.Context, path string, out any) error {
	data, err := b.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}

func (b *RegistryBackend) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
