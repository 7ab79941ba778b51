package inference

import (
	"context"
	"strings"
	"time"

	"predictd/internal/features"
	"predictd/internal/model"
	"predictd/pkg/types"
)

// ResultCache stores prediction results keyed by model identity and input
// fingerprint. Implementations must be safe for concurrent use.
type ResultCache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, res Result) error
}

// cacheKey changes with the model version, the label tables and the input.
func cacheKey(h *model.Handle, enc *features.Encoder, rec features.Record) string {
	return strings.Join([]string{h.ID(), enc.Version(), rec.Fingerprint()}, "|")
}

// Status reports the current handle and reload counters.
func (s *Service) Status() types.StatusResponse {
	now := time.Now()
	st := types.StatusResponse{
		State:          "unavailable",
		Kind:           string(s.kind),
		ReloadsTotal:   s.reloads.Load(),
		UptimeSeconds:  int64(now.Sub(s.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	if h := s.handle.Load(); h != nil {
		ref := refOf(h)
		st.State = "ready"
		st.Model = &ref
		st.Source = h.Source
		st.LoadedAtUnix = h.LoadedAt.Unix()
	}
	s.mu.RLock()
	st.LastError = s.lastError
	s.mu.RUnlock()
	return st
}
