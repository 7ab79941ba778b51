package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger of the HTTP layer. Nop until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// defaultLogLevel is read once; requests may override it with ?log= or
// X-Log-Level.
var defaultLogLevel = func() LogLevel {
	if v, ok := os.LookupEnv("PREDICTD_HTTP_LOG"); ok {
		return parseLevel(v)
	}
	return LevelInfo
}()

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logPrediction emits the end-of-request line for prediction routes. Errors
// are logged at LevelError and above, successes at LevelInfo and above.
func logPrediction(r *http.Request, lvl LogLevel, status int, start time.Time, predictionID string, err error) {
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	var ev *zerolog.Event
	switch {
	case err != nil && status >= http.StatusInternalServerError:
		ev = zlog.Error().Err(err)
	case err != nil:
		ev = zlog.Info().Err(err)
	default:
		ev = zlog.Info()
	}
	ev = ev.Str("path", r.URL.Path).Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if predictionID != "" {
		ev = ev.Str("prediction_id", predictionID)
	}
	ev.Msg("predict end")
}

// logInputs writes the submitted fields at debug level.
func logInputs(r *http.Request, lvl LogLevel, fields map[string]any) {
	if lvl < LevelDebug {
		return
	}
	zlog.Debug().Str("path", r.URL.Path).Interface("fields", fields).Msg("predict inputs")
}
