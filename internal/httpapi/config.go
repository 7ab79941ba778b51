package httpapi

import (
	"time"

	"predictd/internal/events"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// predictTimeout bounds a single prediction. Zero means no additional timeout
// beyond server/connection timeouts.
var predictTimeout time.Duration

// SetPredictTimeout sets the per-prediction timeout (0 disables).
func SetPredictTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	predictTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// swaggerEnabled mounts /swagger/* when set.
var swaggerEnabled bool

// SetSwagger toggles the interactive API docs.
func SetSwagger(enabled bool) { swaggerEnabled = enabled }

// eventSource supplies recent lifecycle events for GET /admin/events.
var eventSource func() []events.Event

// SetEventSource installs the event source (nil disables the route).
func SetEventSource(fn func() []events.Event) { eventSource = fn }
