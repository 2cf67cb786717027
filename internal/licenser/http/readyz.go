package http

import (
	"net/http"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
)

// ReadyzHandler returns the readiness probe handler. A service that cannot
// reach its database or has no usable signing key reports degraded: it can
// still validate nothing and sign nothing.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *service.KeyService,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &licsdk.HealthChecks{
			Database:   "ok",
			SigningKey: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !keys.SigningKeyAvailable(r.Context()) {
			checks.SigningKey = "error: no active signing key"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, licsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
