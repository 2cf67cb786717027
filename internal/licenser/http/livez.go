package http

import (
	"net/http"
	"time"

	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
)

// LivezHandler returns the liveness probe handler. It answers 200 whenever
// the process is running.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, licsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
