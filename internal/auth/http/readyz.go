package http

import (
	"net/http"
	"time"

	"github.com/eledevo/authledger/internal/auth/store"
	"github.com/eledevo/authledger/pkg/authsdk"
	"github.com/eledevo/authledger/pkg/httpx"
)

// ReadyzHandler is the readiness probe. Degrades to 503 when the backing
// store stops answering.
//
// GET /readyz
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Store: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
