package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks the database connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler returns the GET /health handler. It pings the
// database with a short deadline so a wedged pool turns into a fast 503
// instead of a hanging probe.
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
