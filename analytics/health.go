package analytics

import (
	"net/http"
	"time"
)

// HandleHealth responde o status do processo; sem token, sem rate limit.
func (a *API) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
