package analytics

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) internalError(w http.ResponseWriter, op string, err error) {
	a.logf("stats: %s failed: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
}

func periodParam(r *http.Request) string {
	if p := r.URL.Query().Get("period"); p != "" {
		return p
	}
	return "30d"
}

func (a *API) HandleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := a.Stats.Overview(r.Context(), periodParam(r))
	if err != nil {
		a.internalError(w, "overview", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) HandleDaily(w http.ResponseWriter, r *http.Request) {
	out, err := a.Stats.Daily(r.Context(), periodParam(r), r.URL.Query().Get("page"))
	if err != nil {
		a.internalError(w, "daily", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) HandleHourly(w http.ResponseWriter, r *http.Request) {
	out, err := a.Stats.Hourly(r.Context())
	if err != nil {
		a.internalError(w, "hourly", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) HandleRegions(w http.ResponseWriter, r *http.Request) {
	out, err := a.Stats.Regions(r.Context(), periodParam(r), r.URL.Query().Get("page"))
	if err != nil {
		a.internalError(w, "regions", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) HandleLive(w http.ResponseWriter, r *http.Request) {
	out, err := a.Stats.Live(r.Context())
	if err != nil {
		a.internalError(w, "live", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
