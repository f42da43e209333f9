package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// Pinger is anything with a readiness probe (pgxpool.Pool, redis ping adapter).
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler takes the dependencies to probe in Readyz, keyed by name.
// Nil entries are skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	h := &HealthHandler{checks: map[string]Pinger{}}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := http.StatusOK

	for name, p := range h.checks {
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
