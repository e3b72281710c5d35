package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
	now    func() time.Time
}

func NewHealthHandler(globalDB *sql.DB) *HealthHandler {
	return &HealthHandler{
		checks: map[string]HealthCheck{"global_db": globalDB.PingContext},
		now:    time.Now,
	}
}

// WithCheck registers an extra dependency, e.g. the lookup cache's Redis.
func (h *HealthHandler) WithCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "healthy", Timestamp: h.now().Unix(), Checks: map[string]string{}}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			log.Warn().Err(err).Str("check", name).Msg("health check failed")
			resp.Checks[name] = "unhealthy: " + err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "healthy"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
