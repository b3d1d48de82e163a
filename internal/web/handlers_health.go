package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/results/internal/core"
)

type healthResponse struct {
	Status   string                    `json:"status"`
	Database string                    `json:"database"`
	Imports  *core.ImportLimiterStatus `json:"imports,omitempty"`
}

// handleHealth reports database reachability and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	if s.deps.Limiter != nil {
		st := s.deps.Limiter.Status()
		resp.Imports = &st
	}

	writeJSON(w, status, resp)
}
