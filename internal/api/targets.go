package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fernhollow/dbsentinel/internal/supervisor"
)

// handleListTargets returns a summary of every configured target.
//
// GET /api/v1/targets
func (s *Server) handleListTargets(w http.ResponseWriter, _ *http.Request) {
	infos := s.supervisor.DescribeAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"targets": infos,
		"count":   len(infos),
	})
}

// handleGetTarget returns the summary of one target.
//
// GET /api/v1/targets/{id}
func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, err := s.supervisor.Describe(id)
	if err != nil {
		if errors.Is(err, supervisor.ErrUnknownTarget) {
			writeNotFound(w, "target not found: "+id)
			return
		}
		writeInternalError(w, "describing target")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// handleGetTargetStatus returns the last observed connection status of one
// target.
//
// GET /api/v1/targets/{id}/status
func (s *Server) handleGetTargetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.supervisor.Status(id)
	if err != nil {
		writeNotFound(w, "target not found: "+id)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"target_id": id,
		"status":    status,
	})
}

// handleGetTargetMetrics returns the rolling health metrics of one target.
//
// GET /api/v1/targets/{id}/metrics
func (s *Server) handleGetTargetMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	metrics, err := s.supervisor.Metrics(id)
	if err != nil {
		writeNotFound(w, "target not found: "+id)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"target_id": id,
		"metrics":   metrics,
	})
}

// handleResetTargetMetrics discards the accumulated counters of one target.
//
// DELETE /api/v1/targets/{id}/metrics
func (s *Server) handleResetTargetMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.supervisor.ResetMetrics(id); err != nil {
		writeNotFound(w, "target not found: "+id)
		return
	}

	s.logger.Info("target metrics reset", "target", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"target_id": id,
		"reset_at":  time.Now().UTC(),
	})
}

// handleCheckTarget performs an on-demand health check of one target,
// bypassing the schedule, and returns the result synchronously.
//
// POST /api/v1/targets/{id}/check
func (s *Server) handleCheckTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ev, err := s.supervisor.CheckNow(r.Context(), id)
	if err != nil {
		writeNotFound(w, "target not found: "+id)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"target_id": id,
		"healthy":   ev.Metrics.Healthy,
		"metrics":   ev.Metrics,
		"timestamp": ev.Timestamp,
	})
}
