package http

import (
	"context"
	"errors"
	"net/http"

	"finplan/internal/core"
	"finplan/internal/log"
)

type refreshAccepted struct {
	HouseholdID int64  `json:"householdId"`
	Status      string `json:"status"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(r.Context(), w, http.StatusServiceUnavailable, errorResponse{Error: "not ready"})
			return
		}
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleGetProjection serves a household projection with optional
// adjustments passed as query parameters.
func (s *Server) handleGetProjection(w http.ResponseWriter, r *http.Request) {
	id, err := ParseHouseholdID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	patch, err := ParsePatchQuery(r.URL.Query())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	s.project(w, r, id, patch)
}

// handlePostProjection serves a household projection with adjustments
// taken from a JSON InputsPatch body.
func (s *Server) handlePostProjection(w http.ResponseWriter, r *http.Request) {
	id, err := ParseHouseholdID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	var patch core.InputsPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	s.project(w, r, id, patch)
}

func (s *Server) project(w http.ResponseWriter, r *http.Request, id int64, patch core.InputsPatch) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	p, err := s.api.Project(ctx, id, patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, p)
}

// handleProjectInputs runs the engine on a ProjectionInputs body supplied by
// the caller, with optional query adjustments. Nothing is stored.
func (s *Server) handleProjectInputs(w http.ResponseWriter, r *http.Request) {
	var inputs core.ProjectionInputs
	if err := DecodeJSON(w, r, &inputs); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	patch, err := ParsePatchQuery(r.URL.Query())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	p, err := s.api.ProjectInputs(r.Context(), inputs, patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, p)
}

// handleRefresh queues a background refresh. An optional JSON body carries
// adjustments for a one-off export.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id, err := ParseHouseholdID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	var patch *core.InputsPatch
	var body core.InputsPatch
	switch err := DecodeJSON(w, r, &body); {
	case errors.Is(err, ErrEmptyBody):
	case err != nil:
		writeError(r.Context(), w, err)
		return
	case !body.IsEmpty():
		patch = &body
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	if err := s.api.RequestRefresh(ctx, id, patch); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Projection refresh queued",
		log.FieldHouseholdID, id,
		log.FieldOperation, log.OpRefresh)
	writeJSON(r.Context(), w, http.StatusAccepted, refreshAccepted{HouseholdID: id, Status: "queued"})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	id, err := ParseHouseholdID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	run, err := s.api.LatestRun(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, run)
}
