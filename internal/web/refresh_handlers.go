package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/refresh"
)

type apiRefreshRequest struct {
	League    string `json:"league"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
}

// TriggerRefresh handles POST /api/refresh. It enqueues a harvest for the
// requested range and returns immediately; callers poll the status
// endpoint with the returned job id. Without an explicit league the job
// covers every supported league.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refresh == nil {
		respondError(w, http.StatusServiceUnavailable, "Refresh service not running", nil)
		return
	}

	var req apiRefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	leagues := league.Supported()
	if req.League != "" {
		lg, err := league.Parse(req.League)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Unknown league", err)
			return
		}
		leagues = []league.League{lg}
	}

	// Default to the season currently in progress.
	if req.StartYear == 0 && req.EndYear == 0 {
		current := league.CurrentSeasonYear(time.Now())
		req.StartYear, req.EndYear = current, current
	}

	job, err := h.refresh.EnqueueLeagues(leagues, req.StartYear, req.EndYear)
	switch {
	case errors.Is(err, refresh.ErrJobInProgress):
		respondError(w, http.StatusConflict, "A refresh is already running", err)
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, "Failed to enqueue refresh", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": job,
	})
}

// RefreshStatus handles GET /api/refresh/status. Without an id parameter
// it reports the most recent job.
func (h *Handler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	if h.refresh == nil {
		respondError(w, http.StatusServiceUnavailable, "Refresh service not running", nil)
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		job, err := h.refresh.Status(id)
		if errors.Is(err, refresh.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, "Job not found", err)
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch job", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"job": job})
		return
	}

	job := h.refresh.Latest()
	if job == nil {
		respondError(w, http.StatusNotFound, "No refresh has run yet", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"job": job})
}
