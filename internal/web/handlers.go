package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/cache"
	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/models"
	"github.com/dwlarson10/basketball-stats/internal/refresh"
	"github.com/dwlarson10/basketball-stats/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// CacheTTLs controls how long query responses stay cached.
type CacheTTLs struct {
	Teams   time.Duration
	Players time.Duration
	Seasons time.Duration
}

// DefaultCacheTTLs suit a dataset that changes at most nightly.
func DefaultCacheTTLs() CacheTTLs {
	return CacheTTLs{
		Teams:   time.Hour,
		Players: time.Hour,
		Seasons: 24 * time.Hour,
	}
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db      *store.Database
	cache   *cache.RedisCache
	refresh *refresh.Service
	ttls    CacheTTLs
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, rc *cache.RedisCache, refreshSvc *refresh.Service) *Handler {
	return &Handler{
		db:      db,
		cache:   rc,
		refresh: refreshSvc,
		ttls:    DefaultCacheTTLs(),
	}
}

// SetCacheTTLs overrides the default cache lifetimes.
func (h *Handler) SetCacheTTLs(ttls CacheTTLs) {
	h.ttls = ttls
}

// Dashboard renders the single-page dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, nil); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render dashboard", err)
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}

	teams, players, err := h.db.Counts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read record counts", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"service":        "basketball-stats",
		"team_records":   teams,
		"player_records": players,
	})
}

// parseLeague reads the league query parameter, defaulting to the NBA.
func parseLeague(r *http.Request) (league.League, error) {
	raw := r.URL.Query().Get("league")
	if raw == "" {
		return league.NBA, nil
	}
	return league.Parse(raw)
}

// parseSeason reads the season query parameter. When absent it falls back
// to the most recent season stored for the league; ok is false when the
// league has no data at all.
func (h *Handler) parseSeason(r *http.Request, lg league.League) (int, bool, error) {
	raw := r.URL.Query().Get("season")
	if raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false, fmt.Errorf("season %q is not a year", raw)
		}
		return season, true, nil
	}

	seasons, err := h.db.Teams.ListSeasons(r.Context(), lg)
	if err != nil {
		return 0, false, err
	}
	if len(seasons) == 0 {
		return 0, false, nil
	}
	return seasons[0], true, nil
}

// GetSeasons handles GET /api/seasons
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	lg, err := parseLeague(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unknown league", err)
		return
	}

	key := cache.Key("seasons", string(lg))
	var seasons []int
	if !h.cache.GetJSON(r.Context(), key, &seasons) {
		seasons, err = h.db.Teams.ListSeasons(r.Context(), lg)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to list seasons", err)
			return
		}
		h.cache.SetJSON(r.Context(), key, seasons, h.ttls.Seasons)
	}

	labels := make([]string, 0, len(seasons))
	for _, s := range seasons {
		labels = append(labels, league.SeasonString(s))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league":  lg.Name(),
		"seasons": seasons,
		"labels":  labels,
	})
}

// GetTeams handles GET /api/teams
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	lg, err := parseLeague(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unknown league", err)
		return
	}

	season, ok, err := h.parseSeason(r, lg)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season", err)
		return
	}
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"league": lg.Name(),
			"teams":  []*models.TeamRecord{},
			"count":  0,
		})
		return
	}

	key := cache.Key("teams", string(lg), strconv.Itoa(season))
	var teams []*models.TeamRecord
	if !h.cache.GetJSON(r.Context(), key, &teams) {
		teams, err = h.db.Teams.ListBySeason(r.Context(), lg, season)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch teams", err)
			return
		}
		h.cache.SetJSON(r.Context(), key, teams, h.ttls.Teams)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league": lg.Name(),
		"season": season,
		"label":  league.SeasonString(season),
		"teams":  teams,
		"count":  len(teams),
	})
}

// GetPlayers handles GET /api/players
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	lg, err := parseLeague(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unknown league", err)
		return
	}

	teamRaw := r.URL.Query().Get("team")
	if teamRaw == "" {
		respondError(w, http.StatusBadRequest, "Missing team parameter", nil)
		return
	}
	teamID, err := strconv.ParseInt(teamRaw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team id", err)
		return
	}

	season, ok, err := h.parseSeason(r, lg)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season", err)
		return
	}
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"league":  lg.Name(),
			"players": []*models.PlayerRecord{},
			"count":   0,
		})
		return
	}

	key := cache.Key("players", string(lg), strconv.Itoa(season), teamRaw)
	var players []*models.PlayerRecord
	if !h.cache.GetJSON(r.Context(), key, &players) {
		players, err = h.db.Players.ListByTeam(r.Context(), lg, season, teamID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch players", err)
			return
		}
		h.cache.SetJSON(r.Context(), key, players, h.ttls.Players)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league":  lg.Name(),
		"season":  season,
		"label":   league.SeasonString(season),
		"team_id": teamID,
		"players": players,
		"count":   len(players),
	})
}

// GetMatchup handles GET /api/matchup
func (h *Handler) GetMatchup(w http.ResponseWriter, r *http.Request) {
	lg, err := parseLeague(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unknown league", err)
		return
	}

	homeID, err := strconv.ParseInt(r.URL.Query().Get("home"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid home team id", err)
		return
	}
	awayID, err := strconv.ParseInt(r.URL.Query().Get("away"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid away team id", err)
		return
	}

	season, ok, err := h.parseSeason(r, lg)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season", err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "No data stored for league", nil)
		return
	}

	matchup, err := h.db.Teams.GetMatchup(r.Context(), lg, season, homeID, awayID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Team not found for season", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build matchup", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league":  lg.Name(),
		"season":  season,
		"label":   league.SeasonString(season),
		"matchup": matchup,
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
