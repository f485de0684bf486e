package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/harvest"
	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/models"
	"github.com/dwlarson10/basketball-stats/internal/refresh"
	"github.com/dwlarson10/basketball-stats/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*Server, *store.Database) {
	ctx := context.Background()

	db, err := store.NewDatabase(ctx, store.Config{Path: ""})
	require.NoError(t, err, "Failed to open in-memory test database")
	t.Cleanup(db.Close)

	svc := refresh.NewService(func(ctx context.Context, rng league.Range) (*harvest.Result, error) {
		return &harvest.Result{Completed: []harvest.Unit{{League: rng.League, Season: rng.StartYear}}}, nil
	})
	svc.Start()
	t.Cleanup(func() { svc.Shutdown(context.Background()) })

	return NewServer("8080", db, nil, svc), db
}

func seedSeason(t *testing.T, db *store.Database, lg league.League, season int) {
	t.Helper()
	ctx := context.Background()

	teams := []*models.TeamRecord{
		{League: lg, Season: season, TeamID: 1, TeamName: "Boston Celtics", Wins: 64, Losses: 18, WinPct: 0.78, Points: 120.6, NetRating: 7.4},
		{League: lg, Season: season, TeamID: 2, TeamName: "Denver Nuggets", Wins: 57, Losses: 25, WinPct: 0.695, Points: 114.9, NetRating: 4.6},
	}
	require.NoError(t, db.Teams.ReplacePartition(ctx, lg, season, teams))

	players := []*models.PlayerRecord{
		{League: lg, Season: season, PlayerID: 100, TeamID: 1, PlayerName: "Jayson Tatum", TeamAbbr: "BOS", Points: 26.9},
		{League: lg, Season: season, PlayerID: 101, TeamID: 1, PlayerName: "Jaylen Brown", TeamAbbr: "BOS", Points: 23.0},
		{League: lg, Season: season, PlayerID: 102, TeamID: 2, PlayerName: "Nikola Jokic", TeamAbbr: "DEN", Points: 26.4},
	}
	require.NoError(t, db.Players.ReplacePartition(ctx, lg, season, players))
}

func doRequest(t *testing.T, srv *Server, method, target string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	payload := map[string]interface{}{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), "Response should be JSON")
	}
	return rec, payload
}

func TestHealthCheck(t *testing.T) {
	srv, db := setupTestServer(t)
	seedSeason(t, db, league.NBA, 2023)

	rec, payload := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", payload["status"])
	assert.EqualValues(t, 2, payload["team_records"])
	assert.EqualValues(t, 3, payload["player_records"])
}

func TestDashboardRenders(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Basketball Stats")
}

func TestGetTeams(t *testing.T) {
	srv, db := setupTestServer(t)
	seedSeason(t, db, league.NBA, 2023)

	rec, payload := doRequest(t, srv, http.MethodGet, "/api/teams?league=NBA&season=2023", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, payload["count"])
	assert.Equal(t, "2023-24", payload["label"])

	teams := payload["teams"].([]interface{})
	first := teams[0].(map[string]interface{})
	assert.Equal(t, "Boston Celtics", first["team_name"], "Best record should come first")
}

func TestGetTeamsDefaultsToLatestSeason(t *testing.T) {
	srv, db := setupTestServer(t)
	seedSeason(t, db, league.NBA, 2021)
	seedSeason(t, db, league.NBA, 2023)

	rec, payload := doRequest(t, srv, http.MethodGet, "/api/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2023, payload["season"], "Missing season should resolve to the newest stored")
}

func TestGetTeamsEmptyState(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, payload := doRequest(t, srv, http.MethodGet, "/api/teams?league=WNBA", nil)
	require.Equal(t, http.StatusOK, rec.Code, "A league with no data is an empty page, not an error")
	assert.EqualValues(t, 0, payload["count"])
	assert.Empty(t, payload["teams"])
}

func TestGetTeamsUnknownLeague(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/api/teams?league=XFL", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPlayers(t *testing.T) {
	srv, db := setupTestServer(t)
	seedSeason(t, db, league.NBA, 2023)

	rec, payload := doRequest(t, srv, http.MethodGet, "/api/players?league=NBA&season=2023&team=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, payload["count"])

	players := payload["players"].([]interface{})
	first := players[0].(map[string]interface{})
	assert.Equal(t, "Jayson Tatum", first["player_name"], "Leading scorer should come first")
}

func TestGetPlayersRequiresTeam(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/api/players?league=NBA&season=2023", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMatchup(t *testing.T) {
	srv, db := setupTestServer(t)
	seedSeason(t, db, league.NBA, 2023)

	rec, payload := doRequest(t, srv, http.MethodGet, "/api/matchup?season=2023&home=1&away=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	matchup := payload["matchup"].(map[string]interface{})
	edge := matchup["edge"].(map[string]interface{})
	assert.InDelta(t, 120.6-114.9, edge["pts"].(float64), 1e-9)

	rec, _ = doRequest(t, srv, http.MethodGet, "/api/matchup?season=2023&home=1&away=999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "Unknown team should 404")
}

func TestGetSeasons(t *testing.T) {
	srv, db := setupTestServer(t)
	seedSeason(t, db, league.NBA, 2022)
	seedSeason(t, db, league.NBA, 2023)

	rec, payload := doRequest(t, srv, http.MethodGet, "/api/seasons?league=NBA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{float64(2023), float64(2022)}, payload["seasons"])
	assert.Equal(t, []interface{}{"2023-24", "2022-23"}, payload["labels"])
}

func TestTriggerRefresh(t *testing.T) {
	srv, _ := setupTestServer(t)

	body := []byte(`{"league":"NBA","start_year":2023,"end_year":2023}`)
	rec, payload := doRequest(t, srv, http.MethodPost, "/api/refresh", body)
	require.Equal(t, http.StatusAccepted, rec.Code, "Refresh should be accepted for background execution")

	job := payload["job"].(map[string]interface{})
	jobID := job["id"].(string)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		rec, payload := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/refresh/status?id=%s", jobID), nil)
		if rec.Code != http.StatusOK {
			return false
		}
		job := payload["job"].(map[string]interface{})
		return job["status"] == string(refresh.JobStatusCompleted)
	}, 2*time.Second, 10*time.Millisecond, "Job should complete")
}

func TestTriggerRefreshDefaultsToAllLeagues(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, payload := doRequest(t, srv, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	job := payload["job"].(map[string]interface{})
	assert.Equal(t, []interface{}{"NBA", "WNBA"}, job["leagues"],
		"Refresh without an explicit league must cover every supported league")
	jobID := job["id"].(string)

	require.Eventually(t, func() bool {
		rec, payload := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/refresh/status?id=%s", jobID), nil)
		if rec.Code != http.StatusOK {
			return false
		}
		job := payload["job"].(map[string]interface{})
		return job["status"] == string(refresh.JobStatusCompleted) &&
			job["completed_units"] == float64(2)
	}, 2*time.Second, 10*time.Millisecond, "Both leagues should be harvested")
}

func TestTriggerRefreshRejectsBadRange(t *testing.T) {
	srv, _ := setupTestServer(t)

	body := []byte(`{"league":"NBA","start_year":2024,"end_year":2020}`)
	rec, _ := doRequest(t, srv, http.MethodPost, "/api/refresh", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshStatusBeforeAnyJob(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/api/refresh/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, srv, http.MethodGet, "/api/refresh/status?id=refresh-0-0", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
