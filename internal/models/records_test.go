package models

import (
	"encoding/json"
	"testing"

	"github.com/dwlarson10/basketball-stats/internal/league"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamBaseSet() *ResultSet {
	return &ResultSet{
		Name:    "LeagueDashTeamStats",
		Headers: []string{"TEAM_ID", "TEAM_NAME", "GP", "W", "L", "W_PCT", "PTS", "REB", "AST", "FG_PCT"},
		RowSet: [][]interface{}{
			{float64(1610612738), "Boston Celtics", float64(82), float64(64), float64(18), 0.78, 120.6, 46.3, 26.9, 0.487},
			{float64(1610612743), "Denver Nuggets", float64(82), float64(57), float64(25), 0.695, 114.9, 44.1, 29.5, 0.497},
		},
	}
}

func teamAdvancedSet() *ResultSet {
	return &ResultSet{
		Name:    "LeagueDashTeamStats",
		Headers: []string{"TEAM_ID", "TEAM_NAME", "OFF_RATING", "DEF_RATING", "NET_RATING", "TS_PCT", "PACE", "PIE"},
		RowSet: [][]interface{}{
			{float64(1610612738), "Boston Celtics", 122.2, 110.6, 11.6, 0.605, 97.5, 0.562},
			{float64(1610612743), "Denver Nuggets", 117.8, 112.3, 5.5, 0.595, 96.9, 0.534},
		},
	}
}

func TestTeamRecordsFromResultSets(t *testing.T) {
	records, err := TeamRecordsFromResultSets(league.NBA, 2023, teamBaseSet(), teamAdvancedSet())
	require.NoError(t, err)
	require.Len(t, records, 2)

	bos := records[0]
	assert.Equal(t, league.NBA, bos.League)
	assert.Equal(t, 2023, bos.Season)
	assert.Equal(t, int64(1610612738), bos.TeamID)
	assert.Equal(t, "Boston Celtics", bos.TeamName)
	assert.Equal(t, int64(64), bos.Wins)
	assert.Equal(t, int64(18), bos.Losses)
	assert.Equal(t, 120.6, bos.Points)
	assert.Equal(t, 122.2, bos.OffRating, "advanced measure should be merged by team id")
	assert.Equal(t, 11.6, bos.NetRating)
}

func TestTeamRecordsMissingAdvancedRow(t *testing.T) {
	advanced := teamAdvancedSet()
	advanced.RowSet = advanced.RowSet[:1]

	records, err := TeamRecordsFromResultSets(league.NBA, 2023, teamBaseSet(), advanced)
	require.NoError(t, err)
	require.Len(t, records, 2)

	den := records[1]
	assert.Equal(t, 114.9, den.Points, "base stats survive a missing advanced row")
	assert.Zero(t, den.OffRating)
}

func TestTeamRecordsMissingKey(t *testing.T) {
	base := teamBaseSet()
	base.RowSet[1][0] = nil

	_, err := TeamRecordsFromResultSets(league.NBA, 2023, base, nil)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "team", verr.Entity)
	assert.Equal(t, "TEAM_ID", verr.Field)
	assert.Equal(t, 1, verr.Row)
}

func playerBaseSet() *ResultSet {
	return &ResultSet{
		Headers: []string{"PLAYER_ID", "PLAYER_NAME", "TEAM_ID", "TEAM_ABBREVIATION", "AGE", "GP", "MIN", "PTS", "REB", "AST"},
		RowSet: [][]interface{}{
			{float64(1628369), "Jayson Tatum", float64(1610612738), "BOS", float64(26), float64(74), 35.7, 26.9, 8.1, 4.9},
			// Traded mid-season: same player, two team rows.
			{float64(203999), "Nikola Jokic", float64(1610612743), "DEN", float64(29), float64(79), 34.6, 26.4, 12.4, 9.0},
		},
	}
}

func playerAdvancedSet() *ResultSet {
	return &ResultSet{
		Headers: []string{"PLAYER_ID", "TEAM_ID", "OFF_RATING", "DEF_RATING", "NET_RATING", "TS_PCT", "USG_PCT", "PIE"},
		RowSet: [][]interface{}{
			{float64(1628369), float64(1610612738), 121.9, 110.4, 11.5, 0.609, 0.295, 0.156},
			{float64(203999), float64(1610612743), 123.2, 111.9, 11.3, 0.648, 0.29, 0.209},
		},
	}
}

func TestPlayerRecordsFromResultSets(t *testing.T) {
	records, err := PlayerRecordsFromResultSets(league.NBA, 2023, playerBaseSet(), playerAdvancedSet())
	require.NoError(t, err)
	require.Len(t, records, 2)

	tatum := records[0]
	assert.Equal(t, int64(1628369), tatum.PlayerID)
	assert.Equal(t, int64(1610612738), tatum.TeamID)
	assert.Equal(t, "BOS", tatum.TeamAbbr)
	assert.Equal(t, 26.9, tatum.Points)
	assert.Equal(t, 0.295, tatum.UsgPct, "advanced measure keyed by (player, team)")
}

func TestPlayerRecordsMissingKey(t *testing.T) {
	base := playerBaseSet()
	base.RowSet[0][2] = nil // TEAM_ID

	_, err := PlayerRecordsFromResultSets(league.NBA, 2023, base, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "TEAM_ID", verr.Field)
}

func TestResponseDecoding(t *testing.T) {
	raw := `{
		"resource": "leaguedashteamstats",
		"resultSets": [{
			"name": "LeagueDashTeamStats",
			"headers": ["TEAM_ID", "TEAM_NAME", "PTS"],
			"rowSet": [[1610612738, "Boston Celtics", 120.6]]
		}]
	}`

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	rs, err := resp.First()
	require.NoError(t, err)

	rows := rs.Rows()
	require.Len(t, rows, 1)

	id, ok := rows[0].Int("TEAM_ID")
	require.True(t, ok)
	assert.Equal(t, int64(1610612738), id)
	assert.Equal(t, "Boston Celtics", rows[0].Str("TEAM_NAME"))

	_, ok = rows[0].Float("NO_SUCH_COLUMN")
	assert.False(t, ok)
}

func TestResponseFirstEmpty(t *testing.T) {
	resp := Response{Resource: "leaguedashteamstats"}
	_, err := resp.First()
	assert.Error(t, err)
}
