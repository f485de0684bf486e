package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*Database, context.Context) {
	ctx := context.Background()

	db, err := NewDatabase(ctx, Config{Path: ""})
	require.NoError(t, err, "Failed to open in-memory test database")

	return db, ctx
}

func teardownTestDB(t *testing.T, db *Database) {
	db.Close()
}

func testTeam(lg league.League, season int, teamID int64, name string, winPct float64) *models.TeamRecord {
	return &models.TeamRecord{
		League:      lg,
		Season:      season,
		TeamID:      teamID,
		TeamName:    name,
		GamesPlayed: 82,
		Wins:        int64(winPct * 82),
		Losses:      82 - int64(winPct*82),
		WinPct:      winPct,
		Points:      112.5,
		Rebounds:    44.2,
		Assists:     26.1,
		FGPct:       0.478,
		OffRating:   116.2,
		DefRating:   111.8,
		NetRating:   4.4,
		TSPct:       0.581,
		Pace:        99.1,
		PIE:         0.52,
	}
}

func testPlayer(lg league.League, season int, playerID, teamID int64, name string, pts float64) *models.PlayerRecord {
	return &models.PlayerRecord{
		League:      lg,
		Season:      season,
		PlayerID:    playerID,
		TeamID:      teamID,
		PlayerName:  name,
		TeamAbbr:    "TST",
		Age:         27,
		GamesPlayed: 70,
		Minutes:     32.4,
		Points:      pts,
		Rebounds:    5.5,
		Assists:     4.2,
		TSPct:       0.59,
		UsgPct:      0.24,
	}
}

func TestDatabaseConnection(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.Health(ctx)
	assert.NoError(t, err, "Database health check should pass")

	teams, players, err := db.Counts(ctx)
	require.NoError(t, err, "Should count rows on a fresh database")
	assert.Zero(t, teams, "Fresh database should hold no team records")
	assert.Zero(t, players, "Fresh database should hold no player records")
}

func TestDatabaseSchemaIsIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Re-running DDL against an initialized database must be a no-op.
	err := db.initSchema(ctx)
	assert.NoError(t, err, "Schema init should tolerate existing tables")
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()

	src, ctx := setupTestDB(t)
	err := src.Teams.ReplacePartition(ctx, league.NBA, 2023, []*models.TeamRecord{
		testTeam(league.NBA, 2023, 1, "Boston Celtics", 0.78),
		testTeam(league.NBA, 2023, 2, "Denver Nuggets", 0.69),
	})
	require.NoError(t, err, "Should store team partition")
	err = src.Players.ReplacePartition(ctx, league.NBA, 2023, []*models.PlayerRecord{
		testPlayer(league.NBA, 2023, 100, 1, "Jayson Tatum", 26.9),
		testPlayer(league.NBA, 2023, 101, 2, "Nikola Jokic", 26.4),
	})
	require.NoError(t, err, "Should store player partition")

	err = src.ExportParquet(ctx, dir)
	require.NoError(t, err, "Should export parquet snapshots")
	src.Close()

	assert.FileExists(t, filepath.Join(dir, "teams.parquet"))
	assert.FileExists(t, filepath.Join(dir, "players.parquet"))

	dst, ctx := setupTestDB(t)
	defer teardownTestDB(t, dst)

	err = dst.BootstrapFromParquet(ctx, dir)
	require.NoError(t, err, "Should bootstrap from parquet snapshots")

	teams, players, err := dst.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), teams, "Bootstrap should restore the team rows")
	assert.Equal(t, int64(2), players, "Bootstrap should restore the player rows")

	recs, err := dst.Teams.ListBySeason(ctx, league.NBA, 2023)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Boston Celtics", recs[0].TeamName, "Restored rows should keep their values")
}

func TestBootstrapSkipsNonEmptyDatabase(t *testing.T) {
	dir := t.TempDir()

	src, ctx := setupTestDB(t)
	err := src.Teams.ReplacePartition(ctx, league.NBA, 2022, []*models.TeamRecord{
		testTeam(league.NBA, 2022, 1, "Golden State Warriors", 0.64),
	})
	require.NoError(t, err)
	require.NoError(t, src.ExportParquet(ctx, dir))
	src.Close()

	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err = db.Teams.ReplacePartition(ctx, league.NBA, 2023, []*models.TeamRecord{
		testTeam(league.NBA, 2023, 2, "Denver Nuggets", 0.69),
	})
	require.NoError(t, err)

	err = db.BootstrapFromParquet(ctx, dir)
	require.NoError(t, err, "Bootstrap against a populated database should be a no-op")

	teams, _, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), teams, "Existing data must not be overwritten by a snapshot")
}

func TestBootstrapToleratesMissingSnapshots(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.BootstrapFromParquet(ctx, t.TempDir())
	assert.NoError(t, err, "Missing snapshot files should not be an error")

	teams, players, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, teams)
	assert.Zero(t, players)
}
