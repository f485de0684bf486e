package store

import (
	"testing"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository_ReplacePartition(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	records := []*models.PlayerRecord{
		testPlayer(league.NBA, 2023, 100, 1, "Jayson Tatum", 26.9),
		testPlayer(league.NBA, 2023, 101, 1, "Jaylen Brown", 23.0),
		testPlayer(league.NBA, 2023, 102, 2, "Nikola Jokic", 26.4),
	}

	err := db.Players.ReplacePartition(ctx, league.NBA, 2023, records)
	require.NoError(t, err, "Should store player partition")

	players, err := db.Players.ListByTeam(ctx, league.NBA, 2023, 1)
	require.NoError(t, err)
	require.Len(t, players, 2, "Should only return the requested team's players")
	assert.Equal(t, "Jayson Tatum", players[0].PlayerName, "Leading scorer should sort first")
	assert.Equal(t, "Jaylen Brown", players[1].PlayerName)
}

func TestPlayerRepository_ReplacePartitionIsIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	records := []*models.PlayerRecord{
		testPlayer(league.NBA, 2023, 100, 1, "Jayson Tatum", 26.9),
		testPlayer(league.NBA, 2023, 101, 1, "Jaylen Brown", 23.0),
	}
	require.NoError(t, db.Players.ReplacePartition(ctx, league.NBA, 2023, records))

	records[0].Points = 27.2
	require.NoError(t, db.Players.ReplacePartition(ctx, league.NBA, 2023, records))

	players, err := db.Players.ListByTeam(ctx, league.NBA, 2023, 1)
	require.NoError(t, err)
	require.Len(t, players, 2, "Re-harvesting a season must not duplicate rows")
	assert.InDelta(t, 27.2, players[0].Points, 1e-9, "Re-harvest should overwrite stale values")
}

func TestPlayerRepository_ReplacePartitionRejectsMismatchedRecords(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.Players.ReplacePartition(ctx, league.NBA, 2023, []*models.PlayerRecord{
		testPlayer(league.WNBA, 2023, 200, 50, "A'ja Wilson", 22.8),
	})
	require.Error(t, err, "Record keyed to another league must be rejected")

	_, players, cerr := db.Counts(ctx)
	require.NoError(t, cerr)
	assert.Zero(t, players, "Rejected batch must not store anything")
}

func TestPlayerRepository_TradedPlayerAppearsPerTeam(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// A midseason trade yields one row per (player, team) pair.
	records := []*models.PlayerRecord{
		testPlayer(league.NBA, 2023, 300, 1, "James Harden", 21.0),
		testPlayer(league.NBA, 2023, 300, 2, "James Harden", 16.6),
	}
	require.NoError(t, db.Players.ReplacePartition(ctx, league.NBA, 2023, records))

	first, err := db.Players.ListByTeam(ctx, league.NBA, 2023, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := db.Players.ListByTeam(ctx, league.NBA, 2023, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.InDelta(t, 16.6, second[0].Points, 1e-9, "Each stint keeps its own stat line")
}

func TestPlayerRepository_ListByTeamEmpty(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	players, err := db.Players.ListByTeam(ctx, league.NBA, 2023, 42)
	require.NoError(t, err, "Unfetched partition is a valid empty state, not an error")
	assert.NotNil(t, players, "Should return an empty slice, not nil")
	assert.Empty(t, players)
}

func TestStoreSeasonSnapshot(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	teams := []*models.TeamRecord{
		testTeam(league.NBA, 2023, 1, "Boston Celtics", 0.78),
		testTeam(league.NBA, 2023, 2, "Denver Nuggets", 0.69),
	}
	var players []*models.PlayerRecord
	names := []string{"Tatum", "Brown", "White", "Holiday", "Porzingis", "Jokic", "Murray", "Porter", "Gordon", "Caldwell-Pope"}
	for i, name := range names {
		teamID := int64(1)
		if i >= 5 {
			teamID = 2
		}
		players = append(players, testPlayer(league.NBA, 2023, int64(100+i), teamID, name, 25-float64(i)))
	}

	require.NoError(t, db.Teams.ReplacePartition(ctx, league.NBA, 2023, teams))
	require.NoError(t, db.Players.ReplacePartition(ctx, league.NBA, 2023, players))

	teamCount, playerCount, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), teamCount)
	assert.Equal(t, int64(10), playerCount)

	roster, err := db.Players.ListByTeam(ctx, league.NBA, 2023, 2)
	require.NoError(t, err)
	require.Len(t, roster, 5, "Each team should carry its five players")
	assert.Equal(t, "Jokic", roster[0].PlayerName)
}
