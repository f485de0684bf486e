package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/metrics"
	"github.com/dwlarson10/basketball-stats/internal/models"

	"github.com/rs/zerolog/log"
)

// PlayerRepository handles player record storage operations.
type PlayerRepository struct {
	db *Database
}

const playerColumns = `league_id, season, player_id, team_id, player_name, team_abbr, age, gp, min,
	pts, reb, ast, stl, blk, tov, fg_pct, fg3_pct, ft_pct,
	off_rating, def_rating, net_rating, ts_pct, usg_pct, pie`

// ReplacePartition atomically replaces the (league, season) player partition.
// Same contract as TeamRepository.ReplacePartition.
func (r *PlayerRepository) ReplacePartition(ctx context.Context, lg league.League, season int, records []*models.PlayerRecord) error {
	for _, rec := range records {
		if rec.League != lg || rec.Season != season {
			return fmt.Errorf("player record %d keyed to (%s, %d) does not belong to partition (%s, %d)",
				rec.PlayerID, rec.League, rec.Season, lg, season)
		}
	}

	start := time.Now()
	err := r.replacePartition(ctx, lg, season, records)
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordPartitionSwap("player_stats", status, time.Since(start).Seconds())
	return err
}

func (r *PlayerRepository) replacePartition(ctx context.Context, lg league.League, season int, records []*models.PlayerRecord) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin partition swap: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM player_stats WHERE league_id = ? AND season = ?`,
		string(lg), season,
	); err != nil {
		return fmt.Errorf("failed to clear player partition: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO player_stats (`+playerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare player insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			string(rec.League), rec.Season, rec.PlayerID, rec.TeamID,
			rec.PlayerName, rec.TeamAbbr, rec.Age, rec.GamesPlayed, rec.Minutes,
			rec.Points, rec.Rebounds, rec.Assists, rec.Steals, rec.Blocks, rec.Turnovers,
			rec.FGPct, rec.FG3Pct, rec.FTPct,
			rec.OffRating, rec.DefRating, rec.NetRating, rec.TSPct, rec.UsgPct, rec.PIE,
		); err != nil {
			return fmt.Errorf("failed to insert player record %d: %w", rec.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit player partition swap: %w", err)
	}

	log.Debug().
		Str("league", lg.Name()).
		Int("season", season).
		Int("records", len(records)).
		Msg("Player partition replaced")

	return nil
}

// ListByTeam returns all player records for a team in a (league, season),
// leading scorers first. An unfetched partition yields an empty slice.
func (r *PlayerRepository) ListByTeam(ctx context.Context, lg league.League, season int, teamID int64) ([]*models.PlayerRecord, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT `+playerColumns+`
		FROM player_stats
		WHERE league_id = ? AND season = ? AND team_id = ?
		ORDER BY pts DESC
	`, string(lg), season, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.PlayerRecord, 0)
	for rows.Next() {
		var rec models.PlayerRecord
		var lgCol string
		if err := rows.Scan(
			&lgCol, &rec.Season, &rec.PlayerID, &rec.TeamID,
			&rec.PlayerName, &rec.TeamAbbr, &rec.Age, &rec.GamesPlayed, &rec.Minutes,
			&rec.Points, &rec.Rebounds, &rec.Assists, &rec.Steals, &rec.Blocks, &rec.Turnovers,
			&rec.FGPct, &rec.FG3Pct, &rec.FTPct,
			&rec.OffRating, &rec.DefRating, &rec.NetRating, &rec.TSPct, &rec.UsgPct, &rec.PIE,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player record: %w", err)
		}
		rec.League = league.League(lgCol)
		players = append(players, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player records: %w", err)
	}

	return players, nil
}
