package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/metrics"
	"github.com/dwlarson10/basketball-stats/internal/models"

	"github.com/rs/zerolog/log"
)

// TeamRepository handles team record storage operations.
type TeamRepository struct {
	db *Database
}

const teamColumns = `league_id, season, team_id, team_name, gp, wins, losses, win_pct,
	pts, reb, ast, stl, blk, tov, fg_pct, fg3_pct, ft_pct, plus_minus,
	off_rating, def_rating, net_rating, ts_pct, pace, pie`

// ReplacePartition atomically replaces the (league, season) partition with
// the given records. The delete and inserts run in one transaction, so a
// concurrent reader sees either the old partition or the new one, never a
// mix; on any failure the transaction rolls back and the prior on-disk
// state stays intact.
func (r *TeamRepository) ReplacePartition(ctx context.Context, lg league.League, season int, records []*models.TeamRecord) error {
	for _, rec := range records {
		if rec.League != lg || rec.Season != season {
			return fmt.Errorf("team record %d keyed to (%s, %d) does not belong to partition (%s, %d)",
				rec.TeamID, rec.League, rec.Season, lg, season)
		}
	}

	start := time.Now()
	err := r.replacePartition(ctx, lg, season, records)
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordPartitionSwap("team_stats", status, time.Since(start).Seconds())
	return err
}

func (r *TeamRepository) replacePartition(ctx context.Context, lg league.League, season int, records []*models.TeamRecord) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin partition swap: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM team_stats WHERE league_id = ? AND season = ?`,
		string(lg), season,
	); err != nil {
		return fmt.Errorf("failed to clear team partition: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO team_stats (`+teamColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare team insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			string(rec.League), rec.Season, rec.TeamID, rec.TeamName,
			rec.GamesPlayed, rec.Wins, rec.Losses, rec.WinPct,
			rec.Points, rec.Rebounds, rec.Assists, rec.Steals, rec.Blocks, rec.Turnovers,
			rec.FGPct, rec.FG3Pct, rec.FTPct, rec.PlusMinus,
			rec.OffRating, rec.DefRating, rec.NetRating, rec.TSPct, rec.Pace, rec.PIE,
		); err != nil {
			return fmt.Errorf("failed to insert team record %d: %w", rec.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit team partition swap: %w", err)
	}

	log.Debug().
		Str("league", lg.Name()).
		Int("season", season).
		Int("records", len(records)).
		Msg("Team partition replaced")

	return nil
}

func scanTeam(scan func(dest ...interface{}) error) (*models.TeamRecord, error) {
	var rec models.TeamRecord
	var lg string
	err := scan(
		&lg, &rec.Season, &rec.TeamID, &rec.TeamName,
		&rec.GamesPlayed, &rec.Wins, &rec.Losses, &rec.WinPct,
		&rec.Points, &rec.Rebounds, &rec.Assists, &rec.Steals, &rec.Blocks, &rec.Turnovers,
		&rec.FGPct, &rec.FG3Pct, &rec.FTPct, &rec.PlusMinus,
		&rec.OffRating, &rec.DefRating, &rec.NetRating, &rec.TSPct, &rec.Pace, &rec.PIE,
	)
	if err != nil {
		return nil, err
	}
	rec.League = league.League(lg)
	return &rec, nil
}

// ListBySeason returns all team records for a (league, season), best record
// first. An unfetched season yields an empty slice, not an error.
func (r *TeamRepository) ListBySeason(ctx context.Context, lg league.League, season int) ([]*models.TeamRecord, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT `+teamColumns+`
		FROM team_stats
		WHERE league_id = ? AND season = ?
		ORDER BY win_pct DESC, team_name
	`, string(lg), season)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.TeamRecord, 0)
	for rows.Next() {
		rec, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team record: %w", err)
		}
		teams = append(teams, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team records: %w", err)
	}

	return teams, nil
}

// GetByTeamID retrieves a single team record.
func (r *TeamRepository) GetByTeamID(ctx context.Context, lg league.League, season int, teamID int64) (*models.TeamRecord, error) {
	row := r.db.conn.QueryRowContext(ctx, `
		SELECT `+teamColumns+`
		FROM team_stats
		WHERE league_id = ? AND season = ? AND team_id = ?
	`, string(lg), season, teamID)

	rec, err := scanTeam(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("team %d not found for %s %d: %w", teamID, lg.Name(), season, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team record: %w", err)
	}
	return rec, nil
}

// ListSeasons returns the seasons stored for a league, newest first.
func (r *TeamRepository) ListSeasons(ctx context.Context, lg league.League) ([]int, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT DISTINCT season FROM team_stats
		WHERE league_id = ?
		ORDER BY season DESC
	`, string(lg))
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	seasons := make([]int, 0)
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seasons: %w", err)
	}

	return seasons, nil
}
