package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	teamsParquetFile   = "teams.parquet"
	playersParquetFile = "players.parquet"
)

// ExportParquet writes full snapshots of both stat tables as Parquet files
// under dir, creating it if needed. Files are replaced wholesale on every
// export so they always mirror the current database contents.
func (db *Database) ExportParquet(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	exports := []struct {
		table string
		file  string
	}{
		{"team_stats", teamsParquetFile},
		{"player_stats", playersParquetFile},
	}

	for _, e := range exports {
		path := filepath.Join(dir, e.file)
		query := fmt.Sprintf("COPY %s TO '%s' (FORMAT PARQUET)", e.table, sqlEscape(path))
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("exporting %s to parquet: %w", e.table, err)
		}
		log.Debug().Str("table", e.table).Str("path", path).Msg("exported parquet snapshot")
	}

	return nil
}

// BootstrapFromParquet loads both tables from Parquet snapshots under dir
// when the database is empty and the files exist. It lets a fresh process
// serve previously harvested data without re-hitting the upstream API.
// A missing or partial snapshot is not an error; it just loads nothing.
func (db *Database) BootstrapFromParquet(ctx context.Context, dir string) error {
	teams, players, err := db.Counts(ctx)
	if err != nil {
		return err
	}
	if teams > 0 || players > 0 {
		return nil
	}

	imports := []struct {
		table string
		file  string
	}{
		{"team_stats", teamsParquetFile},
		{"player_stats", playersParquetFile},
	}

	for _, im := range imports {
		path := filepath.Join(dir, im.file)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		query := fmt.Sprintf("INSERT INTO %s SELECT * FROM read_parquet('%s')", im.table, sqlEscape(path))
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("loading %s from parquet: %w", im.table, err)
		}
		log.Info().Str("table", im.table).Str("path", path).Msg("bootstrapped table from parquet snapshot")
	}

	return nil
}

func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
