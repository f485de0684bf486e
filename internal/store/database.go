package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by single-record lookups. Listing operations never
// return it: an unfetched (league, season) is a valid empty state.
var ErrNotFound = errors.New("record not found")

// Database holds the DuckDB handle and provides access to repositories.
// It is the only component allowed to touch the database file; callers get
// an explicit handle with an open/close lifecycle instead of a package-level
// connection.
type Database struct {
	conn *sql.DB
	path string

	Teams   *TeamRepository
	Players *PlayerRepository
}

// Config holds storage configuration. An empty Path opens an in-memory
// database, which is what the tests use.
type Config struct {
	Path string
}

// NewDatabase opens (creating if necessary) the analytical database and
// initializes the schema and repositories.
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	conn, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is embedded and single-writer; a small pool is plenty and
	// keeps reader connections available during a partition swap.
	conn.SetMaxOpenConns(4)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &Database{
		conn: conn,
		path: cfg.Path,
	}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	db.Teams = &TeamRepository{db: db}
	db.Players = &PlayerRepository{db: db}

	log.Info().
		Str("path", cfg.Path).
		Msg("Analytical database opened")

	return db, nil
}

func (db *Database) initSchema(ctx context.Context) error {
	const teams = `
		CREATE TABLE IF NOT EXISTS team_stats (
			league_id  VARCHAR NOT NULL,
			season     INTEGER NOT NULL,
			team_id    BIGINT  NOT NULL,
			team_name  VARCHAR,
			gp         BIGINT,
			wins       BIGINT,
			losses     BIGINT,
			win_pct    DOUBLE,
			pts        DOUBLE,
			reb        DOUBLE,
			ast        DOUBLE,
			stl        DOUBLE,
			blk        DOUBLE,
			tov        DOUBLE,
			fg_pct     DOUBLE,
			fg3_pct    DOUBLE,
			ft_pct     DOUBLE,
			plus_minus DOUBLE,
			off_rating DOUBLE,
			def_rating DOUBLE,
			net_rating DOUBLE,
			ts_pct     DOUBLE,
			pace       DOUBLE,
			pie        DOUBLE,
			PRIMARY KEY (league_id, season, team_id)
		)
	`

	const players = `
		CREATE TABLE IF NOT EXISTS player_stats (
			league_id   VARCHAR NOT NULL,
			season      INTEGER NOT NULL,
			player_id   BIGINT  NOT NULL,
			team_id     BIGINT  NOT NULL,
			player_name VARCHAR,
			team_abbr   VARCHAR,
			age         DOUBLE,
			gp          BIGINT,
			min         DOUBLE,
			pts         DOUBLE,
			reb         DOUBLE,
			ast         DOUBLE,
			stl         DOUBLE,
			blk         DOUBLE,
			tov         DOUBLE,
			fg_pct      DOUBLE,
			fg3_pct     DOUBLE,
			ft_pct      DOUBLE,
			off_rating  DOUBLE,
			def_rating  DOUBLE,
			net_rating  DOUBLE,
			ts_pct      DOUBLE,
			usg_pct     DOUBLE,
			pie         DOUBLE,
			PRIMARY KEY (league_id, season, player_id, team_id)
		)
	`

	for _, ddl := range []string{teams, players} {
		if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Close closes the database handle.
func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
		log.Info().Msg("Analytical database closed")
	}
}

// Health checks if the database is reachable.
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Counts returns the stored row counts for the two logical tables.
func (db *Database) Counts(ctx context.Context) (teams int64, players int64, err error) {
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_stats`).Scan(&teams); err != nil {
		return 0, 0, fmt.Errorf("failed to count team records: %w", err)
	}
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM player_stats`).Scan(&players); err != nil {
		return 0, 0, fmt.Errorf("failed to count player records: %w", err)
	}
	return teams, players, nil
}
