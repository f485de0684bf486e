// Command harvest pulls per-season team and player statistics from the NBA
// Stats API into the analytical database and exports Parquet snapshots.
// Re-running it for a range is safe: each season partition is replaced
// wholesale, never appended to.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/client"
	"github.com/dwlarson10/basketball-stats/internal/config"
	"github.com/dwlarson10/basketball-stats/internal/harvest"
	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		leagueFlag     = flag.String("league-id", "NBA", "league to harvest (NBA, WNBA or a LeagueID like 00)")
		startYear      = flag.Int("start-year", 0, "first season start year (e.g. 2015 for 2015-16)")
		endYear        = flag.Int("end-year", 0, "last season start year, defaults to start-year")
		seasonTypeFlag = flag.String("season-type", string(league.RegularSeason), "Regular Season or Playoffs")
		perModeFlag    = flag.String("per-mode", string(league.PerGame), "PerGame or Totals")
		dbPath         = flag.String("db", "", "database file path, overrides DATABASE_PATH")
		outDir         = flag.String("out", "", "parquet output directory, overrides DATA_DIR")
		delay          = flag.Duration("delay", 0, "minimum delay between API requests, overrides NBA_STATS_REQUEST_DELAY")
	)
	flag.StringVar(leagueFlag, "league", "NBA", "alias for -league-id")
	flag.Parse()

	setupLogger()

	cfg := config.MustLoad()
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *outDir != "" {
		cfg.DataDir = *outDir
	}
	if *delay > 0 {
		cfg.NBAStatsRequestDelay = *delay
	}

	lg, err := league.Parse(*leagueFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown league")
	}

	if *startYear == 0 {
		*startYear = league.CurrentSeasonYear(time.Now())
	}
	if *endYear == 0 {
		*endYear = *startYear
	}

	rng := league.Range{League: lg, StartYear: *startYear, EndYear: *endYear}
	if err := rng.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid season range")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, stopping harvest...")
		cancel()
	}()

	db, err := store.NewDatabase(ctx, store.Config{Path: cfg.DatabasePath})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	nbaClient := client.NewClient(cfg.NBAStatsBaseURL, cfg.NBAStatsTimeout, client.Options{
		MaxRetries:   cfg.NBAStatsMaxRetries,
		RetryDelay:   cfg.NBAStatsRetryDelay,
		RequestDelay: cfg.NBAStatsRequestDelay,
	})

	harvester := harvest.NewHarvester(nbaClient, db.Teams, db.Players, harvest.Options{
		SeasonType: league.SeasonType(*seasonTypeFlag),
		PerMode:    league.PerMode(*perModeFlag),
		Timeout:    cfg.HarvestTimeout,
	})

	result, err := harvester.Run(ctx, rng)
	if err != nil {
		log.Fatal().Err(err).Msg("Harvest aborted")
	}

	if len(result.Completed) > 0 {
		if err := db.ExportParquet(ctx, cfg.DataDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to export parquet snapshots")
		}
	}

	teams, players, err := db.Counts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read record counts")
	}

	log.Info().
		Int("seasons_completed", len(result.Completed)).
		Int("seasons_skipped", len(result.Skipped)).
		Int64("team_records", teams).
		Int64("player_records", players).
		Msg("Harvest complete")

	for _, skip := range result.Skipped {
		log.Warn().
			Str("unit", skip.Unit.String()).
			Err(skip.Err).
			Msg("Season was skipped")
	}

	if !result.FullySuccessful() {
		os.Exit(1)
	}
}

// setupLogger configures the zerolog logger
func setupLogger() {
	if os.Getenv("APP_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsedLevel, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)
}
