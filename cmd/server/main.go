// Command server runs the basketball stats dashboard: the web UI, the JSON
// API, the background refresh worker and the nightly scheduler.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/cache"
	"github.com/dwlarson10/basketball-stats/internal/client"
	"github.com/dwlarson10/basketball-stats/internal/config"
	"github.com/dwlarson10/basketball-stats/internal/harvest"
	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/metrics"
	"github.com/dwlarson10/basketball-stats/internal/refresh"
	"github.com/dwlarson10/basketball-stats/internal/scheduler"
	"github.com/dwlarson10/basketball-stats/internal/store"
	"github.com/dwlarson10/basketball-stats/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting basketball stats dashboard")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Open storage and fall back to parquet snapshots when the database
	// file is new but earlier harvests were exported.
	db, err := store.NewDatabase(ctx, store.Config{Path: cfg.DatabasePath})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.BootstrapFromParquet(ctx, cfg.DataDir); err != nil {
		log.Warn().Err(err).Msg("Parquet bootstrap failed, starting with what the database holds")
	}

	teams, players, err := db.Counts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read record counts")
	}
	metrics.UpdateStoredRecordCounts(teams, players)
	log.Info().
		Int64("team_records", teams).
		Int64("player_records", players).
		Msg("Storage ready")

	// Redis is optional; the dashboard just queries the database directly
	// without it.
	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info().Msg("Redis cache connected")
		}
	}

	nbaClient := client.NewClient(cfg.NBAStatsBaseURL, cfg.NBAStatsTimeout, client.Options{
		MaxRetries:   cfg.NBAStatsMaxRetries,
		RetryDelay:   cfg.NBAStatsRetryDelay,
		RequestDelay: cfg.NBAStatsRequestDelay,
	})
	harvester := harvest.NewHarvester(nbaClient, db.Teams, db.Players, harvest.Options{
		Timeout: cfg.HarvestTimeout,
	})

	// Refresh jobs run the harvester, then refresh the parquet snapshots
	// and drop cached query results so readers see the new partitions.
	refreshSvc := refresh.NewService(func(ctx context.Context, rng league.Range) (*harvest.Result, error) {
		result, err := harvester.Run(ctx, rng)
		if err != nil {
			return result, err
		}

		if len(result.Completed) > 0 {
			if err := db.ExportParquet(ctx, cfg.DataDir); err != nil {
				log.Error().Err(err).Msg("Failed to export parquet snapshots after refresh")
			}
			if err := redisCache.InvalidatePrefix(ctx, cache.Key()); err != nil {
				log.Warn().Err(err).Msg("Failed to invalidate cache after refresh")
			}
		}

		if teams, players, err := db.Counts(ctx); err == nil {
			metrics.UpdateStoredRecordCounts(teams, players)
		}
		return result, nil
	})
	refreshSvc.Start()

	var sched *scheduler.Scheduler
	if cfg.EnableScheduler {
		sched = scheduler.NewScheduler(cfg.NightlyRefreshCron, league.Supported(), refreshSvc)
		if err := sched.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	server := web.NewServer(strconv.Itoa(cfg.ServerPort), db, redisCache, refreshSvc)
	server.SetCacheTTLs(web.CacheTTLs{
		Teams:   time.Duration(cfg.CacheTTLTeams) * time.Second,
		Players: time.Duration(cfg.CacheTTLPlayers) * time.Second,
		Seasons: time.Duration(cfg.CacheTTLSeasons) * time.Second,
	})
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Dashboard server listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Dashboard server failed")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Dashboard server shutdown failed")
	}
	if sched != nil {
		sched.Stop()
	}
	if err := refreshSvc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Refresh service shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
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

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
