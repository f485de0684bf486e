package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/client"
	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/metrics"
	"github.com/dwlarson10/basketball-stats/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrNoData marks a season the upstream API returned no rows for. The unit
// is skipped without touching whatever is already stored for it.
var ErrNoData = errors.New("upstream returned no rows for season")

// ErrStorageWrite marks a database write failure. Unlike a transient fetch
// error, a write failure will recur for every remaining unit, so the run
// aborts instead of skipping.
var ErrStorageWrite = errors.New("storage write failed")

// Source fetches LeagueDash tables. Satisfied by *client.Client.
type Source interface {
	FetchTeamStats(ctx context.Context, lg league.League, seasonYear int, seasonType league.SeasonType, perMode league.PerMode, measure client.Measure) (*models.ResultSet, error)
	FetchPlayerStats(ctx context.Context, lg league.League, seasonYear int, seasonType league.SeasonType, perMode league.PerMode, measure client.Measure) (*models.ResultSet, error)
}

// TeamWriter and PlayerWriter persist one season partition at a time.
// Satisfied by the store repositories.
type TeamWriter interface {
	ReplacePartition(ctx context.Context, lg league.League, season int, records []*models.TeamRecord) error
}

type PlayerWriter interface {
	ReplacePartition(ctx context.Context, lg league.League, season int, records []*models.PlayerRecord) error
}

// Options tune a harvest run. Zero values mean regular season, per-game
// averages, no overall deadline.
type Options struct {
	SeasonType league.SeasonType
	PerMode    league.PerMode
	Timeout    time.Duration
}

// Unit identifies one (league, season) harvest unit.
type Unit struct {
	League league.League
	Season int
}

func (u Unit) String() string {
	return fmt.Sprintf("%s %s", u.League.Name(), league.SeasonString(u.Season))
}

// UnitError records a unit that was skipped and why.
type UnitError struct {
	Unit Unit
	Err  error
}

// Result summarizes a harvest run.
type Result struct {
	Completed []Unit
	Skipped   []UnitError
}

// FullySuccessful reports whether every requested unit landed.
func (r *Result) FullySuccessful() bool {
	return len(r.Skipped) == 0
}

// Harvester pulls season stat tables from the upstream API and replaces
// the corresponding database partitions.
type Harvester struct {
	source  Source
	teams   TeamWriter
	players PlayerWriter
	opts    Options
}

// NewHarvester creates a harvester. SeasonType and PerMode default to
// regular-season per-game stats.
func NewHarvester(source Source, teams TeamWriter, players PlayerWriter, opts Options) *Harvester {
	if opts.SeasonType == "" {
		opts.SeasonType = league.RegularSeason
	}
	if opts.PerMode == "" {
		opts.PerMode = league.PerGame
	}
	return &Harvester{
		source:  source,
		teams:   teams,
		players: players,
		opts:    opts,
	}
}

// Run harvests every season in the range. A season that fails upstream is
// logged, counted as skipped and does not stop the run, so one bad unit
// never blocks progress on the rest. Run returns an error when the range
// itself is invalid, the context ends, or a database write fails; data
// already landed stays landed either way.
func (h *Harvester) Run(ctx context.Context, rng league.Range) (*Result, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result := &Result{}

	log.Info().
		Str("league", rng.League.Name()).
		Int("start_year", rng.StartYear).
		Int("end_year", rng.EndYear).
		Str("season_type", string(h.opts.SeasonType)).
		Str("per_mode", string(h.opts.PerMode)).
		Msg("Starting harvest")

	for _, season := range rng.Seasons() {
		unit := Unit{League: rng.League, Season: season}

		if err := ctx.Err(); err != nil {
			metrics.RecordHarvest(rng.League.Name(), time.Since(start).Seconds(), false)
			return result, fmt.Errorf("harvest aborted before %s: %w", unit, err)
		}

		if err := h.harvestSeason(ctx, rng.League, season); err != nil {
			// Context and storage errors abort the whole run; anything
			// else is a per-unit failure and the loop moves on.
			if ctx.Err() != nil || errors.Is(err, ErrStorageWrite) {
				metrics.RecordHarvest(rng.League.Name(), time.Since(start).Seconds(), false)
				return result, fmt.Errorf("harvest aborted during %s: %w", unit, err)
			}

			log.Warn().
				Err(err).
				Str("unit", unit.String()).
				Msg("Skipping season after harvest failure")
			metrics.RecordHarvestUnit(rng.League.Name(), "skipped")
			result.Skipped = append(result.Skipped, UnitError{Unit: unit, Err: err})
			continue
		}

		metrics.RecordHarvestUnit(rng.League.Name(), "success")
		result.Completed = append(result.Completed, unit)
	}

	metrics.RecordHarvest(rng.League.Name(), time.Since(start).Seconds(), result.FullySuccessful())

	log.Info().
		Str("league", rng.League.Name()).
		Int("completed", len(result.Completed)).
		Int("skipped", len(result.Skipped)).
		Dur("elapsed", time.Since(start)).
		Msg("Harvest finished")

	return result, nil
}

// harvestSeason fetches all four tables for one season, merges them and
// swaps both partitions. Nothing is written until every fetch for the
// season has succeeded, so a mid-season failure leaves storage untouched.
func (h *Harvester) harvestSeason(ctx context.Context, lg league.League, season int) error {
	teamBase, err := h.source.FetchTeamStats(ctx, lg, season, h.opts.SeasonType, h.opts.PerMode, client.MeasureBase)
	if err != nil {
		return fmt.Errorf("fetching team base stats: %w", err)
	}
	teamAdvanced, err := h.source.FetchTeamStats(ctx, lg, season, h.opts.SeasonType, h.opts.PerMode, client.MeasureAdvanced)
	if err != nil {
		return fmt.Errorf("fetching team advanced stats: %w", err)
	}
	playerBase, err := h.source.FetchPlayerStats(ctx, lg, season, h.opts.SeasonType, h.opts.PerMode, client.MeasureBase)
	if err != nil {
		return fmt.Errorf("fetching player base stats: %w", err)
	}
	playerAdvanced, err := h.source.FetchPlayerStats(ctx, lg, season, h.opts.SeasonType, h.opts.PerMode, client.MeasureAdvanced)
	if err != nil {
		return fmt.Errorf("fetching player advanced stats: %w", err)
	}

	if len(teamBase.RowSet) == 0 && len(playerBase.RowSet) == 0 {
		return ErrNoData
	}

	teams, err := models.TeamRecordsFromResultSets(lg, season, teamBase, teamAdvanced)
	if err != nil {
		return fmt.Errorf("normalizing team stats: %w", err)
	}
	players, err := models.PlayerRecordsFromResultSets(lg, season, playerBase, playerAdvanced)
	if err != nil {
		return fmt.Errorf("normalizing player stats: %w", err)
	}

	if err := h.teams.ReplacePartition(ctx, lg, season, teams); err != nil {
		return fmt.Errorf("storing team partition: %w: %w", ErrStorageWrite, err)
	}
	if err := h.players.ReplacePartition(ctx, lg, season, players); err != nil {
		return fmt.Errorf("storing player partition: %w: %w", ErrStorageWrite, err)
	}

	log.Info().
		Str("league", lg.Name()).
		Str("season", league.SeasonString(season)).
		Int("teams", len(teams)).
		Int("players", len(players)).
		Msg("Season harvested")

	return nil
}
