package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/refresh"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler triggers a nightly refresh of the season in progress for each
// configured league. The refresh service runs one job at a time, so the
// leagues are harvested back to back rather than in parallel.
type Scheduler struct {
	schedule string
	leagues  []league.League
	svc      *refresh.Service
	cron     *cron.Cron
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(schedule string, leagues []league.League, svc *refresh.Service) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		leagues:  leagues,
		svc:      svc,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		log.Info().Msg("Running nightly refresh...")
		s.refreshCurrentSeason()
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.schedule).
		Msg("Nightly refresh scheduled")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// refreshCurrentSeason enqueues a single job covering the in-progress
// season for every configured league and waits for it to finish.
func (s *Scheduler) refreshCurrentSeason() {
	season := league.CurrentSeasonYear(time.Now())

	job, err := s.svc.EnqueueLeagues(s.leagues, season, season)
	if errors.Is(err, refresh.ErrJobInProgress) {
		log.Warn().Msg("Skipping nightly refresh, a job is already running")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue nightly refresh")
		return
	}

	s.waitForJob(job.ID)
}

// waitForJob polls until the job reaches a terminal state. Returns false
// when the scheduler is stopping.
func (s *Scheduler) waitForJob(id string) bool {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return false
		case <-ticker.C:
			job, err := s.svc.Status(id)
			if err != nil {
				log.Error().Err(err).Str("job_id", id).Msg("Lost track of nightly refresh job")
				return true
			}
			switch job.Status {
			case refresh.JobStatusCompleted, refresh.JobStatusFailed, refresh.JobStatusCancelled:
				log.Info().
					Str("job_id", id).
					Str("status", string(job.Status)).
					Int("completed", job.Completed).
					Int("skipped", job.Skipped).
					Msg("Nightly refresh job finished")
				return true
			}
		}
	}
}
