package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/harvest"
	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/metrics"

	"github.com/rs/zerolog/log"
)

// JobStatus represents the lifecycle state of a refresh job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

var (
	// ErrJobInProgress is returned when a refresh is requested while
	// another one is queued or running. Refreshes swap whole partitions,
	// so only one runs at a time.
	ErrJobInProgress = errors.New("a refresh job is already in progress")

	// ErrJobNotFound is returned by Status for an unknown job id.
	ErrJobNotFound = errors.New("refresh job not found")
)

// Job tracks one refresh request through its lifecycle. A job may span
// several leagues; its league ranges are harvested back to back.
type Job struct {
	ID          string            `json:"id"`
	Leagues     []league.League   `json:"league_ids"`
	LeagueNames []string          `json:"leagues"`
	StartYear   int               `json:"start_year"`
	EndYear     int               `json:"end_year"`
	Status      JobStatus         `json:"status"`
	Completed   int               `json:"completed_units"`
	Skipped     int               `json:"skipped_units"`
	SkipReasons map[string]string `json:"skip_reasons,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Copy returns a shallow copy so callers can't mutate service state.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// RunFunc executes the actual harvest for a job.
type RunFunc func(ctx context.Context, rng league.Range) (*harvest.Result, error)

// Service runs refresh jobs one at a time on a background worker. Jobs are
// fire-and-poll: Enqueue returns immediately and callers track progress
// through Status.
type Service struct {
	run RunFunc

	mu      sync.Mutex
	jobs    map[string]*Job
	order   []string
	active  string
	counter int

	queue  chan *Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(run RunFunc) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		run:    run,
		jobs:   make(map[string]*Job),
		queue:  make(chan *Job, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Shutdown cancels any running job and waits for the worker to exit.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a refresh job for a single-league season range.
func (s *Service) Enqueue(rng league.Range) (*Job, error) {
	return s.EnqueueLeagues([]league.League{rng.League}, rng.StartYear, rng.EndYear)
}

// EnqueueLeagues creates a refresh job covering the season range in each
// of the given leagues. It rejects the request when another job is still
// queued or running.
func (s *Service) EnqueueLeagues(leagues []league.League, startYear, endYear int) (*Job, error) {
	if len(leagues) == 0 {
		return nil, fmt.Errorf("refresh job needs at least one league")
	}
	names := make([]string, 0, len(leagues))
	for _, lg := range leagues {
		rng := league.Range{League: lg, StartYear: startYear, EndYear: endYear}
		if err := rng.Validate(); err != nil {
			return nil, err
		}
		names = append(names, lg.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != "" {
		return nil, fmt.Errorf("job %s: %w", s.active, ErrJobInProgress)
	}

	s.counter++
	job := &Job{
		ID:          fmt.Sprintf("refresh-%d-%d", time.Now().Unix(), s.counter),
		Leagues:     leagues,
		LeagueNames: names,
		StartYear:   startYear,
		EndYear:     endYear,
		Status:      JobStatusQueued,
		CreatedAt:   time.Now().UTC(),
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.active = job.ID
	s.pruneLocked()

	select {
	case s.queue <- job:
	default:
		// Queue capacity matches the single-active-job invariant, so
		// this cannot happen while the invariant holds.
		s.active = ""
		job.Status = JobStatusFailed
		job.Error = "worker queue full"
		return nil, ErrJobInProgress
	}

	log.Info().
		Str("job_id", job.ID).
		Strs("leagues", names).
		Int("start_year", startYear).
		Int("end_year", endYear).
		Msg("Refresh job queued")

	return job.Copy(), nil
}

// Status returns a snapshot of the job with the given id.
func (s *Service) Status(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
	}
	return job.Copy(), nil
}

// Latest returns a snapshot of the most recently enqueued job, or nil when
// no job has run yet.
func (s *Service) Latest() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil
	}
	return s.jobs[s.order[len(s.order)-1]].Copy()
}

func (s *Service) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.drainCancelled()
			return
		case job := <-s.queue:
			s.execute(job)
		}
	}
}

func (s *Service) execute(job *Job) {
	now := time.Now().UTC()
	s.mu.Lock()
	job.Status = JobStatusRunning
	job.StartedAt = &now
	s.mu.Unlock()

	log.Info().Str("job_id", job.ID).Msg("Refresh job started")

	// One league at a time. A league whose run errors does not stop the
	// remaining leagues; cancellation does.
	var (
		completed, skipped int
		skipReasons        map[string]string
		runErrs            []string
		cancelled          bool
	)
	for _, lg := range job.Leagues {
		result, err := s.run(s.ctx, league.Range{
			League:    lg,
			StartYear: job.StartYear,
			EndYear:   job.EndYear,
		})

		if result != nil {
			completed += len(result.Completed)
			skipped += len(result.Skipped)
			for _, skip := range result.Skipped {
				if skipReasons == nil {
					skipReasons = make(map[string]string)
				}
				skipReasons[skip.Unit.String()] = skip.Err.Error()
			}
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				cancelled = true
				runErrs = append(runErrs, err.Error())
				break
			}
			runErrs = append(runErrs, fmt.Sprintf("%s: %v", lg.Name(), err))
			log.Error().Err(err).
				Str("job_id", job.ID).
				Str("league", lg.Name()).
				Msg("Refresh run failed for league")
		}
	}

	done := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	job.CompletedAt = &done
	s.active = ""
	job.Completed = completed
	job.Skipped = skipped
	job.SkipReasons = skipReasons

	switch {
	case cancelled:
		job.Status = JobStatusCancelled
		job.Error = strings.Join(runErrs, "; ")
	case len(runErrs) > 0:
		job.Status = JobStatusFailed
		job.Error = strings.Join(runErrs, "; ")
		log.Error().Str("job_id", job.ID).Str("error", job.Error).Msg("Refresh job failed")
	default:
		job.Status = JobStatusCompleted
		log.Info().
			Str("job_id", job.ID).
			Int("completed", job.Completed).
			Int("skipped", job.Skipped).
			Msg("Refresh job finished")
	}

	metrics.RecordRefreshJob(string(job.Status))
}

// drainCancelled marks any still-queued job as cancelled on shutdown.
func (s *Service) drainCancelled() {
	for {
		select {
		case job := <-s.queue:
			now := time.Now().UTC()
			s.mu.Lock()
			job.Status = JobStatusCancelled
			job.CompletedAt = &now
			s.active = ""
			s.mu.Unlock()
			metrics.RecordRefreshJob(string(JobStatusCancelled))
		default:
			return
		}
	}
}

// pruneLocked caps job history. Caller holds the mutex.
func (s *Service) pruneLocked() {
	const historyLimit = 20
	for len(s.order) > historyLimit {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}
}
