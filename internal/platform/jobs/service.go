package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"staffperf/internal/platform/events"
	"staffperf/internal/platform/metrics"
	"staffperf/internal/platform/querier"
)

const JobOutboxRelay = "outbox_relay"

var ErrRelayDisabled = errors.New("outbox relay is not configured")

type Service struct {
	DB       querier.Querier
	Relay    *events.Relay
	Metrics  *metrics.Collector
	Interval time.Duration
	queue    chan job

	mu      sync.Mutex
	lastRun map[string]RunStatus
}

type job struct {
	Type    string
	Persist bool
	Run     func(context.Context) (any, error)
}

type RunStatus struct {
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
}

func New(db querier.Querier, relay *events.Relay, collector *metrics.Collector, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Relay:    relay,
		Metrics:  collector,
		Interval: interval,
		queue:    make(chan job, 128),
		lastRun:  map[string]RunStatus{},
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Relay != nil && s.Interval > 0 {
		go s.scheduleRelay(ctx, s.Interval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

// RunNow executes a job synchronously and records it in job_runs.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Persist: true, Run: run})
}

// RelayNow runs one outbox relay batch outside the schedule.
func (s *Service) RelayNow(ctx context.Context) (events.RelayResult, error) {
	out, err := s.RunNow(ctx, JobOutboxRelay, s.relayOnce)
	result, _ := out.(events.RelayResult)
	return result, err
}

func (s *Service) LastRuns() map[string]RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]RunStatus, len(s.lastRun))
	for k, v := range s.lastRun {
		out[k] = v
	}
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	started := time.Now()
	runID := ""
	if j.Persist && s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, status)
      VALUES ($1,$2)
      RETURNING id
    `, j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	run := RunStatus{Status: status, StartedAt: started, Duration: time.Since(started).String()}
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	s.mu.Lock()
	s.lastRun[j.Type] = run
	s.mu.Unlock()

	if runID != "" {
		detailsJSON, marshalErr := json.Marshal(details)
		if marshalErr != nil {
			slog.Warn("job details marshal failed", "err", marshalErr)
			detailsJSON = []byte("{}")
		}
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, run.Status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) relayOnce(ctx context.Context) (any, error) {
	if s.Relay == nil {
		return events.RelayResult{}, ErrRelayDisabled
	}
	result, err := s.Relay.ProcessPending(ctx)
	s.Metrics.RecordOutbox(result.Published, result.Failed)
	return result, err
}

func (s *Service) scheduleRelay(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobOutboxRelay, s.relayOnce)
		}
	}
}
