package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for the periodic republish pass. Future-dated
// documents appear once a pass crosses their date, so the interval bounds
// how late they publish.
type Scheduler struct {
	scheduler gocron.Scheduler
}

func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleRepublish registers fn to run every interval once Start is
// called. Returns the job ID for later management.
func (s *Scheduler) ScheduleRepublish(interval time.Duration, fn func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("republish interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName("republish"),
	)
	if err != nil {
		return "", fmt.Errorf("create republish job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	slog.Debug("Starting republish scheduler")
	s.scheduler.Start()
}

// Stop waits for a running job to finish and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
