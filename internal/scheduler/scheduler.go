package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler wraps gocron for the worker's recurring maintenance jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func New() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &Scheduler{scheduler: s}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ScheduleCron schedules a job with a cron expression.
func (s *Scheduler) ScheduleCron(tag, cronExpr string, job func() error) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(job)
	return err
}

// ScheduleInterval schedules a job to run at regular intervals.
func (s *Scheduler) ScheduleInterval(tag string, duration time.Duration, job func() error) error {
	_, err := s.scheduler.Every(duration).Tag(tag).Do(job)
	return err
}
