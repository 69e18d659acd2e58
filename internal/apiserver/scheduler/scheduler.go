// Package scheduler runs the weekly digest jobs and the daily retention
// purge on wall-clock schedules in the organization's timezone.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc is the work a job performs. Jobs must be idempotent: the same run
// is also invocable on demand through the admin endpoints.
type JobFunc func(ctx context.Context) error

// Schedule places a job at a wall-clock time, weekly (when Weekday is set)
// or daily.
type Schedule struct {
	Weekday  *time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// Next returns the first occurrence of the schedule strictly after t.
func (s Schedule) Next(t time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	if s.Weekday != nil {
		for next.Weekday() != *s.Weekday {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}

// ParseWeekly builds a weekly schedule from a weekday name and "HH:MM".
func ParseWeekly(weekday, at string, loc *time.Location) (Schedule, error) {
	wd, err := parseWeekday(weekday)
	if err != nil {
		return Schedule{}, err
	}
	hour, minute, err := parseClock(at)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Weekday: &wd, Hour: hour, Minute: minute, Location: loc}, nil
}

// ParseDaily builds a daily schedule from "HH:MM".
func ParseDaily(at string, loc *time.Location) (Schedule, error) {
	hour, minute, err := parseClock(at)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Hour: hour, Minute: minute, Location: loc}, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %s", name)
}

func parseClock(at string) (int, int, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", at)
	}
	return hour, minute, nil
}

// RunResult records the outcome of one job run.
type RunResult struct {
	Status    string        `json:"status"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Job is a named scheduled task.
type Job struct {
	Name       string     `json:"name"`
	Schedule   Schedule   `json:"-"`
	NextRun    time.Time  `json:"nextRun"`
	LastRun    *time.Time `json:"lastRun,omitempty"`
	LastResult *RunResult `json:"lastResult,omitempty"`

	run JobFunc
}

// Scheduler manages background jobs on a coarse tick.
type Scheduler struct {
	logger *zap.Logger

	jobs     map[string]*Job
	jobMutex sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	running      bool
	runningMutex sync.Mutex

	tick time.Duration
}

// NewScheduler creates a new Scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger.Named("scheduler"),
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
		tick:   30 * time.Second,
	}
}

// AddJob registers a job and computes its first run time.
func (s *Scheduler) AddJob(name string, schedule Schedule, fn JobFunc) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()
	s.jobs[name] = &Job{
		Name:     name,
		Schedule: schedule,
		NextRun:  schedule.Next(time.Now()),
		run:      fn,
	}
}

// Start launches the tick loop. Safe to call once.
func (s *Scheduler) Start() {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()
	if s.running {
		return
	}
	s.running = true

	go s.loop()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels the tick loop.
func (s *Scheduler) Stop() {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cancel()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.runDue(now)
		}
	}
}

func (s *Scheduler) runDue(now time.Time) {
	s.jobMutex.Lock()
	var due []*Job
	for _, job := range s.jobs {
		if !now.Before(job.NextRun) {
			due = append(due, job)
			job.NextRun = job.Schedule.Next(now)
		}
	}
	s.jobMutex.Unlock()

	for _, job := range due {
		s.execute(job)
	}
}

// RunJob runs a job immediately, outside its schedule.
func (s *Scheduler) RunJob(name string) error {
	s.jobMutex.RLock()
	job, ok := s.jobs[name]
	s.jobMutex.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	s.execute(job)
	return nil
}

// Jobs returns a snapshot of the registered jobs.
func (s *Scheduler) Jobs() []Job {
	s.jobMutex.RLock()
	defer s.jobMutex.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}

func (s *Scheduler) execute(job *Job) {
	start := time.Now()
	err := job.run(s.ctx)
	end := time.Now()

	result := &RunResult{
		Status:    "success",
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		s.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
	} else {
		s.logger.Info("job completed",
			zap.String("job", job.Name),
			zap.Duration("duration", result.Duration))
	}

	s.jobMutex.Lock()
	job.LastRun = &start
	job.LastResult = result
	s.jobMutex.Unlock()
}
