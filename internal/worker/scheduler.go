package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dineadmin/internal/log"
	"dineadmin/internal/report"
	"dineadmin/internal/sheets"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// Job is a scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron expressions in the restaurant time zone.
// A job still running when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func NewScheduler(loc *time.Location, logger *log.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentScheduler)
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Add schedules job under name, replacing any job with the same name.
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}

	id, err := s.cron.AddFunc(spec, s.wrap(name, job))
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.jobs[name] = id
	s.logger.Info("Scheduled job", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled job failed", "job", name, log.FieldError, err)
			return
		}
		s.logger.DebugContext(ctx, "Scheduled job finished", "job", name, log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// Jobs returns the scheduled job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Next returns the next activation of a job, or the zero time when unknown.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.Jobs()))
}

// Stop stops scheduling and waits for running jobs, or ctx, whichever is first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
}

// SweepJob runs the pending order sweep.
func SweepJob(w *SyncWorker, clock func() time.Time) Job {
	return func(ctx context.Context) error {
		_, err := w.ProcessPending(ctx, clock())
		return err
	}
}

// DailyReporter builds the daily report.
type DailyReporter interface {
	Daily(ctx context.Context, now time.Time) (report.DailyReport, error)
}

// DayCloseJob appends the day's summary to the summary sheet.
func DayCloseJob(reports DailyReporter, summary sheets.SummaryWriter, clock func() time.Time) Job {
	return func(ctx context.Context) error {
		r, err := reports.Daily(ctx, clock())
		if err != nil {
			return fmt.Errorf("build daily report: %w", err)
		}
		if _, err := summary.AppendDailySummary(ctx, r); err != nil {
			return fmt.Errorf("append daily summary: %w", err)
		}
		return nil
	}
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
