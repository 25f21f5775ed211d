// Package scheduler runs the periodic session maintenance and the monthly
// billing reminder.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

const (
	cleanupSpec = "0 0 * * * *"
	dailySpec   = "0 0 9 * * *"
)

// Sessions is the conversation maintenance surface the jobs drive.
type Sessions interface {
	ExpireSessions(ctx context.Context, maxIdle time.Duration) (int64, error)
	ResetAll(ctx context.Context) (int64, error)
	ActiveSessions(ctx context.Context) (int64, error)
	StartCycle(ctx context.Context, identity string) error
}

type Config struct {
	SessionTimeout time.Duration
	ResetOnStartup bool
	AdminIdentity  string
	Location       *time.Location
}

type Scheduler struct {
	sessions Sessions
	cfg      Config
	cron     *cron.Cron
	now      func() time.Time
}

func New(sessions Sessions, cfg Config) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Scheduler{
		sessions: sessions,
		cfg:      cfg,
		cron:     cron.NewWithLocation(cfg.Location),
		now:      time.Now,
	}
}

// Start runs the startup reset, if enabled, and schedules the recurring jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.ResetOnStartup {
		s.ResetOnStartup(ctx)
	}

	jobs := []struct {
		spec string
		fn   func(context.Context)
	}{
		{cleanupSpec, s.CleanupExpired},
		{dailySpec, s.DailyStats},
		{dailySpec, s.MonthlyReminder},
	}

	for _, j := range jobs {
		fn := j.fn
		if err := s.cron.AddFunc(j.spec, func() { fn(ctx) }); err != nil {
			return fmt.Errorf("scheduling %q: %w", j.spec, err)
		}
	}

	s.cron.Start()
	slog.Info("scheduler started", "location", s.cfg.Location.String())

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) ResetOnStartup(ctx context.Context) {
	n, err := s.sessions.ResetAll(ctx)
	if err != nil {
		slog.Error("resetting conversations on startup", "error", err)
		return
	}

	slog.Info("conversations reset on startup", "deleted", n)
}

func (s *Scheduler) CleanupExpired(ctx context.Context) {
	n, err := s.sessions.ExpireSessions(ctx, s.cfg.SessionTimeout)
	if err != nil {
		slog.Error("cleaning up expired sessions", "error", err)
		return
	}

	if n == 0 {
		slog.Debug("no expired sessions")
		return
	}

	slog.Info("expired sessions removed", "deleted", n, "timeout", s.cfg.SessionTimeout)
}

func (s *Scheduler) DailyStats(ctx context.Context) {
	n, err := s.sessions.ActiveSessions(ctx)
	if err != nil {
		slog.Error("computing daily stats", "error", err)
		return
	}

	slog.Info("daily stats", "active_sessions", n)
}

// MonthlyReminder starts a new billing cycle for the admin on the last day
// of the month.
func (s *Scheduler) MonthlyReminder(ctx context.Context) {
	today := s.now().In(s.cfg.Location)
	if !IsLastDayOfMonth(today) {
		return
	}

	if s.cfg.AdminIdentity == "" {
		slog.Warn("monthly reminder skipped, no admin identity configured")
		return
	}

	if err := s.sessions.StartCycle(ctx, s.cfg.AdminIdentity); err != nil {
		slog.Error("sending monthly reminder", "identity", s.cfg.AdminIdentity, "error", err)
		return
	}

	slog.Info("monthly reminder sent", "identity", s.cfg.AdminIdentity)
}

func IsLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
