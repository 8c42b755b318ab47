package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/elonfeng/aipulse/internal/portal"
	"github.com/elonfeng/aipulse/pkg/alert"
)

// DefaultSchedule runs the daily digest at 07:00 UTC.
const DefaultSchedule = "0 7 * * *"

// Loader loads the report for a date. Implemented by *portal.Service.
type Loader interface {
	Load(ctx context.Context, date string) portal.LoadResult
}

// Config controls the daily job.
type Config struct {
	Schedule   string
	RunOnStart bool
	PageURL    string
	TopItems   int
}

// Scheduler pre-loads each day's report and broadcasts it.
type Scheduler struct {
	loader   Loader
	alertMgr *alert.Manager
	cfg      Config
	logger   *slog.Logger
	cron     *cron.Cron
}

// New creates a scheduler. The cron expression is validated here.
func New(loader Loader, alertMgr *alert.Manager, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
	}
	return &Scheduler{
		loader:   loader,
		alertMgr: alertMgr,
		cfg:      cfg,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}, nil
}

// Run starts the cron loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cfg.RunOnStart {
		s.logger.Info("scheduler: initial run")
		s.RunOnce(ctx)
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler: running", "schedule", s.cfg.Schedule)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler: stopped")
	return ctx.Err()
}

// RunOnce loads today's report and broadcasts it. Placeholders and stale
// results are not broadcast.
func (s *Scheduler) RunOnce(ctx context.Context) {
	res := s.loader.Load(ctx, "")
	if res.Err != nil {
		s.logger.Warn("scheduler: report load failed", "error", res.Err)
		return
	}
	if res.Stale {
		s.logger.Info("scheduler: newer report already committed", "seq", res.Seq)
		return
	}
	s.logger.Info("scheduler: report ready", "date", res.Report.Date, "items", len(res.Report.Highlights))

	if !s.alertMgr.HasNotifiers() {
		return
	}
	n := alert.FromReport(res.Report, s.cfg.PageURL, s.cfg.TopItems)
	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		s.logger.Warn("scheduler: broadcast failed", "date", n.Date, "error", err)
		return
	}
	s.logger.Info("scheduler: digest sent", "date", n.Date)
}
