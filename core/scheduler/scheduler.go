package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gridloom/bessarb/core/coordinator"
	"github.com/gridloom/bessarb/core/logger"
)

// Cron expressions with a seconds field. The hourly entry fires at minute 1
// so next-hour price updates have landed; the daily entry fires shortly
// after midnight.
const (
	minuteSpec = "0 * * * * *"
	hourSpec   = "0 1 * * * *"
	daySpec    = "0 5 0 * * *"
)

// Scheduler drives the coordinator ticks from wall-clock time.
type Scheduler struct {
	cron *cron.Cron
	coor *coordinator.Coordinator
	log  logger.Logger
	ctx  context.Context
}

// New creates a Scheduler for the given coordinator.
func New(ctx context.Context, coor *coordinator.Coordinator, log logger.Logger) (*Scheduler, error) {
	if coor == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		coor: coor,
		log:  log,
		ctx:  ctx,
	}, nil
}

// Register installs the minute, hourly and daily entries.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(minuteSpec, func() {
		s.coor.MinuteTick(s.ctx, time.Now())
	}); err != nil {
		return fmt.Errorf("register minute tick: %w", err)
	}
	if _, err := s.cron.AddFunc(hourSpec, func() {
		s.coor.HourTick(s.ctx, time.Now())
	}); err != nil {
		return fmt.Errorf("register hour tick: %w", err)
	}
	if _, err := s.cron.AddFunc(daySpec, func() {
		s.coor.DayTick(s.ctx)
	}); err != nil {
		return fmt.Errorf("register day tick: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("scheduler started")
}

// Stop stops the cron loop and waits for running entries to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Infof("scheduler stopped")
}
