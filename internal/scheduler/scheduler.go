// Package scheduler runs the daily universe scan and the pairs scan on
// cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"stock-analyzerv1/internal/markethours"
	"stock-analyzerv1/internal/screener"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron     *cron.Cron
	screener *screener.Screener
	universe []string
	ctx      context.Context

	// PairScan, when set, runs after each scheduled universe scan.
	PairScan func(ctx context.Context)
}

// New creates a scheduler around the screener.
func New(ctx context.Context, s *screener.Screener, universe []string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		screener: s,
		universe: universe,
		ctx:      ctx,
	}
}

// Register adds the scan task on the given cron spec (standard 5-field).
// Scheduled runs are skipped on non-trading days; RunNow is not.
func (s *Scheduler) Register(scanCron string) error {
	task := func() {
		if now := time.Now(); !markethours.IsTradingDay(now) {
			log.Printf("[scheduler] %s, skipping scan", markethours.StatusString(now))
			return
		}
		s.scanTask()
	}
	if _, err := s.cron.AddFunc(scanCron, task); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[scheduler] started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Printf("[scheduler] stopped")
}

// RunNow executes the scan task immediately (manual trigger / run-on-start).
func (s *Scheduler) RunNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	log.Printf("[scheduler] running scheduled scan over %d tickers", len(s.universe))
	if _, err := s.screener.Scan(s.ctx, s.universe); err != nil {
		log.Printf("[scheduler] scan failed: %v", err)
		return
	}
	if s.PairScan != nil {
		s.PairScan(s.ctx)
	}
}
