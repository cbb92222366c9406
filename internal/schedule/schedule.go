// Package schedule triggers pipeline runs on a cron expression in a fixed
// timezone. Overlapping ticks are skipped: the sink's full-replace loads do
// not tolerate two in-flight runs.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/config"
)

// RunFunc executes one full pipeline run.
type RunFunc func(ctx context.Context) error

// Scheduler owns the cron lifecycle around a pipeline run function.
type Scheduler struct {
	cfg   config.ScheduleConfig
	run   RunFunc
	log   *zap.Logger
	cron  *cron.Cron
	guard runGuard
}

func New(cfg config.ScheduleConfig, run RunFunc, log *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{cfg: cfg, run: run, log: log}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.Cron, s.tick); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Cron, err)
	}
	s.cron = c
	return s, nil
}

// Start begins triggering runs. A disabled schedule logs and does nothing.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.log.Info("schedule disabled; not starting trigger")
		return
	}
	s.log.Info("schedule started",
		zap.String("cron", s.cfg.Cron),
		zap.String("timezone", s.cfg.Timezone))
	s.cron.Start()
}

// Stop halts the trigger and waits for an in-flight run to finish, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.guard.Wait(ctx)
}

func (s *Scheduler) tick() {
	if !s.guard.TryLock() {
		s.log.Warn("previous pipeline run still in flight; skipping tick")
		return
	}
	defer s.guard.Unlock()

	start := time.Now()
	if err := s.run(context.Background()); err != nil {
		s.log.Error("scheduled pipeline run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}
	s.log.Info("scheduled pipeline run completed", zap.Duration("elapsed", time.Since(start)))
}

// runGuard ensures at most one run is in flight at a time.
type runGuard struct {
	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// TryLock marks a run as started. Returns false if one is already running.
func (g *runGuard) TryLock() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	g.wg.Add(1)
	return true
}

// Unlock marks the run as finished. Must be called after TryLock returns true.
func (g *runGuard) Unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
	g.wg.Done()
}

// Wait blocks until the in-flight run completes or ctx is cancelled.
func (g *runGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
