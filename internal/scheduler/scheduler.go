// Package scheduler runs the end-of-shift job once a day after the shift
// window closes.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/cache"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
)

const (
	RunHour   = shiftwindow.EndHour
	RunMinute = 5

	lockName = "job:end-of-shift"
	lockTTL  = 15 * time.Minute
)

// Task processes the shift window that has just closed.
type Task func(ctx context.Context, window shiftwindow.Window) error

type Scheduler struct {
	task   Task
	locker cache.Locker
	logger *zap.Logger
	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) bool
}

func New(task Task, locker cache.Locker, logger *zap.Logger) *Scheduler {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		task:   task,
		locker: locker,
		logger: logger,
		now:    time.Now,
		wait:   sleep,
	}
}

// NextRun returns the first 03:05 shop time strictly after now.
func NextRun(now time.Time) time.Time {
	local := now.In(shiftwindow.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), RunHour, RunMinute, 0, 0, shiftwindow.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WindowFor is the shift that closed just before a run scheduled at runAt.
func WindowFor(runAt time.Time) shiftwindow.Window {
	return shiftwindow.Resolve(runAt).Previous()
}

// Run blocks until ctx is cancelled. Task failures are logged and the next
// day is still scheduled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", zap.Time("next_run", NextRun(s.now())))
	for {
		next := NextRun(s.now())
		if !s.wait(ctx, next.Sub(s.now())) {
			s.logger.Info("scheduler stopped")
			return nil
		}
		if err := s.RunOnce(ctx, next); err != nil && !errors.Is(err, cache.ErrLockHeld) {
			s.logger.Error("end-of-shift job failed", zap.Time("scheduled_for", next), zap.Error(err))
		}
	}
}

// RunOnce runs the task for the shift preceding runAt, unless another
// worker holds the job lock.
func (s *Scheduler) RunOnce(ctx context.Context, runAt time.Time) error {
	release, err := s.locker.TryLock(ctx, lockName, lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			s.logger.Info("end-of-shift job skipped: lock held elsewhere")
		}
		return err
	}
	defer release()

	window := WindowFor(runAt)
	log := s.logger.With(zap.String("shift_date", window.Date()))
	log.Info("end-of-shift job started")
	started := s.now()
	if err := s.task(ctx, window); err != nil {
		return err
	}
	log.Info("end-of-shift job finished", zap.Duration("took", s.now().Sub(started)))
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
