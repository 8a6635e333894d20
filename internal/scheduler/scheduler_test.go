package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/cache"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
)

func ict(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, shiftwindow.Location)
}

func TestNextRun(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"evening", ict(2024, 3, 1, 20, 0), ict(2024, 3, 2, 3, 5)},
		{"before run", ict(2024, 3, 2, 3, 4), ict(2024, 3, 2, 3, 5)},
		{"exactly at run", ict(2024, 3, 2, 3, 5), ict(2024, 3, 3, 3, 5)},
		{"utc input", time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC), ict(2024, 3, 2, 3, 5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(NextRun(tc.now)), "got %s", NextRun(tc.now))
		})
	}
}

func TestWindowForIsTheShiftThatJustClosed(t *testing.T) {
	window := WindowFor(ict(2024, 3, 2, 3, 5))
	assert.Equal(t, "2024-03-01", window.Date())
	assert.True(t, window.End.Before(ict(2024, 3, 2, 3, 5)))
}

func TestRunExecutesTaskAndStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var dates []string

	s := New(func(_ context.Context, w shiftwindow.Window) error {
		mu.Lock()
		defer mu.Unlock()
		dates = append(dates, w.Date())
		if len(dates) == 2 {
			cancel()
		}
		return nil
	}, cache.NewLocalLocker(), zaptest.NewLogger(t))

	clock := ict(2024, 3, 1, 20, 0)
	s.now = func() time.Time { return clock }
	s.wait = func(ctx context.Context, d time.Duration) bool {
		if ctx.Err() != nil {
			return false
		}
		clock = clock.Add(d)
		return true
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, dates)
}

func TestRunSurvivesTaskFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := New(func(context.Context, shiftwindow.Window) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("pos unavailable")
	}, nil, zaptest.NewLogger(t))

	clock := ict(2024, 3, 1, 20, 0)
	s.now = func() time.Time { return clock }
	s.wait = func(ctx context.Context, d time.Duration) bool {
		clock = clock.Add(d)
		return ctx.Err() == nil
	}

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 2, calls)
}

func TestRunWithRealTimerStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(func(context.Context, shiftwindow.Window) error { return nil }, nil, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	locker := cache.NewLocalLocker()
	release, err := locker.TryLock(context.Background(), lockName, time.Minute)
	require.NoError(t, err)
	defer release()

	ran := false
	s := New(func(context.Context, shiftwindow.Window) error {
		ran = true
		return nil
	}, locker, zaptest.NewLogger(t))

	err = s.RunOnce(context.Background(), ict(2024, 3, 2, 3, 5))
	assert.ErrorIs(t, err, cache.ErrLockHeld)
	assert.False(t, ran)
}
