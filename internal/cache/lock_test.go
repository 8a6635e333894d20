package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

func TestLocalLockerIsExclusive(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, err := locker.TryLock(ctx, "daily", time.Minute)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "daily", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := locker.TryLock(ctx, "other", time.Minute)
	require.NoError(t, err)
	other()

	release()
	again, err := locker.TryLock(ctx, "daily", time.Minute)
	require.NoError(t, err)
	again()
}

func TestNoopCacheNeverHits(t *testing.T) {
	c := NoopReconciliationCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Reconciliation{ShiftDate: "2024-03-01"}, time.Minute))
	_, ok, err := c.Get(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, ok)
}
