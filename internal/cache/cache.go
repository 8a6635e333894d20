package cache

import (
	"context"
	"time"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

// ReconciliationCache holds computed reconciliations keyed by shift date.
type ReconciliationCache interface {
	Get(ctx context.Context, shiftDate string) (*domain.Reconciliation, bool, error)
	Set(ctx context.Context, rec *domain.Reconciliation, ttl time.Duration) error
	Delete(ctx context.Context, shiftDate string) error
}

type NoopReconciliationCache struct{}

func (NoopReconciliationCache) Get(_ context.Context, _ string) (*domain.Reconciliation, bool, error) {
	return nil, false, nil
}

func (NoopReconciliationCache) Set(_ context.Context, _ *domain.Reconciliation, _ time.Duration) error {
	return nil
}

func (NoopReconciliationCache) Delete(_ context.Context, _ string) error {
	return nil
}

func reconciliationKey(shiftDate string) string {
	return "recon:" + shiftDate
}
