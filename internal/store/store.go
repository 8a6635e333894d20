package store

import (
	"context"
	"errors"
	"time"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("already exists")
)

type Repository interface {
	// UpsertReceipt stores a receipt keyed by ExternalID and reports whether it was new.
	UpsertReceipt(ctx context.Context, receipt domain.Receipt) (bool, error)
	ListReceipts(ctx context.Context, from time.Time, to time.Time) ([]domain.Receipt, error)

	CreateSyncRun(ctx context.Context, run domain.SyncRun) error
	FinishSyncRun(ctx context.Context, run domain.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
	// LatestCompletedSyncRun returns the newest completed run for a shift date.
	LatestCompletedSyncRun(ctx context.Context, shiftDate string) (*domain.SyncRun, error)
	// LatestSyncRun returns the newest run for a shift date whatever its status.
	LatestSyncRun(ctx context.Context, shiftDate string) (*domain.SyncRun, error)

	CreateIngestionError(ctx context.Context, entry domain.IngestionError) error
	ListIngestionErrors(ctx context.Context, limit int) ([]domain.IngestionError, error)

	CreateStaffReport(ctx context.Context, report domain.StaffShiftReport) (*domain.StaffShiftReport, error)
	UpdateStaffReport(ctx context.Context, report domain.StaffShiftReport) (*domain.StaffShiftReport, error)
	GetStaffReport(ctx context.Context, shiftDate string) (*domain.StaffShiftReport, error)
	ListStaffReports(ctx context.Context, limit int) ([]domain.StaffShiftReport, error)

	CreatePurchase(ctx context.Context, purchase domain.PurchaseRecord) (*domain.PurchaseRecord, error)
	ListPurchases(ctx context.Context, shiftDate string) ([]domain.PurchaseRecord, error)
	// LastPricedPurchases returns, per ingredient, the newest purchase on or
	// before shiftDate that carries both a quantity and an amount.
	LastPricedPurchases(ctx context.Context, shiftDate string) ([]domain.PurchaseRecord, error)

	SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error
	GetReconciliation(ctx context.Context, shiftDate string) (*domain.Reconciliation, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
