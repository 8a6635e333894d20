// Package ingest pulls POS receipts for a shift window into the store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/loyverse"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/xid"
)

const (
	ModeManual    = "manual"
	ModeScheduled = "scheduled"
	ModeWebhook   = "webhook"

	ContextNormalize = "normalize"
	ContextUpsert    = "receipt_upsert"

	maxPages = 1000
)

// ErrNoSource means no POS API credentials were configured, so windows
// cannot be pulled. Pushed receipts are still accepted.
var ErrNoSource = errors.New("pos receipt source is not configured")

// ReceiptSource is one page-at-a-time listing of raw receipts.
type ReceiptSource interface {
	FetchReceipts(ctx context.Context, from, to time.Time, cursor string) (loyverse.Page, error)
}

// UpstreamSyncError means the listing itself failed; the run is aborted and
// nothing after the failing page was read.
type UpstreamSyncError struct {
	RunID string
	Page  int
	Err   error
}

func (e *UpstreamSyncError) Error() string {
	return fmt.Sprintf("sync run %s: page %d: %v", e.RunID, e.Page, e.Err)
}

func (e *UpstreamSyncError) Unwrap() error {
	return e.Err
}

type Ingester struct {
	source ReceiptSource
	repo   store.Repository
	logger *zap.Logger
	now    func() time.Time
}

func New(source ReceiptSource, repo store.Repository, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		source: source,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SyncWindow fetches every page for the window and upserts each receipt.
// Bad records are logged and recorded as ingestion errors; only a failing
// page fetch stops the run.
func (i *Ingester) SyncWindow(ctx context.Context, window shiftwindow.Window, mode string) (domain.SyncRun, error) {
	if i.source == nil {
		return domain.SyncRun{}, ErrNoSource
	}

	run := domain.SyncRun{
		ID:             xid.New("sync"),
		ShiftDate:      window.Date(),
		Mode:           mode,
		WindowStart:    window.Start,
		WindowEnd:      window.End,
		Status:         domain.SyncRunning,
		StartedAt:      i.now().UTC(),
		TriggeredByJob: mode == ModeScheduled,
	}
	if err := i.repo.CreateSyncRun(ctx, run); err != nil {
		return run, fmt.Errorf("create sync run: %w", err)
	}

	log := i.logger.With(zap.String("run_id", run.ID), zap.String("shift_date", run.ShiftDate))
	log.Info("sync started", zap.String("mode", mode), zap.Stringer("window", window))

	cursor := ""
	seen := map[string]bool{}
	for {
		if err := ctx.Err(); err != nil {
			return i.fail(ctx, run, &UpstreamSyncError{RunID: run.ID, Page: run.Pages + 1, Err: err})
		}
		page, err := i.source.FetchReceipts(ctx, window.Start, window.End, cursor)
		if err != nil {
			return i.fail(ctx, run, &UpstreamSyncError{RunID: run.ID, Page: run.Pages + 1, Err: err})
		}
		run.Pages++
		run.Fetched += len(page.Receipts)

		for _, raw := range page.Receipts {
			i.ingest(ctx, log, &run, raw)
		}

		if page.Cursor == "" {
			break
		}
		if seen[page.Cursor] || run.Pages >= maxPages {
			return i.fail(ctx, run, &UpstreamSyncError{RunID: run.ID, Page: run.Pages, Err: fmt.Errorf("pagination did not terminate at cursor %q", page.Cursor)})
		}
		seen[page.Cursor] = true
		cursor = page.Cursor
	}

	finished := i.now().UTC()
	run.Status = domain.SyncCompleted
	run.FinishedAt = &finished
	if err := i.repo.FinishSyncRun(ctx, run); err != nil {
		return run, fmt.Errorf("finish sync run: %w", err)
	}
	log.Info("sync completed",
		zap.Int("pages", run.Pages),
		zap.Int("fetched", run.Fetched),
		zap.Int("inserted", run.Inserted),
		zap.Int("updated", run.Updated),
		zap.Int("failed", run.Failed),
	)
	return run, nil
}

// IngestOne normalizes and stores a single pushed receipt.
func (i *Ingester) IngestOne(ctx context.Context, raw []byte) (domain.Receipt, bool, error) {
	receipt, err := loyverse.Normalize(raw)
	if err != nil {
		i.record(ctx, "", externalIDOf(err), ContextNormalize, err, raw)
		return domain.Receipt{}, false, err
	}
	inserted, err := i.repo.UpsertReceipt(ctx, receipt)
	if err != nil {
		i.record(ctx, "", receipt.ExternalID, ContextUpsert, err, raw)
		return domain.Receipt{}, false, err
	}
	return receipt, inserted, nil
}

func (i *Ingester) ingest(ctx context.Context, log *zap.Logger, run *domain.SyncRun, raw []byte) {
	receipt, err := loyverse.Normalize(raw)
	if err != nil {
		run.Failed++
		log.Warn("receipt rejected", zap.String("external_id", externalIDOf(err)), zap.Error(err))
		i.record(ctx, run.ID, externalIDOf(err), ContextNormalize, err, raw)
		return
	}

	inserted, err := i.repo.UpsertReceipt(ctx, receipt)
	if err != nil {
		run.Failed++
		log.Error("receipt upsert failed", zap.String("external_id", receipt.ExternalID), zap.Error(err))
		i.record(ctx, run.ID, receipt.ExternalID, ContextUpsert, err, raw)
		return
	}
	if inserted {
		run.Inserted++
	} else {
		run.Updated++
	}
}

func (i *Ingester) record(ctx context.Context, runID, externalID, where string, cause error, raw []byte) {
	entry := domain.IngestionError{
		ID:           xid.New("ingerr"),
		SyncRunID:    runID,
		ExternalID:   externalID,
		Context:      where,
		ErrorMessage: cause.Error(),
		RawPayload:   string(raw),
		CreatedAt:    i.now().UTC(),
	}
	if err := i.repo.CreateIngestionError(ctx, entry); err != nil {
		i.logger.Error("record ingestion error", zap.String("external_id", externalID), zap.Error(err))
	}
}

func (i *Ingester) fail(ctx context.Context, run domain.SyncRun, cause *UpstreamSyncError) (domain.SyncRun, error) {
	finished := i.now().UTC()
	run.Status = domain.SyncFailed
	run.ErrorMessage = cause.Error()
	run.FinishedAt = &finished

	// The caller's context may already be cancelled; the failure still has to land.
	if err := i.repo.FinishSyncRun(context.WithoutCancel(ctx), run); err != nil {
		i.logger.Error("mark sync run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
	i.logger.Error("sync aborted", zap.String("run_id", run.ID), zap.Int("page", cause.Page), zap.Error(cause.Err))
	return run, cause
}

func externalIDOf(err error) string {
	var normErr *loyverse.NormalizationError
	if errors.As(err, &normErr) {
		return normErr.ExternalID
	}
	return ""
}
