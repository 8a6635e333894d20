package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/ingest"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
)

// SyncShift pulls the shift's receipts from the POS. mode is one of the
// ingest.Mode values.
func (s *Service) SyncShift(ctx context.Context, shiftDate string, mode string) (domain.SyncRun, error) {
	window, err := s.window(shiftDate)
	if err != nil {
		return domain.SyncRun{}, err
	}
	if mode == "" {
		mode = ingest.ModeManual
	}

	run, err := s.ingester.SyncWindow(ctx, window, mode)
	if errors.Is(err, ingest.ErrNoSource) {
		return domain.SyncRun{}, err
	}
	// A failed run may still have stored some pages.
	s.invalidate(ctx, window.Date())
	if err != nil {
		s.logAudit(ctx, "pos_sync", "sync_run", run.ID, fmt.Sprintf("shift=%s,status=%s", window.Date(), run.Status))
		return run, err
	}

	s.logAudit(ctx, "pos_sync", "sync_run", run.ID,
		fmt.Sprintf("shift=%s,status=%s,fetched=%d,inserted=%d,updated=%d,failed=%d", window.Date(), run.Status, run.Fetched, run.Inserted, run.Updated, run.Failed))
	return run, nil
}

// IngestWebhookReceipt stores one receipt pushed by the POS.
func (s *Service) IngestWebhookReceipt(ctx context.Context, raw []byte) (domain.Receipt, error) {
	receipt, inserted, err := s.ingester.IngestOne(ctx, raw)
	if err != nil {
		return domain.Receipt{}, err
	}
	shiftDate := shiftwindow.Resolve(receipt.CreatedAt).Date()
	s.invalidate(ctx, shiftDate)
	s.logger.Info("webhook receipt stored",
		zap.String("external_id", receipt.ExternalID),
		zap.String("shift_date", shiftDate),
		zap.Bool("inserted", inserted),
	)
	return receipt, nil
}

// EndOfShift is the scheduled job for a closed shift: sync, recheck, then
// email the summary. Every step runs even if an earlier one failed.
func (s *Service) EndOfShift(ctx context.Context, window shiftwindow.Window) error {
	date := window.Date()
	var errs []error

	if _, err := s.SyncShift(ctx, date, ingest.ModeScheduled); err != nil {
		s.logger.Warn("scheduled sync failed", zap.String("shift_date", date), zap.Error(err))
		errs = append(errs, fmt.Errorf("sync: %w", err))
	}
	if _, err := s.Recheck(ctx, date); err != nil {
		errs = append(errs, fmt.Errorf("recheck: %w", err))
	}
	if err := s.SendDailySummary(ctx, date); err != nil {
		errs = append(errs, fmt.Errorf("send summary: %w", err))
	}
	return errors.Join(errs...)
}
