package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/notify"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/reconcile"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/report"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shopping"
)

const (
	PromptSubmitStaffForm = "Submit the staff shift form"
	PromptRunPOSSync      = "Run POS sync"
)

// snapshot is everything read for one shift, before and after computing.
type snapshot struct {
	staff *domain.StaffShiftReport
	pos   *domain.POSAggregate
	rec   domain.Reconciliation
}

// Reconcile returns the cached result for the shift, computing it when the
// cache is cold. Missing inputs are not an error: the result says
// MISSING_DATA and Prompts tells the dashboard what to ask for.
func (s *Service) Reconcile(ctx context.Context, shiftDate string) (domain.ReconciliationResponse, error) {
	window, err := s.window(shiftDate)
	if err != nil {
		return domain.ReconciliationResponse{}, err
	}

	cached, ok, err := s.cache.Get(ctx, window.Date())
	if err != nil {
		s.logger.Warn("reconciliation cache read failed", zap.String("shift_date", window.Date()), zap.Error(err))
	}
	if ok && cached != nil {
		return domain.ReconciliationResponse{
			Reconciliation: *cached,
			Prompts:        prompts(cached.Result),
			Cached:         true,
		}, nil
	}

	snap, err := s.compute(ctx, window)
	if err != nil {
		return domain.ReconciliationResponse{}, err
	}
	s.cacheResult(ctx, snap.rec)

	return domain.ReconciliationResponse{
		Reconciliation: snap.rec,
		Prompts:        prompts(snap.rec.Result),
	}, nil
}

// Recheck drops any cached result, recomputes from the stored inputs and
// persists the outcome. Running it twice on unchanged inputs gives the same
// result.
func (s *Service) Recheck(ctx context.Context, shiftDate string) (domain.RecheckResponse, error) {
	window, err := s.window(shiftDate)
	if err != nil {
		return domain.RecheckResponse{}, err
	}
	s.invalidate(ctx, window.Date())

	previous, err := s.repo.GetReconciliation(ctx, window.Date())
	if err != nil && !isNotFound(err) {
		return domain.RecheckResponse{}, err
	}

	snap, err := s.compute(ctx, window)
	if err != nil {
		return domain.RecheckResponse{}, err
	}
	if err := s.repo.SaveReconciliation(ctx, snap.rec); err != nil {
		return domain.RecheckResponse{}, err
	}
	s.cacheResult(ctx, snap.rec)

	resp := domain.RecheckResponse{
		Reconciliation: snap.rec,
		Changed:        true,
		Prompts:        prompts(snap.rec.Result),
	}
	if previous != nil {
		resp.PreviousState = previous.Result.State
		resp.Changed = previous.Result.State != snap.rec.Result.State ||
			!slices.Equal(previous.Result.Flags, snap.rec.Result.Flags)
	}

	s.logAudit(ctx, "reconciliation_recheck", "reconciliation", window.Date(),
		fmt.Sprintf("state=%s,previous=%s,flags=%s", snap.rec.Result.State, resp.PreviousState, strings.Join(snap.rec.Result.Flags, "|")))
	return resp, nil
}

func (s *Service) ShoppingList(ctx context.Context, shiftDate string) ([]domain.ShoppingListItem, error) {
	resp, err := s.Reconcile(ctx, shiftDate)
	if err != nil {
		return nil, err
	}
	return resp.Reconciliation.ShoppingList, nil
}

// DailySummary gathers the inputs and result for the report renderers.
func (s *Service) DailySummary(ctx context.Context, shiftDate string) (report.Summary, error) {
	window, err := s.window(shiftDate)
	if err != nil {
		return report.Summary{}, err
	}
	snap, err := s.compute(ctx, window)
	if err != nil {
		return report.Summary{}, err
	}
	s.cacheResult(ctx, snap.rec)

	result := snap.rec.Result
	return report.Summary{
		ShiftDate:    window.Date(),
		WindowStart:  window.Start,
		WindowEnd:    window.End,
		Staff:        snap.staff,
		POS:          snap.pos,
		Result:       &result,
		ShoppingList: snap.rec.ShoppingList,
		Prompts:      prompts(result),
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// SendDailySummary emails the summary to the configured recipients. The
// HTML part is dropped, not the whole email, when it fails to render.
func (s *Service) SendDailySummary(ctx context.Context, shiftDate string) error {
	summary, err := s.DailySummary(ctx, shiftDate)
	if err != nil {
		return err
	}

	text, err := report.RenderText(summary)
	if err != nil {
		return err
	}
	html, err := report.RenderHTML(summary)
	if err != nil {
		s.logger.Warn("html summary render failed", zap.String("shift_date", summary.ShiftDate), zap.Error(err))
		html = ""
	}

	msg := notify.Message{
		To:       s.recipients,
		Subject:  report.Subject(summary),
		TextBody: text,
		HTMLBody: html,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("daily summary email failed", zap.String("shift_date", summary.ShiftDate), zap.Error(err))
		return err
	}

	s.logAudit(ctx, "report_send", "report", summary.ShiftDate, fmt.Sprintf("recipients=%d,state=%s", len(msg.To), summary.Result.State))
	return nil
}

func (s *Service) compute(ctx context.Context, window shiftwindow.Window) (snapshot, error) {
	staff, err := s.repo.GetStaffReport(ctx, window.Date())
	if err != nil && !isNotFound(err) {
		return snapshot{}, fmt.Errorf("load staff report: %w", err)
	}
	previous, err := s.repo.GetStaffReport(ctx, window.Previous().Date())
	if err != nil && !isNotFound(err) {
		return snapshot{}, fmt.Errorf("load previous staff report: %w", err)
	}
	purchases, err := s.repo.ListPurchases(ctx, window.Date())
	if err != nil {
		return snapshot{}, fmt.Errorf("load purchases: %w", err)
	}
	lastPriced, err := s.repo.LastPricedPurchases(ctx, window.Date())
	if err != nil {
		return snapshot{}, fmt.Errorf("load purchase prices: %w", err)
	}
	pos, err := s.loadPOS(ctx, window)
	if err != nil {
		return snapshot{}, err
	}

	var usage reconcile.UsageTotals
	if pos != nil {
		usage = reconcile.Usage(pos.Items, s.menuPortions())
	}

	result := s.calc.Compute(reconcile.Inputs{
		ShiftDate: window.Date(),
		Staff:     staff,
		POS:       pos,
		Usage:     usage,
		Opening:   reconcile.ClosingLevels(previous),
		Purchases: purchases,
	})

	return snapshot{
		staff: staff,
		pos:   pos,
		rec: domain.Reconciliation{
			ShiftDate:    window.Date(),
			Result:       result,
			ShoppingList: shopping.Generate(result, reconcile.ClosingLevels(staff), lastPriced),
			ComputedAt:   s.now().UTC(),
		},
	}, nil
}

// loadPOS returns nil unless a completed sync run covers the window and no
// later run for the same date has failed. Pushed receipts alone, or pages
// left behind by an aborted run, are not a complete picture of the shift.
func (s *Service) loadPOS(ctx context.Context, window shiftwindow.Window) (*domain.POSAggregate, error) {
	if _, err := s.repo.LatestCompletedSyncRun(ctx, window.Date()); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load sync runs: %w", err)
	}
	latest, err := s.repo.LatestSyncRun(ctx, window.Date())
	if err != nil {
		return nil, fmt.Errorf("load sync runs: %w", err)
	}
	if latest.Status == domain.SyncFailed {
		s.logger.Info("latest POS sync failed, treating window as incomplete",
			zap.String("shift_date", window.Date()),
			zap.String("sync_run", latest.ID),
		)
		return nil, nil
	}

	receipts, err := s.repo.ListReceipts(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("load receipts: %w", err)
	}
	agg := reconcile.Aggregate(receipts)
	return &agg, nil
}

func (s *Service) menuPortions() reconcile.Portions {
	if s.portions == nil {
		return reconcile.NewPortions(nil)
	}
	entries, err := s.portions.Portions()
	if err != nil {
		s.logger.Warn("menu catalog unavailable, using name matching", zap.Error(err))
		return reconcile.NewPortions(nil)
	}
	return reconcile.NewPortions(entries)
}

func (s *Service) cacheResult(ctx context.Context, rec domain.Reconciliation) {
	if err := s.cache.Set(ctx, &rec, s.cacheTTL); err != nil {
		s.logger.Warn("reconciliation cache write failed", zap.String("shift_date", rec.ShiftDate), zap.Error(err))
	}
}

func prompts(result domain.VarianceResult) []string {
	var out []string
	if !result.StaffPresent {
		out = append(out, PromptSubmitStaffForm)
	}
	if !result.POSPresent {
		out = append(out, PromptRunPOSSync)
	}
	if result.StaffPresent && len(result.IncompleteFields) > 0 {
		fields := slices.DeleteFunc(slices.Clone(result.IncompleteFields), func(f string) bool {
			return !strings.HasSuffix(f, ".staff_close")
		})
		if len(fields) > 0 {
			out = append(out, "Add the missing closing counts: "+strings.Join(fields, ", "))
		}
	}
	return out
}
