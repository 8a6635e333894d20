package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/money"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/xid"
)

var ingredientAliases = map[string]string{
	"buns":   domain.IngredientBuns,
	"bun":    domain.IngredientBuns,
	"rolls":  domain.IngredientBuns,
	"meat":   domain.IngredientMeat,
	"beef":   domain.IngredientMeat,
	"drinks": domain.IngredientDrinks,
	"drink":  domain.IngredientDrinks,
	"other":  domain.IngredientOther,
}

// formParser keeps the first bad field so a form is rejected as a whole.
type formParser struct {
	err      error
	required bool
}

func (p *formParser) amount(field string, in money.Input, dst *int64) {
	if p.err != nil {
		return
	}
	if !in.Present() {
		if p.required {
			p.err = invalid(field, "is required")
		}
		return
	}
	v, err := in.Minor()
	if err != nil {
		p.err = &ValidationError{Field: field, Err: err}
		return
	}
	if v < 0 {
		p.err = &ValidationError{Field: field, Err: money.ErrNegative}
		return
	}
	*dst = v
}

// optionalAmount leaves dst untouched when the field is absent.
func (p *formParser) optionalAmount(field string, in money.Input, dst *int64) {
	required := p.required
	p.required = false
	p.amount(field, in, dst)
	p.required = required
}

// count never turns an absent field into zero: dst stays nil.
func (p *formParser) count(field string, in money.Input, dst **int64) {
	if p.err != nil || !in.Present() {
		return
	}
	v, err := in.Count()
	if err != nil {
		p.err = &ValidationError{Field: field, Err: err}
		return
	}
	if v < 0 {
		p.err = &ValidationError{Field: field, Err: money.ErrNegative}
		return
	}
	*dst = &v
}

func applyStaffReport(dst *domain.StaffShiftReport, req domain.StaffReportRequest, required bool) error {
	p := &formParser{required: required}
	p.amount("cash_start", req.CashStart, &dst.CashStartCents)
	p.amount("cash_end", req.CashEnd, &dst.CashEndCents)
	p.amount("cash_banked", req.CashBanked, &dst.CashBankedCents)
	p.amount("qr_transferred", req.QRTransferred, &dst.QRTransferredCents)
	p.optionalAmount("expenses", req.Expenses, &dst.ExpensesCents)
	p.optionalAmount("cash_sales", req.CashSales, &dst.Sales.CashCents)
	p.optionalAmount("qr_sales", req.QRSales, &dst.Sales.QRCents)
	p.optionalAmount("grab_sales", req.GrabSales, &dst.Sales.GrabCents)
	p.optionalAmount("other_sales", req.OtherSales, &dst.Sales.OtherCents)
	p.count("buns_start", req.BunsStart, &dst.BunsStart)
	p.count("buns_end", req.BunsEnd, &dst.BunsEnd)
	p.count("meat_start_grams", req.MeatStartGrams, &dst.MeatStartGrams)
	p.count("meat_end_grams", req.MeatEndGrams, &dst.MeatEndGrams)
	p.count("drinks_start", req.DrinksStart, &dst.DrinksStart)
	p.count("drinks_end", req.DrinksEnd, &dst.DrinksEnd)
	if p.err != nil {
		return p.err
	}

	if name := strings.TrimSpace(req.CompletedBy); name != "" {
		dst.CompletedBy = name
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		dst.Notes = notes
	}
	return nil
}

// SubmitStaffReport records the end-of-shift form. A shift has one report;
// later corrections go through EditStaffReport.
func (s *Service) SubmitStaffReport(ctx context.Context, req domain.StaffReportRequest) (domain.StaffShiftReport, error) {
	window, err := s.window(req.ShiftDate)
	if err != nil {
		return domain.StaffShiftReport{}, err
	}

	report := domain.StaffShiftReport{
		ID:        xid.New("shift"),
		ShiftDate: window.Date(),
	}
	if err := applyStaffReport(&report, req, true); err != nil {
		return domain.StaffShiftReport{}, err
	}
	if report.CompletedBy == "" {
		if actor, ok := ActorFromContext(ctx); ok {
			report.CompletedBy = actor.Username
		}
	}
	if report.CompletedBy == "" {
		return domain.StaffShiftReport{}, invalid("completed_by", "is required")
	}
	now := s.now().UTC()
	report.SubmittedAt = now
	report.UpdatedAt = now

	created, err := s.repo.CreateStaffReport(ctx, report)
	if err != nil {
		return domain.StaffShiftReport{}, err
	}

	s.invalidate(ctx, window.Date(), window.Next().Date())
	s.logAudit(ctx, "staff_report_submit", "staff_report", created.ShiftDate,
		fmt.Sprintf("completed_by=%s,cash_banked=%d,qr=%d", created.CompletedBy, created.CashBankedCents, created.QRTransferredCents))
	return *created, nil
}

// EditStaffReport applies the fields present in req over the stored report.
func (s *Service) EditStaffReport(ctx context.Context, shiftDate string, req domain.StaffReportRequest) (domain.StaffShiftReport, error) {
	if _, err := requireRole(ctx, domain.RoleManager, domain.RoleAdmin); err != nil {
		return domain.StaffShiftReport{}, err
	}
	window, err := s.window(shiftDate)
	if err != nil {
		return domain.StaffShiftReport{}, err
	}
	if req.ShiftDate != "" && req.ShiftDate != window.Date() {
		return domain.StaffShiftReport{}, invalid("shift_date", "cannot move a report to another shift")
	}

	existing, err := s.repo.GetStaffReport(ctx, window.Date())
	if err != nil {
		return domain.StaffShiftReport{}, err
	}
	before := *existing

	updated := *existing
	if err := applyStaffReport(&updated, req, false); err != nil {
		return domain.StaffShiftReport{}, err
	}
	updated.UpdatedAt = s.now().UTC()

	saved, err := s.repo.UpdateStaffReport(ctx, updated)
	if err != nil {
		return domain.StaffShiftReport{}, err
	}

	s.invalidate(ctx, window.Date(), window.Next().Date())
	s.logAudit(ctx, "staff_report_edit", "staff_report", saved.ShiftDate, describeEdit(before, *saved))
	return *saved, nil
}

func (s *Service) GetStaffReport(ctx context.Context, shiftDate string) (domain.StaffShiftReport, error) {
	window, err := s.window(shiftDate)
	if err != nil {
		return domain.StaffShiftReport{}, err
	}
	report, err := s.repo.GetStaffReport(ctx, window.Date())
	if err != nil {
		return domain.StaffShiftReport{}, err
	}
	return *report, nil
}

func (s *Service) ListStaffReports(ctx context.Context, limit int) ([]domain.StaffShiftReport, error) {
	if limit < 1 {
		limit = 30
	}
	return s.repo.ListStaffReports(ctx, limit)
}

func (s *Service) RecordPurchase(ctx context.Context, req domain.PurchaseRequest) (domain.PurchaseRecord, error) {
	window, err := s.window(req.ShiftDate)
	if err != nil {
		return domain.PurchaseRecord{}, err
	}

	ingredient, ok := ingredientAliases[strings.ToLower(strings.TrimSpace(req.Ingredient))]
	if !ok {
		return domain.PurchaseRecord{}, invalid("ingredient", "unknown ingredient %q", req.Ingredient)
	}

	var quantity *int64
	p := &formParser{}
	p.count("quantity", req.Quantity, &quantity)
	var amount int64
	p.optionalAmount("amount", req.Amount, &amount)
	if p.err != nil {
		return domain.PurchaseRecord{}, p.err
	}
	if quantity == nil || *quantity < 1 {
		return domain.PurchaseRecord{}, invalid("quantity", "must be a positive whole number")
	}

	recordedBy := "system"
	if actor, ok := ActorFromContext(ctx); ok {
		recordedBy = actor.Username
	}

	created, err := s.repo.CreatePurchase(ctx, domain.PurchaseRecord{
		ID:          xid.New("purchase"),
		ShiftDate:   window.Date(),
		Ingredient:  ingredient,
		Quantity:    *quantity,
		AmountCents: amount,
		Supplier:    strings.TrimSpace(req.Supplier),
		Note:        strings.TrimSpace(req.Note),
		RecordedBy:  recordedBy,
		PurchasedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.PurchaseRecord{}, err
	}

	s.invalidate(ctx, window.Date())
	s.logAudit(ctx, "purchase_record", "purchase", created.ID,
		fmt.Sprintf("shift=%s,ingredient=%s,qty=%d,amount=%d", created.ShiftDate, created.Ingredient, created.Quantity, created.AmountCents))
	return *created, nil
}

func (s *Service) ListPurchases(ctx context.Context, shiftDate string) ([]domain.PurchaseRecord, error) {
	window, err := s.window(shiftDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPurchases(ctx, window.Date())
}

func describeEdit(before, after domain.StaffShiftReport) string {
	var changes []string
	diffInt := func(name string, a, b int64) {
		if a != b {
			changes = append(changes, fmt.Sprintf("%s:%d->%d", name, a, b))
		}
	}
	diffPtr := func(name string, a, b *int64) {
		switch {
		case a == nil && b == nil:
		case a == nil:
			changes = append(changes, fmt.Sprintf("%s:null->%d", name, *b))
		case b == nil:
			changes = append(changes, fmt.Sprintf("%s:%d->null", name, *a))
		case *a != *b:
			changes = append(changes, fmt.Sprintf("%s:%d->%d", name, *a, *b))
		}
	}
	diffInt("cash_start", before.CashStartCents, after.CashStartCents)
	diffInt("cash_end", before.CashEndCents, after.CashEndCents)
	diffInt("cash_banked", before.CashBankedCents, after.CashBankedCents)
	diffInt("qr_transferred", before.QRTransferredCents, after.QRTransferredCents)
	diffInt("expenses", before.ExpensesCents, after.ExpensesCents)
	diffPtr("buns_end", before.BunsEnd, after.BunsEnd)
	diffPtr("meat_end_grams", before.MeatEndGrams, after.MeatEndGrams)
	diffPtr("drinks_end", before.DrinksEnd, after.DrinksEnd)
	if len(changes) == 0 {
		return "no changes"
	}
	return strings.Join(changes, ",")
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
