// Package reconcile compares what staff reported at the end of a shift with
// what the POS says happened, and derives per-ingredient stock variances.
//
// Every function here is pure: the same inputs always produce the same
// result, so a reconciliation can be recomputed at any time.
package reconcile

import (
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

// Absolute variances at or above these values are significant.
const (
	BunsThreshold      int64 = 5
	MeatThresholdGrams int64 = 500
	DrinksThreshold    int64 = 3
)

// DefaultCashToleranceCents is how far banked cash or QR transfers may drift
// from the POS totals before the shift is flagged. 5000 minor units is ฿50.
const DefaultCashToleranceCents int64 = 5000

const (
	FlagStaffMissing   = "STAFF_REPORT_MISSING"
	FlagPOSMissing     = "POS_DATA_MISSING"
	FlagBunsVariance   = "BUNS_VARIANCE"
	FlagMeatVariance   = "MEAT_VARIANCE"
	FlagDrinksVariance = "DRINKS_VARIANCE"
	FlagCashMismatch   = "CASH_MISMATCH"
	FlagQRMismatch     = "QR_MISMATCH"
	FlagApproximate    = "USAGE_APPROXIMATE"
)

type Calculator struct {
	CashToleranceCents int64
}

func NewCalculator(cashToleranceCents int64) Calculator {
	if cashToleranceCents < 0 {
		cashToleranceCents = DefaultCashToleranceCents
	}
	return Calculator{CashToleranceCents: cashToleranceCents}
}

// Inputs gathers everything known about one shift. Staff and POS are nil
// when that source has no data for the window. Opening holds the previous
// shift's closing counts.
type Inputs struct {
	ShiftDate string
	Staff     *domain.StaffShiftReport
	POS       *domain.POSAggregate
	Usage     UsageTotals
	Opening   domain.StockLevels
	Purchases []domain.PurchaseRecord
}

func (c Calculator) Compute(in Inputs) domain.VarianceResult {
	result := domain.VarianceResult{
		ShiftDate:          in.ShiftDate,
		CashToleranceCents: c.CashToleranceCents,
		Flags:              []string{},
		StaffPresent:       in.Staff != nil,
		POSPresent:         in.POS != nil,
	}
	var incomplete []string

	purchased := SumPurchases(in.Purchases)

	var staffOpen, staffClose domain.StockLevels
	if in.Staff != nil {
		staffOpen = domain.StockLevels{Buns: in.Staff.BunsStart, MeatGrams: in.Staff.MeatStartGrams, DrinkUnits: in.Staff.DrinksStart}
		staffClose = domain.StockLevels{Buns: in.Staff.BunsEnd, MeatGrams: in.Staff.MeatEndGrams, DrinkUnits: in.Staff.DrinksEnd}
	}

	quantities := []struct {
		name      string
		dst       *domain.QuantityVariance
		opening   *int64
		fallback  *int64
		purchased int64
		used      int64
		closing   *int64
		threshold int64
		source    domain.UsageSource
		flag      string
	}{
		{"buns", &result.Buns, in.Opening.Buns, staffOpen.Buns, purchased.Buns, in.Usage.Buns, staffClose.Buns, BunsThreshold, in.Usage.BunsSource, FlagBunsVariance},
		{"meat", &result.Meat, in.Opening.MeatGrams, staffOpen.MeatGrams, purchased.Meat, in.Usage.MeatGrams, staffClose.MeatGrams, MeatThresholdGrams, in.Usage.MeatSource, FlagMeatVariance},
		{"drinks", &result.Drinks, in.Opening.DrinkUnits, staffOpen.DrinkUnits, purchased.Drinks, in.Usage.Drinks, staffClose.DrinkUnits, DrinksThreshold, in.Usage.DrinksSource, FlagDrinksVariance},
	}

	for _, q := range quantities {
		opening := q.opening
		if opening == nil {
			opening = q.fallback
		}
		v := domain.QuantityVariance{
			Opening:    copyInt(opening),
			Purchased:  q.purchased,
			StaffClose: copyInt(q.closing),
			Threshold:  q.threshold,
		}
		if in.POS != nil {
			v.Used = q.used
			v.UsageSource = q.source
		}

		if opening == nil {
			incomplete = append(incomplete, q.name+".opening")
		}
		if in.Staff != nil && q.closing == nil {
			incomplete = append(incomplete, q.name+".staff_close")
		}

		if opening != nil && in.POS != nil {
			expected := *opening + q.purchased - q.used
			v.ExpectedClose = &expected
		}
		if v.ExpectedClose != nil && v.StaffClose != nil {
			diff := *v.StaffClose - *v.ExpectedClose
			v.Variance = &diff
			v.Significant = abs(diff) >= q.threshold
		}

		switch {
		case v.Variance == nil:
			v.State = domain.StateMissingData
		case v.Significant:
			v.State = domain.StateMismatch
		default:
			v.State = domain.StateOK
		}
		*q.dst = v
	}

	if in.Staff == nil {
		result.Flags = append(result.Flags, FlagStaffMissing)
		incomplete = append(incomplete, "staff")
	}
	if in.POS == nil {
		result.Flags = append(result.Flags, FlagPOSMissing)
		incomplete = append(incomplete, "pos")
	}

	cashOut, qrOut := false, false
	if in.Staff != nil && in.POS != nil {
		cashDiff := in.Staff.CashBankedCents - in.POS.CashCents
		qrDiff := in.Staff.QRTransferredCents - in.POS.QRCents
		result.CashDiffCents = &cashDiff
		result.QRDiffCents = &qrDiff
		cashOut = abs(cashDiff) > c.CashToleranceCents
		qrOut = abs(qrDiff) > c.CashToleranceCents
		result.ChannelSales = CompareChannels(in.Staff.Sales, in.POS.ByChannel)
	}

	for _, q := range quantities {
		if q.dst.Significant {
			result.Flags = append(result.Flags, q.flag)
		}
	}
	if cashOut {
		result.Flags = append(result.Flags, FlagCashMismatch)
	}
	if qrOut {
		result.Flags = append(result.Flags, FlagQRMismatch)
	}
	if in.POS != nil && in.Usage.Approximate() {
		result.Approximate = true
		result.Flags = append(result.Flags, FlagApproximate)
	}

	switch {
	case in.Staff == nil || in.POS == nil:
		result.State = domain.StateMissingData
	case result.Buns.Significant || result.Meat.Significant || result.Drinks.Significant || cashOut || qrOut:
		result.State = domain.StateMismatch
	default:
		result.State = domain.StateOK
	}

	result.Incomplete = len(incomplete) > 0
	result.IncompleteFields = incomplete
	return result
}

// CompareChannels lines up staff-declared Grab and other delivery sales
// against the POS channel totals. Every POS channel other than in-store and
// Grab counts as "other".
func CompareChannels(staff domain.ChannelSales, byChannel map[string]int64) []domain.ChannelComparison {
	var posOther int64
	for channel, cents := range byChannel {
		if channel != domain.ChannelInStore && channel != domain.ChannelGrab {
			posOther += cents
		}
	}
	compare := func(channel string, staffCents, posCents int64) domain.ChannelComparison {
		return domain.ChannelComparison{
			Channel:    channel,
			StaffCents: staffCents,
			POSCents:   posCents,
			DiffCents:  staffCents - posCents,
		}
	}
	return []domain.ChannelComparison{
		compare(domain.ChannelGrab, staff.GrabCents, byChannel[domain.ChannelGrab]),
		compare(domain.ChannelOther, staff.OtherCents, posOther),
	}
}

type PurchaseTotals struct {
	Buns   int64
	Meat   int64
	Drinks int64
}

func SumPurchases(records []domain.PurchaseRecord) PurchaseTotals {
	var totals PurchaseTotals
	for _, record := range records {
		switch record.Ingredient {
		case domain.IngredientBuns:
			totals.Buns += record.Quantity
		case domain.IngredientMeat:
			totals.Meat += record.Quantity
		case domain.IngredientDrinks:
			totals.Drinks += record.Quantity
		}
	}
	return totals
}

// ClosingLevels returns a report's closing counts, used as the next shift's
// opening baseline and as current stock for the shopping list.
func ClosingLevels(report *domain.StaffShiftReport) domain.StockLevels {
	if report == nil {
		return domain.StockLevels{}
	}
	return domain.StockLevels{
		Buns:       copyInt(report.BunsEnd),
		MeatGrams:  copyInt(report.MeatEndGrams),
		DrinkUnits: copyInt(report.DrinksEnd),
	}
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
