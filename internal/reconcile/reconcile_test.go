package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

func ptr(v int64) *int64 { return &v }

func baseStaff() *domain.StaffShiftReport {
	return &domain.StaffShiftReport{
		ShiftDate:          "2024-03-01",
		CashBankedCents:    500000,
		QRTransferredCents: 300000,
		BunsEnd:            ptr(55),
		MeatEndGrams:       ptr(4000),
		DrinksEnd:          ptr(40),
	}
}

func basePOS() *domain.POSAggregate {
	return &domain.POSAggregate{ReceiptCount: 40, CashCents: 500000, QRCents: 300000}
}

func baseInputs() Inputs {
	return Inputs{
		ShiftDate: "2024-03-01",
		Staff:     baseStaff(),
		POS:       basePOS(),
		Usage: UsageTotals{
			Buns: 40, MeatGrams: 6000, Drinks: 10,
			BunsSource: domain.UsageNameHeuristic, MeatSource: domain.UsageNameHeuristic, DrinksSource: domain.UsageMenuMapped,
		},
		Opening: domain.StockLevels{Buns: ptr(100), MeatGrams: ptr(10000), DrinkUnits: ptr(50)},
	}
}

func TestComputeBunsVarianceAtThresholdIsSignificant(t *testing.T) {
	result := NewCalculator(DefaultCashToleranceCents).Compute(baseInputs())

	require.NotNil(t, result.Buns.ExpectedClose)
	assert.Equal(t, int64(60), *result.Buns.ExpectedClose)
	require.NotNil(t, result.Buns.Variance)
	assert.Equal(t, int64(-5), *result.Buns.Variance)
	assert.True(t, result.Buns.Significant)
	assert.Equal(t, domain.StateMismatch, result.Buns.State)
	assert.Equal(t, domain.StateMismatch, result.State)
	assert.Contains(t, result.Flags, FlagBunsVariance)
}

func TestComputeBelowThresholdIsNotSignificant(t *testing.T) {
	in := baseInputs()
	in.Staff.BunsEnd = ptr(56)

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	assert.Equal(t, int64(-4), *result.Buns.Variance)
	assert.False(t, result.Buns.Significant)
	assert.Equal(t, domain.StateOK, result.State)
}

func TestComputeThresholdPlusOneIsSignificant(t *testing.T) {
	in := baseInputs()
	in.Staff.MeatEndGrams = ptr(4000 - 501)
	in.Staff.BunsEnd = ptr(60)

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	assert.Equal(t, int64(-501), *result.Meat.Variance)
	assert.True(t, result.Meat.Significant)
	assert.False(t, result.Buns.Significant)
	assert.Equal(t, []string{FlagMeatVariance, FlagApproximate}, result.Flags)
}

func TestComputeIncludesPurchases(t *testing.T) {
	in := baseInputs()
	in.Staff.BunsEnd = ptr(110)
	in.Purchases = []domain.PurchaseRecord{
		{Ingredient: domain.IngredientBuns, Quantity: 30},
		{Ingredient: domain.IngredientBuns, Quantity: 20},
		{Ingredient: domain.IngredientOther, Quantity: 99},
	}

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	assert.Equal(t, int64(50), result.Buns.Purchased)
	assert.Equal(t, int64(110), *result.Buns.ExpectedClose)
	assert.Equal(t, int64(0), *result.Buns.Variance)
}

func TestComputeMissingStaffReport(t *testing.T) {
	in := baseInputs()
	in.Staff = nil

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	assert.Equal(t, domain.StateMissingData, result.State)
	assert.False(t, result.StaffPresent)
	assert.Nil(t, result.Buns.Variance)
	assert.Nil(t, result.CashDiffCents)
	assert.Equal(t, domain.StateMissingData, result.Buns.State)
	assert.Contains(t, result.Flags, FlagStaffMissing)
	assert.True(t, result.Incomplete)
	assert.Contains(t, result.IncompleteFields, "staff")
}

func TestComputeMissingPOSData(t *testing.T) {
	in := baseInputs()
	in.POS = nil

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	assert.Equal(t, domain.StateMissingData, result.State)
	assert.Nil(t, result.Buns.ExpectedClose)
	assert.Equal(t, int64(0), result.Buns.Used)
	assert.False(t, result.Approximate)
	assert.Equal(t, []string{FlagPOSMissing}, result.Flags)
}

func TestComputeNullOpeningPropagates(t *testing.T) {
	in := baseInputs()
	in.Opening.DrinkUnits = nil

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	assert.Nil(t, result.Drinks.Opening)
	assert.Nil(t, result.Drinks.ExpectedClose)
	assert.Nil(t, result.Drinks.Variance)
	assert.Equal(t, domain.StateMissingData, result.Drinks.State)
	assert.Contains(t, result.IncompleteFields, "drinks.opening")
	// Other quantities still reconcile.
	assert.NotNil(t, result.Buns.Variance)
}

func TestComputeFallsBackToStaffStartCount(t *testing.T) {
	in := baseInputs()
	in.Opening.DrinkUnits = nil
	in.Staff.DrinksStart = ptr(50)

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	require.NotNil(t, result.Drinks.Opening)
	assert.Equal(t, int64(50), *result.Drinks.Opening)
	assert.Equal(t, int64(0), *result.Drinks.Variance)
	assert.NotContains(t, result.IncompleteFields, "drinks.opening")
}

func TestComputeMissingClosingCountIsIncompleteNotZero(t *testing.T) {
	in := baseInputs()
	in.Staff.BunsEnd = nil

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	assert.Nil(t, result.Buns.StaffClose)
	assert.Nil(t, result.Buns.Variance)
	assert.False(t, result.Buns.Significant)
	assert.Contains(t, result.IncompleteFields, "buns.staff_close")
}

func TestComputeCashTolerance(t *testing.T) {
	in := baseInputs()
	in.Staff.BunsEnd = ptr(60)
	in.Staff.CashBankedCents = in.POS.CashCents - DefaultCashToleranceCents

	result := NewCalculator(DefaultCashToleranceCents).Compute(in)
	assert.Equal(t, -DefaultCashToleranceCents, *result.CashDiffCents)
	assert.NotContains(t, result.Flags, FlagCashMismatch)
	assert.Equal(t, domain.StateOK, result.State)

	in.Staff.CashBankedCents--
	result = NewCalculator(DefaultCashToleranceCents).Compute(in)
	assert.Contains(t, result.Flags, FlagCashMismatch)
	assert.Equal(t, domain.StateMismatch, result.State)
}

func TestComputeQRMismatch(t *testing.T) {
	in := baseInputs()
	in.Staff.BunsEnd = ptr(60)
	in.Staff.QRTransferredCents = 0

	result := NewCalculator(0).Compute(in)

	assert.Equal(t, int64(-300000), *result.QRDiffCents)
	assert.Contains(t, result.Flags, FlagQRMismatch)
	assert.Equal(t, domain.StateMismatch, result.State)
}

func TestComputeIsIdempotent(t *testing.T) {
	calc := NewCalculator(DefaultCashToleranceCents)
	first := calc.Compute(baseInputs())
	second := calc.Compute(baseInputs())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("recompute differs (-first +second):\n%s", diff)
	}
}

func TestComputeDoesNotAliasInputs(t *testing.T) {
	in := baseInputs()
	result := NewCalculator(DefaultCashToleranceCents).Compute(in)

	*in.Staff.BunsEnd = 0
	*in.Opening.Buns = 0

	assert.Equal(t, int64(55), *result.Buns.StaffClose)
	assert.Equal(t, int64(100), *result.Buns.Opening)
}

func TestClosingLevels(t *testing.T) {
	levels := ClosingLevels(baseStaff())
	assert.Equal(t, int64(55), *levels.Buns)
	assert.Equal(t, domain.StockLevels{}, ClosingLevels(nil))
}

func TestComputeComparesDeliveryChannelsWithoutChangingState(t *testing.T) {
	calc := NewCalculator(DefaultCashToleranceCents)
	baseline := calc.Compute(baseInputs())

	in := baseInputs()
	in.Staff.Sales = domain.ChannelSales{GrabCents: 120000, OtherCents: 30000}
	in.POS.ByChannel = map[string]int64{
		domain.ChannelInStore:   800000,
		domain.ChannelGrab:      100000,
		domain.ChannelFoodpanda: 20000,
		domain.ChannelLineMan:   10000,
	}
	result := calc.Compute(in)

	want := []domain.ChannelComparison{
		{Channel: domain.ChannelGrab, StaffCents: 120000, POSCents: 100000, DiffCents: 20000},
		{Channel: domain.ChannelOther, StaffCents: 30000, POSCents: 30000, DiffCents: 0},
	}
	if diff := cmp.Diff(want, result.ChannelSales); diff != "" {
		t.Fatalf("channel comparison (-want +got):\n%s", diff)
	}
	assert.Equal(t, baseline.State, result.State)
	assert.Equal(t, baseline.Flags, result.Flags)
}

func TestComputeSkipsChannelComparisonWithoutBothSources(t *testing.T) {
	in := baseInputs()
	in.POS = nil

	assert.Nil(t, NewCalculator(DefaultCashToleranceCents).Compute(in).ChannelSales)
}
