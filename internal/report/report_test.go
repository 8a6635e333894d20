package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
)

func ptr(v int64) *int64 { return &v }

func fullSummary(t *testing.T) Summary {
	t.Helper()
	window, err := shiftwindow.ForDate("2024-03-01")
	require.NoError(t, err)
	return Summary{
		ShiftDate:   window.Date(),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Staff: &domain.StaffShiftReport{
			ShiftDate:       "2024-03-01",
			CompletedBy:     "Nok",
			CashBankedCents: 1250000,
			Notes:           "<script>alert(1)</script>",
		},
		POS: &domain.POSAggregate{
			ReceiptCount: 42,
			GrossCents:   2500000,
			CashCents:    1250000,
			ByChannel:    map[string]int64{domain.ChannelInStore: 2000000, domain.ChannelGrab: 500000},
		},
		Result: &domain.VarianceResult{
			ShiftDate: "2024-03-01",
			State:     domain.StateMismatch,
			Buns: domain.QuantityVariance{
				Opening: ptr(100), Purchased: 50, Used: 80, ExpectedClose: ptr(70), StaffClose: ptr(62), Variance: ptr(-8),
				Threshold: 5, Significant: true, State: domain.StateMismatch, UsageSource: domain.UsageMenuMapped,
			},
			Meat:          domain.QuantityVariance{State: domain.StateMissingData, UsageSource: domain.UsageNameHeuristic},
			Drinks:        domain.QuantityVariance{Opening: ptr(24), ExpectedClose: ptr(20), StaffClose: ptr(20), Variance: ptr(0), State: domain.StateOK},
			CashDiffCents: ptr(0),
			Flags:         []string{"BUNS_VARIANCE"},
			ChannelSales: []domain.ChannelComparison{
				{Channel: domain.ChannelGrab, StaffCents: 520000, POSCents: 500000, DiffCents: 20000},
				{Channel: domain.ChannelOther, StaffCents: 0, POSCents: 0, DiffCents: 0},
			},
		},
		ShoppingList: []domain.ShoppingListItem{
			{
				Item: "Burger Buns", Ingredient: domain.IngredientBuns, Reason: "Bun shortage", SuggestedQty: 50, Unit: "pcs",
				Priority: domain.PriorityHigh, EstimatedCostCents: ptr(45000), PriceSource: domain.PriceLastPurchase,
			},
			{
				Item: "Drinks", Ingredient: domain.IngredientDrinks, Reason: "drink variance -4", SuggestedQty: 24, Unit: "cans",
				Priority: domain.PriorityMedium, PriceSource: domain.PriceMissing,
			},
		},
		GeneratedAt: time.Date(2024, 3, 1, 20, 5, 0, 0, time.UTC),
	}
}

func TestRenderTextFullSummary(t *testing.T) {
	out, err := RenderText(fullSummary(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Shift report 2024-03-01")
	assert.Contains(t, out, "2024-03-01 18:00 to 2024-03-02 03:00")
	assert.Contains(t, out, "Status: MISMATCH")
	assert.Contains(t, out, "฿25,000.00")
	assert.Contains(t, out, "Buns: opening 100, purchased 50, used 80, expected 70, counted 62, variance -8 !")
	assert.Contains(t, out, "Meat: opening "+NotAvailable)
	assert.Contains(t, out, "QR difference    "+NotAvailable)
	assert.Contains(t, out, "Flags: BUNS_VARIANCE")
	assert.Contains(t, out, "- Burger Buns: 50 pcs (high)")
	assert.Contains(t, out, "GRAB")
}

func TestRenderTextShoppingCostAndChannelComparison(t *testing.T) {
	out, err := RenderText(fullSummary(t))
	require.NoError(t, err)

	assert.Contains(t, out, "- Burger Buns: 50 pcs (high) Bun shortage, est. ฿450.00 [last_purchase]")
	assert.Contains(t, out, "- Drinks: 24 cans (medium) drink variance -4, est. "+NotAvailable+" [missing]")
	assert.Contains(t, out, "Estimated total: ฿450.00 (some items unpriced)")
	assert.Contains(t, out, "SALES VS POS (informational)")
	assert.Contains(t, out, "staff ฿5,200.00, POS ฿5,000.00, diff +฿200.00")
}

func TestRenderHTMLShowsShoppingCost(t *testing.T) {
	out, err := RenderHTML(fullSummary(t))
	require.NoError(t, err)

	assert.Contains(t, out, "<th>Estimated cost</th><th>Price source</th>")
	assert.Contains(t, out, `<td style="text-align:right;">฿450.00</td><td>last_purchase</td>`)
	assert.Contains(t, out, "Estimated total: ฿450.00 (some items unpriced)")
	assert.Contains(t, out, "<h3>Sales vs POS</h3>")
}

func TestRenderTextMissingSectionsUsePlaceholder(t *testing.T) {
	out, err := RenderText(Summary{ShiftDate: "2024-03-01", Prompts: []string{"Run POS sync"}})
	require.NoError(t, err)

	assert.Equal(t, 5, strings.Count(out, NotAvailable), out)
	assert.Contains(t, out, "Nothing to buy")
	assert.Contains(t, out, "ACTION NEEDED")
	assert.Contains(t, out, "- Run POS sync")
}

func TestRenderHTMLEscapesNotes(t *testing.T) {
	out, err := RenderHTML(fullSummary(t))
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `class="flag">-8</td>`)
}

func TestRenderHTMLMissingSections(t *testing.T) {
	out, err := RenderHTML(Summary{ShiftDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Contains(t, out, `<p class="na">`+NotAvailable+`</p>`)
}

func TestRenderXLSX(t *testing.T) {
	data, err := RenderXLSX(fullSummary(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Stock", "Shopping"}, f.GetSheetList())

	title, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Shift report 2024-03-01", title)

	rows, err := f.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Buns", "100", "50", "80", "70", "62", "-8", "MISMATCH", "menu_mapped"}, rows[1])

	item, err := f.GetCellValue("Shopping", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Burger Buns", item)

	shoppingRows, err := f.GetRows("Shopping")
	require.NoError(t, err)
	require.Len(t, shoppingRows, 4)
	assert.Equal(t, []string{"Estimated cost", "Price source"}, shoppingRows[0][5:])
	assert.Equal(t, []string{"฿450.00", "last_purchase"}, shoppingRows[1][5:])
	assert.Equal(t, "Estimated total", shoppingRows[3][0])
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Shift report 2024-03-01: Not available", Subject(Summary{ShiftDate: "2024-03-01"}))
	assert.Equal(t, "Shift report 2024-03-01: MISMATCH", Subject(fullSummary(t)))
}

func TestRenderCSV(t *testing.T) {
	data, err := RenderCSV(fullSummary(t))
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "section,key,value\n"))
	assert.Contains(t, out, "stock,Buns variance,-8\n")
	assert.Contains(t, out, "stock,Meat counted,"+NotAvailable+"\n")
	assert.Contains(t, out, "shopping,Burger Buns,50 pcs\n")
	assert.Contains(t, out, "shopping_cost,Burger Buns,฿450.00 (last_purchase)\n")
	assert.Contains(t, out, "shopping_cost,Drinks,"+NotAvailable+" (missing)\n")

	empty, err := RenderCSV(Summary{ShiftDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Contains(t, string(empty), "staff,,"+NotAvailable+"\n")
}
