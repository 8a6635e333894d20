package report

import (
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Summary"
	sheetStock    = "Stock"
	sheetShopping = "Shopping"
)

// RenderXLSX exports the summary as a workbook with one sheet per section.
func RenderXLSX(s Summary) ([]byte, error) {
	v := buildView(s)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetStock, sheetShopping} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	summaryRows := [][]any{
		{v.Title},
		{"Window", v.Window},
		{"Status", v.State},
		{},
		{"Sales (POS)"},
	}
	summaryRows = appendSection(summaryRows, v.Sales, v.Channels)
	summaryRows = append(summaryRows, []any{}, []any{"Staff form"})
	summaryRows = appendSection(summaryRows, v.Staff)
	summaryRows = append(summaryRows, []any{}, []any{"Banking"})
	summaryRows = appendSection(summaryRows, v.Banking)
	for _, flag := range v.Flags {
		summaryRows = append(summaryRows, []any{"Flag", flag})
	}
	if len(v.VsPOS) > 0 {
		summaryRows = append(summaryRows, []any{}, []any{"Sales vs POS"})
		summaryRows = appendSection(summaryRows, v.VsPOS)
	}
	if err := writeRows(f, sheetSummary, summaryRows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "A1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 22); err != nil {
		return nil, err
	}

	stockRows := [][]any{{"Item", "Opening", "Purchased", "Used", "Expected", "Counted", "Variance", "State", "Usage source"}}
	for _, q := range v.Quantities {
		stockRows = append(stockRows, []any{q.Name, q.Opening, q.Purchased, q.Used, q.Expected, q.Counted, q.Variance, q.State, q.Source})
	}
	if len(v.Quantities) == 0 {
		stockRows = append(stockRows, []any{NotAvailable})
	}
	if err := writeRows(f, sheetStock, stockRows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetStock, "A1", "I1", bold); err != nil {
		return nil, err
	}

	shoppingRows := [][]any{{"Item", "Quantity", "Unit", "Priority", "Reason", "Estimated cost", "Price source"}}
	for _, item := range v.Shopping {
		shoppingRows = append(shoppingRows, []any{item.Item, item.SuggestedQty, item.Unit, string(item.Priority), item.Reason, item.Cost, item.PriceSource})
	}
	if v.ShoppingTotal != "" {
		shoppingRows = append(shoppingRows, []any{"Estimated total", "", "", "", "", v.ShoppingTotal})
	}
	if err := writeRows(f, sheetShopping, shoppingRows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetShopping, "A1", "G1", bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func appendSection(rows [][]any, sections ...[]row) [][]any {
	if slices.IndexFunc(sections, func(r []row) bool { return len(r) > 0 }) < 0 {
		return append(rows, []any{NotAvailable})
	}
	for _, section := range sections {
		for _, r := range section {
			rows = append(rows, []any{r.Label, r.Value})
		}
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
