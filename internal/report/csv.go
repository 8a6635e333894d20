package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// RenderCSV flattens the summary into section,key,value rows.
func RenderCSV(s Summary) ([]byte, error) {
	v := buildView(s)

	records := [][]string{
		{"section", "key", "value"},
		{"summary", "shift_date", s.ShiftDate},
		{"summary", "window", v.Window},
		{"summary", "state", v.State},
	}
	section := func(name string, rows []row) {
		if len(rows) == 0 {
			records = append(records, []string{name, "", NotAvailable})
			return
		}
		for _, r := range rows {
			records = append(records, []string{name, r.Label, r.Value})
		}
	}
	section("sales", append(append([]row{}, v.Sales...), v.Channels...))
	section("staff", v.Staff)
	section("banking", v.Banking)
	for _, r := range v.VsPOS {
		records = append(records, []string{"sales_vs_pos", r.Label, r.Value})
	}
	for _, q := range v.Quantities {
		records = append(records,
			[]string{"stock", q.Name + " expected", q.Expected},
			[]string{"stock", q.Name + " counted", q.Counted},
			[]string{"stock", q.Name + " variance", q.Variance},
		)
	}
	for _, flag := range v.Flags {
		records = append(records, []string{"flag", flag, ""})
	}
	for _, item := range v.Shopping {
		records = append(records,
			[]string{"shopping", item.Item, strconv.FormatInt(item.SuggestedQty, 10) + " " + item.Unit},
			[]string{"shopping_cost", item.Item, item.Cost + " (" + item.PriceSource + ")"},
		)
	}
	if v.ShoppingTotal != "" {
		records = append(records, []string{"shopping_cost", "total", v.ShoppingTotal})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
