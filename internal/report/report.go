// Package report renders the end-of-shift summary for email, print and export.
package report

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/money"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shopping"
)

const NotAvailable = "Not available"

// Summary is everything known about one shift. Any of the pointer fields may
// be nil; the renderers print a placeholder for those sections.
type Summary struct {
	ShiftDate    string                    `json:"shift_date"`
	WindowStart  time.Time                 `json:"window_start"`
	WindowEnd    time.Time                 `json:"window_end"`
	Staff        *domain.StaffShiftReport  `json:"staff_report"`
	POS          *domain.POSAggregate      `json:"pos"`
	Result       *domain.VarianceResult    `json:"result"`
	ShoppingList []domain.ShoppingListItem `json:"shopping_list"`
	Prompts      []string                  `json:"prompts,omitempty"`
	GeneratedAt  time.Time                 `json:"generated_at"`
}

type row struct {
	Label string
	Value string
}

type quantityRow struct {
	Name        string
	Opening     string
	Purchased   string
	Used        string
	Expected    string
	Counted     string
	Variance    string
	State       string
	Significant bool
	Source      string
}

type shoppingRow struct {
	Item         string
	SuggestedQty int64
	Unit         string
	Priority     domain.Priority
	Reason       string
	Cost         string
	PriceSource  string
}

type view struct {
	Title      string
	Window     string
	State      string
	Generated  string
	Sales      []row
	Channels   []row
	Staff      []row
	Quantities []quantityRow
	Banking    []row
	Flags      []string
	// VsPOS compares staff-declared channel sales with the POS.
	VsPOS         []row
	Shopping      []shoppingRow
	ShoppingTotal string
	Prompts       []string
	NA            string
}

func Subject(s Summary) string {
	state := NotAvailable
	if s.Result != nil {
		state = string(s.Result.State)
	}
	return fmt.Sprintf("Shift report %s: %s", s.ShiftDate, state)
}

func buildView(s Summary) view {
	v := view{
		Title:     "Shift report " + s.ShiftDate,
		Window:    windowLabel(s),
		State:     NotAvailable,
		Generated: s.GeneratedAt.In(shiftwindow.Location).Format("2006-01-02 15:04"),
		Prompts:   s.Prompts,
		NA:        NotAvailable,
	}

	if s.POS != nil {
		v.Sales = []row{
			{"Receipts", strconv.Itoa(s.POS.ReceiptCount)},
			{"Refunds", strconv.Itoa(s.POS.RefundCount)},
			{"Gross sales", money.FormatTHB(s.POS.GrossCents)},
			{"Cash", money.FormatTHB(s.POS.CashCents)},
			{"QR", money.FormatTHB(s.POS.QRCents)},
		}
		channels := make([]string, 0, len(s.POS.ByChannel))
		for channel := range s.POS.ByChannel {
			channels = append(channels, channel)
		}
		slices.Sort(channels)
		for _, channel := range channels {
			v.Channels = append(v.Channels, row{channel, money.FormatTHB(s.POS.ByChannel[channel])})
		}
	}

	if s.Staff != nil {
		v.Staff = []row{
			{"Completed by", s.Staff.CompletedBy},
			{"Cash start", money.FormatTHB(s.Staff.CashStartCents)},
			{"Cash end", money.FormatTHB(s.Staff.CashEndCents)},
			{"Cash banked", money.FormatTHB(s.Staff.CashBankedCents)},
			{"QR transferred", money.FormatTHB(s.Staff.QRTransferredCents)},
			{"Expenses", money.FormatTHB(s.Staff.ExpensesCents)},
			{"Grab sales", money.FormatTHB(s.Staff.Sales.GrabCents)},
		}
		if notes := strings.TrimSpace(s.Staff.Notes); notes != "" {
			v.Staff = append(v.Staff, row{"Notes", notes})
		}
	}

	if s.Result != nil {
		r := s.Result
		v.State = string(r.State)
		v.Quantities = []quantityRow{
			quantity("Buns", r.Buns, count),
			quantity("Meat", r.Meat, money.FormatGrams),
			quantity("Drinks", r.Drinks, count),
		}
		v.Banking = []row{
			{"Cash difference", signedTHB(r.CashDiffCents)},
			{"QR difference", signedTHB(r.QRDiffCents)},
			{"Tolerance", money.FormatTHB(r.CashToleranceCents)},
		}
		v.Flags = r.Flags
		for _, c := range r.ChannelSales {
			v.VsPOS = append(v.VsPOS, row{
				c.Channel,
				fmt.Sprintf("staff %s, POS %s, diff %s", money.FormatTHB(c.StaffCents), money.FormatTHB(c.POSCents), signedTHB(&c.DiffCents)),
			})
		}
	}

	for _, item := range s.ShoppingList {
		cost := NotAvailable
		if item.EstimatedCostCents != nil {
			cost = money.FormatTHB(*item.EstimatedCostCents)
		}
		v.Shopping = append(v.Shopping, shoppingRow{
			Item:         item.Item,
			SuggestedQty: item.SuggestedQty,
			Unit:         item.Unit,
			Priority:     item.Priority,
			Reason:       item.Reason,
			Cost:         cost,
			PriceSource:  string(item.PriceSource),
		})
	}
	if len(s.ShoppingList) > 0 {
		total, complete := shopping.EstimatedTotal(s.ShoppingList)
		v.ShoppingTotal = money.FormatTHB(total)
		if !complete {
			v.ShoppingTotal += " (some items unpriced)"
		}
	}
	return v
}

func quantity(name string, q domain.QuantityVariance, format func(int64) string) quantityRow {
	opt := func(p *int64) string {
		if p == nil {
			return NotAvailable
		}
		return format(*p)
	}
	variance := NotAvailable
	if q.Variance != nil {
		variance = format(*q.Variance)
		if *q.Variance > 0 {
			variance = "+" + variance
		}
	}
	return quantityRow{
		Name:        name,
		Opening:     opt(q.Opening),
		Purchased:   format(q.Purchased),
		Used:        format(q.Used),
		Expected:    opt(q.ExpectedClose),
		Counted:     opt(q.StaffClose),
		Variance:    variance,
		State:       string(q.State),
		Significant: q.Significant,
		Source:      string(q.UsageSource),
	}
}

func count(v int64) string {
	return strconv.FormatInt(v, 10)
}

func signedTHB(v *int64) string {
	if v == nil {
		return NotAvailable
	}
	if *v > 0 {
		return "+" + money.FormatTHB(*v)
	}
	return money.FormatTHB(*v)
}

func windowLabel(s Summary) string {
	if s.WindowStart.IsZero() || s.WindowEnd.IsZero() {
		return s.ShiftDate
	}
	const layout = "2006-01-02 15:04"
	return s.WindowStart.In(shiftwindow.Location).Format(layout) + " to " + s.WindowEnd.In(shiftwindow.Location).Format(layout) + " (UTC+7)"
}

var textTmpl = template.Must(template.New("summary-text").Parse(`{{.Title}}
Window: {{.Window}}
Status: {{.State}}

SALES (POS)
{{if .Sales}}{{range .Sales}}  {{printf "%-16s" .Label}} {{.Value}}
{{end}}{{range .Channels}}  {{printf "%-16s" .Label}} {{.Value}}
{{end}}{{else}}  {{.NA}}
{{end}}
STAFF FORM
{{if .Staff}}{{range .Staff}}  {{printf "%-16s" .Label}} {{.Value}}
{{end}}{{else}}  {{.NA}}
{{end}}
STOCK
{{if .Quantities}}{{range .Quantities}}  {{.Name}}: opening {{.Opening}}, purchased {{.Purchased}}, used {{.Used}}, expected {{.Expected}}, counted {{.Counted}}, variance {{.Variance}}{{if .Significant}} !{{end}} [{{.State}}]
{{end}}{{else}}  {{.NA}}
{{end}}
BANKING
{{if .Banking}}{{range .Banking}}  {{printf "%-16s" .Label}} {{.Value}}
{{end}}{{else}}  {{.NA}}
{{end}}{{if .Flags}}
Flags: {{range $i, $f := .Flags}}{{if $i}}, {{end}}{{$f}}{{end}}
{{end}}{{if .VsPOS}}
SALES VS POS (informational)
{{range .VsPOS}}  {{printf "%-16s" .Label}} {{.Value}}
{{end}}{{end}}
SHOPPING LIST
{{if .Shopping}}{{range .Shopping}}  - {{.Item}}: {{.SuggestedQty}} {{.Unit}} ({{.Priority}}) {{.Reason}}, est. {{.Cost}} [{{.PriceSource}}]
{{end}}  Estimated total: {{.ShoppingTotal}}
{{else}}  Nothing to buy
{{end}}{{if .Prompts}}
ACTION NEEDED
{{range .Prompts}}  - {{.}}
{{end}}{{end}}
Generated {{.Generated}}
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("summary-html").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
    .na { color: #888; font-style: italic; }
    .flag { color: #b00020; font-weight: bold; }
  </style>
</head>
<body>
  <h2>{{.Title}}</h2>
  <p>Window: {{.Window}}</p>
  <p>Status: <strong>{{.State}}</strong></p>

  <h3>Sales (POS)</h3>
  {{if .Sales}}<table>
    <tbody>{{range .Sales}}<tr><td>{{.Label}}</td><td style="text-align:right;">{{.Value}}</td></tr>{{end}}
    {{range .Channels}}<tr><td>{{.Label}}</td><td style="text-align:right;">{{.Value}}</td></tr>{{end}}</tbody>
  </table>{{else}}<p class="na">{{.NA}}</p>{{end}}

  <h3>Staff form</h3>
  {{if .Staff}}<table>
    <tbody>{{range .Staff}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}</tbody>
  </table>{{else}}<p class="na">{{.NA}}</p>{{end}}

  <h3>Stock</h3>
  {{if .Quantities}}<table>
    <thead><tr><th>Item</th><th>Opening</th><th>Purchased</th><th>Used</th><th>Expected</th><th>Counted</th><th>Variance</th><th>State</th></tr></thead>
    <tbody>{{range .Quantities}}<tr><td>{{.Name}}</td><td>{{.Opening}}</td><td>{{.Purchased}}</td><td>{{.Used}}</td><td>{{.Expected}}</td><td>{{.Counted}}</td><td{{if .Significant}} class="flag"{{end}}>{{.Variance}}</td><td>{{.State}}</td></tr>{{end}}</tbody>
  </table>{{else}}<p class="na">{{.NA}}</p>{{end}}

  <h3>Banking</h3>
  {{if .Banking}}<table>
    <tbody>{{range .Banking}}<tr><td>{{.Label}}</td><td style="text-align:right;">{{.Value}}</td></tr>{{end}}</tbody>
  </table>{{else}}<p class="na">{{.NA}}</p>{{end}}
  {{if .Flags}}<p class="flag">{{range $i, $f := .Flags}}{{if $i}}, {{end}}{{$f}}{{end}}</p>{{end}}
  {{if .VsPOS}}<h3>Sales vs POS</h3>
  <table>
    <tbody>{{range .VsPOS}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}</tbody>
  </table>{{end}}

  <h3>Shopping list</h3>
  {{if .Shopping}}<table>
    <thead><tr><th>Item</th><th>Quantity</th><th>Priority</th><th>Reason</th><th>Estimated cost</th><th>Price source</th></tr></thead>
    <tbody>{{range .Shopping}}<tr><td>{{.Item}}</td><td style="text-align:right;">{{.SuggestedQty}} {{.Unit}}</td><td>{{.Priority}}</td><td>{{.Reason}}</td><td style="text-align:right;">{{.Cost}}</td><td>{{.PriceSource}}</td></tr>{{end}}</tbody>
  </table>
  <p>Estimated total: {{.ShoppingTotal}}</p>{{else}}<p>Nothing to buy</p>{{end}}
  {{if .Prompts}}<h3>Action needed</h3><ul>{{range .Prompts}}<li>{{.}}</li>{{end}}</ul>{{end}}

  <p class="na">Generated {{.Generated}}</p>
</body>
</html>
`))

func RenderText(s Summary) (string, error) {
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, buildView(s)); err != nil {
		return "", fmt.Errorf("render text report: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML escapes every field; staff notes are free text.
func RenderHTML(s Summary) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, buildView(s)); err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}
	return buf.String(), nil
}
