package reconcile

import (
	"strings"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

// Per-unit consumption assumed for items that are not in the portion table.
const (
	HeuristicBunsPerBurger  int64 = 1
	HeuristicMeatPerBurger  int64 = 150
	HeuristicDrinksPerDrink int64 = 1
)

var drinkPatterns = []string{
	"drink", "coke", "cola", "pepsi", "sprite", "fanta", "water", "juice", "thai tea", "coffee", "soda",
}

// Portions indexes menu portions by SKU and by lower-cased name.
type Portions struct {
	bySKU  map[string]domain.MenuPortion
	byName map[string]domain.MenuPortion
}

func NewPortions(entries []domain.MenuPortion) Portions {
	p := Portions{
		bySKU:  make(map[string]domain.MenuPortion, len(entries)),
		byName: make(map[string]domain.MenuPortion, len(entries)),
	}
	for _, entry := range entries {
		if sku := strings.TrimSpace(entry.SKU); sku != "" {
			p.bySKU[sku] = entry
		}
		if name := normalizeName(entry.Name); name != "" {
			p.byName[name] = entry
		}
	}
	return p
}

func (p Portions) Len() int {
	return len(p.bySKU) + len(p.byName)
}

func (p Portions) lookup(sku, name string) (domain.MenuPortion, bool) {
	if sku != "" {
		if entry, ok := p.bySKU[sku]; ok {
			return entry, true
		}
	}
	entry, ok := p.byName[normalizeName(name)]
	return entry, ok
}

type LineUsage struct {
	SKU       string             `json:"sku"`
	Name      string             `json:"name"`
	Quantity  int64              `json:"quantity"`
	Buns      int64              `json:"buns"`
	MeatGrams int64              `json:"meat_grams"`
	Drinks    int64              `json:"drinks"`
	Source    domain.UsageSource `json:"source"`
}

// UsageTotals is the ingredient consumption implied by POS sales. Each
// quantity records whether any part of it came from the name heuristic.
type UsageTotals struct {
	Buns         int64
	MeatGrams    int64
	Drinks       int64
	BunsSource   domain.UsageSource
	MeatSource   domain.UsageSource
	DrinksSource domain.UsageSource
	Lines        []LineUsage
}

func (u UsageTotals) Approximate() bool {
	return u.BunsSource == domain.UsageNameHeuristic ||
		u.MeatSource == domain.UsageNameHeuristic ||
		u.DrinksSource == domain.UsageNameHeuristic
}

// Usage derives ingredient consumption from aggregated item sales. Items in
// the portion table use their mapping; anything else falls back to matching
// "burger" and drink names.
func Usage(items []domain.ItemSales, portions Portions) UsageTotals {
	totals := UsageTotals{
		BunsSource:   domain.UsageMenuMapped,
		MeatSource:   domain.UsageMenuMapped,
		DrinksSource: domain.UsageMenuMapped,
		Lines:        make([]LineUsage, 0, len(items)),
	}

	for _, item := range items {
		line := LineUsage{SKU: item.SKU, Name: item.Name, Quantity: item.Quantity}
		if portion, ok := portions.lookup(item.SKU, item.Name); ok {
			line.Buns = portion.Buns * item.Quantity
			line.MeatGrams = portion.MeatGrams * item.Quantity
			line.Drinks = portion.Drinks * item.Quantity
			line.Source = domain.UsageMenuMapped
		} else {
			name := normalizeName(item.Name)
			line.Source = domain.UsageUnmatched
			if strings.Contains(name, "burger") {
				line.Buns = HeuristicBunsPerBurger * item.Quantity
				line.MeatGrams = HeuristicMeatPerBurger * item.Quantity
				line.Source = domain.UsageNameHeuristic
				totals.BunsSource = domain.UsageNameHeuristic
				totals.MeatSource = domain.UsageNameHeuristic
			}
			if isDrink(name) {
				line.Drinks = HeuristicDrinksPerDrink * item.Quantity
				line.Source = domain.UsageNameHeuristic
				totals.DrinksSource = domain.UsageNameHeuristic
			}
		}

		totals.Buns += line.Buns
		totals.MeatGrams += line.MeatGrams
		totals.Drinks += line.Drinks
		totals.Lines = append(totals.Lines, line)
	}
	return totals
}

func isDrink(name string) bool {
	for _, pattern := range drinkPatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
