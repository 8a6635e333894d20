// Package shopping turns a reconciliation result and the latest stock
// counts into a prioritized restock list, costed from purchase history.
package shopping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

const (
	BunsVarianceTrigger   int64 = -3
	BunsMinimumStock      int64 = 20
	MeatVarianceTrigger   int64 = -300
	MeatMinimumStockGrams int64 = 1000
	DrinksVarianceTrigger int64 = -3
)

type rule struct {
	item       string
	ingredient string
	qty        int64
	unit       string
	// perUnit is how many purchase-record units make one suggested unit.
	perUnit  int64
	priority domain.Priority
	reason   func(domain.VarianceResult, domain.StockLevels) (string, bool)
}

// Rules are evaluated in this order and the output keeps it.
var rules = []rule{
	{
		item: "Burger Buns", ingredient: domain.IngredientBuns, qty: 50, unit: "pcs", perUnit: 1, priority: domain.PriorityHigh,
		reason: func(v domain.VarianceResult, s domain.StockLevels) (string, bool) {
			if below(v.Buns.Variance, BunsVarianceTrigger) {
				return fmt.Sprintf("bun variance %d", *v.Buns.Variance), true
			}
			if below(s.Buns, BunsMinimumStock) {
				return fmt.Sprintf("only %d buns in stock", *s.Buns), true
			}
			return "", false
		},
	},
	{
		item: "Beef", ingredient: domain.IngredientMeat, qty: 2, unit: "kg", perUnit: 1000, priority: domain.PriorityHigh,
		reason: func(v domain.VarianceResult, s domain.StockLevels) (string, bool) {
			if below(v.Meat.Variance, MeatVarianceTrigger) {
				return fmt.Sprintf("meat variance %d g", *v.Meat.Variance), true
			}
			if below(s.MeatGrams, MeatMinimumStockGrams) {
				return fmt.Sprintf("only %d g meat in stock", *s.MeatGrams), true
			}
			return "", false
		},
	},
	{
		item: "Drinks", ingredient: domain.IngredientDrinks, qty: 24, unit: "cans", perUnit: 1, priority: domain.PriorityMedium,
		reason: func(v domain.VarianceResult, _ domain.StockLevels) (string, bool) {
			if below(v.Drinks.Variance, DrinksVarianceTrigger) {
				return fmt.Sprintf("drink variance %d", *v.Drinks.Variance), true
			}
			return "", false
		},
	},
}

// Generate applies the restock rules and prices each line from the newest
// priced purchase of its ingredient. Unknown values never trigger a rule.
func Generate(result domain.VarianceResult, stock domain.StockLevels, lastPurchases []domain.PurchaseRecord) []domain.ShoppingListItem {
	prices := make(map[string]domain.PurchaseRecord, len(lastPurchases))
	for _, p := range lastPurchases {
		if p.Quantity > 0 && p.AmountCents > 0 {
			prices[p.Ingredient] = p
		}
	}

	items := make([]domain.ShoppingListItem, 0, len(rules))
	for _, r := range rules {
		reason, ok := r.reason(result, stock)
		if !ok {
			continue
		}
		item := domain.ShoppingListItem{
			Item:         r.item,
			Ingredient:   r.ingredient,
			Reason:       reason,
			SuggestedQty: r.qty,
			Unit:         r.unit,
			Priority:     r.priority,
			PriceSource:  domain.PriceMissing,
		}
		if p, ok := prices[r.ingredient]; ok {
			cost := estimate(p, r.qty*r.perUnit)
			item.EstimatedCostCents = &cost
			item.PriceSource = domain.PriceLastPurchase
		}
		items = append(items, item)
	}
	return items
}

// EstimatedTotal sums the priced lines. complete is false when any line
// has no price.
func EstimatedTotal(items []domain.ShoppingListItem) (total int64, complete bool) {
	complete = true
	for _, item := range items {
		if item.EstimatedCostCents == nil {
			complete = false
			continue
		}
		total += *item.EstimatedCostCents
	}
	return total, complete
}

// estimate scales the purchase's unit price to units, rounding half away
// from zero to the nearest minor unit.
func estimate(p domain.PurchaseRecord, units int64) int64 {
	return decimal.NewFromInt(p.AmountCents).
		Mul(decimal.NewFromInt(units)).
		Div(decimal.NewFromInt(p.Quantity)).
		Round(0).
		IntPart()
}

func below(v *int64, limit int64) bool {
	return v != nil && *v < limit
}
