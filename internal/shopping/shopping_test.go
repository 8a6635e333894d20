package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

func ptr(v int64) *int64 { return &v }

func TestGenerateBunsAndMeatLowStock(t *testing.T) {
	result := domain.VarianceResult{
		Buns: domain.QuantityVariance{Variance: ptr(-6)},
		Meat: domain.QuantityVariance{Variance: ptr(-100)},
	}
	stock := domain.StockLevels{Buns: ptr(30), MeatGrams: ptr(800)}

	items := Generate(result, stock, nil)

	require.Len(t, items, 2)
	assert.Equal(t, "Burger Buns", items[0].Item)
	assert.Equal(t, int64(50), items[0].SuggestedQty)
	assert.Equal(t, domain.PriorityHigh, items[0].Priority)
	assert.Equal(t, "Beef", items[1].Item)
	assert.Equal(t, int64(2), items[1].SuggestedQty)
	assert.Equal(t, "kg", items[1].Unit)
	assert.Equal(t, domain.PriorityHigh, items[1].Priority)
}

func TestGenerateDrinksOnly(t *testing.T) {
	result := domain.VarianceResult{Drinks: domain.QuantityVariance{Variance: ptr(-4)}}

	items := Generate(result, domain.StockLevels{Buns: ptr(100), MeatGrams: ptr(5000)}, nil)

	require.Len(t, items, 1)
	assert.Equal(t, "Drinks", items[0].Item)
	assert.Equal(t, int64(24), items[0].SuggestedQty)
	assert.Equal(t, domain.PriorityMedium, items[0].Priority)
}

func TestGenerateBoundariesAreStrict(t *testing.T) {
	result := domain.VarianceResult{
		Buns:   domain.QuantityVariance{Variance: ptr(-3)},
		Meat:   domain.QuantityVariance{Variance: ptr(-300)},
		Drinks: domain.QuantityVariance{Variance: ptr(-3)},
	}
	stock := domain.StockLevels{Buns: ptr(20), MeatGrams: ptr(1000)}

	assert.Empty(t, Generate(result, stock, nil))
}

func TestGenerateUnknownValuesNeverTrigger(t *testing.T) {
	items := Generate(domain.VarianceResult{}, domain.StockLevels{}, nil)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGenerateKeepsRuleOrder(t *testing.T) {
	result := domain.VarianceResult{
		Buns:   domain.QuantityVariance{Variance: ptr(-10)},
		Meat:   domain.QuantityVariance{Variance: ptr(-1000)},
		Drinks: domain.QuantityVariance{Variance: ptr(-10)},
	}

	items := Generate(result, domain.StockLevels{}, nil)

	require.Len(t, items, 3)
	assert.Equal(t, []string{"Burger Buns", "Beef", "Drinks"}, []string{items[0].Item, items[1].Item, items[2].Item})
}

func TestGeneratePricesFromLastPurchase(t *testing.T) {
	result := domain.VarianceResult{
		Buns:   domain.QuantityVariance{Variance: ptr(-10)},
		Meat:   domain.QuantityVariance{Variance: ptr(-1000)},
		Drinks: domain.QuantityVariance{Variance: ptr(-10)},
	}
	purchases := []domain.PurchaseRecord{
		// 40 buns for 360.00 THB: 9.00 each.
		{Ingredient: domain.IngredientBuns, Quantity: 40, AmountCents: 36000},
		// 1500 g beef for 525.00 THB: 0.35 per gram.
		{Ingredient: domain.IngredientMeat, Quantity: 1500, AmountCents: 52500},
		// Unpriced purchases are ignored.
		{Ingredient: domain.IngredientDrinks, Quantity: 24},
	}

	items := Generate(result, domain.StockLevels{}, purchases)

	require.Len(t, items, 3)
	require.NotNil(t, items[0].EstimatedCostCents)
	assert.Equal(t, int64(45000), *items[0].EstimatedCostCents)
	assert.Equal(t, domain.PriceLastPurchase, items[0].PriceSource)
	assert.Equal(t, domain.IngredientBuns, items[0].Ingredient)

	require.NotNil(t, items[1].EstimatedCostCents)
	assert.Equal(t, int64(70000), *items[1].EstimatedCostCents)
	assert.Equal(t, domain.PriceLastPurchase, items[1].PriceSource)

	assert.Nil(t, items[2].EstimatedCostCents)
	assert.Equal(t, domain.PriceMissing, items[2].PriceSource)

	total, complete := EstimatedTotal(items)
	assert.Equal(t, int64(115000), total)
	assert.False(t, complete)
}

func TestGenerateRoundsEstimateToMinorUnits(t *testing.T) {
	result := domain.VarianceResult{Drinks: domain.QuantityVariance{Variance: ptr(-5)}}
	// 7 cans for 100.00 THB; 24 cans come to 342.857...
	purchases := []domain.PurchaseRecord{{Ingredient: domain.IngredientDrinks, Quantity: 7, AmountCents: 10000}}

	items := Generate(result, domain.StockLevels{Buns: ptr(100), MeatGrams: ptr(5000)}, purchases)

	require.Len(t, items, 1)
	require.NotNil(t, items[0].EstimatedCostCents)
	assert.Equal(t, int64(34286), *items[0].EstimatedCostCents)

	total, complete := EstimatedTotal(items)
	assert.Equal(t, int64(34286), total)
	assert.True(t, complete)
}
