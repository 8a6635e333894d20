package reconcile

import (
	"sort"
	"strings"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

// Aggregate folds normalized receipts into the POS view of a shift. Refunds
// subtract from every total they touch. Item rows are ordered by name then SKU.
func Aggregate(receipts []domain.Receipt) domain.POSAggregate {
	agg := domain.POSAggregate{
		ByPayment: make(map[string]int64),
		ByChannel: make(map[string]int64),
		Items:     []domain.ItemSales{},
	}
	items := make(map[string]*domain.ItemSales)

	for _, receipt := range receipts {
		sign := int64(1)
		if receipt.Type == domain.ReceiptRefund {
			sign = -1
			agg.RefundCount++
		} else {
			agg.ReceiptCount++
		}

		agg.GrossCents += sign * receipt.TotalCents
		agg.ByChannel[receipt.Channel] += sign * receipt.TotalCents

		for _, payment := range receipt.Payments {
			amount := sign * payment.AmountCents
			agg.ByPayment[payment.Method] += amount
			switch payment.Method {
			case domain.PaymentCash:
				agg.CashCents += amount
			case domain.PaymentQR:
				agg.QRCents += amount
			}
		}

		for _, item := range receipt.Items {
			key := itemKey(item)
			row, ok := items[key]
			if !ok {
				row = &domain.ItemSales{SKU: item.SKU, Name: item.Name}
				items[key] = row
			}
			row.Quantity += sign * item.Quantity
			row.RevenueCents += sign * item.TotalCents
		}
	}

	for _, row := range items {
		agg.Items = append(agg.Items, *row)
	}
	sort.Slice(agg.Items, func(i, j int) bool {
		if agg.Items[i].Name == agg.Items[j].Name {
			return agg.Items[i].SKU < agg.Items[j].SKU
		}
		return agg.Items[i].Name < agg.Items[j].Name
	})
	return agg
}

func itemKey(item domain.ReceiptItem) string {
	if item.SKU != "" {
		return "sku:" + item.SKU
	}
	return "name:" + strings.ToLower(strings.TrimSpace(item.Name))
}
