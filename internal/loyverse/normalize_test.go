package loyverse

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

const v1Receipt = `{
  "receipt_number": "2-1044",
  "receipt_type": "SALE",
  "store_id": "store-1",
  "created_at": "2024-03-01T12:15:00.000Z",
  "total_money": 398.5,
  "total_tax": 26.07,
  "total_discount": 0,
  "line_items": [
    {"item_id": "it-1", "sku": "10004", "item_name": "Double Smash Burger", "quantity": 2, "price": 189, "total_money": 378},
    {"item_name": "Coke", "price": 20.5, "total_money": 20.5}
  ],
  "payments": [
    {"type": "CASH", "money_amount": 300},
    {"type": "credit card", "money_amount": 98.5}
  ]
}`

func TestNormalizeV1Receipt(t *testing.T) {
	receipt, err := Normalize([]byte(v1Receipt))
	require.NoError(t, err)

	assert.Equal(t, "store-1:2-1044", receipt.ExternalID)
	assert.Equal(t, string(SchemaV1), receipt.SchemaVersion)
	assert.Equal(t, domain.ReceiptSale, receipt.Type)
	assert.Equal(t, domain.ChannelOther, receipt.Channel)
	assert.True(t, receipt.CreatedAt.Equal(time.Date(2024, 3, 1, 12, 15, 0, 0, time.UTC)))
	assert.Equal(t, int64(39850), receipt.TotalCents)
	assert.Equal(t, int64(2607), receipt.TaxCents)
	assert.Equal(t, int64(39850-2607), receipt.SubtotalCents)

	require.Len(t, receipt.Items, 2)
	assert.Equal(t, domain.ReceiptItem{SKU: "10004", Name: "Double Smash Burger", Category: "GENERAL", Quantity: 2, PriceCents: 18900, TotalCents: 37800}, receipt.Items[0])
	assert.Equal(t, int64(1), receipt.Items[1].Quantity)
	assert.Equal(t, int64(2050), receipt.Items[1].PriceCents)

	assert.Equal(t, []domain.Payment{
		{Method: domain.PaymentCash, AmountCents: 30000},
		{Method: domain.PaymentCard, AmountCents: 9850},
	}, receipt.Payments)
}

func TestNormalizeLegacyReceipt(t *testing.T) {
	raw := `{
	  "id": "abc-123",
	  "type": "refund",
	  "channel": "grab",
	  "created_at": "2024-03-01T19:00:00+07:00",
	  "total": "150.00",
	  "subtotal": 140,
	  "items": [{"title": "Cheese Burger", "qty": 1, "total": 150, "handle": "cheese-burger"}],
	  "payments": [{"method": "DELIVERY_PARTNER", "amount": 150}]
	}`

	receipt, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "abc-123", receipt.ExternalID)
	assert.Equal(t, string(SchemaLegacy), receipt.SchemaVersion)
	assert.Equal(t, domain.ReceiptRefund, receipt.Type)
	assert.Equal(t, domain.ChannelGrab, receipt.Channel)
	assert.Equal(t, int64(14000), receipt.SubtotalCents)
	assert.True(t, receipt.CreatedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "cheese-burger", receipt.Items[0].SKU)
	assert.Equal(t, "Cheese Burger", receipt.Items[0].Name)
	assert.Equal(t, domain.PaymentDeliveryPartner, receipt.Payments[0].Method)
}

func TestNormalizeUnknownEnumsMapToOther(t *testing.T) {
	raw := `{"id":"r1","created_at":"2024-03-01T12:00:00Z","channel":"carrier pigeon","total_money":10,
	  "line_items":[],"payments":[{"type":"SEASHELLS","money_amount":10}]}`

	receipt, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, domain.ChannelOther, receipt.Channel)
	assert.Equal(t, domain.PaymentOther, receipt.Payments[0].Method)
	assert.Equal(t, int64(1000), receipt.TotalCents)
}

func TestNormalizeRoundsToMinorUnits(t *testing.T) {
	raw := `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":10.005,"line_items":[]}`

	receipt, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), receipt.TotalCents)
}

func TestNormalizeRoundsFractionalQuantities(t *testing.T) {
	raw := `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":30,
	  "line_items":[{"item_name":"Fries","quantity":"2.4","total_money":20},{"item_name":"Coke","quantity":0.5,"total_money":10}]}`

	receipt, err := Normalize([]byte(raw))
	require.NoError(t, err)
	require.Len(t, receipt.Items, 2)
	assert.Equal(t, int64(2), receipt.Items[0].Quantity)
	assert.Equal(t, int64(1), receipt.Items[1].Quantity)
}

func TestNormalizeRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"id":`,
		"no identifier":  `{"created_at":"2024-03-01T12:00:00Z","total_money":1}`,
		"no timestamp":   `{"id":"r1","total_money":1}`,
		"bad timestamp":  `{"id":"r1","created_at":"yesterday","total_money":1}`,
		"bad amount":     `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":"lots"}`,
		"bad line total": `{"id":"r1","created_at":"2024-03-01T12:00:00Z","line_items":[{"item_name":"x","total_money":true}]}`,
		"json array":     `[1,2,3]`,
		"no total":       `{"id":"r1","created_at":"2024-03-01T12:00:00Z","line_items":[]}`,
		"payment without amount": `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":10,
		  "payments":[{"type":"CASH"}]}`,
		"quantity rounds to zero": `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":10,
		  "line_items":[{"item_name":"Fries","quantity":"0.4","total_money":10}]}`,
		"negative quantity": `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":10,
		  "line_items":[{"item_name":"Fries","quantity":-1,"total_money":10}]}`,
		"line item not an object": `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":10,
		  "line_items":["Fries"]}`,
		"payments not a list": `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":10,
		  "payments":{"type":"CASH","money_amount":10}}`,
		"total beyond int64": `{"id":"r1","created_at":"2024-03-01T12:00:00Z","total_money":99999999999999999999}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedReceipt))

			var normErr *NormalizationError
			require.True(t, errors.As(err, &normErr))
			assert.Equal(t, raw, string(normErr.Raw))
		})
	}
}

func TestMapPaymentMethod(t *testing.T) {
	assert.Equal(t, domain.PaymentCard, MapPaymentMethod("debit-card"))
	assert.Equal(t, domain.PaymentQR, MapPaymentMethod(" qr "))
	assert.Equal(t, domain.PaymentOther, MapPaymentMethod(""))
}

func TestMapSalesChannel(t *testing.T) {
	assert.Equal(t, domain.ChannelLineMan, MapSalesChannel("line man"))
	assert.Equal(t, domain.ChannelOther, MapSalesChannel("OTHER"))
}
