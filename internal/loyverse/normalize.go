package loyverse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/money"
)

type SchemaVersion string

const (
	// SchemaV1 is the receipts API shape: line_items, total_money, money_amount.
	SchemaV1 SchemaVersion = "loyverse.v1"
	// SchemaLegacy is the older export and webhook shape: items, total, amount.
	SchemaLegacy SchemaVersion = "loyverse.legacy"
)

var ErrMalformedReceipt = errors.New("malformed receipt")

// NormalizationError reports one receipt that could not be normalized. The
// raw payload is kept so the failure can be logged and inspected later.
type NormalizationError struct {
	ExternalID string
	Reason     string
	Raw        []byte
}

func (e *NormalizationError) Error() string {
	if e.ExternalID == "" {
		return fmt.Sprintf("normalize receipt: %s", e.Reason)
	}
	return fmt.Sprintf("normalize receipt %s: %s", e.ExternalID, e.Reason)
}

func (e *NormalizationError) Unwrap() error {
	return ErrMalformedReceipt
}

type itemFields struct {
	SKU, Name, Category, Quantity, Price, Total, Variant []string
}

type paymentFields struct {
	Method, Amount []string
}

// receiptFields lists, per field, the keys to try in priority order.
type receiptFields struct {
	ID, Number, Store, CreatedAt, Type, Channel []string
	Subtotal, Tax, Discount, Total              []string
	Items, Payments                             []string
	Item                                        itemFields
	Payment                                     paymentFields
}

var schemas = map[SchemaVersion]receiptFields{
	SchemaV1: {
		ID:        []string{"id", "receipt_id", "receipt_uuid"},
		Number:    []string{"receipt_number"},
		Store:     []string{"store_id"},
		CreatedAt: []string{"created_at", "receipt_date"},
		Type:      []string{"receipt_type"},
		Channel:   []string{"channel", "source"},
		Subtotal:  []string{"subtotal_money", "subtotal"},
		Tax:       []string{"tax_money", "total_tax", "tax"},
		Discount:  []string{"discount_money", "total_discount", "discount"},
		Total:     []string{"total_money", "total"},
		Items:     []string{"line_items"},
		Payments:  []string{"payments"},
		Item: itemFields{
			SKU:      []string{"sku", "item_id", "handle"},
			Name:     []string{"item_name", "name", "title"},
			Category: []string{"category"},
			Quantity: []string{"quantity"},
			Price:    []string{"price"},
			Total:    []string{"total_money", "total"},
			Variant:  []string{"variant_name"},
		},
		Payment: paymentFields{
			Method: []string{"type", "method", "payment_type"},
			Amount: []string{"money_amount", "amount"},
		},
	},
	SchemaLegacy: {
		ID:        []string{"id", "receipt_id", "receipt_uuid"},
		Number:    []string{"receipt_number", "number"},
		Store:     []string{"store_id"},
		CreatedAt: []string{"created_at", "date"},
		Type:      []string{"receipt_type", "type"},
		Channel:   []string{"channel", "source"},
		Subtotal:  []string{"subtotal", "subtotal_money"},
		Tax:       []string{"tax", "total_tax"},
		Discount:  []string{"discount", "total_discount"},
		Total:     []string{"total", "total_money"},
		Items:     []string{"items"},
		Payments:  []string{"payments"},
		Item: itemFields{
			SKU:      []string{"sku", "handle", "item_id"},
			Name:     []string{"name", "title", "item_name"},
			Category: []string{"category"},
			Quantity: []string{"qty", "quantity"},
			Price:    []string{"price", "unit_price"},
			Total:    []string{"total", "total_money"},
			Variant:  []string{"variant", "variant_name"},
		},
		Payment: paymentFields{
			Method: []string{"method", "payment_type", "type"},
			Amount: []string{"amount", "money_amount"},
		},
	},
}

var paymentMethods = map[string]string{
	"CASH":             domain.PaymentCash,
	"CARD":             domain.PaymentCard,
	"CREDIT_CARD":      domain.PaymentCard,
	"DEBIT_CARD":       domain.PaymentCard,
	"QR":               domain.PaymentQR,
	"WALLET":           domain.PaymentWallet,
	"DELIVERY_PARTNER": domain.PaymentDeliveryPartner,
	"OTHER":            domain.PaymentOther,
}

var salesChannels = map[string]string{
	"IN_STORE":  domain.ChannelInStore,
	"GRAB":      domain.ChannelGrab,
	"FOODPANDA": domain.ChannelFoodpanda,
	"LINE_MAN":  domain.ChannelLineMan,
	"ONLINE":    domain.ChannelOnline,
}

// MapPaymentMethod maps a POS payment label to a known method, or OTHER.
func MapPaymentMethod(raw string) string {
	if method, ok := paymentMethods[enumKey(raw)]; ok {
		return method
	}
	return domain.PaymentOther
}

// MapSalesChannel maps a POS channel label to a known channel, or OTHER.
func MapSalesChannel(raw string) string {
	if channel, ok := salesChannels[enumKey(raw)]; ok {
		return channel
	}
	return domain.ChannelOther
}

func enumKey(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

// DetectSchema picks the field table for a decoded receipt.
func DetectSchema(doc map[string]any) SchemaVersion {
	if _, ok := doc["line_items"]; ok {
		return SchemaV1
	}
	if _, ok := doc["items"]; ok {
		return SchemaLegacy
	}
	return SchemaV1
}

// Normalize converts one raw POS receipt into the canonical form. Unknown
// payment methods and channels map to OTHER. A missing identifier or an
// unparseable timestamp or amount is a NormalizationError.
func Normalize(raw []byte) (domain.Receipt, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return domain.Receipt{}, &NormalizationError{Reason: err.Error(), Raw: raw}
	}
	version := DetectSchema(doc)
	fields := schemas[version]

	fail := func(id, format string, args ...any) (domain.Receipt, error) {
		return domain.Receipt{}, &NormalizationError{ExternalID: id, Reason: fmt.Sprintf(format, args...), Raw: raw}
	}

	number := stringField(doc, fields.Number)
	storeID := stringField(doc, fields.Store)
	externalID := stringField(doc, fields.ID)
	if externalID == "" && number != "" {
		store := storeID
		if store == "" {
			store = "store"
		}
		externalID = store + ":" + number
	}
	if externalID == "" {
		return fail("", "missing receipt identifier")
	}

	createdRaw := stringField(doc, fields.CreatedAt)
	if createdRaw == "" {
		return fail(externalID, "missing created_at")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return fail(externalID, "invalid created_at %q", createdRaw)
	}

	total, ok, err := moneyField(doc, fields.Total)
	if err != nil {
		return fail(externalID, "total: %v", err)
	}
	if !ok {
		return fail(externalID, "missing total")
	}
	tax, _, err := moneyField(doc, fields.Tax)
	if err != nil {
		return fail(externalID, "tax: %v", err)
	}
	discount, _, err := moneyField(doc, fields.Discount)
	if err != nil {
		return fail(externalID, "discount: %v", err)
	}
	subtotal, ok, err := moneyField(doc, fields.Subtotal)
	if err != nil {
		return fail(externalID, "subtotal: %v", err)
	}
	if !ok {
		subtotal = total - tax
	}

	receiptType := domain.ReceiptSale
	if enumKey(stringField(doc, fields.Type)) == domain.ReceiptRefund {
		receiptType = domain.ReceiptRefund
	}

	receipt := domain.Receipt{
		ExternalID:    externalID,
		ReceiptNumber: number,
		StoreID:       storeID,
		Type:          receiptType,
		Channel:       MapSalesChannel(stringField(doc, fields.Channel)),
		CreatedAt:     createdAt.UTC(),
		SubtotalCents: subtotal,
		TaxCents:      tax,
		DiscountCents: discount,
		TotalCents:    total,
		Items:         []domain.ReceiptItem{},
		Payments:      []domain.Payment{},
		SchemaVersion: string(version),
		RawPayload:    raw,
	}

	items, err := objectList(doc, fields.Items)
	if err != nil {
		return fail(externalID, "line items: %v", err)
	}
	payments, err := objectList(doc, fields.Payments)
	if err != nil {
		return fail(externalID, "payments: %v", err)
	}

	for i, obj := range items {
		item, err := normalizeItem(obj, fields.Item)
		if err != nil {
			return fail(externalID, "line %d: %v", i, err)
		}
		receipt.Items = append(receipt.Items, item)
	}
	for i, obj := range payments {
		amount, ok, err := moneyField(obj, fields.Payment.Amount)
		if err != nil {
			return fail(externalID, "payment %d: %v", i, err)
		}
		if !ok {
			return fail(externalID, "payment %d: missing amount", i)
		}
		receipt.Payments = append(receipt.Payments, domain.Payment{
			Method:      MapPaymentMethod(stringField(obj, fields.Payment.Method)),
			AmountCents: amount,
		})
	}

	return receipt, nil
}

func normalizeItem(obj map[string]any, fields itemFields) (domain.ReceiptItem, error) {
	item := domain.ReceiptItem{
		SKU:          stringField(obj, fields.SKU),
		Name:         stringField(obj, fields.Name),
		Category:     stringField(obj, fields.Category),
		VariantLabel: stringField(obj, fields.Variant),
		Quantity:     1,
	}
	if item.Name == "" {
		item.Name = "Unknown Item"
	}
	if item.Category == "" {
		item.Category = "GENERAL"
	}

	// An absent quantity means one unit. A present one must round to at
	// least one whole unit.
	if qty, ok, err := decimalField(obj, fields.Quantity); err != nil {
		return domain.ReceiptItem{}, fmt.Errorf("quantity: %w", err)
	} else if ok {
		whole, err := money.RoundWhole(qty)
		if err != nil {
			return domain.ReceiptItem{}, fmt.Errorf("quantity: %w", err)
		}
		if whole < 1 {
			return domain.ReceiptItem{}, fmt.Errorf("quantity %s does not round to a whole unit", qty.String())
		}
		item.Quantity = whole
	}

	var err error
	if item.PriceCents, _, err = moneyField(obj, fields.Price); err != nil {
		return domain.ReceiptItem{}, fmt.Errorf("price: %w", err)
	}
	if item.TotalCents, _, err = moneyField(obj, fields.Total); err != nil {
		return domain.ReceiptItem{}, fmt.Errorf("total: %w", err)
	}
	return item, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if doc == nil {
		return nil, errors.New("receipt is not an object")
	}
	return doc, nil
}

func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(obj map[string]any, keys []string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func decimalField(obj map[string]any, keys []string) (decimal.Decimal, bool, error) {
	v, ok := lookup(obj, keys)
	if !ok {
		return decimal.Zero, false, nil
	}
	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
		if text == "" {
			return decimal.Zero, false, nil
		}
	default:
		return decimal.Zero, false, fmt.Errorf("%w: %v", money.ErrNotNumeric, v)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %q", money.ErrNotNumeric, text)
	}
	return d, true, nil
}

func moneyField(obj map[string]any, keys []string) (int64, bool, error) {
	d, ok, err := decimalField(obj, keys)
	if err != nil || !ok {
		return 0, ok, err
	}
	minor, err := money.ToMinor(d)
	if err != nil {
		return 0, false, err
	}
	return minor, true, nil
}

// objectList reads a list of JSON objects. An absent list is empty; any
// entry that is not an object is an error.
func objectList(obj map[string]any, keys []string) ([]map[string]any, error) {
	v, ok := lookup(obj, keys)
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
		out = append(out, m)
	}
	return out, nil
}
