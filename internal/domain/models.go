package domain

import (
	"time"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/money"
)

// Money amounts are integer minor units (satang). Ingredient quantities are
// integer units: buns and drinks in pieces, meat in grams.

type ReconciliationState string

const (
	StateOK          ReconciliationState = "OK"
	StateMismatch    ReconciliationState = "MISMATCH"
	StateMissingData ReconciliationState = "MISSING_DATA"
)

type UsageSource string

const (
	UsageMenuMapped    UsageSource = "menu_mapped"
	UsageNameHeuristic UsageSource = "name_heuristic"
	UsageUnmatched     UsageSource = "unmatched"
)

const (
	PaymentCash            = "CASH"
	PaymentCard            = "CARD"
	PaymentQR              = "QR"
	PaymentWallet          = "WALLET"
	PaymentDeliveryPartner = "DELIVERY_PARTNER"
	PaymentOther           = "OTHER"
)

const (
	ChannelInStore   = "IN_STORE"
	ChannelGrab      = "GRAB"
	ChannelFoodpanda = "FOODPANDA"
	ChannelLineMan   = "LINE_MAN"
	ChannelOnline    = "ONLINE"
	ChannelOther     = "OTHER"
)

const (
	ReceiptSale   = "SALE"
	ReceiptRefund = "REFUND"
)

const (
	IngredientBuns   = "buns"
	IngredientMeat   = "meat"
	IngredientDrinks = "drinks"
	IngredientOther  = "other"
)

const (
	SyncRunning   = "running"
	SyncCompleted = "completed"
	SyncFailed    = "failed"
)

const (
	RoleStaff   = "staff"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffUserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ChannelSales is the staff-declared sales split for a shift.
type ChannelSales struct {
	CashCents  int64 `json:"cash_cents"`
	QRCents    int64 `json:"qr_cents"`
	GrabCents  int64 `json:"grab_cents"`
	OtherCents int64 `json:"other_cents"`
}

// StaffShiftReport is the end-of-shift form. Stock counts are nil when the
// staff member did not record them.
type StaffShiftReport struct {
	ID                 string       `json:"id"`
	ShiftDate          string       `json:"shift_date"`
	CompletedBy        string       `json:"completed_by"`
	CashStartCents     int64        `json:"cash_start_cents"`
	CashEndCents       int64        `json:"cash_end_cents"`
	CashBankedCents    int64        `json:"cash_banked_cents"`
	QRTransferredCents int64        `json:"qr_transferred_cents"`
	ExpensesCents      int64        `json:"expenses_cents"`
	Sales              ChannelSales `json:"sales"`
	BunsStart          *int64       `json:"buns_start"`
	BunsEnd            *int64       `json:"buns_end"`
	MeatStartGrams     *int64       `json:"meat_start_grams"`
	MeatEndGrams       *int64       `json:"meat_end_grams"`
	DrinksStart        *int64       `json:"drinks_start"`
	DrinksEnd          *int64       `json:"drinks_end"`
	Notes              string       `json:"notes,omitempty"`
	SubmittedAt        time.Time    `json:"submitted_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type ReceiptItem struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Quantity     int64  `json:"quantity"`
	PriceCents   int64  `json:"price_cents"`
	TotalCents   int64  `json:"total_cents"`
	VariantLabel string `json:"variant_label,omitempty"`
}

type Payment struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}

// Receipt is a normalized POS sale or refund.
type Receipt struct {
	ExternalID    string        `json:"external_id"`
	ReceiptNumber string        `json:"receipt_number"`
	StoreID       string        `json:"store_id"`
	Type          string        `json:"type"`
	Channel       string        `json:"channel"`
	CreatedAt     time.Time     `json:"created_at"`
	SubtotalCents int64         `json:"subtotal_cents"`
	TaxCents      int64         `json:"tax_cents"`
	DiscountCents int64         `json:"discount_cents"`
	TotalCents    int64         `json:"total_cents"`
	Items         []ReceiptItem `json:"items"`
	Payments      []Payment     `json:"payments"`
	SchemaVersion string        `json:"schema_version"`
	RawPayload    []byte        `json:"-"`
}

type ItemSales struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Quantity     int64  `json:"quantity"`
	RevenueCents int64  `json:"revenue_cents"`
}

// POSAggregate is the POS view of one shift window.
type POSAggregate struct {
	ReceiptCount int              `json:"receipt_count"`
	RefundCount  int              `json:"refund_count"`
	GrossCents   int64            `json:"gross_cents"`
	CashCents    int64            `json:"cash_cents"`
	QRCents      int64            `json:"qr_cents"`
	ByPayment    map[string]int64 `json:"by_payment"`
	ByChannel    map[string]int64 `json:"by_channel"`
	Items        []ItemSales      `json:"items"`
}

type PurchaseRecord struct {
	ID          string    `json:"id"`
	ShiftDate   string    `json:"shift_date"`
	Ingredient  string    `json:"ingredient"`
	Quantity    int64     `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
	Supplier    string    `json:"supplier,omitempty"`
	Note        string    `json:"note,omitempty"`
	RecordedBy  string    `json:"recorded_by"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// QuantityVariance carries the arithmetic for one tracked ingredient. Nil
// pointers mean the input was unknown and nothing was derived from it.
type QuantityVariance struct {
	Opening       *int64              `json:"opening"`
	Purchased     int64               `json:"purchased"`
	Used          int64               `json:"used"`
	ExpectedClose *int64              `json:"expected_close"`
	StaffClose    *int64              `json:"staff_close"`
	Variance      *int64              `json:"variance"`
	Threshold     int64               `json:"threshold"`
	Significant   bool                `json:"significant"`
	State         ReconciliationState `json:"state"`
	UsageSource   UsageSource         `json:"usage_source"`
}

type VarianceResult struct {
	ShiftDate          string              `json:"shift_date"`
	State              ReconciliationState `json:"state"`
	Buns               QuantityVariance    `json:"buns"`
	Meat               QuantityVariance    `json:"meat"`
	Drinks             QuantityVariance    `json:"drinks"`
	CashDiffCents      *int64              `json:"cash_diff_cents"`
	QRDiffCents        *int64              `json:"qr_diff_cents"`
	CashToleranceCents int64               `json:"cash_tolerance_cents"`
	Flags              []string            `json:"flags"`
	Incomplete         bool                `json:"incomplete"`
	IncompleteFields   []string            `json:"incomplete_fields,omitempty"`
	Approximate        bool                `json:"approximate"`
	StaffPresent       bool                `json:"staff_present"`
	POSPresent         bool                `json:"pos_present"`
	// ChannelSales compares staff-declared delivery sales with the POS. It
	// is informational and never changes State or Flags.
	ChannelSales []ChannelComparison `json:"channel_sales,omitempty"`
}

type ChannelComparison struct {
	Channel    string `json:"channel"`
	StaffCents int64  `json:"staff_cents"`
	POSCents   int64  `json:"pos_cents"`
	DiffCents  int64  `json:"diff_cents"`
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// PriceSource says where a shopping list cost estimate came from.
type PriceSource string

const (
	PriceLastPurchase PriceSource = "last_purchase"
	PriceMissing      PriceSource = "missing"
)

type ShoppingListItem struct {
	Item         string   `json:"item"`
	Ingredient   string   `json:"ingredient"`
	Reason       string   `json:"reason"`
	SuggestedQty int64    `json:"suggested_qty"`
	Unit         string   `json:"unit"`
	Priority     Priority `json:"priority"`
	// EstimatedCostCents is nil when no priced purchase exists.
	EstimatedCostCents *int64      `json:"estimated_cost_cents"`
	PriceSource        PriceSource `json:"price_source"`
}

// StockLevels are the most recent counted levels; nil means not counted.
type StockLevels struct {
	Buns       *int64 `json:"buns"`
	MeatGrams  *int64 `json:"meat_grams"`
	DrinkUnits *int64 `json:"drinks"`
}

// MenuPortion maps one POS menu item to the ingredients a single sale consumes.
type MenuPortion struct {
	SKU       string `json:"sku" yaml:"sku"`
	Name      string `json:"name" yaml:"name"`
	Buns      int64  `json:"buns" yaml:"buns"`
	MeatGrams int64  `json:"meat_grams" yaml:"meat_grams"`
	Drinks    int64  `json:"drinks" yaml:"drinks"`
}

type IngestionError struct {
	ID           string    `json:"id"`
	SyncRunID    string    `json:"sync_run_id,omitempty"`
	ExternalID   string    `json:"external_id,omitempty"`
	Context      string    `json:"context"`
	ErrorMessage string    `json:"error_message"`
	RawPayload   string    `json:"raw_payload"`
	CreatedAt    time.Time `json:"created_at"`
}

type SyncRun struct {
	ID             string     `json:"id"`
	ShiftDate      string     `json:"shift_date"`
	Mode           string     `json:"mode"`
	WindowStart    time.Time  `json:"window_start"`
	WindowEnd      time.Time  `json:"window_end"`
	Status         string     `json:"status"`
	Pages          int        `json:"pages"`
	Fetched        int        `json:"fetched"`
	Inserted       int        `json:"inserted"`
	Updated        int        `json:"updated"`
	Failed         int        `json:"failed"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	TriggeredByJob bool       `json:"triggered_by_job"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

// Reconciliation is the persisted outcome for a shift date.
type Reconciliation struct {
	ShiftDate    string             `json:"shift_date"`
	Result       VarianceResult     `json:"result"`
	ShoppingList []ShoppingListItem `json:"shopping_list"`
	ComputedAt   time.Time          `json:"computed_at"`
}

type StaffReportRequest struct {
	ShiftDate      string      `json:"shift_date"`
	CompletedBy    string      `json:"completed_by"`
	CashStart      money.Input `json:"cash_start"`
	CashEnd        money.Input `json:"cash_end"`
	CashBanked     money.Input `json:"cash_banked,omitempty"`
	QRTransferred  money.Input `json:"qr_transferred,omitempty"`
	Expenses       money.Input `json:"expenses,omitempty"`
	CashSales      money.Input `json:"cash_sales,omitempty"`
	QRSales        money.Input `json:"qr_sales,omitempty"`
	GrabSales      money.Input `json:"grab_sales,omitempty"`
	OtherSales     money.Input `json:"other_sales,omitempty"`
	BunsStart      money.Input `json:"buns_start,omitempty"`
	BunsEnd        money.Input `json:"buns_end,omitempty"`
	MeatStartGrams money.Input `json:"meat_start_grams,omitempty"`
	MeatEndGrams   money.Input `json:"meat_end_grams,omitempty"`
	DrinksStart    money.Input `json:"drinks_start,omitempty"`
	DrinksEnd      money.Input `json:"drinks_end,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

type PurchaseRequest struct {
	ShiftDate  string      `json:"shift_date"`
	Ingredient string      `json:"ingredient"`
	Quantity   money.Input `json:"quantity"`
	Amount     money.Input `json:"amount,omitempty"`
	Supplier   string      `json:"supplier,omitempty"`
	Note       string      `json:"note,omitempty"`
}

type RecheckRequest struct {
	ShiftDate string `json:"shift_date"`
}

type SyncRequest struct {
	ShiftDate string `json:"shift_date"`
}

type ReconciliationResponse struct {
	Reconciliation Reconciliation `json:"reconciliation"`
	Prompts        []string       `json:"prompts,omitempty"`
	Cached         bool           `json:"cached"`
}

type RecheckResponse struct {
	Reconciliation Reconciliation      `json:"reconciliation"`
	PreviousState  ReconciliationState `json:"previous_state,omitempty"`
	Changed        bool                `json:"changed"`
	Prompts        []string            `json:"prompts,omitempty"`
}
