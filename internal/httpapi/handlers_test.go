package httpapi

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/service"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store/memory"
)

const testWebhookSecret = "hook-secret"

const webhookReceipt = `{
  "event": "receipt.created",
  "data": {
    "receipt_number": "2-017",
    "receipt_type": "SALE",
    "created_at": "2024-03-01T13:30:00Z",
    "total_money": 189,
    "line_items": [{"item_name": "Smash Burger", "quantity": 1, "price": 189, "total_money": 189}],
    "payments": [{"type": "QR", "money_amount": 189}]
  }
}`

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()
	return newTestAPIWithWebhook(t, testWebhookSecret)
}

func newTestAPIWithWebhook(t *testing.T, webhookSecret string) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(service.Options{Repo: repo})
	auth, err := NewAuthManager(testSecret, time.Hour, repo)
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	return New(svc, auth, Config{AllowedOrigin: "*", WebhookSecret: webhookSecret})
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func login(t *testing.T, api *API, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("%s login failed, status %d", username, res.Code)
	}

	var payload domain.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	return payload.AccessToken
}

// call sends an authenticated request; mutating methods also carry a CSRF token.
func call(t *testing.T, api *API, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if method != http.MethodGet {
		req.Header.Set("X-CSRF-Token", fetchCSRFToken(t, api))
	}
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	return res
}

func signWebhook(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(api *API, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/loyverse", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Loyverse-Signature", signature)
	}
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	return res
}

var fullStaffForm = map[string]any{
	"shift_date":     "2024-03-01",
	"cash_start":     "2000",
	"cash_end":       "5418",
	"cash_banked":    "3418",
	"qr_transferred": 0,
	"cash_sales":     "418.00",
	"buns_start":     100,
	"buns_end":       88,
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)

	payload, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrongpassword"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestReconciliation_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation?date=2024-03-01", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestReconciliation_StaffRoleForbidden(t *testing.T) {
	api := newTestAPI(t)
	token := login(t, api, "staff", "staff123")

	res := call(t, api, http.MethodGet, "/api/v1/reconciliation?date=2024-03-01", token, nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestReconciliation_MissingDataIsNotAnError(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := call(t, api, http.MethodGet, "/api/v1/reconciliation?date=2024-03-01", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}

	var body domain.ReconciliationResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Reconciliation.Result.State != domain.StateMissingData {
		t.Fatalf("expected MISSING_DATA, got %s", body.Reconciliation.Result.State)
	}
	joined := strings.Join(body.Prompts, "\n")
	if !strings.Contains(joined, service.PromptSubmitStaffForm) || !strings.Contains(joined, service.PromptRunPOSSync) {
		t.Fatalf("expected staff form and POS sync prompts, got %v", body.Prompts)
	}
}

func TestReconciliation_BadDateIs400(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := call(t, api, http.MethodGet, "/api/v1/reconciliation?date=01-03-2024", token, nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestStaffReport_SubmitThenConflict(t *testing.T) {
	api := newTestAPI(t)
	token := login(t, api, "staff", "staff123")

	res := call(t, api, http.MethodPost, "/api/v1/staff-reports", token, fullStaffForm)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}
	var created struct {
		Report domain.StaffShiftReport `json:"report"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if created.Report.CashBankedCents != 341800 {
		t.Fatalf("expected cash_banked 341800 minor units, got %d", created.Report.CashBankedCents)
	}
	if created.Report.CompletedBy != "staff" {
		t.Fatalf("expected completed_by to default to the caller, got %q", created.Report.CompletedBy)
	}

	res = call(t, api, http.MethodPost, "/api/v1/staff-reports", token, fullStaffForm)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second submit, got %d", res.Code)
	}
}

func TestStaffReport_NegativeAmountRejected(t *testing.T) {
	api := newTestAPI(t)
	token := login(t, api, "staff", "staff123")

	form := map[string]any{}
	for k, v := range fullStaffForm {
		form[k] = v
	}
	form["cash_banked"] = "-5"

	res := call(t, api, http.MethodPost, "/api/v1/staff-reports", token, form)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestStaffReport_OversizedAmountRejected(t *testing.T) {
	api := newTestAPI(t)
	token := login(t, api, "staff", "staff123")

	form := map[string]any{}
	for k, v := range fullStaffForm {
		form[k] = v
	}
	form["cash_banked"] = "99999999999999999999"

	res := call(t, api, http.MethodPost, "/api/v1/staff-reports", token, form)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Body.String(), "cash_banked") {
		t.Fatalf("expected the error to name cash_banked, got %s", res.Body.String())
	}
}

func TestStaffReport_EditIsManagerOnly(t *testing.T) {
	api := newTestAPI(t)
	staff := login(t, api, "staff", "staff123")

	if res := call(t, api, http.MethodPost, "/api/v1/staff-reports", staff, fullStaffForm); res.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d", res.Code)
	}

	edit := map[string]any{"buns_end": 97}
	if res := call(t, api, http.MethodPatch, "/api/v1/staff-reports/2024-03-01", staff, edit); res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff edit, got %d", res.Code)
	}

	manager := login(t, api, "manager", "manager123")
	res := call(t, api, http.MethodPatch, "/api/v1/staff-reports/2024-03-01", manager, edit)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager edit, got %d (body: %s)", res.Code, res.Body.String())
	}
	var updated struct {
		Report domain.StaffShiftReport `json:"report"`
	}
	if err := json.NewDecoder(res.Body).Decode(&updated); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if updated.Report.BunsEnd == nil || *updated.Report.BunsEnd != 97 {
		t.Fatalf("expected buns_end 97, got %v", updated.Report.BunsEnd)
	}
	if updated.Report.CashBankedCents != 341800 {
		t.Fatalf("edit must keep untouched fields, got cash_banked %d", updated.Report.CashBankedCents)
	}
}

func TestStaffReport_GetUnknownIs404(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := call(t, api, http.MethodGet, "/api/v1/staff-reports/2024-03-01", token, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDailyReport_Formats(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	cases := []struct {
		format      string
		contentType string
	}{
		{"json", "application/json"},
		{"text", "text/plain"},
		{"html", "text/html"},
		{"csv", "text/csv"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			res := call(t, api, http.MethodGet, "/api/v1/reports/daily?date=2024-03-01&format="+tc.format, token, nil)
			if res.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
			}
			if got := res.Header().Get("Content-Type"); !strings.HasPrefix(got, tc.contentType) {
				t.Fatalf("expected content type %q, got %q", tc.contentType, got)
			}
			if res.Body.Len() == 0 {
				t.Fatalf("expected a non-empty body")
			}
		})
	}

	res := call(t, api, http.MethodGet, "/api/v1/reports/daily?date=2024-03-01&format=docx", token, nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", res.Code)
	}
}

func TestSync_WithoutSourceIs503(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := call(t, api, http.MethodPost, "/api/v1/sync", token, domain.SyncRequest{ShiftDate: "2024-03-01"})
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestWebhook_ValidSignatureStoresReceipt(t *testing.T) {
	api := newTestAPI(t)
	payload := []byte(webhookReceipt)

	res := postWebhook(api, payload, "sha256="+signWebhook(testWebhookSecret, payload))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["stored"] != float64(1) {
		t.Fatalf("expected one stored receipt, got %v", body)
	}

	token := loginAsAdmin(t, api)
	rec := call(t, api, http.MethodGet, "/api/v1/reconciliation?date=2024-03-01", token, nil)
	var recon domain.ReconciliationResponse
	if err := json.NewDecoder(rec.Body).Decode(&recon); err != nil {
		t.Fatalf("decode reconciliation: %v", err)
	}
	if recon.Reconciliation.Result.State != domain.StateMissingData {
		t.Fatalf("pushed receipts without a completed sync must not count as POS data, got %s", recon.Reconciliation.Result.State)
	}
	if !strings.Contains(strings.Join(recon.Prompts, "\n"), service.PromptRunPOSSync) {
		t.Fatalf("expected the sync prompt, got %v", recon.Prompts)
	}
}

func TestWebhook_BadSignatureIs401(t *testing.T) {
	api := newTestAPI(t)
	payload := []byte(webhookReceipt)

	if res := postWebhook(api, payload, signWebhook("wrong-secret", payload)); res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong signature, got %d", res.Code)
	}
	if res := postWebhook(api, payload, ""); res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", res.Code)
	}
}

func TestWebhook_UnconfiguredSecretIs503(t *testing.T) {
	api := newTestAPIWithWebhook(t, "")
	payload := []byte(webhookReceipt)

	if res := postWebhook(api, payload, signWebhook("", payload)); res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestWebhook_OtherEventsIgnored(t *testing.T) {
	api := newTestAPI(t)
	payload := []byte(`{"event":"inventory_levels.update","data":{}}`)

	res := postWebhook(api, payload, signWebhook(testWebhookSecret, payload))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "ignored") {
		t.Fatalf("expected ignored status, got %s", res.Body.String())
	}
}

func TestWebhook_MalformedReceiptCounted(t *testing.T) {
	api := newTestAPI(t)
	payload := []byte(`{"event":"receipt.created","data":{"receipt_type":"SALE"}}`)

	res := postWebhook(api, payload, signWebhook(testWebhookSecret, payload))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", res.Code, res.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["rejected"] != float64(1) || body["stored"] != float64(0) {
		t.Fatalf("expected one rejected receipt, got %v", body)
	}
}

func TestStaffUsers_AdminCreatesStaff(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	res := call(t, api, http.MethodPost, "/api/v1/users", token, domain.StaffUserCreateRequest{
		Username: "dewi",
		Password: "night-shift-8",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", res.Code, res.Body.String())
	}

	res = call(t, api, http.MethodGet, "/api/v1/users", token, nil)
	if !strings.Contains(res.Body.String(), `"dewi"`) {
		t.Fatalf("expected new user in listing, got %s", res.Body.String())
	}
}

// TestMustHashPassword verifies that the test helper produces valid bcrypt hashes
// (used to confirm test infrastructure is sound).
func TestMustHashPassword(t *testing.T) {
	hash := mustHashPassword(t, "secret")
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")); err != nil {
		t.Fatalf("hash verification failed: %v", err)
	}
}
