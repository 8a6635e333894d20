package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	receipts        map[string]domain.Receipt
	syncRuns        map[string]domain.SyncRun
	ingestionErrors []domain.IngestionError
	staffReports    map[string]domain.StaffShiftReport
	purchases       []domain.PurchaseRecord
	reconciliations map[string]domain.Reconciliation
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		receipts:        make(map[string]domain.Receipt),
		syncRuns:        make(map[string]domain.SyncRun),
		staffReports:    make(map[string]domain.StaffShiftReport),
		reconciliations: make(map[string]domain.Reconciliation),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store with dev/demo accounts. Passwords come from
// SEED_ADMIN_PASSWORD, SEED_MANAGER_PASSWORD and SEED_STAFF_PASSWORD; the
// fallbacks are only suitable for local use.
func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()
	return s
}

func seedUsers() map[string]domain.UserAccount {
	keys := []string{"SEED_ADMIN_PASSWORD", "SEED_MANAGER_PASSWORD", "SEED_STAFF_PASSWORD"}
	for _, key := range keys {
		if os.Getenv(key) == "" {
			zap.L().Warn("seed password not set, using dev default", zap.String("env", key))
		}
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", envOr("SEED_ADMIN_PASSWORD", "admin123"), domain.RoleAdmin},
		{"manager", envOr("SEED_MANAGER_PASSWORD", "manager123"), domain.RoleManager},
		{"staff", envOr("SEED_STAFF_PASSWORD", "staff123"), domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Fatal("failed to hash seed password", zap.String("username", u.username), zap.Error(err))
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) UpsertReceipt(_ context.Context, receipt domain.Receipt) (bool, error) {
	if strings.TrimSpace(receipt.ExternalID) == "" {
		return false, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.receipts[receipt.ExternalID]
	s.receipts[receipt.ExternalID] = cloneReceipt(receipt)
	return !exists, nil
}

func (s *Store) ListReceipts(_ context.Context, from time.Time, to time.Time) ([]domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Receipt, 0, 64)
	for _, receipt := range s.receipts {
		if receipt.CreatedAt.Before(from) || !receipt.CreatedAt.Before(to) {
			continue
		}
		result = append(result, cloneReceipt(receipt))
	}
	slices.SortFunc(result, func(a, b domain.Receipt) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ExternalID, b.ExternalID)
	})
	return result, nil
}

func (s *Store) CreateSyncRun(_ context.Context, run domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = xid.New("sync")
	}
	if _, exists := s.syncRuns[run.ID]; exists {
		return store.ErrConflict
	}
	s.syncRuns[run.ID] = run
	return nil
}

func (s *Store) FinishSyncRun(_ context.Context, run domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.syncRuns[run.ID]; !exists {
		return store.ErrNotFound
	}
	s.syncRuns[run.ID] = run
	return nil
}

func (s *Store) ListSyncRuns(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.SyncRun, 0, len(s.syncRuns))
	for _, run := range s.syncRuns {
		runs = append(runs, run)
	}
	slices.SortFunc(runs, func(a, b domain.SyncRun) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *Store) LatestCompletedSyncRun(_ context.Context, shiftDate string) (*domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SyncRun
	for _, run := range s.syncRuns {
		if run.ShiftDate != shiftDate || run.Status != domain.SyncCompleted {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			found := run
			latest = &found
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}

func (s *Store) LatestSyncRun(_ context.Context, shiftDate string) (*domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SyncRun
	for _, run := range s.syncRuns {
		if run.ShiftDate != shiftDate {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) ||
			(run.StartedAt.Equal(latest.StartedAt) && run.ID > latest.ID) {
			found := run
			latest = &found
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}

func (s *Store) CreateIngestionError(_ context.Context, entry domain.IngestionError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("ingerr")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.ingestionErrors = append(s.ingestionErrors, entry)
	return nil
}

func (s *Store) ListIngestionErrors(_ context.Context, limit int) ([]domain.IngestionError, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.IngestionError, 0, len(s.ingestionErrors))
	for i := len(s.ingestionErrors) - 1; i >= 0; i-- {
		result = append(result, s.ingestionErrors[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CreateStaffReport(_ context.Context, report domain.StaffShiftReport) (*domain.StaffShiftReport, error) {
	if report.ShiftDate == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.staffReports[report.ShiftDate]; exists {
		return nil, store.ErrConflict
	}
	if report.ID == "" {
		report.ID = xid.New("shift")
	}
	s.staffReports[report.ShiftDate] = report
	saved := report
	return &saved, nil
}

func (s *Store) UpdateStaffReport(_ context.Context, report domain.StaffShiftReport) (*domain.StaffShiftReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.staffReports[report.ShiftDate]
	if !exists {
		return nil, store.ErrNotFound
	}
	report.ID = existing.ID
	report.SubmittedAt = existing.SubmittedAt
	s.staffReports[report.ShiftDate] = report
	saved := report
	return &saved, nil
}

func (s *Store) GetStaffReport(_ context.Context, shiftDate string) (*domain.StaffShiftReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.staffReports[shiftDate]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &report, nil
}

func (s *Store) ListStaffReports(_ context.Context, limit int) ([]domain.StaffShiftReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]domain.StaffShiftReport, 0, len(s.staffReports))
	for _, report := range s.staffReports {
		reports = append(reports, report)
	}
	slices.SortFunc(reports, func(a, b domain.StaffShiftReport) int {
		return strings.Compare(b.ShiftDate, a.ShiftDate)
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (s *Store) CreatePurchase(_ context.Context, purchase domain.PurchaseRecord) (*domain.PurchaseRecord, error) {
	if purchase.ShiftDate == "" || purchase.Ingredient == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.ID == "" {
		purchase.ID = xid.New("purchase")
	}
	s.purchases = append(s.purchases, purchase)
	saved := purchase
	return &saved, nil
}

func (s *Store) ListPurchases(_ context.Context, shiftDate string) ([]domain.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PurchaseRecord, 0, 8)
	for _, purchase := range s.purchases {
		if purchase.ShiftDate == shiftDate {
			result = append(result, purchase)
		}
	}
	return result, nil
}

func (s *Store) LastPricedPurchases(_ context.Context, shiftDate string) ([]domain.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]domain.PurchaseRecord)
	for _, purchase := range s.purchases {
		if purchase.ShiftDate > shiftDate || purchase.Quantity < 1 || purchase.AmountCents <= 0 {
			continue
		}
		current, ok := latest[purchase.Ingredient]
		if !ok || newerPurchase(purchase, current) {
			latest[purchase.Ingredient] = purchase
		}
	}

	result := make([]domain.PurchaseRecord, 0, len(latest))
	for _, purchase := range latest {
		result = append(result, purchase)
	}
	slices.SortFunc(result, func(a, b domain.PurchaseRecord) int { return strings.Compare(a.Ingredient, b.Ingredient) })
	return result, nil
}

func newerPurchase(a, b domain.PurchaseRecord) bool {
	if a.ShiftDate != b.ShiftDate {
		return a.ShiftDate > b.ShiftDate
	}
	if !a.PurchasedAt.Equal(b.PurchasedAt) {
		return a.PurchasedAt.After(b.PurchasedAt)
	}
	return a.ID > b.ID
}

func (s *Store) SaveReconciliation(_ context.Context, rec domain.Reconciliation) error {
	if rec.ShiftDate == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconciliations[rec.ShiftDate] = rec
	return nil
}

func (s *Store) GetReconciliation(_ context.Context, shiftDate string) (*domain.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.reconciliations[shiftDate]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneReceipt(r domain.Receipt) domain.Receipt {
	r.Items = slices.Clone(r.Items)
	r.Payments = slices.Clone(r.Payments)
	r.RawPayload = slices.Clone(r.RawPayload)
	return r
}
