package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/xid"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

func (s *Store) UpsertReceipt(ctx context.Context, receipt domain.Receipt) (bool, error) {
	if strings.TrimSpace(receipt.ExternalID) == "" {
		return false, store.ErrInvalidInput
	}
	items, err := json.Marshal(receipt.Items)
	if err != nil {
		return false, err
	}
	payments, err := json.Marshal(receipt.Payments)
	if err != nil {
		return false, err
	}

	// xmax = 0 only for rows the statement inserted.
	var inserted bool
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO pos_receipts (
			external_id, receipt_number, store_id, receipt_type, channel, created_at,
			subtotal_cents, tax_cents, discount_cents, total_cents,
			items, payments, schema_version, raw_payload
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (external_id) DO UPDATE SET
			receipt_number = EXCLUDED.receipt_number,
			store_id = EXCLUDED.store_id,
			receipt_type = EXCLUDED.receipt_type,
			channel = EXCLUDED.channel,
			created_at = EXCLUDED.created_at,
			subtotal_cents = EXCLUDED.subtotal_cents,
			tax_cents = EXCLUDED.tax_cents,
			discount_cents = EXCLUDED.discount_cents,
			total_cents = EXCLUDED.total_cents,
			items = EXCLUDED.items,
			payments = EXCLUDED.payments,
			schema_version = EXCLUDED.schema_version,
			raw_payload = EXCLUDED.raw_payload,
			updated_at = now()
		RETURNING (xmax = 0)
	`,
		receipt.ExternalID, nullIfEmpty(receipt.ReceiptNumber), nullIfEmpty(receipt.StoreID),
		receipt.Type, receipt.Channel, receipt.CreatedAt.UTC(),
		receipt.SubtotalCents, receipt.TaxCents, receipt.DiscountCents, receipt.TotalCents,
		string(items), string(payments), receipt.SchemaVersion, nullIfEmpty(string(receipt.RawPayload)),
	).Scan(&inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *Store) ListReceipts(ctx context.Context, from time.Time, to time.Time) ([]domain.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, COALESCE(receipt_number, ''), COALESCE(store_id, ''), receipt_type, channel,
			created_at, subtotal_cents, tax_cents, discount_cents, total_cents,
			items, payments, schema_version
		FROM pos_receipts
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC, external_id ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]domain.Receipt, 0, 128)
	for rows.Next() {
		var r domain.Receipt
		var items, payments []byte
		if err := rows.Scan(
			&r.ExternalID, &r.ReceiptNumber, &r.StoreID, &r.Type, &r.Channel,
			&r.CreatedAt, &r.SubtotalCents, &r.TaxCents, &r.DiscountCents, &r.TotalCents,
			&items, &payments, &r.SchemaVersion,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &r.Items); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payments, &r.Payments); err != nil {
			return nil, err
		}
		r.CreatedAt = r.CreatedAt.UTC()
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (s *Store) CreateSyncRun(ctx context.Context, run domain.SyncRun) error {
	if run.ID == "" {
		run.ID = xid.New("sync")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pos_sync_runs (id, shift_date, mode, window_start, window_end, status, started_at, triggered_by_job)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, run.ID, run.ShiftDate, run.Mode, run.WindowStart.UTC(), run.WindowEnd.UTC(), run.Status, run.StartedAt.UTC(), run.TriggeredByJob)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) FinishSyncRun(ctx context.Context, run domain.SyncRun) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pos_sync_runs
		SET status = $2, pages = $3, fetched = $4, inserted = $5, updated = $6, failed = $7,
			error_message = $8, finished_at = $9
		WHERE id = $1
	`, run.ID, run.Status, run.Pages, run.Fetched, run.Inserted, run.Updated, run.Failed,
		nullIfEmpty(run.ErrorMessage), nullTime(run.FinishedAt))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const syncRunColumns = `id, shift_date, mode, window_start, window_end, status, pages, fetched, inserted,
	updated, failed, COALESCE(error_message, ''), started_at, finished_at, triggered_by_job`

func scanSyncRun(row interface{ Scan(...any) error }) (domain.SyncRun, error) {
	var run domain.SyncRun
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.ShiftDate, &run.Mode, &run.WindowStart, &run.WindowEnd, &run.Status,
		&run.Pages, &run.Fetched, &run.Inserted, &run.Updated, &run.Failed, &run.ErrorMessage,
		&run.StartedAt, &finished, &run.TriggeredByJob)
	if err != nil {
		return domain.SyncRun{}, err
	}
	if finished.Valid {
		at := finished.Time.UTC()
		run.FinishedAt = &at
	}
	run.WindowStart = run.WindowStart.UTC()
	run.WindowEnd = run.WindowEnd.UTC()
	run.StartedAt = run.StartedAt.UTC()
	return run, nil
}

func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+syncRunColumns+`
		FROM pos_sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]domain.SyncRun, 0, limit)
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) LatestCompletedSyncRun(ctx context.Context, shiftDate string) (*domain.SyncRun, error) {
	run, err := scanSyncRun(s.db.QueryRowContext(ctx, `
		SELECT `+syncRunColumns+`
		FROM pos_sync_runs
		WHERE shift_date = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1
	`, shiftDate, domain.SyncCompleted))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (s *Store) LatestSyncRun(ctx context.Context, shiftDate string) (*domain.SyncRun, error) {
	run, err := scanSyncRun(s.db.QueryRowContext(ctx, `
		SELECT `+syncRunColumns+`
		FROM pos_sync_runs
		WHERE shift_date = $1
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, shiftDate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (s *Store) CreateIngestionError(ctx context.Context, entry domain.IngestionError) error {
	if entry.ID == "" {
		entry.ID = xid.New("ingerr")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pos_ingestion_errors (id, sync_run_id, external_id, context, error_message, raw_payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, nullIfEmpty(entry.SyncRunID), nullIfEmpty(entry.ExternalID), entry.Context, entry.ErrorMessage, entry.RawPayload, entry.CreatedAt)
	return err
}

func (s *Store) ListIngestionErrors(ctx context.Context, limit int) ([]domain.IngestionError, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(sync_run_id, ''), COALESCE(external_id, ''), context, error_message, raw_payload, created_at
		FROM pos_ingestion_errors
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.IngestionError, 0, limit)
	for rows.Next() {
		var e domain.IngestionError
		if err := rows.Scan(&e.ID, &e.SyncRunID, &e.ExternalID, &e.Context, &e.ErrorMessage, &e.RawPayload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

const staffReportColumns = `id, shift_date, completed_by, cash_start_cents, cash_end_cents, cash_banked_cents,
	qr_transferred_cents, expenses_cents, cash_sales_cents, qr_sales_cents, grab_sales_cents, other_sales_cents,
	buns_start, buns_end, meat_start_grams, meat_end_grams, drinks_start, drinks_end,
	COALESCE(notes, ''), submitted_at, updated_at`

func scanStaffReport(row interface{ Scan(...any) error }) (domain.StaffShiftReport, error) {
	var r domain.StaffShiftReport
	var bunsStart, bunsEnd, meatStart, meatEnd, drinksStart, drinksEnd sql.NullInt64
	err := row.Scan(&r.ID, &r.ShiftDate, &r.CompletedBy, &r.CashStartCents, &r.CashEndCents, &r.CashBankedCents,
		&r.QRTransferredCents, &r.ExpensesCents, &r.Sales.CashCents, &r.Sales.QRCents, &r.Sales.GrabCents, &r.Sales.OtherCents,
		&bunsStart, &bunsEnd, &meatStart, &meatEnd, &drinksStart, &drinksEnd,
		&r.Notes, &r.SubmittedAt, &r.UpdatedAt)
	if err != nil {
		return domain.StaffShiftReport{}, err
	}
	r.BunsStart = fromNullInt(bunsStart)
	r.BunsEnd = fromNullInt(bunsEnd)
	r.MeatStartGrams = fromNullInt(meatStart)
	r.MeatEndGrams = fromNullInt(meatEnd)
	r.DrinksStart = fromNullInt(drinksStart)
	r.DrinksEnd = fromNullInt(drinksEnd)
	r.SubmittedAt = r.SubmittedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (s *Store) CreateStaffReport(ctx context.Context, report domain.StaffShiftReport) (*domain.StaffShiftReport, error) {
	if report.ShiftDate == "" {
		return nil, store.ErrInvalidInput
	}
	if report.ID == "" {
		report.ID = xid.New("shift")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff_shift_reports (
			id, shift_date, completed_by, cash_start_cents, cash_end_cents, cash_banked_cents,
			qr_transferred_cents, expenses_cents, cash_sales_cents, qr_sales_cents, grab_sales_cents, other_sales_cents,
			buns_start, buns_end, meat_start_grams, meat_end_grams, drinks_start, drinks_end,
			notes, submitted_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`, report.ID, report.ShiftDate, report.CompletedBy, report.CashStartCents, report.CashEndCents, report.CashBankedCents,
		report.QRTransferredCents, report.ExpensesCents, report.Sales.CashCents, report.Sales.QRCents, report.Sales.GrabCents, report.Sales.OtherCents,
		nullInt(report.BunsStart), nullInt(report.BunsEnd), nullInt(report.MeatStartGrams), nullInt(report.MeatEndGrams),
		nullInt(report.DrinksStart), nullInt(report.DrinksEnd),
		nullIfEmpty(report.Notes), report.SubmittedAt.UTC(), report.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	saved := report
	return &saved, nil
}

func (s *Store) UpdateStaffReport(ctx context.Context, report domain.StaffShiftReport) (*domain.StaffShiftReport, error) {
	saved, err := scanStaffReport(s.db.QueryRowContext(ctx, `
		UPDATE staff_shift_reports
		SET completed_by = $2, cash_start_cents = $3, cash_end_cents = $4, cash_banked_cents = $5,
			qr_transferred_cents = $6, expenses_cents = $7, cash_sales_cents = $8, qr_sales_cents = $9,
			grab_sales_cents = $10, other_sales_cents = $11, buns_start = $12, buns_end = $13,
			meat_start_grams = $14, meat_end_grams = $15, drinks_start = $16, drinks_end = $17,
			notes = $18, updated_at = $19
		WHERE shift_date = $1
		RETURNING `+staffReportColumns,
		report.ShiftDate, report.CompletedBy, report.CashStartCents, report.CashEndCents, report.CashBankedCents,
		report.QRTransferredCents, report.ExpensesCents, report.Sales.CashCents, report.Sales.QRCents,
		report.Sales.GrabCents, report.Sales.OtherCents, nullInt(report.BunsStart), nullInt(report.BunsEnd),
		nullInt(report.MeatStartGrams), nullInt(report.MeatEndGrams), nullInt(report.DrinksStart), nullInt(report.DrinksEnd),
		nullIfEmpty(report.Notes), report.UpdatedAt.UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &saved, nil
}

func (s *Store) GetStaffReport(ctx context.Context, shiftDate string) (*domain.StaffShiftReport, error) {
	report, err := scanStaffReport(s.db.QueryRowContext(ctx, `
		SELECT `+staffReportColumns+`
		FROM staff_shift_reports
		WHERE shift_date = $1
	`, shiftDate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *Store) ListStaffReports(ctx context.Context, limit int) ([]domain.StaffShiftReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+staffReportColumns+`
		FROM staff_shift_reports
		ORDER BY shift_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]domain.StaffShiftReport, 0, limit)
	for rows.Next() {
		report, err := scanStaffReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase domain.PurchaseRecord) (*domain.PurchaseRecord, error) {
	if purchase.ShiftDate == "" || purchase.Ingredient == "" {
		return nil, store.ErrInvalidInput
	}
	if purchase.ID == "" {
		purchase.ID = xid.New("purchase")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchase_records (id, shift_date, ingredient, quantity, amount_cents, supplier, note, recorded_by, purchased_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, purchase.ID, purchase.ShiftDate, purchase.Ingredient, purchase.Quantity, purchase.AmountCents,
		nullIfEmpty(purchase.Supplier), nullIfEmpty(purchase.Note), purchase.RecordedBy, purchase.PurchasedAt.UTC())
	if err != nil {
		return nil, err
	}
	saved := purchase
	return &saved, nil
}

func (s *Store) ListPurchases(ctx context.Context, shiftDate string) ([]domain.PurchaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_date, ingredient, quantity, amount_cents, COALESCE(supplier, ''), COALESCE(note, ''), recorded_by, purchased_at
		FROM purchase_records
		WHERE shift_date = $1
		ORDER BY purchased_at ASC, id ASC
	`, shiftDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.PurchaseRecord, 0, 8)
	for rows.Next() {
		var p domain.PurchaseRecord
		if err := rows.Scan(&p.ID, &p.ShiftDate, &p.Ingredient, &p.Quantity, &p.AmountCents, &p.Supplier, &p.Note, &p.RecordedBy, &p.PurchasedAt); err != nil {
			return nil, err
		}
		p.PurchasedAt = p.PurchasedAt.UTC()
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) LastPricedPurchases(ctx context.Context, shiftDate string) ([]domain.PurchaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (ingredient)
			id, shift_date, ingredient, quantity, amount_cents, COALESCE(supplier, ''), COALESCE(note, ''), recorded_by, purchased_at
		FROM purchase_records
		WHERE shift_date <= $1 AND quantity > 0 AND amount_cents > 0
		ORDER BY ingredient, shift_date DESC, purchased_at DESC, id DESC
	`, shiftDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.PurchaseRecord, 0, 4)
	for rows.Next() {
		var p domain.PurchaseRecord
		if err := rows.Scan(&p.ID, &p.ShiftDate, &p.Ingredient, &p.Quantity, &p.AmountCents, &p.Supplier, &p.Note, &p.RecordedBy, &p.PurchasedAt); err != nil {
			return nil, err
		}
		p.PurchasedAt = p.PurchasedAt.UTC()
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	if rec.ShiftDate == "" {
		return store.ErrInvalidInput
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return err
	}
	list, err := json.Marshal(rec.ShoppingList)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shift_reconciliations (shift_date, result, shopping_list, computed_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (shift_date) DO UPDATE SET
			result = EXCLUDED.result,
			shopping_list = EXCLUDED.shopping_list,
			computed_at = EXCLUDED.computed_at
	`, rec.ShiftDate, string(result), string(list), rec.ComputedAt.UTC())
	return err
}

func (s *Store) GetReconciliation(ctx context.Context, shiftDate string) (*domain.Reconciliation, error) {
	var rec domain.Reconciliation
	var result, list []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT shift_date, result, shopping_list, computed_at
		FROM shift_reconciliations
		WHERE shift_date = $1
	`, shiftDate).Scan(&rec.ShiftDate, &result, &list, &rec.ComputedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(list, &rec.ShoppingList); err != nil {
		return nil, err
	}
	rec.ComputedAt = rec.ComputedAt.UTC()
	return &rec, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return val.UTC()
}

func nullInt(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}

func fromNullInt(val sql.NullInt64) *int64 {
	if !val.Valid {
		return nil
	}
	v := val.Int64
	return &v
}
