package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/cache"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/ingest"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/notify"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/reconcile"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/shiftwindow"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/store"
	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/xid"
)

var ErrForbidden = errors.New("insufficient role")

// ValidationError is a rejected form field. It matches store.ErrInvalidInput
// so handlers map it to 400.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == store.ErrInvalidInput
}

func invalid(field string, format string, args ...any) error {
	return &ValidationError{Field: field, Err: fmt.Errorf(format, args...)}
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// PortionSource supplies the menu portion table.
type PortionSource interface {
	Portions() ([]domain.MenuPortion, error)
}

type Options struct {
	Repo       store.Repository
	Cache      cache.ReconciliationCache
	CacheTTL   time.Duration
	Portions   PortionSource
	Ingester   *ingest.Ingester
	Mailer     notify.Mailer
	Recipients []string
	Calculator reconcile.Calculator
	Logger     *zap.Logger
	Now        func() time.Time
}

type Service struct {
	repo       store.Repository
	cache      cache.ReconciliationCache
	cacheTTL   time.Duration
	portions   PortionSource
	ingester   *ingest.Ingester
	mailer     notify.Mailer
	recipients []string
	calc       reconcile.Calculator
	logger     *zap.Logger
	now        func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		repo:       opts.Repo,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		portions:   opts.Portions,
		ingester:   opts.Ingester,
		mailer:     opts.Mailer,
		recipients: opts.Recipients,
		calc:       opts.Calculator,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if s.cache == nil {
		s.cache = cache.NoopReconciliationCache{}
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 5 * time.Minute
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.mailer == nil {
		s.mailer = notify.NewLogMailer(s.logger)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ingester == nil {
		s.ingester = ingest.New(nil, s.repo, s.logger)
	}
	return s
}

// window resolves a shift date; empty means the shift in progress (or the
// one that just ended, before 03:00).
func (s *Service) window(raw string) (shiftwindow.Window, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return shiftwindow.Resolve(s.now()), nil
	}
	w, err := shiftwindow.ForDate(raw)
	if err != nil {
		return shiftwindow.Window{}, invalid("shift_date", "expected YYYY-MM-DD, got %q", raw)
	}
	return w, nil
}

func (s *Service) ListIngestionErrors(ctx context.Context, limit int) ([]domain.IngestionError, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListIngestionErrors(ctx, limit)
}

func (s *Service) ListSyncRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListSyncRuns(ctx, limit)
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	// Without a date: the last 24 hours, including entries written just now.
	to := s.now().UTC().Add(time.Second)
	from := to.Add(-24 * time.Hour)
	if strings.TrimSpace(date) != "" {
		parsed, err := time.ParseInLocation(shiftwindow.DateLayout, date, shiftwindow.Location)
		if err != nil {
			return nil, invalid("date", "expected YYYY-MM-DD, got %q", date)
		}
		from = parsed.UTC()
		to = from.Add(24 * time.Hour)
	}

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err),
		)
	}
}

func (s *Service) invalidate(ctx context.Context, dates ...string) {
	for _, date := range dates {
		if err := s.cache.Delete(ctx, date); err != nil {
			s.logger.Warn("reconciliation cache delete failed", zap.String("shift_date", date), zap.Error(err))
		}
	}
}

func requireRole(ctx context.Context, roles ...string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, ErrForbidden
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return actor, ErrForbidden
}
