package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/hub"
	"github.com/spec-kit/support-chat/internal/observability"
	"github.com/spec-kit/support-chat/internal/repository"
	"github.com/spec-kit/support-chat/internal/storage"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

// Dashboard aggregates the counters shown on the admin panel.
type Dashboard struct {
	Store       domain.StoreStats
	Credentials auth.CredentialStats
	Hub         hub.Stats
	RateLimit   guard.LimiterStats
	Requests    observability.MetricsSnapshot
}

// AdminService exposes operator-only views and actions.
type AdminService struct {
	customers   repository.CustomerRepository
	messages    repository.MessageRepository
	hub         *hub.Hub
	media       *storage.MediaStore
	credentials *auth.Manager
	limiter     *guard.Limiter
	metrics     *observability.Metrics
	validator   guard.Validator
	logger      *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	CustomerRepo repository.CustomerRepository
	MessageRepo  repository.MessageRepository
	Hub          *hub.Hub
	Media        *storage.MediaStore
	Credentials  *auth.Manager
	Limiter      *guard.Limiter
	Metrics      *observability.Metrics
	Validator    guard.Validator
	Logger       *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		customers:   deps.CustomerRepo,
		messages:    deps.MessageRepo,
		hub:         deps.Hub,
		media:       deps.Media,
		credentials: deps.Credentials,
		limiter:     deps.Limiter,
		metrics:     deps.Metrics,
		validator:   deps.Validator,
		logger:      logger,
	}
}

// ListCustomers returns every customer, most recently active first.
func (s *AdminService) ListCustomers(ctx context.Context) ([]domain.CustomerSummary, error) {
	list, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.CustomerSummary{}
	}
	return list, nil
}

// DeleteCustomer removes the customer, their messages, their uploaded files
// and any buffered stream events.
func (s *AdminService) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.validator.ValidateCustomerID(id); err != nil {
		return err
	}
	msgs, err := s.messages.ListByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("customer", map[string]any{"user_id": id})
		}
		return err
	}

	removed := 0
	for _, msg := range msgs {
		if !msg.ContentKind.IsMedia() || s.media == nil {
			continue
		}
		if err := s.media.Remove(msg.Content); err != nil {
			s.logger.Warn("remove media file", zap.String("ref", msg.Content), zap.Error(err))
			continue
		}
		removed++
	}
	if s.hub != nil {
		s.hub.Discard(id)
	}

	s.logger.Info("customer deleted",
		zap.String("customer_id", id),
		zap.Int("messages", len(msgs)),
		zap.Int("files_removed", removed))
	return nil
}

// Stats collects the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*Dashboard, error) {
	store, err := s.customers.Stats(ctx)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{
		Store:    store,
		Requests: s.metrics.Snapshot(),
	}
	if s.credentials != nil {
		dash.Credentials = s.credentials.Stats()
	}
	if s.hub != nil {
		dash.Hub = s.hub.Stats()
	}
	if s.limiter != nil {
		dash.RateLimit = s.limiter.Stats()
	}
	return dash, nil
}
