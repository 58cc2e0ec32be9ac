package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/hub"
	"github.com/spec-kit/support-chat/internal/repository"
	"github.com/spec-kit/support-chat/internal/storage"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

// ChatService coordinates customer registration and message flows.
type ChatService struct {
	customers  repository.CustomerRepository
	messages   repository.MessageRepository
	hub        *hub.Hub
	media      *storage.MediaStore
	dispatcher events.Dispatcher
	validator  guard.Validator
	extensions map[domain.ContentKind][]string
	logger     *zap.Logger
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	CustomerRepo    repository.CustomerRepository
	MessageRepo     repository.MessageRepository
	Hub             *hub.Hub
	Media           *storage.MediaStore
	Dispatcher      events.Dispatcher
	Validator       guard.Validator
	ImageExtensions []string
	VoiceExtensions []string
	Logger          *zap.Logger
}

// SendMessageInput describes a text message.
type SendMessageInput struct {
	CustomerID string
	Sender     domain.SenderRole
	Content    string
}

// UploadInput describes a media message.
type UploadInput struct {
	CustomerID string
	Sender     domain.SenderRole
	Kind       domain.ContentKind
	FileName   string
	Body       io.Reader
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		customers:  deps.CustomerRepo,
		messages:   deps.MessageRepo,
		hub:        deps.Hub,
		media:      deps.Media,
		dispatcher: deps.Dispatcher,
		validator:  deps.Validator,
		extensions: map[domain.ContentKind][]string{
			domain.ContentImage: deps.ImageExtensions,
			domain.ContentVoice: deps.VoiceExtensions,
		},
		logger: logger,
	}
}

// RegisterCustomer creates the customer or returns the existing record.
// created reports whether a new row was written.
func (s *ChatService) RegisterCustomer(ctx context.Context, id, name string) (customer *domain.Customer, created bool, err error) {
	if err := s.validator.ValidateCustomerID(id); err != nil {
		return nil, false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultCustomerName
	}
	if err := s.validator.ValidateDisplayName(name); err != nil {
		return nil, false, err
	}

	existing, err := s.customers.GetByID(ctx, id)
	switch {
	case err == nil:
		if err := s.customers.TouchLastSeen(ctx, id); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, false, err
	}

	customer = &domain.Customer{ID: id, Name: name}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent registration of the same id.
			existing, getErr := s.customers.GetByID(ctx, id)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	s.logger.Info("customer registered", zap.String("customer_id", id))
	s.publishEvent(ctx, events.Event{
		Type:       events.EventCustomerRegistered,
		CustomerID: id,
		Payload:    events.CustomerRegisteredPayload{Name: name},
	})
	return customer, true, nil
}

// SendMessage stores a text message and fans it out to live listeners.
// Admin messages require an authenticated session.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput, admin *domain.AdminSession) (*domain.Message, error) {
	if err := s.checkSender(input.CustomerID, input.Sender, admin); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateMessage(input.Content); err != nil {
		return nil, err
	}
	if err := s.ensureCustomer(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		CustomerID:  input.CustomerID,
		Sender:      input.Sender,
		ContentKind: domain.ContentText,
		Content:     input.Content,
	}
	if err := s.store(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// UploadMedia saves an image or voice note and records it as a message.
func (s *ChatService) UploadMedia(ctx context.Context, input UploadInput, admin *domain.AdminSession) (*domain.Message, error) {
	if err := s.checkSender(input.CustomerID, input.Sender, admin); err != nil {
		return nil, err
	}
	if !input.Kind.IsMedia() {
		return nil, &guard.ValidationError{Field: "message_type", Reason: "must be image or voice"}
	}
	if err := guard.ValidateExtension(input.FileName, s.extensions[input.Kind]); err != nil {
		return nil, err
	}
	if err := s.ensureCustomer(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	ref, err := s.media.Save(input.Kind, input.FileName, input.Body)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, apperrors.NewDomainError("FILE_TOO_LARGE", "file exceeds the upload limit", http.StatusRequestEntityTooLarge, nil)
		}
		return nil, err
	}

	msg := &domain.Message{
		CustomerID:  input.CustomerID,
		Sender:      input.Sender,
		ContentKind: input.Kind,
		Content:     ref,
	}
	if err := s.store(ctx, msg); err != nil {
		if rmErr := s.media.Remove(ref); rmErr != nil {
			s.logger.Warn("remove orphaned upload", zap.String("ref", ref), zap.Error(rmErr))
		}
		return nil, err
	}
	return msg, nil
}

// ListMessages returns the conversation oldest first.
func (s *ChatService) ListMessages(ctx context.Context, customerID string) ([]domain.Message, error) {
	if err := s.validator.ValidateCustomerID(customerID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

func (s *ChatService) checkSender(customerID string, sender domain.SenderRole, admin *domain.AdminSession) error {
	if err := s.validator.ValidateCustomerID(customerID); err != nil {
		return err
	}
	if err := guard.ValidateSenderRole(sender); err != nil {
		return err
	}
	if sender == domain.SenderAdmin && admin == nil {
		return apperrors.NewUnauthorized("admin session required to send as admin")
	}
	return nil
}

func (s *ChatService) ensureCustomer(ctx context.Context, id string) error {
	if _, err := s.customers.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("customer", map[string]any{"user_id": id})
		}
		return err
	}
	return nil
}

// store persists msg, bumps last_seen, notifies live listeners and emits the
// domain event.
func (s *ChatService) store(ctx context.Context, msg *domain.Message) error {
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}
	if err := s.customers.TouchLastSeen(ctx, msg.CustomerID); err != nil {
		s.logger.Warn("touch last_seen", zap.String("customer_id", msg.CustomerID), zap.Error(err))
	}

	if s.hub != nil {
		s.hub.Publish(msg.CustomerID, hub.MessageEvent(msg))
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventMessageAdded,
		CustomerID: msg.CustomerID,
		Payload: events.MessageAddedPayload{
			MessageID:   msg.ID,
			Sender:      msg.Sender,
			ContentKind: msg.ContentKind,
			Preview:     preview(msg.Content),
		},
	})
	return nil
}

func (s *ChatService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
