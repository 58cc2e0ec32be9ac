package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
)

// OTPChallenge is returned when an admin asks for a code. Code is only set
// when the deployment explicitly opts into exposing it.
type OTPChallenge struct {
	RequestToken string
	ExpiresAt    time.Time
	Code         string
}

// AuthService coordinates the admin OTP login flow.
type AuthService struct {
	credentials *auth.Manager
	dispatcher  events.Dispatcher
	exposeOTP   bool
	logger      *zap.Logger
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Credentials *auth.Manager
	Dispatcher  events.Dispatcher
	ExposeOTP   bool
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: deps.Credentials,
		dispatcher:  deps.Dispatcher,
		exposeOTP:   deps.ExposeOTP,
		logger:      logger,
	}
}

// RequestOTP issues a code and hands it to the relay through the dispatcher.
func (s *AuthService) RequestOTP(ctx context.Context) (*OTPChallenge, error) {
	requestToken, code, expiresAt, err := s.credentials.IssueOTP()
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventOTPIssued,
		Payload: events.OTPIssuedPayload{Code: code, ExpiresAt: expiresAt},
	})

	challenge := &OTPChallenge{RequestToken: requestToken, ExpiresAt: expiresAt}
	if s.exposeOTP {
		challenge.Code = code
	}
	return challenge, nil
}

// VerifyOTP exchanges a code for an admin session.
func (s *AuthService) VerifyOTP(_ context.Context, requestToken, code string) (*domain.AdminSession, error) {
	return s.credentials.VerifyOTP(requestToken, code)
}

// Logout revokes the session behind token. Unknown tokens are ignored.
func (s *AuthService) Logout(_ context.Context, token string) {
	s.credentials.Logout(token)
}

// Authenticate resolves a session token for middleware use.
func (s *AuthService) Authenticate(token string) (*domain.AdminSession, error) {
	return s.credentials.Authenticate(token)
}
