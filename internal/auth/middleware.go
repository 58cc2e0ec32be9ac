package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/domain"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

const (
	sessionKey = "admin_session"

	// HeaderName and CookieName carry the admin session token.
	HeaderName = "X-Admin-Token"
	CookieName = "admin_token"
)

// Authenticator resolves session tokens.
type Authenticator interface {
	Authenticate(sessionToken string) (*domain.AdminSession, error)
}

// AdminMiddleware validates admin session tokens.
type AdminMiddleware struct {
	sessions Authenticator
}

// NewAdminMiddleware constructs middleware.
func NewAdminMiddleware(sessions Authenticator) *AdminMiddleware {
	return &AdminMiddleware{sessions: sessions}
}

// Identify attaches the admin session when a valid token is presented but
// lets anonymous callers through.
func (m *AdminMiddleware) Identify(c *fiber.Ctx) error {
	if token := TokenFromRequest(c); token != "" {
		if session, err := m.sessions.Authenticate(token); err == nil {
			c.Locals(sessionKey, session)
		}
	}
	return c.Next()
}

// Require enforces an admin session for protected routes.
func (m *AdminMiddleware) Require(c *fiber.Ctx) error {
	if _, ok := SessionFromContext(c); ok {
		return c.Next()
	}
	token := TokenFromRequest(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing admin token")
	}
	session, err := m.sessions.Authenticate(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired admin session")
	}
	c.Locals(sessionKey, session)
	return c.Next()
}

// TokenFromRequest reads the session token from header, bearer auth or cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Get(HeaderName)); token != "" {
		return token
	}
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(CookieName)
}

// SessionFromContext retrieves the authenticated admin session.
func SessionFromContext(c *fiber.Ctx) (*domain.AdminSession, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*domain.AdminSession)
	return session, ok
}
