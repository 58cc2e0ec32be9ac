package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/api/dto"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/service"
)

// AdminHandler exposes the operator login flow and dashboard endpoints.
type AdminHandler struct {
	auth         *service.AuthService
	admin        *service.AdminService
	cookieSecure bool
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, adminService *service.AdminService, cookieSecure bool) *AdminHandler {
	return &AdminHandler{auth: authService, admin: adminService, cookieSecure: cookieSecure}
}

// RequestOTP handles POST /api/admin/request-otp.
func (h *AdminHandler) RequestOTP(c *fiber.Ctx) error {
	challenge, err := h.auth.RequestOTP(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.OTPRequestResponse{
			Token:     challenge.RequestToken,
			ExpiresAt: challenge.ExpiresAt,
			OTP:       challenge.Code,
		},
	})
}

// VerifyOTP handles POST /api/admin/verify-otp and sets the session cookie.
func (h *AdminHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" {
		return fiber.NewError(http.StatusBadRequest, "token required")
	}

	session, err := h.auth.VerifyOTP(c.UserContext(), req.Token, req.OTP)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
	})
}

// Logout handles POST /api/admin/logout. It succeeds even without a session.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if token := auth.TokenFromRequest(c); token != "" {
		h.auth.Logout(c.UserContext(), token)
	}
	c.ClearCookie(auth.CookieName)
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	list, err := h.admin.ListCustomers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"users": dto.NewCustomerSummaryList(list),
		},
	})
}

// DeleteUser handles DELETE /api/admin/users/:user_id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("user_id")
	if err := h.admin.DeleteCustomer(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": id}})
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	dash, err := h.admin.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatsResponse(dash)})
}
