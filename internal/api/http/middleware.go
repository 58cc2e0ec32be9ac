package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/observability"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(translateError(err))
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.RetryAfter > 0 {
					c.Set(fiber.HeaderRetryAfter, strconv.Itoa(apperrors.RetryAfterSeconds(domainErr.RetryAfter)))
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("request_id", observability.RequestID(c)),
						zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

var otpErrors = []struct {
	err    error
	code   string
	status int
}{
	{auth.ErrOTPNotFound, "OTP_NOT_FOUND", fiber.StatusNotFound},
	{auth.ErrOTPExpired, "OTP_EXPIRED", fiber.StatusGone},
	{auth.ErrOTPAlreadyUsed, "OTP_ALREADY_USED", fiber.StatusConflict},
	{auth.ErrOTPInvalidated, "OTP_INVALIDATED", fiber.StatusGone},
	{auth.ErrOTPMismatch, "OTP_MISMATCH", fiber.StatusUnauthorized},
}

// translateError turns package-level errors into DomainErrors.
func translateError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var validation *guard.ValidationError
	if errors.As(err, &validation) {
		return apperrors.NewValidationError(validation.Error(), map[string]any{
			"field":  validation.Field,
			"reason": validation.Reason,
		})
	}

	var limited *guard.RateLimitedError
	if errors.As(err, &limited) {
		return apperrors.NewRateLimited(limited.Group, limited.RetryAfter)
	}

	if errors.Is(err, auth.ErrUnauthenticated) {
		return apperrors.NewUnauthorized("invalid or expired admin session")
	}
	for _, e := range otpErrors {
		if errors.Is(err, e.err) {
			return apperrors.NewDomainError(e.code, e.err.Error(), e.status, nil)
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError(fiberErrorCode(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return err
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "FILE_TOO_LARGE"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}

// RateLimit throttles a route group per caller. Admin sessions are counted
// by session id, everyone else by source address. Counter store failures
// let the request through.
func RateLimit(limiter *guard.Limiter, group string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sessionID string
		if session, ok := auth.SessionFromContext(c); ok {
			sessionID = session.ID
		}
		err := limiter.Check(c.UserContext(), guard.Identity(sessionID, c.IP()), group)
		if err == nil {
			return c.Next()
		}
		if errors.Is(err, guard.ErrRateLimited) {
			return err
		}
		logger.Warn("rate limiter unavailable, allowing request", zap.String("group", group), zap.Error(err))
		return c.Next()
	}
}
