package auth

import "errors"

var (
	ErrOTPNotFound     = errors.New("otp: request token not found")
	ErrOTPExpired      = errors.New("otp: code expired")
	ErrOTPAlreadyUsed  = errors.New("otp: code already used")
	ErrOTPMismatch     = errors.New("otp: code mismatch")
	ErrOTPInvalidated  = errors.New("otp: too many attempts")
	ErrUnauthenticated = errors.New("session: unauthenticated")
)
