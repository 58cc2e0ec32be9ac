package domain

import "time"

// OTPState is the lifecycle position of a one-time code.
type OTPState string

const (
	OTPIssued      OTPState = "issued"
	OTPVerified    OTPState = "verified"
	OTPExpired     OTPState = "expired"
	OTPInvalidated OTPState = "invalidated"
)

// Terminal reports whether no further transition is possible.
func (s OTPState) Terminal() bool {
	return s != OTPIssued
}

// AdminSession describes an authenticated admin login.
type AdminSession struct {
	ID        string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}
