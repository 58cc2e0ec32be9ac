package dto

import (
	"time"

	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/guard"
	"github.com/spec-kit/support-chat/internal/hub"
	"github.com/spec-kit/support-chat/internal/observability"
	"github.com/spec-kit/support-chat/internal/service"
)

// OTPRequestResponse answers POST /api/admin/request-otp. OTP is only filled
// when the deployment exposes codes.
type OTPRequestResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	OTP       string    `json:"otp,omitempty"`
}

// VerifyOTPRequest payload for POST /api/admin/verify-otp.
type VerifyOTPRequest struct {
	Token string `json:"token"`
	OTP   string `json:"otp"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StoreStatsResponse mirrors the persisted counters.
type StoreStatsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	TotalMessages int64 `json:"total_messages"`
	TodayMessages int64 `json:"today_messages"`
	ActiveToday   int64 `json:"active_today"`
}

// StatsResponse answers GET /api/admin/stats.
type StatsResponse struct {
	StoreStatsResponse
	Credentials auth.CredentialStats          `json:"credentials"`
	Hub         hub.Stats                     `json:"hub"`
	RateLimit   guard.LimiterStats            `json:"rate_limit"`
	Requests    observability.MetricsSnapshot `json:"requests"`
}

// NewStatsResponse maps the dashboard aggregate.
func NewStatsResponse(d *service.Dashboard) StatsResponse {
	return StatsResponse{
		StoreStatsResponse: StoreStatsResponse{
			TotalUsers:    d.Store.TotalCustomers,
			TotalMessages: d.Store.TotalMessages,
			TodayMessages: d.Store.MessagesToday,
			ActiveToday:   d.Store.ActiveToday,
		},
		Credentials: d.Credentials,
		Hub:         d.Hub,
		RateLimit:   d.RateLimit,
		Requests:    d.Requests,
	}
}
