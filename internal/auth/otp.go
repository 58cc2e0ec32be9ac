package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/domain"
)

const (
	DefaultOTPTTL      = 5 * time.Minute
	DefaultSessionTTL  = 10 * time.Hour
	DefaultMaxAttempts = 5
	DefaultCodeDigits  = 6

	requestTokenBytes = 32
)

// Clock supplies the current time; tests swap in a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock (which carries Go's monotonic reading).
var SystemClock Clock = systemClock{}

// Options configures a Manager. Zero values fall back to the defaults above.
type Options struct {
	Secret      string
	OTPTTL      time.Duration
	SessionTTL  time.Duration
	MaxAttempts int
	CodeDigits  int
	Clock       Clock
	Logger      *zap.Logger
}

// CredentialStats are read-only counters for the admin dashboard.
type CredentialStats struct {
	ActiveSessions int   `json:"active_sessions"`
	PendingOTPs    int   `json:"pending_otps"`
	IssuedTotal    int64 `json:"otp_issued_total"`
	VerifiedTotal  int64 `json:"otp_verified_total"`
}

type otpRecord struct {
	codeHash  []byte
	issuedAt  time.Time
	expiresAt time.Time
	state     domain.OTPState
	attempts  int
}

type sessionRecord struct {
	createdAt time.Time
	expiresAt time.Time
}

// Manager issues one-time codes and promotes verified codes into admin
// sessions. All state is memory resident.
type Manager struct {
	mu       sync.Mutex
	otps     map[string]*otpRecord
	sessions map[string]*sessionRecord

	issuedTotal   int64
	verifiedTotal int64

	tokens      *TokenManager
	otpTTL      time.Duration
	sessionTTL  time.Duration
	maxAttempts int
	codeDigits  int
	clock       Clock
	logger      *zap.Logger
}

// NewManager builds a credential manager.
func NewManager(opts Options) *Manager {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = DefaultOTPTTL
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.CodeDigits <= 0 {
		opts.CodeDigits = DefaultCodeDigits
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		otps:        make(map[string]*otpRecord),
		sessions:    make(map[string]*sessionRecord),
		tokens:      NewTokenManager(opts.Secret, opts.Clock.Now),
		otpTTL:      opts.OTPTTL,
		sessionTTL:  opts.SessionTTL,
		maxAttempts: opts.MaxAttempts,
		codeDigits:  opts.CodeDigits,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
}

// IssueOTP creates a new code bound to a fresh request token. The code must
// only be handed to the out-of-band relay.
func (m *Manager) IssueOTP() (requestToken, code string, expiresAt time.Time, err error) {
	requestToken, err = randomToken()
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate request token: %w", err)
	}
	code, err = randomCode(m.codeDigits)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}
	hash, err := HashCode(code)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("hash code: %w", err)
	}

	now := m.clock.Now()
	expiresAt = now.Add(m.otpTTL)

	m.mu.Lock()
	m.otps[requestToken] = &otpRecord{
		codeHash:  hash,
		issuedAt:  now,
		expiresAt: expiresAt,
		state:     domain.OTPIssued,
	}
	m.issuedTotal++
	m.mu.Unlock()

	m.logger.Info("otp issued", zap.Time("expires_at", expiresAt))
	return requestToken, code, expiresAt, nil
}

// VerifyOTP checks code against the record bound to requestToken and, on a
// match, mints an admin session. Mismatches are recoverable until the attempt
// budget runs out; every other failure is terminal for the record.
func (m *Manager) VerifyOTP(requestToken, code string) (*domain.AdminSession, error) {
	m.mu.Lock()
	rec, err := m.liveRecordLocked(requestToken)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	rec.attempts++
	hash := rec.codeHash
	m.mu.Unlock()

	// bcrypt runs outside the lock; the state is re-checked below so two
	// concurrent correct submissions cannot both win.
	matched := code != "" && CompareCode(hash, code) == nil

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.liveRecordLocked(requestToken); err != nil {
		return nil, err
	}
	if !matched {
		if rec.attempts >= m.maxAttempts {
			rec.state = domain.OTPInvalidated
			m.logger.Warn("otp invalidated after repeated mismatches", zap.Int("attempts", rec.attempts))
		}
		return nil, ErrOTPMismatch
	}

	now := m.clock.Now()
	session := &domain.AdminSession{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.sessionTTL),
	}
	token, err := m.tokens.GenerateToken(session.ID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	session.Token = token

	rec.state = domain.OTPVerified
	m.sessions[session.ID] = &sessionRecord{createdAt: session.CreatedAt, expiresAt: session.ExpiresAt}
	m.verifiedTotal++

	m.logger.Info("admin session created", zap.String("session_id", session.ID), zap.Time("expires_at", session.ExpiresAt))
	return session, nil
}

// Authenticate resolves a session token into its live session.
func (m *Manager) Authenticate(sessionToken string) (*domain.AdminSession, error) {
	if sessionToken == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := m.tokens.ParseToken(sessionToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[claims.ID]
	if !ok || !m.clock.Now().Before(rec.expiresAt) {
		return nil, ErrUnauthenticated
	}
	return &domain.AdminSession{
		ID:        claims.ID,
		Token:     sessionToken,
		CreatedAt: rec.createdAt,
		ExpiresAt: rec.expiresAt,
	}, nil
}

// IsAuthenticated reports whether sessionToken names a live session.
func (m *Manager) IsAuthenticated(sessionToken string) bool {
	_, err := m.Authenticate(sessionToken)
	return err == nil
}

// Logout revokes the session behind sessionToken. Unknown or malformed
// tokens are ignored.
func (m *Manager) Logout(sessionToken string) {
	claims, err := m.tokens.ParseUnverifiedExpiry(sessionToken)
	if err != nil {
		return
	}

	m.mu.Lock()
	_, existed := m.sessions[claims.ID]
	delete(m.sessions, claims.ID)
	m.mu.Unlock()

	if existed {
		m.logger.Info("admin session revoked", zap.String("session_id", claims.ID))
	}
}

// Sweep drops expired OTP and session records and returns how many went.
func (m *Manager) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, rec := range m.otps {
		if !now.Before(rec.expiresAt) {
			delete(m.otps, token)
			removed++
		}
	}
	for id, rec := range m.sessions {
		if !now.Before(rec.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Stats reports counters without mutating any record.
func (m *Manager) Stats() CredentialStats {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	st := CredentialStats{IssuedTotal: m.issuedTotal, VerifiedTotal: m.verifiedTotal}
	for _, rec := range m.otps {
		if rec.state == domain.OTPIssued && now.Before(rec.expiresAt) {
			st.PendingOTPs++
		}
	}
	for _, rec := range m.sessions {
		if now.Before(rec.expiresAt) {
			st.ActiveSessions++
		}
	}
	return st
}

// liveRecordLocked returns the record if it can still be verified, moving it
// to expired when its TTL has passed.
func (m *Manager) liveRecordLocked(requestToken string) (*otpRecord, error) {
	rec, ok := m.otps[requestToken]
	if !ok {
		return nil, ErrOTPNotFound
	}
	switch rec.state {
	case domain.OTPVerified:
		return nil, ErrOTPAlreadyUsed
	case domain.OTPInvalidated:
		return nil, ErrOTPInvalidated
	case domain.OTPExpired:
		return nil, ErrOTPExpired
	}
	if !m.clock.Now().Before(rec.expiresAt) {
		rec.state = domain.OTPExpired
		return nil, ErrOTPExpired
	}
	return rec, nil
}

func randomToken() (string, error) {
	buf := make([]byte, requestTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
