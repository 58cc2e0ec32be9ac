package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const adminSubject = "admin"

// TokenManager handles issuing and validating signed session tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager builds a new manager. now supplies the validation clock.
func NewTokenManager(secret string, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), now: now}
}

// Claims describes the session token payload; ID carries the session id.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a token for sessionID.
func (tm *TokenManager) GenerateToken(sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   adminSubject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ParseToken validates signature and expiry and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, jwt.WithTimeFunc(tm.now))
}

// ParseUnverifiedExpiry validates the signature only, so expired tokens can
// still be revoked.
func (tm *TokenManager) ParseUnverifiedExpiry(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, jwt.WithoutClaimsValidation())
}

func (tm *TokenManager) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.Subject != adminSubject {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
