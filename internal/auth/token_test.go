package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	clock := newFakeClock()
	tm := NewTokenManager("secret", clock.Now)

	token, err := tm.GenerateToken("sess-1", clock.Now(), clock.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.ID)
	assert.Equal(t, adminSubject, claims.Subject)
}

func TestTokenExpiryUsesInjectedClock(t *testing.T) {
	clock := newFakeClock()
	tm := NewTokenManager("secret", clock.Now)

	token, err := tm.GenerateToken("sess-1", clock.Now(), clock.Now().Add(time.Hour))
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = tm.ParseToken(token)
	assert.Error(t, err)

	claims, err := tm.ParseUnverifiedExpiry(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.ID)
}

func TestTokenRejectsOtherSigningMethods(t *testing.T) {
	tm := NewTokenManager("secret", nil)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:      "sess-1",
		Subject: adminSubject,
	}})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ParseToken(raw)
	assert.Error(t, err)
	_, err = tm.ParseUnverifiedExpiry(raw)
	assert.Error(t, err)
}

func TestCodeHash(t *testing.T) {
	hash, err := HashCode("123456")
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "123456")
	assert.NoError(t, CompareCode(hash, "123456"))
	assert.Error(t, CompareCode(hash, "654321"))
}
