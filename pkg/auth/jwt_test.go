package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() JWTService {
	return NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "hospital-api",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(42, "doctor")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := newTestService()

	refresh, claims, err := svc.GenerateRefreshToken(7, "patient")
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	got, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, got.ID)
}

func TestExpiredToken(t *testing.T) {
	svc := NewJWTService(Config{Secret: "s", AccessTTL: -time.Minute})
	// a negative TTL falls back to the default, so sign one by hand
	impl := svc.(*jwtService)
	token, _, err := impl.sign(1, "manager", TokenTypeAccess, -time.Minute, "s")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedSignature(t *testing.T) {
	svc := newTestService()
	token, err := svc.GenerateAccessToken(1, "manager")
	require.NoError(t, err)

	other := NewJWTService(Config{Secret: "different"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
