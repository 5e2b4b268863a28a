package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/security"
)

type fixture struct {
	svc    *Service
	store  *repotest.Store
	jwt    auth.JWTService
	hasher security.PasswordHasher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	cfg := auth.Config{Secret: "access-secret", RefreshSecret: "refresh-secret", AccessTTL: time.Hour, RefreshTTL: 7 * 24 * time.Hour}
	jwtSvc := auth.NewJWTService(cfg)
	hasher := security.NewBcryptHasher(4)
	return &fixture{
		svc:    NewService(store.Users(), store.Tokens(), jwtSvc, hasher, cfg),
		store:  store,
		jwt:    jwtSvc,
		hasher: hasher,
	}
}

func (f *fixture) addUser(t *testing.T, username, password, role string, active bool) *model.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return f.store.AddUser(&model.User{Username: username, PasswordHash: hash, Role: role, IsActive: active, Email: username + "@x.test"})
}

func assertUnauthorized(t *testing.T, err error, msg string) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
	assert.Equal(t, msg, appErr.Message)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "doc", "password123", model.RoleDoctor, true)
	f.addUser(t, "newbie", "password123", model.RolePatient, false)

	t.Run("success", func(t *testing.T) {
		session, err := f.svc.Login(context.Background(), &model.LoginRequest{Username: "doc", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "Login successful", session.Response.Message)
		assert.Equal(t, model.RoleDoctor, session.Response.User.Role)
		assert.Equal(t, time.Hour, session.AccessTTL)

		claims, err := f.jwt.ValidateToken(session.Response.Access)
		require.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
		_, err = f.jwt.ValidateRefreshToken(session.Response.Refresh)
		require.NoError(t, err)

		stored, err := f.store.Users().Get(context.Background(), u.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), &model.LoginRequest{Username: "ghost", Password: "password123"})
		assertUnauthorized(t, err, "Invalid credentials")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), &model.LoginRequest{Username: "doc", Password: "nope-nope"})
		assertUnauthorized(t, err, "Invalid credentials")
	})

	t.Run("inactive", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), &model.LoginRequest{Username: "newbie", Password: "password123"})
		assertUnauthorized(t, err, "Your account is not approved yet.")
	})
}

func TestRefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "cash", "password123", model.RoleCashier, true)

	session, err := f.svc.Login(ctx, &model.LoginRequest{Username: "cash", Password: "password123"})
	require.NoError(t, err)
	refresh := session.Response.Refresh

	tokens, err := f.svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.Equal(t, refresh, tokens.Refresh)
	_, err = f.jwt.ValidateToken(tokens.Access)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, "")
	assertUnauthorized(t, err, "No refresh token provided")

	_, err = f.svc.Refresh(ctx, session.Response.Access)
	assertUnauthorized(t, err, "Invalid or expired refresh token")

	require.NoError(t, f.svc.Logout(ctx, refresh))
	_, err = f.svc.Refresh(ctx, refresh)
	assertUnauthorized(t, err, "Invalid or expired refresh token")
}

func TestLogoutInvalidToken(t *testing.T) {
	f := newFixture(t)
	for _, token := range []string{"", "garbage"} {
		err := f.svc.Logout(context.Background(), token)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
		assert.Equal(t, "Invalid or missing refresh token", appErr.Message)
	}
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Tokens().Revoke(ctx, &model.RevokedToken{JTI: "a", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, f.store.Tokens().Revoke(ctx, &model.RevokedToken{JTI: "b", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
