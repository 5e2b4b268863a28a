package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/handler/handlertest"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/auth"
	pkgauth "github.com/jwalitptl/hospital-api/pkg/auth"
	"github.com/jwalitptl/hospital-api/pkg/security"
)

func setup(t *testing.T) (*handlertest.Env, *model.User) {
	t.Helper()
	env := handlertest.New(t)

	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	user := env.Store.AddUser(&model.User{
		Username:     "drhouse",
		Email:        "house@hospital.test",
		PasswordHash: hash,
		Role:         model.RoleDoctor,
		IsActive:     true,
	})

	svc := auth.NewService(env.Store.Users(), env.Store.Tokens(), env.JWT, hasher,
		pkgauth.Config{AccessTTL: time.Hour, RefreshTTL: 7 * 24 * time.Hour})
	env.Mount(NewHandler(svc, false))
	return env, user
}

func TestLoginSetsCookies(t *testing.T) {
	env, _ := setup(t)

	w, body := env.Do(t, http.MethodPost, "/api/v1/users/login", nil,
		map[string]string{"username": "drhouse", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.LoginResponse
	handlertest.DecodeData(t, body, &resp)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, model.RoleDoctor, resp.User.Role)
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)

	cookies := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, AccessCookie)
	require.Contains(t, cookies, RefreshCookie)
	assert.Equal(t, 3600, cookies[AccessCookie].MaxAge)
	assert.Equal(t, 7*24*3600, cookies[RefreshCookie].MaxAge)
	assert.True(t, cookies[AccessCookie].HttpOnly)
}

func TestLoginFailures(t *testing.T) {
	env, _ := setup(t)

	w, body := env.Do(t, http.MethodPost, "/api/v1/users/login", nil,
		map[string]string{"username": "drhouse", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", body.Message)

	w, _ = env.Do(t, http.MethodPost, "/api/v1/users/login", nil, map[string]string{"username": "drhouse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	env, user := setup(t)
	refresh, _, err := env.JWT.GenerateRefreshToken(user.ID, user.Role)
	require.NoError(t, err)

	w, body := env.Do(t, http.MethodPost, "/api/v1/users/refresh-token", nil, map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No refresh token provided", body.Message)

	w, body = env.Do(t, http.MethodPost, "/api/v1/users/refresh-token", nil, map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	var tokens model.TokenResponse
	handlertest.DecodeData(t, body, &tokens)
	assert.Equal(t, refresh, tokens.Refresh)
	assert.NotEmpty(t, tokens.Access)

	// logout requires an authenticated caller
	w, _ = env.Do(t, http.MethodPost, "/api/v1/users/logout", nil, map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = env.Do(t, http.MethodPost, "/api/v1/users/logout", user, map[string]string{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid or missing refresh token", body.Message)

	w, _ = env.Do(t, http.MethodPost, "/api/v1/users/logout", user, map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = env.Do(t, http.MethodPost, "/api/v1/users/refresh-token", nil, map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired refresh token", body.Message)
}
