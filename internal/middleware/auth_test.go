package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/pkg/auth"
)

type countingUsers struct {
	repository.UserRepository
	gets int
}

func (u *countingUsers) Get(ctx context.Context, id int64) (*model.User, error) {
	u.gets++
	return u.UserRepository.Get(ctx, id)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func authFixture(t *testing.T) (*AuthMiddleware, *countingUsers, auth.JWTService, *repotest.Store) {
	t.Helper()
	store := repotest.NewStore()
	users := &countingUsers{UserRepository: store.Users()}
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test-secret", RefreshSecret: "test-refresh"})
	return NewAuthMiddleware(jwtSvc, users, time.Minute), users, jwtSvc, store
}

func authRouter(m *AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.GET("/me", m.Authenticate(), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username, "role": user.Role})
	})
	return r
}

func doAuth(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	m, _, jwtSvc, store := authFixture(t)
	doctor := store.Seed(model.RoleDoctor, "house")
	access, err := jwtSvc.GenerateAccessToken(doctor.ID, doctor.Role)
	require.NoError(t, err)
	refresh, _, err := jwtSvc.GenerateRefreshToken(doctor.ID, doctor.Role)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + access, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + refresh, http.StatusUnauthorized},
	}
	r := authRouter(m)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuth(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"username":"house","role":"doctor"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"status":"error"`)
			}
		})
	}
}

func TestAuthenticateCachesAndInvalidates(t *testing.T) {
	m, users, jwtSvc, store := authFixture(t)
	patient := store.AddUser(&model.User{Username: "alice", Email: "alice@hospital.test", Role: model.RolePatient})
	access, err := jwtSvc.GenerateAccessToken(patient.ID, patient.Role)
	require.NoError(t, err)
	r := authRouter(m)

	w := doAuth(r, "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "User is inactive")

	require.NoError(t, store.Users().ActivatePatient(context.Background(), patient.ID))

	// still served from cache until invalidated
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, "Bearer "+access).Code)
	assert.Equal(t, 1, users.gets)

	m.Invalidate(patient.ID)
	assert.Equal(t, http.StatusOK, doAuth(r, "Bearer "+access).Code)
	assert.Equal(t, http.StatusOK, doAuth(r, "Bearer "+access).Code)
	assert.Equal(t, 2, users.gets)
}

func TestUserFromToken(t *testing.T) {
	m, _, jwtSvc, store := authFixture(t)
	ctx := context.Background()

	_, err := m.UserFromToken(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	access, err := jwtSvc.GenerateAccessToken(9999, model.RolePatient)
	require.NoError(t, err)
	_, err = m.UserFromToken(ctx, access)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cashier := store.Seed(model.RoleCashier, "cash")
	access, err = jwtSvc.GenerateAccessToken(cashier.ID, cashier.Role)
	require.NoError(t, err)
	user, err := m.UserFromToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, "cash", user.Username)
}
