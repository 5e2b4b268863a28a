package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

const (
	ContextUser   = "user"
	ContextUserID = "user_id"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInactiveUser = errors.New("user is inactive")
)

type AuthMiddleware struct {
	jwtSvc auth.JWTService
	users  repository.UserRepository
	cache  *gocache.Cache
}

// NewAuthMiddleware caches resolved users for ttl. A zero ttl disables caching.
func NewAuthMiddleware(jwtSvc auth.JWTService, users repository.UserRepository, ttl time.Duration) *AuthMiddleware {
	m := &AuthMiddleware{
		jwtSvc: jwtSvc,
		users:  users,
	}
	if ttl > 0 {
		m.cache = gocache.New(ttl, 2*ttl)
	}
	return m
}

// Authenticate verifies the bearer access token and stores the user in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithStatus(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.RespondWithStatus(c, http.StatusUnauthorized, "invalid authorization format")
			c.Abort()
			return
		}

		user, err := m.UserFromToken(c.Request.Context(), parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrInactiveUser) {
				msg = "User is inactive"
			}
			httputil.RespondWithStatus(c, http.StatusUnauthorized, msg)
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Next()
	}
}

// UserFromToken resolves an access token to an active user.
func (m *AuthMiddleware) UserFromToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := m.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := m.loadUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (m *AuthMiddleware) loadUser(ctx context.Context, id int64) (*model.User, error) {
	key := strconv.FormatInt(id, 10)
	if m.cache != nil {
		if cached, ok := m.cache.Get(key); ok {
			copied := *cached.(*model.User)
			return &copied, nil
		}
	}

	user, err := m.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		copied := *user
		m.cache.SetDefault(key, &copied)
	}
	return user, nil
}

// Invalidate drops the cached copy of a user.
func (m *AuthMiddleware) Invalidate(userID int64) {
	if m.cache != nil {
		m.cache.Delete(strconv.FormatInt(userID, 10))
	}
}

// CurrentUser returns the authenticated user stored by Authenticate.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
