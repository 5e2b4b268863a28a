package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/security"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNotApproved        = "Your account is not approved yet."
	msgNoRefresh          = "No refresh token provided"
	msgBadRefresh         = "Invalid or expired refresh token"
	msgBadLogoutToken     = "Invalid or missing refresh token"
)

// Session is the result of a successful login.
type Session struct {
	Response   *model.LoginResponse
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Service struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtSvc     auth.JWTService
	hasher     security.PasswordHasher
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, cfg auth.Config) *Service {
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtSvc:     jwtSvc,
		hasher:     hasher,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		logger:     log.With().Str("component", "auth").Logger(),
		now:        time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*Session, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidCredentials, nil)
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(msgInvalidCredentials, nil)
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized(msgNotApproved, nil)
	}

	access, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, _, err := s.jwtSvc.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	}

	return &Session{
		Response: &model.LoginResponse{
			Message: "Login successful",
			User:    model.LoginUser{ID: user.ID, Username: user.Username, Role: user.Role},
			Access:  access,
			Refresh: refresh,
		},
		AccessTTL:  s.accessTTL,
		RefreshTTL: s.refreshTTL,
	}, nil
}

// Logout blacklists the refresh token's jti until it would have expired.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return apperrors.BadRequest(msgBadLogoutToken, nil)
	}
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil || claims.ID == "" {
		return apperrors.BadRequest(msgBadLogoutToken, err)
	}

	revoked := &model.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		RevokedAt: s.now(),
	}
	if claims.ExpiresAt != nil {
		revoked.ExpiresAt = claims.ExpiresAt.Time
	} else {
		revoked.ExpiresAt = s.now().Add(s.refreshTTL)
	}
	if err := s.tokenRepo.Revoke(ctx, revoked); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Refresh issues a new access token. The refresh token itself is returned unchanged.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.Unauthorized(msgNoRefresh, nil)
	}
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(msgBadRefresh, err)
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.Unauthorized(msgBadRefresh, nil)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgBadRefresh, err)
		}
		return nil, apperrors.Internal(err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(msgBadRefresh, nil)
	}

	access, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{Access: access, Refresh: refreshToken}, nil
}

// PurgeExpired drops blacklist entries whose tokens have expired anyway.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpired(ctx, s.now())
}
