package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/auth"
	"github.com/spec-kit/medical-portal/internal/config"
	"github.com/spec-kit/medical-portal/internal/domain"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// AuthService issues session tokens for users and authenticates the admin.
type AuthService struct {
	tokenMgr      *auth.TokenManager
	adminUsername string
	adminHash     string
	revoked       auth.RevocationList
	logger        *zap.Logger
}

// NewAuthService builds the service, hashing the configured admin password once.
// A nil revocation list falls back to an in-process one.
func NewAuthService(cfg config.AuthConfig, revoked auth.RevocationList, logger *zap.Logger) (*AuthService, error) {
	hash, err := auth.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if revoked == nil {
		revoked = auth.NewMemoryRevocationList()
	}
	return &AuthService{
		tokenMgr:      auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL()),
		adminUsername: cfg.AdminUsername,
		adminHash:     hash,
		revoked:       revoked,
		logger:        logger,
	}, nil
}

// IssueUserSession signs a session token for a logged-in user.
func (s *AuthService) IssueUserSession(user *domain.User) (string, time.Time, error) {
	return s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeUser)
}

// LoginAdmin checks the admin credentials and returns a session token.
func (s *AuthService) LoginAdmin(_ context.Context, username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1
	err := auth.ComparePassword(s.adminHash, password)
	if !userOK || errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("admin login rejected", zap.String("username", username))
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return "", time.Time{}, err
	}
	s.logger.Info("admin logged in", zap.String("username", username))
	return s.tokenMgr.GenerateToken(s.adminUsername, domain.SubjectTypeAdmin)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Revocations is shared with the auth middleware.
func (s *AuthService) Revocations() auth.RevocationList {
	return s.revoked
}

// EndSession revokes a token until it would have expired anyway.
func (s *AuthService) EndSession(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
