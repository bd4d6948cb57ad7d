package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medical-portal/internal/domain"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	User        *domain.User
	Session     *domain.Session
	AdminName   string
	// TokenID and ExpiresAt identify the token for revocation on logout.
	TokenID   string
	ExpiresAt time.Time
}

// SessionResolver re-reads the user a session refers to, clearing it when the user is gone or blocked.
type SessionResolver interface {
	CurrentUser(ctx context.Context, session *domain.Session) (*domain.User, error)
}

// AuthMiddleware validates session tokens and loads principals.
type AuthMiddleware struct {
	tokens     *TokenManager
	users      SessionResolver
	revoked    RevocationList
	cookieName string
}

// NewAuthMiddleware constructs middleware. Tokens are read from cookieName or a Bearer header.
// revoked may be nil.
func NewAuthMiddleware(tokens *TokenManager, users SessionResolver, revoked RevocationList, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, revoked: revoked, cookieName: cookieName}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	if principal == nil {
		return apperrors.NewUnauthorized("missing session")
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Optional loads a principal when a valid session is present and continues either way.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil && !apperrors.HasCode(err, "UNAUTHORIZED") {
		return err
	}
	if principal != nil {
		c.Locals(principalKey, principal)
	}
	return c.Next()
}

func (m *AuthMiddleware) resolve(c *fiber.Ctx) (*Principal, error) {
	token := m.tokenFrom(c)
	if token == "" {
		return nil, nil
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid session")
	}
	if m.revoked != nil && claims.ID != "" {
		revoked, err := m.revoked.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if revoked {
			return nil, apperrors.NewUnauthorized("session ended")
		}
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	switch claims.Subject {
	case domain.SubjectTypeUser:
		session := domain.NewSession()
		session.Start(domain.User{ID: claims.SubjectID})
		user, err := m.users.CurrentUser(c.UserContext(), session)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if user == nil {
			return nil, apperrors.NewUnauthorized("session ended")
		}
		return &Principal{
			SubjectType: domain.SubjectTypeUser,
			User:        user,
			Session:     session,
			TokenID:     claims.ID,
			ExpiresAt:   expiresAt,
		}, nil
	case domain.SubjectTypeAdmin:
		return &Principal{
			SubjectType: domain.SubjectTypeAdmin,
			AdminName:   claims.SubjectID,
			TokenID:     claims.ID,
			ExpiresAt:   expiresAt,
		}, nil
	default:
		return nil, apperrors.NewUnauthorized("unknown subject")
	}
}

func (m *AuthMiddleware) tokenFrom(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if m.cookieName != "" {
		return c.Cookies(m.cookieName)
	}
	return ""
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
