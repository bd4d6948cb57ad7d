package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medical-portal/internal/domain"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// RequireUser ensures a portal user is authenticated.
func RequireUser() fiber.Handler {
	return requireSubject(domain.SubjectTypeUser, "user session required")
}

// RequireAdmin ensures an admin is authenticated.
func RequireAdmin() fiber.Handler {
	return requireSubject(domain.SubjectTypeAdmin, "admin session required")
}

func requireSubject(subject domain.SubjectType, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(message)
		}
		if principal.SubjectType != subject {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
