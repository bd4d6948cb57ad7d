package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medical-portal/internal/api/dto"
	"github.com/spec-kit/medical-portal/internal/auth"
	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/service"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// SessionCookie configures the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

func (sc SessionCookie) set(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   sc.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (sc SessionCookie) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   sc.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// UsersHandler exposes registration and session endpoints for portal users.
type UsersHandler struct {
	users  *service.UserService
	auth   *service.AuthService
	cookie SessionCookie
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, authService *service.AuthService, cookie SessionCookie) *UsersHandler {
	return &UsersHandler{users: users, auth: authService, cookie: cookie}
}

// Register handles POST /api/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Register(c.UserContext(), service.RegisterInput{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /api/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session := domain.NewSession()
	user, err := h.users.Login(c.UserContext(), session, req.NationalID)
	if err != nil {
		return err
	}
	token, exp, err := h.auth.IssueUserSession(user)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	h.cookie.set(c, token, exp)

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":    dto.NewUserResponse(user),
			"session": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /api/logout. It succeeds without a session.
// The token is revoked so a copy held as a Bearer header stops working too.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		if err := h.auth.EndSession(c.UserContext(), principal.TokenID, principal.ExpiresAt); err != nil {
			return apperrors.NewInternalError(err)
		}
		if principal.Session != nil {
			h.users.Logout(principal.Session)
		}
	}
	h.cookie.clear(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// CheckSession handles GET /api/check-session.
func (h *UsersHandler) CheckSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{"logged_in": false}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"logged_in": true,
		"user":      dto.NewUserResponse(principal.User),
	}})
}

// Profile handles GET /api/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.users.Get(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(profile)})
}

// UpdateProfile handles PUT /api/profile. Only name, email and phone can change.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.users.Update(c.UserContext(), user.ID, domain.UserUpdate{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}
