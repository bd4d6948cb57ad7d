package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medical-portal/internal/api/dto"
	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/service"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// AdminUsersHandler exposes admin login, user management and dashboard endpoints.
type AdminUsersHandler struct {
	auth     *service.AuthService
	users    *service.UserService
	requests *service.RequestService
	cookie   SessionCookie
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(authService *service.AuthService, users *service.UserService, requests *service.RequestService, cookie SessionCookie) *AdminUsersHandler {
	return &AdminUsersHandler{auth: authService, users: users, requests: requests, cookie: cookie}
}

// Login POST /api/admin/login.
func (h *AdminUsersHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}
	token, exp, err := h.auth.LoginAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	h.cookie.set(c, token, exp)
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, ExpiresAt: exp}})
}

// ListUsers GET /api/admin/users?q=&status=.
func (h *AdminUsersHandler) ListUsers(c *fiber.Ctx) error {
	var (
		users []domain.User
		err   error
	)
	if q := c.Query("q"); q != "" {
		users, err = h.users.Search(c.UserContext(), q)
	} else {
		users, err = h.users.FilterByStatus(c.UserContext(), c.Query("status", "all"))
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserList(users)})
}

// GetUser GET /api/admin/users/:id.
func (h *AdminUsersHandler) GetUser(c *fiber.Ctx) error {
	details, err := h.users.Details(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserDetailsResponse(details)})
}

// UpdateUser PATCH /api/admin/users/:id.
func (h *AdminUsersHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.Update(c.UserContext(), c.Params("id"), domain.UserUpdate{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// BlockUser POST /api/admin/users/:id/block.
func (h *AdminUsersHandler) BlockUser(c *fiber.Ctx) error {
	user, err := h.users.Block(c.UserContext(), nil, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UnblockUser POST /api/admin/users/:id/unblock.
func (h *AdminUsersHandler) UnblockUser(c *fiber.Ctx) error {
	user, err := h.users.Unblock(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DeleteUser DELETE /api/admin/users/:id.
func (h *AdminUsersHandler) DeleteUser(c *fiber.Ctx) error {
	user, err := h.users.Delete(c.UserContext(), nil, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Statistics GET /api/admin/statistics.
func (h *AdminUsersHandler) Statistics(c *fiber.Ctx) error {
	userStats, err := h.users.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	requestStats, err := h.requests.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"users":    dto.NewUserStatisticsResponse(userStats),
		"requests": dto.NewRequestStatisticsResponse(requestStats),
	}})
}

// Export GET /api/admin/export.
func (h *AdminUsersHandler) Export(c *fiber.Ctx) error {
	export, err := h.users.Export(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"users":              dto.NewUserList(export.Users),
		"blocked_users":      export.BlockedUsers,
		"requests":           dto.NewRequestList(export.Requests),
		"statistics":         dto.NewUserStatisticsResponse(&export.Statistics),
		"request_statistics": dto.NewRequestStatisticsResponse(&export.RequestStats),
		"export_date":        export.ExportDate,
	}})
}
