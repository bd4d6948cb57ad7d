package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medical-portal/internal/api/dto"
	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/service"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// RequestsHandler manages the logged-in user's requests and files.
type RequestsHandler struct {
	requests *service.RequestService
	files    *service.FileService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, files *service.FileService) *RequestsHandler {
	return &RequestsHandler{requests: requests, files: files}
}

// Create POST /api/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Type.Valid() {
		return apperrors.NewValidationError("unknown request type", map[string]any{"type": string(req.Type)})
	}
	data, err := domain.DecodeRequestData(req.Type, req.Data)
	if err != nil {
		return apperrors.NewValidationError("invalid request data", map[string]any{"data": err.Error()})
	}

	created, err := h.requests.Create(c.UserContext(), user.ID, req.Type, data)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(created)})
}

// List GET /api/requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	reqs, err := h.requests.ListByUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestList(reqs)})
}

// Get GET /api/requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := h.requests.GetForUser(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(req)})
}

// ListFiles GET /api/pdf/user-files.
func (h *RequestsHandler) ListFiles(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	files, err := h.files.ListFilesByUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFileList(files)})
}

// Download GET /api/pdf/requests/:id/download.
func (h *RequestsHandler) Download(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	file, err := h.files.UserFileContent(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return sendFile(c, file)
}

func sendFile(c *fiber.Ctx, file *service.FileContent) error {
	c.Set(fiber.HeaderContentType, file.Record.MediaType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Record.FileName))
	return c.Send(file.Content)
}
