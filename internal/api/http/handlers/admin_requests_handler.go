package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medical-portal/internal/api/dto"
	"github.com/spec-kit/medical-portal/internal/auth"
	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/repository"
	"github.com/spec-kit/medical-portal/internal/service"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// AdminRequestsHandler exposes request processing and file endpoints to the admin.
type AdminRequestsHandler struct {
	requests *service.RequestService
	files    *service.FileService
}

// NewAdminRequestsHandler constructs handler.
func NewAdminRequestsHandler(requests *service.RequestService, files *service.FileService) *AdminRequestsHandler {
	return &AdminRequestsHandler{requests: requests, files: files}
}

// ListRequests GET /api/admin/requests?status=&type=&user_id=.
func (h *AdminRequestsHandler) ListRequests(c *fiber.Ctx) error {
	filter := repository.RequestFilter{UserID: c.Query("user_id")}
	if status := c.Query("status"); status != "" && status != "all" {
		s := domain.RequestStatus(status)
		if !s.Valid() {
			return apperrors.NewInvalidStatus("unknown request status", map[string]any{"status": status})
		}
		filter.Statuses = []domain.RequestStatus{s}
	}
	if requestType := c.Query("type"); requestType != "" && requestType != "all" {
		t := domain.RequestType(requestType)
		if !t.Valid() {
			return apperrors.NewValidationError("unknown request type", map[string]any{"type": requestType})
		}
		filter.Types = []domain.RequestType{t}
	}
	reqs, err := h.requests.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestList(reqs)})
}

// GetRequest GET /api/admin/requests/:id.
func (h *AdminRequestsHandler) GetRequest(c *fiber.Ctx) error {
	req, err := h.requests.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(req)})
}

// UpdateStatus PATCH /api/admin/requests/:id/status.
func (h *AdminRequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	var processed *domain.ProcessedData
	if req.ProcessedData != nil {
		p := req.ProcessedData.ToDomain()
		processed = &p
	}
	updated, err := h.requests.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, processed)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// Process POST /api/admin/requests/:id/process.
func (h *AdminRequestsHandler) Process(c *fiber.Ctx) error {
	var req dto.ProcessedDataPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	processed, err := h.requests.Process(c.UserContext(), c.Params("id"), req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(processed)})
}

// AttachFile POST /api/admin/requests/:id/file (multipart field "file", optional "notes").
func (h *AdminRequestsHandler) AttachFile(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewInvalidFile("file is required", nil)
	}
	if header.Size > domain.MaxFileSize {
		return apperrors.NewInvalidFile("file exceeds the size limit", map[string]any{
			"size":     header.Size,
			"max_size": domain.MaxFileSize,
		})
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, domain.MaxFileSize+1))
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	uploadedBy := ""
	if principal, ok := auth.PrincipalFromContext(c); ok {
		uploadedBy = principal.AdminName
	}
	updated, err := h.files.AttachFile(c.UserContext(), c.Params("id"), domain.FileUpload{
		FileName:   header.Filename,
		MediaType:  header.Header.Get(fiber.HeaderContentType),
		Content:    content,
		Notes:      c.FormValue("notes"),
		UploadedBy: uploadedBy,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// DetachFile DELETE /api/admin/requests/:id/file.
func (h *AdminRequestsHandler) DetachFile(c *fiber.Ctx) error {
	updated, err := h.files.DetachFile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// DownloadFile GET /api/admin/requests/:id/file.
func (h *AdminRequestsHandler) DownloadFile(c *fiber.Ctx) error {
	file, err := h.files.FileContent(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return sendFile(c, file)
}

// ListFiles GET /api/admin/files.
func (h *AdminRequestsHandler) ListFiles(c *fiber.Ctx) error {
	files, err := h.files.ListFiles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFileList(files)})
}

// CleanupOrphans POST /api/admin/requests/cleanup.
func (h *AdminRequestsHandler) CleanupOrphans(c *fiber.Ctx) error {
	removed, err := h.requests.CleanupOrphans(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"removed": removed}})
}
