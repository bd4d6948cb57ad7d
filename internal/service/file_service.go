package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/repository"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// FileService manages the PDF attached to a request.
type FileService struct {
	base
}

// NewFileService constructs the service.
func NewFileService(deps Dependencies) *FileService {
	return &FileService{base: newBase(deps)}
}

// FileContent is an attachment with its bytes.
type FileContent struct {
	Record  domain.FileRecord
	Content []byte
}

func validateUpload(upload domain.FileUpload) error {
	size := int64(len(upload.Content))
	switch {
	case !domain.IsPDFMediaType(upload.MediaType):
		return apperrors.NewInvalidFile("only PDF files are accepted", map[string]any{"media_type": upload.MediaType})
	case size == 0:
		return apperrors.NewInvalidFile("file is empty", nil)
	case size > domain.MaxFileSize:
		return apperrors.NewInvalidFile("file exceeds the size limit", map[string]any{
			"size":     size,
			"max_size": domain.MaxFileSize,
		})
	}
	return nil
}

// AttachFile stores a PDF for the request and completes it. An existing attachment is replaced.
// Cancelled requests reject attachments.
func (s *FileService) AttachFile(ctx context.Context, requestID string, upload domain.FileUpload) (*domain.Request, error) {
	if err := validateUpload(upload); err != nil {
		return nil, err
	}
	fileName := filepath.Base(strings.TrimSpace(upload.FileName))
	if fileName == "." || fileName == "/" {
		fileName = requestID + ".pdf"
	}

	var req domain.Request
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		req, err = tx.Requests().GetByID(requestID)
		if err != nil {
			return notFound(err, "request", requestID)
		}
		if req.Status == domain.RequestStatusCancelled {
			return apperrors.NewInvalidStatus("cannot attach a file to a cancelled request",
				map[string]any{"status": string(req.Status)})
		}

		now := s.timestamp()
		size := int64(len(upload.Content))
		fileID := uuid.NewString()
		req.PDFGenerated = true
		req.Status = domain.RequestStatusCompleted
		req.UpdatedDate = timePtr(now)
		req.PDFData = &domain.PDFData{
			ID:            fileID,
			FileName:      fileName,
			MediaType:     domain.PDFMediaType,
			Size:          size,
			GeneratedDate: now,
			Notes:         upload.Notes,
		}
		processed := domain.ProcessedData{}
		if req.ProcessedData != nil {
			processed = *req.ProcessedData
		}
		processed.Notes = upload.Notes
		processed.UploadedBy = upload.UploadedBy
		processed.UploadDate = timePtr(now)
		req.ProcessedData = &processed

		if err := tx.Requests().Save(req); err != nil {
			return err
		}
		return tx.Attachments().Save(domain.FileRecord{
			ID:         fileID,
			RequestID:  req.ID,
			UserID:     req.UserID,
			FileName:   fileName,
			MediaType:  domain.PDFMediaType,
			Size:       size,
			UploadDate: now,
			UploadedBy: upload.UploadedBy,
			Notes:      upload.Notes,
		}, upload.Content)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file attached",
		zap.String("request_id", requestID),
		zap.String("file_name", fileName),
		zap.Int("size", len(upload.Content)))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventFileAttached,
		UserID:    req.UserID,
		RequestID: req.ID,
		Actor:     adminActor(),
		Payload: events.FileAttachedPayload{
			FileName:   fileName,
			Size:       int64(len(upload.Content)),
			UploadedBy: upload.UploadedBy,
		},
	})
	return &req, nil
}

// DetachFile removes the request's attachment and returns it to pending.
func (s *FileService) DetachFile(ctx context.Context, requestID string) (*domain.Request, error) {
	var req domain.Request
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		req, err = tx.Requests().GetByID(requestID)
		if err != nil {
			return notFound(err, "request", requestID)
		}
		if !req.PDFGenerated && req.PDFData == nil {
			return apperrors.NewNotFound("file", map[string]any{"request_id": requestID})
		}
		req.PDFGenerated = false
		req.PDFData = nil
		req.ProcessedData = withoutUpload(req.ProcessedData)
		req.Status = domain.RequestStatusPending
		req.UpdatedDate = timePtr(s.timestamp())
		if err := tx.Requests().Save(req); err != nil {
			return err
		}
		_, err = tx.Attachments().DeleteByRequest(requestID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file detached", zap.String("request_id", requestID))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventFileDetached,
		UserID:    req.UserID,
		RequestID: req.ID,
		Actor:     adminActor(),
	})
	return &req, nil
}

// withoutUpload drops the fields AttachFile wrote. Nil is returned when nothing else is left.
func withoutUpload(p *domain.ProcessedData) *domain.ProcessedData {
	if p == nil {
		return nil
	}
	out := *p
	out.Notes = ""
	out.UploadedBy = ""
	out.UploadDate = nil
	if out == (domain.ProcessedData{}) {
		return nil
	}
	return &out
}

// FileContent returns the attachment of a request.
func (s *FileService) FileContent(ctx context.Context, requestID string) (*FileContent, error) {
	var out FileContent
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		record, err := tx.Attachments().GetByRequest(requestID)
		if err != nil {
			return notFound(err, "file", requestID)
		}
		content, err := tx.Attachments().Content(requestID)
		if err != nil {
			return notFound(err, "file", requestID)
		}
		out = FileContent{Record: record, Content: content}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UserFileContent returns the attachment only when userID owns the request.
func (s *FileService) UserFileContent(ctx context.Context, userID, requestID string) (*FileContent, error) {
	file, err := s.FileContent(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if file.Record.UserID != userID {
		return nil, apperrors.NewNotFound("file", map[string]any{"request_id": requestID})
	}
	return file, nil
}

// ListFilesByUser returns the attachment records of userID's requests.
func (s *FileService) ListFilesByUser(ctx context.Context, userID string) ([]domain.FileRecord, error) {
	var files []domain.FileRecord
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		files, err = tx.Attachments().List(userID)
		return err
	})
	return files, err
}

// ListFiles returns every attachment record.
func (s *FileService) ListFiles(ctx context.Context) ([]domain.FileRecord, error) {
	return s.ListFilesByUser(ctx, "")
}
