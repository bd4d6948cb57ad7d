package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/repository"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// RequestService coordinates request submission and the admin status workflow.
type RequestService struct {
	base
}

// NewRequestService constructs the service.
func NewRequestService(deps Dependencies) *RequestService {
	return &RequestService{base: newBase(deps)}
}

// Create submits a pending request for userID. data must be the payload shape of requestType.
func (s *RequestService) Create(ctx context.Context, userID string, requestType domain.RequestType, data domain.RequestData) (*domain.Request, error) {
	if !requestType.Valid() {
		return nil, apperrors.NewValidationError("unknown request type", map[string]any{"type": string(requestType)})
	}
	if data == nil || data.RequestType() != requestType {
		return nil, apperrors.NewValidationError("data does not match request type", map[string]any{"type": string(requestType)})
	}
	if err := s.validate(data); err != nil {
		return nil, err
	}

	var req domain.Request
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		user, err := tx.Users().GetByID(userID)
		if err != nil {
			if errIsNotFound(err) {
				return apperrors.NewUnknownUser(map[string]any{"user_id": userID})
			}
			return err
		}

		req = domain.Request{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        requestType,
			Data:        data,
			Status:      domain.RequestStatusPending,
			CreatedDate: s.timestamp(),
		}
		if err := tx.Requests().Save(req); err != nil {
			return err
		}
		user.RequestIDs = append(append([]string(nil), user.RequestIDs...), req.ID)
		return tx.Users().Save(user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request created", zap.String("request_id", req.ID), zap.String("type", string(req.Type)))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		UserID:    userID,
		RequestID: req.ID,
		Actor:     userActor(userID),
		Payload:   events.RequestCreatedPayload{Type: requestType},
	})
	return &req, nil
}

// UpdateStatus moves a request along the allowed transitions and replaces processed data when given.
func (s *RequestService) UpdateStatus(ctx context.Context, requestID string, status domain.RequestStatus, processed *domain.ProcessedData) (*domain.Request, error) {
	if !status.Valid() {
		return nil, apperrors.NewInvalidStatus("unknown request status", map[string]any{"status": string(status)})
	}
	return s.transition(ctx, requestID, status, func(req *domain.Request) error {
		if processed != nil {
			p := *processed
			req.ProcessedData = &p
		}
		return nil
	})
}

// Process completes an appointment or consultation with the outcome fields its type requires.
func (s *RequestService) Process(ctx context.Context, requestID string, processed domain.ProcessedData) (*domain.Request, error) {
	return s.transition(ctx, requestID, domain.RequestStatusCompleted, func(req *domain.Request) error {
		if err := s.validateOutcome(req.Type, processed); err != nil {
			return err
		}
		req.ProcessedData = &processed
		return nil
	})
}

func (s *RequestService) validateOutcome(t domain.RequestType, p domain.ProcessedData) error {
	switch t {
	case domain.RequestTypeAppointment:
		return s.validate(domain.AppointmentOutcome{
			HospitalName:    p.HospitalName,
			DoctorName:      p.DoctorName,
			DoctorSpecialty: p.DoctorSpecialty,
			DoctorPhone:     p.DoctorPhone,
			AppointmentDate: p.AppointmentDate,
			AppointmentTime: p.AppointmentTime,
		})
	case domain.RequestTypeConsultation:
		return s.validate(domain.ConsultationOutcome{
			DoctorName:      p.DoctorName,
			DoctorSpecialty: p.DoctorSpecialty,
			DoctorPhone:     p.DoctorPhone,
		})
	default:
		return apperrors.NewValidationError("request type is completed by attaching a file",
			map[string]any{"type": string(t)})
	}
}

func (s *RequestService) transition(ctx context.Context, requestID string, next domain.RequestStatus, mutate func(*domain.Request) error) (*domain.Request, error) {
	var (
		req      domain.Request
		previous domain.RequestStatus
	)
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		req, err = tx.Requests().GetByID(requestID)
		if err != nil {
			return notFound(err, "request", requestID)
		}
		previous = req.Status
		if !domain.CanTransition(req.Status, next) {
			return apperrors.NewInvalidStatus("status transition not allowed", map[string]any{
				"from": string(req.Status),
				"to":   string(next),
			})
		}
		if err := mutate(&req); err != nil {
			return err
		}
		req.Status = next
		req.UpdatedDate = timePtr(s.timestamp())
		return tx.Requests().Save(req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request status changed",
		zap.String("request_id", requestID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		UserID:    req.UserID,
		RequestID: req.ID,
		Actor:     adminActor(),
		Payload:   events.RequestStatusChangedPayload{OldStatus: previous, NewStatus: next},
	})
	return &req, nil
}

// Get returns a request by ID.
func (s *RequestService) Get(ctx context.Context, requestID string) (*domain.Request, error) {
	var req domain.Request
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		req, err = tx.Requests().GetByID(requestID)
		return notFound(err, "request", requestID)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetForUser returns the request only when userID owns it.
func (s *RequestService) GetForUser(ctx context.Context, userID, requestID string) (*domain.Request, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, apperrors.NewNotFound("request", map[string]any{"id": requestID})
	}
	return req, nil
}

// List returns requests matching filter in submission order.
func (s *RequestService) List(ctx context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	var reqs []domain.Request
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		reqs, err = tx.Requests().List(filter)
		return err
	})
	return reqs, err
}

// ListByUser returns userID's requests in submission order.
func (s *RequestService) ListByUser(ctx context.Context, userID string) ([]domain.Request, error) {
	return s.List(ctx, repository.RequestFilter{UserID: userID})
}

// FilterByStatus returns requests in status, or every request for "all".
func (s *RequestService) FilterByStatus(ctx context.Context, status string) ([]domain.Request, error) {
	if status == "" || status == "all" {
		return s.List(ctx, repository.RequestFilter{})
	}
	want := domain.RequestStatus(status)
	if !want.Valid() {
		return nil, apperrors.NewInvalidStatus("unknown request status", map[string]any{"status": status})
	}
	return s.List(ctx, repository.RequestFilter{Statuses: []domain.RequestStatus{want}})
}

// FilterByType returns requests of requestType, or every request for "all".
func (s *RequestService) FilterByType(ctx context.Context, requestType string) ([]domain.Request, error) {
	if requestType == "" || requestType == "all" {
		return s.List(ctx, repository.RequestFilter{})
	}
	want := domain.RequestType(requestType)
	if !want.Valid() {
		return nil, apperrors.NewValidationError("unknown request type", map[string]any{"type": requestType})
	}
	return s.List(ctx, repository.RequestFilter{Types: []domain.RequestType{want}})
}

// CleanupOrphans removes requests whose user no longer exists, with their attachments.
func (s *RequestService) CleanupOrphans(ctx context.Context) (int, error) {
	var removed []domain.Request
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		users, err := tx.Users().List()
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(users))
		for _, u := range users {
			known[u.ID] = struct{}{}
		}
		removed, err = tx.Requests().DeleteWhere(func(r *domain.Request) bool {
			_, ok := known[r.UserID]
			return !ok
		})
		if err != nil || len(removed) == 0 {
			return err
		}
		ids := make([]string, 0, len(removed))
		for _, r := range removed {
			ids = append(ids, r.ID)
		}
		_, err = tx.Attachments().DeleteByRequest(ids...)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(removed) > 0 {
		s.logger.Info("orphan requests removed", zap.Int("count", len(removed)))
	}
	return len(removed), nil
}

// Statistics aggregates request counts and upload totals.
func (s *RequestService) Statistics(ctx context.Context) (*domain.RequestStatistics, error) {
	var stats domain.RequestStatistics
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		reqs, err := tx.Requests().List(repository.RequestFilter{})
		if err != nil {
			return err
		}
		files, err := tx.Attachments().List("")
		if err != nil {
			return err
		}
		now := s.now()
		stats = requestStatistics(reqs, files, now, now.Location())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// requestStatistics counts today's requests by calendar day in loc.
func requestStatistics(reqs []domain.Request, files []domain.FileRecord, now time.Time, loc *time.Location) domain.RequestStatistics {
	stats := domain.RequestStatistics{
		TotalRequests: len(reqs),
		ByType:        make(map[domain.RequestType]int, len(domain.RequestTypes)),
	}
	for _, t := range domain.RequestTypes {
		stats.ByType[t] = 0
	}
	y, m, d := now.In(loc).Date()
	for _, r := range reqs {
		switch r.Status {
		case domain.RequestStatusPending:
			stats.PendingRequests++
		case domain.RequestStatusInProgress:
			stats.InProgressRequests++
		case domain.RequestStatusCompleted:
			stats.CompletedRequests++
		case domain.RequestStatusCancelled:
			stats.CancelledRequests++
		}
		stats.ByType[r.Type]++
		if ry, rm, rd := r.CreatedDate.In(loc).Date(); ry == y && rm == m && rd == d {
			stats.TodayRequests++
		}
	}
	stats.TotalUploadedFiles = len(files)
	for _, f := range files {
		stats.TotalFileSize += f.Size
	}
	return stats
}
