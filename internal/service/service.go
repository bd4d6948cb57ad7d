package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/repository"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
	"github.com/spec-kit/medical-portal/pkg/validator"
)

// Dependencies bundles what the portal services share.
type Dependencies struct {
	Store      *repository.Store
	Dispatcher events.Dispatcher
	Validator  *validator.CustomValidator
	Logger     *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type base struct {
	store      *repository.Store
	dispatcher events.Dispatcher
	validator  *validator.CustomValidator
	logger     *zap.Logger
	now        func() time.Time
}

func newBase(deps Dependencies) base {
	b := base{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		validator:  deps.Validator,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if b.validator == nil {
		b.validator = validator.NewValidator()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

func (b base) timestamp() time.Time {
	return b.now().UTC()
}

func (b base) validate(input any) error {
	if err := b.validator.Validate(input); err != nil {
		return apperrors.NewValidationError("invalid input", b.validator.FormatValidationErrors(err))
	}
	return nil
}

func (b base) publishEvent(ctx context.Context, event events.Event) {
	if b.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = b.timestamp()
	}
	if err := b.dispatcher.Publish(ctx, event); err != nil {
		b.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func errIsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// notFound turns repository.ErrNotFound into a NOT_FOUND domain error and passes other errors through.
func notFound(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func adminActor() events.Actor {
	return events.Actor{Type: domain.SubjectTypeAdmin}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
