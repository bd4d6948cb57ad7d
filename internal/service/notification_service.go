package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/config"
	"github.com/spec-kit/medical-portal/internal/events"
)

// EventSink receives every published event. events.KafkaSink implements it.
type EventSink interface {
	Send(ctx context.Context, event events.Event) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	sink       EventSink
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, sink EventSink) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.forward)
	}
	n.dispatcher.Subscribe(events.EventUserBlocked, n.handleUserBlocked)
	n.dispatcher.Subscribe(events.EventRequestStatusChanged, n.handleRequestStatusChanged)
	n.dispatcher.Subscribe(events.EventFileAttached, n.handleFileAttached)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.sink == nil {
		return nil
	}
	if err := n.sink.Send(ctx, event); err != nil {
		n.logger.Warn("event sink failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) handleUserBlocked(ctx context.Context, event events.Event) error {
	n.logger.Info("UserBlocked", zap.String("user_id", event.UserID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleRequestStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("RequestStatusChanged", zap.String("request_id", event.RequestID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFileAttached(ctx context.Context, event events.Event) error {
	n.logger.Info("FileAttached", zap.String("request_id", event.RequestID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("user_id", event.UserID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("request_id", event.RequestID),
		zap.String("event_type", string(event.Type)))
}
