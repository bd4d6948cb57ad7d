package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/config"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/service"
)

// StartNotificationWorker wires the notification handlers and, when brokers are configured,
// the Kafka sink behind a queue drained in the background. The returned stop func delivers
// what is queued and closes the writer.
func StartNotificationWorker(dispatcher events.Dispatcher, cfg config.NotificationConfig, logger *zap.Logger) func() {
	var (
		sink service.EventSink
		stop = func() {}
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		queue := events.NewQueuedSink(kafkaSink, cfg.QueueSize, logger)
		sink = queue
		stop = func() {
			_ = queue.Close()
			if err := kafkaSink.Close(); err != nil {
				logger.Warn("close kafka sink", zap.Error(err))
			}
		}
		logger.Info("forwarding events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	service.NewNotificationService(dispatcher, logger, cfg, sink).RegisterHandlers()
	return stop
}
