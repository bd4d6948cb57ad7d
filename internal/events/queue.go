package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrSinkFull   = errors.New("event queue full")
	ErrSinkClosed = errors.New("event queue closed")
)

// EventSender delivers one event. *KafkaSink implements it.
type EventSender interface {
	Send(ctx context.Context, event Event) error
}

// QueuedSink buffers events and delivers them from one goroutine in publish order.
// Send never waits on the underlying sender.
type QueuedSink struct {
	next   EventSender
	logger *zap.Logger
	queue  chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewQueuedSink starts the delivery goroutine. size is the buffer length.
func NewQueuedSink(next EventSender, size int, logger *zap.Logger) *QueuedSink {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &QueuedSink{
		next:   next,
		logger: logger,
		queue:  make(chan Event, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *QueuedSink) run() {
	defer close(q.done)
	for event := range q.queue {
		if err := q.next.Send(context.Background(), event); err != nil {
			q.logger.Warn("deliver event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}
}

// Send enqueues event. It returns ErrSinkFull instead of blocking when the buffer is full.
func (q *QueuedSink) Send(_ context.Context, event Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrSinkClosed
	}
	select {
	case q.queue <- event:
		return nil
	default:
		return ErrSinkFull
	}
}

// Close stops accepting events and waits until the buffered ones are delivered.
func (q *QueuedSink) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	<-q.done
	return nil
}
