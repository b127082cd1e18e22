// Package bus carries inbound client events to their single consumer
// and fans out internal lifecycle events.
package bus

import (
	"log/slog"
	"sync"
	"time"

	"zapbridge/internal/domain"
)

const publishTimeout = 10 * time.Second

// Queue is a Go-channel based inbound event queue. The automation
// client publishes from its event callback; one consumer drains the
// channel sequentially. Publishing never returns an error to the
// client: a full queue blocks briefly and then drops, so the event
// source keeps running no matter what.
type Queue struct {
	events chan domain.ClientEvent
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// NewQueue creates a Queue with the given buffer size.
func NewQueue(bufferSize int, logger *slog.Logger) *Queue {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Queue{
		events: make(chan domain.ClientEvent, bufferSize),
		logger: logger,
	}
}

// Publish enqueues an event. Blocks up to 10 seconds when the queue is
// full instead of dropping immediately.
func (q *Queue) Publish(evt domain.ClientEvent) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.logger.Warn("attempted to publish to closed queue")
		return
	}

	select {
	case q.events <- evt:
	default:
		q.logger.Warn("inbound queue full, waiting...", "from", evt.From())
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case q.events <- evt:
			q.logger.Info("event delivered after wait", "from", evt.From())
		case <-timer.C:
			q.logger.Error("event dropped: queue full for 10s", "from", evt.From())
		}
	}
}

// Subscribe returns the consumer side of the queue.
func (q *Queue) Subscribe() <-chan domain.ClientEvent {
	return q.events
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.events)
	}
}
