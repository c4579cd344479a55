package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// EventQueue routes live events to a fixed set of workers using consistent
// hashing on the actor ID, so one user's events are handled in order.
type EventQueue struct {
	workers []chan ports.LiveEventInput
	service ports.NotificationService
	log     zerolog.Logger
}

// NewEventQueue creates an EventQueue with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewEventQueue(numWorkers int, service ports.NotificationService, log zerolog.Logger) *EventQueue {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	q := &EventQueue{
		workers: make([]chan ports.LiveEventInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range q.workers {
		q.workers[i] = make(chan ports.LiveEventInput, channelBuffer)
	}
	return q
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (q *EventQueue) Start(ctx context.Context) {
	for i, ch := range q.workers {
		go q.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its actor. It blocks
// while that worker's buffer is full, until ctx is done.
func (q *EventQueue) Enqueue(ctx context.Context, in ports.LiveEventInput) error {
	idx := q.shardIndex(in.Actor.ID)
	select {
	case q.workers[idx] <- in:
		metrics.EventQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(q.workers[idx])))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", in.Event.Name(), ctx.Err())
	}
}

// shardIndex maps an actor ID deterministically to a worker index.
func (q *EventQueue) shardIndex(actorID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return int(h.Sum32() % uint32(len(q.workers)))
}

func (q *EventQueue) runWorker(ctx context.Context, id int, ch <-chan ports.LiveEventInput) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.EventQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			start := time.Now()
			if err := q.service.Handle(ctx, in); err != nil {
				q.log.Error().Err(err).
					Str("event", string(in.Event.Name())).
					Str("actor_id", in.Actor.ID).
					Int("worker_id", id).
					Msg("live event processing failed")
			}
			metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())
		}
	}
}
