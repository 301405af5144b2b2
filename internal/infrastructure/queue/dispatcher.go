package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the user id, preserving per-user event order.
type Dispatcher struct {
	workers   []chan ports.AuthEvent
	publisher ports.EventPublisher
	log       zerolog.Logger
	dropped   atomic.Uint64
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.AuthEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its user. It never
// blocks: when that worker's buffer is full the event is dropped and counted.
func (d *Dispatcher) Enqueue(event ports.AuthEvent) {
	id := d.shardIndex(event.UserID)
	select {
	case d.workers[id] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(d.workers[id])))
	default:
		d.dropped.Add(1)
		metrics.AuditEventsDroppedTotal.Inc()
		d.log.Warn().Str("type", string(event.Type)).Str("user_id", event.UserID).Msg("audit buffer full, event dropped")
	}
}

// Dropped returns how many events were discarded on a full buffer.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AuthEvent) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			start := time.Now()
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := d.publisher.Publish(pubCtx, event)
			cancel()

			result := "ok"
			if err != nil {
				result = "error"
				d.log.Error().Err(err).
					Str("type", string(event.Type)).
					Str("user_id", event.UserID).
					Int("worker_id", id).
					Msg("audit event publish failed")
			}
			metrics.AuditPublishDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		}
	}
}
