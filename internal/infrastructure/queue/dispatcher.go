package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/api/metrics"
	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher persists moderation audit records asynchronously. Entries are
// routed to a fixed set of workers by consistent hashing on the content id,
// so the audit history of a single item is written in decision order. The
// moderation decision itself is synchronous; only this trail is not.
type Dispatcher struct {
	workers []chan domain.ModerationAudit
	repo    ports.AuditRepository
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.ModerationAudit, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ModerationAudit, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an audit entry to the worker responsible for its content id.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(entry domain.ModerationAudit) {
	i := d.shardIndex(entry.ContentID)
	d.workers[i] <- entry
	metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
}

// shardIndex maps a content id deterministically to a worker index.
func (d *Dispatcher) shardIndex(contentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(contentID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ModerationAudit) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			if err := d.repo.Record(ctx, entry); err != nil {
				d.log.Error().Err(err).
					Str("content_id", entry.ContentID).
					Int("worker_id", id).
					Msg("audit record write failed")
			}
			metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}
