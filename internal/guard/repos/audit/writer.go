package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/amanahapps/guardian/internal/guard/common/log"
	"github.com/amanahapps/guardian/internal/guard/domain"
)

// unixUTC converts stored unix seconds back to a UTC instant.
func unixUTC(ts int64) time.Time { return time.Unix(ts, 0).UTC() }

// appendStore is the slice of the store the writer needs.
type appendStore interface {
	Append(ctx context.Context, e domain.AuditEntry) error
}

// Writer decouples audit appends from the decision path. Record never
// blocks: entries go into a bounded queue drained by a single goroutine,
// and when the queue is full the entry is dropped and counted. A dropped
// audit record must never delay or change a verdict.
type Writer struct {
	store   appendStore
	logger  log.Logger
	queue   chan domain.AuditEntry
	dropped atomic.Uint64
}

// NewWriter creates a Writer with the given queue capacity.
func NewWriter(store appendStore, queueSize int, logger log.Logger) *Writer {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Writer{
		store:  store,
		logger: logger,
		queue:  make(chan domain.AuditEntry, queueSize),
	}
}

// Record enqueues one entry without blocking. Fire-and-forget by contract.
func (w *Writer) Record(e domain.AuditEntry) {
	select {
	case w.queue <- e:
	default:
		w.dropped.Add(1)
		w.logger.Warn(map[string]any{"url": e.URL}, "audit queue full, entry dropped")
	}
}

// Dropped reports how many entries have been discarded under pressure.
func (w *Writer) Dropped() uint64 { return w.dropped.Load() }

// Run drains the queue until ctx is canceled, then flushes whatever is
// still queued before returning.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case e := <-w.queue:
			w.append(ctx, e)
		case <-ctx.Done():
			w.flush()
			return
		}
	}
}

func (w *Writer) append(ctx context.Context, e domain.AuditEntry) {
	if err := w.store.Append(ctx, e); err != nil {
		w.logger.Error(map[string]any{"error": err.Error(), "url": e.URL}, "audit append failed")
	}
}

// flush drains remaining entries with a background context; the store may
// already be closing, so failures are logged and tolerated.
func (w *Writer) flush() {
	for {
		select {
		case e := <-w.queue:
			w.append(context.Background(), e)
		default:
			return
		}
	}
}
