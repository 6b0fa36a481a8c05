package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops a log pipeline.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// queued pairs a record with the handler chain it must be written through,
// so WithAttrs/WithGroup derivatives share one queue and one worker pool.
type queued struct {
	handler slog.Handler
	rec     slog.Record
}

// logQueue is the state shared by an AsyncHandler and its derivatives.
type logQueue struct {
	records chan queued
	workers sync.WaitGroup
	dropped atomic.Int64
	closed  sync.Once
}

// AsyncHandler moves record formatting and output off the calling
// goroutine. When the buffer is full, records are dropped and counted.
type AsyncHandler struct {
	next  slog.Handler
	queue *logQueue
}

// NewAsyncHandler starts workers goroutines draining a buffer of size records into next.
func NewAsyncHandler(next slog.Handler, size, workers int) *AsyncHandler {
	q := &logQueue{records: make(chan queued, size)}
	for range max(workers, 1) {
		q.workers.Add(1)
		go func() {
			defer q.workers.Done()
			for item := range q.records {
				_ = item.handler.Handle(context.Background(), item.rec)
			}
		}()
	}
	return &AsyncHandler{next: next, queue: q}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enqueues a clone of rec. The caller keeps ownership of rec and may
// keep adding attributes to it after Handle returns.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.queue.records <- queued{handler: h.next, rec: rec.Clone()}:
	default:
		h.queue.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), queue: h.queue}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), queue: h.queue}
}

// Dropped reports how many records were discarded because the buffer was full.
func (h *AsyncHandler) Dropped() int64 {
	return h.queue.dropped.Load()
}

// Close stops accepting records and blocks until the buffer is written out.
// It is safe to call more than once.
func (h *AsyncHandler) Close() {
	h.queue.closed.Do(func() { close(h.queue.records) })
	h.queue.workers.Wait()
}
