package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/CostLens/internal/config"
)

// captureHandler stores every record it is asked to write. When gate is set,
// Handle blocks until it is closed. extra attrs are appended to each record
// before it is stored, as a wrapping handler would do.
type captureHandler struct {
	gate  chan struct{}
	extra []slog.Attr

	mu   sync.Mutex
	recs []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.gate != nil {
		<-h.gate
	}
	rec.AddAttrs(h.extra...)
	h.mu.Lock()
	h.recs = append(h.recs, rec)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) records() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]slog.Record(nil), h.recs...)
}

func attrKeys(rec slog.Record) []string {
	var keys []string
	rec.Attrs(func(a slog.Attr) bool {
		keys = append(keys, a.Key)
		return true
	})
	return keys
}

func TestAsyncHandlerFlushesOnClose(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		writers int
		each    int
	}{
		{"single writer", 1, 1, 50},
		{"concurrent writers", 4, 20, 100},
		{"zero workers clamps to one", 0, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &captureHandler{}
			h := NewAsyncHandler(inner, tt.writers*tt.each, tt.workers)

			var wg sync.WaitGroup
			for range tt.writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range tt.each {
						_ = h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "report served", 0))
					}
				}()
			}
			wg.Wait()
			h.Close()

			if got, want := len(inner.records()), tt.writers*tt.each; got != want {
				t.Fatalf("expected %d records after Close, got %d", want, got)
			}
			if h.Dropped() != 0 {
				t.Errorf("expected no drops, got %d", h.Dropped())
			}
		})
	}
}

func TestAsyncHandlerCountsDrops(t *testing.T) {
	inner := &captureHandler{gate: make(chan struct{})}
	h := NewAsyncHandler(inner, 1, 1)

	for range 10 {
		_ = h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelWarn, "cache write failed", 0))
	}
	close(inner.gate)
	h.Close()

	// One record is held by the worker and one sits in the buffer.
	if h.Dropped() < 8 {
		t.Errorf("expected at least 8 drops, got %d", h.Dropped())
	}
	if got := int64(len(inner.records())) + h.Dropped(); got != 10 {
		t.Errorf("written plus dropped = %d, want 10", got)
	}
}

func TestAsyncHandlerIsolatesCallerRecord(t *testing.T) {
	inner := &captureHandler{gate: make(chan struct{}), extra: []slog.Attr{slog.String("written_by", "worker")}}
	h := NewAsyncHandler(inner, 4, 1)

	// More attrs than slog stores inline, so the record has a shared tail.
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "query attempt", 0)
	rec.AddAttrs(
		slog.String("kind", "summary"),
		slog.Int("days", 30),
		slog.Int("attempt", 1),
		slog.String("key", "summary:30"),
		slog.Bool("degraded", false),
		slog.Float64("total", 150),
		slog.String("currency", "EUR"),
	)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	// The caller keeps using its record while the worker is still blocked.
	rec.AddAttrs(slog.String("late", "caller"))
	close(inner.gate)
	h.Close()

	got := inner.records()
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	keys := strings.Join(attrKeys(got[0]), ",")
	want := "kind,days,attempt,key,degraded,total,currency,written_by"
	if keys != want {
		t.Errorf("attrs = %s, want %s", keys, want)
	}
}

func TestAsyncHandlerDerivedShareQueue(t *testing.T) {
	inner := &captureHandler{}
	h := NewAsyncHandler(inner, 10, 1)

	derived := h.WithAttrs([]slog.Attr{slog.String("component", "azure")}).WithGroup("query")
	_ = derived.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "throttled", 0))
	h.Close()

	if len(inner.records()) != 1 {
		t.Fatalf("expected derived handler to write through the shared queue")
	}
}

func TestAsyncCloseIsIdempotent(t *testing.T) {
	h := NewAsyncHandler(&captureHandler{}, 1, 1)
	h.Close()
	h.Close()
}

func TestNewAsyncWritesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log, closer := newWithWriter(config.Logging{Level: "info", Service: "costlens", Async: true}, &buf)

	ctx := WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "report served", "kind", "forecast")
	log.Info("no request")
	closer.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}

	byMsg := make(map[string]map[string]any, len(lines))
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		byMsg[entry["msg"].(string)] = entry
	}

	served := byMsg["report served"]
	if served["request_id"] != "req-42" || served["service"] != "costlens" || served["kind"] != "forecast" {
		t.Errorf("unexpected entry: %v", served)
	}
	if _, ok := byMsg["no request"]["request_id"]; ok {
		t.Errorf("request_id set without one in context: %v", byMsg["no request"])
	}
}
