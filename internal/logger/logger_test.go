package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestWithAttrsSharesWorker(t *testing.T) {
	h := NewAsyncHandler(t.TempDir(), slog.LevelDebug)

	derived, ok := h.WithAttrs([]slog.Attr{slog.String("component", "test")}).(*AsyncHandler)
	if !ok {
		t.Fatal("Expect WithAttrs to return an *AsyncHandler")
	}
	if derived.ch == nil {
		t.Fatal("Expect derived handler to carry the write channel")
	}

	grouped, ok := h.WithGroup("test").(*AsyncHandler)
	if !ok {
		t.Fatal("Expect WithGroup to return an *AsyncHandler")
	}
	if grouped.ch == nil {
		t.Fatal("Expect grouped handler to carry the write channel")
	}

	// a record handled through the derived handler must not block
	done := make(chan struct{})
	go func() {
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
		_ = derived.Handle(context.Background(), record)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expect derived handler to hand off the record without blocking")
	}

	_ = h.Close()
}
