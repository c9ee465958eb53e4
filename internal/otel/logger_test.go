package otel

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("line %d: invalid JSON: %v", i, err)
		}
		out = append(out, decoded)
	}
	return out
}

func TestEmitWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindSearchStart, Level: LevelInfo, Comp: "search", Seq: 4, Query: "red shoes"})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	ev := lines[0]
	if ev["kind"] != "search.start" || ev["comp"] != "search" || ev["level"] != "info" {
		t.Errorf("unexpected event: %v", ev)
	}
	if ev["seq"] != float64(4) || ev["query"] != "red shoes" {
		t.Errorf("seq/query not serialized: %v", ev)
	}
}

func TestEmitStampsTimeAndSession(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	before := time.Now()
	l.Emit(Event{Kind: KindStartup})
	l.Emit(Event{Kind: KindShutdown})
	l.Close()
	after := time.Now()

	var first, second Event
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if first.Time.Before(before) || first.Time.After(after) {
		t.Errorf("time %v not in [%v, %v]", first.Time, before, after)
	}
	if len(first.SessionID) != 16 {
		t.Errorf("session_id should be 16 hex chars, got %q", first.SessionID)
	}
	if first.SessionID != second.SessionID || first.SessionID != l.SessionID() {
		t.Errorf("session ids differ: %q %q %q", first.SessionID, second.SessionID, l.SessionID())
	}
}

func TestDurationAsMilliseconds(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindRefreshComplete, Dur: 1500 * time.Millisecond})
	l.Close()

	ev := decodeLines(t, &buf)[0]
	if ev["dur_ms"] != float64(1500) {
		t.Errorf("dur_ms = %v, want 1500", ev["dur_ms"])
	}
}

func TestOptionalFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	line := buf.String()
	for _, field := range []string{"dur_ms", "count", "query", "seq", "product_id", "err", "msg", "extra"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("field %q should be omitted: %s", field, line)
		}
	}
}

func TestHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info(KindStartup, "main", "starting")
	l.Warn(KindRefreshError, "coord", "slow")
	l.Error(KindMutateError, "coord", errors.New("validation failed"))
	l.Error(KindError, "main", nil)
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	want := []struct{ level, kind string }{
		{"info", "sys.startup"},
		{"warn", "catalog.refresh_error"},
		{"error", "catalog.mutate_error"},
		{"error", "sys.error"},
	}
	for i, w := range want {
		if lines[i]["level"] != w.level || lines[i]["kind"] != w.kind {
			t.Errorf("line %d = %v, want %s %s", i, lines[i], w.level, w.kind)
		}
	}
	if lines[2]["err"] != "validation failed" {
		t.Errorf("err = %v", lines[2]["err"])
	}
}

func TestConcurrentEmit(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Emit(Event{Kind: KindSearchDebounce})
		}()
	}
	wg.Wait()
	l.Close()

	if n := len(decodeLines(t, &buf)); n != 100 {
		t.Errorf("expected 100 lines, got %d", n)
	}
}

func TestNilAndNullLogger(t *testing.T) {
	var nilLogger *Logger
	nilLogger.Emit(Event{Kind: KindStartup})
	nilLogger.Info(KindStartup, "main", "x")
	nilLogger.Close()

	l := NewNullLogger()
	l.Emit(Event{Kind: KindStartup})
	l.Close()
	l.Close()
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Close()

	l.Emit(Event{Kind: KindStartup})
	if l.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", l.Dropped())
	}
}

func TestDropsWhenQueueFull(t *testing.T) {
	bw := &blockingWriter{started: make(chan struct{}), block: make(chan struct{})}
	l := NewLogger(bw)

	l.Emit(Event{Kind: KindSearchStart})
	<-bw.started

	for i := 0; i < queueSize+10; i++ {
		l.Emit(Event{Kind: KindSearchStart})
	}
	if l.Dropped() == 0 {
		t.Error("expected drops when the queue is full")
	}

	close(bw.block)
	l.Close()
}

type blockingWriter struct {
	started chan struct{}
	block   chan struct{}
	once    sync.Once
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.started)
		<-w.block
	})
	return len(p), nil
}

func TestRingBufferAttached(t *testing.T) {
	l := NewNullLogger()
	ring := NewRingBuffer(8)
	l.SetRingBuffer(ring)

	l.Emit(Event{Kind: KindSearchComplete, Dur: 20 * time.Millisecond})
	l.Close()

	last := ring.Last(1)
	if len(last) != 1 || last[0].Kind != KindSearchComplete {
		t.Fatalf("ring = %v", last)
	}
	// The ring keeps the original Dur, not the serialized form.
	if last[0].Dur != 20*time.Millisecond {
		t.Errorf("Dur = %v", last[0].Dur)
	}
}
