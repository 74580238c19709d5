package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type gateSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Event
}

func (s *gateSink) Emit(_ context.Context, e Event) {
	<-s.release
	s.mu.Lock()
	s.got = append(s.got, e)
	s.mu.Unlock()
}

func (s *gateSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "login_code_request", Success: true})
	}
	d.Close()
	d.Close()

	if got := len(sink.Events()); got != 5 {
		t.Fatalf("expected 5 delivered events, got %d", got)
	}
	if d.Delivered() != 5 {
		t.Fatalf("expected Delivered 5, got %d", d.Delivered())
	}
	d.Emit(context.Background(), Event{EventType: "after_close"})
	if got := len(sink.Events()); got != 5 {
		t.Fatalf("emit after close must be dropped silently, got %d", got)
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &gateSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Emit(context.Background(), Event{EventType: "e"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked with DropIfFull")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events")
	}

	close(sink.release)
	d.Close()
	if sink.count()+int(d.Dropped()) != 10 {
		t.Fatalf("delivered %d + dropped %d != 10", sink.count(), d.Dropped())
	}
}

func TestDispatcherBlockingEmitHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &gateSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	// First event occupies the sink, second fills the buffer.
	d.Emit(context.Background(), Event{EventType: "first"})
	d.Emit(context.Background(), Event{EventType: "second"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{EventType: "third"})

	if d.Dropped() != 1 {
		t.Fatalf("expected the canceled emit to count as dropped, got %d", d.Dropped())
	}

	close(sink.release)
	d.Close()
	if sink.count() != 2 {
		t.Fatalf("expected 2 delivered events, got %d", sink.count())
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "a", Binding: "b1", Purpose: "requestLogin", Success: true})
	sink.Emit(context.Background(), Event{EventType: "b", Error: "auth.fail"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var e Event
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Binding != "b1" || e.Purpose != "requestLogin" || !e.Success {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Emit(context.Background(), Event{EventType: "ok", Success: true, Metadata: map[string]string{"reason": "x"}})
	sink.Emit(context.Background(), Event{EventType: "bad", Error: "auth.fail"})

	out := buf.String()
	if !strings.Contains(out, `"level":"INFO"`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("expected INFO and WARN records, got %s", out)
	}
	if !strings.Contains(out, `"meta":{"reason":"x"}`) {
		t.Fatalf("expected metadata attr, got %s", out)
	}
	if !strings.Contains(out, `"component":"audit"`) {
		t.Fatalf("expected component attr, got %s", out)
	}
}

func TestSinkFuncAdapter(t *testing.T) {
	var got []string
	var sink Sink = SinkFunc(func(_ context.Context, e Event) { got = append(got, e.EventType) })
	sink.Emit(context.Background(), Event{EventType: "a"})
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected %v", got)
	}
}
