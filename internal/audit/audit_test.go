package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected nil dispatcher to report zero drops")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "login_success"})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected 50 delivered events after close, got %d", got)
	}

	d.Emit(context.Background(), Event{EventType: "late"})
	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected emit after close to be ignored, got %d", got)
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// The first event is picked up by the worker and blocks on the gate, the
	// second fills the buffer, and the rest must be dropped.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "x"})
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{EventType: "first"})
	time.Sleep(10 * time.Millisecond)
	d.Emit(context.Background(), Event{EventType: "second"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	d.Emit(ctx, Event{EventType: "third"})
	if time.Since(start) > time.Second {
		t.Fatal("expected blocked emit to return when the context ends")
	}

	close(sink.gate)
	d.Close()
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "login_failure", UserID: "u1", Metadata: map[string]string{"reason": "password_mismatch"}})
	sink.Emit(context.Background(), Event{EventType: "login_success", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var decoded Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.EventType != "login_failure" || decoded.Metadata["reason"] != "password_mismatch" {
		t.Fatalf("unexpected event: %+v", decoded)
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(0)
	sink.Emit(context.Background(), Event{EventType: "register_success"})

	select {
	case e := <-sink.Events():
		if e.EventType != "register_success" {
			t.Fatalf("unexpected event: %+v", e)
		}
	default:
		t.Fatal("expected buffered event")
	}
}

func TestLogrusSinkLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := NewLogrusSink(logger)

	sink.Emit(context.Background(), Event{EventType: "login_success", UserID: "u1", Success: true})
	sink.Emit(context.Background(), Event{EventType: "login_failure", IP: "10.0.0.1", Error: "invalid_credentials", Metadata: map[string]string{"reason": "user_not_found"}})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Data["user_id"] != "u1" {
		t.Fatalf("unexpected success entry: %+v", entries[0])
	}
	if entries[1].Level != logrus.WarnLevel || entries[1].Data["meta_reason"] != "user_not_found" || entries[1].Data["ip"] != "10.0.0.1" {
		t.Fatalf("unexpected failure entry: %+v", entries[1].Data)
	}
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	var calls atomic.Int64
	sink := SinkFunc(func(_ context.Context, e Event) {
		calls.Add(1)
		if e.EventType == "boom" {
			panic("sink failure")
		}
	})
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), Event{EventType: "boom"})
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()

	if calls.Load() != 2 {
		t.Fatalf("expected worker to keep running after panic, got %d calls", calls.Load())
	}
	if d.Delivered() != 1 || d.Dropped() != 1 {
		t.Fatalf("expected 1 delivered and 1 dropped, got %d/%d", d.Delivered(), d.Dropped())
	}
}

func TestDispatcherCloseIdempotentAndConcurrentEmit(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			d.Emit(context.Background(), Event{EventType: "x"})
		}
	}()

	d.Close()
	d.Close()
	<-done

	if got := uint64(sink.count.Load()); got != d.Delivered() {
		t.Fatalf("sink saw %d events, dispatcher reports %d delivered", got, d.Delivered())
	}
}
