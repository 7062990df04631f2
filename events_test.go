package quizClient

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/quizClient/session"
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

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEventsDisabledNoDispatcher(t *testing.T) {
	if d := newEventDispatcher(EventsConfig{Enabled: false}, &countingSink{}); d != nil {
		t.Fatal("expected nil dispatcher when events are disabled")
	}

	var d *eventDispatcher
	d.Emit(context.Background(), Event{Type: EventPrompt})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected nil dispatcher to report zero drops")
	}
}

func TestEventsBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newEventDispatcher(EventsConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), Event{Type: EventSessionLoaded})
	dispatcher.Emit(context.Background(), Event{Type: EventSessionLoaded})

	start := time.Now()
	dispatcher.Emit(context.Background(), Event{Type: EventSessionLoaded})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestEventsBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newEventDispatcher(EventsConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), Event{Type: EventSessionLoaded})
	dispatcher.Emit(context.Background(), Event{Type: EventSessionLoaded})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), Event{Type: EventSessionLoaded})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestEventsJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{
		Timestamp: time.Now().UTC(),
		Type:      EventSessionEstablished,
		UserID:    "42",
		Success:   true,
	})

	out := buf.String()
	if !strings.Contains(out, "session_established") {
		t.Fatal("expected JSON line to contain event type")
	}
	if !strings.Contains(out, "\"user_id\":\"42\"") {
		t.Fatal("expected JSON line to contain user id")
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatal("expected newline-terminated JSON line")
	}
}

func TestEventsDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	sink := &countingSink{}
	dispatcher := newEventDispatcher(EventsConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, sink)

	dispatcher.Emit(context.Background(), Event{Type: EventPrompt})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), Event{Type: EventPrompt})

	if got := sink.count.Load(); got != 1 {
		t.Fatalf("expected drained event only, got %d", got)
	}
}

func TestEventsNeverCarryCredential(t *testing.T) {
	const token = "secret-bearer-credential"

	var buf syncBuffer
	cfg := DefaultConfig()
	cfg.Avatar.Enabled = false
	cfg.Events.DropIfFull = false
	m, err := New().
		WithConfig(cfg).
		WithStore(session.NewMemoryStore()).
		WithEventSink(NewJSONWriterSink(&buf)).
		WithPrompter(&recordingPrompter{}).
		WithLogger(slog.New(slog.DiscardHandler)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := context.Background()
	if err := m.BeginVerification(ctx, "55"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := m.EstablishSession(ctx, token, "42", "user"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := m.EndSession(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 3 {
		t.Fatalf("expected 3 events, got:\n%s", out)
	}
	if strings.Contains(out, token) {
		t.Fatal("credential leaked into events")
	}
}
