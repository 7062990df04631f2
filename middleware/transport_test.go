package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/MrEthical07/quizClient/session"
)

type promptLog struct {
	mu    sync.Mutex
	kinds []quizClient.PromptKind
}

func (p *promptLog) Prompt(_ context.Context, pr quizClient.Prompt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, pr.Kind)
}

func (p *promptLog) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.kinds)
}

func newTestManager(t *testing.T) (*quizClient.Manager, *promptLog) {
	t.Helper()

	cfg := quizClient.DefaultConfig()
	cfg.Avatar.Enabled = false
	prompts := &promptLog{}
	m, err := quizClient.New().
		WithConfig(cfg).
		WithStore(session.NewMemoryStore()).
		WithPrompter(prompts).
		WithLogger(slog.New(slog.DiscardHandler)).
		Build()
	if err != nil {
		t.Fatalf("build manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, prompts
}

type seenHeaders struct {
	mu        sync.Mutex
	auth      string
	requestID string
}

func newBackend(t *testing.T, status int) (*httptest.Server, *seenHeaders) {
	t.Helper()
	seen := &seenHeaders{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.auth = r.Header.Get("Authorization")
		seen.requestID = r.Header.Get("X-Request-Id")
		seen.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func doGet(t *testing.T, client *http.Client, ctx context.Context, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if resp != nil {
		t.Cleanup(func() { _ = resp.Body.Close() })
	}
	return resp, err
}

func TestTransportUnmarkedPassesThrough(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.EstablishSession(context.Background(), "abc", "42", "user"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	srv, seen := newBackend(t, http.StatusUnauthorized)
	client := NewClient(m, time.Second, slog.New(slog.DiscardHandler))

	resp, err := doGet(t, client, context.Background(), srv.URL+"/login")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 passed through, got %d", resp.StatusCode)
	}

	seen.mu.Lock()
	defer seen.mu.Unlock()
	if seen.auth != "" {
		t.Fatalf("expected no credential on unmarked request, got %q", seen.auth)
	}
	if seen.requestID == "" {
		t.Fatal("expected request id")
	}
	if _, ok := m.Session(); !ok {
		t.Fatal("unmarked 401 must not end the session")
	}
}

func TestTransportMarkedWithoutSession(t *testing.T) {
	m, _ := newTestManager(t)
	srv, _ := newBackend(t, http.StatusOK)
	client := NewClient(m, time.Second, slog.New(slog.DiscardHandler))

	_, err := doGet(t, client, WithAuth(context.Background()), srv.URL+"/personalquizzes")
	if !errors.Is(err, quizClient.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestTransportInjectsCredential(t *testing.T) {
	m, prompts := newTestManager(t)
	if err := m.EstablishSession(context.Background(), "abc", "42", "user"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	srv, seen := newBackend(t, http.StatusOK)
	client := NewClient(m, time.Second, slog.New(slog.DiscardHandler))

	resp, err := doGet(t, client, WithAuth(context.Background()), srv.URL+"/personalquizzes")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	seen.mu.Lock()
	auth := seen.auth
	seen.mu.Unlock()
	if auth != "abc" {
		t.Fatalf("expected raw credential, got %q", auth)
	}
	if prompts.count() != 0 {
		t.Fatal("expected no prompt")
	}
}

func TestTransportRejectionEndsSession(t *testing.T) {
	m, prompts := newTestManager(t)
	if err := m.EstablishSession(context.Background(), "abc", "42", "user"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	srv, _ := newBackend(t, http.StatusUnauthorized)
	client := NewClient(m, time.Second, slog.New(slog.DiscardHandler))

	resp, err := doGet(t, client, WithAuth(context.Background()), srv.URL+"/personalquizzes")
	if err != nil {
		t.Fatalf("expected response with nil error, got %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if _, ok := m.State().(quizClient.Anonymous); !ok {
		t.Fatalf("expected anonymous, got %s", m.State())
	}
	if prompts.count() != 1 {
		t.Fatalf("expected one prompt, got %d", prompts.count())
	}
}

func TestTransportLateRejectionKeepsNewerSession(t *testing.T) {
	m, prompts := newTestManager(t)
	if err := m.EstablishSession(context.Background(), "abc", "42", "user"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.EstablishSession(context.Background(), "def", "43", "user"); err != nil {
			t.Errorf("establish newer session: %v", err)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(m, time.Second, slog.New(slog.DiscardHandler))

	resp, err := doGet(t, client, WithAuth(context.Background()), srv.URL+"/personalquizzes")
	if err != nil {
		t.Fatalf("expected response with nil error, got %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	sess, ok := m.Session()
	if !ok || sess.UserID != "43" {
		t.Fatalf("expected newer session kept, got %s", m.State())
	}
	if prompts.count() != 0 {
		t.Fatalf("expected no prompt, got %d", prompts.count())
	}
	if got := m.MetricsSnapshot().Counters[quizClient.MetricStaleRejectionIgnored]; got != 1 {
		t.Fatalf("expected stale rejection metric 1, got %d", got)
	}
}

func TestTransportNetworkFailure(t *testing.T) {
	m, _ := newTestManager(t)
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(m, time.Second, slog.New(slog.DiscardHandler))
	_, err := doGet(t, client, context.Background(), url+"/users")
	if !errors.Is(err, quizClient.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestAuthRequested(t *testing.T) {
	if AuthRequested(context.Background()) {
		t.Fatal("expected unmarked context")
	}
	if !AuthRequested(WithAuth(context.Background())) {
		t.Fatal("expected marked context")
	}
}
