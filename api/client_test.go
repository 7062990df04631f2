package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/MrEthical07/quizClient/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promptRecorder struct {
	mu    sync.Mutex
	kinds []quizClient.PromptKind
}

func (p *promptRecorder) Prompt(_ context.Context, pr quizClient.Prompt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, pr.Kind)
}

func (p *promptRecorder) all() []quizClient.PromptKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]quizClient.PromptKind(nil), p.kinds...)
}

type fixture struct {
	manager *quizClient.Manager
	client  *Client
	prompts *promptRecorder
	hits    atomic.Int32
}

func newFixture(t *testing.T, routes map[string]http.HandlerFunc) *fixture {
	t.Helper()

	f := &fixture{prompts: &promptRecorder{}}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := quizClient.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.Avatar.Enabled = false
	m, err := quizClient.New().
		WithConfig(cfg).
		WithStore(session.NewMemoryStore()).
		WithPrompter(f.prompts).
		WithLogger(slog.New(slog.DiscardHandler)).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	client, err := NewClient(m, WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	f.manager = m
	f.client = client
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.manager.EstablishSession(context.Background(), "tok-1", "1", "USER"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, f.manager.Config().API.BaseURL, f.client.BaseURL())
	assert.Same(t, f.manager, f.client.Manager())

	_, err := NewClient(nil)
	assert.ErrorIs(t, err, quizClient.ErrManagerNotReady)

	_, err = NewClient(f.manager, WithBaseURL("not a url"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewClientKeepsCallerHTTPClient(t *testing.T) {
	f := newFixture(t, nil)
	custom := &http.Client{Timeout: time.Second}

	c, err := NewClient(f.manager, WithHTTPClient(custom), WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Nil(t, custom.Transport)
	assert.Equal(t, time.Second, custom.Timeout)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestLoginAuthenticated(t *testing.T) {
	seen := make(chan Credentials, 1)
	f := newFixture(t, map[string]http.HandlerFunc{
		"POST /login": func(w http.ResponseWriter, r *http.Request) {
			var got Credentials
			_ = json.NewDecoder(r.Body).Decode(&got)
			seen <- got
			w.Header().Set("Authorization", "Bearer abc")
			w.Header().Set("Host", "42")
			w.Header().Set("Allow", "ADMIN")
			w.WriteHeader(http.StatusOK)
		},
	})

	outcome, err := f.client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, LoginAuthenticated, outcome)
	assert.Equal(t, Credentials{Username: "alice", Password: "secret"}, <-seen)

	sess, ok := f.manager.Session()
	require.True(t, ok)
	assert.Equal(t, session.Session{Token: "Bearer abc", UserID: "42", Role: "ADMIN"}, sess)
}

func TestLoginVerificationRequired(t *testing.T) {
	f := newFixture(t, map[string]http.HandlerFunc{
		"POST /login": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Host", "77")
			w.WriteHeader(http.StatusAccepted)
		},
	})

	outcome, err := f.client.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, LoginVerificationRequired, outcome)

	pending, ok := f.manager.PendingVerification()
	require.True(t, ok)
	assert.Equal(t, "77", pending.PendingID)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"invalid credentials", http.StatusUnauthorized, ErrInvalidCredentials},
		{"server error", http.StatusInternalServerError, quizClient.ErrHTTPStatus},
		{"other", http.StatusTeapot, quizClient.ErrHTTPStatus},
		{"ok without credential", http.StatusOK, ErrMissingHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]http.HandlerFunc{
				"POST /login": func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				},
			})

			_, err := f.client.Login(context.Background(), "alice", "secret")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.IsType(t, quizClient.Anonymous{}, f.manager.State())
			assert.Empty(t, f.prompts.all())
		})
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.client.Login(context.Background(), "", "secret")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.client.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, f.hits.Load())
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		want        SignupOutcome
		wantErr     error
		wantPending bool
	}{
		{"verification", http.StatusOK, SignupVerificationRequired, nil, true},
		{"registered", http.StatusCreated, SignupRegistered, nil, false},
		{"email in use", http.StatusNotAcceptable, 0, ErrEmailInUse, false},
		{"username in use", http.StatusConflict, 0, ErrUsernameInUse, false},
		{"server error", http.StatusInternalServerError, 0, quizClient.ErrHTTPStatus, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]http.HandlerFunc{
				"POST /signup": func(w http.ResponseWriter, r *http.Request) {
					var req SignupRequest
					_ = json.NewDecoder(r.Body).Decode(&req)
					if req.Email != "a@example.com" {
						w.WriteHeader(http.StatusBadRequest)
						return
					}
					w.Header().Set("Host", "99")
					w.WriteHeader(tt.status)
				},
			})

			got, err := f.client.Signup(context.Background(), SignupRequest{
				Username: "alice",
				Email:    "a@example.com",
				Password: "secret",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)

			_, pending := f.manager.PendingVerification()
			assert.Equal(t, tt.wantPending, pending)
		})
	}
}

func TestVerify(t *testing.T) {
	var (
		mu      sync.Mutex
		gotBody string
		status  atomic.Int32
	)
	status.Store(http.StatusOK)
	f := newFixture(t, map[string]http.HandlerFunc{
		"PUT /verify/{id}": func(w http.ResponseWriter, r *http.Request) {
			if r.PathValue("id") != "77" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			gotBody = string(b)
			mu.Unlock()
			w.WriteHeader(int(status.Load()))
		},
	})
	ctx := context.Background()

	assert.ErrorIs(t, f.client.Verify(ctx, "123456"), ErrNoPendingVerification)
	assert.Zero(t, f.hits.Load())

	require.NoError(t, f.manager.BeginVerification(ctx, "77"))

	status.Store(http.StatusConflict)
	assert.ErrorIs(t, f.client.Verify(ctx, "000000"), ErrVerificationCode)
	_, pending := f.manager.PendingVerification()
	assert.True(t, pending)

	status.Store(http.StatusBadRequest)
	assert.ErrorIs(t, f.client.Verify(ctx, "000000"), ErrVerificationTarget)

	status.Store(http.StatusOK)
	require.NoError(t, f.client.Verify(ctx, " 123456 "))
	mu.Lock()
	assert.Equal(t, "123456", gotBody)
	mu.Unlock()
	assert.IsType(t, quizClient.Anonymous{}, f.manager.State())
}

func TestLogout(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	require.NoError(t, f.client.Logout(context.Background()))
	assert.IsType(t, quizClient.Anonymous{}, f.manager.State())
	assert.Zero(t, f.hits.Load())
}
