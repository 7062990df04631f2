package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/google/uuid"
)

type authContextKey struct{}

// WithAuth marks requests built from ctx as authenticated calls.
func WithAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, authContextKey{}, true)
}

// AuthRequested reports whether ctx was marked with [WithAuth].
func AuthRequested(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(authContextKey{}).(bool)
	return v
}

// Transport injects the session credential into marked requests and applies the
// session policy to their responses.
type Transport struct {
	manager *quizClient.Manager
	base    http.RoundTripper
	logger  *slog.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil). A nil logger uses
// slog.Default().
func NewTransport(m *quizClient.Manager, base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{manager: m, base: base, logger: logger}
}

// NewClient returns an http.Client using a [Transport] over http.DefaultTransport.
func NewClient(m *quizClient.Manager, timeout time.Duration, logger *slog.Logger) *http.Client {
	return &http.Client{
		Transport: NewTransport(m, nil, logger),
		Timeout:   timeout,
	}
}

// RoundTrip implements http.RoundTripper.
//
// A marked request without a session fails with quizClient.ErrNotAuthenticated before
// anything is sent. Transport failures wrap quizClient.ErrNetwork. Every HTTP response is
// returned unchanged with a nil error, after HandleResponse has run for marked requests.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	authenticated := AuthRequested(ctx)

	if authenticated {
		sess, ok := t.manager.Session()
		if !ok {
			return nil, quizClient.ErrNotAuthenticated
		}
		req = req.Clone(ctx)
		req.Header.Set("Authorization", sess.Token)
	}
	if req.Header.Get("X-Request-Id") == "" {
		if !authenticated {
			req = req.Clone(ctx)
		}
		req.Header.Set("X-Request-Id", uuid.NewString())
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		t.logger.LogAttrs(ctx, slog.LevelWarn, "request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", quizClient.ErrNetwork, err)
	}

	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.String("request_id", req.Header.Get("X-Request-Id")),
	}
	switch {
	case resp.StatusCode >= 500:
		t.logger.LogAttrs(ctx, slog.LevelError, "request", attrs...)
	case resp.StatusCode >= 400:
		t.logger.LogAttrs(ctx, slog.LevelWarn, "request", attrs...)
	default:
		t.logger.LogAttrs(ctx, slog.LevelDebug, "request", attrs...)
	}

	if authenticated {
		if resp.Request == nil {
			resp.Request = req
		}
		_, _ = t.manager.HandleResponse(ctx, resp)
	}
	return resp, nil
}
