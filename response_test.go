package quizClient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/MrEthical07/quizClient/session"
)

func TestClassifyStatusBoundaries(t *testing.T) {
	tests := []struct {
		code int
		want ResponseClass
	}{
		{199, ResponseOtherError},
		{200, ResponseOK},
		{204, ResponseOK},
		{299, ResponseOK},
		{300, ResponseOtherError},
		{400, ResponseOtherError},
		{401, ResponseUnauthenticated},
		{403, ResponseOtherError},
		{404, ResponseOtherError},
		{500, ResponseUnauthenticated},
		{501, ResponseOtherError},
		{503, ResponseOtherError},
	}

	for _, tc := range tests {
		if got := ClassifyStatus(tc.code); got != tc.want {
			t.Fatalf("status %d: expected %s, got %s", tc.code, tc.want, got)
		}
		if got := ClassifyResponse(&http.Response{StatusCode: tc.code}); got != tc.want {
			t.Fatalf("response %d: expected %s, got %s", tc.code, tc.want, got)
		}
	}
	if got := ClassifyResponse(nil); got != ResponseOtherError {
		t.Fatalf("nil response: expected other_error, got %s", got)
	}
}

func TestManagerClassifyResponsePolicy(t *testing.T) {
	m, _ := newTestManager(t, "http://127.0.0.1:1", session.NewMemoryStore(), func(c *Config) {
		c.Response.ServerErrorPolicy = ServerErrorRetryable
	})

	if got := m.ClassifyResponse(&http.Response{StatusCode: 500}); got != ResponseServerError {
		t.Fatalf("expected server_error, got %s", got)
	}
	if got := m.ClassifyResponse(&http.Response{StatusCode: 401}); got != ResponseUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", got)
	}
}

func TestHandleResponseUnauthenticatedEndsSession(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusInternalServerError} {
		store := session.NewMemoryStore()
		m, prompts := newTestManager(t, "http://127.0.0.1:1", store, func(c *Config) {
			c.Avatar.Enabled = false
		})
		ctx := context.Background()
		if err := m.EstablishSession(ctx, "abc", "42", "user"); err != nil {
			t.Fatalf("establish: %v", err)
		}

		class, err := m.HandleResponse(ctx, &http.Response{StatusCode: code})
		if class != ResponseUnauthenticated {
			t.Fatalf("%d: expected unauthenticated, got %s", code, class)
		}
		if !errors.Is(err, ErrAuthRejected) || StatusCode(err) != code {
			t.Fatalf("%d: expected ErrAuthRejected with status, got %v", code, err)
		}
		if _, ok := m.State().(Anonymous); !ok {
			t.Fatalf("%d: expected anonymous, got %s", code, m.State())
		}
		if store.Len() != 0 {
			t.Fatalf("%d: expected keys removed", code)
		}
		if kinds := prompts.kinds(); len(kinds) != 1 || kinds[0] != PromptRelogin {
			t.Fatalf("%d: expected relogin prompt, got %v", code, kinds)
		}
	}
}

func TestHandleResponseMatchesSentCredential(t *testing.T) {
	tests := []struct {
		name        string
		sent        string
		wantSession bool
	}{
		{"current credential", "abc", false},
		{"replaced credential", "old", true},
		{"no credential header", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, prompts := newTestManager(t, "http://127.0.0.1:1", session.NewMemoryStore(), func(c *Config) {
				c.Avatar.Enabled = false
			})
			ctx := context.Background()
			if err := m.EstablishSession(ctx, "abc", "42", "user"); err != nil {
				t.Fatalf("establish: %v", err)
			}

			req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/personalquizzes", nil)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			if tt.sent != "" {
				req.Header.Set("Authorization", tt.sent)
			}
			_, err = m.HandleResponse(ctx, &http.Response{StatusCode: http.StatusUnauthorized, Request: req})
			if !errors.Is(err, ErrAuthRejected) {
				t.Fatalf("expected ErrAuthRejected, got %v", err)
			}

			_, ok := m.Session()
			if ok != tt.wantSession {
				t.Fatalf("expected session kept=%v, got state %s", tt.wantSession, m.State())
			}
			wantPrompts := 1
			if tt.wantSession {
				wantPrompts = 0
			}
			if got := len(prompts.kinds()); got != wantPrompts {
				t.Fatalf("expected %d prompts, got %d", wantPrompts, got)
			}
		})
	}
}

func TestHandleResponseLeavesSessionForOtherErrors(t *testing.T) {
	m, prompts := newTestManager(t, "http://127.0.0.1:1", session.NewMemoryStore(), func(c *Config) {
		c.Avatar.Enabled = false
		c.Response.ServerErrorPolicy = ServerErrorRetryable
	})
	ctx := context.Background()
	if err := m.EstablishSession(ctx, "abc", "42", "user"); err != nil {
		t.Fatalf("establish: %v", err)
	}

	tests := []struct {
		code  int
		class ResponseClass
		err   error
	}{
		{http.StatusOK, ResponseOK, nil},
		{http.StatusNotFound, ResponseOtherError, ErrHTTPStatus},
		{http.StatusConflict, ResponseOtherError, ErrHTTPStatus},
		{http.StatusInternalServerError, ResponseServerError, ErrServerError},
	}
	for _, tc := range tests {
		class, err := m.HandleResponse(ctx, &http.Response{StatusCode: tc.code})
		if class != tc.class {
			t.Fatalf("%d: expected %s, got %s", tc.code, tc.class, class)
		}
		if tc.err == nil && err != nil {
			t.Fatalf("%d: expected nil error, got %v", tc.code, err)
		}
		if tc.err != nil && !errors.Is(err, tc.err) {
			t.Fatalf("%d: expected %v, got %v", tc.code, tc.err, err)
		}
	}

	if _, ok := m.Session(); !ok {
		t.Fatal("expected session kept")
	}
	if len(prompts.kinds()) != 0 {
		t.Fatalf("expected no prompts, got %v", prompts.kinds())
	}
}

func TestHandleResponseNil(t *testing.T) {
	m, _ := newTestManager(t, "http://127.0.0.1:1", session.NewMemoryStore(), nil)
	if _, err := m.HandleResponse(context.Background(), nil); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}

	var nilManager *Manager
	if _, err := nilManager.HandleResponse(context.Background(), &http.Response{StatusCode: 200}); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeJSONBodySuccess(t *testing.T) {
	m, prompts := newTestManager(t, "http://127.0.0.1:1", session.NewMemoryStore(), nil)

	type quiz struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	var got []quiz
	err := DecodeJSONBody(context.Background(), m, jsonResponse(`[{"id":1,"title":"Go"}]`), func(v []quiz) {
		got = v
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Go" {
		t.Fatalf("unexpected decode result %+v", got)
	}
	if len(prompts.kinds()) != 0 {
		t.Fatal("expected no prompt")
	}
}

func TestDecodeJSONBodyMalformed(t *testing.T) {
	m, prompts := newTestManager(t, "http://127.0.0.1:1", session.NewMemoryStore(), nil)

	for _, body := range []string{"", "{not json", "<html>oops</html>"} {
		called := false
		err := DecodeJSONBody(context.Background(), m, jsonResponse(body), func(map[string]any) {
			called = true
		})
		if !errors.Is(err, ErrMalformedBody) {
			t.Fatalf("%q: expected ErrMalformedBody, got %v", body, err)
		}
		if called {
			t.Fatalf("%q: handler must not run on malformed body", body)
		}
	}

	kinds := prompts.kinds()
	if len(kinds) != 3 || kinds[0] != PromptRetryLater {
		t.Fatalf("expected 3 retry-later prompts, got %v", kinds)
	}
	if got := m.MetricsSnapshot().Counters[MetricMalformedBody]; got != 3 {
		t.Fatalf("expected malformed metric 3, got %d", got)
	}
}

func TestDecodeJSONBodyWithoutManager(t *testing.T) {
	err := DecodeJSONBody(context.Background(), nil, jsonResponse("nope"), func(int) {})
	if !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody, got %v", err)
	}
	if err := DecodeJSONBody(context.Background(), nil, nil, func(int) {}); !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody for nil response, got %v", err)
	}
}
