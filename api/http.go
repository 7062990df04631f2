package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/MrEthical07/quizClient/middleware"
)

const (
	headerAuthorization = "Authorization"
	headerHost          = "Host"
	headerAllow         = "Allow"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	contentTypeJSON     = "application/json"
)

// rawBody is sent verbatim instead of being JSON encoded.
type rawBody string

// do sends one request. When auth is set the request carries the session credential and
// its response is applied to the session by the transport.
func (c *Client) do(ctx context.Context, method string, auth bool, body any, elem ...string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	escaped := make([]string, len(elem))
	for i, e := range elem {
		escaped[i] = url.PathEscape(e)
	}
	reqURL, err := url.JoinPath(c.baseURL, escaped...)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case rawBody:
		bodyReader = strings.NewReader(string(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	if auth {
		ctx = middleware.WithAuth(ctx)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerUserAgent, c.userAgent)
	if body != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	return resp, nil
}

// checkStatus converts a non-success response into a *quizClient.StatusError
// carrying the class the manager assigned. For authenticated calls a rejection
// has already ended the session; on anonymous calls the same class is reported
// with ErrHTTPStatus because there is no session to reject.
func (c *Client) checkStatus(resp *http.Response, auth bool) error {
	class := c.manager.ClassifyResponse(resp)
	err := quizClient.ErrHTTPStatus
	switch class {
	case quizClient.ResponseOK:
		return nil
	case quizClient.ResponseUnauthenticated:
		if auth {
			err = quizClient.ErrAuthRejected
		}
	case quizClient.ResponseServerError:
		err = quizClient.ErrServerError
	}
	return &quizClient.StatusError{StatusCode: resp.StatusCode, Class: class, Err: err}
}

// exec sends a request whose response body is not needed and returns the response headers.
func (c *Client) exec(ctx context.Context, method string, auth bool, body any, elem ...string) (http.Header, error) {
	resp, err := c.do(ctx, method, auth, body, elem...)
	if err != nil {
		return nil, err
	}
	defer drainClose(resp.Body)

	if err := c.checkStatus(resp, auth); err != nil {
		return nil, err
	}
	return resp.Header, nil
}

func getJSON[T any](ctx context.Context, c *Client, auth bool, elem ...string) (T, error) {
	var zero T
	resp, err := c.do(ctx, http.MethodGet, auth, nil, elem...)
	if err != nil {
		return zero, err
	}
	defer drainClose(resp.Body)

	if err := c.checkStatus(resp, auth); err != nil {
		return zero, err
	}
	return decode[T](ctx, c, resp, auth)
}

// decode reads the body of resp into a T. An authenticated read without data asks the user
// to log in again.
func decode[T any](ctx context.Context, c *Client, resp *http.Response, auth bool) (T, error) {
	var out T
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return out, fmt.Errorf("%w: %v", quizClient.ErrNetwork, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if auth {
			c.manager.Notify(ctx, quizClient.PromptRelogin)
			return out, ErrEmptyResponse
		}
		return out, nil
	}

	buffered := *resp
	buffered.Body = io.NopCloser(bytes.NewReader(data))
	err = quizClient.DecodeJSONBody(ctx, c.manager, &buffered, func(v T) {
		out = v
	})
	return out, err
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

func requireSession(m *quizClient.Manager) (string, error) {
	sess, ok := m.Session()
	if !ok {
		return "", quizClient.ErrNotAuthenticated
	}
	return sess.UserID, nil
}
