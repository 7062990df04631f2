package quizClient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ResponseClass is the interpretation of an HTTP status.
type ResponseClass int

const (
	// ResponseOK is any 2xx status.
	ResponseOK ResponseClass = iota
	// ResponseUnauthenticated means the backend rejected the credential. The session must end.
	ResponseUnauthenticated
	// ResponseServerError is a 500 under [ServerErrorRetryable].
	ResponseServerError
	// ResponseOtherError is any other status, left to the caller.
	ResponseOtherError
)

func (c ResponseClass) String() string {
	switch c {
	case ResponseOK:
		return "ok"
	case ResponseUnauthenticated:
		return "unauthenticated"
	case ResponseServerError:
		return "server_error"
	case ResponseOtherError:
		return "other_error"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps a status code under the default [ServerErrorReauthenticate] policy:
// 200-299 is OK, 401 and 500 are UNAUTHENTICATED, everything else is OTHER_ERROR.
func ClassifyStatus(code int) ResponseClass {
	return classifyStatus(code, ServerErrorReauthenticate)
}

// ClassifyResponse applies [ClassifyStatus] to resp. A nil response is OTHER_ERROR.
func ClassifyResponse(resp *http.Response) ResponseClass {
	if resp == nil {
		return ResponseOtherError
	}
	return ClassifyStatus(resp.StatusCode)
}

func classifyStatus(code int, policy ServerErrorPolicy) ResponseClass {
	switch {
	case code >= 200 && code <= 299:
		return ResponseOK
	case code == http.StatusUnauthorized:
		return ResponseUnauthenticated
	case code == http.StatusInternalServerError:
		if policy == ServerErrorRetryable {
			return ResponseServerError
		}
		return ResponseUnauthenticated
	default:
		return ResponseOtherError
	}
}

// ClassifyResponse maps resp under the configured [ServerErrorPolicy]. It has no side
// effects; use [Manager.HandleResponse] to apply the session policy.
func (m *Manager) ClassifyResponse(resp *http.Response) ResponseClass {
	if resp == nil {
		return ResponseOtherError
	}
	if m == nil {
		return ClassifyStatus(resp.StatusCode)
	}
	return classifyStatus(resp.StatusCode, m.config.Response.ServerErrorPolicy)
}

// HandleResponse describes the handleresponse operation and its observable behavior.
//
// HandleResponse classifies resp and applies the session policy. An UNAUTHENTICATED
// response ends the session and prompts the user to log in again before a
// [*StatusError] wrapping [ErrAuthRejected] is returned. SERVER_ERROR and OTHER_ERROR
// return a [*StatusError] wrapping [ErrServerError] or [ErrHTTPStatus] and leave the
// session alone. When resp.Request carried an Authorization header that no longer matches
// the current session, the rejection is reported but the newer session is kept. The body
// is never read or closed.
func (m *Manager) HandleResponse(ctx context.Context, resp *http.Response) (ResponseClass, error) {
	if m == nil {
		return ResponseOtherError, ErrManagerNotReady
	}
	if resp == nil {
		return ResponseOtherError, fmt.Errorf("%w: nil response", ErrNetwork)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	class := m.ClassifyResponse(resp)
	m.countResponse(class)

	switch class {
	case ResponseOK:
		return class, nil
	case ResponseUnauthenticated:
		m.rejectSession(ctx, resp.StatusCode, nil, sentCredential(resp))
		return class, &StatusError{StatusCode: resp.StatusCode, Class: class, Err: ErrAuthRejected}
	case ResponseServerError:
		return class, &StatusError{StatusCode: resp.StatusCode, Class: class, Err: ErrServerError}
	default:
		return class, &StatusError{StatusCode: resp.StatusCode, Class: class, Err: ErrHTTPStatus}
	}
}

func sentCredential(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	return resp.Request.Header.Get("Authorization")
}

// DecodeJSONBody decodes the body of resp into a T and passes it to onSuccess.
//
// On a decode failure onSuccess is not called, the retry-later prompt is shown through m
// (when m is non-nil) and an error wrapping [ErrMalformedBody] is returned. The body is
// not closed.
func DecodeJSONBody[T any](ctx context.Context, m *Manager, resp *http.Response, onSuccess func(T)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if resp == nil || resp.Body == nil {
		m.malformedBody(ctx, nil)
		return fmt.Errorf("%w: empty response", ErrMalformedBody)
	}

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		m.malformedBody(ctx, err)
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if onSuccess != nil {
		onSuccess(v)
	}
	return nil
}

func (m *Manager) malformedBody(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.metricInc(MetricMalformedBody)
	m.logger.WarnContext(ctx, "response body could not be decoded", "error", err)
	m.prompt(ctx, PromptRetryLater, m.config.Response.RetryLaterMessage)
}

func (m *Manager) countResponse(class ResponseClass) {
	switch class {
	case ResponseOK:
		m.metricInc(MetricResponseOK)
	case ResponseUnauthenticated:
		m.metricInc(MetricResponseUnauthenticated)
	case ResponseServerError:
		m.metricInc(MetricResponseServerError)
	default:
		m.metricInc(MetricResponseOtherError)
	}
}
