package quizClient

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/quizClient/jwt"
	"github.com/MrEthical07/quizClient/session"
)

func (m *Manager) emitEvent(
	ctx context.Context,
	eventType EventType,
	success bool,
	userID string,
	generation string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.events == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := Event{
		Timestamp:  time.Now().UTC(),
		Type:       eventType,
		UserID:     userID,
		Generation: generation,
		Success:    success,
		Metadata:   metadata,
	}
	if code := eventErrorCode(err); code != "" {
		event.Error = code
	}

	m.events.Emit(ctx, event)
}

func eventErrorCode(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrAuthRejected):
		return "auth_rejected"
	case errors.Is(err, ErrStorageRead):
		return "storage_read"
	case errors.Is(err, ErrStorageWrite):
		return "storage_write"
	case errors.Is(err, session.ErrStoreUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrServerError):
		return "server_error"
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrMalformedBody):
		return "malformed_body"
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large"
	case errors.Is(err, jwt.ErrNotJWT):
		return "opaque_token"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal_error"
	}
}
