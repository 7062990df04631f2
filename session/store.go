package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrStoreUnavailable is returned when a backend cannot be reached or fails an operation.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrEmptyValue is returned by writes with an empty value. Absence is expressed by Delete.
var ErrEmptyValue = errors.New("session store value must not be empty")

// Store is the device-local key-value store holding the persisted session keys.
//
// Get reports ok=false for a missing key. Delete of a missing key is not an error.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// ReadRecord reads the persisted keys. The pending id is only read when the auth keys do
// not form a complete session.
func ReadRecord(ctx context.Context, s Store) (Record, error) {
	var rec Record
	var err error

	if rec.Token, err = get(ctx, s, KeyToken); err != nil {
		return Record{}, err
	}
	if rec.UserID, err = get(ctx, s, KeyUserID); err != nil {
		return Record{}, err
	}
	if rec.Role, err = get(ctx, s, KeyRole); err != nil {
		return Record{}, err
	}
	if _, ok := rec.Session(); ok {
		return rec, nil
	}

	if rec.PendingID, err = get(ctx, s, KeyPendingID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// WriteSession persists sess and removes any pending verification id.
func WriteSession(ctx context.Context, s Store, sess Session) error {
	if !sess.Complete() {
		return ErrEmptyValue
	}
	if err := s.Set(ctx, KeyToken, sess.Token); err != nil {
		return fmt.Errorf("write %s: %w", KeyToken, err)
	}
	if err := s.Set(ctx, KeyUserID, sess.UserID); err != nil {
		return fmt.Errorf("write %s: %w", KeyUserID, err)
	}
	if err := s.Set(ctx, KeyRole, sess.Role); err != nil {
		return fmt.Errorf("write %s: %w", KeyRole, err)
	}
	if err := s.Delete(ctx, KeyPendingID); err != nil {
		return fmt.Errorf("delete %s: %w", KeyPendingID, err)
	}
	return nil
}

// WritePending persists a pending verification id.
func WritePending(ctx context.Context, s Store, pendingID string) error {
	if pendingID == "" {
		return ErrEmptyValue
	}
	if err := s.Set(ctx, KeyPendingID, pendingID); err != nil {
		return fmt.Errorf("write %s: %w", KeyPendingID, err)
	}
	return nil
}

// ClearPending removes the pending verification id.
func ClearPending(ctx context.Context, s Store) error {
	if err := s.Delete(ctx, KeyPendingID); err != nil {
		return fmt.Errorf("delete %s: %w", KeyPendingID, err)
	}
	return nil
}

// ClearAuth removes the session keys but leaves a pending id in place.
func ClearAuth(ctx context.Context, s Store) error {
	if err := s.Delete(ctx, AuthKeys...); err != nil {
		return fmt.Errorf("delete auth keys: %w", err)
	}
	return nil
}

// Clear removes every key the session layer owns.
func Clear(ctx context.Context, s Store) error {
	if err := s.Delete(ctx, AllKeys...); err != nil {
		return fmt.Errorf("delete session keys: %w", err)
	}
	return nil
}

func get(ctx context.Context, s Store, key string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}
