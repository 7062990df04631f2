package quizClient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/quizClient/jwt"
	"github.com/MrEthical07/quizClient/session"
)

// Manager owns the session lifecycle of one running application. Construct it once with
// [Builder.Build] and pass it to consumers with [WithManager].
//
// Transitions (LoadSession, EstablishSession, BeginVerification, CompleteVerification,
// EndSession) are serialised, so the storage writes of one transition always precede its
// re-read. Reads of the state never block on I/O.
type Manager struct {
	config     Config
	store      session.Store
	closeStore func() error
	httpClient *http.Client
	logger     *slog.Logger
	prompter   Prompter
	events     *eventDispatcher
	metrics    *Metrics
	inspector  *jwt.Inspector
	now        func() time.Time

	opMu sync.Mutex

	mu     sync.RWMutex
	state  State
	avatar *avatarTask

	processStarted atomic.Bool

	baseCtx    context.Context
	cancelBase context.CancelFunc
	tasks      sync.WaitGroup
	closed     atomic.Bool
	closeOnce  sync.Once
}

func (m *Manager) ready() error {
	if m == nil {
		return ErrManagerNotReady
	}
	if m.closed.Load() {
		return ErrManagerClosed
	}
	return nil
}

// LoadSession describes the loadsession operation and its observable behavior.
//
// LoadSession reads the persisted keys and derives the state from them. A complete session
// yields [Authenticated] and starts an avatar fetch for a new identity. Anything else yields
// [Pending] when a pending verification id is stored and [Anonymous] otherwise. When the
// keys cannot be read the state collapses to Anonymous and an error wrapping
// [ErrStorageRead] is returned.
func (m *Manager) LoadSession(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.loadLocked(ctx); err != nil {
		return err
	}
	if sess, ok := m.Session(); ok {
		m.emitEvent(ctx, EventSessionLoaded, true, sess.UserID, m.currentGeneration(), nil, nil)
	}
	return nil
}

func (m *Manager) loadLocked(ctx context.Context) error {
	rec, err := session.ReadRecord(ctx, m.store)
	if err != nil {
		m.metricInc(MetricStorageReadFailure)
		m.logger.ErrorContext(ctx, "session keys could not be read", "error", err)
		m.setState(Anonymous{})
		m.emitEvent(ctx, EventStorageFailure, false, "", "", err, nil)
		return fmt.Errorf("%w: %v", ErrStorageRead, err)
	}

	if sess, ok := rec.Session(); ok {
		if !m.config.Session.DropExpiredTokens || !m.tokenExpired(sess.Token) {
			m.metricInc(MetricSessionLoaded)
			m.setAuthenticated(ctx, sess)
			return nil
		}

		m.metricInc(MetricExpiredTokenDropped)
		m.logger.InfoContext(ctx, "dropping expired credential", "user_id", sess.UserID)
		if err := session.ClearAuth(ctx, m.store); err != nil {
			m.metricInc(MetricStorageWriteFailure)
			m.logger.WarnContext(ctx, "expired credential could not be removed", "error", err)
		}

		pendingID, err := m.readPending(ctx)
		if err != nil {
			m.metricInc(MetricStorageReadFailure)
			m.setState(Anonymous{})
			return fmt.Errorf("%w: %v", ErrStorageRead, err)
		}
		rec = session.Record{PendingID: pendingID}
	}

	m.metricInc(MetricSessionAbsent)
	if pending, ok := rec.Pending(); ok {
		m.setState(Pending{Verification: pending})
	} else {
		m.setState(Anonymous{})
	}
	return nil
}

func (m *Manager) readPending(ctx context.Context) (string, error) {
	v, ok, err := m.store.Get(ctx, session.KeyPendingID)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

func (m *Manager) tokenExpired(token string) bool {
	claims, err := m.inspector.Inspect(token)
	if err != nil {
		return false
	}
	return claims.Expired(m.now(), m.inspector.Leeway())
}

// EstablishSession describes the establishsession operation and its observable behavior.
//
// EstablishSession persists the three session fields, removes any pending verification id
// and reloads. Afterwards the state is Authenticated with no pending verification.
// EstablishSession returns [ErrInvalidSession] when any field is empty and an error
// wrapping [ErrStorageWrite] when the keys cannot be persisted.
func (m *Manager) EstablishSession(ctx context.Context, token, userID, role string) error {
	if err := m.ready(); err != nil {
		return err
	}
	sess := session.Session{Token: token, UserID: userID, Role: role}
	if !sess.Complete() {
		return ErrInvalidSession
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := session.WriteSession(ctx, m.store, sess); err != nil {
		m.metricInc(MetricStorageWriteFailure)
		m.emitEvent(ctx, EventSessionEstablished, false, userID, "", err, nil)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := m.loadLocked(ctx); err != nil {
		return err
	}

	m.metricInc(MetricSessionEstablished)
	m.logger.InfoContext(ctx, "session established", "user_id", userID, "role", role)
	m.emitEvent(ctx, EventSessionEstablished, true, userID, m.currentGeneration(), nil, func() map[string]string {
		return map[string]string{"role": role}
	})
	return nil
}

// BeginVerification describes the beginverification operation and its observable behavior.
//
// BeginVerification persists pendingID and reloads. With no stored session the state
// becomes Pending. A stored session is left as it is.
func (m *Manager) BeginVerification(ctx context.Context, pendingID string) error {
	if err := m.ready(); err != nil {
		return err
	}
	if pendingID == "" {
		return ErrInvalidPendingID
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := session.WritePending(ctx, m.store, pendingID); err != nil {
		m.metricInc(MetricStorageWriteFailure)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := m.loadLocked(ctx); err != nil {
		return err
	}

	m.metricInc(MetricVerificationBegun)
	m.emitEvent(ctx, EventVerificationBegun, true, "", "", nil, func() map[string]string {
		return map[string]string{"pending_id": pendingID}
	})
	return nil
}

// CompleteVerification removes the pending verification id and reloads.
func (m *Manager) CompleteVerification(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := session.ClearPending(ctx, m.store); err != nil {
		m.metricInc(MetricStorageWriteFailure)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := m.loadLocked(ctx); err != nil {
		return err
	}

	m.metricInc(MetricVerificationCompleted)
	m.emitEvent(ctx, EventVerificationComplete, true, "", "", nil, nil)
	return nil
}

// EndSession describes the endsession operation and its observable behavior.
//
// EndSession removes every persisted key, cancels any avatar fetch and reloads. The
// session and avatar are absent afterwards even when the keys could not be removed, in
// which case an error wrapping [ErrStorageWrite] is returned. Calling it again is
// harmless.
func (m *Manager) EndSession(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	return m.endSessionLocked(ctx)
}

func (m *Manager) endSessionLocked(ctx context.Context) error {
	userID := ""
	if sess, ok := m.Session(); ok {
		userID = sess.UserID
	}

	clearErr := session.Clear(ctx, m.store)

	m.mu.Lock()
	m.cancelAvatarLocked()
	if auth, ok := m.state.(Authenticated); ok {
		auth.Avatar = NoAvatar{}
		m.state = auth
	}
	m.mu.Unlock()

	m.metricInc(MetricSessionEnded)
	if clearErr != nil {
		m.metricInc(MetricStorageWriteFailure)
		m.logger.ErrorContext(ctx, "session keys could not be removed", "error", clearErr)
		m.setState(Anonymous{})
		m.emitEvent(ctx, EventSessionEnded, false, userID, "", clearErr, nil)
		return fmt.Errorf("%w: %v", ErrStorageWrite, clearErr)
	}

	err := m.loadLocked(ctx)
	m.emitEvent(ctx, EventSessionEnded, err == nil, userID, "", err, nil)
	return err
}

// rejectSession ends the session after the backend refused the credential and asks the
// user to log in again. When task is non-nil nothing happens unless task is still the
// current avatar task.
// rejectSession ends the current session after the backend refused a credential.
// A rejection that belongs to an earlier session is ignored: task must still be the
// current avatar fetch, and a non-empty sentToken must match the current credential.
func (m *Manager) rejectSession(ctx context.Context, status int, task *avatarTask, sentToken string) {
	ctx = context.WithoutCancel(ctx)

	m.opMu.Lock()
	if m.closed.Load() || (task != nil && !m.isCurrentTask(task)) {
		m.opMu.Unlock()
		return
	}
	userID := ""
	sess, ok := m.Session()
	if ok {
		userID = sess.UserID
	}
	if sentToken != "" && (!ok || sess.Token != sentToken) {
		m.opMu.Unlock()
		m.metricInc(MetricStaleRejectionIgnored)
		m.logger.DebugContext(ctx, "ignoring rejection of a superseded credential", "status", status)
		return
	}
	err := m.endSessionLocked(ctx)
	m.opMu.Unlock()

	if err != nil {
		m.logger.ErrorContext(ctx, "session could not be ended after rejection", "error", err)
	}
	m.logger.WarnContext(ctx, "credential rejected by backend", "status", status, "user_id", userID)
	m.emitEvent(ctx, EventAuthRejected, false, userID, "", ErrAuthRejected, func() map[string]string {
		return map[string]string{"status": fmt.Sprint(status)}
	})
	m.prompt(ctx, PromptRelogin, m.config.Response.ReloginMessage)
}

// Notify shows the configured message for kind without changing the session. It is used
// when a response is well formed but unusable, such as an empty body on an authenticated
// read.
func (m *Manager) Notify(ctx context.Context, kind PromptKind) {
	if m == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	message := m.config.Response.RetryLaterMessage
	if kind == PromptRelogin {
		message = m.config.Response.ReloginMessage
	}
	m.prompt(ctx, kind, message)
}

func (m *Manager) prompt(ctx context.Context, kind PromptKind, message string) {
	switch kind {
	case PromptRelogin:
		m.metricInc(MetricPromptRelogin)
	case PromptRetryLater:
		m.metricInc(MetricPromptRetryLater)
	}
	m.emitEvent(ctx, EventPrompt, true, "", "", nil, func() map[string]string {
		return map[string]string{"kind": kind.String()}
	})
	m.prompter.Prompt(ctx, Prompt{Kind: kind, Message: message})
}

/*
====================================
STATE ACCESS
====================================
*/

// State returns the current state.
func (m *Manager) State() State {
	if m == nil {
		return Anonymous{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session returns the current session, if authenticated.
func (m *Manager) Session() (session.Session, bool) {
	auth, ok := m.State().(Authenticated)
	if !ok {
		return session.Session{}, false
	}
	return auth.Session, true
}

// PendingVerification returns the pending verification, if any.
func (m *Manager) PendingVerification() (session.PendingVerification, bool) {
	p, ok := m.State().(Pending)
	if !ok {
		return session.PendingVerification{}, false
	}
	return p.Verification, true
}

// Avatar returns the avatar sub-state. It is [NoAvatar] whenever there is no session.
func (m *Manager) Avatar() AvatarState {
	auth, ok := m.State().(Authenticated)
	if !ok {
		return NoAvatar{}
	}
	return auth.Avatar
}

// TokenClaims reads the claims of the current credential. Opaque credentials return an
// error wrapping jwt.ErrNotJWT.
func (m *Manager) TokenClaims() (*jwt.Claims, error) {
	sess, ok := m.Session()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return m.inspector.Inspect(sess.Token)
}

// ProcessStarted reports whether a timed activity (a quiz attempt) is in progress.
func (m *Manager) ProcessStarted() bool {
	return m != nil && m.processStarted.Load()
}

// SetProcessStarted sets the in-progress flag. It is not persisted.
func (m *Manager) SetProcessStarted(started bool) {
	if m == nil {
		return
	}
	m.processStarted.Store(started)
}

// Config returns a copy of the active configuration.
func (m *Manager) Config() Config {
	if m == nil {
		return defaultConfig()
	}
	return cloneConfig(m.config)
}

// MetricsSnapshot returns a copy of the in-process counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// EventsDropped returns the number of events discarded because the buffer was full.
func (m *Manager) EventsDropped() uint64 {
	if m == nil || m.events == nil {
		return 0
	}
	return m.events.Dropped()
}

// Close describes the close operation and its observable behavior.
//
// Close cancels any avatar fetch, waits for background work, flushes pending events and
// closes a store opened by the Builder. Later transitions return [ErrManagerClosed].
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var err error
	m.closeOnce.Do(func() {
		m.closed.Store(true)

		m.opMu.Lock()
		m.mu.Lock()
		m.cancelAvatarLocked()
		m.mu.Unlock()
		m.cancelBase()
		m.opMu.Unlock()

		m.tasks.Wait()
		m.events.Close()
		if m.closeStore != nil {
			err = m.closeStore()
		}
	})
	return err
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := s.(Authenticated); !ok {
		m.cancelAvatarLocked()
	}
	m.state = s
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}
