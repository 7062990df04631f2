package quizClient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/quizClient/session"
	"github.com/google/uuid"
)

// avatarTask is one in-flight avatar fetch. Its result only applies while it is the
// manager's current task.
type avatarTask struct {
	generation uuid.UUID
	cancel     context.CancelFunc
	done       chan struct{}
}

// setAuthenticated moves to Authenticated for sess. A new identity supersedes the previous
// avatar task and starts a fresh one. The same identity keeps a fetching or ready avatar
// and only retries from NoAvatar.
func (m *Manager) setAuthenticated(ctx context.Context, sess session.Session) {
	m.mu.Lock()
	if prev, ok := m.state.(Authenticated); ok && sameIdentity(prev.Session, sess) {
		switch prev.Avatar.(type) {
		case AvatarFetching, AvatarReady:
			m.mu.Unlock()
			return
		}
	}

	m.cancelAvatarLocked()
	if !m.config.Avatar.Enabled {
		m.state = Authenticated{Session: sess, Avatar: NoAvatar{}}
		m.mu.Unlock()
		return
	}

	taskCtx, cancel := context.WithCancel(m.baseCtx)
	task := &avatarTask{
		generation: uuid.New(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	m.avatar = task
	m.state = Authenticated{Session: sess, Avatar: AvatarFetching{Generation: task.generation}}
	m.tasks.Add(1)
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "avatar fetch started", "user_id", sess.UserID, "generation", task.generation)
	go m.runAvatarTask(taskCtx, task, sess)
}

// cancelAvatarLocked must be called with mu held.
func (m *Manager) cancelAvatarLocked() {
	if m.avatar == nil {
		return
	}
	m.avatar.cancel()
	m.avatar = nil
}

func (m *Manager) isCurrentTask(task *avatarTask) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.avatar == task
}

func (m *Manager) currentGeneration() string {
	if f, ok := m.Avatar().(AvatarFetching); ok {
		return f.Generation.String()
	}
	return ""
}

func (m *Manager) runAvatarTask(ctx context.Context, task *avatarTask, sess session.Session) {
	defer m.tasks.Done()
	defer close(task.done)
	defer task.cancel()

	m.metricInc(MetricAvatarFetchStarted)
	start := time.Now()
	avatarURL, err := m.fetchAvatar(ctx, task.generation, sess)
	if m.metrics.LatencyEnabled() {
		m.metrics.Observe(MetricAvatarFetchLatency, time.Since(start))
	}

	if ctx.Err() != nil {
		m.metricInc(MetricAvatarFetchCanceled)
		m.logger.Debug("avatar fetch superseded", "generation", task.generation)
		return
	}

	gen := task.generation.String()
	switch {
	case errors.Is(err, ErrAuthRejected):
		m.metricInc(MetricAvatarFetchFailure)
		m.rejectSession(ctx, StatusCode(err), task, "")
	case err != nil:
		m.metricInc(MetricAvatarFetchFailure)
		m.logger.Warn("avatar fetch failed", "user_id", sess.UserID, "error", err)
		m.applyAvatar(task, NoAvatar{})
		m.emitEvent(ctx, EventAvatarFetched, false, sess.UserID, gen, err, nil)
	case avatarURL == "":
		m.metricInc(MetricAvatarFetchEmpty)
		m.applyAvatar(task, NoAvatar{})
		m.emitEvent(ctx, EventAvatarFetched, true, sess.UserID, gen, nil, nil)
	default:
		m.metricInc(MetricAvatarFetchSuccess)
		m.applyAvatar(task, AvatarReady{URL: avatarURL})
		m.emitEvent(ctx, EventAvatarFetched, true, sess.UserID, gen, nil, nil)
	}
}

// fetchAvatar performs GET {base}/{path}/{userID}. The plain-text body is the avatar
// location, or empty when the user has none.
func (m *Manager) fetchAvatar(ctx context.Context, generation uuid.UUID, sess session.Session) (string, error) {
	endpoint, err := url.JoinPath(m.config.API.BaseURL, m.config.Avatar.Path, sess.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Authorization", sess.Token)
	req.Header.Set("X-Request-Id", generation.String())
	if ua := m.config.API.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	class := m.ClassifyResponse(resp)
	m.countResponse(class)
	switch class {
	case ResponseOK:
	case ResponseUnauthenticated:
		return "", &StatusError{StatusCode: resp.StatusCode, Class: class, Err: ErrAuthRejected}
	case ResponseServerError:
		return "", &StatusError{StatusCode: resp.StatusCode, Class: class, Err: ErrServerError}
	default:
		return "", &StatusError{StatusCode: resp.StatusCode, Class: class, Err: ErrHTTPStatus}
	}

	limit := m.config.Avatar.MaxBodyBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if int64(len(body)) > limit {
		return "", fmt.Errorf("%w: avatar body exceeds %d bytes", ErrBodyTooLarge, limit)
	}
	return strings.TrimSpace(string(body)), nil
}

func (m *Manager) applyAvatar(task *avatarTask, st AvatarState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.avatar != task {
		return
	}
	m.avatar = nil
	if auth, ok := m.state.(Authenticated); ok {
		auth.Avatar = st
		m.state = auth
	}
}

// WaitAvatar blocks until the current avatar fetch finishes or ctx is done, then returns
// the avatar sub-state. It returns [ErrNotAuthenticated] when there is no session at
// that point.
func (m *Manager) WaitAvatar(ctx context.Context) (AvatarState, error) {
	if m == nil {
		return NoAvatar{}, ErrManagerNotReady
	}
	m.mu.RLock()
	task := m.avatar
	m.mu.RUnlock()

	if task != nil {
		select {
		case <-task.done:
		case <-ctx.Done():
			return m.Avatar(), ctx.Err()
		}
	}

	if _, ok := m.Session(); !ok {
		return NoAvatar{}, ErrNotAuthenticated
	}
	return m.Avatar(), nil
}

// SetAvatarURL records a new avatar location after a successful upload. Any fetch in
// flight is superseded. An empty location clears the avatar.
func (m *Manager) SetAvatarURL(location string) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	auth, ok := m.state.(Authenticated)
	if !ok {
		return ErrNotAuthenticated
	}
	m.cancelAvatarLocked()
	location = strings.TrimSpace(location)
	if location == "" {
		auth.Avatar = NoAvatar{}
	} else {
		auth.Avatar = AvatarReady{URL: location}
	}
	m.state = auth
	return nil
}
