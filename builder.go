package quizClient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/quizClient/jwt"
	"github.com/MrEthical07/quizClient/session"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by quizClient APIs.
//
// A Builder configures exactly one [Manager]. Exactly one session store must be chosen
// with WithStore, WithRedis or WithSQLite.
type Builder struct {
	config Config

	store      session.Store
	redis      redis.UniversalClient
	sqlitePath string

	httpClient *http.Client
	logger     *slog.Logger
	eventSink  EventSink
	prompter   Prompter

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend origin.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStore uses an existing key-value store. The caller keeps ownership of it.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis stores the session keys in Redis under Config.Session.KeyPrefix. The caller
// keeps ownership of client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSQLite stores the session keys in a SQLite file at path. The Manager owns the file
// handle and closes it on Close.
func (b *Builder) WithSQLite(path string) *Builder {
	b.sqlitePath = path
	return b
}

// WithHTTPClient sets the client used for the avatar fetch. By default a client with
// Config.API.Timeout is used.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger sets the structured logger. By default slog.Default() is used.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithEventSink enables lifecycle events and delivers them to sink.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	if sink != nil {
		b.config.Events.Enabled = true
	}
	return b
}

// WithPrompter sets where user-visible prompts go. By default they are logged as warnings.
func (b *Builder) WithPrompter(p Prompter) *Builder {
	b.prompter = p
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms enables the avatar fetch latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when the configuration is invalid, no store or more than one
// store was chosen, or the SQLite file cannot be opened. The returned Manager starts in
// [Anonymous]; call [Manager.LoadSession] once at startup.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chosen := 0
	for _, set := range []bool{b.store != nil, b.redis != nil, b.sqlitePath != ""} {
		if set {
			chosen++
		}
	}
	switch {
	case chosen == 0:
		return nil, errors.New("session store required")
	case chosen > 1:
		return nil, errors.New("only one session store may be configured")
	}

	inspector, err := jwt.NewInspector(jwt.Config{
		SigningMethod: cfg.Token.SigningMethod,
		VerifyKey:     cloneBytes(cfg.Token.VerifyKey),
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		config:    cfg,
		logger:    logger.With("component", "session"),
		metrics:   NewMetrics(cfg.Metrics),
		inspector: inspector,
		now:       time.Now,
		state:     Anonymous{},
	}

	// -------- SESSION STORE --------
	switch {
	case b.store != nil:
		m.store = b.store
	case b.redis != nil:
		m.store = session.NewRedisStore(b.redis, cfg.Session.KeyPrefix)
	default:
		sqlite, err := session.OpenSQLite(b.sqlitePath)
		if err != nil {
			return nil, err
		}
		m.store = sqlite
		m.closeStore = sqlite.Close
	}

	m.httpClient = b.httpClient
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}

	m.prompter = b.prompter
	if m.prompter == nil {
		m.prompter = logPrompter{logger: m.logger}
	}

	m.events = newEventDispatcher(cfg.Events, b.eventSink)
	m.baseCtx, m.cancelBase = context.WithCancel(context.Background())

	b.built = true

	return m, nil
}
