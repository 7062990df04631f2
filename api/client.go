package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/MrEthical07/quizClient/middleware"
)

const defaultMaxBodyBytes = 4 << 20

// Client is the QuizHacker API client. It is safe for concurrent use.
//
// Use NewClient with the application's session manager:
//
//	client, err := api.NewClient(m, api.WithTimeout(10*time.Second))
type Client struct {
	manager      *quizClient.Manager
	baseURL      string
	userAgent    string
	httpClient   *http.Client
	logger       *slog.Logger
	maxBodyBytes int64
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides Config.API.BaseURL of the manager.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client. Its transport is wrapped, not replaced, so the
// caller's client is never modified.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent overrides Config.API.UserAgent of the manager.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// NewClient creates a client bound to m. Defaults come from m.Config().
func NewClient(m *quizClient.Manager, opts ...Option) (*Client, error) {
	if m == nil {
		return nil, quizClient.ErrManagerNotReady
	}
	cfg := m.Config()

	c := &Client{
		manager:      m,
		baseURL:      cfg.API.BaseURL,
		userAgent:    cfg.API.UserAgent,
		httpClient:   &http.Client{Timeout: cfg.API.Timeout},
		logger:       slog.Default(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidArgument, c.baseURL)
	}

	c.logger = c.logger.With("component", "api")
	hc := *c.httpClient
	hc.Transport = middleware.NewTransport(m, c.httpClient.Transport, c.logger)
	c.httpClient = &hc

	return c, nil
}

// BaseURL returns the backend origin requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Manager returns the session manager the client is bound to.
func (c *Client) Manager() *quizClient.Manager {
	return c.manager
}
