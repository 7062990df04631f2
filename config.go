package quizClient

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/quizClient/jwt"
)

// Config defines a public type used by quizClient APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API      APIConfig
	Session  SessionConfig
	Avatar   AvatarConfig
	Response ResponseConfig
	Token    TokenConfig
	Events   EventsConfig
	Metrics  MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by quizClient APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// KeyPrefix namespaces keys in shared backends (Redis). Ignored by local stores.
	KeyPrefix string
	// DropExpiredTokens makes LoadSession treat a credential whose exp claim has passed as
	// absent and remove it from storage. Opaque (non-JWT) credentials are never dropped.
	DropExpiredTokens bool
}

/*
====================================
AVATAR CONFIG
====================================
*/

// AvatarConfig controls the avatar fetch that follows every new session.
type AvatarConfig struct {
	Enabled      bool
	Path         string // joined with the user id: {base}/{Path}/{id}
	MaxBodyBytes int64
}

/*
====================================
RESPONSE CONFIG
====================================
*/

// ServerErrorPolicy decides what a 500 response means.
type ServerErrorPolicy int

const (
	// ServerErrorReauthenticate treats 500 like 401: the session is ended and the user is
	// asked to log in again. This matches what the production backend has always expected.
	ServerErrorReauthenticate ServerErrorPolicy = iota
	// ServerErrorRetryable reports 500 as ResponseServerError and leaves the session alone.
	ServerErrorRetryable
)

// ResponseConfig defines a public type used by quizClient APIs.
type ResponseConfig struct {
	ServerErrorPolicy ServerErrorPolicy
	ReloginMessage    string
	RetryLaterMessage string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures credential inspection.
type TokenConfig struct {
	SigningMethod jwt.SigningMethod
	VerifyKey     []byte
	Leeway        time.Duration
}

// EventsConfig defines a public type used by quizClient APIs.
//
// EventsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by quizClient APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultBaseURL is the production backend origin.
const DefaultBaseURL = "https://quiz-hacker-back.herokuapp.com"

// DefaultConfig returns the configuration used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   30 * time.Second,
			UserAgent: "quizclient-go/1.0",
		},
		Session: SessionConfig{
			KeyPrefix:         "qs",
			DropExpiredTokens: false,
		},
		Avatar: AvatarConfig{
			Enabled:      true,
			Path:         "getavatar",
			MaxBodyBytes: 8 << 10,
		},
		Response: ResponseConfig{
			ServerErrorPolicy: ServerErrorReauthenticate,
			ReloginMessage:    "Please re-login to prove your identity",
			RetryLaterMessage: "Something was wrong, try again later",
		},
		Token: TokenConfig{
			SigningMethod: jwt.MethodNone,
			Leeway:        30 * time.Second,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.VerifyKey = cloneBytes(cfg.Token.VerifyKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate returns the first problem found. It does not mutate the receiver.
func (c *Config) Validate() error {
	// API
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return errors.New("API BaseURL must be set")
	}
	u, err := url.Parse(base)
	if err != nil {
		return errors.New("API BaseURL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL must use http or https")
	}
	if u.Host == "" {
		return errors.New("API BaseURL must include a host")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}

	// Avatar
	if c.Avatar.Enabled {
		if strings.Trim(c.Avatar.Path, "/ ") == "" {
			return errors.New("Avatar Path must be set when avatar fetch is enabled")
		}
		if c.Avatar.MaxBodyBytes <= 0 {
			return errors.New("Avatar MaxBodyBytes must be > 0")
		}
	}

	// Response
	switch c.Response.ServerErrorPolicy {
	case ServerErrorReauthenticate, ServerErrorRetryable:
		// valid
	default:
		return errors.New("Response ServerErrorPolicy is invalid")
	}

	// Token
	switch c.Token.SigningMethod {
	case jwt.MethodNone, jwt.MethodHS256, jwt.MethodEd25519:
		// valid
	default:
		return errors.New("Token SigningMethod is invalid")
	}
	if c.Token.SigningMethod != jwt.MethodNone && len(c.Token.VerifyKey) == 0 {
		return errors.New("Token VerifyKey is required when SigningMethod is set")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when events are enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
