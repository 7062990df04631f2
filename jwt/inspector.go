package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects signature verification. Empty means claims are read unverified.
type SigningMethod string

const (
	MethodNone    SigningMethod = ""
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

var (
	// ErrNotJWT is returned for credentials that are not compact JWS tokens. Such
	// credentials are still valid bearer tokens; they just carry no readable claims.
	ErrNotJWT = errors.New("credential is not a jwt")
	// ErrSignature is returned when a verification key is configured and the signature does
	// not match.
	ErrSignature = errors.New("jwt signature invalid")
)

// Config controls an [Inspector].
type Config struct {
	SigningMethod SigningMethod
	VerifyKey     []byte
	Leeway        time.Duration
}

// Claims are the parts of the credential the client cares about.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Expiry returns the exp claim, or the zero time if absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether exp is set and lies before now minus leeway.
func (c *Claims) Expired(now time.Time, leeway time.Duration) bool {
	exp := c.Expiry()
	if exp.IsZero() {
		return false
	}
	return now.After(exp.Add(leeway))
}

// Inspector reads claims out of bearer credentials.
type Inspector struct {
	config    Config
	verifyKey interface{}
}

// NewInspector validates cfg and returns an Inspector.
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	in := &Inspector{config: cfg}
	switch cfg.SigningMethod {
	case MethodNone:
	case MethodHS256:
		if len(cfg.VerifyKey) == 0 {
			return nil, errors.New("hs256 requires verify key")
		}
		in.verifyKey = cfg.VerifyKey
	case MethodEd25519:
		key, err := parseEdPublicKey(cfg.VerifyKey)
		if err != nil {
			return nil, err
		}
		in.verifyKey = key
	default:
		return nil, errors.New("unsupported signing method")
	}
	return in, nil
}

// Leeway returns the configured expiry leeway.
func (in *Inspector) Leeway() time.Duration {
	if in == nil {
		return 0
	}
	return in.config.Leeway
}

// Inspect parses token and returns its claims. Expired tokens are not an error here; use
// [Claims.Expired]. A leading "Bearer " is ignored.
func (in *Inspector) Inspect(token string) (*Claims, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if strings.Count(raw, ".") != 2 {
		return nil, ErrNotJWT
	}

	claims := &Claims{}
	if in == nil || in.config.SigningMethod == MethodNone {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
		}
		return claims, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{in.method().Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != in.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return in.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	return claims, nil
}

func (in *Inspector) method() jwt.SigningMethod {
	switch in.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
