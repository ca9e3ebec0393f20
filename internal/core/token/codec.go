package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum accepted signing secret length in bytes.
// A shorter secret is a configuration error, never silently padded.
const MinSecretLen = 32

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Claim keys embedded alongside the registered subject.
const (
	ClaimRole   = "role"
	ClaimUserID = "user_id"
	ClaimEmail  = "email"
)

var ErrWeakSecret = errors.New("signing secret missing or below minimum length")
var ErrMalformedToken = errors.New("malformed token")
var ErrInvalidSignature = errors.New("invalid token signature")
var ErrExpiredToken = errors.New("token expired")
var ErrUnsupportedToken = errors.New("unsupported token")

// Config carries the signing settings for the codec. It is built once at
// startup and read-only afterwards.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the decoded, verified content of a token.
type Claims struct {
	Subject   string
	Role      string
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec issues and verifies HS256-signed tokens with a shared secret.
// Tokens are self-contained: verification needs no store round-trip.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New validates the configuration and returns a Codec. It fails with
// ErrWeakSecret when the secret is unset or shorter than MinSecretLen;
// callers must treat that as fatal at startup.
func New(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, fmt.Errorf("token codec: %w (need at least %d bytes)", ErrWeakSecret, MinSecretLen)
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &Codec{secret: []byte(cfg.Secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue builds and signs a token for subject with the given ttl. Entries of
// extra (role, user id, email) are embedded next to the registered claims;
// a nil or empty map issues a bare subject token.
func (c *Codec) Issue(subject string, extra map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.accessTTL
	}
	now := time.Now().UTC()

	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode parses and verifies a token string, returning its claims.
// Failures are classified as ErrMalformedToken, ErrInvalidSignature,
// ErrExpiredToken or ErrUnsupportedToken.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	raw := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, raw, c.keyFunc)
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	return fromMapClaims(raw), nil
}

// IsExpired reports whether the token is past its expiry. It never returns
// an error: any decode failure counts as expired (fail-closed).
func (c *Codec) IsExpired(tokenString string) bool {
	_, err := c.Decode(tokenString)
	return err != nil
}

// RemainingValidity returns the time until the token expires, zero or
// negative when it already has. Undecodable tokens yield zero.
func (c *Codec) RemainingValidity(tokenString string) time.Duration {
	// Signature is still verified; only claim validation (exp) is skipped so
	// an expired token reports how far past expiry it is.
	raw := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, err := parser.ParseWithClaims(tokenString, raw, c.keyFunc); err != nil {
		return 0
	}
	exp, err := raw.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return time.Until(exp.Time)
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("%w: alg %s", ErrUnsupportedToken, t.Method.Alg())
	}
	return c.secret, nil
}

// classify maps golang-jwt parse errors onto the codec's error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedToken):
		return ErrUnsupportedToken
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnsupportedToken
	}
	return ErrMalformedToken
}

func fromMapClaims(raw jwt.MapClaims) *Claims {
	claims := &Claims{}
	if sub, err := raw.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if iat, err := raw.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	claims.Role, _ = raw[ClaimRole].(string)
	claims.UserID, _ = raw[ClaimUserID].(string)
	claims.Email, _ = raw[ClaimEmail].(string)
	return claims
}
