package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenSubject is the fixed subject marker carried by every bearer token.
	TokenSubject = "User details"
	// TokenIssuer is the fixed issuer marker carried by every bearer token.
	TokenIssuer = "Batorov"
	// TokenTTL is the lifetime of an issued token. There is no refresh.
	TokenTTL = 60 * time.Minute

	usernameClaim = "username"
)

var (
	// ErrMissingSecret is returned when the codec is built without a signing secret.
	ErrMissingSecret = errors.New("jwt signing secret is not configured")
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// TokenCodec issues and verifies HS256 bearer tokens carrying a username claim.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customises a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock overrides the time source used for issued-at, expiry and validation.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTTL overrides TokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewTokenCodec builds a codec keyed by secret.
func NewTokenCodec(secret []byte, opts ...TokenOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		ttl:    TokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithSubject(TokenSubject),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// Issue returns a signed token for username valid for the codec TTL.
func (c *TokenCodec) Issue(username string) (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := c.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   TokenSubject,
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, markers and validity window and returns the username claim.
// Every failure is reported as ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", ErrMissingSecret
	}

	claims := &tokenClaims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Username == "" {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}
