package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iudanet/gopherblog/internal/models"
)

// MinKeyLength minimum HMAC key size accepted for HS256
const MinKeyLength = 32

// Config holds the immutable token settings loaded once at startup
type Config struct {
	Issuer   string
	Audience string
	Key      []byte
	TTL      time.Duration
}

// Claims represents the JWT claims issued by the blog
type Claims struct {
	// UserID неизменяемый id пользователя; subject (username) может смениться
	UserID string      `json:"uid"`
	Role   models.Role `json:"role"`
	gojwt.RegisteredClaims
}

// Subject is the identity a token is issued for
type Subject struct {
	UserID   string
	Username string
	Role     models.Role
}

// IssuedToken is a signed token together with its expiry
type IssuedToken struct {
	ExpiresAt time.Time
	Token     string
	ID        string
}

// Codec issues and verifies HS256 signed identity tokens
type Codec struct {
	now    func() time.Time
	parser *gojwt.Parser
	cfg    Config
}

// Option configures Codec
type Option func(*Codec)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec. Returns ErrMissingSigningKey if the key
// is empty or shorter than MinKeyLength.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.Key) < MinKeyLength {
		return nil, fmt.Errorf("%w: key must be at least %d bytes", ErrMissingSigningKey, MinKeyLength)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("jwt: ttl must be positive, got %s", cfg.TTL)
	}

	key := make([]byte, len(cfg.Key))
	copy(key, cfg.Key)
	cfg.Key = key

	c := &Codec{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	parserOpts := []gojwt.ParserOption{
		// Only HS256 is accepted: rejects "none" and any asymmetric algorithm
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
		gojwt.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, gojwt.WithAudience(cfg.Audience))
	}
	c.parser = gojwt.NewParser(parserOpts...)

	return c, nil
}

// TTL returns the configured token lifetime
func (c *Codec) TTL() time.Duration {
	return c.cfg.TTL
}

// Issue creates a new signed token for the subject
func (c *Codec) Issue(sub Subject) (*IssuedToken, error) {
	if sub.Username == "" {
		return nil, fmt.Errorf("jwt: subject username is required")
	}
	if sub.UserID == "" {
		return nil, fmt.Errorf("jwt: subject user id is required")
	}

	now := c.now()
	expiresAt := now.Add(c.cfg.TTL)
	tokenID := uuid.New().String()

	claims := Claims{
		UserID: sub.UserID,
		Role:   sub.Role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   sub.Username,
			ID:        tokenID,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
	}
	if c.cfg.Audience != "" {
		claims.Audience = gojwt.ClaimStrings{c.cfg.Audience}
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedToken{
		Token:     signed,
		ID:        tokenID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse verifies signature, algorithm, expiry, issuer and audience and
// returns the claims. Errors wrap one of ErrMalformedToken,
// ErrInvalidSignature, ErrExpiredToken or ErrClaimMismatch.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (interface{}, error) {
		return c.cfg.Key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject is empty", ErrClaimMismatch)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user id is empty", ErrClaimMismatch)
	}
	if _, ok := models.ParseRole(string(claims.Role)); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrClaimMismatch, claims.Role)
	}

	return claims, nil
}

// classify maps golang-jwt validation errors onto the codec error set.
// Signature is checked before time claims, so a tampered expired token
// reports ErrInvalidSignature.
func classify(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid),
		errors.Is(err, gojwt.ErrTokenUnverifiable),
		errors.Is(err, gojwt.ErrSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, gojwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	case errors.Is(err, gojwt.ErrTokenInvalidIssuer),
		errors.Is(err, gojwt.ErrTokenInvalidAudience),
		errors.Is(err, gojwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, gojwt.ErrTokenNotValidYet),
		errors.Is(err, gojwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, gojwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %v", ErrClaimMismatch, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
