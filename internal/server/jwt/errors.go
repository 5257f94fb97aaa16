package jwt

import "errors"

var (
	// ErrMissingSigningKey signing key is not configured or too short.
	// Treated as a configuration error: the codec refuses to be constructed.
	ErrMissingSigningKey = errors.New("jwt: signing key is not configured")

	// ErrMalformedToken token cannot be decoded as a JWS compact string
	ErrMalformedToken = errors.New("jwt: malformed token")

	// ErrInvalidSignature signature does not verify under the configured key,
	// or the token uses an algorithm other than HS256
	ErrInvalidSignature = errors.New("jwt: invalid signature")

	// ErrExpiredToken token is past its expiry
	ErrExpiredToken = errors.New("jwt: token is expired")

	// ErrClaimMismatch issuer, audience or a required claim does not match
	ErrClaimMismatch = errors.New("jwt: claim mismatch")
)
