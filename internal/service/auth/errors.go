package auth

import "errors"

// Token validation failures. The API maps ErrExpiredToken to its own
// message and every other failure to "Invalid token".
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongTokenType is returned for a well-signed token that is not an
	// access token.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrWeakSecret is returned by NewJWTService for secrets under 32 bytes.
	ErrWeakSecret = errors.New("jwt secret must be at least 32 characters")
)
