package auth

import "errors"

// Sentinel errors for token validation. Callers use errors.Is to map
// these to HTTP status codes.
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)
