package auth

import "errors"

var (
	// ErrNoCredentials means the request carries nothing the authenticator
	// understands. A Chain moves on to the next authenticator.
	ErrNoCredentials = errors.New("auth: no credentials presented")

	ErrInvalidCredentials = errors.New("auth: credentials rejected")
	ErrTokenExpired       = errors.New("auth: credentials expired")
	ErrTokenMalformed     = errors.New("auth: bearer token is not a JWT")

	ErrKeyNotFound   = errors.New("auth: no signing key for token")
	ErrForbidden     = errors.New("auth: role required for this operation")
	ErrInvalidConfig = errors.New("auth: invalid configuration")
)

// rejected reports whether err is the caller's fault (401) rather than a
// failure on our side (500).
func rejected(err error) bool {
	return errors.Is(err, ErrNoCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed)
}
