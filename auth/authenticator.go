package auth

import (
	"context"
	"errors"
	"net/http"
)

// Authenticator resolves the caller from request headers.
//
// It returns ErrNoCredentials when h holds nothing it recognises, one of
// the credential errors when it rejects what it found, and any other error
// when it could not decide. Implementations must be safe for concurrent
// use.
type Authenticator interface {
	Authenticate(ctx context.Context, h http.Header) (*Identity, error)
}

// Chain asks each authenticator in turn. The first one that recognises
// credentials decides the outcome.
type Chain []Authenticator

// Authenticate implements Authenticator.
func (c Chain) Authenticate(ctx context.Context, h http.Header) (*Identity, error) {
	for _, a := range c {
		id, err := a.Authenticate(ctx, h)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		return id, err
	}
	return nil, ErrNoCredentials
}

var _ Authenticator = Chain(nil)
