package secret

import "errors"

var (
	// ErrInvalidRegistration indicates an empty name or nil factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")

	// ErrDuplicateProvider indicates a provider name registered twice.
	ErrDuplicateProvider = errors.New("secret: provider already registered")

	// ErrProviderNotRegistered indicates a reference to an unknown provider.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrNotFound indicates the provider has no value for the reference.
	ErrNotFound = errors.New("secret: not found")

	// ErrEmptySecret indicates a provider returned an empty value in strict mode.
	ErrEmptySecret = errors.New("secret: empty value")

	// ErrInvalidRef indicates a malformed reference.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrMissingEnv indicates ${VAR} expansion of an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")
)
