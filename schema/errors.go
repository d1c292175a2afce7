package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrFutureVersion indicates data newer than the current schema version.
	ErrFutureVersion = errors.New("schema: version is newer than current")

	// ErrInvalidVersion indicates a version below 1.
	ErrInvalidVersion = errors.New("schema: invalid version")

	// ErrMissingMigration indicates a gap in the migration chain.
	ErrMissingMigration = errors.New("schema: missing migration")

	// ErrInvalidChain indicates overlapping, backwards or incomplete migration steps.
	ErrInvalidChain = errors.New("schema: invalid migration chain")

	// ErrMigrationFailed indicates a migration step returned an error.
	ErrMigrationFailed = errors.New("schema: migration failed")

	// ErrValidation indicates data does not match the current document.
	ErrValidation = errors.New("schema: validation failed")

	// ErrInvalidDocument indicates the JSON Schema document does not compile.
	ErrInvalidDocument = errors.New("schema: invalid document")
)

// SchemaError reports a schema failure for a named schema.
// It always wraps one of the sentinel errors of this package.
type SchemaError struct {
	Schema  string
	Version int
	Err     error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s v%d: %v", e.Schema, e.Version, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func newError(name string, version int, sentinel error, format string, args ...any) error {
	var err error = sentinel
	if format != "" {
		err = fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
	}
	return &SchemaError{Schema: name, Version: version, Err: err}
}
