package catalog

import "errors"

var (
	// ErrNotFound is returned for an unknown configuration or association.
	ErrNotFound = errors.New("catalog: not found")

	// ErrInvalidCatalog is returned by Replace for a rejected snapshot.
	ErrInvalidCatalog = errors.New("catalog: invalid catalog")
)
