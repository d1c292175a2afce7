package cache

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
)

// MaxKeyLength bounds a key in bytes. Keys derived from history queries
// stay far below it.
const MaxKeyLength = 512

var (
	ErrNilCache   = errors.New("cache: no backing cache configured")
	ErrInvalidKey = errors.New("cache: key is blank or contains control characters")
	ErrKeyTooLong = errors.New("cache: key longer than MaxKeyLength")
)

// Cache holds encoded history responses between identical queries.
//
// A miss is (nil, false), never an error. The returned slice is shared and
// must not be modified. Set with a non-positive ttl is a no-op, and
// deleting an absent key succeeds.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects keys a backend could not store verbatim.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return ErrInvalidKey
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return ErrInvalidKey
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	}
	return nil
}
