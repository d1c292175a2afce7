package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives deterministic cache keys from query parameters.
//
// Contract:
// - Determinism: equal parameters produce equal keys regardless of map order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(scope string, params any) (string, error)
}

// DefaultKeyer hashes the JSON encoding of params with SHA-256.
type DefaultKeyer struct {
	// Prefix namespaces keys. Empty means "checkops".
	Prefix string
}

// NewDefaultKeyer creates a DefaultKeyer with the default prefix.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns <prefix>:<scope>:<first 16 hex chars of sha256(json(params))>.
// encoding/json sorts map keys, which makes the encoding canonical.
func (k *DefaultKeyer) Key(scope string, params any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache: encode params: %w", err)
	}
	sum := sha256.Sum256(raw)
	prefix := k.Prefix
	if prefix == "" {
		prefix = "checkops"
	}
	key := prefix + ":" + scope + ":" + hex.EncodeToString(sum[:8])
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

var _ Keyer = (*DefaultKeyer)(nil)
