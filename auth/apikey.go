package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"
)

// APIKeyHeader carries a plaintext API key.
const APIKeyHeader = "X-API-Key"

// APIKey is a registered key. Only the SHA-256 of the key is kept.
type APIKey struct {
	ID        string
	Hash      string
	Principal string
	Roles     []string
	ExpiresAt time.Time
}

// HashAPIKey returns the lowercase hex SHA-256 of key, the form stored in
// checkd.yaml.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// KeyRing authenticates X-API-Key headers against registered hashes.
type KeyRing struct {
	mu   sync.RWMutex
	keys map[string]APIKey
	now  func() time.Time
}

// NewKeyRing returns a KeyRing holding keys.
func NewKeyRing(keys ...APIKey) *KeyRing {
	r := &KeyRing{keys: make(map[string]APIKey, len(keys)), now: time.Now}
	for _, k := range keys {
		r.Add(k)
	}
	return r
}

// Add registers k, replacing any key with the same hash.
func (r *KeyRing) Add(k APIKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[strings.ToLower(k.Hash)] = k
}

// Revoke drops the key with the given hash.
func (r *KeyRing) Revoke(hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, strings.ToLower(hash))
}

// Authenticate implements Authenticator.
func (r *KeyRing) Authenticate(_ context.Context, h http.Header) (*Identity, error) {
	values := h.Values(APIKeyHeader)
	if len(values) == 0 {
		return nil, ErrNoCredentials
	}
	key := strings.TrimSpace(values[0])
	if key == "" {
		return nil, ErrInvalidCredentials
	}

	r.mu.RLock()
	k, ok := r.keys[HashAPIKey(key)]
	r.mu.RUnlock()
	switch {
	case !ok:
		return nil, ErrInvalidCredentials
	case !k.ExpiresAt.IsZero() && r.now().After(k.ExpiresAt):
		return nil, ErrTokenExpired
	}
	return &Identity{
		Principal: k.Principal,
		Roles:     k.Roles,
		Method:    MethodAPIKey,
		KeyID:     k.ID,
		ExpiresAt: k.ExpiresAt,
	}, nil
}

var _ Authenticator = (*KeyRing)(nil)
