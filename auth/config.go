package auth

import (
	"fmt"
	"strings"
)

// Config is the API auth section of the daemon configuration.
type Config struct {
	Enabled bool          `yaml:"enabled"`
	JWT     JWTSettings   `yaml:"jwt"`
	APIKeys []APIKeyEntry `yaml:"api_keys"`

	// RunRole is required to trigger runs. Empty lets every
	// authenticated caller trigger them.
	RunRole string `yaml:"run_role"`
}

// JWTSettings enables HS256 bearer tokens when Secret is set.
type JWTSettings struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// APIKeyEntry registers one API key by its SHA-256 hash.
type APIKeyEntry struct {
	ID        string   `yaml:"id"`
	Hash      string   `yaml:"hash"`
	Principal string   `yaml:"principal"`
	Roles     []string `yaml:"roles"`
}

// New builds the authenticator described by cfg. It returns nil when auth
// is disabled. Bearer tokens are tried before API keys.
func New(cfg Config) (Authenticator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var chain Chain
	if cfg.JWT.Secret != "" {
		chain = append(chain, NewJWTVerifier(JWTConfig{
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		}, []byte(cfg.JWT.Secret)))
	}
	if len(cfg.APIKeys) > 0 {
		ring := NewKeyRing()
		for i, k := range cfg.APIKeys {
			if len(k.Hash) != 64 || strings.TrimSpace(k.Principal) == "" {
				return nil, fmt.Errorf("%w: api_keys[%d] needs a sha256 hash and a principal", ErrInvalidConfig, i)
			}
			ring.Add(APIKey{ID: k.ID, Hash: k.Hash, Principal: k.Principal, Roles: k.Roles})
		}
		chain = append(chain, ring)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: enabled without jwt secret or api keys", ErrInvalidConfig)
	}
	return chain, nil
}
