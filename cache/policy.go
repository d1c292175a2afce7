package cache

import "time"

// Policy configures entry lifetimes.
type Policy struct {
	// DefaultTTL applies when no TTL is requested. Zero disables caching.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// MaxTTL caps requested TTLs. Zero means no cap.
	MaxTTL time.Duration `yaml:"max_ttl"`
}

// DefaultPolicy caches for 30 seconds by default and at most 10 minutes.
// Live buckets change with every run, so entries stay short-lived.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 30 * time.Second,
		MaxTTL:     10 * time.Minute,
	}
}

// NoCachePolicy disables caching.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache reports whether the policy caches anything.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL applies the default to a non-positive override and clamps
// to MaxTTL.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
