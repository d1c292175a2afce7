package aggregate

import (
	"fmt"
	"time"
)

// Size is a bucket width.
type Size string

const (
	Hourly Size = "hourly"
	Daily  Size = "daily"
)

// ParseSize parses "hourly" or "daily".
func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case Hourly, Daily:
		return Size(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSize, s)
}

// Duration returns the bucket width.
func (s Size) Duration() time.Duration {
	if s == Daily {
		return 24 * time.Hour
	}
	return time.Hour
}

// Truncate returns the start of the bucket containing t, in UTC.
func (s Size) Truncate(t time.Time) time.Time {
	t = t.UTC()
	if s == Daily {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t.Truncate(time.Hour)
}

// Pair identifies a configuration running against a system.
type Pair struct {
	ConfigurationID string `json:"configurationId"`
	SystemID        string `json:"systemId"`
}

func (p Pair) String() string {
	return p.ConfigurationID + "@" + p.SystemID
}

// Key identifies one bucket.
type Key struct {
	ConfigurationID string    `json:"configurationId"`
	SystemID        string    `json:"systemId"`
	Start           time.Time `json:"start"`
	Size            Size      `json:"size"`
}

// KeyFor returns the key of the bucket of size s that contains t.
func KeyFor(p Pair, s Size, t time.Time) Key {
	return Key{
		ConfigurationID: p.ConfigurationID,
		SystemID:        p.SystemID,
		Start:           s.Truncate(t),
		Size:            s,
	}
}

// Pair returns the configuration/system pair of k.
func (k Key) Pair() Pair {
	return Pair{ConfigurationID: k.ConfigurationID, SystemID: k.SystemID}
}

// End returns the exclusive end of the bucket.
func (k Key) End() time.Time {
	return k.Start.Add(k.Size.Duration())
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.ConfigurationID, k.SystemID, k.Size, k.Start.UTC().Format(time.RFC3339))
}
