package retention

import "fmt"

// Config holds retention horizons in days.
type Config struct {
	RawDays    int `json:"rawDays" yaml:"rawDays"`
	HourlyDays int `json:"hourlyDays" yaml:"hourlyDays"`
	DailyDays  int `json:"dailyDays" yaml:"dailyDays"`
}

// Default returns 7 days of raw runs, 30 of hourly and 365 of daily
// buckets.
func Default() Config {
	return Config{RawDays: 7, HourlyDays: 30, DailyDays: 365}
}

// Validate checks the bounds raw 1..30, hourly 1..365, daily 1..3650 and
// raw <= hourly <= daily.
func (c Config) Validate() error {
	switch {
	case c.RawDays < 1 || c.RawDays > 30:
		return fmt.Errorf("%w: rawDays %d outside 1..30", ErrInvalidConfig, c.RawDays)
	case c.HourlyDays < 1 || c.HourlyDays > 365:
		return fmt.Errorf("%w: hourlyDays %d outside 1..365", ErrInvalidConfig, c.HourlyDays)
	case c.DailyDays < 1 || c.DailyDays > 3650:
		return fmt.Errorf("%w: dailyDays %d outside 1..3650", ErrInvalidConfig, c.DailyDays)
	case c.RawDays > c.HourlyDays:
		return fmt.Errorf("%w: rawDays %d exceeds hourlyDays %d", ErrInvalidConfig, c.RawDays, c.HourlyDays)
	case c.HourlyDays > c.DailyDays:
		return fmt.Errorf("%w: hourlyDays %d exceeds dailyDays %d", ErrInvalidConfig, c.HourlyDays, c.DailyDays)
	}
	return nil
}

// Policies resolves per-configuration overrides.
type Policies interface {
	RetentionFor(configurationID string) (Config, bool)
}

// PolicyMap is a fixed set of overrides keyed by configuration id.
type PolicyMap map[string]Config

func (m PolicyMap) RetentionFor(configurationID string) (Config, bool) {
	c, ok := m[configurationID]
	return c, ok
}
