package probe

import (
	"time"

	"github.com/jonwraymond/checkops/assertion"
	"github.com/jonwraymond/checkops/schema"
)

// Configuration is an operator-defined health check.
type Configuration struct {
	ID         string                `json:"id" yaml:"id"`
	Name       string                `json:"name" yaml:"name"`
	StrategyID string                `json:"strategyId" yaml:"strategy"`
	Config     schema.Payload        `json:"config" yaml:"config"`
	Interval   time.Duration         `json:"interval" yaml:"interval"`
	Assertions []assertion.Assertion `json:"assertions,omitempty" yaml:"assertions"`
	Collectors []CollectorEntry      `json:"collectors,omitempty" yaml:"collectors"`
}

// CollectorEntry attaches one collector instance to a Configuration.
type CollectorEntry struct {
	// ID is the instance id, unique within the configuration.
	ID          string                `json:"id" yaml:"id"`
	CollectorID string                `json:"collectorId" yaml:"collector"`
	Config      schema.Payload        `json:"config" yaml:"config"`
	Assertions  []assertion.Assertion `json:"assertions,omitempty" yaml:"assertions"`
}

// TimeoutKey is the config key holding an exec timeout in milliseconds.
const TimeoutKey = "timeout"

// TimeoutOf reads TimeoutKey from config, returning fallback when the key
// is absent or not a positive number.
func TimeoutOf(config map[string]any, fallback time.Duration) time.Duration {
	var ms float64
	switch v := config[TimeoutKey].(type) {
	case float64:
		ms = v
	case int:
		ms = float64(v)
	case int64:
		ms = float64(v)
	}
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms * float64(time.Millisecond))
}
