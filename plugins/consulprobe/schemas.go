package consulprobe

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("consul.config", 1, `{
  "type": "object",
  "properties": {
    "address":    {"type": "string", "minLength": 1},
    "token":      {"type": "string"},
    "service":    {"type": "string", "minLength": 1},
    "tag":        {"type": "string"},
    "datacenter": {"type": "string"},
    "timeout":    {"type": "integer", "minimum": 1}
  },
  "required": ["address", "service"]
}`)

	resultSchema = schema.MustNew("consul.result", 1, `{
  "type": "object",
  "properties": {
    "passing":       {"type": "integer", "minimum": 0},
    "warning":       {"type": "integer", "minimum": 0},
    "critical":      {"type": "integer", "minimum": 0},
    "instanceCount": {"type": "integer", "minimum": 0},
    "status":        {"enum": ["passing", "warning", "critical"]}
  },
  "required": ["instanceCount", "status"]
}`)
)
