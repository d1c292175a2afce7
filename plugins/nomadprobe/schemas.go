package nomadprobe

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("nomad.config", 1, `{
  "type": "object",
  "properties": {
    "address":   {"type": "string", "minLength": 1},
    "namespace": {"type": "string"},
    "region":    {"type": "string"},
    "jobId":     {"type": "string", "minLength": 1},
    "token":     {"type": "string"},
    "timeout":   {"type": "integer", "minimum": 1}
  },
  "required": ["address", "jobId"]
}`)

	resultSchema = schema.MustNew("nomad.result", 1, `{
  "type": "object",
  "properties": {
    "running":  {"type": "integer", "minimum": 0},
    "failed":   {"type": "integer", "minimum": 0},
    "lost":     {"type": "integer", "minimum": 0},
    "queued":   {"type": "integer", "minimum": 0},
    "starting": {"type": "integer", "minimum": 0},
    "complete": {"type": "integer", "minimum": 0}
  },
  "required": ["running", "failed", "lost"]
}`)
)
