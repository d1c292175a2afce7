package grpcprobe

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("grpc.config", 1, `{
  "type": "object",
  "properties": {
    "target":             {"type": "string", "minLength": 1},
    "service":            {"type": "string"},
    "tls":                {"type": "boolean"},
    "insecureSkipVerify": {"type": "boolean"},
    "timeout":            {"type": "integer", "minimum": 1}
  },
  "required": ["target"]
}`)

	resultSchema = schema.MustNew("grpc.result", 1, `{
  "type": "object",
  "properties": {
    "status":    {"enum": ["UNKNOWN", "SERVING", "NOT_SERVING", "SERVICE_UNKNOWN"]},
    "serving":   {"type": "boolean"},
    "latencyMs": {"type": "number"}
  },
  "required": ["status", "serving"]
}`)

	checkConfigSchema = schema.MustNew("grpc.check.config", 1, `{
  "type": "object",
  "properties": {
    "service": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1}
  },
  "required": ["service"]
}`)
)
