package httpprobe

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("http.config", 1, `{
  "type": "object",
  "properties": {
    "url":                {"type": "string", "pattern": "^https?://"},
    "method":             {"enum": ["GET", "HEAD", "POST", "PUT", "OPTIONS"]},
    "headers":            {"type": "object", "additionalProperties": {"type": "string"}},
    "body":               {"type": "string"},
    "expectedStatus":     {"type": "integer", "minimum": 100, "maximum": 599},
    "insecureSkipVerify": {"type": "boolean"},
    "timeout":            {"type": "integer", "minimum": 1, "maximum": 120000}
  },
  "required": ["url"]
}`)

	resultSchema = schema.MustNew("http.result", 1, `{
  "type": "object",
  "properties": {
    "statusCode":    {"type": "integer"},
    "latencyMs":     {"type": "number"},
    "contentLength": {"type": "integer"},
    "body":          {"type": "string", "x-ephemeral": true},
    "headers":       {"type": "object"}
  },
  "required": ["statusCode"]
}`)

	requestConfigSchema = schema.MustNew("http.request.config", 1, `{
  "type": "object",
  "properties": {
    "path":           {"type": "string"},
    "method":         {"enum": ["GET", "HEAD", "POST", "PUT", "OPTIONS"]},
    "headers":        {"type": "object", "additionalProperties": {"type": "string"}},
    "body":           {"type": "string"},
    "expectedStatus": {"type": "integer", "minimum": 100, "maximum": 599},
    "timeout":        {"type": "integer", "minimum": 1}
  },
  "required": ["path"]
}`)

	prometheusConfigSchema = schema.MustNew("http.prometheus.config", 1, `{
  "type": "object",
  "properties": {
    "path":    {"type": "string"},
    "metrics": {"type": "array", "items": {"type": "string"}},
    "timeout": {"type": "integer", "minimum": 1}
  }
}`)

	prometheusResultSchema = schema.MustNew("http.prometheus.result", 1, `{
  "type": "object",
  "properties": {
    "familyCount": {"type": "integer"},
    "metrics":     {"type": "object", "additionalProperties": {"type": "number"}},
    "latencyMs":   {"type": "number"}
  },
  "required": ["familyCount", "metrics"]
}`)
)
