package s3probe

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("s3.config", 1, `{
  "type": "object",
  "properties": {
    "endpoint":  {"type": "string", "minLength": 1},
    "accessKey": {"type": "string"},
    "secretKey": {"type": "string"},
    "region":    {"type": "string"},
    "useSSL":    {"type": "boolean"},
    "bucket":    {"type": "string", "minLength": 1},
    "timeout":   {"type": "integer", "minimum": 1}
  },
  "required": ["endpoint", "bucket"]
}`)

	resultSchema = schema.MustNew("s3.result", 1, `{
  "type": "object",
  "properties": {
    "bucketExists": {"type": "boolean"},
    "latencyMs":    {"type": "number"}
  },
  "required": ["bucketExists"]
}`)

	objectConfigSchema = schema.MustNew("s3.object.config", 1, `{
  "type": "object",
  "properties": {
    "key":     {"type": "string", "minLength": 1},
    "timeout": {"type": "integer", "minimum": 1}
  },
  "required": ["key"]
}`)

	objectResultSchema = schema.MustNew("s3.object.result", 1, `{
  "type": "object",
  "properties": {
    "exists":       {"type": "boolean"},
    "size":         {"type": "integer", "minimum": 0},
    "ageSeconds":   {"type": "number"},
    "etag":         {"type": "string", "x-ephemeral": true}
  },
  "required": ["exists"]
}`)
)
