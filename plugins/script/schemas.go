package script

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("script.config", 1, `{
  "type": "object",
  "properties": {
    "timeout": {"type": "integer", "minimum": 1, "maximum": 600000},
    "shell":   {"type": "string"}
  }
}`)

	resultSchema = schema.MustNew("script.result", 1, `{
  "type": "object",
  "properties": {
    "exitCode":        {"type": "integer"},
    "stdout":          {"type": "string", "x-ephemeral": true},
    "stderr":          {"type": "string", "x-ephemeral": true},
    "success":         {"type": "boolean"},
    "executionTimeMs": {"type": "number"},
    "timedOut":        {"type": "boolean"}
  },
  "required": ["exitCode", "success"]
}`)

	executeConfigSchema = schema.MustNew("script.execute.config", 1, `{
  "type": "object",
  "properties": {
    "command": {"type": "string", "minLength": 1},
    "args":    {"type": "array", "items": {"type": "string"}},
    "env":     {"type": "object", "additionalProperties": {"type": "string"}},
    "cwd":     {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1}
  },
  "required": ["command"]
}`)

	inlineConfigSchema = schema.MustNew("script.inline-script.config", 1, `{
  "type": "object",
  "properties": {
    "script":  {"type": "string", "minLength": 1},
    "env":     {"type": "object", "additionalProperties": {"type": "string"}},
    "cwd":     {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1}
  },
  "required": ["script"]
}`)
)
