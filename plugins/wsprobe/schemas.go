package wsprobe

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("websocket.config", 1, `{
  "type": "object",
  "properties": {
    "url":     {"type": "string", "pattern": "^wss?://"},
    "headers": {"type": "object", "additionalProperties": {"type": "string"}},
    "message": {"type": "string"},
    "expect":  {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1}
  },
  "required": ["url"]
}`)

	resultSchema = schema.MustNew("websocket.result", 1, `{
  "type": "object",
  "properties": {
    "connected":    {"type": "boolean"},
    "handshakeMs":  {"type": "number"},
    "reply":        {"type": "string", "x-ephemeral": true},
    "replyMatched": {"type": "boolean"}
  },
  "required": ["connected"]
}`)
)
