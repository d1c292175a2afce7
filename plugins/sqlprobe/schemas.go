package sqlprobe

import "github.com/jonwraymond/checkops/schema"

var (
	configSchema = schema.MustNew("sql.config", 1, `{
  "type": "object",
  "properties": {
    "driver":   {"enum": ["postgres", "mysql", "mssql"]},
    "host":     {"type": "string", "minLength": 1},
    "port":     {"type": "integer", "minimum": 1, "maximum": 65535},
    "user":     {"type": "string"},
    "password": {"type": "string"},
    "database": {"type": "string"},
    "sslMode":  {"type": "string"},
    "timeout":  {"type": "integer", "minimum": 1}
  },
  "required": ["driver", "host"]
}`)

	resultSchema = schema.MustNew("sql.result", 1, `{
  "type": "object",
  "properties": {
    "connected": {"type": "boolean"},
    "pingMs":    {"type": "number"}
  },
  "required": ["connected"]
}`)

	queryConfigSchema = schema.MustNew("sql.query.config", 1, `{
  "type": "object",
  "properties": {
    "query":   {"type": "string", "minLength": 1},
    "timeout": {"type": "integer", "minimum": 1}
  },
  "required": ["query"]
}`)

	queryResultSchema = schema.MustNew("sql.query.result", 1, `{
  "type": "object",
  "properties": {
    "rowCount":    {"type": "integer"},
    "firstValue":  {},
    "queryTimeMs": {"type": "number"}
  },
  "required": ["rowCount"]
}`)
)
