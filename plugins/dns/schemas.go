package dns

import "github.com/jonwraymond/checkops/schema"

const configV2 = `{
  "type": "object",
  "properties": {
    "hostname":   {"type": "string", "minLength": 1},
    "recordType": {"enum": ["A", "AAAA", "CNAME", "MX", "TXT", "NS"]},
    "nameserver": {"type": "string"},
    "timeout":    {"type": "integer", "minimum": 1, "maximum": 60000}
  },
  "required": ["hostname", "recordType", "nameserver"]
}`

const resultV1 = `{
  "type": "object",
  "properties": {
    "resolvedValues": {"type": "array", "items": {"type": "string"}},
    "recordCount":    {"type": "integer", "minimum": 0},
    "resolveTimeMs":  {"type": "number"},
    "error":          {"type": "string"}
  },
  "required": ["recordCount"]
}`

const lookupConfigV1 = `{
  "type": "object",
  "properties": {
    "hostname":   {"type": "string", "minLength": 1},
    "recordType": {"enum": ["A", "AAAA", "CNAME", "MX", "TXT", "NS"]},
    "timeout":    {"type": "integer", "minimum": 1}
  },
  "required": ["hostname", "recordType"]
}`

var (
	configSchema = schema.MustNew("dns.config", 2, configV2,
		schema.Migration{From: 1, To: 2, Description: "add nameserver", Migrate: addNameserver})
	resultSchema       = schema.MustNew("dns.result", 1, resultV1)
	lookupConfigSchema = schema.MustNew("dns.lookup.config", 1, lookupConfigV1)
)

// addNameserver upgrades v1 configs, which always used the system resolver.
func addNameserver(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	if _, ok := out["nameserver"]; !ok {
		out["nameserver"] = ""
	}
	return out, nil
}
