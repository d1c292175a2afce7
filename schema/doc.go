// Package schema versions the shapes of probe configurations, results and
// aggregates so stored data can evolve without breaking.
//
// A Versioned pairs a JSON Schema document for the current version with an
// ordered chain of pure migrations. Data of unknown vintage arrives as a
// Payload and is upgraded step by step before being validated:
//
//	cfg := schema.MustNew("dns.config", 2, dnsConfigV2,
//	    schema.Migration{From: 1, To: 2, Migrate: addNameserver},
//	)
//	data, err := cfg.Load(schema.Payload{Version: 1, Data: raw})
//
// Chains are checked when the Versioned is built: a missing link is a
// registration error, not a runtime surprise. Payloads from the future
// (a version above the current one) fail closed.
//
// The document handed to New is the validator, and Document returns it
// verbatim, so the schema exposed to form renderers cannot drift from the
// one enforced on load.
package schema
