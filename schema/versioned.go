package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Payload is data of unknown vintage, as read from storage or configuration.
type Payload struct {
	Version int            `json:"version" yaml:"version"`
	Data    map[string]any `json:"data" yaml:"data"`
}

// Migration upgrades data from one version to a later one.
// Migrate must be pure and total for every value accepted at From.
type Migration struct {
	From        int
	To          int
	Description string
	Migrate     func(map[string]any) (map[string]any, error)
}

// Versioned validates and upgrades one family of shapes.
type Versioned struct {
	name       string
	version    int
	document   json.RawMessage
	compiled   *jsonschema.Schema
	migrations []Migration
	ephemeral  map[string]struct{}
}

// New builds a Versioned from the current document and its migration chain.
func New(name string, version int, document string, migrations ...Migration) (*Versioned, error) {
	if strings.TrimSpace(name) == "" {
		return nil, newError(name, version, ErrInvalidDocument, "name is required")
	}
	if version < 1 {
		return nil, newError(name, version, ErrInvalidVersion, "current version must be >= 1")
	}

	compiled, err := compile(name, document)
	if err != nil {
		return nil, newError(name, version, ErrInvalidDocument, "%v", err)
	}

	steps := make([]Migration, len(migrations))
	copy(steps, migrations)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].From < steps[j].From })
	if err := checkChain(name, version, steps); err != nil {
		return nil, err
	}

	ephemeral, err := ephemeralFields(document)
	if err != nil {
		return nil, newError(name, version, ErrInvalidDocument, "%v", err)
	}

	return &Versioned{
		name:       name,
		version:    version,
		document:   json.RawMessage(document),
		compiled:   compiled,
		migrations: steps,
		ephemeral:  ephemeral,
	}, nil
}

// MustNew is New for package-level declarations; it panics on error.
func MustNew(name string, version int, document string, migrations ...Migration) *Versioned {
	v, err := New(name, version, document, migrations...)
	if err != nil {
		panic(err)
	}
	return v
}

func checkChain(name string, version int, steps []Migration) error {
	next := 1
	for _, m := range steps {
		switch {
		case m.Migrate == nil:
			return newError(name, version, ErrInvalidChain, "migration %d->%d has no function", m.From, m.To)
		case m.To <= m.From:
			return newError(name, version, ErrInvalidChain, "migration %d->%d goes backwards", m.From, m.To)
		case m.To > version:
			return newError(name, version, ErrInvalidChain, "migration %d->%d overshoots current version", m.From, m.To)
		case m.From < next:
			return newError(name, version, ErrInvalidChain, "migration %d->%d overlaps an earlier step", m.From, m.To)
		case m.From > next:
			return newError(name, version, ErrMissingMigration, "no migration from version %d", next)
		}
		next = m.To
	}
	if next != version {
		return newError(name, version, ErrMissingMigration, "no migration from version %d", next)
	}
	return nil
}

// Name returns the schema name.
func (v *Versioned) Name() string { return v.name }

// Version returns the current version.
func (v *Versioned) Version() int { return v.version }

// Document returns the JSON Schema document used for validation.
func (v *Versioned) Document() json.RawMessage { return v.document }

// Wrap stamps data with the current version.
func (v *Versioned) Wrap(data map[string]any) Payload {
	return Payload{Version: v.version, Data: data}
}

// Load upgrades p to the current version and validates it.
// The input map is never modified.
func (v *Versioned) Load(p Payload) (map[string]any, error) {
	switch {
	case p.Version < 1:
		return nil, newError(v.name, p.Version, ErrInvalidVersion, "")
	case p.Version > v.version:
		return nil, newError(v.name, p.Version, ErrFutureVersion, "current is %d", v.version)
	}

	data, err := normalize(p.Data)
	if err != nil {
		return nil, newError(v.name, p.Version, ErrValidation, "%v", err)
	}

	at := p.Version
	for _, m := range v.migrations {
		if m.From < at {
			continue
		}
		if m.From != at {
			return nil, newError(v.name, at, ErrMissingMigration, "no migration from version %d", at)
		}
		out, err := m.Migrate(data)
		if err != nil {
			return nil, newError(v.name, at, ErrMigrationFailed, "%d->%d: %v", m.From, m.To, err)
		}
		if data, err = normalize(out); err != nil {
			return nil, newError(v.name, m.To, ErrMigrationFailed, "%d->%d: %v", m.From, m.To, err)
		}
		at = m.To
	}
	if at != v.version {
		return nil, newError(v.name, at, ErrMissingMigration, "no migration from version %d", at)
	}

	if err := v.Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks data against the current document.
func (v *Versioned) Validate(data map[string]any) error {
	raw, err := json.Marshal(orEmpty(data))
	if err != nil {
		return newError(v.name, v.version, ErrValidation, "%v", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return newError(v.name, v.version, ErrValidation, "%v", err)
	}
	if err := v.compiled.Validate(inst); err != nil {
		return newError(v.name, v.version, ErrValidation, "%v", err)
	}
	return nil
}

// Ephemeral returns the property names marked "x-ephemeral" in the document.
func (v *Versioned) Ephemeral() []string {
	names := make([]string, 0, len(v.ephemeral))
	for name := range v.ephemeral {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strip returns a copy of data without ephemeral properties.
// Keys the document does not declare are kept.
func (v *Versioned) Strip(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, val := range data {
		if _, drop := v.ephemeral[k]; drop {
			continue
		}
		out[k] = val
	}
	return out
}

func compile(name, document string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(document))
	if err != nil {
		return nil, err
	}
	url := "https://schemas.checkops.local/" + name + ".json"

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

func ephemeralFields(document string) (map[string]struct{}, error) {
	var doc struct {
		Properties map[string]struct {
			Ephemeral bool `json:"x-ephemeral"`
		} `json:"properties"`
	}
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	for name, prop := range doc.Properties {
		if prop.Ephemeral {
			out[name] = struct{}{}
		}
	}
	return out, nil
}

// normalize deep-copies data through JSON so numbers are float64 and
// nested values are plain maps and slices.
func normalize(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(orEmpty(data))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("data is not an object")
	}
	return out, nil
}

func orEmpty(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}
