package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/retention"
	"github.com/jonwraymond/checkops/threshold"
)

// Association runs one configuration against one system.
type Association struct {
	ConfigurationID string           `json:"configurationId" yaml:"configuration"`
	SystemID        string           `json:"systemId" yaml:"system"`
	Enabled         bool             `json:"enabled" yaml:"enabled"`
	Policy          threshold.Policy `json:"policy" yaml:"policy"`
}

// Snapshot is a complete catalog.
type Snapshot struct {
	Configurations []probe.Configuration `json:"configurations" yaml:"configurations"`
	Associations   []Association         `json:"associations" yaml:"associations"`

	// Retention overrides the retention config per configuration id.
	Retention map[string]retention.Config `json:"retention,omitempty" yaml:"retention"`
}

// Catalog is the read side used by the engine and status service.
//
// Contract:
//   - Concurrency: implementations are safe for concurrent use.
//   - Errors: lookups of unknown ids return ErrNotFound.
type Catalog interface {
	Configuration(id string) (probe.Configuration, error)
	Association(systemID, configurationID string) (Association, error)

	// Associations returns a system's associations ordered by
	// configuration id.
	Associations(systemID string) []Association

	// Systems returns every system id with an association, sorted.
	Systems() []string

	RetentionFor(configurationID string) (retention.Config, bool)
}

type assocKey struct{ system, configuration string }

type index struct {
	configurations map[string]probe.Configuration
	associations   map[assocKey]Association
	bySystem       map[string][]Association
	systems        []string
	retention      map[string]retention.Config
}

// Memory is an in-memory Catalog with atomic replacement.
type Memory struct {
	registry *probe.Registry
	current  atomic.Pointer[index]
}

// NewMemory creates an empty catalog validated against registry.
func NewMemory(registry *probe.Registry) *Memory {
	m := &Memory{registry: registry}
	m.current.Store(&index{
		configurations: map[string]probe.Configuration{},
		associations:   map[assocKey]Association{},
		bySystem:       map[string][]Association{},
		retention:      map[string]retention.Config{},
	})
	return m
}

// Replace validates snap and swaps it in. Associations with a zero policy
// get threshold.DefaultPolicy.
func (m *Memory) Replace(snap Snapshot) error {
	idx, err := m.build(snap)
	if err != nil {
		return err
	}
	m.current.Store(idx)
	return nil
}

func (m *Memory) build(snap Snapshot) (*index, error) {
	idx := &index{
		configurations: make(map[string]probe.Configuration, len(snap.Configurations)),
		associations:   make(map[assocKey]Association, len(snap.Associations)),
		bySystem:       make(map[string][]Association),
		retention:      make(map[string]retention.Config, len(snap.Retention)),
	}

	var errs []error
	for _, cfg := range snap.Configurations {
		if _, dup := idx.configurations[cfg.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate configuration %q", cfg.ID))
			continue
		}
		if err := m.registry.ValidateConfiguration(cfg); err != nil {
			errs = append(errs, err)
		}
		idx.configurations[cfg.ID] = cfg
	}

	for _, a := range snap.Associations {
		if a.SystemID == "" {
			errs = append(errs, fmt.Errorf("association of %q without system", a.ConfigurationID))
			continue
		}
		if _, ok := idx.configurations[a.ConfigurationID]; !ok {
			errs = append(errs, fmt.Errorf("association %s/%s: unknown configuration", a.SystemID, a.ConfigurationID))
			continue
		}
		key := assocKey{system: a.SystemID, configuration: a.ConfigurationID}
		if _, dup := idx.associations[key]; dup {
			errs = append(errs, fmt.Errorf("duplicate association %s/%s", a.SystemID, a.ConfigurationID))
			continue
		}
		if a.Policy == (threshold.Policy{}) {
			a.Policy = threshold.DefaultPolicy()
		}
		if err := a.Policy.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("association %s/%s: %w", a.SystemID, a.ConfigurationID, err))
			continue
		}
		idx.associations[key] = a
		idx.bySystem[a.SystemID] = append(idx.bySystem[a.SystemID], a)
	}

	for id, cfg := range snap.Retention {
		if _, ok := idx.configurations[id]; !ok {
			errs = append(errs, fmt.Errorf("retention for unknown configuration %q", id))
			continue
		}
		if err := cfg.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("retention for %s: %w", id, err))
			continue
		}
		idx.retention[id] = cfg
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	for system, list := range idx.bySystem {
		sort.Slice(list, func(i, j int) bool { return list[i].ConfigurationID < list[j].ConfigurationID })
		idx.systems = append(idx.systems, system)
	}
	sort.Strings(idx.systems)
	return idx, nil
}

func (m *Memory) Configuration(id string) (probe.Configuration, error) {
	cfg, ok := m.current.Load().configurations[id]
	if !ok {
		return probe.Configuration{}, fmt.Errorf("%w: configuration %q", ErrNotFound, id)
	}
	return cfg, nil
}

func (m *Memory) Association(systemID, configurationID string) (Association, error) {
	a, ok := m.current.Load().associations[assocKey{system: systemID, configuration: configurationID}]
	if !ok {
		return Association{}, fmt.Errorf("%w: association %s/%s", ErrNotFound, systemID, configurationID)
	}
	return a, nil
}

func (m *Memory) Associations(systemID string) []Association {
	return append([]Association(nil), m.current.Load().bySystem[systemID]...)
}

func (m *Memory) Systems() []string {
	return append([]string(nil), m.current.Load().systems...)
}

func (m *Memory) RetentionFor(configurationID string) (retention.Config, bool) {
	cfg, ok := m.current.Load().retention[configurationID]
	return cfg, ok
}

var (
	_ Catalog            = (*Memory)(nil)
	_ retention.Policies = (*Memory)(nil)
)
