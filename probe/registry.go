package probe

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/checkops/assertion"
)

// Registry maps strategy and collector ids to implementations.
// Plugins register at startup; lookups are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	collectors map[string]Collector
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		collectors: make(map[string]Collector),
	}
}

// RegisterStrategy adds s under its Meta().ID.
func (r *Registry) RegisterStrategy(s Strategy) error {
	id := s.Meta().ID
	if id == "" || s.ConfigSchema() == nil || s.ResultSchema() == nil {
		return fmt.Errorf("%w: strategy %q needs an id and both schemas", ErrInvalidConfiguration, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStrategy, id)
	}
	r.strategies[id] = s
	return nil
}

// RegisterCollector adds c under its qualified id. Its plugin must already
// be registered as a strategy.
func (r *Registry) RegisterCollector(c Collector) error {
	meta := c.Meta()
	if meta.ID == "" || c.ConfigSchema() == nil || c.ResultSchema() == nil {
		return fmt.Errorf("%w: collector %q needs an id and both schemas", ErrInvalidConfiguration, meta.QualifiedID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[meta.PluginID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, meta.QualifiedID())
	}
	fqid := meta.QualifiedID()
	if _, ok := r.collectors[fqid]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCollector, fqid)
	}
	r.collectors[fqid] = c
	return nil
}

// Strategy returns the strategy registered under id.
func (r *Registry) Strategy(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[id]
	if !ok {
		return nil, &UnknownStrategyError{ID: id}
	}
	return s, nil
}

// Collector returns the collector registered under the qualified id fqid.
func (r *Registry) Collector(fqid string) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[fqid]
	if !ok {
		return nil, &UnknownCollectorError{ID: fqid}
	}
	return c, nil
}

// Strategies returns the metadata of every strategy sorted by id.
func (r *Registry) Strategies() []Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Meta, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s.Meta())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Collectors returns the metadata of pluginID's collectors sorted by id.
func (r *Registry) Collectors(pluginID string) []CollectorMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []CollectorMeta
	for _, c := range r.collectors {
		if m := c.Meta(); m.PluginID == pluginID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidateConfiguration checks cfg against the registered plugins. It
// reports every problem found, joined.
func (r *Registry) ValidateConfiguration(cfg Configuration) error {
	if cfg.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidConfiguration)
	}
	s, err := r.Strategy(cfg.StrategyID)
	if err != nil {
		return fmt.Errorf("configuration %s: %w", cfg.ID, err)
	}

	var errs []error
	if _, err := s.ConfigSchema().Load(cfg.Config); err != nil {
		errs = append(errs, err)
	}
	if err := assertion.Validate(cfg.Assertions); err != nil {
		errs = append(errs, err)
	}
	if _, ok := s.(Prober); !ok {
		if len(cfg.Assertions) > 0 {
			errs = append(errs, fmt.Errorf("%w: strategy %s has no probe result to assert on",
				ErrInvalidConfiguration, cfg.StrategyID))
		}
		if len(cfg.Collectors) == 0 {
			errs = append(errs, fmt.Errorf("%w: strategy %s runs nothing without collectors",
				ErrInvalidConfiguration, cfg.StrategyID))
		}
	}

	seen := make(map[string]bool, len(cfg.Collectors))
	used := make(map[string]int, len(cfg.Collectors))
	for _, entry := range cfg.Collectors {
		if entry.ID == "" {
			errs = append(errs, fmt.Errorf("%w: collector entry without id", ErrInvalidConfiguration))
			continue
		}
		if seen[entry.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate collector instance %q", ErrInvalidConfiguration, entry.ID))
		}
		seen[entry.ID] = true

		c, err := r.Collector(entry.CollectorID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		meta := c.Meta()
		if meta.PluginID != cfg.StrategyID {
			errs = append(errs, fmt.Errorf("%w: collector %s does not belong to strategy %s",
				ErrInvalidConfiguration, entry.CollectorID, cfg.StrategyID))
		}
		used[entry.CollectorID]++
		if used[entry.CollectorID] == 2 && !meta.AllowMultiple {
			errs = append(errs, fmt.Errorf("%w: collector %s allows a single instance",
				ErrInvalidConfiguration, entry.CollectorID))
		}
		if _, err := c.ConfigSchema().Load(entry.Config); err != nil {
			errs = append(errs, fmt.Errorf("collector %s: %w", entry.ID, err))
		}
		if err := assertion.Validate(entry.Assertions); err != nil {
			errs = append(errs, fmt.Errorf("collector %s: %w", entry.ID, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("configuration %s: %w", cfg.ID, err)
	}
	return nil
}
