package secret

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ProviderConfig declares one provider in checkd.yaml.
//
//	secrets:
//	  providers:
//	    - name: env
//	    - name: file
//	      options: {dir: /run/secrets}
type ProviderConfig struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

// ProviderFactory builds a Provider from a ProviderConfig's options.
type ProviderFactory func(options map[string]any) (Provider, error)

// Registry maps provider names to factories. The env and file providers
// are always present.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry returns a Registry holding the built-in providers.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]ProviderFactory{
		"env":  func(map[string]any) (Provider, error) { return NewEnvProvider(), nil },
		"file": newFileFromOptions,
	}}
}

func newFileFromOptions(options map[string]any) (Provider, error) {
	dir, _ := options["dir"].(string)
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: file provider needs options.dir", ErrInvalidRegistration)
	}
	return NewFileProvider(dir), nil
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return ErrInvalidRegistration
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.factories[name]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateProvider, name)
	}
	r.factories[name] = factory
	return nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Build instantiates one provider per entry, in order. Naming the same
// provider twice is an error since refs address providers by name.
func (r *Registry) Build(configs []ProviderConfig) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(configs))
	providers := make([]Provider, 0, len(configs))
	for i, pc := range configs {
		name := strings.TrimSpace(pc.Name)
		factory, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("secret provider %d: %w: %q", i, ErrProviderNotRegistered, pc.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("secret provider %d: %w: %q", i, ErrDuplicateProvider, name)
		}
		seen[name] = true

		p, err := factory(pc.Options)
		if err != nil {
			return nil, fmt.Errorf("secret provider %q: %w", name, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}
