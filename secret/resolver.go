package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const refPrefix = "secretref:"

// Resolver resolves secretref values through registered providers.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver creates a resolver. In strict mode empty secrets are errors.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider), strict: strict}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Resolver) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[provider.Name()] = provider
}

// Close closes every provider.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseSecretRef parses a full reference of the form secretref:<provider>:<ref>.
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	if !strings.HasPrefix(value, refPrefix) {
		return "", "", false
	}
	provider, ref, found := strings.Cut(strings.TrimPrefix(value, refPrefix), ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

// ResolveValue resolves a whole-value reference or any inline references
// in value. Values without references are returned unchanged.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	if !strings.Contains(value, refPrefix) {
		return value, nil
	}
	if provider, ref, ok := ParseSecretRef(value); ok {
		return r.resolveSingle(ctx, provider, ref)
	}
	return r.resolveInline(ctx, value)
}

// ResolveConfig returns a deep copy of cfg with every string value
// resolved. Nested maps and slices are walked.
func (r *Resolver) ResolveConfig(ctx context.Context, cfg map[string]any) (map[string]any, error) {
	if cfg == nil {
		return nil, nil
	}
	out, err := r.resolveAny(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func (r *Resolver) resolveAny(ctx context.Context, v any, path string) (any, error) {
	switch t := v.(type) {
	case string:
		s, err := r.ResolveValue(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		return s, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			resolved, err := r.resolveAny(ctx, item, join(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			resolved, err := r.resolveAny(ctx, item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	}
	return v, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func (r *Resolver) resolveSingle(ctx context.Context, providerName, ref string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, providerName)
	}
	provider, ok := r.providers[providerName]
	if !ok || provider == nil {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, providerName)
	}
	resolved, err := provider.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && resolved == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptySecret, providerName)
	}
	return resolved, nil
}

var inlineRefPattern = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineRefPattern.FindAllStringSubmatchIndex(value, -1)
	out := value
	// Replace from the end so earlier indexes stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolveSingle(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}
