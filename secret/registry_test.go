package secret

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistry_Names(t *testing.T) {
	if got := NewRegistry().Names(); !slices.Equal(got, []string{"env", "file"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestRegistry_Build(t *testing.T) {
	tests := []struct {
		name      string
		configs   []ProviderConfig
		wantNames []string
		wantErr   error
	}{
		{"none", nil, []string{}, nil},
		{"env only", []ProviderConfig{{Name: "env"}}, []string{"env"}, nil},
		{"env then file", []ProviderConfig{{Name: "env"}, {Name: "file", Options: map[string]any{"dir": "/run/secrets"}}}, []string{"env", "file"}, nil},
		{"file without dir", []ProviderConfig{{Name: "file"}}, nil, ErrInvalidRegistration},
		{"unknown", []ProviderConfig{{Name: "vault"}}, nil, ErrProviderNotRegistered},
		{"twice", []ProviderConfig{{Name: "env"}, {Name: " env"}}, nil, ErrDuplicateProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := NewRegistry().Build(tt.configs)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			names := make([]string, 0, len(providers))
			for _, p := range providers {
				names = append(names, p.Name())
			}
			if !slices.Equal(names, tt.wantNames) {
				t.Errorf("providers = %v, want %v", names, tt.wantNames)
			}
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	factory := func(map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil }

	tests := []struct {
		name    string
		reg     string
		factory ProviderFactory
		want    error
	}{
		{"ok", "stub", factory, nil},
		{"duplicate", "stub", factory, ErrDuplicateProvider},
		{"builtin clash", "env", factory, ErrDuplicateProvider},
		{"empty name", " ", factory, ErrInvalidRegistration},
		{"nil factory", "x", nil, ErrInvalidRegistration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.reg, tt.factory); !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}

	providers, err := reg.Build([]ProviderConfig{{Name: "stub"}})
	if err != nil || len(providers) != 1 || providers[0].Name() != "stub" {
		t.Errorf("Build(stub) = %v, %v", providers, err)
	}
}
