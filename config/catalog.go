package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/retention"
	"github.com/jonwraymond/checkops/secret"
	"github.com/jonwraymond/checkops/threshold"
)

// catalogFile is the on-disk layout of the catalog.
type catalogFile struct {
	Configurations []probe.Configuration       `yaml:"configurations"`
	Associations   []associationEntry          `yaml:"associations"`
	Retention      map[string]retention.Config `yaml:"retention"`
}

// associationEntry defaults Enabled to true.
type associationEntry struct {
	ConfigurationID string           `yaml:"configuration"`
	SystemID        string           `yaml:"system"`
	Enabled         *bool            `yaml:"enabled"`
	Policy          threshold.Policy `yaml:"policy"`
}

// LoadCatalog reads the catalog file at path. Structural validation
// against registered plugins happens in catalog.Memory.Replace.
func LoadCatalog(path string) (catalog.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("config: read catalog: %w", err)
	}
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("config: expand env in catalog: %w", err)
	}

	var file catalogFile
	if err := decodeStrict([]byte(expanded), &file); err != nil {
		return catalog.Snapshot{}, fmt.Errorf("config: parse catalog: %w", err)
	}

	snap := catalog.Snapshot{
		Configurations: file.Configurations,
		Associations:   make([]catalog.Association, 0, len(file.Associations)),
		Retention:      file.Retention,
	}
	for i := range snap.Configurations {
		cfg := &snap.Configurations[i]
		if cfg.Config.Data, err = normalize(cfg.Config.Data); err != nil {
			return catalog.Snapshot{}, fmt.Errorf("config: configuration %q: %w", cfg.ID, err)
		}
		for j := range cfg.Collectors {
			entry := &cfg.Collectors[j]
			if entry.Config.Data, err = normalize(entry.Config.Data); err != nil {
				return catalog.Snapshot{}, fmt.Errorf("config: configuration %q collector %q: %w", cfg.ID, entry.ID, err)
			}
		}
	}
	for _, a := range file.Associations {
		enabled := a.Enabled == nil || *a.Enabled
		snap.Associations = append(snap.Associations, catalog.Association{
			ConfigurationID: a.ConfigurationID,
			SystemID:        a.SystemID,
			Enabled:         enabled,
			Policy:          a.Policy,
		})
	}
	return snap, nil
}

// normalize gives YAML-decoded payloads the JSON shapes the schema
// validator and strategies expect (float64 numbers, nested maps).
func normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
