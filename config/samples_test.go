package config

import (
	"testing"

	"github.com/jonwraymond/checkops/catalog"
	"github.com/jonwraymond/checkops/plugins"
	"github.com/jonwraymond/checkops/probe"
)

func TestSampleFiles(t *testing.T) {
	t.Setenv("CHECKD_DATABASE_URL", "postgres://checkd@db/checkd")
	t.Setenv("CHECKD_JWT_SECRET", "sample-secret-sample-secret-sample")

	cfg, err := Load("../configs/checkd.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != StorePostgres || !cfg.Store.Migrate {
		t.Errorf("store = %+v", cfg.Store)
	}
	if got := len(cfg.Secrets.ProviderConfigs()); got != 2 {
		t.Errorf("secret providers = %d, want 2", got)
	}

	snap, err := LoadCatalog("../configs/catalog.yaml")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	reg := probe.NewRegistry()
	if err := plugins.RegisterAll(reg, plugins.Options{}); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if err := catalog.NewMemory(reg).Replace(snap); err != nil {
		t.Fatalf("sample catalog rejected: %v", err)
	}
}
