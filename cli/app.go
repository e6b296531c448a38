package cli

import (
	"path/filepath"

	"wpcompare/cache"
	"wpcompare/compare"
	"wpcompare/config"
	"wpcompare/tools"
	"wpcompare/wporg"
)

// app wires the services every command runs against
type app struct {
	cfg        *config.Config
	client     *wporg.Client
	store      *cache.Store
	comparator *compare.Comparator
}

func newApp(cfg *config.Config) *app {
	client := wporg.NewFromConfig(cfg)
	return &app{
		cfg:        cfg,
		client:     client,
		store:      cache.NewStore(cfg.CacheDir, client),
		comparator: compare.New(compare.DefaultOptions()),
	}
}

func (a *app) registry() *tools.EnhancedRegistry {
	return tools.DefaultEnhancedRegistry(tools.Deps{
		Directory:    a.client,
		Cache:        a.store,
		Comparator:   a.comparator,
		AllowedRoots: a.cfg.AllowedRoots,
	})
}

func (a *app) exportDir() string {
	return filepath.Join(a.cfg.CacheDir, "exports")
}
