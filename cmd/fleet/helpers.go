package main

import (
	"fmt"
	"net"

	"github.com/basoka/fleet/internal/config"
	"github.com/basoka/fleet/internal/control"
	"github.com/basoka/fleet/internal/registry"
)

// app bundles the per-invocation runtime: effective configuration, the
// registry over its configured store, and the control client.
type app struct {
	cfg    config.Config
	reg    *registry.Registry
	client *control.Client
	store  registry.Store
}

func openApp() (*app, error) {
	cfg := config.Load()
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		reg:    registry.New(store),
		client: control.New(cfg),
		store:  store,
	}, nil
}

func (a *app) close() {
	a.store.Close()
}

func openStore(cfg config.Config) (registry.Store, error) {
	switch cfg.RegistryBackend {
	case config.BackendSQLite:
		return registry.OpenSQLiteStore(cfg.StorePath())
	default:
		return registry.NewFileStore(cfg.StorePath()), nil
	}
}

// validateAddress checks that the operator supplied a host:port pair.
func validateAddress(address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("expected host:port, got %q", address)
	}
	if host == "" || port == "" {
		return fmt.Errorf("expected host:port, got %q", address)
	}
	return nil
}
