package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/basoka/fleet/internal/config"
	"github.com/basoka/fleet/internal/control"
	"github.com/basoka/fleet/internal/registry"
)

func TestValidateAddress(t *testing.T) {
	valid := []string{"127.0.0.1:8080", "checker-3.internal:9000", "[::1]:80"}
	for _, addr := range valid {
		if err := validateAddress(addr); err != nil {
			t.Fatalf("validateAddress(%q) = %v, want nil", addr, err)
		}
	}

	invalid := []string{"", "localhost", "localhost:", ":8080", "http://host:80"}
	for _, addr := range invalid {
		if err := validateAddress(addr); err == nil {
			t.Fatalf("validateAddress(%q) = nil, want error", addr)
		}
	}
}

func TestOpenStoreSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.RegistryPath = filepath.Join(dir, "servers.json")
	store, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore(file): %v", err)
	}
	defer store.Close()
	if _, ok := store.(*registry.FileStore); !ok {
		t.Fatalf("expected *registry.FileStore, got %T", store)
	}

	cfg.RegistryBackend = config.BackendSQLite
	cfg.RegistryPath = filepath.Join(dir, "registry.db")
	store, err = openStore(cfg)
	if err != nil {
		t.Fatalf("openStore(sqlite): %v", err)
	}
	defer store.Close()
	if _, ok := store.(*registry.SQLiteStore); !ok {
		t.Fatalf("expected *registry.SQLiteStore, got %T", store)
	}
}

func TestActionDataIncludesPIDOnlyWhenKnown(t *testing.T) {
	data := actionData("alpha", control.ActionResult{Outcome: control.OutcomeStarted, PID: 42})
	if data["pid"] != 42 {
		t.Fatalf("expected pid 42, got %v", data["pid"])
	}

	data = actionData("alpha", control.ActionResult{Outcome: control.OutcomeStopped})
	if _, ok := data["pid"]; ok {
		t.Fatal("expected no pid key for unknown pid")
	}
}

func TestFormatterErrorReturnsError(t *testing.T) {
	f := &OutputFormatter{}

	err := f.Error("boom", nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("unexpected error: %v", err)
	}

	cause := errors.New("connection refused")
	err = f.Error("boom", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "boom: ") {
		t.Fatalf("unexpected message: %v", err)
	}
}
