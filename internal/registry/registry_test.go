package registry

import (
	"context"
	"path/filepath"
	"testing"
)

// openTestStores returns one store per backend so every registry test runs
// against both implementations.
func openTestStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := OpenSQLiteStore(filepath.Join(dir, "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "servers.json")),
		"sqlite": sqliteStore,
	}
}

func TestAddThenGet(t *testing.T) {
	for backend, store := range openTestStores(t) {
		t.Run(backend, func(t *testing.T) {
			reg := New(store)
			ctx := context.Background()

			if err := reg.Add(ctx, "checker-1", "10.0.0.1:8080"); err != nil {
				t.Fatal(err)
			}

			srv, ok, err := reg.Get(ctx, "checker-1")
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("expected server to exist")
			}
			if srv.Address != "10.0.0.1:8080" {
				t.Fatalf("expected address 10.0.0.1:8080, got %q", srv.Address)
			}
			if srv.Running {
				t.Fatal("expected running=false on a fresh record")
			}
		})
	}
}

func TestAddOverwritesLastWriteWins(t *testing.T) {
	for backend, store := range openTestStores(t) {
		t.Run(backend, func(t *testing.T) {
			reg := New(store)
			ctx := context.Background()

			if err := reg.Add(ctx, "checker-1", "10.0.0.1:8080"); err != nil {
				t.Fatal(err)
			}
			if err := reg.Add(ctx, "checker-1", "10.0.0.2:9090"); err != nil {
				t.Fatal(err)
			}

			srv, ok, err := reg.Get(ctx, "checker-1")
			if err != nil || !ok {
				t.Fatalf("get failed: ok=%v err=%v", ok, err)
			}
			if srv.Address != "10.0.0.2:9090" {
				t.Fatalf("expected last write to win, got %q", srv.Address)
			}
		})
	}
}

func TestDeleteThenGetAbsent(t *testing.T) {
	for backend, store := range openTestStores(t) {
		t.Run(backend, func(t *testing.T) {
			reg := New(store)
			ctx := context.Background()

			if err := reg.Add(ctx, "checker-1", "10.0.0.1:8080"); err != nil {
				t.Fatal(err)
			}
			if err := reg.Delete(ctx, "checker-1"); err != nil {
				t.Fatal(err)
			}

			if _, ok, err := reg.Get(ctx, "checker-1"); err != nil || ok {
				t.Fatalf("expected absent record, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestDeleteAbsentIsNoOp(t *testing.T) {
	for backend, store := range openTestStores(t) {
		t.Run(backend, func(t *testing.T) {
			reg := New(store)
			ctx := context.Background()

			if err := reg.Delete(ctx, "never-added"); err != nil {
				t.Fatalf("deleting an absent name must not fail: %v", err)
			}
			if _, ok, _ := reg.Get(ctx, "never-added"); ok {
				t.Fatal("expected absent record")
			}
		})
	}
}

func TestListReturnsAllNames(t *testing.T) {
	for backend, store := range openTestStores(t) {
		t.Run(backend, func(t *testing.T) {
			reg := New(store)
			ctx := context.Background()

			added := []string{"gamma", "alpha", "beta"}
			for i, name := range added {
				if err := reg.Add(ctx, name, "10.0.0.1:8080"); err != nil {
					t.Fatalf("add %d: %v", i, err)
				}
			}

			names, err := reg.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(names) != len(added) {
				t.Fatalf("expected %d names, got %d", len(added), len(names))
			}
			// List is sorted for deterministic bulk iteration.
			for i, want := range []string{"alpha", "beta", "gamma"} {
				if names[i] != want {
					t.Fatalf("names[%d] = %q, want %q", i, names[i], want)
				}
			}
		})
	}
}

func TestSnapshotOrderMatchesList(t *testing.T) {
	for backend, store := range openTestStores(t) {
		t.Run(backend, func(t *testing.T) {
			reg := New(store)
			ctx := context.Background()

			for _, name := range []string{"b", "a", "c"} {
				if err := reg.Add(ctx, name, name+":1"); err != nil {
					t.Fatal(err)
				}
			}

			servers, err := reg.Snapshot(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(servers) != 3 {
				t.Fatalf("expected 3 servers, got %d", len(servers))
			}
			for i, want := range []string{"a", "b", "c"} {
				if servers[i].Name != want {
					t.Fatalf("servers[%d].Name = %q, want %q", i, servers[i].Name, want)
				}
				if servers[i].Address != want+":1" {
					t.Fatalf("servers[%d].Address = %q", i, servers[i].Address)
				}
			}
		})
	}
}

func TestSetRunningAll(t *testing.T) {
	for backend, store := range openTestStores(t) {
		t.Run(backend, func(t *testing.T) {
			reg := New(store)
			ctx := context.Background()

			if err := reg.Add(ctx, "up", "a:1"); err != nil {
				t.Fatal(err)
			}
			if err := reg.Add(ctx, "down", "b:2"); err != nil {
				t.Fatal(err)
			}

			err := reg.SetRunningAll(ctx, map[string]bool{
				"up":           true,
				"unregistered": true, // must be skipped, not created
			})
			if err != nil {
				t.Fatal(err)
			}

			srv, ok, _ := reg.Get(ctx, "up")
			if !ok || !srv.Running {
				t.Fatalf("expected up to be running, got %+v ok=%v", srv, ok)
			}
			srv, ok, _ = reg.Get(ctx, "down")
			if !ok || srv.Running {
				t.Fatalf("expected down to stay stopped, got %+v ok=%v", srv, ok)
			}
			if _, ok, _ := reg.Get(ctx, "unregistered"); ok {
				t.Fatal("flag refresh must not create records")
			}
		})
	}
}
