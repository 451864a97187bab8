// Package registry maintains the durable mapping of server names to
// addresses. Every operation performs a full read-modify-write against the
// backing store; the registry assumes a single logical writer and provides
// no locking.
package registry

import (
	"context"
	"fmt"
	"sort"
)

// Record is the persisted per-server state. Running is a best-effort cache
// of the last observed process state; the authoritative answer always comes
// from a live status query.
type Record struct {
	Address string `json:"address"`
	Running bool   `json:"running"`
}

// Server is a named record, the unit the control client operates on.
type Server struct {
	Name    string
	Address string
	Running bool
}

// Store abstracts the registry document persistence. Load returns the full
// name→record mapping; Save replaces it. Implementations self-heal a
// missing or corrupt document to an empty mapping instead of failing.
type Store interface {
	Load(ctx context.Context) (map[string]Record, error)
	Save(ctx context.Context, servers map[string]Record) error
	Close() error
}

// Registry provides CRUD over the server mapping on top of a Store.
type Registry struct {
	store Store
}

// New wraps the given store.
func New(store Store) *Registry {
	return &Registry{store: store}
}

// Add inserts or overwrites a server record. Last write wins; the running
// flag resets to false.
func (r *Registry) Add(ctx context.Context, name, address string) error {
	servers, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("registry: add %q: %w", name, err)
	}
	servers[name] = Record{Address: address, Running: false}
	if err := r.store.Save(ctx, servers); err != nil {
		return fmt.Errorf("registry: add %q: %w", name, err)
	}
	return nil
}

// Delete removes a server record. Deleting an absent name is a no-op.
func (r *Registry) Delete(ctx context.Context, name string) error {
	servers, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("registry: delete %q: %w", name, err)
	}
	delete(servers, name)
	if err := r.store.Save(ctx, servers); err != nil {
		return fmt.Errorf("registry: delete %q: %w", name, err)
	}
	return nil
}

// Get returns the named server. A missing name is reported via the boolean,
// never as an error.
func (r *Registry) Get(ctx context.Context, name string) (Server, bool, error) {
	servers, err := r.store.Load(ctx)
	if err != nil {
		return Server{}, false, fmt.Errorf("registry: get %q: %w", name, err)
	}
	rec, ok := servers[name]
	if !ok {
		return Server{}, false, nil
	}
	return Server{Name: name, Address: rec.Address, Running: rec.Running}, true, nil
}

// List returns all registered names, sorted for deterministic iteration.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	servers, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Snapshot returns all servers in List order.
func (r *Registry) Snapshot(ctx context.Context) ([]Server, error) {
	servers, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: snapshot: %w", err)
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Server, 0, len(names))
	for _, name := range names {
		rec := servers[name]
		out = append(out, Server{Name: name, Address: rec.Address, Running: rec.Running})
	}
	return out, nil
}

// SetRunningAll refreshes the running flag for the named servers in a
// single write. Names that are no longer registered are skipped.
func (r *Registry) SetRunningAll(ctx context.Context, flags map[string]bool) error {
	servers, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("registry: refresh running flags: %w", err)
	}
	for name, running := range flags {
		rec, ok := servers[name]
		if !ok {
			continue
		}
		rec.Running = running
		servers[name] = rec
	}
	if err := r.store.Save(ctx, servers); err != nil {
		return fmt.Errorf("registry: refresh running flags: %w", err)
	}
	return nil
}
