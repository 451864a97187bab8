// Package fleet applies control operations across every registered server,
// collecting per-server outcomes without letting one failure abort the batch.
package fleet

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/basoka/fleet/internal/control"
	"github.com/basoka/fleet/internal/registry"
)

// Coordinator fans operations out over the registry's working set.
type Coordinator struct {
	registry *registry.Registry
	client   *control.Client
}

// New builds a coordinator over the given registry and control client.
func New(reg *registry.Registry, client *control.Client) *Coordinator {
	return &Coordinator{registry: reg, client: client}
}

type sweepOutcome struct {
	line    string
	setFlag bool
	running bool
}

// fanOut runs fn once per server concurrently and joins before returning.
// Each target is an independent network peer; outcomes land at the server's
// index so reports keep registry listing order.
func fanOut(servers []registry.Server, fn func(i int, srv registry.Server)) {
	var wg sync.WaitGroup
	for i := range servers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn(i, servers[i])
		}(i)
	}
	wg.Wait()
}

// StartAll starts every registered server and returns one report line per
// server in listing order. Individual failures become report lines, never
// errors. Refreshed running flags are persisted in a single write after the
// sweep joins.
func (c *Coordinator) StartAll(ctx context.Context) ([]string, error) {
	servers, err := c.registry.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, nil
	}

	outcomes := make([]sweepOutcome, len(servers))
	fanOut(servers, func(i int, srv registry.Server) {
		res, err := c.client.Start(ctx, &srv)
		switch {
		case err != nil:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("Failed to start %q: %v", srv.Name, err)}
		case res.Outcome == control.OutcomeFailed:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("Failed to start %q: %s", srv.Name, res.Message)}
		case res.Outcome == control.OutcomeAlreadyRunning:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("%q already running", srv.Name), setFlag: true, running: true}
		default:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("Started %q", srv.Name), setFlag: true, running: true}
		}
	})

	return c.finishSweep(ctx, servers, outcomes), nil
}

// StopAll is the stop counterpart of StartAll.
func (c *Coordinator) StopAll(ctx context.Context) ([]string, error) {
	servers, err := c.registry.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, nil
	}

	outcomes := make([]sweepOutcome, len(servers))
	fanOut(servers, func(i int, srv registry.Server) {
		res, err := c.client.Stop(ctx, &srv)
		switch {
		case err != nil:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("Failed to stop %q: %v", srv.Name, err)}
		case res.Outcome == control.OutcomeFailed:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("Failed to stop %q: %s", srv.Name, res.Message)}
		case res.Outcome == control.OutcomeNotRunning:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("%q was not running", srv.Name), setFlag: true, running: false}
		default:
			outcomes[i] = sweepOutcome{line: fmt.Sprintf("Stopped %q", srv.Name), setFlag: true, running: false}
		}
	})

	return c.finishSweep(ctx, servers, outcomes), nil
}

// finishSweep persists refreshed running flags (successful targets only)
// and collects the ordered report. The flag refresh is best effort: a write
// failure is logged, not surfaced, since the flags are only a cache.
func (c *Coordinator) finishSweep(ctx context.Context, servers []registry.Server, outcomes []sweepOutcome) []string {
	flags := make(map[string]bool)
	lines := make([]string, len(outcomes))
	for i, o := range outcomes {
		lines[i] = o.line
		if o.setFlag {
			flags[servers[i].Name] = o.running
		}
	}
	if len(flags) > 0 {
		if err := c.registry.SetRunningAll(ctx, flags); err != nil {
			log.Printf("[Fleet] failed to persist running flags: %v", err)
		}
	}
	return lines
}

// StatusAll queries every registered server and returns one summary line
// per server in listing order. Read-only: no registry write.
func (c *Coordinator) StatusAll(ctx context.Context) ([]string, error) {
	servers, err := c.registry.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]string, len(servers))
	fanOut(servers, func(i int, srv registry.Server) {
		st, err := c.client.Status(ctx, srv)
		if err != nil {
			lines[i] = fmt.Sprintf("%s: %v", srv.Name, err)
			return
		}
		lines[i] = fmt.Sprintf("%s: %s", srv.Name, st.Summary())
	})
	return lines, nil
}

// RunningAll reports the live process state of every registered server.
func (c *Coordinator) RunningAll(ctx context.Context) ([]string, error) {
	servers, err := c.registry.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]string, len(servers))
	fanOut(servers, func(i int, srv registry.Server) {
		running, err := c.client.IsRunning(ctx, srv)
		if err != nil {
			lines[i] = fmt.Sprintf("%s: %v", srv.Name, err)
			return
		}
		state := "stopped"
		if running {
			state = "running"
		}
		lines[i] = fmt.Sprintf("%s: %s", srv.Name, state)
	})
	return lines, nil
}
