package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/basoka/fleet/internal/registry"
)

// StatusUnknown is reported when the remote answers but the payload cannot
// be interpreted.
const StatusUnknown = "unknown"

// ProcessInfo describes the checker process on the remote.
type ProcessInfo struct {
	Running bool `json:"running"`
	PID     int  `json:"pid,omitempty"`
}

// LoginStats carries the remote's login attempt counters.
type LoginStats struct {
	SuccessCount  int    `json:"success_count"`
	FailedCount   int    `json:"failed_count"`
	RetryCount    int    `json:"retry_count"`
	TotalAttempts int    `json:"total_attempts"`
	LastUpdated   string `json:"last_updated,omitempty"`
}

// Status is the parsed status payload of one server.
type Status struct {
	ServerStatus string      `json:"server_status"`
	Process      ProcessInfo `json:"process_info"`
	Logins       LoginStats  `json:"login_stats"`
	Timestamp    string      `json:"timestamp,omitempty"`
}

// Status fetches and parses the status endpoint. A malformed payload
// degrades to StatusUnknown instead of failing; transport failures surface
// as an OperationError after retries exhaust.
func (c *Client) Status(ctx context.Context, srv registry.Server) (Status, error) {
	body, err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.Status, c.cfg.URLFor(srv.Address, c.cfg.Endpoints.Status))
	if err != nil {
		return Status{}, err
	}

	var st Status
	if err := json.Unmarshal(body, &st); err != nil {
		log.Printf("[Control] malformed status payload from %q: %v", srv.Name, err)
		return Status{ServerStatus: StatusUnknown}, nil
	}
	if st.ServerStatus == "" {
		st.ServerStatus = StatusUnknown
	}
	return st, nil
}

// IsRunning derives the process state from the status payload; there is no
// separate endpoint for it.
func (c *Client) IsRunning(ctx context.Context, srv registry.Server) (bool, error) {
	st, err := c.Status(ctx, srv)
	if err != nil {
		return false, err
	}
	return st.Process.Running, nil
}

// Summary renders the status as a single report line.
func (s Status) Summary() string {
	state := "process stopped"
	if s.Process.Running {
		state = "process running"
		if s.Process.PID > 0 {
			state = fmt.Sprintf("process running (pid %d)", s.Process.PID)
		}
	}
	summary := fmt.Sprintf("%s, %s", s.ServerStatus, state)
	if s.Logins.TotalAttempts > 0 {
		summary += fmt.Sprintf(", logins %d/%d ok", s.Logins.SuccessCount, s.Logins.TotalAttempts)
	}
	return summary
}

// Statistics is the login counter view of a status payload. SuccessRate is
// nil when no attempts were recorded.
type Statistics struct {
	SuccessCount  int
	FailedCount   int
	RetryCount    int
	TotalAttempts int
	SuccessRate   *float64
	LastUpdated   string
}

// Statistics re-derives login counters from the status payload and computes
// the success rate.
func (c *Client) Statistics(ctx context.Context, srv registry.Server) (Statistics, error) {
	st, err := c.Status(ctx, srv)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		SuccessCount:  st.Logins.SuccessCount,
		FailedCount:   st.Logins.FailedCount,
		RetryCount:    st.Logins.RetryCount,
		TotalAttempts: st.Logins.TotalAttempts,
		LastUpdated:   st.Logins.LastUpdated,
	}
	if stats.TotalAttempts > 0 {
		rate := float64(stats.SuccessCount) / float64(stats.TotalAttempts) * 100
		stats.SuccessRate = &rate
	}
	return stats, nil
}

// String renders the statistics as a report line.
func (s Statistics) String() string {
	if s.TotalAttempts == 0 {
		return "no login attempts recorded"
	}
	line := fmt.Sprintf("logins: %d ok, %d failed, %d retried of %d total (success rate %.1f%%)",
		s.SuccessCount, s.FailedCount, s.RetryCount, s.TotalAttempts, *s.SuccessRate)
	if s.LastUpdated != "" {
		line += ", last updated " + s.LastUpdated
	}
	return line
}
