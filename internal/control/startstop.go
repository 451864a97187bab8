package control

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/basoka/fleet/internal/registry"
)

// Outcome is the tri-state result of a start or stop request.
type Outcome string

const (
	OutcomeStarted        Outcome = "started"
	OutcomeAlreadyRunning Outcome = "already_running"
	OutcomeStopped        Outcome = "stopped"
	OutcomeNotRunning     Outcome = "not_running"
	OutcomeFailed         Outcome = "failed"
)

// ActionResult is the parsed outcome of a start or stop request. A Failed
// outcome is a remote-reported refusal, distinct from the transport
// OperationError returned when retries exhaust.
type ActionResult struct {
	Outcome Outcome
	PID     int
	Message string
}

type actionPayload struct {
	Status  string `json:"status"`
	PID     int    `json:"pid"`
	Message string `json:"message"`
}

// Start asks the remote to start its checker process. Success (started or
// already running) sets the caller's in-memory Running flag; persisting the
// flag is the caller's concern.
func (c *Client) Start(ctx context.Context, srv *registry.Server) (ActionResult, error) {
	body, err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.Start, c.cfg.URLFor(srv.Address, c.cfg.Endpoints.Start))
	if err != nil {
		return ActionResult{}, err
	}

	var payload actionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// The remote accepted the request; report started despite the
		// unreadable body.
		srv.Running = true
		return ActionResult{Outcome: OutcomeStarted, Message: "unrecognized response payload"}, nil
	}

	switch payload.Status {
	case "started":
		srv.Running = true
		return ActionResult{Outcome: OutcomeStarted, PID: payload.PID, Message: payload.Message}, nil
	case "already_running":
		srv.Running = true
		return ActionResult{Outcome: OutcomeAlreadyRunning, PID: payload.PID, Message: payload.Message}, nil
	default:
		return ActionResult{Outcome: OutcomeFailed, Message: failureMessage(payload)}, nil
	}
}

// Stop asks the remote to stop its checker process. Success (stopped or not
// running) clears the caller's in-memory Running flag.
func (c *Client) Stop(ctx context.Context, srv *registry.Server) (ActionResult, error) {
	body, err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.Stop, c.cfg.URLFor(srv.Address, c.cfg.Endpoints.Stop))
	if err != nil {
		return ActionResult{}, err
	}

	var payload actionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		srv.Running = false
		return ActionResult{Outcome: OutcomeStopped, Message: "unrecognized response payload"}, nil
	}

	switch payload.Status {
	case "stopped":
		srv.Running = false
		return ActionResult{Outcome: OutcomeStopped, Message: payload.Message}, nil
	case "not_running":
		srv.Running = false
		return ActionResult{Outcome: OutcomeNotRunning, Message: payload.Message}, nil
	default:
		return ActionResult{Outcome: OutcomeFailed, Message: failureMessage(payload)}, nil
	}
}

func failureMessage(payload actionPayload) string {
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Status != "" {
		return payload.Status
	}
	return "unknown failure"
}
