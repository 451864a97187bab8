// Package control issues HTTP control, status and log requests against a
// single managed checker process, with bounded retry and error translation.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/basoka/fleet/internal/config"
)

const maxErrorBody = 8 << 10

// OperationError reports a remote operation that failed after exhausting
// its retry budget.
type OperationError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsOperationError returns true when err is (or wraps) an OperationError.
func IsOperationError(err error) bool {
	var target *OperationError
	return errors.As(err, &target)
}

// Client performs remote operations against one server at a time. It holds
// no per-server state; callers pass the registry record for each call.
type Client struct {
	httpClient *http.Client
	cfg        config.Config
}

// New builds a client from the run-wide configuration.
func New(cfg config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// do issues one logical operation with the retry contract: up to
// RetryAttempts total attempts, a fixed context-aware backoff between them,
// and an OperationError once the budget is exhausted. Transport failures
// and non-2xx responses both count as retryable.
func (c *Client) do(ctx context.Context, method, endpoint, rawURL string) ([]byte, error) {
	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.once(ctx, method, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		log.Printf("[Control] attempt %d/%d for %s failed: %v", attempt, attempts, endpoint, err)
		if attempt == attempts {
			break
		}
		if waitErr := c.waitBackoff(ctx); waitErr != nil {
			return nil, &OperationError{Endpoint: endpoint, Attempts: attempt, Err: waitErr}
		}
	}
	return nil, &OperationError{Endpoint: endpoint, Attempts: attempts, Err: lastErr}
}

func (c *Client) once(ctx context.Context, method, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, readErrorMessage(resp))
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) waitBackoff(ctx context.Context) error {
	if c.cfg.RetryBackoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.cfg.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func readErrorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(body) == 0 {
		return strings.TrimSpace(resp.Status)
	}
	return strings.TrimSpace(string(body))
}
