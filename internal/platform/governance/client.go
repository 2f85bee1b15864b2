// Package governance holds the client for the external authority that
// must approve irreversible lifecycle events before they commit.
package governance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// EventDescriptor describes the proposed irreversible event submitted for
// authorization.
type EventDescriptor struct {
	EventType string    `json:"event_type"`
	ActorID   uuid.UUID `json:"actor_id"`
	Realm     string    `json:"realm,omitempty"`
	NetKarma  float64   `json:"net_karma"`
	Destiny   float64   `json:"destiny"`
	Threshold float64   `json:"threshold"`
}

// Authorizer is the synchronous governance call. Implementations return
// (false, nil) for an explicit denial; errors are reserved for transport
// failures, which also abort the transition.
type Authorizer interface {
	Authorize(ctx context.Context, event EventDescriptor) (bool, error)
}

// Client is an HTTP Authorizer posting the event descriptor to a webhook.
// The call blocks up to the configured timeout; timeout aborts the
// lifecycle transition before anything is persisted.
type Client struct {
	url     string
	timeout time.Duration
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient creates a governance webhook client.
// If logger is nil, a default logger will be used.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		url:     url,
		timeout: timeout,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "governance_client")),
	}
}

// Ensure Client implements Authorizer
var _ Authorizer = (*Client)(nil)

// Authorize implements Authorizer.
// A 200 response carrying {"authorized": true} approves the event; any
// other response body or status is a denial or an error.
func (c *Client) Authorize(ctx context.Context, event EventDescriptor) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("failed to marshal event descriptor: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build authorization request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("requesting governance authorization",
		slog.String("event_type", event.EventType),
		slog.String("actor_id", event.ActorID.String()))

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("governance call failed",
			slog.String("error", err.Error()),
			slog.String("event_type", event.EventType))
		return false, fmt.Errorf("governance call failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Error("failed to close response body", slog.String("error", closeErr.Error()))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("governance returned non-OK status",
			slog.Int("status", resp.StatusCode),
			slog.String("event_type", event.EventType))
		return false, nil
	}

	var decision struct {
		Authorized bool   `json:"authorized"`
		Reason     string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decision); err != nil {
		return false, fmt.Errorf("failed to decode authorization response: %w", err)
	}

	if !decision.Authorized {
		c.logger.Info("governance denied event",
			slog.String("event_type", event.EventType),
			slog.String("actor_id", event.ActorID.String()),
			slog.String("reason", decision.Reason))
	}
	return decision.Authorized, nil
}
