// opa/opa.go
package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	auth_errors "github.com/workfloworchestrator/oauth2-filter/errors"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
)

// Result is the policy agent's answer to a decision query. DecisionID
// identifies the decision in the agent's own logs and is surfaced to
// the caller on a denial.
type Result struct {
	Result     bool   `json:"result"`
	DecisionID string `json:"decision_id"`
}

// Client delegates authorization decisions to an Open Policy Agent
// instance over HTTP.
type Client struct {
	httpClient *http.Client
	url        string
}

func NewClient(url string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		url:        url,
	}
}

// Decide posts the input document to the policy agent and returns its
// verdict. An unreachable or misbehaving agent yields
// ErrPolicyAgentUnavailable; the caller decides the failure direction.
func (c *Client) Decide(ctx context.Context, input map[string]any) (*Result, error) {
	payload, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy agent input: %w", err)
	}

	logger.Debug("Posting input json to policy agent", zap.String("url", c.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build policy agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth_errors.ErrPolicyAgentUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", auth_errors.ErrPolicyAgentUnavailable, res.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", auth_errors.ErrPolicyAgentUnavailable, err)
	}
	return &result, nil
}
