// Package apicore talks to the contract registry: it creates best-effort
// tracking sessions and fetches change-impact detail. Both surfaces degrade
// to absence when the registry is unconfigured or unreachable.
package apicore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/transport"
)

type Client struct {
	adapter transport.Adapter
	config  core.TrackerConfig
	logger  core.Logger
	baseURL string
}

func New(adapter transport.Adapter, cfg core.TrackerConfig, logger core.Logger) *Client {
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &Client{
		adapter: adapter,
		config:  cfg,
		logger:  glog.Ensure(logger),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (c *Client) CreateSession(ctx context.Context, input core.CreateSessionInput) (*core.TrackingSession, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("api-core not configured: %w", core.ErrEnrichmentUnavailable)
	}

	body, err := json.Marshal(map[string]any{
		"team_id":        input.TeamID,
		"agent_name":     input.AgentName,
		"priority":       input.Priority,
		"data_residency": input.DataResidency,
		"prompt":         input.Prompt,
		"tags":           input.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("apicore: encode session payload: %w", err)
	}

	res, err := c.adapter.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/api/v1/sessions",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("apicore: create session returned status %d", res.StatusCode)
	}

	var created createSessionResponse
	if err := json.Unmarshal(res.Body, &created); err != nil {
		return nil, fmt.Errorf("apicore: decode session response: %w", err)
	}
	return &core.TrackingSession{ID: created.SessionID}, nil
}

func (c *Client) ChangeDetail(ctx context.Context, changeID int64) (*core.ChangeDetail, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("api-core not configured: %w", core.ErrEnrichmentUnavailable)
	}

	res, err := c.adapter.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/api/v1/contracts/changes/%d", c.baseURL, changeID),
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("apicore: change detail returned status %d", res.StatusCode)
	}

	var detail core.ChangeDetail
	if err := json.Unmarshal(res.Body, &detail); err != nil {
		return nil, fmt.Errorf("apicore: decode change detail: %w", err)
	}
	if detail.ChangeID == 0 {
		detail.ChangeID = changeID
	}
	return &detail, nil
}

var (
	_ core.SessionTracker     = (*Client)(nil)
	_ core.ChangeDetailSource = (*Client)(nil)
)
