// Package billing fetches the platform billing summary used to enrich
// recovery reports. The source is optional: an unconfigured or unreachable
// billing service reads as plain absence, never as a delivery failure.
package billing

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
	config  core.BillingConfig
	logger  core.Logger
	baseURL string
}

func New(adapter transport.Adapter, cfg core.BillingConfig, logger core.Logger) *Client {
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

func (c *Client) Summary(ctx context.Context) (*core.BillingSummary, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("billing service not configured: %w", core.ErrEnrichmentUnavailable)
	}

	res, err := c.adapter.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/api/v1/billing/summary",
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("billing: summary returned status %d", res.StatusCode)
	}

	var summary core.BillingSummary
	if err := json.Unmarshal(res.Body, &summary); err != nil {
		return nil, fmt.Errorf("billing: decode summary: %w", err)
	}
	return &summary, nil
}

var _ core.BillingSource = (*Client)(nil)
