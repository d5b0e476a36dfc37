// Package jira implements the ticketing sink against the Jira Cloud REST API
// v3 using basic auth.
package jira

import (
	"context"
	"encoding/base64"
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
	config  core.TicketingConfig
	logger  core.Logger
	baseURL string
	headers map[string]string
}

func New(adapter transport.Adapter, cfg core.TicketingConfig, logger core.Logger) (*Client, error) {
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("jira: base url and api token are required")
	}
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(fmt.Sprintf("%s:%s", cfg.UserEmail, cfg.APIToken)),
	)
	return &Client{
		adapter: adapter,
		config:  cfg,
		logger:  glog.Ensure(logger),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		headers: map[string]string{
			"Authorization": "Basic " + credentials,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		},
	}, nil
}

type createIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

func (c *Client) CreateTicket(ctx context.Context, fields core.TicketFields) (core.CreatedTicket, error) {
	payload := map[string]any{"fields": c.issueFields(fields)}
	body, err := json.Marshal(payload)
	if err != nil {
		return core.CreatedTicket{}, fmt.Errorf("jira: encode create issue payload: %w", err)
	}

	res, err := c.adapter.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/rest/api/3/issue",
		Headers: c.headers,
		Body:    body,
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return core.CreatedTicket{}, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return core.CreatedTicket{}, fmt.Errorf("jira: create issue returned status %d: %s",
			res.StatusCode, truncateBody(res.Body))
	}

	var created createIssueResponse
	if err := json.Unmarshal(res.Body, &created); err != nil {
		return core.CreatedTicket{}, fmt.Errorf("jira: decode create issue response: %w", err)
	}
	if strings.TrimSpace(created.Key) == "" {
		return core.CreatedTicket{}, fmt.Errorf("jira: create issue response missing key")
	}

	c.logger.Info("jira issue created", "issue_key", created.Key)
	return core.CreatedTicket{
		Key: created.Key,
		URL: c.BrowseURL(created.Key),
	}, nil
}

func (c *Client) AddComment(ctx context.Context, ticketKey string, body map[string]any) error {
	ticketKey = strings.TrimSpace(ticketKey)
	if ticketKey == "" {
		return fmt.Errorf("jira: ticket key is required")
	}
	payload, err := json.Marshal(map[string]any{"body": body})
	if err != nil {
		return fmt.Errorf("jira: encode comment payload: %w", err)
	}

	res, err := c.adapter.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/rest/api/3/issue/%s/comment", c.baseURL, ticketKey),
		Headers: c.headers,
		Body:    payload,
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("jira: add comment to %s returned status %d: %s",
			ticketKey, res.StatusCode, truncateBody(res.Body))
	}

	c.logger.Info("jira comment added", "issue_key", ticketKey)
	return nil
}

// BrowseURL derives the human-facing issue URL. A configured dashboard base
// URL wins over the API base URL, for sites fronted by a vanity domain.
func (c *Client) BrowseURL(ticketKey string) string {
	base := strings.TrimRight(strings.TrimSpace(c.config.DashboardBaseURL), "/")
	if base == "" {
		base = c.baseURL
	}
	return fmt.Sprintf("%s/browse/%s", base, strings.TrimSpace(ticketKey))
}

func (c *Client) issueFields(fields core.TicketFields) map[string]any {
	out := map[string]any{
		"project":   map[string]any{"key": fields.ProjectKey},
		"summary":   fields.Summary,
		"issuetype": map[string]any{"name": "Task"},
		"labels":    fields.Labels,
	}
	if len(fields.Description) > 0 {
		out["description"] = fields.Description
	}
	if strings.TrimSpace(fields.AssigneeID) != "" {
		out["assignee"] = map[string]any{"accountId": fields.AssigneeID}
	}
	return out
}

func truncateBody(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit]
	}
	return text
}

var _ core.TicketingClient = (*Client)(nil)
