// Package slack implements the chat sink against the Slack Web API.
package slack

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

const postMessageURL = "https://slack.com/api/chat.postMessage"

const defaultFallbackText = "Remediation PR notification"

type Client struct {
	adapter transport.Adapter
	config  core.ChatConfig
	logger  core.Logger
	apiURL  string
	headers map[string]string
}

func New(adapter transport.Adapter, cfg core.ChatConfig, logger core.Logger) (*Client, error) {
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	if strings.TrimSpace(cfg.BotToken) == "" || strings.TrimSpace(cfg.Channel) == "" {
		return nil, fmt.Errorf("slack: bot token and channel are required")
	}
	return &Client{
		adapter: adapter,
		config:  cfg,
		logger:  glog.Ensure(logger),
		apiURL:  postMessageURL,
		headers: map[string]string{
			"Authorization": "Bearer " + strings.TrimSpace(cfg.BotToken),
			"Content-Type":  "application/json; charset=utf-8",
		},
	}, nil
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// SendMessage posts to the configured channel. A rejection with error code
// invalid_blocks gets one text-only retry inside the same delivery attempt;
// any other non-ok response is a sink failure.
func (c *Client) SendMessage(ctx context.Context, msg core.ChatMessage) error {
	text := strings.TrimSpace(msg.FallbackText)
	if text == "" {
		text = defaultFallbackText
	}

	payload := map[string]any{
		"channel": c.config.Channel,
		"text":    text,
	}
	if len(msg.Blocks) > 0 {
		payload["blocks"] = msg.Blocks
	}

	res, err := c.post(ctx, payload)
	if err != nil {
		return err
	}
	if !res.OK && len(msg.Blocks) > 0 && res.Error == "invalid_blocks" {
		c.logger.Warn("slack rejected blocks, retrying with text-only fallback",
			"channel", c.config.Channel)
		res, err = c.post(ctx, map[string]any{
			"channel": c.config.Channel,
			"text":    text,
		})
		if err != nil {
			return err
		}
	}
	if !res.OK {
		code := res.Error
		if strings.TrimSpace(code) == "" {
			code = "unknown_error"
		}
		return fmt.Errorf("slack: api error: %s", code)
	}

	c.logger.Info("slack message sent", "channel", c.config.Channel)
	return nil
}

func (c *Client) post(ctx context.Context, payload map[string]any) (postMessageResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return postMessageResponse{}, fmt.Errorf("slack: encode message payload: %w", err)
	}
	res, err := c.adapter.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     c.apiURL,
		Headers: c.headers,
		Body:    body,
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return postMessageResponse{}, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return postMessageResponse{}, fmt.Errorf("slack: post message returned status %d", res.StatusCode)
	}
	var decoded postMessageResponse
	if err := json.Unmarshal(res.Body, &decoded); err != nil {
		return postMessageResponse{}, fmt.Errorf("slack: decode response: %w", err)
	}
	return decoded, nil
}

var _ core.ChatClient = (*Client)(nil)
