package core

import (
	"fmt"
	"strings"
	"time"
)

type TicketingConfig struct {
	BaseURL          string        `koanf:"base_url" mapstructure:"base_url"`
	UserEmail        string        `koanf:"user_email" mapstructure:"user_email"`
	APIToken         string        `koanf:"api_token" mapstructure:"api_token"`
	ProjectKey       string        `koanf:"project_key" mapstructure:"project_key"`
	AssigneeID       string        `koanf:"assignee_id" mapstructure:"assignee_id"`
	Timeout          time.Duration `koanf:"timeout" mapstructure:"timeout"`
	DashboardBaseURL string        `koanf:"dashboard_base_url" mapstructure:"dashboard_base_url"`
}

type ChatConfig struct {
	BotToken string        `koanf:"bot_token" mapstructure:"bot_token"`
	Channel  string        `koanf:"channel" mapstructure:"channel"`
	Timeout  time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type BillingConfig struct {
	BaseURL string        `koanf:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type TrackerConfig struct {
	BaseURL string        `koanf:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type Config struct {
	ServiceName   string          `koanf:"service_name" mapstructure:"service_name"`
	DataResidency string          `koanf:"data_residency" mapstructure:"data_residency"`
	Ticketing     TicketingConfig `koanf:"ticketing" mapstructure:"ticketing"`
	Chat          ChatConfig      `koanf:"chat" mapstructure:"chat"`
	Billing       BillingConfig   `koanf:"billing" mapstructure:"billing"`
	Tracker       TrackerConfig   `koanf:"tracker" mapstructure:"tracker"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:   "notification-service",
		DataResidency: "us",
		Ticketing: TicketingConfig{
			ProjectKey: "ACCR",
			Timeout:    15 * time.Second,
		},
		Chat: ChatConfig{
			Timeout: 10 * time.Second,
		},
		Billing: BillingConfig{
			Timeout: 15 * time.Second,
		},
		Tracker: TrackerConfig{
			Timeout: 15 * time.Second,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Ticketing.ProjectKey) == "" {
		return fmt.Errorf("core: ticketing.project_key is required")
	}
	if c.Ticketing.Timeout <= 0 {
		return fmt.Errorf("core: ticketing.timeout must be positive")
	}
	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("core: chat.timeout must be positive")
	}
	return nil
}
