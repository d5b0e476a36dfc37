package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// ConfigProvider loads the effective configuration, starting from defaults.
type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

// RawConfigLoader supplies raw key/value configuration (file, env, flags)
// before typed building.
type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// OptionsResolver merges defaults, loaded configuration, and runtime
// overrides into the final Config.
type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct{}

func (staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < loaded file config < runtime overrides.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.DataResidency) != "" {
		layer["data_residency"] = cfg.DataResidency
	}
	if section := ticketingLayerMap(cfg.Ticketing, includeZero); len(section) > 0 {
		layer["ticketing"] = section
	}
	if section := chatLayerMap(cfg.Chat, includeZero); len(section) > 0 {
		layer["chat"] = section
	}
	if section := endpointLayerMap(cfg.Billing.BaseURL, cfg.Billing.Timeout, includeZero); len(section) > 0 {
		layer["billing"] = section
	}
	if section := endpointLayerMap(cfg.Tracker.BaseURL, cfg.Tracker.Timeout, includeZero); len(section) > 0 {
		layer["tracker"] = section
	}
	return layer
}

func ticketingLayerMap(cfg TicketingConfig, includeZero bool) map[string]any {
	section := map[string]any{}
	setLayerString(section, "base_url", cfg.BaseURL, includeZero)
	setLayerString(section, "user_email", cfg.UserEmail, includeZero)
	setLayerString(section, "api_token", cfg.APIToken, includeZero)
	setLayerString(section, "project_key", cfg.ProjectKey, includeZero)
	setLayerString(section, "assignee_id", cfg.AssigneeID, includeZero)
	setLayerString(section, "dashboard_base_url", cfg.DashboardBaseURL, includeZero)
	setLayerDuration(section, "timeout", cfg.Timeout, includeZero)
	return section
}

func chatLayerMap(cfg ChatConfig, includeZero bool) map[string]any {
	section := map[string]any{}
	setLayerString(section, "bot_token", cfg.BotToken, includeZero)
	setLayerString(section, "channel", cfg.Channel, includeZero)
	setLayerDuration(section, "timeout", cfg.Timeout, includeZero)
	return section
}

func endpointLayerMap(baseURL string, timeout time.Duration, includeZero bool) map[string]any {
	section := map[string]any{}
	setLayerString(section, "base_url", baseURL, includeZero)
	setLayerDuration(section, "timeout", timeout, includeZero)
	return section
}

func setLayerString(section map[string]any, key string, value string, includeZero bool) {
	if includeZero || strings.TrimSpace(value) != "" {
		section[key] = value
	}
}

func setLayerDuration(section map[string]any, key string, value time.Duration, includeZero bool) {
	if includeZero || value > 0 {
		section[key] = value
	}
}
