package notify

import (
	"context"
	"fmt"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	notifycommand "github.com/goliatone/go-remediation-notify/command"
	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/dispatch"
	"github.com/goliatone/go-remediation-notify/inbound"
	"github.com/goliatone/go-remediation-notify/providers/apicore"
	"github.com/goliatone/go-remediation-notify/providers/billing"
	"github.com/goliatone/go-remediation-notify/providers/jira"
	"github.com/goliatone/go-remediation-notify/providers/slack"
	sqlstore "github.com/goliatone/go-remediation-notify/store/sql"
	"github.com/goliatone/go-remediation-notify/transport"
)

// Commands bundles the go-command wrappers for the two event operations.
type Commands struct {
	ProcessPROpened         *notifycommand.ProcessPROpenedCommand
	ProcessRecoveryComplete *notifycommand.ProcessRecoveryCompleteCommand
}

// Service is the assembled notification relay: the dispatch coordinator wired
// with the bun stores and the provider clients, plus the inbound boundary and
// command wrappers.
type Service struct {
	config   core.Config
	dispatch *dispatch.Service
	inbound  *inbound.Dispatcher
	commands Commands
	factory  *sqlstore.RepositoryFactory
}

type Option func(*builder)

type builder struct {
	persistenceClient any
	httpClient        transport.HTTPDoer
	logger            core.Logger
	loggerProvider    core.LoggerProvider
	metricsRecorder   core.MetricsRecorder
	detailCache       repositorycache.CacheService
	configProvider    core.ConfigProvider
	configResolver    core.OptionsResolver

	eventStore      core.EventStore
	ticketLinkStore core.TicketLinkStore
	ticketing       core.TicketingClient
	chat            core.ChatClient
	billing         core.BillingSource
	changeDetail    core.ChangeDetailSource
	tracker         core.SessionTracker
}

// WithPersistence supplies the database handle the bun stores are built from:
// a *persistence.Client or a *bun.DB.
func WithPersistence(client any) Option {
	return func(b *builder) { b.persistenceClient = client }
}

func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(b *builder) { b.httpClient = client }
}

func WithLogger(logger core.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *builder) { b.loggerProvider = provider }
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *builder) { b.metricsRecorder = recorder }
}

// WithConfigProvider supplies the loader for file or environment
// configuration. Defaults to the cfgx provider over an empty source.
func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *builder) { b.configProvider = provider }
}

// WithConfigResolver overrides how defaults, loaded config, and the runtime
// config passed to New are merged.
func WithConfigResolver(resolver core.OptionsResolver) Option {
	return func(b *builder) { b.configResolver = resolver }
}

// WithChangeDetailCache memoizes change-detail enrichment lookups.
func WithChangeDetailCache(cache repositorycache.CacheService) Option {
	return func(b *builder) { b.detailCache = cache }
}

func WithEventStore(store core.EventStore) Option {
	return func(b *builder) { b.eventStore = store }
}

func WithTicketLinkStore(store core.TicketLinkStore) Option {
	return func(b *builder) { b.ticketLinkStore = store }
}

func WithTicketingClient(client core.TicketingClient) Option {
	return func(b *builder) { b.ticketing = client }
}

func WithChatClient(client core.ChatClient) Option {
	return func(b *builder) { b.chat = client }
}

func WithBillingSource(source core.BillingSource) Option {
	return func(b *builder) { b.billing = source }
}

func WithChangeDetailSource(source core.ChangeDetailSource) Option {
	return func(b *builder) { b.changeDetail = source }
}

func WithSessionTracker(tracker core.SessionTracker) Option {
	return func(b *builder) { b.tracker = tracker }
}

// New assembles the relay. The cfg argument carries runtime overrides; the
// effective configuration is resolved defaults, then provider-loaded config,
// then cfg. Stores come from the supplied persistence handle unless injected
// directly; provider clients are built from their config sections unless
// injected.
func New(cfg core.Config, opts ...Option) (*Service, error) {
	b := builder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&b)
	}

	provider := b.configProvider
	if provider == nil {
		provider = core.NewCfgxConfigProvider(nil)
	}
	defaults := core.DefaultConfig()
	loaded, err := provider.Load(context.Background(), defaults)
	if err != nil {
		return nil, fmt.Errorf("notify: load config: %w", err)
	}
	resolver := b.configResolver
	if resolver == nil {
		resolver = core.GoOptionsResolver{}
	}
	cfg, err = resolver.Resolve(defaults, loaded, cfg)
	if err != nil {
		return nil, fmt.Errorf("notify: resolve config: %w", err)
	}

	var factory *sqlstore.RepositoryFactory
	if (b.eventStore == nil || b.ticketLinkStore == nil) && b.persistenceClient != nil {
		factory = sqlstore.NewRepositoryFactory()
		if err := factory.BuildStores(b.persistenceClient); err != nil {
			return nil, err
		}
		if b.eventStore == nil {
			b.eventStore = factory.EventStore()
		}
		if b.ticketLinkStore == nil {
			b.ticketLinkStore = factory.TicketLinkStore()
		}
	}
	if b.eventStore == nil {
		return nil, fmt.Errorf("notify: an event store or persistence handle is required")
	}

	adapter := transport.NewRESTAdapter(b.httpClient)

	if b.ticketing == nil && cfg.Ticketing.BaseURL != "" && cfg.Ticketing.APIToken != "" {
		client, err := jira.New(adapter, cfg.Ticketing, b.logger)
		if err != nil {
			return nil, err
		}
		b.ticketing = client
	}
	if b.chat == nil && cfg.Chat.BotToken != "" && cfg.Chat.Channel != "" {
		client, err := slack.New(adapter, cfg.Chat, b.logger)
		if err != nil {
			return nil, err
		}
		b.chat = client
	}
	if b.billing == nil {
		b.billing = billing.New(adapter, cfg.Billing, b.logger)
	}

	registry := apicore.New(adapter, cfg.Tracker, b.logger)
	if b.tracker == nil {
		b.tracker = registry
	}
	if b.changeDetail == nil {
		b.changeDetail = registry
	}
	if b.detailCache != nil {
		cached, err := apicore.NewCachedChangeDetailSource(b.changeDetail, b.detailCache)
		if err != nil {
			return nil, err
		}
		b.changeDetail = cached
	}

	dispatchService, err := dispatch.NewService(cfg,
		dispatch.WithLogger(b.logger),
		dispatch.WithLoggerProvider(b.loggerProvider),
		dispatch.WithMetricsRecorder(b.metricsRecorder),
		dispatch.WithEventStore(b.eventStore),
		dispatch.WithTicketLinkStore(b.ticketLinkStore),
		dispatch.WithTicketingClient(b.ticketing),
		dispatch.WithChatClient(b.chat),
		dispatch.WithBillingSource(b.billing),
		dispatch.WithChangeDetailSource(b.changeDetail),
		dispatch.WithSessionTracker(b.tracker),
	)
	if err != nil {
		return nil, err
	}

	boundary, err := inbound.NewDispatcher(dispatchService, b.logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:   cfg,
		dispatch: dispatchService,
		inbound:  boundary,
		commands: Commands{
			ProcessPROpened:         notifycommand.NewProcessPROpenedCommand(dispatchService),
			ProcessRecoveryComplete: notifycommand.NewProcessRecoveryCompleteCommand(dispatchService),
		},
		factory: factory,
	}, nil
}

func (s *Service) Dispatch() *dispatch.Service {
	if s == nil {
		return nil
	}
	return s.dispatch
}

func (s *Service) Inbound() *inbound.Dispatcher {
	if s == nil {
		return nil
	}
	return s.inbound
}

func (s *Service) Commands() Commands {
	if s == nil {
		return Commands{}
	}
	return s.commands
}

func (s *Service) Config() core.Config {
	if s == nil {
		return core.Config{}
	}
	return s.config
}

func (s *Service) StoreFactory() *sqlstore.RepositoryFactory {
	if s == nil {
		return nil
	}
	return s.factory
}
