// Package dispatch coordinates delivery of admitted webhook events to the
// ticketing and chat sinks. Each sink gets exactly one attempt per event;
// sink failures are recorded, never retried, and never block the other sink.
package dispatch

import (
	"context"
	"errors"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-remediation-notify/core"
)

var ErrEventStoreRequired = errors.New("dispatch: event store is required")

type Service struct {
	config          core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	errorMapper     core.ErrorMapper
	events          core.EventStore
	ticketLinks     core.TicketLinkStore
	ticketing       core.TicketingClient
	chat            core.ChatClient
	billing         core.BillingSource
	changeDetail    core.ChangeDetailSource
	tracker         core.SessionTracker
	now             func() time.Time
}

type serviceBuilder struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	errorMapper     core.ErrorMapper
	events          core.EventStore
	ticketLinks     core.TicketLinkStore
	ticketing       core.TicketingClient
	chat            core.ChatClient
	billing         core.BillingSource
	changeDetail    core.ChangeDetailSource
	tracker         core.SessionTracker
	now             func() time.Time
}

type Option func(*serviceBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *serviceBuilder) { b.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *serviceBuilder) { b.loggerProvider = provider }
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *serviceBuilder) { b.metricsRecorder = recorder }
}

func WithErrorMapper(mapper core.ErrorMapper) Option {
	return func(b *serviceBuilder) { b.errorMapper = mapper }
}

func WithEventStore(store core.EventStore) Option {
	return func(b *serviceBuilder) { b.events = store }
}

func WithTicketLinkStore(store core.TicketLinkStore) Option {
	return func(b *serviceBuilder) { b.ticketLinks = store }
}

func WithTicketingClient(client core.TicketingClient) Option {
	return func(b *serviceBuilder) { b.ticketing = client }
}

func WithChatClient(client core.ChatClient) Option {
	return func(b *serviceBuilder) { b.chat = client }
}

func WithBillingSource(source core.BillingSource) Option {
	return func(b *serviceBuilder) { b.billing = source }
}

func WithChangeDetailSource(source core.ChangeDetailSource) Option {
	return func(b *serviceBuilder) { b.changeDetail = source }
}

func WithSessionTracker(tracker core.SessionTracker) Option {
	return func(b *serviceBuilder) { b.tracker = tracker }
}

func WithNowFunc(now func() time.Time) Option {
	return func(b *serviceBuilder) { b.now = now }
}

func NewService(cfg core.Config, opts ...Option) (*Service, error) {
	builder := serviceBuilder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("dispatch", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("dispatch"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = core.NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = core.DefaultErrorMapper
	}
	if builder.now == nil {
		builder.now = time.Now
	}
	if builder.events == nil {
		return nil, ErrEventStoreRequired
	}

	return &Service{
		config:          cfg,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		events:          builder.events,
		ticketLinks:     builder.ticketLinks,
		ticketing:       builder.ticketing,
		chat:            builder.chat,
		billing:         builder.billing,
		changeDetail:    builder.changeDetail,
		tracker:         builder.tracker,
		now:             builder.now,
	}, nil
}

func (s *Service) storageError(err error, message string) error {
	if err == nil {
		return nil
	}
	mapper := s.errorMapper
	if mapper == nil {
		mapper = core.DefaultErrorMapper
	}
	mapped := mapper(err)
	if mapped == nil {
		return nil
	}
	if mapped.Category == goerrors.CategoryConflict {
		return mapped
	}
	return goerrors.Wrap(mapped, goerrors.CategoryOperation, message).
		WithTextCode(core.NotifyErrorStorageFailed).
		WithCode(http.StatusInternalServerError)
}

func sinkTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}
