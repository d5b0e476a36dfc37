package core

import (
	"context"
	"errors"

	glog "github.com/goliatone/go-logger/glog"
)

// ErrEnrichmentUnavailable marks an auxiliary source as absent for this call.
// Sources return it (wrapped) when unconfigured or unreachable; the
// enrichment gate treats it as plain absence rather than a failure.
var ErrEnrichmentUnavailable = errors.New("core: enrichment source unavailable")

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrEnrichmentUnavailable)
}

// EventStore is the durable admission ledger. Claim must be the first durable
// write for an event and must be visible to concurrent transactions before
// returning, so two requests for the same idempotency key cannot both claim.
type EventStore interface {
	// Claim inserts the admission row, or returns the existing row with
	// claimed=false when the idempotency key was already taken.
	Claim(ctx context.Context, record *EventRecord) (*EventRecord, bool, error)
	// Commit persists every outcome mutation on the record in one statement.
	Commit(ctx context.Context, record *EventRecord) error
}

type TicketLinkStore interface {
	Create(ctx context.Context, link *TicketLink) (*TicketLink, error)
	ListForChange(ctx context.Context, changeID int64) ([]*TicketLink, error)
}

// TicketingClient is the capability contract for the external ticketing
// system.
type TicketingClient interface {
	CreateTicket(ctx context.Context, fields TicketFields) (CreatedTicket, error)
	AddComment(ctx context.Context, ticketKey string, body map[string]any) error
}

// ChatClient is the capability contract for the external chat system.
type ChatClient interface {
	SendMessage(ctx context.Context, msg ChatMessage) error
}

type BillingSource interface {
	Summary(ctx context.Context) (*BillingSummary, error)
}

type ChangeDetailSource interface {
	ChangeDetail(ctx context.Context, changeID int64) (*ChangeDetail, error)
}

type CreateSessionInput struct {
	TeamID        string
	AgentName     string
	Priority      string
	DataResidency string
	Prompt        string
	Tags          string
}

type SessionTracker interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*TrackingSession, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string)         {}
func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}
