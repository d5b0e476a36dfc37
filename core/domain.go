package core

import (
	"strings"
	"time"
)

type EventType string

const (
	EventTypePROpened         EventType = "pr_opened"
	EventTypeRecoveryComplete EventType = "recovery_complete"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypePROpened, EventTypeRecoveryComplete:
		return true
	}
	return false
}

type SinkName string

const (
	SinkTicket SinkName = "ticket"
	SinkChat   SinkName = "chat"
)

// MaxSinkErrorLength bounds error text persisted on an event record.
const MaxSinkErrorLength = 500

// EventRecord is the durable admission row for one logical webhook event.
// It is created before any external call and is the single source of truth
// for "was this event processed".
type EventRecord struct {
	ID             string
	IdempotencyKey string
	EventType      EventType
	ChangeID       int64
	JobID          int64
	Payload        []byte
	TicketSent     bool
	TicketError    string
	ChatSent       bool
	ChatError      string
	ReceivedAt     time.Time
}

// MarkOutcome records one sink's terminal outcome on the record, truncating
// error text to MaxSinkErrorLength.
func (r *EventRecord) MarkOutcome(sink SinkName, sent bool, errText string) {
	errText = TruncateSinkError(errText)
	switch sink {
	case SinkTicket:
		r.TicketSent = sent
		r.TicketError = errText
	case SinkChat:
		r.ChatSent = sent
		r.ChatError = errText
	}
}

// TruncateSinkError caps error text at MaxSinkErrorLength characters without
// splitting a rune.
func TruncateSinkError(text string) string {
	if len(text) <= MaxSinkErrorLength {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxSinkErrorLength {
		return text
	}
	return string(runes[:MaxSinkErrorLength])
}

// TicketLink associates a remediation job with the external ticket created
// for it. Rows are written once on successful ticket creation and read back
// when the change recovers.
type TicketLink struct {
	ID        string
	ChangeID  int64
	JobID     int64
	TicketKey string
	TicketURL string
	CreatedAt time.Time
}

type DispatchStatus string

const (
	StatusAlreadyProcessed DispatchStatus = "already_processed"
	StatusProcessed        DispatchStatus = "processed"
	StatusPartial          DispatchStatus = "partial"
	StatusFailed           DispatchStatus = "failed"
)

// DispatchResult is the outward response envelope for one processed event.
type DispatchResult struct {
	Status    DispatchStatus `json:"status"`
	TicketKey string         `json:"ticket_id,omitempty"`
	TicketURL string         `json:"ticket_url,omitempty"`
	ChatSent  bool           `json:"chat_sent"`
	Errors    []string       `json:"errors"`
}

// TicketFields is the opaque create-ticket payload produced by the content
// builders. Description carries the structured document; DescriptionText is
// the plain-text equivalent used to judge usability.
type TicketFields struct {
	Summary         string
	Description     map[string]any
	DescriptionText string
	ProjectKey      string
	Labels          []string
	AssigneeID      string
}

func (f TicketFields) HasDescription() bool {
	return strings.TrimSpace(f.DescriptionText) != "" || len(f.Description) > 0
}

// CreatedTicket is the ticketing sink's create response.
type CreatedTicket struct {
	Key string
	URL string
}

// ChatMessage is the opaque chat payload: structured blocks plus a plain-text
// fallback for clients that reject the blocks.
type ChatMessage struct {
	Blocks       []map[string]any
	FallbackText string
}

// TrackingSession identifies a best-effort cross-service tracking session.
type TrackingSession struct {
	ID string
}

type BillingTeam struct {
	TeamID        string  `json:"team_id"`
	TeamName      string  `json:"team_name"`
	TotalCost     float64 `json:"total_cost"`
	TotalSessions int64   `json:"total_sessions"`
}

// BillingSummary is the optional platform cost context attached to recovery
// reports.
type BillingSummary struct {
	TotalRevenue float64       `json:"total_revenue"`
	TopTeams     []BillingTeam `json:"top_teams"`
}

// ImpactSet describes one downstream caller affected by a contract change.
// Method is nullable upstream.
type ImpactSet struct {
	CallerService string  `json:"caller_service"`
	RouteTemplate string  `json:"route_template"`
	Method        *string `json:"method"`
	CallsLast7d   int64   `json:"calls_last_7d"`
	Confidence    float64 `json:"confidence"`
	Notes         string  `json:"notes"`
}

// ChangeDetail is the extended change-impact payload fetched best-effort from
// the contract registry.
type ChangeDetail struct {
	ChangeID   int64       `json:"change_id"`
	ImpactSets []ImpactSet `json:"impact_sets"`
}

// Enrichment aggregates every optional auxiliary lookup for one event. A nil
// field means the source was unavailable or not configured; absence never
// blocks delivery.
type Enrichment struct {
	Session *TrackingSession
	Billing *BillingSummary
	Detail  *ChangeDetail
}
