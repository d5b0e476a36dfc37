// Package events defines the trusted inbound webhook payloads and the strict
// boundary validation applied before the dispatch core ever sees an event.
package events

import (
	"fmt"
	"time"

	"github.com/goliatone/go-remediation-notify/core"
)

// BundleAssertions is the untrusted sub-object a notification bundle uses to
// declare which event it was generated for. Every assertion is cross-checked
// against the trusted event fields before the bundle content is used.
type BundleAssertions struct {
	SourceRepo    string `json:"source_repo"`
	TargetRepo    string `json:"target_repo"`
	TargetService string `json:"target_service"`
	PRURL         string `json:"pr_url"`
}

type BundleTicket struct {
	Summary         string         `json:"summary"`
	DescriptionText string         `json:"description_text"`
	DescriptionDoc  map[string]any `json:"description_structured,omitempty"`
}

type BundleChat struct {
	Text   string           `json:"text"`
	Blocks []map[string]any `json:"blocks"`
}

// NotificationBundle is externally authored notification content attached to
// a PR-opened event. It is untrusted until validated by the bundle package.
type NotificationBundle struct {
	Author     string           `json:"author"`
	Assertions BundleAssertions `json:"assertions"`
	Ticket     BundleTicket     `json:"ticket"`
	Chat       BundleChat       `json:"chat"`
}

type DevinContext struct {
	SessionID string `json:"session_id"`
	Snapshot  string `json:"snapshot"`
}

// PROpenedEvent reports one remediation pull request opened downstream for a
// contract change.
type PROpenedEvent struct {
	EventType       string              `json:"event_type"`
	ChangeID        int64               `json:"change_id"`
	JobID           int64               `json:"job_id"`
	Timestamp       time.Time           `json:"timestamp"`
	SourceRepo      string              `json:"source_repo"`
	TargetRepo      string              `json:"target_repo"`
	TargetService   string              `json:"target_service"`
	PRURL           string              `json:"pr_url"`
	DevinSessionURL string              `json:"devin_session_url"`
	Severity        string              `json:"severity"`
	IsBreaking      bool                `json:"is_breaking"`
	Summary         string              `json:"summary"`
	ChangedRoutes   []string            `json:"changed_routes"`
	DevinContext    *DevinContext       `json:"devin_context,omitempty"`
	Bundle          *NotificationBundle `json:"notification_bundle,omitempty"`
}

// IdempotencyKey derives the admission key for this event. One remediation
// job maps to exactly one logical PR-opened event.
func (e PROpenedEvent) IdempotencyKey() string {
	return fmt.Sprintf("%s:%d", core.EventTypePROpened, e.JobID)
}

// JobSummary is one remediated job inside a recovery-complete report.
type JobSummary struct {
	JobID           int64  `json:"job_id"`
	TargetRepo      string `json:"target_repo"`
	TargetService   string `json:"target_service"`
	PRURL           string `json:"pr_url"`
	DevinSessionURL string `json:"devin_session_url"`
	StartedAt       string `json:"started_at"`
	ResolvedAt      string `json:"resolved_at"`
}

// RecoveryCompleteEvent reports that every remediation PR for a contract
// change has merged.
type RecoveryCompleteEvent struct {
	EventType        string       `json:"event_type"`
	ChangeID         int64        `json:"change_id"`
	Timestamp        time.Time    `json:"timestamp"`
	SourceRepo       string       `json:"source_repo"`
	Severity         string       `json:"severity"`
	IsBreaking       bool         `json:"is_breaking"`
	Summary          string       `json:"summary"`
	AffectedServices []string     `json:"affected_services"`
	ChangedRoutes    []string     `json:"changed_routes"`
	TotalJobs        int          `json:"total_jobs"`
	Jobs             []JobSummary `json:"jobs"`
	MTTRSeconds      int64        `json:"mttr_seconds"`
}

func (e RecoveryCompleteEvent) IdempotencyKey() string {
	return fmt.Sprintf("%s:%d", core.EventTypeRecoveryComplete, e.ChangeID)
}
