package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-remediation-notify/bundle"
	"github.com/goliatone/go-remediation-notify/content"
	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

var (
	errTicketingNotConfigured = errors.New("ticketing client not configured")
	errChatNotConfigured      = errors.New("chat client not configured")
)

// ProcessPROpened admits and delivers one PR-opened event. Admission is
// claim-first: the durable record is written before any external call, and a
// duplicate idempotency key short-circuits with zero side effects.
func (s *Service) ProcessPROpened(ctx context.Context, event events.PROpenedEvent) (core.DispatchResult, error) {
	startedAt := s.now()

	record, err := s.claim(ctx, newEventRecord(
		event.IdempotencyKey(),
		core.EventTypePROpened,
		event.ChangeID,
		event.JobID,
		event,
		s.now(),
	))
	if err != nil {
		return core.DispatchResult{}, err
	}
	if record == nil {
		s.logInfo(ctx, "duplicate pr_opened webhook, skipping", map[string]any{
			"job_id":    event.JobID,
			"change_id": event.ChangeID,
		})
		return duplicateResult(), nil
	}

	enriched := s.enrichPROpened(ctx, event)

	validated, reason := bundle.Validate(event, event.Bundle)
	if reason != "" {
		s.logWarn(ctx, "ignoring notification bundle", map[string]any{
			"job_id": event.JobID,
			"reason": reason,
		})
	}

	var deliveryErrors []string

	created, err := s.deliverTicket(ctx, event, validated, enriched.Detail)
	if err != nil {
		record.MarkOutcome(core.SinkTicket, false, err.Error())
		deliveryErrors = append(deliveryErrors, fmt.Sprintf("ticket: %s", err.Error()))
		s.logError(ctx, "ticket creation failed", map[string]any{
			"job_id": event.JobID,
			"error":  err.Error(),
		})
	} else {
		record.MarkOutcome(core.SinkTicket, true, "")
		if linkErr := s.persistTicketLink(ctx, event, created); linkErr != nil {
			deliveryErrors = append(deliveryErrors, fmt.Sprintf("ticket: %s", linkErr.Error()))
			s.logError(ctx, "ticket link persistence failed", map[string]any{
				"job_id":     event.JobID,
				"ticket_key": created.Key,
				"error":      linkErr.Error(),
			})
		}
	}

	if chatErr := s.deliverPRChat(ctx, event, validated, created); chatErr != nil {
		record.MarkOutcome(core.SinkChat, false, chatErr.Error())
		deliveryErrors = append(deliveryErrors, fmt.Sprintf("chat: %s", chatErr.Error()))
		s.logError(ctx, "chat notification failed", map[string]any{
			"job_id": event.JobID,
			"error":  chatErr.Error(),
		})
	} else {
		record.MarkOutcome(core.SinkChat, true, "")
	}

	if err := s.events.Commit(ctx, record); err != nil {
		return core.DispatchResult{}, s.storageError(err, "commit pr_opened outcome")
	}

	result := buildResult(record, created, deliveryErrors)
	s.observeOperation(ctx, startedAt, "pr_opened", result.Status, map[string]any{
		"job_id":    event.JobID,
		"change_id": event.ChangeID,
		"errors":    len(deliveryErrors),
	})
	return result, nil
}

// deliverTicket attempts the ticket sink once. Validated bundle content wins
// when usable; otherwise the ticket is generated from trusted event fields.
// The sink is never called with an empty description.
func (s *Service) deliverTicket(
	ctx context.Context,
	event events.PROpenedEvent,
	validated *events.NotificationBundle,
	detail *core.ChangeDetail,
) (*core.CreatedTicket, error) {
	if s.ticketing == nil {
		return nil, errTicketingNotConfigured
	}

	ticketBundle := validated
	if !bundle.UsableForTicket(validated) {
		ticketBundle = nil
	}
	fields := content.PRTicketFields(event, ticketBundle, detail, content.TicketOptions{
		ProjectKey: s.config.Ticketing.ProjectKey,
		AssigneeID: s.config.Ticketing.AssigneeID,
	})
	if !fields.HasDescription() {
		return nil, errors.New("missing ticket description content")
	}

	tctx, cancel := sinkTimeout(ctx, s.config.Ticketing.Timeout)
	defer cancel()

	ticket, err := s.ticketing.CreateTicket(tctx, fields)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Service) persistTicketLink(ctx context.Context, event events.PROpenedEvent, created *core.CreatedTicket) error {
	if s.ticketLinks == nil || created == nil {
		return nil
	}
	_, err := s.ticketLinks.Create(ctx, &core.TicketLink{
		ID:        uuid.NewString(),
		ChangeID:  event.ChangeID,
		JobID:     event.JobID,
		TicketKey: created.Key,
		TicketURL: created.URL,
		CreatedAt: s.now(),
	})
	return err
}

func (s *Service) deliverPRChat(
	ctx context.Context,
	event events.PROpenedEvent,
	validated *events.NotificationBundle,
	created *core.CreatedTicket,
) error {
	if s.chat == nil {
		return errChatNotConfigured
	}

	chatBundle := validated
	if !bundle.UsableForChat(validated) {
		chatBundle = nil
	}
	msg := content.PRChatMessage(event, chatBundle, created)

	cctx, cancel := sinkTimeout(ctx, s.config.Chat.Timeout)
	defer cancel()
	return s.chat.SendMessage(cctx, msg)
}

// claim writes the admission row. A nil record with nil error means the event
// was already processed.
func (s *Service) claim(ctx context.Context, record *core.EventRecord) (*core.EventRecord, error) {
	claimed, ok, err := s.events.Claim(ctx, record)
	if err != nil {
		return nil, s.storageError(err, "claim event admission")
	}
	if !ok {
		return nil, nil
	}
	return claimed, nil
}

func newEventRecord(
	idempotencyKey string,
	eventType core.EventType,
	changeID int64,
	jobID int64,
	payload any,
	receivedAt time.Time,
) *core.EventRecord {
	body, err := json.Marshal(payload)
	if err != nil {
		body = nil
	}
	return &core.EventRecord{
		ID:             uuid.NewString(),
		IdempotencyKey: idempotencyKey,
		EventType:      eventType,
		ChangeID:       changeID,
		JobID:          jobID,
		Payload:        body,
		ReceivedAt:     receivedAt,
	}
}

func duplicateResult() core.DispatchResult {
	return core.DispatchResult{
		Status: core.StatusAlreadyProcessed,
		Errors: []string{},
	}
}

func buildResult(record *core.EventRecord, created *core.CreatedTicket, deliveryErrors []string) core.DispatchResult {
	result := core.DispatchResult{
		Status:   aggregateStatus(record, deliveryErrors),
		ChatSent: record.ChatSent,
		Errors:   deliveryErrors,
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if created != nil {
		result.TicketKey = created.Key
		result.TicketURL = created.URL
	}
	return result
}

// aggregateStatus folds per-sink outcomes into the event status: no errors is
// processed, errors with at least one successful sink is partial, errors with
// no successful sink is failed.
func aggregateStatus(record *core.EventRecord, deliveryErrors []string) core.DispatchStatus {
	if len(deliveryErrors) == 0 {
		return core.StatusProcessed
	}
	if record.TicketSent || record.ChatSent {
		return core.StatusPartial
	}
	return core.StatusFailed
}
