package dispatch

import (
	"context"
	"fmt"

	"github.com/goliatone/go-remediation-notify/content"
	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

// ProcessRecoveryComplete admits and delivers one recovery-complete event:
// a chat post-incident report plus a resolution comment on every ticket
// linked to the change. Commenting succeeds when at least one comment lands.
func (s *Service) ProcessRecoveryComplete(ctx context.Context, event events.RecoveryCompleteEvent) (core.DispatchResult, error) {
	startedAt := s.now()

	record, err := s.claim(ctx, newEventRecord(
		event.IdempotencyKey(),
		core.EventTypeRecoveryComplete,
		event.ChangeID,
		0,
		event,
		s.now(),
	))
	if err != nil {
		return core.DispatchResult{}, err
	}
	if record == nil {
		s.logInfo(ctx, "duplicate recovery webhook, skipping", map[string]any{
			"change_id": event.ChangeID,
		})
		return duplicateResult(), nil
	}

	enriched := s.enrichRecovery(ctx, event)

	var deliveryErrors []string

	if chatErr := s.deliverRecoveryChat(ctx, event, enriched.Billing); chatErr != nil {
		record.MarkOutcome(core.SinkChat, false, chatErr.Error())
		deliveryErrors = append(deliveryErrors, fmt.Sprintf("chat: %s", chatErr.Error()))
		s.logError(ctx, "chat recovery report failed", map[string]any{
			"change_id": event.ChangeID,
			"error":     chatErr.Error(),
		})
	} else {
		record.MarkOutcome(core.SinkChat, true, "")
	}

	lastTicket, commentErrors := s.commentLinkedTickets(ctx, event, enriched.Billing, record)
	deliveryErrors = append(deliveryErrors, commentErrors...)

	if err := s.events.Commit(ctx, record); err != nil {
		return core.DispatchResult{}, s.storageError(err, "commit recovery_complete outcome")
	}

	result := buildResult(record, lastTicket, deliveryErrors)
	s.observeOperation(ctx, startedAt, "recovery_complete", result.Status, map[string]any{
		"change_id": event.ChangeID,
		"errors":    len(deliveryErrors),
	})
	return result, nil
}

func (s *Service) deliverRecoveryChat(ctx context.Context, event events.RecoveryCompleteEvent, billing *core.BillingSummary) error {
	if s.chat == nil {
		return errChatNotConfigured
	}
	msg := content.RecoveryChatMessage(event, billing)

	cctx, cancel := sinkTimeout(ctx, s.config.Chat.Timeout)
	defer cancel()
	return s.chat.SendMessage(cctx, msg)
}

// commentLinkedTickets adds the resolution comment to every ticket linked to
// the recovered change. Each comment is independent; the ticket branch is
// marked sent when at least one comment lands. Zero linked tickets is
// informational, a failed lookup is a branch error.
func (s *Service) commentLinkedTickets(
	ctx context.Context,
	event events.RecoveryCompleteEvent,
	billing *core.BillingSummary,
	record *core.EventRecord,
) (*core.CreatedTicket, []string) {
	if s.ticketLinks == nil {
		s.logInfo(ctx, "ticket link store not configured, skipping comments", map[string]any{
			"change_id": event.ChangeID,
		})
		return nil, nil
	}

	links, err := s.ticketLinks.ListForChange(ctx, event.ChangeID)
	if err != nil {
		record.MarkOutcome(core.SinkTicket, false, err.Error())
		s.logError(ctx, "ticket link lookup failed", map[string]any{
			"change_id": event.ChangeID,
			"error":     err.Error(),
		})
		return nil, []string{fmt.Sprintf("ticket: %s", err.Error())}
	}
	if len(links) == 0 {
		s.logInfo(ctx, "no linked tickets for change", map[string]any{
			"change_id": event.ChangeID,
		})
		return nil, nil
	}
	if s.ticketing == nil {
		record.MarkOutcome(core.SinkTicket, false, errTicketingNotConfigured.Error())
		return nil, []string{fmt.Sprintf("ticket: %s", errTicketingNotConfigured.Error())}
	}

	body := content.RecoveryComment(event, billing)

	var commentErrors []string
	var lastSuccess *core.CreatedTicket
	successes := 0
	for _, link := range links {
		if err := s.addComment(ctx, link.TicketKey, body); err != nil {
			commentErrors = append(commentErrors, fmt.Sprintf("ticket_comment:%s: %s", link.TicketKey, err.Error()))
			s.logError(ctx, "resolution comment failed", map[string]any{
				"change_id":  event.ChangeID,
				"ticket_key": link.TicketKey,
				"error":      err.Error(),
			})
			continue
		}
		successes++
		lastSuccess = &core.CreatedTicket{Key: link.TicketKey, URL: link.TicketURL}
	}

	if successes > 0 {
		record.MarkOutcome(core.SinkTicket, true, "")
	} else if len(commentErrors) > 0 {
		record.MarkOutcome(core.SinkTicket, false, commentErrors[0])
	}
	return lastSuccess, commentErrors
}

func (s *Service) addComment(ctx context.Context, ticketKey string, body map[string]any) error {
	tctx, cancel := sinkTimeout(ctx, s.config.Ticketing.Timeout)
	defer cancel()
	return s.ticketing.AddComment(tctx, ticketKey, body)
}
