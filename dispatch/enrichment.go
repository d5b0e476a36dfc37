package dispatch

import (
	"context"
	"fmt"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

const trackingTeamID = "notification-service"

// enrichPROpened gathers best-effort auxiliary context for a PR-opened event:
// a tracking session and the change-impact detail. Failures are logged and
// swallowed; enrichment never blocks or fails delivery.
func (s *Service) enrichPROpened(ctx context.Context, event events.PROpenedEvent) core.Enrichment {
	enriched := core.Enrichment{}

	enriched.Session = s.trackSession(ctx, core.CreateSessionInput{
		TeamID:        trackingTeamID,
		AgentName:     "pr-opened-handler",
		Priority:      "high",
		DataResidency: s.config.DataResidency,
		Prompt:        fmt.Sprintf("pr_opened for job_id=%d change_id=%d", event.JobID, event.ChangeID),
		Tags:          fmt.Sprintf("change_id:%d,job_id:%d", event.ChangeID, event.JobID),
	}, map[string]any{"job_id": event.JobID, "change_id": event.ChangeID})

	if s.changeDetail != nil {
		detail, err := s.changeDetail.ChangeDetail(ctx, event.ChangeID)
		switch {
		case err == nil:
			enriched.Detail = detail
		case core.IsUnavailable(err):
			s.logInfo(ctx, "change detail source unavailable", map[string]any{"change_id": event.ChangeID})
		default:
			s.logWarn(ctx, "could not fetch change detail", map[string]any{
				"change_id": event.ChangeID,
				"error":     err.Error(),
			})
		}
	}

	return enriched
}

// enrichRecovery gathers best-effort auxiliary context for a recovery-complete
// event: a tracking session and the platform billing summary.
func (s *Service) enrichRecovery(ctx context.Context, event events.RecoveryCompleteEvent) core.Enrichment {
	enriched := core.Enrichment{}

	enriched.Session = s.trackSession(ctx, core.CreateSessionInput{
		TeamID:        trackingTeamID,
		AgentName:     "recovery-handler",
		Priority:      "high",
		DataResidency: s.config.DataResidency,
		Prompt:        fmt.Sprintf("recovery_complete for change_id=%d", event.ChangeID),
		Tags:          fmt.Sprintf("change_id:%d", event.ChangeID),
	}, map[string]any{"change_id": event.ChangeID})

	if s.billing != nil {
		summary, err := s.billing.Summary(ctx)
		switch {
		case err == nil:
			enriched.Billing = summary
		case core.IsUnavailable(err):
			s.logInfo(ctx, "billing source unavailable", map[string]any{"change_id": event.ChangeID})
		default:
			s.logWarn(ctx, "could not fetch billing summary", map[string]any{
				"change_id": event.ChangeID,
				"error":     err.Error(),
			})
		}
	}

	return enriched
}

func (s *Service) trackSession(ctx context.Context, input core.CreateSessionInput, fields map[string]any) *core.TrackingSession {
	if s.tracker == nil {
		return nil
	}
	session, err := s.tracker.CreateSession(ctx, input)
	if err != nil {
		if core.IsUnavailable(err) {
			s.logInfo(ctx, "session tracker unavailable", fields)
			return nil
		}
		fields = cloneFields(fields)
		fields["error"] = err.Error()
		s.logWarn(ctx, "could not create tracking session", fields)
		return nil
	}
	if session != nil {
		fields = cloneFields(fields)
		fields["session_id"] = session.ID
		s.logInfo(ctx, "tracking session created", fields)
	}
	return session
}
