package content

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

// PRChatMessage builds the chat notification for a PR-opened event. A usable
// validated bundle supplies the blocks and fallback text; otherwise the
// message is generated from the trusted event fields. Either way the message
// cross-links the ticket when one was created in this pass.
func PRChatMessage(
	event events.PROpenedEvent,
	validated *events.NotificationBundle,
	ticket *core.CreatedTicket,
) core.ChatMessage {
	if validated != nil {
		msg := core.ChatMessage{
			Blocks:       validated.Chat.Blocks,
			FallbackText: strings.TrimSpace(validated.Chat.Text),
		}
		if msg.FallbackText == "" {
			msg.FallbackText = generatedPRText(event, ticket)
		}
		if ticket != nil && ticket.Key != "" {
			msg.Blocks = appendTicketLink(msg.Blocks, ticket)
			if !strings.Contains(msg.FallbackText, ticket.Key) {
				msg.FallbackText = msg.FallbackText + " | " + ticket.Key
			}
		}
		return msg
	}
	return core.ChatMessage{
		Blocks:       generatedPRBlocks(event, ticket),
		FallbackText: generatedPRText(event, ticket),
	}
}

func generatedPRBlocks(event events.PROpenedEvent, ticket *core.CreatedTicket) []map[string]any {
	blocks := []map[string]any{
		headerBlock("Remediation PR Ready for Review"),
		fieldsBlock(
			mrkdwn(fmt.Sprintf("*Service:*\n%s", event.TargetService)),
			mrkdwn(fmt.Sprintf("*Severity:*\n%s %s", severityEmoji(event.IsBreaking), severityLabel(event.IsBreaking, event.Severity))),
		),
		sectionBlock(fmt.Sprintf("*Change summary:*\n%s", orDefault(event.Summary, "Contract change detected"))),
	}

	links := []string{fmt.Sprintf(":github: <%s|Pull Request>", event.PRURL)}
	if ticket != nil && ticket.Key != "" && ticket.URL != "" {
		links = append(links, fmt.Sprintf(":jira2: <%s|%s>", ticket.URL, ticket.Key))
	}
	if event.DevinSessionURL != "" {
		links = append(links, fmt.Sprintf(":robot_face: <%s|Devin Session>", event.DevinSessionURL))
	}
	blocks = append(blocks,
		sectionBlock(strings.Join(links, " | ")),
		sectionBlock(":point_right: *Please review and merge this PR.*"),
		dividerBlock(),
	)
	return blocks
}

// appendTicketLink adds a ticket cross-link block without mutating the
// caller's slice. Bundle blocks stay byte-identical to what was validated.
func appendTicketLink(blocks []map[string]any, ticket *core.CreatedTicket) []map[string]any {
	out := make([]map[string]any, 0, len(blocks)+1)
	out = append(out, blocks...)
	if ticket.URL != "" {
		out = append(out, sectionBlock(fmt.Sprintf(":jira2: <%s|%s>", ticket.URL, ticket.Key)))
	} else {
		out = append(out, sectionBlock(fmt.Sprintf(":jira2: %s", ticket.Key)))
	}
	return out
}

func generatedPRText(event events.PROpenedEvent, ticket *core.CreatedTicket) string {
	parts := []string{
		fmt.Sprintf("Remediation PR ready for review: %s (%s)", event.TargetService, severityLabel(event.IsBreaking, event.Severity)),
		event.PRURL,
	}
	if ticket != nil && ticket.Key != "" {
		parts = append(parts, ticket.Key)
	}
	return strings.Join(parts, " | ")
}

// RecoveryChatMessage builds the post-incident recovery report sent to the
// chat channel when every remediation PR for a change has merged.
func RecoveryChatMessage(event events.RecoveryCompleteEvent, billing *core.BillingSummary) core.ChatMessage {
	blocks := []map[string]any{
		headerBlock(":white_check_mark: Contract Change Recovered"),
		fieldsBlock(
			mrkdwn(fmt.Sprintf("*Severity:*\n%s %s", severityEmoji(event.IsBreaking), severityLabel(event.IsBreaking, event.Severity))),
			mrkdwn(fmt.Sprintf("*MTTR:*\n%s", FormatMTTR(event.MTTRSeconds))),
		),
		sectionBlock(fmt.Sprintf("*Change summary:*\n%s", orDefault(event.Summary, "Automated contract change recovery completed"))),
	}

	if len(event.Jobs) > 0 {
		var lines []string
		for _, job := range event.Jobs {
			if job.PRURL != "" {
				lines = append(lines, fmt.Sprintf("• %s — <%s|PR>", job.TargetService, job.PRURL))
			} else {
				lines = append(lines, fmt.Sprintf("• %s", job.TargetService))
			}
		}
		blocks = append(blocks, sectionBlock(fmt.Sprintf("*Services remediated (%d):*\n%s", len(event.Jobs), strings.Join(lines, "\n"))))
	}

	if billing != nil {
		lines := []string{fmt.Sprintf("*Platform spend:* $%.2f", billing.TotalRevenue)}
		for _, team := range topTeams(billing.TopTeams, 3) {
			name := team.TeamName
			if name == "" {
				name = orDefault(team.TeamID, "?")
			}
			lines = append(lines, fmt.Sprintf("• %s: $%.2f", name, team.TotalCost))
		}
		blocks = append(blocks, sectionBlock(strings.Join(lines, "\n")))
	}

	blocks = append(blocks, dividerBlock())
	return core.ChatMessage{
		Blocks:       blocks,
		FallbackText: recoveryText(event),
	}
}

func recoveryText(event events.RecoveryCompleteEvent) string {
	return fmt.Sprintf("Contract change %d recovered: %d services remediated, MTTR %s",
		event.ChangeID, len(event.Jobs), FormatMTTR(event.MTTRSeconds))
}

func severityEmoji(isBreaking bool) string {
	if isBreaking {
		return ":red_circle:"
	}
	return ":large_yellow_circle:"
}

func headerBlock(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{"type": "plain_text", "text": text, "emoji": true},
	}
}

func sectionBlock(text string) map[string]any {
	return map[string]any{"type": "section", "text": mrkdwn(text)}
}

func fieldsBlock(fields ...map[string]any) map[string]any {
	return map[string]any{"type": "section", "fields": fields}
}

func mrkdwn(text string) map[string]any {
	return map[string]any{"type": "mrkdwn", "text": text}
}

func dividerBlock() map[string]any {
	return map[string]any{"type": "divider"}
}
