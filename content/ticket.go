package content

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

// TicketOptions carries the ticketing-side configuration the builders need.
type TicketOptions struct {
	ProjectKey string
	AssigneeID string
}

// PRTicketFields builds the create-ticket payload for a PR-opened event. The
// validated bundle's externally authored description wins when usable;
// otherwise the description is generated from the trusted event fields.
func PRTicketFields(
	event events.PROpenedEvent,
	validated *events.NotificationBundle,
	detail *core.ChangeDetail,
	opts TicketOptions,
) core.TicketFields {
	fields := core.TicketFields{
		Summary:    fmt.Sprintf("[ACCR] Downstream remediation PR for %s — review required", event.TargetService),
		ProjectKey: opts.ProjectKey,
		Labels:     []string{"contract-change", "devin-remediation"},
		AssigneeID: opts.AssigneeID,
	}

	if validated != nil {
		if summary := strings.TrimSpace(validated.Ticket.Summary); summary != "" {
			fields.Summary = summary
		}
		fields.DescriptionText = strings.TrimSpace(validated.Ticket.DescriptionText)
		if len(validated.Ticket.DescriptionDoc) > 0 {
			fields.Description = validated.Ticket.DescriptionDoc
		} else if fields.DescriptionText != "" {
			fields.Description = document(paragraph(textNode(fields.DescriptionText)))
		}
		return fields
	}

	fields.DescriptionText = generatedTicketText(event)
	fields.Description = generatedTicketDoc(event, detail)
	return fields
}

func generatedTicketDoc(event events.PROpenedEvent, detail *core.ChangeDetail) map[string]any {
	nodes := []map[string]any{
		heading("Upstream Contract Change Details", 3),
		paragraph(boldText("Severity: "), textNode(fmt.Sprintf("%s (%s)", severityLabel(event.IsBreaking, event.Severity), event.Severity))),
		paragraph(boldText("Summary: "), textNode(orDefault(event.Summary, "Upstream contract change detected"))),
		paragraph(boldText("Changed routes: "), textNode(routesText(event.ChangedRoutes))),
		heading("Downstream Remediation", 3),
		paragraph(boldText("Downstream service: "), textNode(event.TargetService)),
		paragraph(boldText("Downstream repo: "), textNode(event.TargetRepo)),
		paragraph(boldText("Downstream PR: "), linkNode(event.PRURL, event.PRURL)),
	}
	if event.DevinSessionURL != "" {
		nodes = append(nodes, paragraph(boldText("Devin session: "), linkNode(event.DevinSessionURL, event.DevinSessionURL)))
	}
	if detail != nil && len(detail.ImpactSets) > 0 {
		nodes = append(nodes, heading("Known Impacted Callers", 3), bulletList(impactLines(detail.ImpactSets)...))
	}
	nodes = append(nodes,
		heading("Action Required", 3),
		paragraph(textNode("Review and merge the downstream pull request linked above. "+
			"This PR was raised against the downstream team's repo by Devin "+
			"as part of automated contract change remediation.")),
	)
	return document(nodes...)
}

func generatedTicketText(event events.PROpenedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Severity: %s (%s)\n", severityLabel(event.IsBreaking, event.Severity), event.Severity)
	fmt.Fprintf(&b, "Summary: %s\n", orDefault(event.Summary, "Upstream contract change detected"))
	fmt.Fprintf(&b, "Changed routes: %s\n", routesText(event.ChangedRoutes))
	fmt.Fprintf(&b, "Downstream service: %s\n", event.TargetService)
	fmt.Fprintf(&b, "Downstream repo: %s\n", event.TargetRepo)
	fmt.Fprintf(&b, "Downstream PR: %s\n", event.PRURL)
	return b.String()
}

// RecoveryComment builds the post-incident resolution comment added to every
// ticket linked to the recovered change.
func RecoveryComment(event events.RecoveryCompleteEvent, billing *core.BillingSummary) map[string]any {
	nodes := []map[string]any{
		heading("Post-Incident Recovery Report", 2),
		paragraph(boldText("Status: "), textNode("RESOLVED — all services remediated")),
		paragraph(boldText("Severity: "), textNode(fmt.Sprintf("%s (%s)", severityLabel(event.IsBreaking, event.Severity), event.Severity))),
		paragraph(boldText("MTTR: "), textNode(FormatMTTR(event.MTTRSeconds))),
		paragraph(boldText("Summary: "), textNode(orDefault(event.Summary, "Automated contract change recovery completed"))),
		paragraph(boldText("Changed routes: "), textNode(routesText(event.ChangedRoutes))),
		heading("Services Remediated", 3),
	}
	if len(event.Jobs) > 0 {
		lines := make([]string, 0, len(event.Jobs))
		for _, job := range event.Jobs {
			lines = append(lines, fmt.Sprintf("%s — %s", job.TargetService, orDefault(job.PRURL, "no PR")))
		}
		nodes = append(nodes, bulletList(lines...))
	} else {
		nodes = append(nodes, paragraph(textNode("No jobs recorded")))
	}

	if billing != nil {
		nodes = append(nodes,
			heading("Platform Cost Context", 3),
			paragraph(boldText("Total platform spend: "), textNode(fmt.Sprintf("$%.2f", billing.TotalRevenue))),
		)
		if len(billing.TopTeams) > 0 {
			lines := make([]string, 0, 3)
			for _, team := range topTeams(billing.TopTeams, 3) {
				name := team.TeamName
				if name == "" {
					name = orDefault(team.TeamID, "?")
				}
				lines = append(lines, fmt.Sprintf("%s: $%.2f (%d sessions)", name, team.TotalCost, team.TotalSessions))
			}
			nodes = append(nodes, bulletList(lines...))
		}
	}

	return document(nodes...)
}

// FormatMTTR humanizes a mean-time-to-recovery in seconds as "Xm" or "Xh Ym".
func FormatMTTR(seconds int64) string {
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func severityLabel(isBreaking bool, severity string) string {
	if isBreaking {
		return "BREAKING"
	}
	return strings.ToUpper(severity)
}

func routesText(routes []string) string {
	if len(routes) == 0 {
		return "N/A"
	}
	return strings.Join(routes, ", ")
}

func impactLines(sets []core.ImpactSet) []string {
	lines := make([]string, 0, len(sets))
	for _, set := range sets {
		method := "ANY"
		if set.Method != nil && strings.TrimSpace(*set.Method) != "" {
			method = *set.Method
		}
		lines = append(lines, fmt.Sprintf("%s — %s %s (%d calls/7d)",
			set.CallerService, method, set.RouteTemplate, set.CallsLast7d))
	}
	return lines
}

func topTeams(teams []core.BillingTeam, limit int) []core.BillingTeam {
	if len(teams) <= limit {
		return teams
	}
	return teams[:limit]
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
