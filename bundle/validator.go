package bundle

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-remediation-notify/events"
)

// expectedAuthor is the automation identity allowed to author bundles. An
// empty author is tolerated and treated as the default identity.
const expectedAuthor = "devin"

// Validate cross-checks an untrusted notification bundle against the trusted
// event fields. It returns the bundle when every check passes, or nil plus a
// reason describing the first failing check. A nil bundle validates to nil
// with no reason.
func Validate(event events.PROpenedEvent, b *events.NotificationBundle) (*events.NotificationBundle, string) {
	if b == nil {
		return nil, ""
	}

	author := strings.ToLower(strings.TrimSpace(b.Author))
	if author != "" && author != expectedAuthor {
		return nil, fmt.Sprintf("unexpected author %q", b.Author)
	}

	assertedSource := firstNonEmpty(b.Assertions.SourceRepo, event.SourceRepo)
	if RepoShortName(assertedSource) != RepoShortName(event.SourceRepo) {
		return nil, "source repo mismatch"
	}

	assertedTarget := firstNonEmpty(b.Assertions.TargetRepo, event.TargetRepo)
	if NormalizeRepoURL(assertedTarget) != NormalizeRepoURL(event.TargetRepo) {
		return nil, "target repo mismatch"
	}

	assertedService := firstNonEmpty(b.Assertions.TargetService, event.TargetService)
	if strings.TrimSpace(assertedService) != strings.TrimSpace(event.TargetService) {
		return nil, "target service mismatch"
	}

	assertedPRURL := firstNonEmpty(b.Assertions.PRURL, event.PRURL)
	if strings.TrimSpace(assertedPRURL) != strings.TrimSpace(event.PRURL) {
		return nil, "PR URL mismatch"
	}

	if prRepo := RepoFromPRURL(event.PRURL); prRepo != "" &&
		NormalizeRepoURL(prRepo) != NormalizeRepoURL(event.TargetRepo) {
		return nil, "event PR repo does not match target repo"
	}

	return b, ""
}

// UsableForTicket reports whether the bundle carries enough externally
// authored content to build a ticket description.
func UsableForTicket(b *events.NotificationBundle) bool {
	if b == nil {
		return false
	}
	return strings.TrimSpace(b.Ticket.DescriptionText) != "" || len(b.Ticket.DescriptionDoc) > 0
}

// UsableForChat reports whether the bundle carries enough externally authored
// content to build a chat message.
func UsableForChat(b *events.NotificationBundle) bool {
	if b == nil {
		return false
	}
	return strings.TrimSpace(b.Chat.Text) != "" || len(b.Chat.Blocks) > 0
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
