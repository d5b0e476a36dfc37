package sqlstore

import "github.com/goliatone/go-remediation-notify/core"

var (
	_ core.EventStore      = (*EventStore)(nil)
	_ core.TicketLinkStore = (*TicketLinkStore)(nil)
)
