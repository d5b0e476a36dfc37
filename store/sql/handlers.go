package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func notificationEventHandlers() repository.ModelHandlers[*notificationEventRecord] {
	return repository.ModelHandlers[*notificationEventRecord]{
		NewRecord: func() *notificationEventRecord {
			return &notificationEventRecord{}
		},
		GetID: func(record *notificationEventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *notificationEventRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *notificationEventRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func ticketLinkHandlers() repository.ModelHandlers[*ticketLinkRecord] {
	return repository.ModelHandlers[*ticketLinkRecord]{
		NewRecord: func() *ticketLinkRecord {
			return &ticketLinkRecord{}
		},
		GetID: func(record *ticketLinkRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *ticketLinkRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *ticketLinkRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
