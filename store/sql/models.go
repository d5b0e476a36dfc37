package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-remediation-notify/core"
)

type notificationEventRecord struct {
	bun.BaseModel `bun:"table:notification_events,alias:ne"`

	ID             string    `bun:"id,pk"`
	IdempotencyKey string    `bun:"idempotency_key,notnull,unique"`
	EventType      string    `bun:"event_type,notnull"`
	ChangeID       int64     `bun:"change_id,notnull"`
	JobID          int64     `bun:"job_id,notnull"`
	Payload        []byte    `bun:"payload_json"`
	TicketSent     bool      `bun:"ticket_sent,notnull,default:false"`
	TicketError    string    `bun:"ticket_error"`
	ChatSent       bool      `bun:"chat_sent,notnull,default:false"`
	ChatError      string    `bun:"chat_error"`
	ReceivedAt     time.Time `bun:"received_at,nullzero,notnull,default:current_timestamp"`
}

type ticketLinkRecord struct {
	bun.BaseModel `bun:"table:ticket_links,alias:tl"`

	ID        string    `bun:"id,pk"`
	ChangeID  int64     `bun:"change_id,notnull"`
	JobID     int64     `bun:"job_id,notnull"`
	TicketKey string    `bun:"ticket_key,notnull"`
	TicketURL string    `bun:"ticket_url,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func eventRecordToDomain(record *notificationEventRecord) *core.EventRecord {
	if record == nil {
		return nil
	}
	return &core.EventRecord{
		ID:             record.ID,
		IdempotencyKey: record.IdempotencyKey,
		EventType:      core.EventType(record.EventType),
		ChangeID:       record.ChangeID,
		JobID:          record.JobID,
		Payload:        append([]byte(nil), record.Payload...),
		TicketSent:     record.TicketSent,
		TicketError:    record.TicketError,
		ChatSent:       record.ChatSent,
		ChatError:      record.ChatError,
		ReceivedAt:     record.ReceivedAt,
	}
}

func eventRecordFromDomain(record *core.EventRecord) *notificationEventRecord {
	if record == nil {
		return nil
	}
	return &notificationEventRecord{
		ID:             record.ID,
		IdempotencyKey: record.IdempotencyKey,
		EventType:      string(record.EventType),
		ChangeID:       record.ChangeID,
		JobID:          record.JobID,
		Payload:        append([]byte(nil), record.Payload...),
		TicketSent:     record.TicketSent,
		TicketError:    record.TicketError,
		ChatSent:       record.ChatSent,
		ChatError:      record.ChatError,
		ReceivedAt:     record.ReceivedAt,
	}
}

func ticketLinkToDomain(record *ticketLinkRecord) *core.TicketLink {
	if record == nil {
		return nil
	}
	return &core.TicketLink{
		ID:        record.ID,
		ChangeID:  record.ChangeID,
		JobID:     record.JobID,
		TicketKey: record.TicketKey,
		TicketURL: record.TicketURL,
		CreatedAt: record.CreatedAt,
	}
}

func ticketLinkFromDomain(link *core.TicketLink) *ticketLinkRecord {
	if link == nil {
		return nil
	}
	return &ticketLinkRecord{
		ID:        link.ID,
		ChangeID:  link.ChangeID,
		JobID:     link.JobID,
		TicketKey: link.TicketKey,
		TicketURL: link.TicketURL,
		CreatedAt: link.CreatedAt,
	}
}
