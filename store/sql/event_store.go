// Package sqlstore provides bun-backed implementations of the core storage
// contracts.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-remediation-notify/core"
)

type EventStore struct {
	db   *bun.DB
	repo repository.Repository[*notificationEventRecord]
}

func NewEventStore(db *bun.DB) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*notificationEventRecord](db, notificationEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid notification event repository wiring: %w", err)
		}
	}
	return &EventStore{
		db:   db,
		repo: repo,
	}, nil
}

// Claim inserts the admission row for the event. The unique constraint on
// idempotency_key is the sole arbiter under concurrency: a violation means
// another request already claimed the key, and the existing row is returned
// with claimed=false.
func (s *EventStore) Claim(ctx context.Context, record *core.EventRecord) (*core.EventRecord, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("sqlstore: event store is not configured")
	}
	if record == nil || strings.TrimSpace(record.IdempotencyKey) == "" {
		return nil, false, fmt.Errorf("sqlstore: event record with idempotency key is required")
	}

	row := eventRecordFromDomain(record)
	if strings.TrimSpace(row.ID) == "" {
		row.ID = uuid.NewString()
	}
	if row.ReceivedAt.IsZero() {
		row.ReceivedAt = time.Now().UTC()
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			existing, getErr := s.getByIdempotencyKey(ctx, record.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return eventRecordToDomain(row), true, nil
}

// Commit persists every sink outcome mutation on the record in one statement.
func (s *EventStore) Commit(ctx context.Context, record *core.EventRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	if record == nil || strings.TrimSpace(record.IdempotencyKey) == "" {
		return fmt.Errorf("sqlstore: event record with idempotency key is required")
	}
	_, err := s.db.NewUpdate().
		Model((*notificationEventRecord)(nil)).
		Set("ticket_sent = ?", record.TicketSent).
		Set("ticket_error = ?", core.TruncateSinkError(record.TicketError)).
		Set("chat_sent = ?", record.ChatSent).
		Set("chat_error = ?", core.TruncateSinkError(record.ChatError)).
		Where("idempotency_key = ?", strings.TrimSpace(record.IdempotencyKey)).
		Exec(ctx)
	return err
}

func (s *EventStore) getByIdempotencyKey(ctx context.Context, key string) (*core.EventRecord, error) {
	row := &notificationEventRecord{}
	err := s.db.NewSelect().
		Model(row).
		Where("?TableAlias.idempotency_key = ?", strings.TrimSpace(key)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sqlstore: notification event not found for key %q", key)
		}
		return nil, err
	}
	return eventRecordToDomain(row), nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
