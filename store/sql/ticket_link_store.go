package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-remediation-notify/core"
)

type TicketLinkStore struct {
	db   *bun.DB
	repo repository.Repository[*ticketLinkRecord]
}

func NewTicketLinkStore(db *bun.DB) (*TicketLinkStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*ticketLinkRecord](db, ticketLinkHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid ticket link repository wiring: %w", err)
		}
	}
	return &TicketLinkStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *TicketLinkStore) Create(ctx context.Context, link *core.TicketLink) (*core.TicketLink, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: ticket link store is not configured")
	}
	if link == nil || strings.TrimSpace(link.TicketKey) == "" {
		return nil, fmt.Errorf("sqlstore: ticket link with ticket key is required")
	}

	record := ticketLinkFromDomain(link)
	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return ticketLinkToDomain(created), nil
}

func (s *TicketLinkStore) ListForChange(ctx context.Context, changeID int64) ([]*core.TicketLink, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: ticket link store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.change_id = ?", changeID)
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	links := make([]*core.TicketLink, 0, len(records))
	for _, record := range records {
		links = append(links, ticketLinkToDomain(record))
	}
	return links, nil
}
