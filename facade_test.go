package notify

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/inbound"
)

type memoryEventStore struct {
	records map[string]*core.EventRecord
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{records: map[string]*core.EventRecord{}}
}

func (s *memoryEventStore) Claim(_ context.Context, record *core.EventRecord) (*core.EventRecord, bool, error) {
	if existing, ok := s.records[record.IdempotencyKey]; ok {
		return existing, false, nil
	}
	s.records[record.IdempotencyKey] = record
	return record, true, nil
}

func (s *memoryEventStore) Commit(_ context.Context, record *core.EventRecord) error {
	s.records[record.IdempotencyKey] = record
	return nil
}

type memoryTicketLinkStore struct {
	links []*core.TicketLink
}

func (s *memoryTicketLinkStore) Create(_ context.Context, link *core.TicketLink) (*core.TicketLink, error) {
	s.links = append(s.links, link)
	return link, nil
}

func (s *memoryTicketLinkStore) ListForChange(_ context.Context, changeID int64) ([]*core.TicketLink, error) {
	var out []*core.TicketLink
	for _, link := range s.links {
		if link.ChangeID == changeID {
			out = append(out, link)
		}
	}
	return out, nil
}

type fixedTicketingClient struct {
	created  core.CreatedTicket
	comments []string
}

func (c *fixedTicketingClient) CreateTicket(context.Context, core.TicketFields) (core.CreatedTicket, error) {
	return c.created, nil
}

func (c *fixedTicketingClient) AddComment(_ context.Context, ticketKey string, _ map[string]any) error {
	c.comments = append(c.comments, ticketKey)
	return nil
}

type recordingChatClient struct {
	sent []core.ChatMessage
}

func (c *recordingChatClient) SendMessage(_ context.Context, msg core.ChatMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestNew_RequiresStoreOrPersistence(t *testing.T) {
	if _, err := New(core.DefaultConfig()); err == nil {
		t.Fatalf("expected error without a store or persistence handle")
	}
}

func TestNew_AssemblesService(t *testing.T) {
	svc, err := New(core.DefaultConfig(),
		WithEventStore(newMemoryEventStore()),
		WithTicketLinkStore(&memoryTicketLinkStore{}),
		WithTicketingClient(&fixedTicketingClient{created: core.CreatedTicket{Key: "ACCR-1"}}),
		WithChatClient(&recordingChatClient{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Dispatch() == nil || svc.Inbound() == nil {
		t.Fatalf("expected dispatch and inbound assembled")
	}
	commands := svc.Commands()
	if commands.ProcessPROpened == nil || commands.ProcessRecoveryComplete == nil {
		t.Fatalf("expected command wrappers assembled")
	}
	if svc.Config().Ticketing.ProjectKey != "ACCR" {
		t.Fatalf("expected config carried through")
	}
}

type mapRawLoader struct {
	raw map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	return l.raw, nil
}

func TestNew_ResolvesConfigThroughProvider(t *testing.T) {
	provider := core.NewCfgxConfigProvider(mapRawLoader{raw: map[string]any{
		"data_residency": "eu",
		"chat":           map[string]any{"channel": "#from-file"},
	}})

	runtime := core.Config{Chat: core.ChatConfig{Channel: "#from-flags"}}

	svc, err := New(runtime,
		WithConfigProvider(provider),
		WithEventStore(newMemoryEventStore()),
		WithTicketingClient(&fixedTicketingClient{}),
		WithChatClient(&recordingChatClient{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := svc.Config()
	if cfg.DataResidency != "eu" {
		t.Fatalf("expected provider-loaded residency, got %q", cfg.DataResidency)
	}
	if cfg.Chat.Channel != "#from-flags" {
		t.Fatalf("expected runtime channel to win over file, got %q", cfg.Chat.Channel)
	}
	if cfg.Ticketing.ProjectKey != "ACCR" {
		t.Fatalf("expected defaults to fill unset keys, got %q", cfg.Ticketing.ProjectKey)
	}
}

func TestService_EndToEndThroughInbound(t *testing.T) {
	events := newMemoryEventStore()
	links := &memoryTicketLinkStore{}
	ticketing := &fixedTicketingClient{created: core.CreatedTicket{Key: "ACCR-101", URL: "https://jira.example.com/browse/ACCR-101"}}
	chat := &recordingChatClient{}

	svc, err := New(core.DefaultConfig(),
		WithEventStore(events),
		WithTicketLinkStore(links),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	prBody := []byte(`{
		"event_type": "pr_opened",
		"change_id": 42,
		"job_id": 7,
		"timestamp": "2026-03-14T10:00:00Z",
		"target_repo": "acme/payments",
		"target_service": "payments",
		"pr_url": "https://github.com/acme/payments/pull/12"
	}`)

	result, err := svc.Inbound().Dispatch(ctx, inbound.Request{Surface: inbound.SurfacePROpened, Body: prBody})
	if err != nil {
		t.Fatalf("dispatch pr_opened: %v", err)
	}
	if result.StatusCode != http.StatusOK || result.Response.Status != core.StatusProcessed {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Response.TicketKey != "ACCR-101" {
		t.Fatalf("unexpected ticket key %q", result.Response.TicketKey)
	}
	if len(links.links) != 1 {
		t.Fatalf("expected ticket link persisted")
	}

	// Same payload again is a duplicate.
	replay, err := svc.Inbound().Dispatch(ctx, inbound.Request{Surface: inbound.SurfacePROpened, Body: prBody})
	if err != nil {
		t.Fatalf("replay pr_opened: %v", err)
	}
	if replay.Response.Status != core.StatusAlreadyProcessed {
		t.Fatalf("expected already_processed, got %s", replay.Response.Status)
	}
	if len(chat.sent) != 1 {
		t.Fatalf("replay must not deliver again")
	}

	recoveryBody := []byte(`{
		"event_type": "recovery_complete",
		"change_id": 42,
		"timestamp": "2026-03-14T12:00:00Z",
		"mttr_seconds": 5400,
		"jobs": [{"job_id": 7, "target_service": "payments", "pr_url": "https://github.com/acme/payments/pull/12"}]
	}`)
	recovery, err := svc.Inbound().Dispatch(ctx, inbound.Request{Surface: inbound.SurfaceRecoveryComplete, Body: recoveryBody})
	if err != nil {
		t.Fatalf("dispatch recovery_complete: %v", err)
	}
	if recovery.Response.Status != core.StatusProcessed {
		t.Fatalf("unexpected recovery result %+v", recovery.Response)
	}
	if len(ticketing.comments) != 1 || ticketing.comments[0] != "ACCR-101" {
		t.Fatalf("expected resolution comment on the linked ticket, got %v", ticketing.comments)
	}
	if len(chat.sent) != 2 {
		t.Fatalf("expected the recovery report posted, got %d messages", len(chat.sent))
	}
}
