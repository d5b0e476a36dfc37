package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

type stubEventStore struct {
	duplicate bool
	claimErr  error
	commitErr error
	claims    []*core.EventRecord
	commits   []*core.EventRecord
}

func (s *stubEventStore) Claim(_ context.Context, record *core.EventRecord) (*core.EventRecord, bool, error) {
	if s.claimErr != nil {
		return nil, false, s.claimErr
	}
	s.claims = append(s.claims, record)
	if s.duplicate {
		return record, false, nil
	}
	return record, true, nil
}

func (s *stubEventStore) Commit(_ context.Context, record *core.EventRecord) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.commits = append(s.commits, record)
	return nil
}

type stubTicketingClient struct {
	created    core.CreatedTicket
	createErr  error
	commentErr map[string]error
	creates    []core.TicketFields
	comments   []string
}

func (s *stubTicketingClient) CreateTicket(_ context.Context, fields core.TicketFields) (core.CreatedTicket, error) {
	s.creates = append(s.creates, fields)
	if s.createErr != nil {
		return core.CreatedTicket{}, s.createErr
	}
	return s.created, nil
}

func (s *stubTicketingClient) AddComment(_ context.Context, ticketKey string, _ map[string]any) error {
	s.comments = append(s.comments, ticketKey)
	if err, ok := s.commentErr[ticketKey]; ok {
		return err
	}
	return nil
}

type stubChatClient struct {
	sendErr error
	sent    []core.ChatMessage
}

func (s *stubChatClient) SendMessage(_ context.Context, msg core.ChatMessage) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubTicketLinkStore struct {
	createErr error
	listErr   error
	links     []*core.TicketLink
	created   []*core.TicketLink
}

func (s *stubTicketLinkStore) Create(_ context.Context, link *core.TicketLink) (*core.TicketLink, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, link)
	return link, nil
}

func (s *stubTicketLinkStore) ListForChange(_ context.Context, _ int64) ([]*core.TicketLink, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.links, nil
}

type stubBillingSource struct {
	summary *core.BillingSummary
	err     error
	calls   int
}

func (s *stubBillingSource) Summary(context.Context) (*core.BillingSummary, error) {
	s.calls++
	return s.summary, s.err
}

type stubChangeDetailSource struct {
	detail *core.ChangeDetail
	err    error
	calls  int
}

func (s *stubChangeDetailSource) ChangeDetail(context.Context, int64) (*core.ChangeDetail, error) {
	s.calls++
	return s.detail, s.err
}

type stubSessionTracker struct {
	session *core.TrackingSession
	err     error
	inputs  []core.CreateSessionInput
}

func (s *stubSessionTracker) CreateSession(_ context.Context, input core.CreateSessionInput) (*core.TrackingSession, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(core.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func prEvent() events.PROpenedEvent {
	return events.PROpenedEvent{
		EventType:       "pr_opened",
		ChangeID:        42,
		JobID:           7,
		Timestamp:       time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		SourceRepo:      "https://github.com/acme/orders-api",
		TargetRepo:      "https://github.com/acme/payments",
		TargetService:   "payments",
		PRURL:           "https://github.com/acme/payments/pull/12",
		DevinSessionURL: "https://app.devin.ai/sessions/abc",
		Severity:        "high",
		IsBreaking:      true,
		Summary:         "removed field customer_id from GET /orders",
		ChangedRoutes:   []string{"GET /orders"},
	}
}

func validBundle() *events.NotificationBundle {
	return &events.NotificationBundle{
		Author: "devin",
		Assertions: events.BundleAssertions{
			SourceRepo:    "https://github.com/acme/orders-api",
			TargetRepo:    "https://github.com/acme/payments",
			TargetService: "payments",
			PRURL:         "https://github.com/acme/payments/pull/12",
		},
		Ticket: events.BundleTicket{
			Summary:         "Fix payments after orders-api change",
			DescriptionText: "The remediation PR updates the client.",
		},
		Chat: events.BundleChat{
			Text:   "Remediation PR ready for payments",
			Blocks: []map[string]any{{"type": "section"}},
		},
	}
}

func TestProcessPROpened_BothSinksSucceed(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{created: core.CreatedTicket{Key: "ACCR-101", URL: "https://jira.example.com/browse/ACCR-101"}}
	chat := &stubChatClient{}
	links := &stubTicketLinkStore{}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
		WithTicketLinkStore(links),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusProcessed {
		t.Fatalf("expected processed, got %s", result.Status)
	}
	if result.TicketKey != "ACCR-101" || result.TicketURL == "" {
		t.Fatalf("unexpected ticket fields: %+v", result)
	}
	if !result.ChatSent {
		t.Fatalf("expected chat_sent true")
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	if len(ticketing.creates) != 1 {
		t.Fatalf("expected one ticket create, got %d", len(ticketing.creates))
	}
	fields := ticketing.creates[0]
	if fields.ProjectKey != "ACCR" {
		t.Fatalf("unexpected project key %q", fields.ProjectKey)
	}
	if !strings.Contains(fields.Summary, "payments") {
		t.Fatalf("generated summary should name the service, got %q", fields.Summary)
	}
	if !fields.HasDescription() {
		t.Fatalf("generated ticket should carry a description")
	}

	if len(links.created) != 1 {
		t.Fatalf("expected one ticket link, got %d", len(links.created))
	}
	link := links.created[0]
	if link.ChangeID != 42 || link.JobID != 7 || link.TicketKey != "ACCR-101" {
		t.Fatalf("unexpected ticket link: %+v", link)
	}

	if len(store.commits) != 1 {
		t.Fatalf("expected one commit, got %d", len(store.commits))
	}
	record := store.commits[0]
	if !record.TicketSent || !record.ChatSent {
		t.Fatalf("expected both sinks marked sent: %+v", record)
	}
	if record.IdempotencyKey != "pr_opened:7" {
		t.Fatalf("unexpected idempotency key %q", record.IdempotencyKey)
	}
}

func TestProcessPROpened_DuplicateSkipsAllSinks(t *testing.T) {
	store := &stubEventStore{duplicate: true}
	ticketing := &stubTicketingClient{}
	chat := &stubChatClient{}
	tracker := &stubSessionTracker{session: &core.TrackingSession{ID: "sess-1"}}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
		WithSessionTracker(tracker),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusAlreadyProcessed {
		t.Fatalf("expected already_processed, got %s", result.Status)
	}
	if result.Errors == nil || len(result.Errors) != 0 {
		t.Fatalf("expected empty errors slice, got %v", result.Errors)
	}
	if len(ticketing.creates) != 0 || len(chat.sent) != 0 {
		t.Fatalf("duplicate must not reach any sink")
	}
	if len(tracker.inputs) != 0 {
		t.Fatalf("duplicate must not create tracking sessions")
	}
	if len(store.commits) != 0 {
		t.Fatalf("duplicate must not commit outcomes")
	}
}

func TestProcessPROpened_TicketFailsChatStillDelivers(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{createErr: errors.New("jira: 503 upstream")}
	chat := &stubChatClient{}
	links := &stubTicketLinkStore{}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
		WithTicketLinkStore(links),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusPartial {
		t.Fatalf("expected partial, got %s", result.Status)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "ticket: ") {
		t.Fatalf("expected one ticket-prefixed error, got %v", result.Errors)
	}
	if result.TicketKey != "" {
		t.Fatalf("failed ticket must not surface a key")
	}
	if !result.ChatSent || len(chat.sent) != 1 {
		t.Fatalf("chat delivery must not be blocked by the ticket failure")
	}
	if len(links.created) != 0 {
		t.Fatalf("no ticket link should be written on create failure")
	}

	record := store.commits[0]
	if record.TicketSent || record.TicketError == "" {
		t.Fatalf("expected ticket failure persisted: %+v", record)
	}
	if !record.ChatSent || record.ChatError != "" {
		t.Fatalf("expected chat success persisted: %+v", record)
	}
}

func TestProcessPROpened_BothSinksFail(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{createErr: errors.New("jira down")}
	chat := &stubChatClient{sendErr: errors.New("slack down")}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected two errors, got %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "ticket: ") || !strings.HasPrefix(result.Errors[1], "chat: ") {
		t.Fatalf("expected ticket error before chat error, got %v", result.Errors)
	}
	if len(store.commits) != 1 {
		t.Fatalf("failed delivery must still commit the outcome")
	}
}

func TestProcessPROpened_ChatFailureAlone(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{created: core.CreatedTicket{Key: "ACCR-7", URL: "https://jira.example.com/browse/ACCR-7"}}
	chat := &stubChatClient{sendErr: errors.New("slack: api error: channel_not_found")}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusPartial {
		t.Fatalf("expected partial, got %s", result.Status)
	}
	if result.TicketKey != "ACCR-7" {
		t.Fatalf("expected ticket key on partial success, got %q", result.TicketKey)
	}
	if result.ChatSent {
		t.Fatalf("chat_sent must be false when the chat sink failed")
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "chat: ") {
		t.Fatalf("expected one chat-prefixed error, got %v", result.Errors)
	}
}

func TestProcessPROpened_ValidBundleContentWins(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{created: core.CreatedTicket{Key: "ACCR-9"}}
	chat := &stubChatClient{}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
	)

	event := prEvent()
	event.Bundle = validBundle()

	result, err := svc.ProcessPROpened(context.Background(), event)
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusProcessed {
		t.Fatalf("expected processed, got %s", result.Status)
	}
	if got := ticketing.creates[0].Summary; got != "Fix payments after orders-api change" {
		t.Fatalf("expected bundle summary, got %q", got)
	}
	if len(chat.sent) != 1 || len(chat.sent[0].Blocks) != 2 {
		t.Fatalf("expected bundle chat blocks plus ticket link, got %+v", chat.sent)
	}
	if !strings.Contains(fmt.Sprint(chat.sent[0].Blocks[1]), "ACCR-9") {
		t.Fatalf("expected the created ticket cross-linked after bundle blocks, got %+v", chat.sent[0].Blocks)
	}
}

func TestProcessPROpened_RejectedBundleFallsBackToGenerated(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{created: core.CreatedTicket{Key: "ACCR-10"}}
	chat := &stubChatClient{}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
	)

	event := prEvent()
	event.Bundle = validBundle()
	event.Bundle.Author = "somebody-else"

	result, err := svc.ProcessPROpened(context.Background(), event)
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusProcessed {
		t.Fatalf("a rejected bundle must not fail delivery, got %s", result.Status)
	}
	if got := ticketing.creates[0].Summary; got == "Fix payments after orders-api change" {
		t.Fatalf("rejected bundle content must not be used")
	}
	if !strings.Contains(ticketing.creates[0].Summary, "payments") {
		t.Fatalf("expected generated summary, got %q", ticketing.creates[0].Summary)
	}
}

func TestProcessPROpened_EnrichmentFailuresNeverSurface(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{created: core.CreatedTicket{Key: "ACCR-11"}}
	chat := &stubChatClient{}
	tracker := &stubSessionTracker{err: errors.New("tracker offline")}
	detail := &stubChangeDetailSource{err: errors.New("registry timeout")}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
		WithSessionTracker(tracker),
		WithChangeDetailSource(detail),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusProcessed {
		t.Fatalf("enrichment failures must not affect status, got %s", result.Status)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("enrichment failures must not appear in errors, got %v", result.Errors)
	}
	if len(tracker.inputs) != 1 || detail.calls != 1 {
		t.Fatalf("expected both enrichment sources to be attempted")
	}
}

func TestProcessPROpened_TrackingSessionInput(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{created: core.CreatedTicket{Key: "ACCR-12"}}
	chat := &stubChatClient{}
	tracker := &stubSessionTracker{session: &core.TrackingSession{ID: "sess-9"}}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
		WithSessionTracker(tracker),
	)

	if _, err := svc.ProcessPROpened(context.Background(), prEvent()); err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if len(tracker.inputs) != 1 {
		t.Fatalf("expected one tracking session, got %d", len(tracker.inputs))
	}
	input := tracker.inputs[0]
	if input.TeamID != "notification-service" {
		t.Fatalf("unexpected team id %q", input.TeamID)
	}
	if !strings.Contains(input.Tags, "change_id:42") || !strings.Contains(input.Tags, "job_id:7") {
		t.Fatalf("unexpected tags %q", input.Tags)
	}
}

func TestProcessPROpened_TicketLinkFailureKeepsTicketSent(t *testing.T) {
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{created: core.CreatedTicket{Key: "ACCR-13", URL: "https://jira.example.com/browse/ACCR-13"}}
	chat := &stubChatClient{}
	links := &stubTicketLinkStore{createErr: errors.New("insert failed")}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
		WithTicketLinkStore(links),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	if result.Status != core.StatusPartial {
		t.Fatalf("expected partial, got %s", result.Status)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "ticket: ") {
		t.Fatalf("expected link failure surfaced as ticket error, got %v", result.Errors)
	}
	if result.TicketKey != "ACCR-13" {
		t.Fatalf("created ticket key must survive link failure")
	}
	if record := store.commits[0]; !record.TicketSent {
		t.Fatalf("ticket remains sent when only the link write failed")
	}
}

func TestProcessPROpened_SinkErrorTruncatedOnRecord(t *testing.T) {
	longErr := strings.Repeat("x", core.MaxSinkErrorLength+100)
	store := &stubEventStore{}
	ticketing := &stubTicketingClient{createErr: errors.New(longErr)}
	chat := &stubChatClient{}

	svc := newTestService(t,
		WithEventStore(store),
		WithTicketingClient(ticketing),
		WithChatClient(chat),
	)

	result, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err != nil {
		t.Fatalf("process pr_opened: %v", err)
	}
	record := store.commits[0]
	if len(record.TicketError) != core.MaxSinkErrorLength {
		t.Fatalf("expected persisted error truncated to %d chars, got %d", core.MaxSinkErrorLength, len(record.TicketError))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
}

func TestProcessPROpened_ClaimFailureIsTerminal(t *testing.T) {
	store := &stubEventStore{claimErr: errors.New("db gone")}
	svc := newTestService(t, WithEventStore(store))

	if _, err := svc.ProcessPROpened(context.Background(), prEvent()); err == nil {
		t.Fatalf("expected claim failure to propagate")
	}
}

func TestProcessPROpened_ClaimFailureUsesErrorMapper(t *testing.T) {
	var seen []error
	mapper := func(err error) *goerrors.Error {
		seen = append(seen, err)
		return goerrors.New(err.Error(), goerrors.CategoryConflict)
	}
	store := &stubEventStore{claimErr: errors.New("duplicate key value violates unique constraint")}
	svc := newTestService(t, WithEventStore(store), WithErrorMapper(mapper))

	_, err := svc.ProcessPROpened(context.Background(), prEvent())
	if err == nil {
		t.Fatalf("expected claim failure to propagate")
	}
	if len(seen) != 1 {
		t.Fatalf("expected the injected mapper to classify the error, got %d calls", len(seen))
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryConflict {
		t.Fatalf("expected the mapper's conflict classification to pass through, got %v", err)
	}
}

func TestNewService_RequiresEventStore(t *testing.T) {
	if _, err := NewService(core.DefaultConfig()); !errors.Is(err, ErrEventStoreRequired) {
		t.Fatalf("expected ErrEventStoreRequired, got %v", err)
	}
}
