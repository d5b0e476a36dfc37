package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-remediation-notify/core"
	"github.com/goliatone/go-remediation-notify/events"
)

// EventService is the dispatch surface the commands forward to.
type EventService interface {
	ProcessPROpened(ctx context.Context, event events.PROpenedEvent) (core.DispatchResult, error)
	ProcessRecoveryComplete(ctx context.Context, event events.RecoveryCompleteEvent) (core.DispatchResult, error)
}

type ProcessPROpenedCommand struct {
	service EventService
}

func NewProcessPROpenedCommand(service EventService) *ProcessPROpenedCommand {
	return &ProcessPROpenedCommand{service: service}
}

func (c *ProcessPROpenedCommand) Execute(ctx context.Context, msg ProcessPROpenedMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: pr-opened service is required")
	}
	out, err := c.service.ProcessPROpened(ctx, msg.Event)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ProcessRecoveryCompleteCommand struct {
	service EventService
}

func NewProcessRecoveryCompleteCommand(service EventService) *ProcessRecoveryCompleteCommand {
	return &ProcessRecoveryCompleteCommand{service: service}
}

func (c *ProcessRecoveryCompleteCommand) Execute(ctx context.Context, msg ProcessRecoveryCompleteMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: recovery service is required")
	}
	out, err := c.service.ProcessRecoveryComplete(ctx, msg.Event)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
