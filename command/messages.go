// Package command exposes the event operations as go-command messages so
// callers can route them through a commander pipeline.
package command

import (
	"github.com/goliatone/go-remediation-notify/events"
)

const (
	TypeProcessPROpened         = "notify.command.pr_opened.process"
	TypeProcessRecoveryComplete = "notify.command.recovery_complete.process"
)

type ProcessPROpenedMessage struct {
	Event events.PROpenedEvent
}

func (ProcessPROpenedMessage) Type() string { return TypeProcessPROpened }

func (m ProcessPROpenedMessage) Validate() error {
	if m.Event.JobID <= 0 {
		return commandValidationError("job_id", "job id is required")
	}
	if m.Event.ChangeID <= 0 {
		return commandValidationError("change_id", "change id is required")
	}
	return nil
}

type ProcessRecoveryCompleteMessage struct {
	Event events.RecoveryCompleteEvent
}

func (ProcessRecoveryCompleteMessage) Type() string { return TypeProcessRecoveryComplete }

func (m ProcessRecoveryCompleteMessage) Validate() error {
	if m.Event.ChangeID <= 0 {
		return commandValidationError("change_id", "change id is required")
	}
	return nil
}
