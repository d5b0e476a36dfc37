package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-remediation-notify/core"
)

// ParsePROpened decodes and validates a PR-opened payload. Unknown fields are
// ignored; missing required fields reject the event at the boundary.
func ParsePROpened(body []byte) (PROpenedEvent, error) {
	var event PROpenedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return PROpenedEvent{}, decodeError(err, core.EventTypePROpened)
	}
	if event.EventType == "" {
		event.EventType = string(core.EventTypePROpened)
	}
	if event.Severity == "" {
		event.Severity = "high"
	}
	if err := event.Validate(); err != nil {
		return PROpenedEvent{}, err
	}
	return event, nil
}

func (e PROpenedEvent) Validate() error {
	var fields []goerrors.FieldError
	if e.EventType != string(core.EventTypePROpened) {
		fields = append(fields, fieldError("event_type", fmt.Sprintf("must be %q", core.EventTypePROpened)))
	}
	if e.ChangeID <= 0 {
		fields = append(fields, fieldError("change_id", "must be a positive integer"))
	}
	if e.JobID <= 0 {
		fields = append(fields, fieldError("job_id", "must be a positive integer"))
	}
	if e.Timestamp.IsZero() {
		fields = append(fields, fieldError("timestamp", "is required"))
	}
	if strings.TrimSpace(e.TargetRepo) == "" {
		fields = append(fields, fieldError("target_repo", "is required"))
	}
	if strings.TrimSpace(e.TargetService) == "" {
		fields = append(fields, fieldError("target_service", "is required"))
	}
	if strings.TrimSpace(e.PRURL) == "" {
		fields = append(fields, fieldError("pr_url", "is required"))
	}
	if len(fields) > 0 {
		return validationError(core.EventTypePROpened, fields)
	}
	return nil
}

// ParseRecoveryComplete decodes and validates a recovery-complete payload.
func ParseRecoveryComplete(body []byte) (RecoveryCompleteEvent, error) {
	var event RecoveryCompleteEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return RecoveryCompleteEvent{}, decodeError(err, core.EventTypeRecoveryComplete)
	}
	if event.EventType == "" {
		event.EventType = string(core.EventTypeRecoveryComplete)
	}
	if event.Severity == "" {
		event.Severity = "high"
	}
	if err := event.Validate(); err != nil {
		return RecoveryCompleteEvent{}, err
	}
	return event, nil
}

func (e RecoveryCompleteEvent) Validate() error {
	var fields []goerrors.FieldError
	if e.EventType != string(core.EventTypeRecoveryComplete) {
		fields = append(fields, fieldError("event_type", fmt.Sprintf("must be %q", core.EventTypeRecoveryComplete)))
	}
	if e.ChangeID <= 0 {
		fields = append(fields, fieldError("change_id", "must be a positive integer"))
	}
	if e.Timestamp.IsZero() {
		fields = append(fields, fieldError("timestamp", "is required"))
	}
	if len(fields) > 0 {
		return validationError(core.EventTypeRecoveryComplete, fields)
	}
	return nil
}

func fieldError(field, message string) goerrors.FieldError {
	return goerrors.FieldError{Field: field, Message: message}
}

func decodeError(err error, eventType core.EventType) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput,
		fmt.Sprintf("events: decode %s payload", eventType)).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.NotifyErrorBadInput)
}

func validationError(eventType core.EventType, fields []goerrors.FieldError) error {
	return goerrors.NewValidation(
		fmt.Sprintf("events: invalid %s payload", eventType), fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.NotifyErrorBadInput)
}
