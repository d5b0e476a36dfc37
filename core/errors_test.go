package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestDefaultErrorMapper_Nil(t *testing.T) {
	if DefaultErrorMapper(nil) != nil {
		t.Fatalf("nil error maps to nil")
	}
}

func TestDefaultErrorMapper_PreservesRichErrors(t *testing.T) {
	source := goerrors.New("boundary rejected", goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(NotifyErrorBadInput)

	mapped := DefaultErrorMapper(source)
	if mapped.Category != goerrors.CategoryBadInput || mapped.Code != http.StatusBadRequest {
		t.Fatalf("rich errors must pass through, got %+v", mapped)
	}
	if mapped.TextCode != NotifyErrorBadInput {
		t.Fatalf("unexpected text code %q", mapped.TextCode)
	}
}

func TestDefaultErrorMapper_FillsEnvelopeDefaults(t *testing.T) {
	source := goerrors.New("conflict", goerrors.CategoryConflict)
	mapped := DefaultErrorMapper(source)
	if mapped.Code != http.StatusConflict {
		t.Fatalf("expected conflict status, got %d", mapped.Code)
	}
	if mapped.TextCode != NotifyErrorDuplicateEvent {
		t.Fatalf("expected duplicate text code, got %q", mapped.TextCode)
	}
}

func TestDefaultErrorMapper_ClassifiesPlainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
	}{
		{
			name:     "unavailable enrichment",
			err:      fmt.Errorf("billing not configured: %w", ErrEnrichmentUnavailable),
			category: goerrors.CategoryExternal,
			textCode: NotifyErrorEnrichmentUnavailable,
		},
		{
			name:     "unique violation",
			err:      errors.New("UNIQUE constraint failed: notification_events.idempotency_key"),
			category: goerrors.CategoryConflict,
			textCode: NotifyErrorDuplicateEvent,
		},
		{
			name:     "bad input wording",
			err:      errors.New("target_repo is required"),
			category: goerrors.CategoryBadInput,
			textCode: NotifyErrorBadInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := DefaultErrorMapper(tc.err)
			if mapped.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
		})
	}
}

func TestIsUnavailable(t *testing.T) {
	if !IsUnavailable(ErrEnrichmentUnavailable) {
		t.Fatalf("sentinel must read as unavailable")
	}
	if !IsUnavailable(fmt.Errorf("wrapped: %w", ErrEnrichmentUnavailable)) {
		t.Fatalf("wrapped sentinel must read as unavailable")
	}
	if IsUnavailable(errors.New("other")) {
		t.Fatalf("unrelated errors are not unavailable")
	}
	if IsUnavailable(nil) {
		t.Fatalf("nil is not unavailable")
	}
}
