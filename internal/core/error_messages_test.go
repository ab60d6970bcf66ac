package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/store"
	"github.com/sitestock/supplytrack/internal/tabular"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error", nil, ""},
		{"missing columns", &engine.ValidationError{MissingColumns: []string{"Unit"}}, "IMP001"},
		{"no data rows", &engine.ValidationError{Message: "no data rows"}, "IMP002"},
		{"too many rows", fmt.Errorf("decode: %w", tabular.ErrTooManyRows), "IMP003"},
		{"invariant", &engine.ReconciliationError{Item: "x", Reason: "duplicate"}, "IMP004"},
		{"busy", ErrTooManyImports, "IMP005"},
		{"file too large", fmt.Errorf("preview: %w", ErrFileTooLarge), "FILE001"},
		{"unsupported", tabular.ErrUnsupportedFormat, "FILE002"},
		{"empty file", tabular.ErrEmptyFile, "FILE003"},
		{"forbidden", fmt.Errorf("set price: %w", engine.ErrForbidden), "AUTH001"},
		{"unauthorized", ErrUnauthorized, "AUTH002"},
		{"not a site supply", fmt.Errorf("set price: %w: not a site supply", engine.ErrInvalidInput), "PRC001"},
		{"not a warehouse entry", fmt.Errorf("x: %w: not a warehouse entry", engine.ErrInvalidInput), "PRC002"},
		{"transition", fmt.Errorf("approve: %w", engine.ErrInvalidTransition), "TRF001"},
		{"stock", fmt.Errorf("request 1: %w", store.ErrInsufficientStock), "TRF002"},
		{"conflict", store.ErrConflict, "TRF003"},
		{"quantity", engine.ErrInvalidQuantity, "VAL001"},
		{"price", engine.ErrInvalidPrice, "VAL002"},
		{"input", fmt.Errorf("x: %w: name is required", engine.ErrInvalidInput), "VAL003"},
		{"not found", fmt.Errorf("entry 1: %w", store.ErrNotFound), "DB001"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"case insensitive", errors.New("DEADLOCK detected"), "DB007"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(store.ErrInsufficientStock)
	want := "The warehouse does not hold enough stock (Code: TRF002). Approve a smaller quantity or restock the warehouse"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(engine.ErrForbidden) {
		t.Error("IsUserFacing(ErrForbidden) = false")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(boom) = true")
	}
}
