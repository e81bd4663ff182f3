package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "format error",
			err:      &FormatError{Reason: "no badge number or event date column"},
			wantCode: "FMT001",
		},
		{
			name:     "wrapped format error",
			err:      fmt.Errorf("open: %w", &FormatError{}),
			wantCode: "FMT001",
		},
		{
			name:     "missing input",
			err:      ErrMissingInput,
			wantCode: "FMT002",
		},
		{
			name:     "no delimiter",
			err:      ErrNoDelimiter,
			wantCode: "FMT003",
		},
		{
			name:     "file too large",
			err:      fmt.Errorf("upload: %w", ErrFileTooLarge),
			wantCode: "FMT004",
		},
		{
			name:     "empty file",
			err:      ErrEmptyFile,
			wantCode: "FMT005",
		},
		{
			name:     "transaction failure",
			err:      fmt.Errorf("persist batch: %w", ErrTransaction),
			wantCode: "IMP001",
		},
		{
			name:     "transaction failure wins over its cause",
			err:      fmt.Errorf("%w: commit: %w", ErrTransaction, &pgconn.PgError{Code: "40001"}),
			wantCode: "IMP001",
		},
		{
			name:     "limiter busy",
			err:      ErrTooManyImports,
			wantCode: "IMP002",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "IMP003",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("import: %w", context.DeadlineExceeded),
			wantCode: "IMP003",
		},
		{
			name:     "unique violation sqlstate",
			err:      &pgconn.PgError{Code: "23505", Message: "boom"},
			wantCode: "DB001",
		},
		{
			name:     "foreign key sqlstate",
			err:      fmt.Errorf("create access log: %w", &pgconn.PgError{Code: "23503"}),
			wantCode: "DB002",
		},
		{
			name:     "value too long sqlstate",
			err:      &pgconn.PgError{Code: "22001"},
			wantCode: "DB003",
		},
		{
			name:     "admin shutdown sqlstate",
			err:      &pgconn.PgError{Code: "57P01"},
			wantCode: "DB004",
		},
		{
			name:     "deadlock sqlstate",
			err:      &pgconn.PgError{Code: "40P01"},
			wantCode: "DB005",
		},
		{
			name:     "duplicate key text",
			err:      errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode: "DB001",
		},
		{
			name:     "connection refused text",
			err:      errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode: "DB004",
		},
		{
			name:     "validation errors",
			err:      ValidationErrors{{Field: "badgeNumber", Message: "is required"}},
			wantCode: "VAL001",
		},
		{
			name:     "rate limit text",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown",
			err:      errors.New("something odd"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && (got.Message == "" || got.Action == "") {
				t.Errorf("MapError() = %+v, want message and action", got)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Rendering
// ----------------------------------------------------------------------------

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q", got)
	}

	got := FormatUserError(ErrEmptyFile)
	want := "The file is empty (Code: FMT005). Export at least a header row and one event"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil must not be user facing")
	}
	if IsUserFacing(errors.New("something odd")) {
		t.Error("unknown errors must not be user facing")
	}
	if !IsUserFacing(ErrTooManyImports) {
		t.Error("ErrTooManyImports must be user facing")
	}
}

func TestRecordFailure(t *testing.T) {
	verr := ValidationErrors{{Field: "badgeNumber", Message: "is required"}}
	if got := recordFailure(verr); got != "validation failed: badgeNumber: is required" {
		t.Errorf("recordFailure(validation) = %q", got)
	}

	got := recordFailure(fmt.Errorf("create access log: %w", &pgconn.PgError{Code: "23505"}))
	if !strings.Contains(got, "Code: DB001") {
		t.Errorf("recordFailure(unique) = %q, want DB001", got)
	}

	if got := recordFailure(errors.New("disk on fire")); got != "disk on fire" {
		t.Errorf("recordFailure(unknown) = %q, want raw text", got)
	}
}
