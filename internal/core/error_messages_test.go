package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"unsupported format", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ".txt"), "FILE002"},
		{"unreadable file", fmt.Errorf("%w: zip: not a valid zip file", ErrUnreadableFile), "FILE003"},
		{"empty file", ErrEmptyFile, "FILE005"},
		{"file too large", fmt.Errorf("upload: %w", ErrFileTooLarge), "FILE001"},
		{"unknown entity kind", fmt.Errorf("%w: dish", ErrUnknownEntityKind), "ETL001"},
		{"batch rollback", fmt.Errorf("%w: conn closed", ErrBatchRollback), "ETL002"},
		{"busy", ErrTooManyImports, "IMP001"},
		{"cancelled", fmt.Errorf("load cancelled: %w", context.Canceled), "IMP002"},
		{"deadline", fmt.Errorf("load cancelled: %w", context.DeadlineExceeded), "IMP003"},
		{"not found", fmt.Errorf("get restaurant 7: %w", ErrNotFound), "REQ001"},
		{"bad parameter", fmt.Errorf("%w: limit", ErrInvalidParameter), "REQ002"},
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "restaurants_name_address_key"`), "DB001"},
		{"foreign key", errors.New("violates foreign key constraint"), "DB003"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"case insensitive matching", errors.New("DEADLOCK detected"), "DB007"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned empty message")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrEmptyFile)
	if !strings.Contains(got, "(Code: FILE005)") {
		t.Errorf("FormatUserError() = %q, want code suffix", got)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(ErrTooManyImports) {
		t.Error("ErrTooManyImports should be user facing")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("unmatched error should not be user facing")
	}
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
}
