package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unknown key column maps correctly",
			err:         unknownColumnError("key_a", "cust_id", "orders.csv"),
			wantCode:    "CFG001",
			wantMessage: "The selected key column does not exist",
		},
		{
			name:        "unsupported join maps correctly",
			err:         &ConfigurationError{Field: "join", Reason: `unsupported join type "cross"`, Err: ErrUnsupportedJoin},
			wantCode:    "CFG002",
			wantMessage: "Join type is not supported",
		},
		{
			name:        "empty input maps correctly",
			err:         fmt.Errorf("merge: %w", ErrEmptyInput),
			wantCode:    "CFG003",
			wantMessage: "No key column can be resolved",
		},
		{
			name:        "file too large maps correctly",
			err:         errors.New("file too large: 200MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "unsupported format maps correctly",
			err:         errors.New(`unsupported file format ".xls"`),
			wantCode:    "FILE003",
			wantMessage: "File format is not supported",
		},
		{
			name:        "oversized request body maps to file too large",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "malformed form maps to request error",
			err:         errors.New("invalid request: output must be one of json csv xlsx html"),
			wantCode:    "REQ001",
			wantMessage: "The request is missing a field or has an invalid value",
		},
		{
			name:        "missing upload wins over request error",
			err:         errors.New("invalid request: no file provided for file_b"),
			wantCode:    "FILE004",
			wantMessage: "A file was not selected",
		},
		{
			name:        "limiter error maps correctly",
			err:         ErrTooManyMerges,
			wantCode:    "MRG001",
			wantMessage: "The server is busy with other merges",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("EMPTY FILE: orders.csv"),
			wantCode:    "FILE005",
			wantMessage: "The file is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("no file provided for slot b")
	result := FormatUserError(err)

	expected := "A file was not selected (Code: FILE004). Select both files before continuing"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("invalid csv: bare quote in field"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
