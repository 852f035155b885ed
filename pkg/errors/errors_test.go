package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeInvalidMapping, "origin and destination are both %q", "city")
	if got, want := err.Error(), `INVALID_MAPPING: origin and destination are both "city"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("no such file")
	wrapped := Wrap(ErrCodeFileNotFound, cause, "open %s", "trips.csv")
	if got, want := wrapped.Error(), "FILE_NOT_FOUND: open trips.csv: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is(wrapped, cause) = false, want true")
	}
	if errors.Unwrap(wrapped) != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestCodeLookup(t *testing.T) {
	mapping := New(ErrCodeInvalidMapping, "same column")
	tests := []struct {
		name     string
		err      error
		code     Code
		wantIs   bool
		wantCode Code
		wantMsg  string
	}{
		{"coded", mapping, ErrCodeInvalidMapping, true, ErrCodeInvalidMapping, "same column"},
		{"other code", mapping, ErrCodeInvalidView, false, ErrCodeInvalidMapping, "same column"},
		{"fmt wrapped", fmt.Errorf("set mapping: %w", mapping), ErrCodeInvalidMapping, true, ErrCodeInvalidMapping, "same column"},
		{"outermost wins", Wrap(ErrCodeInvalidInput, mapping, "request"), ErrCodeInvalidMapping, false, ErrCodeInvalidInput, "request"},
		{"plain", errors.New("boom"), ErrCodeInternal, false, "", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.wantIs {
				t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.wantIs)
			}
			if got := GetCode(tt.err); got != tt.wantCode {
				t.Errorf("GetCode() = %q, want %q", got, tt.wantCode)
			}
			if got := UserMessage(tt.err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}

	if Is(nil, ErrCodeInvalidInput) || GetCode(nil) != "" {
		t.Error("nil error should carry no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid mapping", New(ErrCodeInvalidMapping, "same column"), 400},
		{"invalid column", New(ErrCodeInvalidColumn, "no column"), 400},
		{"invalid view", New(ErrCodeInvalidView, "bad view"), 400},
		{"workspace missing", New(ErrCodeWorkspaceNotFound, "gone"), 404},
		{"no data", New(ErrCodeNoData, "empty"), 422},
		{"unsupported", New(ErrCodeUnsupported, "pdf"), 501},
		{"internal", New(ErrCodeInternal, "oops"), 500},
		{"wrapped", fmt.Errorf("load: %w", Wrap(ErrCodeFileNotFound, errors.New("enoent"), "open")), 404},
		{"plain error", errors.New("boom"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodeHTTPStatusUnknown(t *testing.T) {
	if got := Code("SOMETHING_ELSE").HTTPStatus(); got != 500 {
		t.Errorf("HTTPStatus() = %d, want 500", got)
	}
}
