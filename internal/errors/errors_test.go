package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Message: "something failed"},
			expected: "something failed",
		},
		{
			name:     "with op",
			err:      &Error{Op: "sequencer.Initialize", Message: "something failed"},
			expected: "sequencer.Initialize: something failed",
		},
		{
			name:     "with wrapped error",
			err:      &Error{Message: "something failed", Err: errors.New("boom")},
			expected: "something failed: boom",
		},
		{
			name:     "with op and wrapped error",
			err:      &Error{Op: "repo.Get", Message: "something failed", Err: errors.New("boom")},
			expected: "repo.Get: something failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := Wrap(inner, "op", CodeDatabase, "db failed")

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestError_Is_MatchesByCode(t *testing.T) {
	err := NotFound("sequence")
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected NotFound error to match ErrNotFound")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("expected NotFound error not to match ErrRateLimited")
	}
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code     Code
		expected int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeMissingField, http.StatusBadRequest},
		{CodeInvalidValue, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeBookingInProgress, http.StatusConflict},
		{CodeFeatureDisabled, http.StatusUnprocessableEntity},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeTransportUnavailable, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDatabase, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "test")
			if got := err.HTTPStatus(); got != tt.expected {
				t.Errorf("HTTPStatus() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestKindForCode(t *testing.T) {
	if !New(CodeValidation, "x").IsUserError() {
		t.Error("validation errors should be user errors")
	}
	if !New(CodeRateLimited, "x").IsRetriable() {
		t.Error("rate limit errors should be retriable")
	}
	if New(CodeDatabase, "x").IsUserError() {
		t.Error("database errors should not be user errors")
	}
}

func TestWrapWithOp_PreservesCode(t *testing.T) {
	inner := FeatureDisabled("consultation booking")
	wrapped := WrapWithOp(inner, "engine.ScheduleConsultation")

	if wrapped.Code != CodeFeatureDisabled {
		t.Errorf("Code = %s, expected %s", wrapped.Code, CodeFeatureDisabled)
	}
	if wrapped.Op != "engine.ScheduleConsultation" {
		t.Errorf("Op = %s, expected engine.ScheduleConsultation", wrapped.Op)
	}
}

func TestWrapWithOp_ForeignError(t *testing.T) {
	wrapped := WrapWithOp(errors.New("boom"), "op")

	if wrapped.Code != CodeInternal {
		t.Errorf("Code = %s, expected %s", wrapped.Code, CodeInternal)
	}
	if wrapped.Kind != KindSystem {
		t.Errorf("Kind = %d, expected KindSystem", wrapped.Kind)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NotFound("x")); got != CodeNotFound {
		t.Errorf("CodeOf = %s, expected %s", got, CodeNotFound)
	}
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Errorf("CodeOf plain error = %s, expected %s", got, CodeInternal)
	}

	// Code survives fmt wrapping.
	wrapped := fmt.Errorf("context: %w", NotFound("x"))
	if !IsCode(wrapped, CodeNotFound) {
		t.Error("expected IsCode to see through fmt wrapping")
	}
}

func TestToResponse(t *testing.T) {
	err := ValidationFailed("name is required")
	resp := err.ToResponse()

	if resp.Error.Code != CodeValidation {
		t.Errorf("response code = %s, expected %s", resp.Error.Code, CodeValidation)
	}
	if resp.Error.Message != "name is required" {
		t.Errorf("response message = %q", resp.Error.Message)
	}
}
