package validation

import (
	"strings"
	"testing"
)

func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"present", "hello", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			got := v.Required("field", tt.value)
			if got != tt.valid {
				t.Errorf("Required(%q) = %v, expected %v", tt.value, got, tt.valid)
			}
			if v.IsValid() != tt.valid {
				t.Errorf("IsValid() = %v, expected %v", v.IsValid(), tt.valid)
			}
		})
	}
}

func TestValidator_Email(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"emma@example.com", true},
		{"first.last+tag@sub.domain.org", true},
		{"no-at-sign.com", false},
		{"two@@example.com", false},
		{"spaces in@example.com", false},
		{"missing@tld", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			v := New()
			if got := v.Email("email", tt.email); got != tt.valid {
				t.Errorf("Email(%q) = %v, expected %v", tt.email, got, tt.valid)
			}
		})
	}
}

func TestValidator_MaxLength(t *testing.T) {
	v := New()
	if !v.MaxLength("name", "short", 10) {
		t.Error("expected short value to pass")
	}
	if v.MaxLength("name", strings.Repeat("x", 11), 10) {
		t.Error("expected long value to fail")
	}

	// Runes, not bytes.
	v2 := New()
	if !v2.MaxLength("name", strings.Repeat("é", 10), 10) {
		t.Error("expected 10 multibyte runes to pass a limit of 10")
	}
}

func TestValidator_OneOf(t *testing.T) {
	v := New()
	if !v.OneOf("format", "duo", "solo", "duo", "trio") {
		t.Error("expected member value to pass")
	}
	if v.OneOf("format", "orchestra", "solo", "duo", "trio") {
		t.Error("expected non-member value to fail")
	}
}

func TestValidator_AccumulatesErrors(t *testing.T) {
	v := New()
	v.Required("name", "")
	v.Required("email", "")
	v.Email("email", "bad")

	errs := v.Errors()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(errs))
	}

	fields := errs.Fields()
	if fields[0] != "name" || fields[1] != "email" {
		t.Errorf("unexpected error fields: %v", fields)
	}

	msg := errs.Error()
	if !strings.Contains(msg, "name: is required") {
		t.Errorf("combined message missing field context: %q", msg)
	}
}

func TestValidationErrors_Empty(t *testing.T) {
	var errs ValidationErrors
	if errs.HasErrors() {
		t.Error("empty collection should not report errors")
	}
	if errs.Error() != "validation failed" {
		t.Errorf("unexpected empty message: %q", errs.Error())
	}
}
