package validator

import (
	"errors"
	"testing"
)

type issueRequest struct {
	Email       string `validate:"required,email,max=254,nocrlf"`
	DisplayName string `validate:"omitempty,nocrlf"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name      string
		in        issueRequest
		wantField string
	}{
		{name: "valid", in: issueRequest{Email: "user@example.com"}},
		{name: "empty email", in: issueRequest{}, wantField: "email"},
		{name: "malformed email", in: issueRequest{Email: "not-an-email"}, wantField: "email"},
		{name: "line break", in: issueRequest{Email: "user@example.com", DisplayName: "a\r\nBcc: x@y.z"}, wantField: "display_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %v", err)
			}
			if _, ok := verr.Values()[tt.wantField]; !ok {
				t.Fatalf("missing field %q in %v", tt.wantField, verr.Values())
			}
		})
	}
}

func TestV10ValidatorUsesJSONName(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	type payload struct {
		EmailAddress string `json:"emailAddress,omitempty" validate:"required"`
	}

	var verr V10ValidationError
	if !errors.As(v.Validate(payload{}), &verr) {
		t.Fatal("expected V10ValidationError")
	}
	if _, ok := verr["email_address"]; !ok {
		t.Fatalf("fields = %v, want email_address", verr)
	}
}
