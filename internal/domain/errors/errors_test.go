package errors

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{ErrSessionExpired, ErrInvalidCredentials, ErrNoActiveOrganization, ErrOrganizationNotFound, ErrTaskNotFound, ErrBusy} {
		if err == nil {
			t.Error("sentinel error should not be nil")
		}
	}
}

func TestFieldErrorsMessages(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("name", "This field is required.")
	fe.Add("email", "Enter a valid email address.")
	fe.Add("email", "A user with this email already exists.")

	want := []string{
		"Email: Enter a valid email address.",
		"Email: A user with this email already exists.",
		"Name: This field is required.",
	}
	if got := fe.Messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Messages() = %v, want %v", got, want)
	}
}

func TestHumanize(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"priority":         "Priority",
		"Name":             "Name",
		"non_field_errors": "Non_field_errors",
	}
	for in, want := range tests {
		if got := Humanize(in); got != want {
			t.Errorf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMessages(t *testing.T) {
	if got := Messages(nil); got != nil {
		t.Errorf("Messages(nil) = %v, want nil", got)
	}
	wrapped := fmt.Errorf("create task: %w", FieldErrors{"priority": {"This field is required."}})
	if got := Messages(wrapped); !reflect.DeepEqual(got, []string{"Priority: This field is required."}) {
		t.Errorf("Messages(wrapped) = %v", got)
	}
	if got := Messages(errors.New("dial tcp: refused")); !reflect.DeepEqual(got, []string{GenericMessage}) {
		t.Errorf("Messages(plain) = %v", got)
	}
	if got := Messages(FieldErrors{}); !reflect.DeepEqual(got, []string{GenericMessage}) {
		t.Errorf("Messages(empty) = %v", got)
	}
}
