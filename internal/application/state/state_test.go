package state

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

type notices struct {
	ok, errs []string
}

func (n *notices) Success(msg string) { n.ok = append(n.ok, msg) }
func (n *notices) Error(msg string)   { n.errs = append(n.errs, msg) }

func TestLoading(t *testing.T) {
	var l Loading
	if l.Active("create") || l.Any() {
		t.Fatal("zero Loading should be idle")
	}
	if !l.TryBegin("create") {
		t.Fatal("first TryBegin should succeed")
	}
	if l.TryBegin("create") {
		t.Error("second TryBegin should fail while running")
	}
	if !l.TryBegin("update") {
		t.Error("flags are per operation")
	}
	l.End("create")
	l.End("update")
	if l.Any() {
		t.Error("all flags should be cleared")
	}
}

func TestListeners(t *testing.T) {
	var l Listeners[int]
	var got []string
	unsubA := l.Subscribe(func(v int) { got = append(got, fmt.Sprintf("a%d", v)) })
	l.Subscribe(func(v int) { got = append(got, fmt.Sprintf("b%d", v)) })
	l.Notify(1)
	unsubA()
	l.Notify(2)
	want := []string{"a1", "b1", "b2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSurface(t *testing.T) {
	n := &notices{}
	Surface(n, domerrors.FieldErrors{"name": {"This field is required."}})
	Surface(n, errors.New("boom"))
	Surface(n, fmt.Errorf("list: %w", domerrors.ErrSessionExpired))
	Surface(n, context.Canceled)
	want := []string{"Name: This field is required.", domerrors.GenericMessage}
	if !reflect.DeepEqual(n.errs, want) {
		t.Errorf("errors = %v, want %v", n.errs, want)
	}
}

func TestValidateStruct_TaskInput(t *testing.T) {
	err := ValidateStruct(domain.TaskInput{
		Name:        "Write spec",
		Description: "draft",
		Status:      domain.StatusInProgress,
		AssignedTo:  3,
	})
	var fe domerrors.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if len(fe) != 1 || len(fe["priority"]) != 1 || fe["priority"][0] != RequiredMessage {
		t.Errorf("field errors = %v, want a single priority message", fe)
	}

	err = ValidateStruct(domain.TaskInput{})
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	for _, field := range []string{"name", "description", "priority", "status", "assignee"} {
		if len(fe[field]) != 1 {
			t.Errorf("field %q messages = %v, want exactly one", field, fe[field])
		}
	}
}

func TestValidateStruct_Registration(t *testing.T) {
	err := ValidateStruct(domain.Registration{
		Email:           "ada@example.com",
		Username:        "ada",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Password:        "longenough",
		ConfirmPassword: "different1",
	})
	var fe domerrors.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if got := fe["confirm_password"]; len(got) != 1 || got[0] != "Passwords do not match." {
		t.Errorf("confirm_password = %v", got)
	}
}

func TestValidEmail(t *testing.T) {
	if !ValidEmail("x@example.com") {
		t.Error("x@example.com should be valid")
	}
	for _, bad := range []string{"", "x", "x@", "not an email"} {
		if ValidEmail(bad) {
			t.Errorf("ValidEmail(%q) = true", bad)
		}
	}
}
