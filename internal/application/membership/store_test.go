package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports/portstest"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/notify"
)

func fixture(t *testing.T) (*Store, *portstest.API, *notify.Recorder) {
	t.Helper()
	api := portstest.New()
	api.Profile = domain.User{ID: 1, Username: "ada", Email: "ada@example.com"}
	api.Users = []domain.User{
		{ID: 1, Username: "ada", Email: "ada@example.com"},
		{ID: 2, Username: "x", Email: "x@example.com"},
		{ID: 3, Username: "y", Email: "y@example.com"},
	}
	api.Members[10] = []domain.UserID{1}
	api.Members[20] = []domain.UserID{1, 3}
	rec := notify.NewRecorder()
	return NewStore(api, api, rec, zerolog.Nop()), api, rec
}

func ids(users []domain.User) []domain.UserID {
	out := make([]domain.UserID, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func contains(users []domain.User, id domain.UserID) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func TestSetOrganizationLoadsBothSets(t *testing.T) {
	s, _, _ := fixture(t)
	if err := s.SetOrganization(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if got := ids(s.Members()); len(got) != 1 || got[0] != 1 {
		t.Errorf("members = %v", got)
	}
	if got := ids(s.NonMembers()); len(got) != 2 {
		t.Errorf("non-members = %v", got)
	}
	if s.Loading(OpMembers) || s.Loading(OpNonMembers) {
		t.Error("loading flags left set")
	}
}

func TestAddMembersMovesUser(t *testing.T) {
	ctx := context.Background()
	s, api, rec := fixture(t)
	_ = s.SetOrganization(ctx, 10)

	done := false
	if err := s.AddMembers(ctx, []string{" X@example.com ", "x@example.com"}, func() { done = true }); err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("onSuccess not called")
	}
	if !contains(s.Members(), 2) || contains(s.NonMembers(), 2) {
		t.Errorf("members = %v non-members = %v", ids(s.Members()), ids(s.NonMembers()))
	}
	if api.Calls("ListMembers") != 2 || api.Calls("ListNonMembers") != 2 {
		t.Error("both sets should be reloaded")
	}
	if ok := rec.Successes(); len(ok) != 1 || ok[0] != "Members added successfully" {
		t.Errorf("successes = %v", ok)
	}
}

func TestAddMembersValidation(t *testing.T) {
	ctx := context.Background()
	s, api, rec := fixture(t)
	_ = s.SetOrganization(ctx, 10)

	for _, emails := range [][]string{nil, {"not-an-email"}} {
		err := s.AddMembers(ctx, emails, nil)
		var fe domerrors.FieldErrors
		if !errors.As(err, &fe) {
			t.Errorf("AddMembers(%v) err = %v", emails, err)
		}
	}
	if api.Calls("AddMembers") != 0 {
		t.Error("invalid input reached the server")
	}
	if len(rec.Errors()) != 2 {
		t.Errorf("errors = %v", rec.Errors())
	}
}

func TestAddMembersWithoutOrganization(t *testing.T) {
	s, _, _ := fixture(t)
	err := s.AddMembers(context.Background(), []string{"x@example.com"}, nil)
	if !errors.Is(err, domerrors.ErrNoActiveOrganization) {
		t.Errorf("err = %v", err)
	}
}

func TestAddMembersFailureKeepsSets(t *testing.T) {
	ctx := context.Background()
	s, api, _ := fixture(t)
	_ = s.SetOrganization(ctx, 10)
	api.FailWith("AddMembers", domerrors.FieldErrors{"emails": {"Unknown user."}})

	called := false
	if err := s.AddMembers(ctx, []string{"x@example.com"}, func() { called = true }); err == nil {
		t.Fatal("want error")
	}
	if called {
		t.Error("onSuccess called on failure")
	}
	if contains(s.Members(), 2) {
		t.Error("member added locally despite failure")
	}
}

func TestSwitchingOrganizationReplacesSets(t *testing.T) {
	ctx := context.Background()
	s, _, _ := fixture(t)
	_ = s.SetOrganization(ctx, 10)
	_ = s.SetOrganization(ctx, 20)
	if got := ids(s.Members()); len(got) != 2 || !contains(s.Members(), 3) {
		t.Errorf("members = %v", got)
	}
	if got := ids(s.NonMembers()); len(got) != 1 || got[0] != 2 {
		t.Errorf("non-members = %v", got)
	}
	_ = s.SetOrganization(ctx, 0)
	if len(s.Members()) != 0 || len(s.NonMembers()) != 0 {
		t.Error("sets kept without an organization")
	}
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	s, _, _ := fixture(t)
	_ = s.SetOrganization(ctx, 20)
	if err := s.RemoveMember(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if contains(s.Members(), 3) || !contains(s.NonMembers(), 3) {
		t.Errorf("members = %v", ids(s.Members()))
	}
}

func TestProfile(t *testing.T) {
	s, _, _ := fixture(t)
	if _, ok := s.Profile(); ok {
		t.Fatal("profile before fetch")
	}
	if err := s.FetchProfile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p, ok := s.Profile(); !ok || p.Username != "ada" {
		t.Errorf("profile = %+v", p)
	}
	s.Clear()
	if _, ok := s.Profile(); ok {
		t.Error("profile kept after Clear")
	}
}
