package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/auth"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports/portstest"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/api"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/devserver"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/notify"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/tokenstore"
)

func startDevServer(t *testing.T) string {
	t.Helper()
	s, err := devserver.New(devserver.Config{JWTSecret: "test-secret", Log: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// seed registers username, logs in and creates an organization with that
// name, returning the token.
func seed(t *testing.T, baseURL, username string) string {
	t.Helper()
	ctx := context.Background()
	var tok string
	c, err := api.New(baseURL, api.WithTokenSource(func() string { return tok }))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Register(ctx, domain.Registration{Username: username, Email: username + "@example.com", Password: "password123"}); err != nil {
		t.Fatal(err)
	}
	if tok, err = c.Login(ctx, domain.Credentials{Username: username, Password: "password123"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateOrganization(ctx, domain.OrganizationInput{Name: username + "-org"}); err != nil {
		t.Fatal(err)
	}
	return tok
}

func newApp(t *testing.T, deps Deps) *App {
	t.Helper()
	if deps.Notifier == nil {
		deps.Notifier = notify.NewRecorder()
	}
	deps.Log = zerolog.Nop()
	a, err := New(deps)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestLoginCreateTaskEndToEnd(t *testing.T) {
	ctx := context.Background()
	base := startDevServer(t)
	seed(t, base, "ada")

	a := newApp(t, Deps{BaseURL: base, TokenStore: tokenstore.NewMemory(""), Debounce: 20 * time.Millisecond})
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if a.Session.Status() != auth.Unauthenticated {
		t.Fatal("fresh app should be logged out")
	}

	if err := a.Session.Login(ctx, domain.Credentials{Username: "ada", Password: "password123"}); err != nil {
		t.Fatal(err)
	}
	active, ok := a.Organizations.Active()
	if !ok || active.Name != "ada-org" {
		t.Fatalf("active organization = %+v, %v", active, ok)
	}
	if a.Tasks.Organization() != active.ID || a.Membership.Organization() != active.ID {
		t.Fatal("dependent stores not scoped to the active organization")
	}
	profile, ok := a.Membership.Profile()
	if !ok || profile.Username != "ada" {
		t.Fatalf("profile = %+v", profile)
	}
	if members := a.Membership.Members(); len(members) != 1 {
		t.Errorf("members = %v", members)
	}

	in := domain.TaskInput{
		Name:        "Write spec",
		Description: "first draft",
		Priority:    domain.PriorityHigh,
		Status:      domain.StatusInProgress,
		AssignedTo:  profile.ID,
	}
	if err := a.Tasks.Create(ctx, in, nil); err != nil {
		t.Fatal(err)
	}
	col := a.Tasks.Board()[0]
	if col.Status != domain.StatusInProgress || len(col.Tasks) != 1 {
		t.Fatalf("in progress column = %+v", col)
	}
	if got := col.Tasks[0]; got.Name != "Write spec" || got.Priority != domain.PriorityHigh {
		t.Errorf("task = %+v", got)
	}

	a.Tasks.SetSearch("nothing matches")
	deadline := time.Now().Add(2 * time.Second)
	for len(a.Tasks.Tasks()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("search not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLogoutEmptiesEverything(t *testing.T) {
	ctx := context.Background()
	base := startDevServer(t)
	tok := seed(t, base, "ada")

	store := tokenstore.NewMemory(tok)
	a := newApp(t, Deps{BaseURL: base, TokenStore: store})
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if a.Organizations.ActiveID().IsZero() {
		t.Fatal("stored token should restore the session")
	}

	a.Session.Logout(ctx)
	if a.Session.Token() != "" {
		t.Error("token kept")
	}
	if stored, _ := store.Load(ctx); stored != "" {
		t.Error("stored token kept")
	}
	if len(a.Organizations.Organizations()) != 0 || a.Organizations.ActiveID() != 0 {
		t.Error("organizations kept")
	}
	if len(a.Tasks.Tasks()) != 0 || len(a.Membership.Members()) != 0 || len(a.Membership.NonMembers()) != 0 {
		t.Error("collections kept")
	}
	if _, ok := a.Membership.Profile(); ok {
		t.Error("profile kept")
	}
}

func TestExternalTokenChangeReloads(t *testing.T) {
	ctx := context.Background()
	base := startDevServer(t)
	adaTok := seed(t, base, "ada")
	bobTok := seed(t, base, "bob")

	store := tokenstore.NewMemory(adaTok)
	a := newApp(t, Deps{BaseURL: base, TokenStore: store})
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if o, _ := a.Organizations.Active(); o.Name != "ada-org" {
		t.Fatalf("active = %q", o.Name)
	}

	store.ChangeExternally(bobTok)
	if o, _ := a.Organizations.Active(); o.Name != "bob-org" {
		t.Errorf("active after switch = %q", o.Name)
	}
	if p, _ := a.Membership.Profile(); p.Username != "bob" {
		t.Errorf("profile after switch = %q", p.Username)
	}

	store.ChangeExternally("")
	if a.Session.Status() != auth.Unauthenticated || a.Organizations.ActiveID() != 0 {
		t.Error("external logout not applied")
	}
}

func TestExpiredSessionResetsState(t *testing.T) {
	ctx := context.Background()
	base := startDevServer(t)
	seed(t, base, "ada")

	rec := notify.NewRecorder()
	a := newApp(t, Deps{BaseURL: base, TokenStore: tokenstore.NewMemory("not-a-jwt"), Notifier: rec})
	prompts := 0
	a.Session.OnLoginRequired(func() { prompts++ })
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if a.Session.Token() != "" || prompts != 1 {
		t.Errorf("token = %q prompts = %d", a.Session.Token(), prompts)
	}
	for _, msg := range rec.Errors() {
		if msg == "Failed to initialize organization data" {
			t.Error("session expiry surfaced twice")
		}
	}
}

func TestSelectResyncsDependents(t *testing.T) {
	ctx := context.Background()
	fake := portstest.New()
	fake.Token = "tok"
	fake.Orgs = []domain.Organization{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	fake.Users = []domain.User{{ID: 1, Username: "ada"}, {ID: 2, Username: "bob"}}
	fake.Members[1] = []domain.UserID{1}
	fake.Members[2] = []domain.UserID{1, 2}
	fake.Tasks = []domain.Task{{ID: 5, Name: "b-task", OrganizationID: 2, Status: domain.StatusDone}}

	a := newApp(t, Deps{API: fake, TokenStore: tokenstore.NewMemory("tok")})
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if len(a.Tasks.Tasks()) != 0 || len(a.Membership.Members()) != 1 {
		t.Fatalf("org A state: tasks %v members %v", a.Tasks.Tasks(), a.Membership.Members())
	}
	release := fake.Hold("ListTasks")
	done := make(chan error, 1)
	go func() { done <- a.Organizations.Select(2) }()
	deadline := time.Now().Add(2 * time.Second)
	for fake.Calls("ListTasks") < 2 {
		if time.Now().After(deadline) {
			t.Fatal("task fetch for B not started")
		}
		time.Sleep(time.Millisecond)
	}
	if got := a.Tasks.Tasks(); len(got) != 0 || a.Tasks.Organization() != 2 {
		t.Errorf("while B loads: org %v tasks %v", a.Tasks.Organization(), got)
	}
	release()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := a.Tasks.Tasks(); len(got) != 1 || got[0].ID != 5 {
		t.Errorf("tasks = %v", got)
	}
	if got := a.Membership.Members(); len(got) != 2 {
		t.Errorf("members = %v", got)
	}
	if n := fake.Calls("ListOrganizations"); n != 1 {
		t.Errorf("organization list calls = %d", n)
	}
}
