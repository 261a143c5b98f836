package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports/portstest"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/notify"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/tokenstore"
)

func newSession(t *testing.T, stored string) (*Session, *portstest.API, *tokenstore.Memory, *notify.Recorder) {
	t.Helper()
	api := portstest.New()
	api.Token = "tok-1"
	store := tokenstore.NewMemory(stored)
	rec := notify.NewRecorder()
	return NewSession(api, store, rec, zerolog.Nop()), api, store, rec
}

func TestLoginStoresToken(t *testing.T) {
	ctx := context.Background()
	s, _, store, rec := newSession(t, "")
	var seen []string
	s.Subscribe(func(tok string) { seen = append(seen, tok) })

	if err := s.Login(ctx, domain.Credentials{Username: "ada", Password: "secret"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Token() != "tok-1" || s.Status() != Authenticated {
		t.Errorf("token = %q status = %v", s.Token(), s.Status())
	}
	if tok, _ := store.Load(ctx); tok != "tok-1" {
		t.Errorf("stored token = %q", tok)
	}
	if len(seen) != 1 || seen[0] != "tok-1" {
		t.Errorf("listeners saw %v", seen)
	}
	if got := rec.Successes(); len(got) != 1 || got[0] != "Login Successful" {
		t.Errorf("successes = %v", got)
	}
	if s.Loading(OpLogin) {
		t.Error("login flag left set")
	}
}

func TestLoginFailureClearsToken(t *testing.T) {
	ctx := context.Background()
	s, api, store, rec := newSession(t, "old")
	if err := s.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	api.FailWith("Login", errors.New("400"))

	err := s.Login(ctx, domain.Credentials{Username: "ada", Password: "wrong"})
	if !errors.Is(err, domerrors.ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
	if s.Token() != "" {
		t.Errorf("token = %q after failed login", s.Token())
	}
	if tok, _ := store.Load(ctx); tok != "" {
		t.Errorf("stored token = %q after failed login", tok)
	}
	if got := rec.Errors(); len(got) != 1 || got[0] != "Invalid Login Details" {
		t.Errorf("errors = %v", got)
	}
}

func TestLoginWhileRunningIsRejected(t *testing.T) {
	ctx := context.Background()
	s, api, _, _ := newSession(t, "")
	release := api.Hold("Login")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Login(ctx, domain.Credentials{Username: "ada", Password: "secret"})
	}()
	for api.Calls("Login") == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := s.Login(ctx, domain.Credentials{Username: "ada", Password: "secret"}); !errors.Is(err, domerrors.ErrBusy) {
		t.Errorf("second login err = %v", err)
	}
	release()
	wg.Wait()
	if api.Calls("Login") != 1 {
		t.Errorf("Login calls = %d", api.Calls("Login"))
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	s, _, store, rec := newSession(t, "tok-1")
	if err := s.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	prompts := 0
	s.OnLoginRequired(func() { prompts++ })

	s.Logout(ctx)
	if s.Status() != Unauthenticated {
		t.Error("still authenticated")
	}
	if tok, _ := store.Load(ctx); tok != "" {
		t.Errorf("stored token = %q", tok)
	}
	if prompts != 1 {
		t.Errorf("login prompts = %d", prompts)
	}
	if got := rec.Successes(); len(got) != 1 || got[0] != "User logged out successfully" {
		t.Errorf("successes = %v", got)
	}
}

func TestExpire(t *testing.T) {
	ctx := context.Background()
	s, _, _, rec := newSession(t, "tok-1")
	_ = s.Restore(ctx)
	prompts := 0
	s.OnLoginRequired(func() { prompts++ })

	s.Expire(401)
	s.Expire(403)
	if s.Token() != "" {
		t.Error("token kept after expiry")
	}
	if prompts != 1 {
		t.Errorf("login prompts = %d, want 1", prompts)
	}
	if got := rec.Errors(); len(got) != 1 {
		t.Errorf("errors = %v", got)
	}
}

func TestRegisterValidatesLocally(t *testing.T) {
	ctx := context.Background()
	s, api, _, rec := newSession(t, "")
	reg := domain.Registration{
		Username:        "ada",
		Email:           "ada@example.com",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Password:        "short",
		ConfirmPassword: "other",
	}
	err := s.Register(ctx, reg, nil)
	var fe domerrors.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want field errors", err)
	}
	if len(fe["password"]) == 0 || len(fe["confirm_password"]) == 0 {
		t.Errorf("field errors = %v", fe)
	}
	if api.Calls("Register") != 0 {
		t.Error("request sent for invalid form")
	}
	if len(rec.Errors()) == 0 {
		t.Error("validation errors not surfaced")
	}

	reg.Password, reg.ConfirmPassword = "longenough", "longenough"
	var created *domain.User
	if err := s.Register(ctx, reg, func(u *domain.User) { created = u }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created == nil || created.Username != "ada" {
		t.Errorf("onSuccess got %+v", created)
	}
}

func TestWatchExternal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, _, store, _ := newSession(t, "tok-1")
	_ = s.Restore(ctx)

	reloads := 0
	if err := s.WatchExternal(ctx, func(context.Context) { reloads++ }); err != nil {
		t.Fatal(err)
	}
	store.ChangeExternally("tok-2")
	if s.Token() != "tok-2" || reloads != 1 {
		t.Errorf("token = %q reloads = %d", s.Token(), reloads)
	}
}
