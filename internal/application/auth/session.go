// Package auth owns the session token. Login, logout, the 401/403 reset path
// and external storage changes all go through Session; nothing else writes
// the token store.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/state"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

// Loading operation names.
const (
	OpLogin    = "login"
	OpRegister = "register"
)

// Status is the session state machine.
type Status int

const (
	Unauthenticated Status = iota
	Authenticated
)

func (s Status) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session holds the current token and publishes every change of it.
type Session struct {
	api      ports.AuthAPI
	store    ports.TokenStore
	notifier ports.Notifier
	log      zerolog.Logger

	mu    sync.RWMutex
	token string

	loading      state.Loading
	listeners    state.Listeners[string]
	loginPrompts state.Listeners[struct{}]
}

// NewSession builds a session that persists its token in store.
func NewSession(api ports.AuthAPI, store ports.TokenStore, notifier ports.Notifier, log zerolog.Logger) *Session {
	return &Session{
		api:      api,
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// SetAPI swaps the API binding. The composition root needs it because the
// HTTP client reads its token from the session it is built for.
func (s *Session) SetAPI(api ports.AuthAPI) { s.api = api }

// Token returns the current token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Status reports whether a token is held.
func (s *Session) Status() Status {
	if s.Token() == "" {
		return Unauthenticated
	}
	return Authenticated
}

// Loading reports whether op is in flight.
func (s *Session) Loading(op string) bool { return s.loading.Active(op) }

// Subscribe registers fn for token changes. fn receives "" on logout.
func (s *Session) Subscribe(fn func(token string)) (unsubscribe func()) {
	return s.listeners.Subscribe(fn)
}

// OnLoginRequired registers fn to run whenever the application must return
// to the login entry point.
func (s *Session) OnLoginRequired(fn func()) (unsubscribe func()) {
	return s.loginPrompts.Subscribe(func(struct{}) { fn() })
}

// Restore loads the durable token at startup.
func (s *Session) Restore(ctx context.Context) error {
	tok, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	s.set(tok)
	return nil
}

// Login exchanges creds for a token. Failures never echo the credentials.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) error {
	if !s.loading.TryBegin(OpLogin) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpLogin)

	s.clear(ctx)
	tok, err := s.api.Login(ctx, creds)
	if err == nil && tok == "" {
		err = domerrors.ErrInvalidCredentials
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("login failed")
		if s.notifier != nil {
			s.notifier.Error("Invalid Login Details")
		}
		return domerrors.ErrInvalidCredentials
	}
	if err := s.store.Save(ctx, tok); err != nil {
		s.log.Error().Err(err).Msg("persist token")
		state.Surface(s.notifier, err)
		return fmt.Errorf("persist token: %w", err)
	}
	s.set(tok)
	s.log.Info().Msg("logged in")
	state.Succeed(s.notifier, "Login Successful")
	return nil
}

// Register creates an account. The form is validated locally first.
func (s *Session) Register(ctx context.Context, reg domain.Registration, onSuccess func(*domain.User)) error {
	if err := state.ValidateStruct(reg); err != nil {
		state.Surface(s.notifier, err)
		return err
	}
	if !s.loading.TryBegin(OpRegister) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpRegister)

	u, err := s.api.Register(ctx, reg)
	if err != nil {
		s.log.Warn().Err(err).Msg("register failed")
		state.Surface(s.notifier, err)
		return err
	}
	state.Succeed(s.notifier, "Signup Successful")
	if onSuccess != nil {
		onSuccess(u)
	}
	return nil
}

// Logout clears the token unconditionally and returns to login.
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx)
	s.log.Info().Msg("logged out")
	state.Succeed(s.notifier, "User logged out successfully")
	s.loginPrompts.Notify(struct{}{})
}

// Expire is the global reset for 401/403 responses from any request.
func (s *Session) Expire(status int) {
	if s.Token() == "" {
		return
	}
	s.log.Warn().Int("status", status).Msg("session rejected by server")
	s.clear(context.Background())
	if s.notifier != nil {
		s.notifier.Error("Session expired, please log in again.")
	}
	s.loginPrompts.Notify(struct{}{})
}

// WatchExternal reacts to token changes made by another process: the token
// is adopted and reload re-derives all in-memory state from it.
func (s *Session) WatchExternal(ctx context.Context, reload func(ctx context.Context)) error {
	return s.store.Watch(ctx, func(tok string) {
		s.log.Info().Bool("authenticated", tok != "").Msg("token changed externally, reloading")
		s.mu.Lock()
		s.token = tok
		s.mu.Unlock()
		if reload != nil {
			reload(ctx)
		}
	})
}

func (s *Session) clear(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("clear stored token")
	}
	s.set("")
}

func (s *Session) set(tok string) {
	s.mu.Lock()
	changed := s.token != tok
	s.token = tok
	s.mu.Unlock()
	if changed {
		s.listeners.Notify(tok)
	}
}
