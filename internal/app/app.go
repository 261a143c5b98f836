// Package app wires the state stores into one client: the session token
// drives the organization store, and the active organization drives the
// task and membership stores.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/auth"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/membership"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/organization"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/task"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/api"
)

// Deps are the collaborators of an App. API overrides the HTTP client built
// from BaseURL.
type Deps struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	API        ports.API
	TokenStore ports.TokenStore
	Notifier   ports.Notifier
	Debounce   time.Duration
	Log        zerolog.Logger
}

// App is the composed client state.
type App struct {
	Session       *auth.Session
	Organizations *organization.Store
	Membership    *membership.Store
	Tasks         *task.Store

	log zerolog.Logger

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	unsubs  []func()
}

// New builds the stores. Nothing is loaded until Start.
func New(deps Deps) (*App, error) {
	if deps.TokenStore == nil {
		return nil, errors.New("app: token store is required")
	}
	log := deps.Log
	session := auth.NewSession(nil, deps.TokenStore, deps.Notifier, log)

	client := deps.API
	if client == nil {
		opts := []api.Option{
			api.WithLogger(log),
			api.WithTokenSource(session.Token),
			api.WithAuthFailureHandler(session.Expire),
		}
		if deps.HTTPClient != nil {
			opts = append(opts, api.WithHTTPClient(deps.HTTPClient))
		}
		opts = append(opts, api.WithTimeout(deps.Timeout))
		c, err := api.New(deps.BaseURL, opts...)
		if err != nil {
			return nil, err
		}
		client = c
	}
	session.SetAPI(client)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Session:       session,
		Organizations: organization.NewStore(client, session.Token, deps.Notifier, log),
		Membership:    membership.NewStore(client, client, deps.Notifier, log),
		Tasks:         task.NewStore(client, deps.Notifier, log, deps.Debounce),
		log:           log.With().Str("component", "app").Logger(),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start restores the session, connects the stores and loads everything the
// stored token gives access to. External token changes are followed until
// Close.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	a.unsubs = append(a.unsubs,
		a.Session.Subscribe(a.onToken),
		a.Organizations.Subscribe(a.onOrganization),
	)
	if err := a.Session.Restore(ctx); err != nil {
		return err
	}
	// Restore notified onToken when a token was stored; this covers the
	// rest of the startup when it was not.
	if err := a.Organizations.Initialize(ctx); err != nil {
		a.log.Warn().Err(err).Msg("initial organization load")
	}
	if err := a.Session.WatchExternal(a.ctx, a.Reload); err != nil {
		a.log.Warn().Err(err).Msg("token watch unavailable")
	}
	return nil
}

// Reload re-derives all state from the session token. It runs when another
// process changes the stored token.
func (a *App) Reload(ctx context.Context) {
	a.onTokenWith(ctx, a.Session.Token())
}

// Close stops background work. Stores keep their last state.
func (a *App) Close() {
	a.cancel()
	a.Tasks.Close()
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
}

func (a *App) onToken(tok string) {
	a.onTokenWith(a.ctx, tok)
}

func (a *App) onTokenWith(ctx context.Context, tok string) {
	a.Membership.ClearProfile()
	a.Organizations.HandleTokenChange(ctx, tok)
	if tok == "" {
		a.Membership.Clear()
		a.Tasks.Clear()
		return
	}
	_ = a.Membership.FetchProfile(ctx)
}

// onOrganization re-synchronizes the dependent stores. Both are cleared
// before either fetch starts, then fetched concurrently.
func (a *App) onOrganization(c organization.Change) {
	if c.Previous == c.Current {
		return
	}
	a.log.Debug().Str("from", c.Previous.String()).Str("to", c.Current.String()).Msg("active organization changed")
	if err := a.resync(a.ctx, c.Current); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn().Err(err).Msg("re-sync after organization change")
	}
}

// A failure in one store does not cancel the other's fetch.
func (a *App) resync(ctx context.Context, org domain.OrganizationID) error {
	_ = a.Tasks.SetOrganization(ctx, 0)
	_ = a.Membership.SetOrganization(ctx, 0)
	if org.IsZero() {
		return nil
	}
	var g errgroup.Group
	g.Go(func() error { return a.Tasks.SetOrganization(ctx, org) })
	g.Go(func() error { return a.Membership.SetOrganization(ctx, org) })
	return g.Wait()
}
