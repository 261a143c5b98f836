// Package organization owns the list of the session user's organizations and
// the single active organization that scopes every task and membership query.
package organization

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
	OpInit    = "init"
	OpList    = "list"
	OpDetails = "details"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpLeave   = "leave"
)

// Change describes a move of the active organization. Current is zero when
// no organization is active.
type Change struct {
	Previous domain.OrganizationID
	Current  domain.OrganizationID
}

// TokenSource returns the current session token.
type TokenSource func() string

// Store is the organization state.
type Store struct {
	api      ports.OrganizationAPI
	token    TokenSource
	notifier ports.Notifier
	log      zerolog.Logger

	mu     sync.RWMutex
	all    []domain.Organization
	active *domain.Organization
	// initFor is the token an initialization is in flight for; calls for
	// the same token fold into it. initSeq numbers attempts so only the
	// latest one applies its result.
	initFor   string
	initSeq   uint64
	initedFor string

	loading   state.Loading
	listeners state.Listeners[Change]
}

// NewStore builds an empty store. token gates initialization.
func NewStore(api ports.OrganizationAPI, token TokenSource, notifier ports.Notifier, log zerolog.Logger) *Store {
	return &Store{
		api:      api,
		token:    token,
		notifier: notifier,
		log:      log.With().Str("component", "organization").Logger(),
	}
}

// Subscribe registers fn for active-organization changes.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.listeners.Subscribe(fn)
}

// Loading reports whether op is in flight.
func (s *Store) Loading(op string) bool { return s.loading.Active(op) }

// Organizations returns a copy of the list.
func (s *Store) Organizations() []domain.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Organization(nil), s.all...)
}

// Active returns the active organization, if any.
func (s *Store) Active() (domain.Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return domain.Organization{}, false
	}
	return *s.active, true
}

// ActiveID returns the active organization's ID, zero when none.
func (s *Store) ActiveID() domain.OrganizationID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIDLocked()
}

// HasPermission reports whether the active organization grants key.
func (s *Store) HasPermission(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active != nil && s.active.HasPermission(key)
}

// Initialize loads the organization list once per token and activates the
// first entry. Concurrent and repeated calls for the same token are no-ops;
// a call for a new token starts its own load.
func (s *Store) Initialize(ctx context.Context) error {
	return s.initialize(ctx, false)
}

func (s *Store) initialize(ctx context.Context, force bool) error {
	for {
		tok := s.token()
		s.mu.Lock()
		if tok == "" || (!force && (s.initFor == tok || s.initedFor == tok)) {
			s.mu.Unlock()
			return nil
		}
		s.initSeq++
		seq := s.initSeq
		s.initFor = tok
		s.mu.Unlock()

		retry, err := s.load(ctx, tok, seq)
		if !retry {
			return err
		}
		// The session changed while the list was in flight and nobody has
		// started loading for the new one.
		force = false
	}
}

// load runs one initialization attempt for tok. retry reports that tok is
// no longer the session token and no newer attempt is running.
func (s *Store) load(ctx context.Context, tok string, seq uint64) (retry bool, err error) {
	s.loading.Set(OpInit, true)
	orgs, err := s.fetchAll(ctx)
	current := s.token()

	s.mu.Lock()
	if s.initSeq != seq {
		s.mu.Unlock()
		return false, nil
	}
	s.initFor = ""
	s.loading.End(OpInit)
	if current != tok {
		s.mu.Unlock()
		return true, nil
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("initialize organizations")
		if s.notifier != nil && !state.Quiet(err) {
			s.notifier.Error("Failed to initialize organization data")
		}
		return false, fmt.Errorf("initialize organizations: %w", err)
	}
	prev := s.activeIDLocked()
	s.all = orgs
	s.active = nil
	if len(orgs) > 0 {
		first := orgs[0]
		s.active = &first
	}
	s.initedFor = tok
	cur := s.activeIDLocked()
	s.mu.Unlock()

	s.log.Debug().Int("count", len(orgs)).Str("active", cur.String()).Msg("organizations initialized")
	s.publish(prev, cur)
	return false, nil
}

// HandleTokenChange re-arms initialization for a new session. All state is
// dropped first so nothing from the previous session stays visible.
func (s *Store) HandleTokenChange(ctx context.Context, tok string) {
	s.Reset()
	if tok != "" {
		_ = s.Initialize(ctx)
	}
}

// Reset clears the list and the active organization and re-arms Initialize.
func (s *Store) Reset() {
	s.mu.Lock()
	prev := s.activeIDLocked()
	s.all = nil
	s.active = nil
	s.initedFor = ""
	s.mu.Unlock()
	s.publish(prev, 0)
}

// Select makes id the active organization. No request is made.
func (s *Store) Select(id domain.OrganizationID) error {
	s.mu.Lock()
	prev := s.activeIDLocked()
	var found *domain.Organization
	for i := range s.all {
		if s.all[i].ID == id {
			o := s.all[i]
			found = &o
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return fmt.Errorf("select %s: %w", id, domerrors.ErrOrganizationNotFound)
	}
	s.active = found
	s.mu.Unlock()
	s.publish(prev, id)
	return nil
}

// Create posts a new organization, reloads the list and activates the new
// entry.
func (s *Store) Create(ctx context.Context, in domain.OrganizationInput, onSuccess func(domain.Organization)) error {
	if in.Name == "" {
		err := domerrors.FieldErrors{"name": {"Organization Name cannot be empty."}}
		state.Surface(s.notifier, err)
		return err
	}
	if !s.loading.TryBegin(OpCreate) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpCreate)

	created, err := s.api.CreateOrganization(ctx, in)
	if err != nil {
		s.log.Warn().Err(err).Msg("create organization")
		state.Surface(s.notifier, err)
		return err
	}
	orgs, err := s.fetchAll(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("reload organizations after create")
		state.Surface(s.notifier, err)
		return err
	}

	s.mu.Lock()
	prev := s.activeIDLocked()
	s.all = orgs
	active := *created
	for _, o := range orgs {
		if o.ID == created.ID {
			active = o
			break
		}
	}
	s.active = &active
	s.mu.Unlock()

	s.log.Info().Str("organization", active.ID.String()).Msg("organization created")
	state.Succeed(s.notifier, "Organization Created Successfully")
	s.publish(prev, active.ID)
	if onSuccess != nil {
		onSuccess(active)
	}
	return nil
}

// Update changes name and description and patches the local copy.
func (s *Store) Update(ctx context.Context, id domain.OrganizationID, in domain.OrganizationInput, onSuccess func()) error {
	if err := state.ValidateStruct(in); err != nil {
		state.Surface(s.notifier, err)
		return err
	}
	if !s.loading.TryBegin(OpUpdate) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpUpdate)

	if err := s.api.UpdateOrganization(ctx, id, in); err != nil {
		s.log.Warn().Err(err).Msg("update organization")
		state.Surface(s.notifier, err)
		return err
	}
	s.mu.Lock()
	for i := range s.all {
		if s.all[i].ID == id {
			s.all[i].Name = in.Name
			s.all[i].Description = in.Description
		}
	}
	if s.active != nil && s.active.ID == id {
		s.active.Name = in.Name
		s.active.Description = in.Description
	}
	s.mu.Unlock()
	state.Succeed(s.notifier, "Organization Updated Successfully")
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

// RefreshActive reloads the active organization's detail, including the
// session user's permissions in it.
func (s *Store) RefreshActive(ctx context.Context) error {
	id := s.ActiveID()
	if id.IsZero() {
		return nil
	}
	if !s.loading.TryBegin(OpDetails) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpDetails)

	org, err := s.api.GetOrganization(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Msg("fetch organization details")
		state.Surface(s.notifier, err)
		return err
	}
	s.mu.Lock()
	if s.active != nil && s.active.ID == org.ID {
		detail := *org
		s.active = &detail
	}
	for i := range s.all {
		if s.all[i].ID == org.ID {
			s.all[i] = *org
		}
	}
	s.mu.Unlock()
	return nil
}

// Leave removes the session user from id and re-initializes so the active
// organization is recomputed from the shorter list.
func (s *Store) Leave(ctx context.Context, id domain.OrganizationID, onSuccess func()) error {
	if !s.loading.TryBegin(OpLeave) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpLeave)

	if err := s.api.LeaveOrganization(ctx, id); err != nil {
		s.log.Warn().Err(err).Msg("leave organization")
		state.Surface(s.notifier, err)
		return err
	}
	s.mu.Lock()
	s.initedFor = ""
	s.mu.Unlock()
	if err := s.initialize(ctx, true); err != nil {
		return err
	}
	state.Succeed(s.notifier, "Successfully left the organization")
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

func (s *Store) fetchAll(ctx context.Context) ([]domain.Organization, error) {
	s.loading.Set(OpList, true)
	defer s.loading.End(OpList)
	orgs, err := s.api.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (s *Store) activeIDLocked() domain.OrganizationID {
	if s.active == nil {
		return 0
	}
	return s.active.ID
}

func (s *Store) publish(prev, cur domain.OrganizationID) {
	s.listeners.Notify(Change{Previous: prev, Current: cur})
}
