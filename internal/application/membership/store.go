// Package membership owns the session user's profile and the partition of
// users into members and non-members of the active organization.
package membership

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/state"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

// Loading operation names.
const (
	OpProfile    = "profile"
	OpMembers    = "members"
	OpNonMembers = "non_members"
	OpAdd        = "add_members"
	OpRemove     = "remove_member"
)

// Store is the user/membership state.
type Store struct {
	users    ports.AuthAPI
	api      ports.MembershipAPI
	notifier ports.Notifier
	log      zerolog.Logger

	mu         sync.RWMutex
	profile    *domain.User
	org        domain.OrganizationID
	gen        uint64
	members    []domain.User
	nonMembers []domain.User

	loading state.Loading
}

// NewStore builds an empty store with no active organization.
func NewStore(users ports.AuthAPI, api ports.MembershipAPI, notifier ports.Notifier, log zerolog.Logger) *Store {
	return &Store{
		users:    users,
		api:      api,
		notifier: notifier,
		log:      log.With().Str("component", "membership").Logger(),
	}
}

// Loading reports whether op is in flight.
func (s *Store) Loading(op string) bool { return s.loading.Active(op) }

// Profile returns the session user, if fetched.
func (s *Store) Profile() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return domain.User{}, false
	}
	return *s.profile, true
}

// Members returns the users in the active organization.
func (s *Store) Members() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User(nil), s.members...)
}

// NonMembers returns the users outside the active organization.
func (s *Store) NonMembers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User(nil), s.nonMembers...)
}

// Organization returns the organization the membership sets belong to.
func (s *Store) Organization() domain.OrganizationID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.org
}

// FetchProfile loads the session user. It does not depend on the active
// organization.
func (s *Store) FetchProfile(ctx context.Context) error {
	if !s.loading.TryBegin(OpProfile) {
		return nil
	}
	defer s.loading.End(OpProfile)

	u, err := s.users.Me(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("fetch profile")
		state.Surface(s.notifier, err)
		return err
	}
	s.mu.Lock()
	s.profile = u
	s.mu.Unlock()
	return nil
}

// ClearProfile forgets the session user.
func (s *Store) ClearProfile() {
	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
}

// SetOrganization scopes the store to org. Both sets are emptied before any
// request starts so results for the previous organization are never shown.
func (s *Store) SetOrganization(ctx context.Context, org domain.OrganizationID) error {
	s.mu.Lock()
	s.org = org
	s.gen++
	s.members = nil
	s.nonMembers = nil
	s.mu.Unlock()
	// In-flight fetches are now stale and will not clear their flags.
	s.loading.End(OpMembers)
	s.loading.End(OpNonMembers)
	if org.IsZero() {
		return nil
	}
	return s.Resync(ctx)
}

// FetchMembers reloads the users in the active organization.
func (s *Store) FetchMembers(ctx context.Context) error {
	return s.fetchOne(ctx, OpMembers, s.api.ListMembers, func(users []domain.User) { s.members = users })
}

// FetchNonMembers reloads the users outside the active organization.
func (s *Store) FetchNonMembers(ctx context.Context) error {
	return s.fetchOne(ctx, OpNonMembers, s.api.ListNonMembers, func(users []domain.User) { s.nonMembers = users })
}

func (s *Store) fetchOne(ctx context.Context, op string, list func(context.Context, domain.OrganizationID) ([]domain.User, error), apply func([]domain.User)) error {
	org, gen := s.scope()
	if org.IsZero() {
		s.mu.Lock()
		apply(nil)
		s.mu.Unlock()
		return nil
	}
	s.loading.Set(op, true)
	users, err := list(ctx, org)

	s.mu.Lock()
	current := s.gen == gen
	if current && err == nil {
		apply(users)
	}
	s.mu.Unlock()
	if current {
		s.loading.End(op)
	}
	if err != nil {
		if current {
			s.log.Warn().Err(err).Str("op", op).Msg("fetch membership")
			state.Surface(s.notifier, err)
		}
		return err
	}
	return nil
}

// Resync reloads both sets together. Either both results are applied or
// neither, so no user ends up in both sets or in none.
func (s *Store) Resync(ctx context.Context) error {
	org, gen := s.scope()
	if org.IsZero() {
		s.mu.Lock()
		s.members, s.nonMembers = nil, nil
		s.mu.Unlock()
		return nil
	}
	s.loading.Set(OpMembers, true)
	s.loading.Set(OpNonMembers, true)

	var members, nonMembers []domain.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.api.ListMembers(gctx, org)
		return err
	})
	g.Go(func() error {
		var err error
		nonMembers, err = s.api.ListNonMembers(gctx, org)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	current := s.gen == gen
	if current && err == nil {
		s.members = members
		s.nonMembers = nonMembers
	}
	s.mu.Unlock()
	if !current {
		s.log.Debug().Str("organization", org.String()).Msg("discarding stale membership response")
		return err
	}
	s.loading.End(OpMembers)
	s.loading.End(OpNonMembers)
	if err != nil {
		s.log.Warn().Err(err).Msg("resync membership")
		state.Surface(s.notifier, err)
		return err
	}
	return nil
}

// AddMembers invites emails to the active organization. Both sets are
// reloaded together afterwards and onSuccess runs only when all of it worked.
func (s *Store) AddMembers(ctx context.Context, emails []string, onSuccess func()) error {
	org, _ := s.scope()
	if err := validateEmails(emails); err != nil {
		state.Surface(s.notifier, err)
		return err
	}
	if org.IsZero() {
		state.Surface(s.notifier, domerrors.ErrNoActiveOrganization)
		return domerrors.ErrNoActiveOrganization
	}
	if !s.loading.TryBegin(OpAdd) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpAdd)

	if err := s.api.AddMembers(ctx, org, normalizeEmails(emails)); err != nil {
		s.log.Warn().Err(err).Msg("add members")
		state.Surface(s.notifier, err)
		return err
	}
	if err := s.Resync(ctx); err != nil {
		return err
	}
	s.log.Info().Int("count", len(emails)).Str("organization", org.String()).Msg("members added")
	state.Succeed(s.notifier, "Members added successfully")
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

// RemoveMember removes user from the active organization and reloads both
// sets.
func (s *Store) RemoveMember(ctx context.Context, user domain.UserID) error {
	org, _ := s.scope()
	if org.IsZero() {
		state.Surface(s.notifier, domerrors.ErrNoActiveOrganization)
		return domerrors.ErrNoActiveOrganization
	}
	if !s.loading.TryBegin(OpRemove) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpRemove)

	if err := s.api.RemoveMember(ctx, org, user); err != nil {
		s.log.Warn().Err(err).Msg("remove member")
		state.Surface(s.notifier, err)
		return err
	}
	state.Succeed(s.notifier, "Member removed successfully")
	return s.Resync(ctx)
}

// Clear drops everything, including the profile.
func (s *Store) Clear() {
	s.mu.Lock()
	s.profile = nil
	s.org = 0
	s.gen++
	s.members = nil
	s.nonMembers = nil
	s.mu.Unlock()
	// In-flight fetches are now stale and will not clear their flags.
	s.loading.End(OpMembers)
	s.loading.End(OpNonMembers)
}

func (s *Store) scope() (domain.OrganizationID, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.org, s.gen
}

func validateEmails(emails []string) error {
	fe := domerrors.FieldErrors{}
	if len(emails) == 0 {
		fe.Add("emails", "Select at least one member to add.")
		return fe
	}
	for _, e := range emails {
		if !state.ValidEmail(strings.TrimSpace(e)) {
			fe.Add("emails", fmt.Sprintf("%q is not a valid email address.", e))
		}
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func normalizeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
