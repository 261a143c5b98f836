package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

type organizationRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	s.data.mu.RLock()
	orgs := s.data.organizationsOf(userFrom(r.Context()))
	s.data.mu.RUnlock()
	writeJSON(w, http.StatusOK, orgs)
}

func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		writeFields(w, validationErrors(err))
		return
	}
	user := userFrom(r.Context())

	s.data.mu.Lock()
	rec := s.data.createOrganization(req.Name, req.Description, user)
	view := s.data.organizationView(rec, user)
	creator := s.data.accounts[user].user
	s.data.mu.Unlock()

	s.notify(r, Mail{Kind: TypeOrganizationCreated, To: creator.Email, Username: creator.Username, Organization: view.Name})
	s.log.Info().Str("organization", view.ID.String()).Msg("organization created")
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	user := userFrom(r.Context())
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	rec, ok := s.data.orgs[domain.OrganizationID(id)]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !s.data.can(rec.org.ID, user, domain.PermViewOrganization) {
		writeDetail(w, http.StatusForbidden, forbidden)
		return
	}
	writeJSON(w, http.StatusOK, s.data.organizationView(rec, user))
}

func (s *Server) updateOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var req organizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		writeFields(w, validationErrors(err))
		return
	}
	user := userFrom(r.Context())
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.orgs[domain.OrganizationID(id)]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if s.data.roleOf(rec.org.ID, user) != roleAdmin {
		writeDetail(w, http.StatusForbidden, forbidden)
		return
	}
	rec.org.Name = req.Name
	rec.org.Description = req.Description
	writeJSON(w, http.StatusOK, s.data.organizationView(rec, user))
}

type addMembersRequest struct {
	Emails       []string              `json:"emails" validate:"required,min=1,dive,email"`
	Organization domain.OrganizationID `json:"organization" validate:"required"`
}

func (s *Server) addMembers(w http.ResponseWriter, r *http.Request) {
	var req addMembersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for i, e := range req.Emails {
		req.Emails[i] = strings.ToLower(strings.TrimSpace(e))
	}
	if err := s.validate.Struct(req); err != nil {
		writeFields(w, validationErrors(err))
		return
	}
	user := userFrom(r.Context())

	s.data.mu.Lock()
	rec, ok := s.data.orgs[req.Organization]
	if !ok {
		s.data.mu.Unlock()
		writeFields(w, fieldError("organization", "Organization does not exist."))
		return
	}
	if !s.data.can(rec.org.ID, user, domain.PermAddUser) {
		s.data.mu.Unlock()
		writeDetail(w, http.StatusForbidden, "You are not authorized to add members to this organization.")
		return
	}
	fe := domerrors.FieldErrors{}
	var added []domain.User
	for _, email := range req.Emails {
		acc := s.data.accountByEmail(email)
		if acc == nil {
			fe.Add("emails", fmt.Sprintf("No user is registered with %s.", email))
			continue
		}
		if rec.roles[acc.user.ID] != 0 {
			fe.Add("emails", fmt.Sprintf("%s is already a member.", email))
			continue
		}
		added = append(added, acc.user)
	}
	if len(fe) > 0 {
		s.data.mu.Unlock()
		writeFields(w, fe)
		return
	}
	for _, u := range added {
		rec.roles[u.ID] = roleMember
	}
	orgName := rec.org.Name
	s.data.mu.Unlock()

	for _, u := range added {
		s.notify(r, Mail{Kind: TypeMemberAdded, To: u.Email, Username: u.Username, Organization: orgName})
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Pending memberships created successfully."})
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	s.listUsers(w, r, true)
}

func (s *Server) listNonMembers(w http.ResponseWriter, r *http.Request) {
	s.listUsers(w, r, false)
}

// listUsers needs view_organization in the organization, like its detail.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, members bool) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	rec, ok := s.data.orgs[domain.OrganizationID(id)]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !s.data.can(rec.org.ID, userFrom(r.Context()), domain.PermViewOrganization) {
		writeDetail(w, http.StatusForbidden, forbidden)
		return
	}
	users := s.data.sortedUsers(func(u domain.UserID) bool { return (rec.roles[u] != 0) == members })
	writeJSON(w, http.StatusOK, users)
}

type leaveRequest struct {
	OrganizationID domain.OrganizationID `json:"organization_id" validate:"required"`
}

func (s *Server) leaveOrganization(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeFields(w, validationErrors(err))
		return
	}
	user := userFrom(r.Context())
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.orgs[req.OrganizationID]
	if !ok || rec.roles[user] == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(rec.roles, user)
	writeDetail(w, http.StatusOK, "You have successfully left the organization.")
}

// removeMember lets holders of remove_user remove anyone and everyone else
// remove themselves.
func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	member, ok2 := pathID(r, "memberId")
	if !ok || !ok2 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	user := userFrom(r.Context())
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.orgs[domain.OrganizationID(id)]
	if !ok || rec.roles[domain.UserID(member)] == 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if domain.UserID(member) != user && !s.data.can(rec.org.ID, user, domain.PermRemoveUser) {
		writeDetail(w, http.StatusForbidden, "You are not authorized to perform this action.")
		return
	}
	delete(rec.roles, domain.UserID(member))
	writeDetail(w, http.StatusOK, "Member removed successfully.")
}

// notify hands m to the mailer. Delivery failures never fail the request.
func (s *Server) notify(r *http.Request, m Mail) {
	if err := s.mailer.Enqueue(r.Context(), m); err != nil {
		s.log.Warn().Err(err).Str("kind", m.Kind).Msg("mail not queued")
	}
}
