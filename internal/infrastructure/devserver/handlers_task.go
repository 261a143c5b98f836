package devserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

const forbidden = "You do not have permission to perform this action."

// listTasks answers an empty list for organizations the caller is not in.
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	q := r.URL.Query()
	org, _ := strconv.ParseInt(q.Get("organization_id"), 10, 64)

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	if s.data.roleOf(domain.OrganizationID(org), user) == 0 {
		writeJSON(w, http.StatusOK, []domain.Task{})
		return
	}
	writeJSON(w, http.StatusOK, s.data.searchTasks(domain.OrganizationID(org), q.Get("search"), user))
}

type taskRequest struct {
	Name         string                `json:"name" validate:"required"`
	Description  string                `json:"description" validate:"required"`
	Priority     domain.Priority       `json:"priority" validate:"required,oneof=low mid high"`
	Status       domain.Status         `json:"status" validate:"required,oneof=in_progress done abandoned canceled"`
	AssignedTo   domain.UserID         `json:"assigned_to" validate:"required"`
	Organization domain.OrganizationID `json:"organization" validate:"required"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
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
	if _, ok := s.data.orgs[req.Organization]; !ok {
		writeFields(w, fieldError("organization", "Invalid pk \""+req.Organization.String()+"\" - object does not exist."))
		return
	}
	if !s.data.can(req.Organization, user, domain.PermAddProject) {
		writeDetail(w, http.StatusForbidden, forbidden)
		return
	}
	if s.data.roleOf(req.Organization, req.AssignedTo) == 0 {
		writeFields(w, fieldError("assigned_to", "The assignee must be a member of the organization."))
		return
	}
	t := &domain.Task{
		ID:             domain.TaskID(s.data.id()),
		Name:           req.Name,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		OrganizationID: req.Organization,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      user,
		CreatedAt:      time.Now().UTC(),
	}
	s.data.tasks[t.ID] = t
	writeJSON(w, http.StatusCreated, s.data.taskView(t, user))
}

// taskPatch holds the fields of a partial update; nil means unchanged.
type taskPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	Status      *domain.Status   `json:"status"`
	AssignedTo  *domain.UserID   `json:"assigned_to"`
}

func (p taskPatch) validate() domerrors.FieldErrors {
	fe := domerrors.FieldErrors{}
	if p.Name != nil && *p.Name == "" {
		fe.Add("name", "This field may not be blank.")
	}
	if p.Description != nil && *p.Description == "" {
		fe.Add("description", "This field may not be blank.")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		fe.Add("priority", "\""+string(*p.Priority)+"\" is not a valid choice.")
	}
	if p.Status != nil && !p.Status.Valid() {
		fe.Add("status", "\""+string(*p.Status)+"\" is not a valid choice.")
	}
	return fe
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	org, ok2 := pathID(r, "orgId")
	if !ok || !ok2 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var req taskPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	if fe := req.validate(); len(fe) > 0 {
		writeFields(w, fe)
		return
	}
	user := userFrom(r.Context())
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	t, ok := s.data.tasks[domain.TaskID(id)]
	if !ok || t.OrganizationID != domain.OrganizationID(org) {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !s.data.can(t.OrganizationID, user, domain.PermUpdateProject) {
		writeDetail(w, http.StatusForbidden, forbidden)
		return
	}
	if req.AssignedTo != nil && s.data.roleOf(t.OrganizationID, *req.AssignedTo) == 0 {
		writeFields(w, fieldError("assigned_to", "The assignee must be a member of the organization."))
		return
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.AssignedTo != nil {
		t.AssignedTo = *req.AssignedTo
	}
	writeJSON(w, http.StatusOK, s.data.taskView(t, user))
}

type statusRequest struct {
	Status       domain.Status         `json:"status"`
	Organization domain.OrganizationID `json:"organization"`
}

func (s *Server) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Organization.IsZero() {
		writeFields(w, fieldError("organization", "This field is required."))
		return
	}
	if !req.Status.Valid() {
		writeFields(w, fieldError("status", "\""+string(req.Status)+"\" is not a valid choice."))
		return
	}
	user := userFrom(r.Context())
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	t, ok := s.data.tasks[domain.TaskID(id)]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if t.OrganizationID != req.Organization || s.data.roleOf(t.OrganizationID, user) == 0 {
		writeDetail(w, http.StatusForbidden, forbidden)
		return
	}
	t.Status = req.Status
	writeJSON(w, http.StatusOK, s.data.taskView(t, user))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	user := userFrom(r.Context())
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	t, ok := s.data.tasks[domain.TaskID(id)]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !s.data.can(t.OrganizationID, user, domain.PermUpdateProject) {
		writeDetail(w, http.StatusForbidden, forbidden)
		return
	}
	delete(s.data.tasks, t.ID)
	w.WriteHeader(http.StatusNoContent)
}
