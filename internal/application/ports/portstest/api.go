// Package portstest provides an in-memory ports.API for exercising the state
// stores without a server.
package portstest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

// API is a scripted fake. Fields may be set directly before use; once the
// API is shared with a store, use the methods.
type API struct {
	mu sync.Mutex

	Token   string
	Profile domain.User
	Orgs    []domain.Organization
	Users   []domain.User
	// Members holds the member IDs per organization; everyone else in Users
	// is a non-member.
	Members map[domain.OrganizationID][]domain.UserID
	Tasks   []domain.Task

	errs   map[string]error
	gates  map[string]chan struct{}
	calls  map[string]int
	search []string
	nextID int64
}

// New returns an empty fake.
func New() *API {
	return &API{
		Members: make(map[domain.OrganizationID][]domain.UserID),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		calls:   make(map[string]int),
		nextID:  1000,
	}
}

// FailWith makes method return err until cleared with a nil err.
func (a *API) FailWith(method string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.errs, method)
		return
	}
	a.errs[method] = err
}

// Hold makes the next call to method block until release is called. Later
// calls go through.
func (a *API) Hold(method string) (release func()) {
	ch := make(chan struct{})
	a.mu.Lock()
	a.gates[method] = ch
	a.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(ch)
		})
	}
}

// Calls returns how often method was called.
func (a *API) Calls(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[method]
}

// Searches returns the search parameter of every ListTasks call.
func (a *API) Searches() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.search...)
}

func (a *API) enter(ctx context.Context, method string) error {
	a.mu.Lock()
	a.calls[method]++
	gate := a.gates[method]
	delete(a.gates, method)
	a.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errs[method]
}

func (a *API) id() int64 {
	a.nextID++
	return a.nextID
}

// Login implements ports.AuthAPI.
func (a *API) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if err := a.enter(ctx, "Login"); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Token, nil
}

// Register implements ports.AuthAPI.
func (a *API) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := a.enter(ctx, "Register"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u := domain.User{ID: domain.UserID(a.id()), Username: reg.Username, Email: reg.Email, FirstName: reg.FirstName, LastName: reg.LastName}
	a.Users = append(a.Users, u)
	return &u, nil
}

// Me implements ports.AuthAPI.
func (a *API) Me(ctx context.Context) (*domain.User, error) {
	if err := a.enter(ctx, "Me"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.Profile
	return &u, nil
}

// ListOrganizations implements ports.OrganizationAPI.
func (a *API) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	if err := a.enter(ctx, "ListOrganizations"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Organization(nil), a.Orgs...), nil
}

// GetOrganization implements ports.OrganizationAPI.
func (a *API) GetOrganization(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error) {
	if err := a.enter(ctx, "GetOrganization"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range a.Orgs {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, domerrors.ErrOrganizationNotFound
}

// CreateOrganization implements ports.OrganizationAPI.
func (a *API) CreateOrganization(ctx context.Context, in domain.OrganizationInput) (*domain.Organization, error) {
	if err := a.enter(ctx, "CreateOrganization"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	o := domain.Organization{
		ID:              domain.OrganizationID(a.id()),
		Name:            in.Name,
		Description:     in.Description,
		CreatedAt:       time.Now(),
		UserPermissions: append([]string(nil), domain.AllPermissions...),
	}
	a.Orgs = append(a.Orgs, o)
	return &o, nil
}

// UpdateOrganization implements ports.OrganizationAPI.
func (a *API) UpdateOrganization(ctx context.Context, id domain.OrganizationID, in domain.OrganizationInput) error {
	if err := a.enter(ctx, "UpdateOrganization"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.Orgs {
		if a.Orgs[i].ID == id {
			a.Orgs[i].Name = in.Name
			a.Orgs[i].Description = in.Description
			return nil
		}
	}
	return domerrors.ErrOrganizationNotFound
}

// LeaveOrganization implements ports.OrganizationAPI.
func (a *API) LeaveOrganization(ctx context.Context, id domain.OrganizationID) error {
	if err := a.enter(ctx, "LeaveOrganization"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.Orgs {
		if a.Orgs[i].ID == id {
			a.Orgs = append(a.Orgs[:i:i], a.Orgs[i+1:]...)
			return nil
		}
	}
	return domerrors.ErrOrganizationNotFound
}

// ListMembers implements ports.MembershipAPI.
func (a *API) ListMembers(ctx context.Context, org domain.OrganizationID) ([]domain.User, error) {
	if err := a.enter(ctx, "ListMembers"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.partition(org, true), nil
}

// ListNonMembers implements ports.MembershipAPI.
func (a *API) ListNonMembers(ctx context.Context, org domain.OrganizationID) ([]domain.User, error) {
	if err := a.enter(ctx, "ListNonMembers"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.partition(org, false), nil
}

func (a *API) partition(org domain.OrganizationID, members bool) []domain.User {
	in := make(map[domain.UserID]bool)
	for _, id := range a.Members[org] {
		in[id] = true
	}
	var out []domain.User
	for _, u := range a.Users {
		if in[u.ID] == members {
			out = append(out, u)
		}
	}
	return out
}

// AddMembers implements ports.MembershipAPI. Unknown emails are ignored.
func (a *API) AddMembers(ctx context.Context, org domain.OrganizationID, emails []string) error {
	if err := a.enter(ctx, "AddMembers"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range emails {
		for _, u := range a.Users {
			if strings.EqualFold(u.Email, e) && !a.isMember(org, u.ID) {
				a.Members[org] = append(a.Members[org], u.ID)
			}
		}
	}
	return nil
}

// RemoveMember implements ports.MembershipAPI.
func (a *API) RemoveMember(ctx context.Context, org domain.OrganizationID, user domain.UserID) error {
	if err := a.enter(ctx, "RemoveMember"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := a.Members[org]
	for i, id := range ids {
		if id == user {
			a.Members[org] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (a *API) isMember(org domain.OrganizationID, user domain.UserID) bool {
	for _, id := range a.Members[org] {
		if id == user {
			return true
		}
	}
	return false
}

// ListTasks implements ports.TaskAPI.
func (a *API) ListTasks(ctx context.Context, org domain.OrganizationID, search string) ([]domain.Task, error) {
	a.mu.Lock()
	a.search = append(a.search, search)
	a.mu.Unlock()
	if err := a.enter(ctx, "ListTasks"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.Task
	for _, t := range a.Tasks {
		if t.OrganizationID != org {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name+" "+t.Description), strings.ToLower(search)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateTask implements ports.TaskAPI.
func (a *API) CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	if err := a.enter(ctx, "CreateTask"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	t := domain.Task{
		ID:             domain.TaskID(a.id()),
		Name:           in.Name,
		Description:    in.Description,
		Status:         in.Status,
		Priority:       in.Priority,
		OrganizationID: in.OrganizationID,
		AssignedTo:     in.AssignedTo,
		Assignee:       a.user(in.AssignedTo),
		CreatedAt:      time.Now(),
	}
	a.Tasks = append(a.Tasks, t)
	return &t, nil
}

// UpdateTask implements ports.TaskAPI.
func (a *API) UpdateTask(ctx context.Context, id domain.TaskID, in domain.TaskInput) (*domain.Task, error) {
	if err := a.enter(ctx, "UpdateTask"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.Tasks {
		t := &a.Tasks[i]
		if t.ID != id {
			continue
		}
		t.Name, t.Description = in.Name, in.Description
		t.Status, t.Priority = in.Status, in.Priority
		t.AssignedTo, t.Assignee = in.AssignedTo, a.user(in.AssignedTo)
		out := *t
		return &out, nil
	}
	return nil, domerrors.ErrTaskNotFound
}

// UpdateTaskStatus implements ports.TaskAPI.
func (a *API) UpdateTaskStatus(ctx context.Context, id domain.TaskID, org domain.OrganizationID, status domain.Status) (*domain.Task, error) {
	if err := a.enter(ctx, "UpdateTaskStatus"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.Tasks {
		if a.Tasks[i].ID == id && a.Tasks[i].OrganizationID == org {
			a.Tasks[i].Status = status
			out := a.Tasks[i]
			return &out, nil
		}
	}
	return nil, domerrors.ErrTaskNotFound
}

// DeleteTask implements ports.TaskAPI.
func (a *API) DeleteTask(ctx context.Context, id domain.TaskID) error {
	if err := a.enter(ctx, "DeleteTask"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.Tasks {
		if a.Tasks[i].ID == id {
			a.Tasks = append(a.Tasks[:i:i], a.Tasks[i+1:]...)
			return nil
		}
	}
	return domerrors.ErrTaskNotFound
}

func (a *API) user(id domain.UserID) *domain.User {
	for _, u := range a.Users {
		if u.ID == id {
			out := u
			return &out
		}
	}
	return nil
}

var _ ports.API = (*API)(nil)
