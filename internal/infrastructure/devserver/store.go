package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

type role int

const (
	roleMember role = iota + 1
	roleAdmin
)

var memberPermissions = []string{
	domain.PermViewOrganization,
	domain.PermAddProject,
	domain.PermUpdateProject,
}

func (r role) permissions() []string {
	switch r {
	case roleAdmin:
		return append([]string(nil), domain.AllPermissions...)
	case roleMember:
		return append([]string(nil), memberPermissions...)
	default:
		return nil
	}
}

type account struct {
	user domain.User
	hash string
}

type orgRecord struct {
	org   domain.Organization
	roles map[domain.UserID]role
}

// memory is the dev server's data. All methods expect mu to be held by the
// caller.
type memory struct {
	mu     sync.RWMutex
	nextID int64

	accounts map[domain.UserID]*account
	orgs     map[domain.OrganizationID]*orgRecord
	tasks    map[domain.TaskID]*domain.Task
}

func newMemory() *memory {
	return &memory{
		accounts: make(map[domain.UserID]*account),
		orgs:     make(map[domain.OrganizationID]*orgRecord),
		tasks:    make(map[domain.TaskID]*domain.Task),
	}
}

func (m *memory) id() int64 {
	m.nextID++
	return m.nextID
}

// accountByLogin matches username or email, case-insensitively.
func (m *memory) accountByLogin(login string) *account {
	for _, a := range m.accounts {
		if strings.EqualFold(a.user.Username, login) || strings.EqualFold(a.user.Email, login) {
			return a
		}
	}
	return nil
}

func (m *memory) accountByEmail(email string) *account {
	for _, a := range m.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return a
		}
	}
	return nil
}

func (m *memory) usernameTaken(username string) bool {
	for _, a := range m.accounts {
		if strings.EqualFold(a.user.Username, username) {
			return true
		}
	}
	return false
}

func (m *memory) sortedUsers(keep func(domain.UserID) bool) []domain.User {
	out := make([]domain.User, 0)
	for id, a := range m.accounts {
		if keep(id) {
			out = append(out, a.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memory) roleOf(org domain.OrganizationID, user domain.UserID) role {
	rec, ok := m.orgs[org]
	if !ok {
		return 0
	}
	return rec.roles[user]
}

func (m *memory) can(org domain.OrganizationID, user domain.UserID, perm string) bool {
	for _, p := range m.roleOf(org, user).permissions() {
		if p == perm {
			return true
		}
	}
	return false
}

// organizationView renders rec as seen by viewer.
func (m *memory) organizationView(rec *orgRecord, viewer domain.UserID) domain.Organization {
	o := rec.org
	o.UserPermissions = rec.roles[viewer].permissions()
	o.Users = m.sortedUsers(func(id domain.UserID) bool { return rec.roles[id] != 0 })
	return o
}

func (m *memory) organizationsOf(user domain.UserID) []domain.Organization {
	out := make([]domain.Organization, 0)
	for _, rec := range m.orgs {
		if rec.roles[user] != 0 {
			out = append(out, m.organizationView(rec, user))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memory) createOrganization(name, description string, creator domain.UserID) *orgRecord {
	rec := &orgRecord{
		org: domain.Organization{
			ID:          domain.OrganizationID(m.id()),
			Name:        name,
			Description: description,
			CreatedAt:   time.Now().UTC(),
			CreatedBy:   creator,
		},
		roles: map[domain.UserID]role{creator: roleAdmin},
	}
	m.orgs[rec.org.ID] = rec
	return rec
}

// taskView fills the assignee and the viewer's permissions.
func (m *memory) taskView(t *domain.Task, viewer domain.UserID) domain.Task {
	out := *t
	out.Assignee = nil
	if a, ok := m.accounts[t.AssignedTo]; ok {
		u := a.user
		out.Assignee = &u
	}
	out.UserPermissions = m.roleOf(t.OrganizationID, viewer).permissions()
	return out
}

// searchTasks lists org's tasks whose name, description or assignee
// username, email or first name contain q, case-insensitively.
func (m *memory) searchTasks(org domain.OrganizationID, q string, viewer domain.UserID) []domain.Task {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]domain.Task, 0)
	for _, t := range m.tasks {
		if t.OrganizationID != org {
			continue
		}
		if q != "" && !m.taskMatches(t, q) {
			continue
		}
		out = append(out, m.taskView(t, viewer))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memory) taskMatches(t *domain.Task, q string) bool {
	fields := []string{t.Name, t.Description}
	if a, ok := m.accounts[t.AssignedTo]; ok {
		fields = append(fields, a.user.Username, a.user.Email, a.user.FirstName)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
