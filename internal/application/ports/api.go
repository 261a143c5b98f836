package ports

import (
	"context"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

// AuthAPI is the account side of the REST API.
type AuthAPI interface {
	// Login exchanges credentials for a session token.
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	// Me returns the profile of the token's owner.
	Me(ctx context.Context) (*domain.User, error)
}

// OrganizationAPI lists and mutates the session user's organizations.
type OrganizationAPI interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	GetOrganization(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error)
	CreateOrganization(ctx context.Context, in domain.OrganizationInput) (*domain.Organization, error)
	UpdateOrganization(ctx context.Context, id domain.OrganizationID, in domain.OrganizationInput) error
	LeaveOrganization(ctx context.Context, id domain.OrganizationID) error
}

// MembershipAPI reads and changes who belongs to an organization.
type MembershipAPI interface {
	ListMembers(ctx context.Context, org domain.OrganizationID) ([]domain.User, error)
	ListNonMembers(ctx context.Context, org domain.OrganizationID) ([]domain.User, error)
	AddMembers(ctx context.Context, org domain.OrganizationID, emails []string) error
	RemoveMember(ctx context.Context, org domain.OrganizationID, user domain.UserID) error
}

// TaskAPI reads and mutates tasks of one organization.
type TaskAPI interface {
	ListTasks(ctx context.Context, org domain.OrganizationID, search string) ([]domain.Task, error)
	CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id domain.TaskID, in domain.TaskInput) (*domain.Task, error)
	UpdateTaskStatus(ctx context.Context, id domain.TaskID, org domain.OrganizationID, status domain.Status) (*domain.Task, error)
	DeleteTask(ctx context.Context, id domain.TaskID) error
}

// API is everything the state layer needs from the server.
type API interface {
	AuthAPI
	OrganizationAPI
	MembershipAPI
	TaskAPI
}
