package domain

import (
	"strconv"
	"time"
)

// Permission keys reported in Organization.UserPermissions.
const (
	PermAddProject       = "organizations.add_project"
	PermAddUser          = "organizations.add_user"
	PermRemoveUser       = "organizations.remove_user"
	PermViewOrganization = "organizations.view_organization"
	PermUpdateProject    = "projects.change_project"
)

// AllPermissions lists every permission key an organization creator holds.
var AllPermissions = []string{
	PermAddProject,
	PermAddUser,
	PermRemoveUser,
	PermViewOrganization,
	PermUpdateProject,
}

// OrganizationID is a value object for organization identity. Zero means "none".
type OrganizationID int64

// String returns the decimal form used in request paths.
func (o OrganizationID) String() string { return strconv.FormatInt(int64(o), 10) }

// IsZero reports whether no organization is referenced.
func (o OrganizationID) IsZero() bool { return o == 0 }

// Organization scopes tasks and memberships.
type Organization struct {
	ID              OrganizationID `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description" yaml:"description,omitempty"`
	CreatedAt       time.Time      `json:"created_at" yaml:"created_at"`
	CreatedBy       UserID         `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	UserPermissions []string       `json:"user_permissions,omitempty" yaml:"user_permissions,omitempty"`
	Users           []User         `json:"users,omitempty" yaml:"users,omitempty"`
}

// HasPermission reports whether the session user holds key in this organization.
func (o Organization) HasPermission(key string) bool {
	for _, p := range o.UserPermissions {
		if p == key {
			return true
		}
	}
	return false
}

// OrganizationInput is the body for create and update.
type OrganizationInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
