package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

var _ ports.API = (*Client)(nil)

// Login implements ports.AuthAPI.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, call{method: http.MethodPost, route: "/auth/login", path: "/auth/login", body: creds, out: &out})
	return out.Token, err
}

// Register implements ports.AuthAPI.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, call{method: http.MethodPost, route: "/auth/register", path: "/auth/register", body: reg, out: &u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me implements ports.AuthAPI.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, call{method: http.MethodGet, route: "/auth/me/", path: "/auth/me/", out: &u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListOrganizations implements ports.OrganizationAPI.
func (c *Client) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	var out listBody[domain.Organization]
	err := c.do(ctx, call{method: http.MethodGet, route: "/organization/", path: "/organization/", out: &out})
	return out.items, err
}

// GetOrganization implements ports.OrganizationAPI.
func (c *Client) GetOrganization(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error) {
	var o domain.Organization
	err := c.do(ctx, call{method: http.MethodGet, route: "/organization/{id}", path: "/organization/" + id.String(), out: &o})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrganization implements ports.OrganizationAPI.
func (c *Client) CreateOrganization(ctx context.Context, in domain.OrganizationInput) (*domain.Organization, error) {
	var o domain.Organization
	if err := c.do(ctx, call{method: http.MethodPost, route: "/organization/", path: "/organization/", body: in, out: &o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrganization implements ports.OrganizationAPI.
func (c *Client) UpdateOrganization(ctx context.Context, id domain.OrganizationID, in domain.OrganizationInput) error {
	return c.do(ctx, call{method: http.MethodPut, route: "/organizations/{id}", path: "/organizations/" + id.String(), body: in})
}

// LeaveOrganization implements ports.OrganizationAPI.
func (c *Client) LeaveOrganization(ctx context.Context, id domain.OrganizationID) error {
	body := map[string]domain.OrganizationID{"organization_id": id}
	return c.do(ctx, call{method: http.MethodPost, route: "/organization/leave-organization", path: "/organization/leave-organization", body: body})
}

// ListMembers implements ports.MembershipAPI.
func (c *Client) ListMembers(ctx context.Context, org domain.OrganizationID) ([]domain.User, error) {
	var out listBody[domain.User]
	err := c.do(ctx, call{method: http.MethodGet, route: "/organization/{id}/users", path: "/organization/" + org.String() + "/users", out: &out})
	return out.items, err
}

// ListNonMembers implements ports.MembershipAPI.
func (c *Client) ListNonMembers(ctx context.Context, org domain.OrganizationID) ([]domain.User, error) {
	var out listBody[domain.User]
	err := c.do(ctx, call{method: http.MethodGet, route: "/organization/{id}/non-members", path: "/organization/" + org.String() + "/non-members", out: &out})
	return out.items, err
}

// AddMembers implements ports.MembershipAPI.
func (c *Client) AddMembers(ctx context.Context, org domain.OrganizationID, emails []string) error {
	body := struct {
		Emails       []string              `json:"emails"`
		Organization domain.OrganizationID `json:"organization"`
	}{emails, org}
	return c.do(ctx, call{method: http.MethodPost, route: "/organization/add_member", path: "/organization/add_member", body: body})
}

// RemoveMember implements ports.MembershipAPI.
func (c *Client) RemoveMember(ctx context.Context, org domain.OrganizationID, user domain.UserID) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/organizations/{id}/remove-member/{memberId}",
		path:   "/organizations/" + org.String() + "/remove-member/" + user.String(),
	})
}

// ListTasks implements ports.TaskAPI.
func (c *Client) ListTasks(ctx context.Context, org domain.OrganizationID, search string) ([]domain.Task, error) {
	q := url.Values{}
	q.Set("organization_id", org.String())
	q.Set("search", search)
	var out listBody[domain.Task]
	err := c.do(ctx, call{method: http.MethodGet, route: "/project/", path: "/project/", query: q, out: &out})
	return out.items, err
}

// CreateTask implements ports.TaskAPI.
func (c *Client) CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	var t domain.Task
	if err := c.do(ctx, call{method: http.MethodPost, route: "/project/", path: "/project/", body: in, out: &t}); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask implements ports.TaskAPI.
func (c *Client) UpdateTask(ctx context.Context, id domain.TaskID, in domain.TaskInput) (*domain.Task, error) {
	var t domain.Task
	err := c.do(ctx, call{
		method: http.MethodPatch,
		route:  "/project/{id}/{orgId}/",
		path:   "/project/" + id.String() + "/" + in.OrganizationID.String() + "/",
		body:   in,
		out:    &t,
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTaskStatus implements ports.TaskAPI.
func (c *Client) UpdateTaskStatus(ctx context.Context, id domain.TaskID, org domain.OrganizationID, status domain.Status) (*domain.Task, error) {
	body := struct {
		Status       domain.Status         `json:"status"`
		Organization domain.OrganizationID `json:"organization"`
	}{status, org}
	var t domain.Task
	err := c.do(ctx, call{
		method: http.MethodPatch,
		route:  "/project/{id}/update-status/",
		path:   "/project/" + id.String() + "/update-status/",
		body:   body,
		out:    &t,
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask implements ports.TaskAPI.
func (c *Client) DeleteTask(ctx context.Context, id domain.TaskID) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/project/{id}/", path: "/project/" + id.String() + "/"})
}
