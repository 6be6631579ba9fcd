package dsapi

import "context"

// Role is a named permission set assignable to participants.
type Role struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Description string         `json:"description,omitempty"`
	Default     bool           `json:"default,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// RoleSpec carries the writable role fields.
type RoleSpec struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name,omitempty"`
	Description string          `json:"description,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// ListRoles returns the team's roles.
func (c *Client) ListRoles(ctx context.Context, token string, opts ListOptions) ([]Role, error) {
	var env listEnvelope[Role]
	if err := c.get(ctx, token, "/roles", opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetRole returns a single role by name or ID.
func (c *Client) GetRole(ctx context.Context, token, role string) (*Role, error) {
	var r Role
	if err := c.get(ctx, token, "/roles/"+role, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, token string, spec RoleSpec) (*Role, error) {
	var r Role
	if err := c.post(ctx, token, "/roles", spec, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRole patches a role.
func (c *Client) UpdateRole(ctx context.Context, token, role string, spec RoleSpec) (*Role, error) {
	var r Role
	if err := c.patch(ctx, token, "/roles/"+role, spec, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRole removes a role.
func (c *Client) DeleteRole(ctx context.Context, token, role string) error {
	return c.delete(ctx, token, "/roles/"+role)
}

// ListPermissions returns all permission names recognized by the API.
func (c *Client) ListPermissions(ctx context.Context, token string) ([]string, error) {
	var perms []string
	if err := c.get(ctx, token, "/permissions", nil, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}
