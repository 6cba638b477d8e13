package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record does not exist, or exists
// outside the caller's tenant scope.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("duplicate record")

// UserFilter narrows and paginates a user listing. Search matches
// name and email case-insensitively; Page and Limit are 1-based.
type UserFilter struct {
	Search string
	Role   Role
	Page   int
	Limit  int
}

// Database defines the methods for database operations. Every user
// query is scoped by tenant ID.
type Database interface {
	// Close closes the database connection.
	Close() error

	// CreateTenant creates a new tenant.
	CreateTenant(ctx context.Context, tenant *Tenant) error

	// GetTenantByID gets a tenant by its ID.
	GetTenantByID(ctx context.Context, id string) (*Tenant, error)

	// GetTenantByDomain gets a tenant by its email domain.
	GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error)

	// UpdateTenant updates an existing tenant.
	UpdateTenant(ctx context.Context, tenant *Tenant) error

	// ListTenants gets all tenants.
	ListTenants(ctx context.Context) ([]*Tenant, error)

	// CreateUser creates a new user within its tenant.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail gets a user by (tenantID, email).
	GetUserByEmail(ctx context.Context, tenantID, email string) (*User, error)

	// GetUserByID gets a user by (tenantID, id).
	GetUserByID(ctx context.Context, tenantID, id string) (*User, error)

	// UpdateUser updates an existing user.
	UpdateUser(ctx context.Context, user *User) error

	// DeleteUser deletes a user by (tenantID, id).
	DeleteUser(ctx context.Context, tenantID, id string) error

	// ListUsers gets users of a tenant matching the filter, plus the
	// total count before pagination.
	ListUsers(ctx context.Context, tenantID string, filter UserFilter) ([]*User, int64, error)

	// CountAdmins counts users with the admin role in a tenant.
	CountAdmins(ctx context.Context, tenantID string) (int64, error)

	// Transaction runs fn within a database transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
