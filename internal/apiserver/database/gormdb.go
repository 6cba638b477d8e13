package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// gormDB implements the Database interface over a gorm connection.
// The driver-specific constructors live in postgres.go, mysql.go and
// sqlite.go; everything else is shared.
type gormDB struct {
	db *gorm.DB
}

func newGormDB(gdb *gorm.DB) (*gormDB, error) {
	if err := gdb.AutoMigrate(&Tenant{}, &User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &gormDB{db: gdb}, nil
}

// Close closes the database connection
func (d *gormDB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateTenant creates a new tenant
func (d *gormDB) CreateTenant(ctx context.Context, tenant *Tenant) error {
	return mapError(getDBFromContext(ctx, d.db).Create(tenant).Error)
}

// GetTenantByID retrieves a tenant by its ID
func (d *gormDB) GetTenantByID(ctx context.Context, id string) (*Tenant, error) {
	var tenant Tenant
	err := getDBFromContext(ctx, d.db).
		Where("id = ?", id).
		First(&tenant).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &tenant, nil
}

// GetTenantByDomain retrieves a tenant by its email domain
func (d *gormDB) GetTenantByDomain(ctx context.Context, domain string) (*Tenant, error) {
	var tenant Tenant
	err := getDBFromContext(ctx, d.db).
		Where("domain = ?", strings.ToLower(domain)).
		First(&tenant).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &tenant, nil
}

// UpdateTenant updates an existing tenant
func (d *gormDB) UpdateTenant(ctx context.Context, tenant *Tenant) error {
	return mapError(getDBFromContext(ctx, d.db).Save(tenant).Error)
}

// ListTenants retrieves all tenants
func (d *gormDB) ListTenants(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := getDBFromContext(ctx, d.db).
		Order("created_at desc").
		Find(&tenants).Error
	return tenants, mapError(err)
}

// CreateUser creates a new user
func (d *gormDB) CreateUser(ctx context.Context, user *User) error {
	return mapError(getDBFromContext(ctx, d.db).Create(user).Error)
}

// GetUserByEmail retrieves a user by (tenantID, email)
func (d *gormDB) GetUserByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	var user User
	err := getDBFromContext(ctx, d.db).
		Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by (tenantID, id)
func (d *gormDB) GetUserByID(ctx context.Context, tenantID, id string) (*User, error) {
	var user User
	err := getDBFromContext(ctx, d.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&user).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// UpdateUser updates an existing user
func (d *gormDB) UpdateUser(ctx context.Context, user *User) error {
	return mapError(getDBFromContext(ctx, d.db).Save(user).Error)
}

// DeleteUser deletes a user by (tenantID, id)
func (d *gormDB) DeleteUser(ctx context.Context, tenantID, id string) error {
	res := getDBFromContext(ctx, d.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&User{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers retrieves users of a tenant matching the filter
func (d *gormDB) ListUsers(ctx context.Context, tenantID string, filter UserFilter) ([]*User, int64, error) {
	q := getDBFromContext(ctx, d.db).
		Model(&User{}).
		Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	var users []*User
	err := q.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, mapError(err)
	}
	return users, total, nil
}

// CountAdmins counts admin users in a tenant
func (d *gormDB) CountAdmins(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, d.db).
		Model(&User{}).
		Where("tenant_id = ? AND role = ?", tenantID, RoleAdmin).
		Count(&count).Error
	return count, mapError(err)
}

// Transaction runs fn within a database transaction. The transaction
// is carried through the context so that nested Database calls join it.
func (d *gormDB) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}

// mapError translates gorm errors into the package's sentinel errors
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "duplicate key") ||
			strings.Contains(err.Error(), "Duplicate entry") {
			return ErrDuplicate
		}
		return err
	}
}
