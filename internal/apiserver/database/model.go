package database

import "time"

// Role represents the role of a user within a tenant
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleCollector  Role = "collector"
	RoleSeller     Role = "seller"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleCollector, RoleSeller:
		return true
	}
	return false
}

// Tenant represents an isolated customer organization. The domain is
// unique across tenants; the login flow resolves a tenant from the
// domain part of an email address.
type Tenant struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Domain    string    `json:"domain" gorm:"type:varchar(255);uniqueIndex;not null"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User represents an account scoped to exactly one tenant. The same
// email may exist in two tenants as two distinct users; (tenant_id,
// email) is unique.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID     string    `json:"tenantId" gorm:"type:varchar(36);not null;uniqueIndex:idx_users_tenant_email"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_tenant_email"`
	PasswordHash string    `json:"-" gorm:"type:varchar(100);not null"` // never exposed in JSON
	FullName     string    `json:"fullName" gorm:"type:varchar(100)"`
	Role         Role      `json:"role" gorm:"type:varchar(20);not null;default:'seller'"`
	IsActive     bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
