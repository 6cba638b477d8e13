package dto

// CreateTenantRequest represents a tenant provisioning request
type CreateTenantRequest struct {
	Name   string `json:"name" binding:"required"`
	Domain string `json:"domain" binding:"required,fqdn"`
}

// UpdateTenantRequest represents a tenant update. The domain is
// immutable once provisioned; users reference it at login.
type UpdateTenantRequest struct {
	Name     string `json:"name,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// TenantResponse represents a tenant record returned by the API
type TenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}
