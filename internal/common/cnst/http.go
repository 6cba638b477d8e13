package cnst

// HTTP header names used across the API surface.
const (
	HeaderTenantID      = "x-tenant-id"
	HeaderAuthorization = "Authorization"
)

// Keys under which request-scoped values are stored in the gin context.
const (
	CtxClaims = "claims"
	CtxTenant = "tenant"
)
