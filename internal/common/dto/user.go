package dto

// CreateUserRequest represents a request to create a new user
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=admin supervisor collector seller"`
}

// CreateFirstAdminRequest represents the one-time bootstrap of the first
// admin account of a tenant. The role is forced to admin server-side.
type CreateFirstAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
}

// UpdateUserRequest represents a request to update a user
type UpdateUserRequest struct {
	Password string `json:"password,omitempty" binding:"omitempty,min=6"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=admin supervisor collector seller"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// UpdateProfileRequest represents a self-service profile update.
// The role is intentionally absent: a user may never change their own role.
type UpdateProfileRequest struct {
	Password string `json:"password,omitempty" binding:"omitempty,min=6"`
	FullName string `json:"fullName,omitempty"`
}

// ListUsersQuery represents the query parameters of the user listing
type ListUsersQuery struct {
	Search string `form:"search"`
	Role   string `form:"role" binding:"omitempty,oneof=admin supervisor collector seller"`
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1"`
}

// UserResponse represents a user record returned by the API.
// The password hash is never part of this shape.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ListUsersResponse represents a paginated user listing
type ListUsersResponse struct {
	Data []*UserResponse `json:"data"`
	Meta PaginationMeta  `json:"meta"`
}

// PaginationMeta carries the pagination envelope of a listing
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}
