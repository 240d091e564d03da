package user

import "github.com/gymmatch/manager-api/internal/rbac"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name  string    `json:"name" validate:"required,max=120"`
	Email string    `json:"email" validate:"required,email"`
	Role  rbac.Role `json:"role" validate:"required,oneof=owner manager trainer staff"`
	// Password may be left empty; a temporary one is generated and
	// returned once.
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type CreateUserResponse struct {
	User              User   `json:"user"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

type ChangeRoleRequest struct {
	Role rbac.Role `json:"role" validate:"required"`
}

// UpdateUserRequest changes profile fields; omitted fields are kept.
type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitnil,min=1,max=120"`
	Email  *string `json:"email,omitempty" validate:"omitnil,email"`
	Status *Status `json:"status,omitempty" validate:"omitnil,oneof=active inactive"`
}

type MeResponse struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	Role      rbac.Role `json:"role"`
	RoleLabel string    `json:"roleLabel"`
	User      *User     `json:"user,omitempty"`
}
