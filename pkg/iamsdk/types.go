// Package iamsdk is the client SDK for the taskgrid identity service. It
// supports two trust modes for downstream services: local verification of
// access tokens with the shared secret (fast, blind to revocation until the
// token expires) and remote permission checks against the identity service
// (a network round trip, but immediately consistent with revocations and
// role changes). See PermissionSource for picking between them.
package iamsdk

// UserView is the public shape of a user.
type UserView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// CompanyView is the public shape of a company.
type CompanyView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
}

// TokenResponse carries an issued token pair. ExpiresIn is in seconds and
// refers to the access token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RegisterRequest struct {
	Company RegisterCompany `json:"company"`
	User    RegisterUser    `json:"user"`
}

type RegisterCompany struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type RegisterUser struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type RegisterResponse struct {
	User    UserView    `json:"user"`
	Company CompanyView `json:"company"`
	TokenResponse
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User UserView `json:"user"`
	TokenResponse
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	CompanyID string       `json:"company_id"`
	Company   *CompanyView `json:"company,omitempty"`
}

// CheckRequest asks whether a user holds a permission. UserID and CompanyID
// default server-side to the bearer token's subject and company.
type CheckRequest struct {
	Permission   string  `json:"permission"`
	UserID       string  `json:"user_id,omitempty"`
	CompanyID    string  `json:"company_id,omitempty"`
	ResourceType *string `json:"resource_type,omitempty"`
	ResourceID   *int64  `json:"resource_id,omitempty"`
}

type CheckResponse struct {
	Allowed bool `json:"allowed"`
}

// BatchCheckRequest evaluates several permission slugs against one shared
// resource scope in a single round trip.
type BatchCheckRequest struct {
	Permissions  []string `json:"permissions"`
	UserID       string   `json:"user_id,omitempty"`
	CompanyID    string   `json:"company_id,omitempty"`
	ResourceType *string  `json:"resource_type,omitempty"`
	ResourceID   *int64   `json:"resource_id,omitempty"`
}

type BatchCheckResponse struct {
	Results map[string]bool `json:"results"`
}

type AssignRoleRequest struct {
	UserID       string  `json:"user_id"`
	RoleSlug     string  `json:"role_slug"`
	ResourceType *string `json:"resource_type,omitempty"`
	ResourceID   *int64  `json:"resource_id,omitempty"`
}

type RoleView struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type UserRoleView struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	RoleID       string  `json:"role_id"`
	CompanyID    string  `json:"company_id"`
	Role         RoleRef `json:"role"`
	ResourceType *string `json:"resource_type"`
	ResourceID   *int64  `json:"resource_id"`
}

type RoleRef struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InviteUserRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Password     string  `json:"password,omitempty"`
	RoleSlug     string  `json:"role_slug,omitempty"`
	ResourceType *string `json:"resource_type,omitempty"`
	ResourceID   *int64  `json:"resource_id,omitempty"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type ListRolesResponse struct {
	Roles []RoleView `json:"roles"`
}

type ListUserRolesResponse struct {
	Roles []UserRoleView `json:"roles"`
}

type ListUsersResponse struct {
	Users []UserView `json:"users"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

// ErrorResponse is the wire shape of every error the service returns.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Field            string `json:"field,omitempty"`
}
