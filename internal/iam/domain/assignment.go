package domain

import "time"

// RoleAssignment binds a role to a user within a company. A nil
// ResourceType/ResourceID pair makes the assignment global for the
// company; a non-nil pair scopes it to one resource. The two fields are
// set or unset together, never mixed.
type RoleAssignment struct {
	ID           string
	UserID       string
	RoleID       string
	CompanyID    string
	ResourceType *string
	ResourceID   *int64
	CreatedAt    time.Time
}

// IsGlobal reports whether the assignment applies company-wide rather
// than to a single resource.
func (a RoleAssignment) IsGlobal() bool {
	return a.ResourceType == nil && a.ResourceID == nil
}

// Covers reports whether the assignment grants its role for the given
// resource. Global assignments cover everything in the company; scoped
// assignments cover only an exact type and id match.
func (a RoleAssignment) Covers(resourceType string, resourceID int64) bool {
	if a.IsGlobal() {
		return true
	}
	return a.ResourceType != nil && *a.ResourceType == resourceType &&
		a.ResourceID != nil && *a.ResourceID == resourceID
}
