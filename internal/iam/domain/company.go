package domain

import "time"

// Company is the tenant boundary. Every user, role assignment and
// permission check is scoped to exactly one company.
type Company struct {
	ID         string
	Name       string
	Identifier string // short random slug, unique, used in signup links
	Email      string
	Phone      string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
