package domain

import "time"

// Permission is a grantable capability, e.g. "task:create". ResourceType
// names the kind of resource the permission applies to ("task", "project").
type Permission struct {
	ID           string
	Slug         string
	Name         string
	ResourceType string
	Description  string
	CreatedAt    time.Time
}
