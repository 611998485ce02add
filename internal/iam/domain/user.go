package domain

import "time"

type User struct {
	ID           string
	CompanyID    string
	Name         string
	Email        string
	PasswordHash string // argon2id PHC string, never serialized
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
