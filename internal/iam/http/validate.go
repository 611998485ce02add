package http

import (
	"net/mail"

	"github.com/taskgrid/iam/pkg/iamsdk"
)

const minPasswordLength = 8

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// requireEmail validates a mandatory email field.
func requireEmail(field, value string) *iamsdk.APIError {
	if value == "" {
		return iamsdk.NewValidationError(field, "is required")
	}
	if !validEmail(value) {
		return iamsdk.NewValidationError(field, "must be a valid email address")
	}
	return nil
}

func requireNonEmpty(field, value string) *iamsdk.APIError {
	if value == "" {
		return iamsdk.NewValidationError(field, "is required")
	}
	return nil
}

func requirePassword(field, value string) *iamsdk.APIError {
	if value == "" {
		return iamsdk.NewValidationError(field, "is required")
	}
	if len(value) < minPasswordLength {
		return iamsdk.NewValidationError(field, "must be at least 8 characters")
	}
	return nil
}

// requireScopePair enforces the both-or-neither rule on resource scopes.
func requireScopePair(resourceType *string, resourceID *int64) *iamsdk.APIError {
	if (resourceType == nil) != (resourceID == nil) {
		return iamsdk.NewValidationError("resource_type",
			"resource_type and resource_id must be provided together")
	}
	return nil
}
