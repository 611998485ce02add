package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskgrid/iam/internal/iam/service"
	"github.com/taskgrid/iam/pkg/iamsdk"
)

// decodeJSON unmarshals the request body into dst. A missing or malformed
// body maps to the generic invalid_request error.
func decodeJSON(r *http.Request, dst any) *iamsdk.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return iamsdk.ErrInvalidRequest
	}
	return nil
}

// writeServiceError maps service sentinels onto wire errors. Anything
// unmapped is a server error and gets logged; the sentinel cases are
// expected outcomes and stay quiet.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		iamsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrTokenNotProvided):
		iamsdk.ErrTokenNotProvided.WriteError(w)
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, service.ErrWrongTokenType):
		iamsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicateRole):
		iamsdk.ErrConflict.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCompanyNotFound),
		errors.Is(err, service.ErrRoleNotFound),
		errors.Is(err, service.ErrAssignmentNotFound):
		iamsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrInvalidScope):
		iamsdk.NewValidationError("resource_type",
			"resource_type and resource_id must be provided together").WriteError(w)
	default:
		log.Error("request failed", "error", err)
		iamsdk.ErrServerError.WriteError(w)
	}
}
