package http

import (
	"context"
	"net/http"

	"github.com/taskgrid/iam/internal/iam/obs"
	"github.com/taskgrid/iam/internal/iam/service"
	"github.com/taskgrid/iam/pkg/httpx"
	"github.com/taskgrid/iam/pkg/iamsdk"
	"github.com/taskgrid/iam/pkg/slogx"
)

// PermissionsHandler serves live permission checks for remote-mode
// consumers. Unlike the token snapshot, these answers see revocations and
// role changes immediately.
type PermissionsHandler struct {
	PermissionService *service.PermissionService
}

// HandleCheck answers a single permission question. user_id and company_id
// default to the bearer token's subject and company.
func (h *PermissionsHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req iamsdk.CheckRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if apiErr := requireNonEmpty("permission", req.Permission); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if apiErr := requireScopePair(req.ResourceType, req.ResourceID); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	userID, companyID := subjectDefaults(ctx, req.UserID, req.CompanyID)

	allowed, err := h.PermissionService.Check(ctx, userID, companyID, req.Permission,
		scopeOf(req.ResourceType, req.ResourceID))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	obs.ObservePermissionCheck(allowed)
	httpx.WriteJSON(w, http.StatusOK, iamsdk.CheckResponse{Allowed: allowed})
}

// HandleCheckBatch answers several permission questions against one shared
// resource scope. Assignments are resolved once for the whole batch.
func (h *PermissionsHandler) HandleCheckBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req iamsdk.BatchCheckRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if len(req.Permissions) == 0 {
		iamsdk.NewValidationError("permissions", "must not be empty").WriteError(w)
		return
	}
	if apiErr := requireScopePair(req.ResourceType, req.ResourceID); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	userID, companyID := subjectDefaults(ctx, req.UserID, req.CompanyID)

	results, err := h.PermissionService.CheckBatch(ctx, userID, companyID, req.Permissions,
		scopeOf(req.ResourceType, req.ResourceID))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	for _, allowed := range results {
		obs.ObservePermissionCheck(allowed)
	}
	httpx.WriteJSON(w, http.StatusOK, iamsdk.BatchCheckResponse{Results: results})
}

// subjectDefaults fills absent query subjects from the authenticated token.
func subjectDefaults(ctx context.Context, userID, companyID string) (string, string) {
	if userID == "" {
		userID = httpx.UserIDFromContext(ctx)
	}
	if companyID == "" {
		companyID = httpx.CompanyIDFromContext(ctx)
	}
	return userID, companyID
}

func scopeOf(resourceType *string, resourceID *int64) service.ResourceScope {
	var scope service.ResourceScope
	if resourceType != nil {
		scope.Type = *resourceType
	}
	if resourceID != nil {
		scope.ID = *resourceID
	}
	return scope
}
