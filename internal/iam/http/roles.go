package http

import (
	"net/http"
	"slices"

	"github.com/taskgrid/iam/internal/iam/service"
	"github.com/taskgrid/iam/pkg/httpx"
	"github.com/taskgrid/iam/pkg/iamsdk"
	"github.com/taskgrid/iam/pkg/slogx"
)

// RolesHandler serves the role catalog and role assignment management.
// Assign and remove are restricted to super-admins; the catalog and a
// user's own role listing are readable by any authenticated user.
type RolesHandler struct {
	RoleService *service.RoleService
}

// requireSuperAdmin gates mutation endpoints on the caller's token roles.
func requireSuperAdmin(r *http.Request) *iamsdk.APIError {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok || !slices.Contains(claims.Roles, service.RoleSuperAdmin) {
		return iamsdk.ErrForbidden
	}
	return nil
}

// HandleList returns every role with its permission slugs.
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	roles, err := h.RoleService.ListRoles(ctx)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	out := iamsdk.ListRolesResponse{Roles: make([]iamsdk.RoleView, len(roles))}
	for i, role := range roles {
		out.Roles[i] = roleView(role)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleUserRoles lists every assignment a user holds in the caller's
// company, scoped and global alike.
func (h *RolesHandler) HandleUserRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	assignments, err := h.RoleService.UserRoles(ctx, r.PathValue("id"), httpx.CompanyIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	out := iamsdk.ListUserRolesResponse{Roles: make([]iamsdk.UserRoleView, len(assignments))}
	for i, ua := range assignments {
		out.Roles[i] = iamsdk.UserRoleView{
			ID:        ua.Assignment.ID,
			UserID:    ua.Assignment.UserID,
			RoleID:    ua.Assignment.RoleID,
			CompanyID: ua.Assignment.CompanyID,
			Role: iamsdk.RoleRef{
				ID:          ua.Role.ID,
				Slug:        ua.Role.Slug,
				Name:        ua.Role.Name,
				Description: ua.Role.Description,
			},
			ResourceType: ua.Assignment.ResourceType,
			ResourceID:   ua.Assignment.ResourceID,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleAssign grants a role to a user in the caller's company, optionally
// scoped to a single resource.
func (h *RolesHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if apiErr := requireSuperAdmin(r); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	in, apiErr := decodeAssignment(r)
	if apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	if err := h.RoleService.Assign(ctx, in); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemove deletes an assignment by its natural key.
func (h *RolesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if apiErr := requireSuperAdmin(r); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	in, apiErr := decodeAssignment(r)
	if apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	if err := h.RoleService.Remove(ctx, in); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeAssignment parses and validates the shared assign/remove body. The
// company always comes from the caller's token, never from the request.
func decodeAssignment(r *http.Request) (service.AssignmentInput, *iamsdk.APIError) {
	var req iamsdk.AssignRoleRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		return service.AssignmentInput{}, apiErr
	}
	if apiErr := requireNonEmpty("user_id", req.UserID); apiErr != nil {
		return service.AssignmentInput{}, apiErr
	}
	if apiErr := requireNonEmpty("role_slug", req.RoleSlug); apiErr != nil {
		return service.AssignmentInput{}, apiErr
	}
	if apiErr := requireScopePair(req.ResourceType, req.ResourceID); apiErr != nil {
		return service.AssignmentInput{}, apiErr
	}

	return service.AssignmentInput{
		UserID:       req.UserID,
		RoleSlug:     req.RoleSlug,
		CompanyID:    httpx.CompanyIDFromContext(r.Context()),
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
	}, nil
}
