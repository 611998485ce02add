package http

import (
	"net/http"

	"github.com/taskgrid/iam/internal/iam/service"
	"github.com/taskgrid/iam/pkg/httpx"
	"github.com/taskgrid/iam/pkg/iamsdk"
	"github.com/taskgrid/iam/pkg/slogx"
)

// Permission slugs gating user management.
const (
	permUserInvite = "user:invite"
	permUserUpdate = "user:update"
	permUserDelete = "user:delete"
)

// UsersHandler serves user management within the caller's company. Invite,
// update and delete are gated on live permission checks rather than the
// token snapshot, so a role revoked mid-session takes effect immediately.
type UsersHandler struct {
	UserService       *service.UserService
	PermissionService *service.PermissionService
}

// requirePermission runs a live check for the authenticated caller.
func (h *UsersHandler) requirePermission(r *http.Request, slug string) *iamsdk.APIError {
	ctx := r.Context()
	allowed, err := h.PermissionService.Check(ctx,
		httpx.UserIDFromContext(ctx), httpx.CompanyIDFromContext(ctx),
		slug, service.ResourceScope{})
	if err != nil {
		slogx.FromContext(ctx).Error("permission check failed", "error", err)
		return iamsdk.ErrServerError
	}
	if !allowed {
		return iamsdk.ErrForbidden
	}
	return nil
}

// HandleInvite creates a user in the caller's company, optionally with an
// initial role. Without a password the invitee gets a random temporary one.
func (h *UsersHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if apiErr := h.requirePermission(r, permUserInvite); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	var req iamsdk.InviteUserRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if apiErr := requireNonEmpty("name", req.Name); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if apiErr := requireEmail("email", req.Email); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if req.Password != "" {
		if apiErr := requirePassword("password", req.Password); apiErr != nil {
			apiErr.WriteError(w)
			return
		}
	}
	if apiErr := requireScopePair(req.ResourceType, req.ResourceID); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	user, err := h.UserService.Invite(ctx, httpx.CompanyIDFromContext(ctx), service.InviteInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		RoleSlug:     req.RoleSlug,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userView(user))
}

// HandleList returns the company's users with their company-wide roles.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.UserService.List(ctx, httpx.CompanyIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	out := iamsdk.ListUsersResponse{Users: make([]iamsdk.UserView, len(users))}
	for i, u := range users {
		view := userView(u.User)
		view.Roles = u.Roles
		out.Users[i] = view
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one user in the caller's company.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, err := h.UserService.Get(ctx, r.PathValue("id"), httpx.CompanyIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userView(user))
}

// HandleUpdate mutates a user's profile. Users may always update
// themselves; touching anyone else needs the user:update permission.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	targetID := r.PathValue("id")

	if targetID != httpx.UserIDFromContext(ctx) {
		if apiErr := h.requirePermission(r, permUserUpdate); apiErr != nil {
			apiErr.WriteError(w)
			return
		}
	}

	var req iamsdk.UpdateUserRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if req.Email != nil {
		if apiErr := requireEmail("email", *req.Email); apiErr != nil {
			apiErr.WriteError(w)
			return
		}
	}
	if req.Password != nil {
		if apiErr := requirePassword("password", *req.Password); apiErr != nil {
			apiErr.WriteError(w)
			return
		}
	}

	user, err := h.UserService.Update(ctx, targetID, httpx.CompanyIDFromContext(ctx), service.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userView(user))
}

// HandleDelete removes a user and their role assignments.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if apiErr := h.requirePermission(r, permUserDelete); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	if err := h.UserService.Delete(ctx, r.PathValue("id"), httpx.CompanyIDFromContext(ctx)); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
