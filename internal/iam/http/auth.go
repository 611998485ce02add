package http

import (
	"net/http"

	"github.com/taskgrid/iam/internal/iam/obs"
	"github.com/taskgrid/iam/internal/iam/service"
	"github.com/taskgrid/iam/pkg/httpx"
	"github.com/taskgrid/iam/pkg/iamsdk"
	"github.com/taskgrid/iam/pkg/slogx"
)

// AuthHandler serves registration, login, token refresh, logout and the
// current-user endpoint.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister creates a company with its founding user and signs them in.
// The founder comes back with the super-admin role already granted.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req iamsdk.RegisterRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if apiErr := validateRegister(req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	result, err := h.AuthService.RegisterCompany(ctx,
		service.CompanyInput{
			Name:    req.Company.Name,
			Email:   req.Company.Email,
			Phone:   req.Company.Phone,
			Address: req.Company.Address,
		},
		service.UserInput{
			Name:     req.User.Name,
			Email:    req.User.Email,
			Password: req.User.Password,
		},
	)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	obs.ObserveTokenIssued("access")
	obs.ObserveTokenIssued("refresh")

	user := userView(result.User)
	user.Roles = result.Roles

	httpx.WriteJSON(w, http.StatusCreated, iamsdk.RegisterResponse{
		User:          user,
		Company:       companyView(result.Company),
		TokenResponse: tokenView(result.Tokens),
	})
}

func validateRegister(req iamsdk.RegisterRequest) *iamsdk.APIError {
	if apiErr := requireNonEmpty("company.name", req.Company.Name); apiErr != nil {
		return apiErr
	}
	if apiErr := requireEmail("company.email", req.Company.Email); apiErr != nil {
		return apiErr
	}
	if apiErr := requireNonEmpty("user.name", req.User.Name); apiErr != nil {
		return apiErr
	}
	if apiErr := requireEmail("user.email", req.User.Email); apiErr != nil {
		return apiErr
	}
	if apiErr := requirePassword("user.password", req.User.Password); apiErr != nil {
		return apiErr
	}
	if req.User.Password != req.User.PasswordConfirmation {
		return iamsdk.NewValidationError("user.password_confirmation", "does not match password")
	}
	return nil
}

// HandleLogin exchanges email and password for a token pair. Unknown email
// and wrong password are indistinguishable on the wire.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req iamsdk.LoginRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if apiErr := requireEmail("email", req.Email); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if apiErr := requireNonEmpty("password", req.Password); apiErr != nil {
		apiErr.WriteError(w)
		return
	}

	result, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	obs.ObserveTokenIssued("access")
	obs.ObserveTokenIssued("refresh")

	user := userView(result.User)
	user.Roles = result.Roles

	httpx.WriteJSON(w, http.StatusOK, iamsdk.LoginResponse{
		User:          user,
		TokenResponse: tokenView(result.Tokens),
	})
}

// HandleRefresh exchanges a refresh token for a new access token with a
// freshly resolved permission snapshot. The refresh token is not rotated.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req iamsdk.RefreshRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apiErr.WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		iamsdk.ErrTokenNotProvided.WriteError(w)
		return
	}

	result, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	obs.ObserveTokenIssued("access")

	user := userView(result.User)
	user.Roles = result.Roles

	httpx.WriteJSON(w, http.StatusOK, iamsdk.LoginResponse{
		User:          user,
		TokenResponse: tokenView(result.Tokens),
	})
}

// HandleLogout revokes the bearer access token until its natural expiry.
// Repeat logouts with the same token succeed; the operation is idempotent.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AuthService.Logout(ctx, httpx.BearerToken(r)); err != nil {
		writeServiceError(w, log, err)
		return
	}

	obs.ObserveTokenRevoked()
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user together with their company.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, company, err := h.AuthService.Me(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	cv := companyView(company)
	httpx.WriteJSON(w, http.StatusOK, iamsdk.MeResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CompanyID: user.CompanyID,
		Company:   &cv,
	})
}
