package http

import (
	"github.com/taskgrid/iam/internal/iam/domain"
	"github.com/taskgrid/iam/pkg/iamsdk"
)

func userView(u domain.User) iamsdk.UserView {
	return iamsdk.UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CompanyID: u.CompanyID,
	}
}

func companyView(c domain.Company) iamsdk.CompanyView {
	return iamsdk.CompanyView{
		ID:         c.ID,
		Name:       c.Name,
		Identifier: c.Identifier,
		Email:      c.Email,
	}
}

func tokenView(t domain.TokenPair) iamsdk.TokenResponse {
	return iamsdk.TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    int64(t.ExpiresIn.Seconds()),
	}
}

func roleView(r domain.RoleWithPermissions) iamsdk.RoleView {
	return iamsdk.RoleView{
		ID:          r.ID,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.Permissions,
	}
}
