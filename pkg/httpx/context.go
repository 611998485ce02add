package httpx

import (
	"context"

	"github.com/taskgrid/iam/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyCompanyID ctxKey = "company_id"
	CtxKeyClaims    ctxKey = "claims"
)

// UserIDFromContext returns the authenticated subject id, or "" when the
// request did not pass the authn middleware.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// CompanyIDFromContext returns the authenticated tenant id, or "".
func CompanyIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyCompanyID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the full validated access claims.
func ClaimsFromContext(ctx context.Context) (jwtx.AccessClaims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.AccessClaims)
	return c, ok
}
