package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyRole   ctxKey = "role"
	CtxKeyClaims ctxKey = "claims"
)

// UserIDFromContext returns the authenticated user's id, or false when the
// request did not pass through AuthnMiddleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(int64)
	return v, ok
}

// RoleFromContext returns the authenticated user's role claim.
func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyRole).(string)
	return v, ok
}
