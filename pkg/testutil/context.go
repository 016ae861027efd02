package testutil

import (
	"net/http"

	id "idgraph/pkg/domain"
	"idgraph/pkg/requestcontext"
)

// WithTenant authenticates req as subject acting within tenantID, the state
// the auth middleware leaves behind for a valid token.
func WithTenant(req *http.Request, tenantID id.TenantID, subject string) *http.Request {
	ctx := requestcontext.WithTenantID(req.Context(), tenantID)
	ctx = requestcontext.WithSubject(ctx, subject)
	return req.WithContext(ctx)
}

// AsTenant is WithTenant as middleware, for routers under test.
func AsTenant(tenantID id.TenantID, subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, WithTenant(r, tenantID, subject))
		})
	}
}
