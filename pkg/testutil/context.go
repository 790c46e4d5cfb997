package testutil

import (
	"net/http"

	id "dealroom/pkg/domain"
	"dealroom/pkg/requestcontext"
)

// WithUser adds an authenticated user and role to the request context,
// as the auth middleware would.
func WithUser(req *http.Request, userID id.UserID, role id.Role) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithRole(ctx, role)
	return req.WithContext(ctx)
}
