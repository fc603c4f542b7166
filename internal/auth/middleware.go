package auth

import (
	"context"

	"github.com/snipvault/snipvault/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// UserFromContext retrieves the authenticated user from the context, or nil
// when the request was not authenticated.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(UserContextKey).(*store.User)
	return u
}
