package model

import "context"

type contextKey string

const userContextKey contextKey = "current_user"

// WithUser binds the authenticated subject to the request context. The auth
// middleware is the only writer; handlers read it back with UserFromContext.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey).(*User)
	return u, ok && u != nil
}
