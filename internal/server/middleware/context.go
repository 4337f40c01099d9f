// Package middleware holds the HTTP middleware chain: authentication, client IP capture,
// audit logging, tracing, access logging, and login rate limiting.
package middleware

import "context"

type contextKey struct{ name string }

var userIDKey = contextKey{"user_id"}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id and true if set; otherwise "", false.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}
