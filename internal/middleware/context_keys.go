package middleware

import "context"

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserIDCtxKey is the key used to store and retrieve the authenticated
	// user ID from the request context.
	UserIDCtxKey = ContextKey("user_id")
)

// UserIDFromContext extracts the authenticated user ID placed in the context
// by JWTAuth. The second return value reports whether an ID was present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDCtxKey).(string)
	return id, ok && id != ""
}
