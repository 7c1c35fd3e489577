package userctx

import "context"

// Context key type
type contextKey string

const usernameKey contextKey = "username"
const userIDKey contextKey = "user_id"
const roleKey contextKey = "role"

// SetUsername adds the acting username to the request context
func SetUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// GetUsername retrieves the acting username from the request context
func GetUsername(ctx context.Context) string {
	username, ok := ctx.Value(usernameKey).(string)
	if !ok {
		return "anonymous"
	}
	return username
}

// SetUserID adds the user ID to the request context
func SetUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// GetUserID retrieves the user ID from the request context
func GetUserID(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 0
}

// SetRole adds the user role to the request context
func SetRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// GetRole retrieves the user role from the request context
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(roleKey).(string)
	if !ok {
		return ""
	}
	return role
}
